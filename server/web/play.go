package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/liuran001/MusicDesk-Go/server/music"
)

// handlePlay serves GET /api/play?provider=<name>&id=<id>&extra=<json>.
//
// extra is the JSON-encoded Extra map the search result carried; it is
// passed back to the owning provider untouched.
func (h *Handler) handlePlay(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'id' is required")
		return
	}
	provider := r.URL.Query().Get("provider")

	extra, err := parseExtra(r.URL.Query().Get("extra"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "query parameter 'extra' is not valid JSON")
		return
	}

	info, err := h.manager.Resolve(r.Context(), provider, id, extra)
	if err != nil {
		h.resolveError(w, provider, id, err)
		return
	}

	h.writeJSON(w, http.StatusOK, info)
}

func parseExtra(raw string) (map[string]string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var extra map[string]string
	if err := json.Unmarshal([]byte(raw), &extra); err != nil {
		return nil, err
	}
	return extra, nil
}

// resolveError maps a resolution failure to a response. Every upstream
// failure mode is a bad gateway: the request was fine, the source was not.
func (h *Handler) resolveError(w http.ResponseWriter, provider, id string, err error) {
	if h.logger != nil {
		h.logger.Warn("resolution failed", "provider", provider, "id", id, "error", err)
	}

	switch {
	case errors.Is(err, music.ErrNoProviders):
		h.writeError(w, http.StatusServiceUnavailable, "no providers available")
	case errors.Is(err, music.ErrNotFound):
		h.writeError(w, http.StatusNotFound, "track not found")
	default:
		h.writeError(w, http.StatusBadGateway, "could not get a playable URL for this track")
	}
}
