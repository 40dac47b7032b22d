package web

import (
	"net/http"
	"strings"

	"github.com/liuran001/MusicDesk-Go/server/download"
	"github.com/liuran001/MusicDesk-Go/server/music"
)

// handleDownload serves GET /api/download?provider=&id=&extra=&title=&artist=.
//
// The track is resolved like /api/play and then streamed through the proxy
// so the client never talks to the source host directly. title and artist
// only shape the attachment filename.
func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	id := strings.TrimSpace(q.Get("id"))
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'id' is required")
		return
	}
	provider := q.Get("provider")

	extra, err := parseExtra(q.Get("extra"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "query parameter 'extra' is not valid JSON")
		return
	}

	info, err := h.manager.Resolve(r.Context(), provider, id, extra)
	if err != nil {
		h.resolveError(w, provider, id, err)
		return
	}

	req := download.Request{
		URL:      info.URL,
		Provider: resolvedProviderName(h.manager, provider),
		Filename: downloadFilename(q.Get("title"), q.Get("artist"), info),
		Type:     info.Type,
	}
	if err := h.downloads.Stream(r.Context(), w, req); err != nil && h.logger != nil {
		// The stream may already be half-written; nothing to send back.
		h.logger.Warn("download failed", "provider", req.Provider, "id", id, "error", err)
	}
}

// resolvedProviderName normalizes the selector to the provider that actually
// served the request, accounting for the default fallback.
func resolvedProviderName(m music.Manager, selector string) string {
	if p := m.Get(selector); p != nil {
		return p.Name()
	}
	return selector
}

func downloadFilename(title, artist string, info *music.PlayInfo) string {
	title = strings.TrimSpace(title)
	artist = strings.TrimSpace(artist)

	name := title
	if name == "" {
		name = "download"
	}
	if artist != "" && artist != music.UnknownArtist {
		name = name + " - " + artist
	}

	ext := strings.ToLower(strings.TrimSpace(info.Type))
	if ext == "" {
		ext = "mp3"
	}
	return download.SanitizeFilename(name + "." + ext)
}
