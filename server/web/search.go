package web

import (
	"net/http"
	"strings"

	"github.com/liuran001/MusicDesk-Go/server/music"
)

type searchResponse struct {
	Items []music.MusicItem `json:"items"`
}

// handleSearch serves GET /api/search?q=<query>&provider=<selector>.
//
// An empty or missing provider fans out to every registered source; an
// unknown one falls back to the default. Provider failures never fail the
// request: the worst case is an empty item list.
func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}
	selector := r.URL.Query().Get("provider")

	items := h.manager.Search(r.Context(), query, selector)
	if items == nil {
		items = []music.MusicItem{}
	}

	h.writeJSON(w, http.StatusOK, searchResponse{Items: items})
}
