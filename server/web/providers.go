package web

import (
	"net/http"

	"github.com/liuran001/MusicDesk-Go/server/music"
)

type providersResponse struct {
	Providers []music.Meta `json:"providers"`
}

// handleProviders serves GET /api/providers.
func (h *Handler) handleProviders(w http.ResponseWriter, r *http.Request) {
	metas := h.manager.ListMeta()
	if metas == nil {
		metas = []music.Meta{}
	}
	h.writeJSON(w, http.StatusOK, providersResponse{Providers: metas})
}
