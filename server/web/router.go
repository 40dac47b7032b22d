package web

import "net/http"

// Routes returns the API mux.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/search", h.handleSearch)
	mux.HandleFunc("GET /api/play", h.handlePlay)
	mux.HandleFunc("GET /api/download", h.handleDownload)
	mux.HandleFunc("GET /api/providers", h.handleProviders)
	return mux
}
