package web

import (
	"encoding/json"
	"net/http"

	"github.com/liuran001/MusicDesk-Go/server"
	"github.com/liuran001/MusicDesk-Go/server/download"
	"github.com/liuran001/MusicDesk-Go/server/music"
)

// Handler serves the HTTP API.
type Handler struct {
	manager   music.Manager
	downloads *download.Service
	logger    server.Logger
}

// New creates the API handler.
func New(manager music.Manager, downloads *download.Service, logger server.Logger) *Handler {
	return &Handler{
		manager:   manager,
		downloads: downloads,
		logger:    logger,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil && h.logger != nil {
		h.logger.Warn("response encode failed", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, errorResponse{Error: msg})
}
