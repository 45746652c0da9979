package handlers

import (
	"io/fs"
	"net/http"

	"go.uber.org/zap"
)

// IndexHandler serves the upload page from the UI filesystem.
type IndexHandler struct {
	dist   fs.FS
	logger *zap.Logger
}

// NewIndexHandler creates an index handler. dist must contain index.html at its root.
func NewIndexHandler(dist fs.FS, logger *zap.Logger) *IndexHandler {
	return &IndexHandler{dist: dist, logger: logger}
}

// RegisterRoutes registers the index handler's routes on the given mux.
func (h *IndexHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.Index)
}

// Index handles GET /
func (h *IndexHandler) Index(w http.ResponseWriter, r *http.Request) {
	page, err := fs.ReadFile(h.dist, "index.html")
	if err != nil {
		h.logger.Error("Failed to read index page", zap.Error(err))
		http.Error(w, "index page unavailable", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(page); err != nil {
		h.logger.Debug("Failed to write index page", zap.Error(err))
	}
}
