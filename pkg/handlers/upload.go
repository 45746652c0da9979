package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/winecollections/winecollections/pkg/auth"
	"github.com/winecollections/winecollections/pkg/services"
)

// maxUploadSize caps CSV uploads, including multipart overhead.
const maxUploadSize = 10 << 20

// UploadResponse for POST /upload/
type UploadResponse struct {
	Created int `json:"created"`
}

// UploadHandler imports recommendation CSV files.
type UploadHandler struct {
	recService services.RecommendationService
	logger     *zap.Logger
}

// NewUploadHandler creates a new upload handler.
func NewUploadHandler(recService services.RecommendationService, logger *zap.Logger) *UploadHandler {
	return &UploadHandler{
		recService: recService,
		logger:     logger,
	}
}

// RegisterRoutes registers the upload handler's routes on the given mux.
func (h *UploadHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("POST /upload/{$}", authMiddleware.RequireUserOrSecret(h.Upload))
}

// Upload handles POST /upload/
// Rows belong to the session user, or are global when the secret was used.
// A single bad row rejects the whole file.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	file, header, err := r.FormFile("file")
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "missing_file", "Expected a multipart \"file\" field"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}
	defer file.Close()

	userID := auth.GetUserIDFromContext(r.Context())
	created, err := h.recService.ImportCSV(r.Context(), file, userID)
	if err != nil {
		h.logger.Info("Rejected recommendation upload",
			zap.String("filename", header.Filename),
			zap.Error(err))
		WriteServiceError(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, UploadResponse{Created: created}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
