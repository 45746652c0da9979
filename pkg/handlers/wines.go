package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/winecollections/winecollections/pkg/auth"
	"github.com/winecollections/winecollections/pkg/models"
	"github.com/winecollections/winecollections/pkg/services"
)

// WineSearchResponse for GET /wines/
type WineSearchResponse struct {
	Results []models.WineResult `json:"results"`
}

// WineHandler serves catalog matches for the caller's recommendations.
type WineHandler struct {
	wineService services.WineService
	logger      *zap.Logger
}

// NewWineHandler creates a new wine handler.
func NewWineHandler(wineService services.WineService, logger *zap.Logger) *WineHandler {
	return &WineHandler{
		wineService: wineService,
		logger:      logger,
	}
}

// RegisterRoutes registers the wine handler's routes on the given mux.
func (h *WineHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /wines/{$}", authMiddleware.OptionalUser(h.Search))
}

// Search handles GET /wines/
// Anonymous callers match against global recommendations only.
func (h *WineHandler) Search(w http.ResponseWriter, r *http.Request) {
	criteria, err := ParseWineCriteria(r)
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_query", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}
	criteria.UserID = auth.GetUserIDFromContext(r.Context())

	results, err := h.wineService.Search(r.Context(), criteria)
	if err != nil {
		WriteServiceError(w, err, h.logger)
		return
	}
	if results == nil {
		results = []models.WineResult{}
	}

	if err := WriteJSON(w, http.StatusOK, WineSearchResponse{Results: results}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
