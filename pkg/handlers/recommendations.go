package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/winecollections/winecollections/pkg/auth"
	"github.com/winecollections/winecollections/pkg/models"
	"github.com/winecollections/winecollections/pkg/services"
)

// RecommendationRequest for POST /winerecommendations/ and
// PUT /winerecommendations/{id}/. Omitted text fields are wildcards.
type RecommendationRequest struct {
	Country             string           `json:"country"`
	Region              string           `json:"region"`
	DesignationOfOrigin string           `json:"designation_of_origin"`
	Producer            string           `json:"producer"`
	GrapeVariety        string           `json:"grape_variety"`
	WineName            string           `json:"wine_name"`
	Color               models.WineColor `json:"color"`
	Rating              int              `json:"rating"`
}

func (req *RecommendationRequest) toModel() *models.WineRecommendation {
	return &models.WineRecommendation{
		Country:             req.Country,
		Region:              req.Region,
		DesignationOfOrigin: req.DesignationOfOrigin,
		Producer:            req.Producer,
		GrapeVariety:        req.GrapeVariety,
		WineName:            req.WineName,
		Color:               req.Color,
		Rating:              req.Rating,
	}
}

// RecommendationListResponse for GET /winerecommendations/
type RecommendationListResponse struct {
	Recommendations []*models.WineRecommendation `json:"recommendations"`
	Total           int                          `json:"total"`
}

// RecommendationHandler handles wine recommendation CRUD.
type RecommendationHandler struct {
	recService services.RecommendationService
	logger     *zap.Logger
}

// NewRecommendationHandler creates a new recommendation handler.
func NewRecommendationHandler(recService services.RecommendationService, logger *zap.Logger) *RecommendationHandler {
	return &RecommendationHandler{
		recService: recService,
		logger:     logger,
	}
}

// RegisterRoutes registers the recommendation handler's routes on the given mux.
func (h *RecommendationHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	base := "/winerecommendations/"

	mux.HandleFunc("GET "+base+"{$}", authMiddleware.OptionalUser(h.List))
	mux.HandleFunc("POST "+base+"{$}", authMiddleware.OptionalUser(h.Create))
	mux.HandleFunc("PUT "+base+"{id}/", authMiddleware.RequireUser(h.Update))
	mux.HandleFunc("DELETE "+base+"{id}/", authMiddleware.RequireUser(h.Delete))
}

// List handles GET /winerecommendations/
func (h *RecommendationHandler) List(w http.ResponseWriter, r *http.Request) {
	recs, err := h.recService.List(r.Context(), auth.GetUserIDFromContext(r.Context()))
	if err != nil {
		WriteServiceError(w, err, h.logger)
		return
	}
	if recs == nil {
		recs = []*models.WineRecommendation{}
	}

	response := RecommendationListResponse{Recommendations: recs, Total: len(recs)}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Create handles POST /winerecommendations/
// Anonymous callers create global recommendations.
func (h *RecommendationHandler) Create(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.decodeRecommendation(w, r)
	if !ok {
		return
	}

	if err := h.recService.Create(r.Context(), rec, auth.GetUserIDFromContext(r.Context())); err != nil {
		WriteServiceError(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, rec); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Update handles PUT /winerecommendations/{id}/
// A recommendation owned by someone else reports 404.
func (h *RecommendationHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseRecommendationID(w, r, h.logger)
	if !ok {
		return
	}
	rec, ok := h.decodeRecommendation(w, r)
	if !ok {
		return
	}
	rec.ID = id

	userID := auth.GetUserIDFromContext(r.Context())
	if err := h.recService.Update(r.Context(), rec, *userID); err != nil {
		WriteServiceError(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, rec); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /winerecommendations/{id}/
func (h *RecommendationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseRecommendationID(w, r, h.logger)
	if !ok {
		return
	}

	userID := auth.GetUserIDFromContext(r.Context())
	if err := h.recService.Delete(r.Context(), id, *userID); err != nil {
		WriteServiceError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *RecommendationHandler) decodeRecommendation(w http.ResponseWriter, r *http.Request) (*models.WineRecommendation, bool) {
	var req RecommendationRequest
	if err := DecodeJSON(r, &req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return nil, false
	}
	return req.toModel(), true
}
