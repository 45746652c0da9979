package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/winecollections/winecollections/pkg/auth"
	"github.com/winecollections/winecollections/pkg/services"
	"github.com/winecollections/winecollections/pkg/services/workqueue"
)

// CrawlStartedResponse for POST /crawl/
type CrawlStartedResponse struct {
	Message string                 `json:"message"`
	Task    workqueue.TaskSnapshot `json:"task"`
}

// CrawlHandler exposes the catalog crawl job to operators.
type CrawlHandler struct {
	crawlService services.CrawlService
	logger       *zap.Logger
}

// NewCrawlHandler creates a new crawl handler.
func NewCrawlHandler(crawlService services.CrawlService, logger *zap.Logger) *CrawlHandler {
	return &CrawlHandler{
		crawlService: crawlService,
		logger:       logger,
	}
}

// RegisterRoutes registers the crawl handler's routes on the given mux.
// Every route requires the shared secret.
func (h *CrawlHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("POST /crawl/{$}", authMiddleware.RequireSecret(h.Start))
	mux.HandleFunc("GET /crawl/{$}", authMiddleware.RequireSecret(h.Status))
	mux.HandleFunc("DELETE /crawl/{$}", authMiddleware.RequireSecret(h.Cancel))
}

// Start handles POST /crawl/
func (h *CrawlHandler) Start(w http.ResponseWriter, r *http.Request) {
	snap, err := h.crawlService.Start()
	if err != nil {
		WriteServiceError(w, err, h.logger)
		return
	}

	response := CrawlStartedResponse{Message: "Crawl has been started", Task: snap}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Status handles GET /crawl/
func (h *CrawlHandler) Status(w http.ResponseWriter, r *http.Request) {
	if err := WriteJSON(w, http.StatusOK, h.crawlService.Status()); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Cancel handles DELETE /crawl/
func (h *CrawlHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if err := h.crawlService.Cancel(); err != nil {
		WriteServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("Crawl cancellation requested")
	if err := WriteJSON(w, http.StatusOK, map[string]string{"message": "Crawl cancellation requested"}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
