package handlers

import (
	"net/http"

	"diamond-catalog-api/internal/models"
	"diamond-catalog-api/internal/services"
)

const serviceName = "diamond-catalog-api"

// HealthHandler handles health check requests
type HealthHandler struct {
	catalog  *services.CatalogService
	sessions *services.SessionService
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(catalogSvc *services.CatalogService, sessionSvc *services.SessionService) *HealthHandler {
	return &HealthHandler{catalog: catalogSvc, sessions: sessionSvc}
}

// Health handles GET /health - Health check endpoint
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, models.HealthResponse{
		Status:   "healthy",
		Service:  serviceName,
		Diamonds: h.catalog.Len(),
		Sessions: h.sessions.Count(),
	})
}
