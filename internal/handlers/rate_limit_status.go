package handlers

import (
	"log/slog"
	"net/http"

	"diamond-catalog-api/internal/middleware"
	"diamond-catalog-api/internal/models"
)

// RateLimitStatusHandler reports the lead endpoint limiter counters
type RateLimitStatusHandler struct {
	rateLimiter *middleware.RateLimiter
}

// NewRateLimitStatusHandler creates a new rate limit status handler
func NewRateLimitStatusHandler(rateLimiter *middleware.RateLimiter) *RateLimitStatusHandler {
	return &RateLimitStatusHandler{rateLimiter: rateLimiter}
}

// GetRateLimitStatus handles GET /v1/leads/rate-limit
func (h *RateLimitStatusHandler) GetRateLimitStatus(w http.ResponseWriter, r *http.Request) {
	if h.rateLimiter == nil {
		writeErrorResponse(w, http.StatusServiceUnavailable, models.CodeInternalError, "Rate limiter not available", nil)
		return
	}

	stats := h.rateLimiter.Stats()
	slog.Debug("Rate limit status retrieved", "active_ip_limits", stats["active_ip_limits"], "remote_addr", r.RemoteAddr)
	writeJSONResponse(w, http.StatusOK, stats)
}
