package handlers

import (
	"log/slog"
	"net/http"

	"diamond-catalog-api/internal/leads"
	"diamond-catalog-api/internal/middleware"
	"diamond-catalog-api/internal/services"
	"diamond-catalog-api/internal/telemetry"

	"github.com/gorilla/mux"
)

// RouterConfig carries what the API routes are served from
type RouterConfig struct {
	Catalog     *services.CatalogService
	Sessions    *services.SessionService
	Leads       *leads.Service
	Telemetry   *telemetry.ApiTelemetry
	RateLimiter *middleware.RateLimiter
	Logger      *slog.Logger
}

// NewRouter registers the health check and the /v1 API. Lead submissions
// sit behind the rate limiter when one is given.
func NewRouter(cfg RouterConfig) *mux.Router {
	healthHandler := NewHealthHandler(cfg.Catalog, cfg.Sessions)
	catalogHandler := NewCatalogHandler(cfg.Catalog)
	sessionHandler := NewSessionHandler(cfg.Sessions, cfg.Logger)
	leadHandler := NewLeadHandler(cfg.Sessions, cfg.Leads, cfg.Logger)
	rateLimitStatusHandler := NewRateLimitStatusHandler(cfg.RateLimiter)

	r := mux.NewRouter()
	r.Use(telemetry.NewTelemetryMiddleware(cfg.Telemetry).Middleware)

	r.HandleFunc("/health", healthHandler.Health).Methods(http.MethodGet)

	api := r.PathPrefix("/v1").Subrouter()

	// Catalog
	api.HandleFunc("/catalog", catalogHandler.ListDiamonds).Methods(http.MethodGet)
	api.HandleFunc("/catalog/facets", catalogHandler.Facets).Methods(http.MethodGet)
	api.HandleFunc("/catalog/diamonds/{diamondId}", catalogHandler.GetDiamond).Methods(http.MethodGet)
	api.HandleFunc("/catalog/certificates", catalogHandler.ListCertificates).Methods(http.MethodGet)

	// Sessions
	api.HandleFunc("/sessions", sessionHandler.CreateSession).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{sessionId}", sessionHandler.GetSession).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{sessionId}", sessionHandler.DeleteSession).Methods(http.MethodDelete)
	api.HandleFunc("/sessions/{sessionId}/results", sessionHandler.Results).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{sessionId}/events", sessionHandler.GetEvents).Methods(http.MethodGet)

	api.HandleFunc("/sessions/{sessionId}/rfq", sessionHandler.AddToRFQ).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{sessionId}/rfq", sessionHandler.ClearRFQ).Methods(http.MethodDelete)
	api.HandleFunc("/sessions/{sessionId}/rfq/{diamondId}", sessionHandler.UpdateRFQQuantity).Methods(http.MethodPut)
	api.HandleFunc("/sessions/{sessionId}/rfq/{diamondId}", sessionHandler.RemoveFromRFQ).Methods(http.MethodDelete)

	api.HandleFunc("/sessions/{sessionId}/compare", sessionHandler.AddToCompare).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{sessionId}/compare", sessionHandler.CompareTable).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{sessionId}/compare", sessionHandler.ClearCompare).Methods(http.MethodDelete)
	api.HandleFunc("/sessions/{sessionId}/compare/rfq", sessionHandler.ConvertCompareToRFQ).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{sessionId}/compare/{diamondId}", sessionHandler.RemoveFromCompare).Methods(http.MethodDelete)

	api.HandleFunc("/sessions/{sessionId}/toasts", sessionHandler.ShowToast).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{sessionId}/toasts/{toastId}", sessionHandler.DismissToast).Methods(http.MethodDelete)

	api.HandleFunc("/sessions/{sessionId}/modal", sessionHandler.OpenModal).Methods(http.MethodPut)
	api.HandleFunc("/sessions/{sessionId}/modal", sessionHandler.CloseModal).Methods(http.MethodDelete)
	api.HandleFunc("/sessions/{sessionId}/modal/certificate/download", sessionHandler.DownloadCertificate).Methods(http.MethodPost)

	api.HandleFunc("/sessions/{sessionId}/filters", sessionHandler.SetFilters).Methods(http.MethodPatch)
	api.HandleFunc("/sessions/{sessionId}/filters", sessionHandler.ResetFilters).Methods(http.MethodDelete)

	// Leads
	api.HandleFunc("/leads/booking/days", leadHandler.AvailableDays).Methods(http.MethodGet)
	api.HandleFunc("/leads/whatsapp", leadHandler.ComposeWhatsApp).Methods(http.MethodPost)
	api.HandleFunc("/leads/rate-limit", rateLimitStatusHandler.GetRateLimitStatus).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{sessionId}/leads/rfq/validate", leadHandler.ValidateRFQStep).Methods(http.MethodPost)

	submissions := api.PathPrefix("/sessions/{sessionId}/leads").Subrouter()
	if cfg.RateLimiter != nil {
		submissions.Use(cfg.RateLimiter.Middleware)
	}
	submissions.HandleFunc("/rfq", leadHandler.SubmitRFQ).Methods(http.MethodPost)
	submissions.HandleFunc("/quick-rfq", leadHandler.QuickRFQ).Methods(http.MethodPost)
	submissions.HandleFunc("/booking", leadHandler.BookCall).Methods(http.MethodPost)
	submissions.HandleFunc("/brochure", leadHandler.RequestBrochure).Methods(http.MethodPost)

	return r
}
