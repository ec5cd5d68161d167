package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"diamond-catalog-api/internal/catalog"
	"diamond-catalog-api/internal/clock"
	"diamond-catalog-api/internal/config"
	"diamond-catalog-api/internal/handlers"
	"diamond-catalog-api/internal/leads"
	"diamond-catalog-api/internal/middleware"
	"diamond-catalog-api/internal/services"
	"diamond-catalog-api/internal/telemetry"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg := config.LoadConfig()

	slog.Info("Starting Diamond Catalog API", "version", "1.0.0")

	// Initialize OpenTelemetry metrics
	ctx := context.Background()
	otelTelemetry, err := telemetry.InitMetrics(ctx, telemetry.ParseExporter(cfg.MetricsExporter), cfg.MetricsPort)
	if err != nil {
		slog.Error("Failed to initialize metrics", "error", err)
		os.Exit(1)
	}

	apiTelemetry := telemetry.NewApiTelemetry(nil)
	if err := apiTelemetry.InitializeTelemetry(ctx); err != nil {
		slog.Error("Failed to initialize API telemetry", "error", err)
		os.Exit(1)
	}
	slog.Info("API telemetry initialized successfully")

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		slog.Error("Failed to load catalog", "path", cfg.CatalogPath, "error", err)
		os.Exit(1)
	}
	slog.Info("Catalog loaded", "diamonds", cat.Len(), "certificates", len(cat.Certificates()))

	// Initialize services
	clk := clock.Real()
	catalogService := services.NewCatalogService(cat, cfg, clk, apiTelemetry)
	leadService := leads.NewService(leads.Config{
		Submitter: &leads.SimulatedSubmitter{
			Delay:  config.Duration("SUBMISSION_DELAY", cfg.SubmissionDelay, 1500*time.Millisecond),
			Clock:  clk,
			Logger: slog.Default(),
		},
		Clock:          clk,
		Logger:         slog.Default(),
		WhatsAppNumber: cfg.WhatsAppNumber,
		BrochureURL:    cfg.BrochureURL,
		Location:       cfg.Location(),
	})
	sessionService := services.NewSessionService(cfg, catalogService, leadService, clk, apiTelemetry)
	slog.Info("Services initialized successfully")

	// Setup rate limiting for lead submissions
	var rateLimiter *middleware.RateLimiter
	rateLimitConfig := middleware.ParseRateLimitConfig(cfg)
	if rateLimitConfig.Enabled {
		rateLimiter = middleware.NewRateLimiter(rateLimitConfig, middleware.WithRateLimitClock(clk))
	} else {
		slog.Info("Rate limiting disabled")
	}

	r := handlers.NewRouter(handlers.RouterConfig{
		Catalog:     catalogService,
		Sessions:    sessionService,
		Leads:       leadService,
		Telemetry:   apiTelemetry,
		RateLimiter: rateLimiter,
		Logger:      slog.Default(),
	})

	slog.Debug("Available endpoints",
		"catalog", []string{
			"GET /v1/catalog",
			"GET /v1/catalog/facets",
			"GET /v1/catalog/diamonds/{diamondId}",
			"GET /v1/catalog/certificates",
		},
		"sessions", []string{
			"POST /v1/sessions",
			"GET|DELETE /v1/sessions/{sessionId}",
			"GET /v1/sessions/{sessionId}/events?offset=&limit=&wait=",
			"/v1/sessions/{sessionId}/{rfq,compare,toasts,modal,filters}",
		},
		"leads", []string{
			"POST /v1/sessions/{sessionId}/leads/{rfq,quick-rfq,booking,brochure}",
			"GET /v1/leads/booking/days?month=YYYY-MM",
			"POST /v1/leads/whatsapp",
		},
		"system_endpoints", []string{
			"GET /health",
		})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("Server ready to accept connections", "address", server.Addr, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed to start", "error", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Stop accepting requests first so no session is touched after it is closed
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	sessionService.Stop()
	catalogService.Stop()
	if rateLimiter != nil {
		rateLimiter.Stop()
	}

	if err := otelTelemetry.Shutdown(shutdownCtx); err != nil {
		slog.Error("Telemetry shutdown failed", "error", err)
	}
	slog.Info("Telemetry shutdown completed")

	slog.Info("Server exited")
}
