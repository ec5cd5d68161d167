package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/sdk/metric"
)

// Exporter selects how metrics leave the process
type Exporter string

const (
	ExporterScraper Exporter = "scraper"
	ExporterGRPC    Exporter = "grpc"
	ExporterNone    Exporter = "none"
)

// ParseExporter maps METRICS_EXPORTER to an Exporter, defaulting to scraper
func ParseExporter(value string) Exporter {
	switch Exporter(strings.ToLower(strings.TrimSpace(value))) {
	case ExporterGRPC:
		return ExporterGRPC
	case ExporterNone:
		return ExporterNone
	default:
		return ExporterScraper
	}
}

// Telemetry owns the meter provider and, in scraper mode, the metrics server
type Telemetry struct {
	Provider *metric.MeterProvider
	server   *http.Server
}

// InitMetrics installs the global meter provider for the chosen exporter.
// Scraper mode serves /metrics on metricsPort; grpc mode pushes to
// OTEL_EXPORTER_OTLP_METRICS_ENDPOINT (localhost:4317 when unset); none
// keeps the no-op global provider.
func InitMetrics(ctx context.Context, exporter Exporter, metricsPort string) (*Telemetry, error) {
	t := &Telemetry{}

	switch exporter {
	case ExporterNone:
		slog.Info("Metrics export disabled")
		return t, nil
	case ExporterGRPC:
		slog.Info("Starting metrics with grpc exporter")
		exp, err := otlpmetricgrpc.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create grpc metrics exporter: %w", err)
		}
		t.Provider = metric.NewMeterProvider(metric.WithReader(metric.NewPeriodicReader(exp)))
	default:
		slog.Info("Starting metrics with scraper exporter")
		// The exporter is both a Reader and a prometheus Collector
		exp, err := prometheus.New()
		if err != nil {
			return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
		}
		t.Provider = metric.NewMeterProvider(metric.WithReader(exp))
		t.server = &http.Server{
			Addr:              ":" + metricsPort,
			Handler:           metricsHandler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go t.serveMetrics()
	}

	otel.SetMeterProvider(t.Provider)
	return t, nil
}

func metricsHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// serveMetrics runs the scrape endpoint until Shutdown
func (t *Telemetry) serveMetrics() {
	slog.Info("Serving metrics", "addr", t.server.Addr, "path", "/metrics")

	if err := t.server.ListenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			slog.Info("Metrics server stopped")
			return
		}
		slog.Error("Metrics server exited", "error", err)
	}
}

// Shutdown stops the metrics server and flushes the provider
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error
	if t.server != nil {
		slog.Info("Shutting down metrics server")
		errs = append(errs, t.server.Shutdown(ctx))
	}
	if t.Provider != nil {
		errs = append(errs, t.Provider.Shutdown(ctx))
	}
	return errors.Join(errs...)
}
