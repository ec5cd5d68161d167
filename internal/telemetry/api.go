package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "diamond-catalog-api"

// ApiTelemetry provides telemetry for the catalog and session endpoints.
// A nil *ApiTelemetry records nothing.
type ApiTelemetry struct {
	provider metric.MeterProvider
	meter    metric.Meter

	requestCounter    metric.Int64Counter
	errorCounter      metric.Int64Counter
	durationHistogram metric.Float64Histogram

	catalogQueryCounter    metric.Int64Counter
	catalogResultHistogram metric.Int64Histogram
	sessionMutationCounter metric.Int64Counter
	activeSessions         metric.Int64UpDownCounter
	leadCounter            metric.Int64Counter
	eventsDeliveredCounter metric.Int64Counter
}

// ApiMetrics contains the telemetry data for a request
type ApiMetrics struct {
	Method       string
	Endpoint     string
	StatusCode   int
	Duration     time.Duration
	ErrorMessage string
	ClientIP     string // logged only
	ClientIPType string // internal, localhost, external, invalid, unknown
	EventCount   int
	ResultCount  int
}

// NewApiTelemetry creates telemetry bound to provider, or to the global
// meter provider when provider is nil
func NewApiTelemetry(provider metric.MeterProvider) *ApiTelemetry {
	return &ApiTelemetry{provider: provider}
}

// InitializeTelemetry creates every instrument
func (t *ApiTelemetry) InitializeTelemetry(ctx context.Context) error {
	slog.Info("Initializing API telemetry")

	if t.provider == nil {
		t.provider = otel.GetMeterProvider()
	}
	t.meter = t.provider.Meter(meterName)

	var err error

	if t.requestCounter, err = t.meter.Int64Counter(
		"catalog_api_requests_total",
		metric.WithDescription("Total number of successful API requests"),
		metric.WithUnit("1"),
	); err != nil {
		return fmt.Errorf("failed to create request counter: %w", err)
	}

	if t.errorCounter, err = t.meter.Int64Counter(
		"catalog_api_errors_total",
		metric.WithDescription("Total number of API requests answered with an error status"),
		metric.WithUnit("1"),
	); err != nil {
		return fmt.Errorf("failed to create error counter: %w", err)
	}

	if t.durationHistogram, err = t.meter.Float64Histogram(
		"catalog_api_request_duration_seconds",
		metric.WithDescription("Duration of API requests"),
		metric.WithUnit("s"),
	); err != nil {
		return fmt.Errorf("failed to create duration histogram: %w", err)
	}

	if t.catalogQueryCounter, err = t.meter.Int64Counter(
		"catalog_queries_total",
		metric.WithDescription("Catalog queries by sort key and cache result"),
		metric.WithUnit("1"),
	); err != nil {
		return fmt.Errorf("failed to create catalog query counter: %w", err)
	}

	if t.catalogResultHistogram, err = t.meter.Int64Histogram(
		"catalog_query_results",
		metric.WithDescription("Number of diamonds returned per catalog query"),
		metric.WithUnit("1"),
	); err != nil {
		return fmt.Errorf("failed to create catalog result histogram: %w", err)
	}

	if t.sessionMutationCounter, err = t.meter.Int64Counter(
		"session_mutations_total",
		metric.WithDescription("Session store operations by operation and outcome"),
		metric.WithUnit("1"),
	); err != nil {
		return fmt.Errorf("failed to create session mutation counter: %w", err)
	}

	if t.activeSessions, err = t.meter.Int64UpDownCounter(
		"sessions_active",
		metric.WithDescription("Sessions currently held in memory"),
		metric.WithUnit("1"),
	); err != nil {
		return fmt.Errorf("failed to create active sessions counter: %w", err)
	}

	if t.leadCounter, err = t.meter.Int64Counter(
		"leads_submitted_total",
		metric.WithDescription("Lead submissions by kind and status"),
		metric.WithUnit("1"),
	); err != nil {
		return fmt.Errorf("failed to create lead counter: %w", err)
	}

	if t.eventsDeliveredCounter, err = t.meter.Int64Counter(
		"session_events_delivered_total",
		metric.WithDescription("Session change events delivered to clients"),
		metric.WithUnit("1"),
	); err != nil {
		return fmt.Errorf("failed to create events delivered counter: %w", err)
	}

	slog.Info("API telemetry initialized successfully")
	return nil
}

func (t *ApiTelemetry) ready() bool {
	return t != nil && t.meter != nil
}

// RegisterRequestReceived records a successful API request
func (t *ApiTelemetry) RegisterRequestReceived(ctx context.Context, m ApiMetrics) {
	if !t.ready() {
		return
	}
	t.requestCounter.Add(ctx, 1, metric.WithAttributes(requestAttrs(m)...))

	switch m.Endpoint {
	case "/v1/sessions/{sessionId}/events":
		if m.EventCount > 0 {
			t.eventsDeliveredCounter.Add(ctx, int64(m.EventCount))
		}
	}

	slog.Debug("Recorded API request",
		"method", m.Method,
		"endpoint", m.Endpoint,
		"status_code", m.StatusCode,
		"client_ip", m.ClientIP,
		"duration_ms", m.Duration.Milliseconds())
}

// RegisterRequestError records a failed API request
func (t *ApiTelemetry) RegisterRequestError(ctx context.Context, m ApiMetrics) {
	if !t.ready() {
		return
	}
	attrs := append(requestAttrs(m), attribute.String("error_type", categorizeError(m.StatusCode)))
	t.errorCounter.Add(ctx, 1, metric.WithAttributes(attrs...))

	slog.Debug("Recorded API request error",
		"method", m.Method,
		"endpoint", m.Endpoint,
		"status_code", m.StatusCode,
		"client_ip", m.ClientIP,
		"error", m.ErrorMessage)
}

// RegisterRequestDuration records the duration of an API request
func (t *ApiTelemetry) RegisterRequestDuration(ctx context.Context, m ApiMetrics) {
	if !t.ready() {
		return
	}
	t.durationHistogram.Record(ctx, m.Duration.Seconds(), metric.WithAttributes(requestAttrs(m)...))
}

// RecordCatalogQuery counts one query and its result size
func (t *ApiTelemetry) RecordCatalogQuery(ctx context.Context, sortBy string, cached bool, results int) {
	if !t.ready() {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("sort_by", sortBy),
		attribute.Bool("cached", cached),
	)
	t.catalogQueryCounter.Add(ctx, 1, attrs)
	t.catalogResultHistogram.Record(ctx, int64(results), metric.WithAttributes(attribute.String("sort_by", sortBy)))
}

// RecordSessionMutation counts one store operation
func (t *ApiTelemetry) RecordSessionMutation(ctx context.Context, op, outcome string) {
	if !t.ready() {
		return
	}
	t.sessionMutationCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", op),
		attribute.String("outcome", outcome),
	))
}

// SessionOpened and SessionClosed track live sessions
func (t *ApiTelemetry) SessionOpened(ctx context.Context) {
	if t.ready() {
		t.activeSessions.Add(ctx, 1)
	}
}

func (t *ApiTelemetry) SessionClosed(ctx context.Context, reason string) {
	if t.ready() {
		t.activeSessions.Add(ctx, -1, metric.WithAttributes(attribute.String("reason", reason)))
	}
}

// RecordLead counts one lead submission attempt
func (t *ApiTelemetry) RecordLead(ctx context.Context, kind, status string) {
	if !t.ready() {
		return
	}
	t.leadCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("status", status),
	))
}

// requestAttrs keeps request metrics to low-cardinality attributes
func requestAttrs(m ApiMetrics) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("method", m.Method),
		attribute.String("endpoint", m.Endpoint),
		attribute.Int("status_code", m.StatusCode),
	}
	if m.ClientIPType != "" {
		attrs = append(attrs, attribute.String("client_ip_type", m.ClientIPType))
	}
	return attrs
}

// categorizeError groups error statuses
func categorizeError(statusCode int) string {
	switch statusCode {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusMethodNotAllowed:
		return "method_not_allowed"
	case http.StatusUnprocessableEntity:
		return "validation"
	case http.StatusTooManyRequests:
		return "rate_limited"
	case http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return "unavailable"
	}
	if statusCode >= 500 {
		return "internal_error"
	}
	return "other"
}

var privateNetworks = mustParseCIDRs(
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"169.254.0.0/16",
	"fc00::/7",
	"fe80::/10",
)

func mustParseCIDRs(ranges ...string) []*net.IPNet {
	nets := make([]*net.IPNet, 0, len(ranges))
	for _, r := range ranges {
		_, network, err := net.ParseCIDR(r)
		if err != nil {
			panic(err)
		}
		nets = append(nets, network)
	}
	return nets
}

// NormalizeClientIP categorizes client IPs to control cardinality
func NormalizeClientIP(clientIP string) string {
	if clientIP == "" {
		return "unknown"
	}

	ip := net.ParseIP(clientIP)
	if ip == nil {
		return "invalid"
	}
	if ip.IsLoopback() {
		return "localhost"
	}
	for _, network := range privateNetworks {
		if network.Contains(ip) {
			return "internal"
		}
	}
	return "external"
}
