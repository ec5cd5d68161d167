package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"diamond-catalog-api/internal/catalog"
	"diamond-catalog-api/internal/clock"
	"diamond-catalog-api/internal/config"
	"diamond-catalog-api/internal/leads"
	"diamond-catalog-api/internal/telemetry"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// Monday 2026-10-05
var epoch = time.Date(2026, 10, 5, 9, 0, 0, 0, time.UTC)

type recordingSubmitter struct {
	mu    sync.Mutex
	leads []leads.Lead
}

func (r *recordingSubmitter) Submit(_ context.Context, lead leads.Lead) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leads = append(r.leads, lead)
	return nil
}

type testEnv struct {
	catalog   *CatalogService
	sessions  *SessionService
	clock     *clock.Fake
	submitter *recordingSubmitter
}

func testConfig() *config.Config {
	return &config.Config{
		Locale:                 "en",
		SessionTTL:             "10m",
		SessionCleanupInterval: "1m",
		QueryCacheTTL:          "5m",
		ToastDefaultDuration:   "4s",
		MaxEventsPerSession:    "100",
		WhatsAppNumber:         "+919876543210",
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithTelemetry(t, nil)
}

func newTestEnvWithTelemetry(t *testing.T, tel *telemetry.ApiTelemetry) *testEnv {
	t.Helper()

	cat, err := catalog.Load("../../data/catalog.yaml")
	require.NoError(t, err)

	clk := clock.NewFake(epoch)
	sub := &recordingSubmitter{}
	cfg := testConfig()

	catalogSvc := NewCatalogService(cat, cfg, clk, tel)
	leadSvc := leads.NewService(leads.Config{Submitter: sub, Clock: clk, WhatsAppNumber: cfg.WhatsAppNumber})
	sessionSvc := NewSessionService(cfg, catalogSvc, leadSvc, clk, tel)

	t.Cleanup(func() {
		sessionSvc.Stop()
		catalogSvc.Stop()
	})

	return &testEnv{catalog: catalogSvc, sessions: sessionSvc, clock: clk, submitter: sub}
}

func newTestTelemetry(t *testing.T) (*telemetry.ApiTelemetry, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	tel := telemetry.NewApiTelemetry(provider)
	require.NoError(t, tel.InitializeTelemetry(context.Background()))
	return tel, reader
}

// sumByAttribute totals an int64 sum's data points keyed by the value of attribute key.
// Points without the attribute are keyed by "".
func sumByAttribute(t *testing.T, reader *sdkmetric.ManualReader, name, key string) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "metric %s is not an int64 sum", name)
			for _, dp := range sum.DataPoints {
				label := ""
				if v, found := dp.Attributes.Value(attribute.Key(key)); found {
					label = v.Emit()
				}
				out[label] += dp.Value
			}
		}
	}
	return out
}
