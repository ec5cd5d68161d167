package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"diamond-catalog-api/internal/catalog"
	"diamond-catalog-api/internal/clock"
	"diamond-catalog-api/internal/config"
	"diamond-catalog-api/internal/leads"
	"diamond-catalog-api/internal/middleware"
	"diamond-catalog-api/internal/services"

	"github.com/stretchr/testify/require"
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

func (r *recordingSubmitter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.leads)
}

type testServer struct {
	router    http.Handler
	sessions  *services.SessionService
	submitter *recordingSubmitter
	clock     *clock.Fake
}

func newTestServer(t *testing.T, limit middleware.RateLimitConfig) *testServer {
	t.Helper()

	cat, err := catalog.Load("../../data/catalog.yaml")
	require.NoError(t, err)

	clk := clock.NewFake(epoch)
	sub := &recordingSubmitter{}
	cfg := &config.Config{
		Locale:                 "en",
		SessionTTL:             "10m",
		SessionCleanupInterval: "1m",
		QueryCacheTTL:          "5m",
		ToastDefaultDuration:   "4s",
		MaxEventsPerSession:    "100",
		WhatsAppNumber:         "+919876543210",
	}

	catalogSvc := services.NewCatalogService(cat, cfg, clk, nil)
	leadSvc := leads.NewService(leads.Config{Submitter: sub, Clock: clk, WhatsAppNumber: cfg.WhatsAppNumber})
	sessionSvc := services.NewSessionService(cfg, catalogSvc, leadSvc, clk, nil)
	limiter := middleware.NewRateLimiter(limit, middleware.WithRateLimitClock(clk))

	t.Cleanup(func() {
		limiter.Stop()
		sessionSvc.Stop()
		catalogSvc.Stop()
	})

	router := NewRouter(RouterConfig{
		Catalog:     catalogSvc,
		Sessions:    sessionSvc,
		Leads:       leadSvc,
		RateLimiter: limiter,
	})
	return &testServer{router: router, sessions: sessionSvc, submitter: sub, clock: clk}
}

func unlimited() middleware.RateLimitConfig {
	return middleware.RateLimitConfig{Enabled: false, WindowMinutes: 1}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "203.0.113.7:4711"
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

// newSession creates a session through the API and returns its ID
func (s *testServer) newSession(t *testing.T) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/v1/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	return decode[struct {
		SessionID string `json:"sessionId"`
	}](t, rec).SessionID
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}
