package telemetry

import (
	"context"
	"net/http"
	"time"

	"diamond-catalog-api/internal/middleware"

	"github.com/gorilla/mux"
)

// TelemetryMiddleware wraps HTTP handlers to automatically collect telemetry
type TelemetryMiddleware struct {
	telemetry *ApiTelemetry
}

// NewTelemetryMiddleware creates a new telemetry middleware
func NewTelemetryMiddleware(telemetry *ApiTelemetry) *TelemetryMiddleware {
	return &TelemetryMiddleware{telemetry: telemetry}
}

// Middleware records count, errors and duration per route template
func (tm *TelemetryMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapper := &responseWriterWrapper{ResponseWriter: w, statusCode: http.StatusOK}
		data := &requestData{}
		r = r.WithContext(context.WithValue(r.Context(), requestDataKey{}, data))

		clientIP := middleware.ClientIP(r)
		metrics := ApiMetrics{
			Method:       r.Method,
			Endpoint:     RouteTemplate(r),
			ClientIP:     clientIP,
			ClientIPType: NormalizeClientIP(clientIP),
		}

		next.ServeHTTP(wrapper, r)

		metrics.StatusCode = wrapper.statusCode
		metrics.Duration = time.Since(start)
		metrics.EventCount = data.eventCount
		metrics.ResultCount = data.resultCount

		ctx := r.Context()
		if wrapper.statusCode >= 400 {
			metrics.ErrorMessage = http.StatusText(wrapper.statusCode)
			tm.telemetry.RegisterRequestError(ctx, metrics)
		} else {
			tm.telemetry.RegisterRequestReceived(ctx, metrics)
		}
		tm.telemetry.RegisterRequestDuration(ctx, metrics)
	})
}

// RouteTemplate returns the mux path template matched for r, so metrics use
// "/v1/sessions/{sessionId}" rather than one series per session
func RouteTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

// responseWriterWrapper wraps http.ResponseWriter to capture status code
type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (w *responseWriterWrapper) WriteHeader(statusCode int) {
	if !w.wroteHeader {
		w.statusCode = statusCode
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *responseWriterWrapper) Write(data []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(data)
}

// Flush lets long-poll handlers flush through the wrapper
func (w *responseWriterWrapper) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

type requestDataKey struct{}

// requestData is filled in by handlers and read back after the handler returns
type requestData struct {
	eventCount  int
	resultCount int
}

// SetEventCount records how many events a handler delivered
func SetEventCount(ctx context.Context, count int) {
	if data, ok := ctx.Value(requestDataKey{}).(*requestData); ok {
		data.eventCount = count
	}
}

// SetResultCount records how many diamonds a handler returned
func SetResultCount(ctx context.Context, count int) {
	if data, ok := ctx.Value(requestDataKey{}).(*requestData); ok {
		data.resultCount = count
	}
}
