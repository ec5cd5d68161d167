package middleware

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"diamond-catalog-api/internal/clock"
	"diamond-catalog-api/internal/models"
)

// RateLimitType defines the type of rate limiting
type RateLimitType string

const (
	RateLimitTypeIP     RateLimitType = "ip"
	RateLimitTypeGlobal RateLimitType = "global"
	RateLimitTypeBoth   RateLimitType = "both"
)

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled           bool
	Type              RateLimitType
	RequestsPerMinute int
	WindowMinutes     int
}

// window is one fixed counting window
type window struct {
	count   int
	resetAt time.Time
}

// RateLimiter enforces fixed-window request limits per client IP, globally,
// or both
type RateLimiter struct {
	config RateLimitConfig
	clock  clock.Clock
	logger *slog.Logger

	mu       sync.Mutex
	ipLimits map[string]*window
	global   window
	cleanup  clock.Timer
	stopped  bool
}

// RateLimiterOption configures a RateLimiter
type RateLimiterOption func(*RateLimiter)

// WithRateLimitClock sets the clock used for windows and cleanup
func WithRateLimitClock(clk clock.Clock) RateLimiterOption {
	return func(rl *RateLimiter) { rl.clock = clk }
}

// WithRateLimitLogger sets the limiter logger
func WithRateLimitLogger(logger *slog.Logger) RateLimiterOption {
	return func(rl *RateLimiter) { rl.logger = logger }
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(config RateLimitConfig, opts ...RateLimiterOption) *RateLimiter {
	if config.WindowMinutes < 1 {
		config.WindowMinutes = 1
	}
	rl := &RateLimiter{
		config:   config,
		clock:    clock.Real(),
		logger:   slog.Default(),
		ipLimits: make(map[string]*window),
	}
	for _, opt := range opts {
		opt(rl)
	}

	rl.mu.Lock()
	rl.scheduleCleanupLocked()
	rl.mu.Unlock()

	rl.logger.Info("Rate limiter initialized",
		"enabled", config.Enabled,
		"type", config.Type,
		"requests_per_minute", config.RequestsPerMinute,
		"window_minutes", config.WindowMinutes)

	return rl
}

// Stop cancels the expired-entry sweep
func (rl *RateLimiter) Stop() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.stopped = true
	if rl.cleanup != nil {
		rl.cleanup.Stop()
		rl.cleanup = nil
	}
}

func (rl *RateLimiter) windowDuration() time.Duration {
	return time.Duration(rl.config.WindowMinutes) * time.Minute
}

func (rl *RateLimiter) scheduleCleanupLocked() {
	if rl.stopped {
		return
	}
	rl.cleanup = rl.clock.AfterFunc(rl.windowDuration(), rl.cleanupExpiredEntries)
}

// cleanupExpiredEntries removes expired per-IP windows and reschedules itself
func (rl *RateLimiter) cleanupExpiredEntries() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if rl.stopped {
		return
	}

	now := rl.clock.Now()
	removed := 0
	for ip, w := range rl.ipLimits {
		if !now.Before(w.resetAt) {
			delete(rl.ipLimits, ip)
			removed++
		}
	}
	if !now.Before(rl.global.resetAt) {
		rl.global = window{}
	}

	if removed > 0 {
		rl.logger.Debug("Rate limit entries expired", "removed", removed, "active", len(rl.ipLimits))
	}
	rl.scheduleCleanupLocked()
}

// RateLimitInfo contains rate limit information for response headers
type RateLimitInfo struct {
	Limit     int
	Remaining int
	ResetTime time.Time
}

// IsAllowed checks if a request is allowed based on rate limiting rules
func (rl *RateLimiter) IsAllowed(clientIP string) (bool, RateLimitInfo) {
	if !rl.config.Enabled {
		return true, RateLimitInfo{Limit: -1, Remaining: -1}
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.clock.Now()
	limit := rl.config.RequestsPerMinute

	switch rl.config.Type {
	case RateLimitTypeGlobal:
		return rl.take(&rl.global, limit, now)
	case RateLimitTypeBoth:
		// Both windows must have room; only then is either charged.
		ipWin := rl.ipWindowLocked(clientIP)
		ipOK, ipInfo := rl.peek(ipWin, limit, now)
		globalOK, globalInfo := rl.peek(&rl.global, limit, now)
		if !ipOK || !globalOK {
			if !ipOK {
				return false, ipInfo
			}
			return false, globalInfo
		}
		_, ipInfo = rl.take(ipWin, limit, now)
		_, globalInfo = rl.take(&rl.global, limit, now)
		if globalInfo.Remaining < ipInfo.Remaining {
			return true, globalInfo
		}
		return true, ipInfo
	default:
		return rl.take(rl.ipWindowLocked(clientIP), limit, now)
	}
}

func (rl *RateLimiter) ipWindowLocked(clientIP string) *window {
	w, ok := rl.ipLimits[clientIP]
	if !ok {
		w = &window{}
		rl.ipLimits[clientIP] = w
	}
	return w
}

// peek rolls the window over if expired and reports whether one more request fits
func (rl *RateLimiter) peek(w *window, limit int, now time.Time) (bool, RateLimitInfo) {
	if !now.Before(w.resetAt) {
		w.count = 0
		w.resetAt = now.Add(rl.windowDuration())
	}
	info := RateLimitInfo{
		Limit:     limit,
		Remaining: max(limit-w.count, 0),
		ResetTime: w.resetAt,
	}
	return w.count < limit, info
}

func (rl *RateLimiter) take(w *window, limit int, now time.Time) (bool, RateLimitInfo) {
	ok, info := rl.peek(w, limit, now)
	if !ok {
		return false, info
	}
	w.count++
	info.Remaining = limit - w.count
	return true, info
}

// Stats returns current rate limiting statistics
func (rl *RateLimiter) Stats() map[string]any {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	stats := map[string]any{
		"enabled":             rl.config.Enabled,
		"type":                string(rl.config.Type),
		"requests_per_minute": rl.config.RequestsPerMinute,
		"window_minutes":      rl.config.WindowMinutes,
		"active_ip_limits":    len(rl.ipLimits),
	}
	if rl.config.Type == RateLimitTypeGlobal || rl.config.Type == RateLimitTypeBoth {
		stats["global_count"] = rl.global.count
		stats["global_reset_time"] = rl.global.resetAt.Format(time.RFC3339)
	}
	return stats
}

// Reset clears every counter
func (rl *RateLimiter) Reset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.ipLimits = make(map[string]*window)
	rl.global = window{}
	rl.logger.Info("Rate limits reset")
}

// Middleware rejects requests over the limit with 429 and sets the
// X-RateLimit-* headers on every response
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP := ClientIP(r)
		allowed, info := rl.IsAllowed(clientIP)

		setRateLimitHeaders(w, info)

		if !allowed {
			rl.logger.Warn("Rate limit exceeded",
				"client_ip", clientIP,
				"path", r.URL.Path,
				"method", r.Method,
				"limit", info.Limit,
				"reset_time", info.ResetTime.Format(time.RFC3339))

			rl.writeRateLimitErrorResponse(w, info)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ClientIP extracts the client IP address from the request
func ClientIP(r *http.Request) string {
	// X-Forwarded-For can contain multiple IPs, take the first one
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ip := strings.TrimSpace(strings.Split(xff, ",")[0])
		if net.ParseIP(ip) != nil {
			return ip
		}
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		if net.ParseIP(xri) != nil {
			return xri
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func setRateLimitHeaders(w http.ResponseWriter, info RateLimitInfo) {
	if info.Limit < 0 {
		return
	}
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
	if !info.ResetTime.IsZero() {
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
	}
}

func (rl *RateLimiter) writeRateLimitErrorResponse(w http.ResponseWriter, info RateLimitInfo) {
	retryAfter := int(math.Ceil(info.ResetTime.Sub(rl.clock.Now()).Seconds()))
	if retryAfter < 0 {
		retryAfter = 0
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	w.WriteHeader(http.StatusTooManyRequests)

	errorResp := models.ErrorResponse{
		Code:    models.CodeRateLimited,
		Message: "Rate limit exceeded. Please try again later.",
		Details: []models.ErrorDetail{
			{
				Field: "rate_limit",
				Issue: fmt.Sprintf("Exceeded %d requests per %d minute(s)", info.Limit, rl.config.WindowMinutes),
			},
			{
				Field: "retry_after",
				Issue: fmt.Sprintf("Retry after %d seconds", retryAfter),
			},
		},
	}

	if err := json.NewEncoder(w).Encode(errorResp); err != nil {
		rl.logger.Error("Failed to encode rate limit response", "error", err)
	}
}
