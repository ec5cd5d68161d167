package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"diamond-catalog-api/internal/logging"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Port                       string
	Environment                string
	LogLevel                   string
	CatalogPath                string
	Locale                     string
	Timezone                   string
	SessionTTL                 string
	SessionCleanupInterval     string
	QueryCacheTTL              string
	QueryCacheMaxEntries       string
	ToastDefaultDuration       string
	SubmissionDelay            string
	MaxEventsPerSession        string
	WhatsAppNumber             string
	BrochureURL                string
	RateLimitEnabled           string
	RateLimitType              string
	RateLimitRequestsPerMinute string
	RateLimitWindowMinutes     string
	MetricsExporter            string
	MetricsPort                string
}

// LoadConfig loads configuration from .env file and environment variables
func LoadConfig() *Config {
	// Load .env file if it exists
	// This will not override existing environment variables
	err := godotenv.Load()
	if err != nil {
		slog.Warn("Could not load .env file, continuing with system environment variables only", "error", err)
	} else {
		slog.Info("Successfully loaded .env file")
	}

	config := fromEnv()

	logging.Setup(config.LogLevel)

	slog.Info("Configuration loaded",
		"port", config.Port,
		"environment", config.Environment,
		"logLevel", config.LogLevel,
		"catalogPath", config.CatalogPath,
		"sessionTTL", config.SessionTTL,
		"sessionCleanupInterval", config.SessionCleanupInterval,
		"queryCacheTTL", config.QueryCacheTTL,
		"queryCacheMaxEntries", config.QueryCacheMaxEntries,
		"toastDefaultDuration", config.ToastDefaultDuration,
		"submissionDelay", config.SubmissionDelay,
		"maxEventsPerSession", config.MaxEventsPerSession,
		"rateLimitEnabled", config.RateLimitEnabled,
		"metricsExporter", config.MetricsExporter)

	return config
}

func fromEnv() *Config {
	return &Config{
		Port:                       getEnvWithDefault("PORT", "8080"),
		Environment:                getEnvWithDefault("ENVIRONMENT", "development"),
		LogLevel:                   getEnvWithDefault("LOG_LEVEL", "info"),
		CatalogPath:                getEnvWithDefault("CATALOG_PATH", "data/catalog.yaml"),
		Locale:                     getEnvWithDefault("LOCALE", "en"),
		Timezone:                   getEnvWithDefault("TIMEZONE", "UTC"),
		SessionTTL:                 getEnvWithDefault("SESSION_TTL", "30m"),
		SessionCleanupInterval:     getEnvWithDefault("SESSION_CLEANUP_INTERVAL", "1m"),
		QueryCacheTTL:              getEnvWithDefault("QUERY_CACHE_TTL", "5m"),
		QueryCacheMaxEntries:       getEnvWithDefault("QUERY_CACHE_MAX_ENTRIES", "256"),
		ToastDefaultDuration:       getEnvWithDefault("TOAST_DEFAULT_DURATION", "4s"),
		SubmissionDelay:            getEnvWithDefault("SUBMISSION_DELAY", "1500ms"),
		MaxEventsPerSession:        getEnvWithDefault("MAX_EVENTS_PER_SESSION", "500"),
		WhatsAppNumber:             getEnvWithDefault("WHATSAPP_NUMBER", "+919876543210"),
		BrochureURL:                getEnvWithDefault("BROCHURE_URL", "/brochure/company-brochure.pdf"),
		RateLimitEnabled:           getEnvWithDefault("RATE_LIMIT_ENABLED", "true"),
		RateLimitType:              getEnvWithDefault("RATE_LIMIT_TYPE", "ip"),
		RateLimitRequestsPerMinute: getEnvWithDefault("RATE_LIMIT_REQUESTS_PER_MINUTE", "30"),
		RateLimitWindowMinutes:     getEnvWithDefault("RATE_LIMIT_WINDOW_MINUTES", "1"),
		MetricsExporter:            getEnvWithDefault("METRICS_EXPORTER", "scraper"),
		MetricsPort:                getEnvWithDefault("METRICS_PORT", "9090"),
	}
}

// getEnvWithDefault gets an environment variable with a default fallback
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Duration parses a duration setting, falling back to def when the value is
// missing or not a positive duration
func Duration(name, value string, def time.Duration) time.Duration {
	if value == "" {
		return def
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		slog.Warn("Invalid duration value, using default",
			"setting", name, "value", value, "default", def.String())
		return def
	}
	return d
}

// Int parses an integer setting, falling back to def when the value is
// missing or not positive
func Int(name, value string, def int) int {
	if value == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n <= 0 {
		slog.Warn("Invalid integer value, using default",
			"setting", name, "value", value, "default", def)
		return def
	}
	return n
}

// Location loads the configured time zone, falling back to UTC
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		slog.Warn("Invalid timezone, using UTC", "timezone", c.Timezone, "error", err)
		return time.UTC
	}
	return loc
}
