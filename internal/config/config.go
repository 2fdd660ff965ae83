// Package config provides centralized configuration loaded from environment
// variables. Shared by both cmd/api and cmd/pingctl.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Config is populated from environment variables.
// --------------------------------------------------------------------------

type Config struct {
	// Database
	DatabaseURL    string
	DBPoolMinConns int
	DBPoolMaxConns int
	DBPoolMaxLife  time.Duration

	// API server
	APIHost     string
	APIPort     int
	Environment string // development, staging, production
	LogLevel    string

	// CORS
	CORSAllowOrigins []string

	// Rate limiting
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Cache
	CacheEnabled bool

	// Auth
	JWTSecret       string
	AuthDefaultUser string

	// Web Push
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	VAPIDSubject    string
	PushTTL         int // seconds the push service keeps an undelivered message
	PushTimeout     time.Duration
	PushFanout      int

	// Scheduler
	SchedulerEnabled  bool
	SchedulerTimezone string
	SchedulerWorkers  int

	// Redis (optional tick lease)
	RedisURL string

	// Maintenance (zero disables a task)
	MaintenanceInterval time.Duration
	SubscriptionMaxIdle time.Duration
	LedgerRetention     time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	dbURL := envOr("DATABASE_URL", envOr("POSTGRES_URL", ""))
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL or POSTGRES_URL must be set")
	}

	origins := envList("CORS_ALLOW_ORIGINS", []string{
		"http://localhost:5173",
		"http://localhost:8080",
		"http://localhost:3000",
	})
	if client := os.Getenv("CLIENT_URL"); client != "" {
		origins = append(origins, client)
	}

	cfg := &Config{
		DatabaseURL:    dbURL,
		DBPoolMinConns: envInt("DB_POOL_MIN_CONNS", 2),
		DBPoolMaxConns: envInt("DB_POOL_MAX_CONNS", 10),
		DBPoolMaxLife:  time.Duration(envInt("DB_POOL_MAX_LIFE_MINUTES", 30)) * time.Minute,

		APIHost:     envOr("API_HOST", "0.0.0.0"),
		APIPort:     envInt("API_PORT", envInt("PORT", 5000)),
		Environment: envOr("ENVIRONMENT", "development"),
		LogLevel:    envOr("LOG_LEVEL", "info"),

		CORSAllowOrigins: origins,

		RateLimitEnabled:  envBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 120),
		RateLimitWindow:   time.Duration(envInt("RATE_LIMIT_WINDOW", 60)) * time.Second,

		CacheEnabled: envBool("CACHE_ENABLED", true),

		JWTSecret:       envOr("JWT_SECRET", ""),
		AuthDefaultUser: envOr("AUTH_DEFAULT_USER", "demo-user"),

		VAPIDPublicKey:  envOr("VAPID_PUBLIC_KEY", ""),
		VAPIDPrivateKey: envOr("VAPID_PRIVATE_KEY", ""),
		VAPIDSubject:    envOr("VAPID_SUBJECT", "mailto:pingdaily@example.com"),
		PushTTL:         envInt("PUSH_TTL_SECONDS", 60*60),
		PushTimeout:     time.Duration(envInt("PUSH_TIMEOUT_SECONDS", 10)) * time.Second,
		PushFanout:      envInt("PUSH_FANOUT", 8),

		SchedulerEnabled:  envBool("SCHEDULER_ENABLED", true),
		SchedulerTimezone: envOr("SCHEDULER_TIMEZONE", "Local"),
		SchedulerWorkers:  envInt("SCHEDULER_WORKERS", 8),

		RedisURL: envOr("REDIS_URL", ""),

		MaintenanceInterval: time.Duration(envInt("MAINTENANCE_INTERVAL_MINUTES", 60)) * time.Minute,
		SubscriptionMaxIdle: time.Duration(envInt("SUBSCRIPTION_MAX_IDLE_DAYS", 0)) * 24 * time.Hour,
		LedgerRetention:     time.Duration(envInt("LEDGER_RETENTION_DAYS", 0)) * 24 * time.Hour,
	}

	if _, err := cfg.Location(); err != nil {
		return nil, fmt.Errorf("SCHEDULER_TIMEZONE: %w", err)
	}
	return cfg, nil
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// PushConfigured reports whether both VAPID keys are present.
func (c *Config) PushConfigured() bool {
	return c.VAPIDPublicKey != "" && c.VAPIDPrivateKey != ""
}

// AuthEnabled reports whether bearer tokens are verified. Without a secret
// every request acts as AuthDefaultUser.
func (c *Config) AuthEnabled() bool {
	return c.JWTSecret != ""
}

// Location resolves the wall-clock zone the scheduler evaluates settings in.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.SchedulerTimezone)
}

// SlogLevel maps LogLevel onto a slog level; unknown values fall back to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
