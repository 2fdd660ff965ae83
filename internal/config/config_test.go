package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("POSTGRES_URL", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/ping")
	t.Setenv("SCHEDULER_TIMEZONE", "UTC")
	t.Setenv("CLIENT_URL", "https://ping.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost/ping", cfg.DatabaseURL)
	assert.Equal(t, 10*time.Second, cfg.PushTimeout)
	assert.Equal(t, 8, cfg.PushFanout)
	assert.Equal(t, "demo-user", cfg.AuthDefaultUser)
	assert.Contains(t, cfg.CORSAllowOrigins, "https://ping.example.com")
	assert.False(t, cfg.PushConfigured())
	assert.False(t, cfg.AuthEnabled())
	assert.Equal(t, time.Hour, cfg.MaintenanceInterval)
	assert.Zero(t, cfg.SubscriptionMaxIdle)
	assert.Zero(t, cfg.LedgerRetention)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/ping")
	t.Setenv("SCHEDULER_TIMEZONE", "Europe/Berlin")
	t.Setenv("PUSH_FANOUT", "3")
	t.Setenv("RATE_LIMIT_ENABLED", "false")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("VAPID_PUBLIC_KEY", "pub")
	t.Setenv("VAPID_PRIVATE_KEY", "priv")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("LEDGER_RETENTION_DAYS", "90")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.PushFanout)
	assert.False(t, cfg.RateLimitEnabled)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowOrigins)
	assert.True(t, cfg.PushConfigured())
	assert.True(t, cfg.AuthEnabled())
	assert.Equal(t, 90*24*time.Hour, cfg.LedgerRetention)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", loc.String())
}

func TestLoad_BadTimezone(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/ping")
	t.Setenv("SCHEDULER_TIMEZONE", "Mars/Olympus")

	_, err := Load()
	assert.Error(t, err)
}

func TestSlogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, (&Config{LogLevel: "DEBUG"}).SlogLevel())
	assert.Equal(t, slog.LevelWarn, (&Config{LogLevel: "warn"}).SlogLevel())
	assert.Equal(t, slog.LevelInfo, (&Config{LogLevel: "chatty"}).SlogLevel())
}
