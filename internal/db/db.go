// Package db provides a pgxpool-based connection pool with embedded schema
// migrations, prepared statement registration and health checking.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pingdaily/ping-server/internal/config"
)

// Pool wraps pgxpool.Pool with application-specific helpers.
type Pool struct {
	*pgxpool.Pool
}

// New migrates the schema, then creates and validates a connection pool.
// Migrations run on a dedicated connection first because the statements
// prepared on every pooled connection reference the migrated tables.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	if err := Migrate(ctx, cfg.DatabaseURL); err != nil {
		return nil, err
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	// Register prepared statements on every new connection.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, "health_check").Scan(&n)
}

// registerPreparedStatements registers the statements the scheduler and push
// pipeline run every minute.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	stmts := map[string]string{
		// Health
		"health_check": "SELECT 1",

		// Scheduler
		"settings_find_enabled": `SELECT user_id, enabled, interval_minutes, start_time, end_time,
			days_of_week, last_ping_time, created_at, updated_at
			FROM notification_settings WHERE enabled = true`,
		"settings_touch_last_ping": "UPDATE notification_settings SET last_ping_time = $2, updated_at = NOW() WHERE user_id = $1",

		// Push pipeline
		"subscriptions_by_user": `SELECT id, user_id, endpoint, p256dh, auth, user_agent, created_at, last_used
			FROM push_subscriptions WHERE user_id = $1 ORDER BY id`,
		"subscription_touch":        "UPDATE push_subscriptions SET last_used = $2, updated_at = NOW() WHERE id = $1",
		"subscription_delete_by_id": "DELETE FROM push_subscriptions WHERE id = $1",
	}

	for name, sql := range stmts {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}
