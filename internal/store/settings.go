package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SettingsStore persists notification settings, one row per user.
type SettingsStore struct {
	pool *pgxpool.Pool
}

// NewSettingsStore creates a settings store over the pool.
func NewSettingsStore(pool *pgxpool.Pool) *SettingsStore {
	return &SettingsStore{pool: pool}
}

const settingsColumns = `user_id, enabled, interval_minutes, start_time, end_time,
	days_of_week, last_ping_time, created_at, updated_at`

func scanSettings(row pgx.Row) (*Settings, error) {
	var s Settings
	if err := row.Scan(
		&s.UserID, &s.Enabled, &s.Interval, &s.StartTime, &s.EndTime,
		&s.DaysOfWeek, &s.LastPingTime, &s.CreatedAt, &s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if s.DaysOfWeek == nil {
		s.DaysOfWeek = []int{}
	}
	return &s, nil
}

// FindEnabled returns every settings record with notifications switched on.
func (s *SettingsStore) FindEnabled(ctx context.Context) ([]Settings, error) {
	rows, err := s.pool.Query(ctx, "settings_find_enabled")
	if err != nil {
		return nil, fmt.Errorf("find enabled settings: %w", err)
	}
	defer rows.Close()

	var out []Settings
	for rows.Next() {
		st, err := scanSettings(rows)
		if err != nil {
			return nil, fmt.Errorf("scan settings: %w", err)
		}
		out = append(out, *st)
	}
	return out, rows.Err()
}

// Get returns the settings of a user or ErrNotFound.
func (s *SettingsStore) Get(ctx context.Context, userID string) (*Settings, error) {
	st, err := scanSettings(s.pool.QueryRow(ctx,
		`SELECT `+settingsColumns+` FROM notification_settings WHERE user_id = $1`, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get settings %s: %w", userID, err)
	}
	return st, nil
}

// GetOrCreate returns the user's settings, inserting the defaults on first use.
func (s *SettingsStore) GetOrCreate(ctx context.Context, userID string) (*Settings, error) {
	d := DefaultSettings(userID)
	_, err := s.pool.Exec(ctx, `
		INSERT INTO notification_settings (user_id, enabled, interval_minutes, start_time, end_time, days_of_week)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO NOTHING`,
		d.UserID, d.Enabled, d.Interval, d.StartTime, d.EndTime, d.DaysOfWeek,
	)
	if err != nil {
		return nil, fmt.Errorf("create default settings %s: %w", userID, err)
	}
	return s.Get(ctx, userID)
}

// Upsert writes the full settings record of a user. LastPingTime is only
// overwritten when set.
func (s *SettingsStore) Upsert(ctx context.Context, st Settings) (*Settings, error) {
	if err := st.Validate(); err != nil {
		return nil, err
	}
	days := st.DaysOfWeek
	if days == nil {
		days = []int{}
	}
	out, err := scanSettings(s.pool.QueryRow(ctx, `
		INSERT INTO notification_settings (
			user_id, enabled, interval_minutes, start_time, end_time, days_of_week, last_ping_time
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE SET
			enabled          = excluded.enabled,
			interval_minutes = excluded.interval_minutes,
			start_time       = excluded.start_time,
			end_time         = excluded.end_time,
			days_of_week     = excluded.days_of_week,
			last_ping_time   = COALESCE(excluded.last_ping_time, notification_settings.last_ping_time),
			updated_at       = NOW()
		RETURNING `+settingsColumns,
		st.UserID, st.Enabled, st.Interval, st.StartTime, st.EndTime, days, st.LastPingTime,
	))
	if err != nil {
		return nil, fmt.Errorf("upsert settings %s: %w", st.UserID, err)
	}
	return out, nil
}

// TouchLastPing records the time of the most recent fire for a user.
func (s *SettingsStore) TouchLastPing(ctx context.Context, userID string, at time.Time) error {
	tag, err := s.pool.Exec(ctx, "settings_touch_last_ping", userID, at)
	if err != nil {
		return fmt.Errorf("touch last ping %s: %w", userID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
