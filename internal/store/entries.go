package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TimeEntryStore persists hourly activity slots.
type TimeEntryStore struct {
	pool *pgxpool.Pool
}

// NewTimeEntryStore creates a time entry store over the pool.
func NewTimeEntryStore(pool *pgxpool.Pool) *TimeEntryStore {
	return &TimeEntryStore{pool: pool}
}

const entryColumns = `id, user_id, hour, entry_date, category_id, custom_text,
	ts, notification_id, created_at, updated_at`

func scanEntry(row pgx.Row) (*TimeEntry, error) {
	var (
		e          TimeEntry
		category   *string
		customText *string
	)
	if err := row.Scan(
		&e.ID, &e.UserID, &e.Hour, &e.Date, &category, &customText,
		&e.Timestamp, &e.NotificationID, &e.CreatedAt, &e.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if category != nil {
		c := Category(*category)
		e.CategoryID = &c
	}
	if customText != nil {
		e.CustomText = *customText
	}
	return &e, nil
}

func collectEntries(rows pgx.Rows) ([]TimeEntry, error) {
	defer rows.Close()
	out := []TimeEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan time entry: %w", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// Upsert creates or replaces the entry for (user, date, hour). The returned
// flag reports whether a new row was inserted.
func (s *TimeEntryStore) Upsert(ctx context.Context, e TimeEntry) (*TimeEntry, bool, error) {
	if err := e.Validate(); err != nil {
		return nil, false, err
	}
	if e.Timestamp == 0 {
		e.Timestamp = time.Now().UnixMilli()
	}
	var inserted bool
	row := s.pool.QueryRow(ctx, `
		INSERT INTO time_entries (user_id, hour, entry_date, category_id, custom_text, ts, notification_id)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7)
		ON CONFLICT (user_id, entry_date, hour) DO UPDATE SET
			category_id     = excluded.category_id,
			custom_text     = excluded.custom_text,
			ts              = excluded.ts,
			notification_id = excluded.notification_id,
			updated_at      = NOW()
		RETURNING `+entryColumns+`, (xmax = 0) AS inserted`,
		e.UserID, e.Hour, e.Date, categoryParam(e.CategoryID), e.CustomText, e.Timestamp, e.NotificationID,
	)
	var (
		ent        TimeEntry
		category   *string
		customText *string
	)
	if err := row.Scan(
		&ent.ID, &ent.UserID, &ent.Hour, &ent.Date, &category, &customText,
		&ent.Timestamp, &ent.NotificationID, &ent.CreatedAt, &ent.UpdatedAt, &inserted,
	); err != nil {
		return nil, false, fmt.Errorf("upsert time entry: %w", err)
	}
	if category != nil {
		c := Category(*category)
		ent.CategoryID = &c
	}
	if customText != nil {
		ent.CustomText = *customText
	}
	return &ent, inserted, nil
}

// List returns a user's entries inside the date range, newest day first and
// hours ascending within a day.
func (s *TimeEntryStore) List(ctx context.Context, userID string, r DateRange) ([]TimeEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+entryColumns+` FROM time_entries
		WHERE user_id = $1
		  AND ($2 = '' OR entry_date >= $2)
		  AND ($3 = '' OR entry_date <= $3)
		ORDER BY entry_date DESC, hour ASC`,
		userID, r.Start, r.End,
	)
	if err != nil {
		return nil, fmt.Errorf("list time entries: %w", err)
	}
	return collectEntries(rows)
}

// ListByDate returns a user's entries for one day ordered by hour.
func (s *TimeEntryStore) ListByDate(ctx context.Context, userID, date string) ([]TimeEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+entryColumns+` FROM time_entries
		WHERE user_id = $1 AND entry_date = $2
		ORDER BY hour ASC`, userID, date)
	if err != nil {
		return nil, fmt.Errorf("list time entries for %s: %w", date, err)
	}
	return collectEntries(rows)
}

// Update replaces category and text of an existing entry.
func (s *TimeEntryStore) Update(ctx context.Context, userID string, id int64, category *Category, customText string) (*TimeEntry, error) {
	if category != nil && !category.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, *category)
	}
	e, err := scanEntry(s.pool.QueryRow(ctx, `
		UPDATE time_entries SET
			category_id = $3,
			custom_text = NULLIF($4, ''),
			ts          = $5,
			updated_at  = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING `+entryColumns,
		id, userID, categoryParam(category), customText, time.Now().UnixMilli(),
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update time entry %d: %w", id, err)
	}
	return e, nil
}

// Delete removes one entry.
func (s *TimeEntryStore) Delete(ctx context.Context, userID string, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM time_entries WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete time entry %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CountByCategory counts a user's entries per category inside the range.
// Entries without a category are counted under UnassignedKey.
func (s *TimeEntryStore) CountByCategory(ctx context.Context, userID string, r DateRange) (map[string]int, int, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT COALESCE(category_id, $4), COUNT(*) FROM time_entries
		WHERE user_id = $1
		  AND ($2 = '' OR entry_date >= $2)
		  AND ($3 = '' OR entry_date <= $3)
		GROUP BY 1`,
		userID, r.Start, r.End, UnassignedKey,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("count time entries: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	total := 0
	for rows.Next() {
		var (
			key string
			n   int
		)
		if err := rows.Scan(&key, &n); err != nil {
			return nil, 0, fmt.Errorf("scan category count: %w", err)
		}
		counts[key] = n
		total += n
	}
	return counts, total, rows.Err()
}
