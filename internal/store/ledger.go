package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LedgerStore is the append-only record of issued pings. Entries are only
// mutated to flip read/logged flags and are deleted only on user request.
type LedgerStore struct {
	pool *pgxpool.Pool
}

// NewLedgerStore creates a ledger store over the pool.
func NewLedgerStore(pool *pgxpool.Pool) *LedgerStore {
	return &LedgerStore{pool: pool}
}

const ledgerColumns = `id, user_id, message, category, activity_logged, read,
	ts, scheduled_for, metadata, created_at, updated_at`

func scanNotification(row pgx.Row) (*Notification, error) {
	var (
		n        Notification
		category *string
	)
	if err := row.Scan(
		&n.ID, &n.UserID, &n.Message, &category, &n.ActivityLogged, &n.Read,
		&n.Timestamp, &n.ScheduledFor, &n.Metadata, &n.CreatedAt, &n.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if category != nil {
		c := Category(*category)
		n.Category = &c
	}
	return &n, nil
}

func categoryParam(c *Category) *string {
	if c == nil {
		return nil
	}
	s := string(*c)
	return &s
}

// Create appends a ledger entry and returns it with its generated id.
func (s *LedgerStore) Create(ctx context.Context, n Notification) (*Notification, error) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now()
	}
	out, err := scanNotification(s.pool.QueryRow(ctx, `
		INSERT INTO notifications (id, user_id, message, category, ts, scheduled_for, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+ledgerColumns,
		n.ID, n.UserID, n.Message, categoryParam(n.Category), n.Timestamp, n.ScheduledFor, n.Metadata,
	))
	if err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}
	return out, nil
}

// Get returns a single ledger entry owned by userID.
func (s *LedgerStore) Get(ctx context.Context, userID, id string) (*Notification, error) {
	n, err := scanNotification(s.pool.QueryRow(ctx,
		`SELECT `+ledgerColumns+` FROM notifications WHERE id = $1 AND user_id = $2`, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get notification %s: %w", id, err)
	}
	return n, nil
}

// List returns a page of a user's ledger, newest first, and the total count
// matching the filter.
func (s *LedgerStore) List(ctx context.Context, userID string, f ListFilter) ([]Notification, int, error) {
	var total int
	if err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM notifications
		WHERE user_id = $1 AND ($2::boolean = false OR read = false)`,
		userID, f.UnreadOnly,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count notifications: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT `+ledgerColumns+` FROM notifications
		WHERE user_id = $1 AND ($2::boolean = false OR read = false)
		ORDER BY ts DESC
		LIMIT $3 OFFSET $4`,
		userID, f.UnreadOnly, f.Limit, f.Skip,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	out := []Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, *n)
	}
	return out, total, rows.Err()
}

// MarkRead flips the read flag of one entry.
func (s *LedgerStore) MarkRead(ctx context.Context, userID, id string) (*Notification, error) {
	n, err := scanNotification(s.pool.QueryRow(ctx, `
		UPDATE notifications SET read = true, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING `+ledgerColumns, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mark notification %s read: %w", id, err)
	}
	return n, nil
}

// MarkLogged records that the user answered a ping: the entry is marked read
// and logged, and the logged category, text and action are merged into its
// metadata.
func (s *LedgerStore) MarkLogged(ctx context.Context, userID, id string, category *Category, customText, action string) (*Notification, error) {
	patch, err := json.Marshal(Metadata{LoggedCategory: category, CustomText: customText, Action: action})
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}
	n, err := scanNotification(s.pool.QueryRow(ctx, `
		UPDATE notifications SET
			activity_logged = true,
			read            = true,
			category        = $3,
			metadata        = metadata || $4::jsonb,
			updated_at      = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING `+ledgerColumns,
		id, userID, categoryParam(category), string(patch),
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mark notification %s logged: %w", id, err)
	}
	return n, nil
}

// MarkAllRead marks every unread entry of a user as read and returns how many
// rows changed.
func (s *LedgerStore) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE notifications SET read = true, updated_at = NOW()
		WHERE user_id = $1 AND read = false`, userID)
	if err != nil {
		return 0, fmt.Errorf("mark all read: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Delete removes one entry on explicit user request.
func (s *LedgerStore) Delete(ctx context.Context, userID, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM notifications WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete notification %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Summary counts a user's pings and how many were answered.
func (s *LedgerStore) Summary(ctx context.Context, userID string) (LedgerSummary, error) {
	var sum LedgerSummary
	err := s.pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE read = false),
			COUNT(*) FILTER (WHERE activity_logged = true)
		FROM notifications WHERE user_id = $1`, userID,
	).Scan(&sum.Total, &sum.Unread, &sum.Logged)
	if err != nil {
		return sum, fmt.Errorf("notification summary: %w", err)
	}
	sum.ResponseRate = ResponseRate(sum.Logged, sum.Total)
	return sum, nil
}

// ResponseRate is the percentage of logged pings, rounded to two decimals.
func ResponseRate(logged, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(logged)/float64(total)*10000) / 100
}

// DeleteOlderThan removes ledger entries issued before the cutoff. Returns
// the number of rows removed.
func (s *LedgerStore) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM notifications WHERE ts < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("delete old notifications: %w", err)
	}
	return tag.RowsAffected(), nil
}
