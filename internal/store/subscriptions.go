package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SubscriptionStore persists push subscriptions. The endpoint is the natural
// key: a browser that re-subscribes keeps a single row.
type SubscriptionStore struct {
	pool *pgxpool.Pool
}

// NewSubscriptionStore creates a subscription store over the pool.
func NewSubscriptionStore(pool *pgxpool.Pool) *SubscriptionStore {
	return &SubscriptionStore{pool: pool}
}

func scanSubscription(row pgx.Row) (*Subscription, error) {
	var (
		sub Subscription
		ua  *string
	)
	if err := row.Scan(
		&sub.ID, &sub.UserID, &sub.Endpoint, &sub.Keys.P256dh, &sub.Keys.Auth,
		&ua, &sub.CreatedAt, &sub.LastUsed,
	); err != nil {
		return nil, err
	}
	if ua != nil {
		sub.UserAgent = *ua
	}
	return &sub, nil
}

// FindByUser returns every subscription registered by a user.
func (s *SubscriptionStore) FindByUser(ctx context.Context, userID string) ([]Subscription, error) {
	rows, err := s.pool.Query(ctx, "subscriptions_by_user", userID)
	if err != nil {
		return nil, fmt.Errorf("find subscriptions %s: %w", userID, err)
	}
	defer rows.Close()

	var subs []Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		subs = append(subs, *sub)
	}
	return subs, rows.Err()
}

// UpsertByEndpoint inserts a subscription or, when the endpoint is already
// known, rebinds it to the given user and refreshes keys, user agent and
// last-used time.
func (s *SubscriptionStore) UpsertByEndpoint(ctx context.Context, sub Subscription) (*Subscription, error) {
	out, err := scanSubscription(s.pool.QueryRow(ctx, `
		INSERT INTO push_subscriptions (user_id, endpoint, p256dh, auth, user_agent, last_used)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NOW())
		ON CONFLICT (endpoint) DO UPDATE SET
			user_id    = excluded.user_id,
			p256dh     = excluded.p256dh,
			auth       = excluded.auth,
			user_agent = excluded.user_agent,
			last_used  = NOW(),
			updated_at = NOW()
		RETURNING id, user_id, endpoint, p256dh, auth, user_agent, created_at, last_used`,
		sub.UserID, sub.Endpoint, sub.Keys.P256dh, sub.Keys.Auth, sub.UserAgent,
	))
	if err != nil {
		return nil, fmt.Errorf("upsert subscription: %w", err)
	}
	return out, nil
}

// DeleteByEndpoint removes a subscription by endpoint. Deleting an unknown
// endpoint is not an error.
func (s *SubscriptionStore) DeleteByEndpoint(ctx context.Context, endpoint string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM push_subscriptions WHERE endpoint = $1`, endpoint); err != nil {
		return fmt.Errorf("delete subscription by endpoint: %w", err)
	}
	return nil
}

// DeleteByID removes a subscription by id.
func (s *SubscriptionStore) DeleteByID(ctx context.Context, id int64) error {
	if _, err := s.pool.Exec(ctx, "subscription_delete_by_id", id); err != nil {
		return fmt.Errorf("delete subscription %d: %w", id, err)
	}
	return nil
}

// TouchLastUsed records a successful delivery to a subscription.
func (s *SubscriptionStore) TouchLastUsed(ctx context.Context, id int64, at time.Time) error {
	if _, err := s.pool.Exec(ctx, "subscription_touch", id, at); err != nil {
		return fmt.Errorf("touch subscription %d: %w", id, err)
	}
	return nil
}

// DeleteUnusedSince removes subscriptions that have not accepted a push since
// before. Returns the number of rows removed.
func (s *SubscriptionStore) DeleteUnusedSince(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM push_subscriptions WHERE last_used < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("delete unused subscriptions: %w", err)
	}
	return tag.RowsAffected(), nil
}
