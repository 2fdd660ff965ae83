package notifications

import (
	"context"
	"time"

	"github.com/pingdaily/ping-server/internal/store"
)

// SubscriptionStore is the subset of subscription persistence the push
// pipeline needs. *store.SubscriptionStore satisfies it.
type SubscriptionStore interface {
	FindByUser(ctx context.Context, userID string) ([]store.Subscription, error)
	UpsertByEndpoint(ctx context.Context, sub store.Subscription) (*store.Subscription, error)
	DeleteByEndpoint(ctx context.Context, endpoint string) error
	DeleteByID(ctx context.Context, id int64) error
	TouchLastUsed(ctx context.Context, id int64, at time.Time) error
}

// Ledger records issued pings. *store.LedgerStore satisfies it.
type Ledger interface {
	Create(ctx context.Context, n store.Notification) (*store.Notification, error)
}
