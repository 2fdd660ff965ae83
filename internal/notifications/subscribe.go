package notifications

import (
	"context"
	"fmt"
	"strings"

	"github.com/pingdaily/ping-server/internal/store"
)

// Subscribe registers a push endpoint for userID. Registering a known
// endpoint again rebinds it to userID and refreshes its keys instead of
// adding a second row.
func (s *Service) Subscribe(ctx context.Context, userID, endpoint string, keys store.Keys, userAgent string) (*store.Subscription, error) {
	endpoint = strings.TrimSpace(endpoint)
	switch {
	case userID == "":
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidSubscription)
	case endpoint == "":
		return nil, fmt.Errorf("%w: endpoint is required", ErrInvalidSubscription)
	case keys.P256dh == "":
		return nil, fmt.Errorf("%w: keys.p256dh is required", ErrInvalidSubscription)
	case keys.Auth == "":
		return nil, fmt.Errorf("%w: keys.auth is required", ErrInvalidSubscription)
	}

	sub, err := s.subs.UpsertByEndpoint(ctx, store.Subscription{
		UserID:    userID,
		Endpoint:  endpoint,
		Keys:      keys,
		UserAgent: userAgent,
		LastUsed:  s.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("save subscription: %w", err)
	}
	s.logger.Info("push subscription saved", "user_id", userID, "subscription_id", sub.ID)
	return sub, nil
}

// Unsubscribe removes the subscription with the given endpoint. Removing an
// unknown endpoint succeeds.
func (s *Service) Unsubscribe(ctx context.Context, endpoint string) error {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return fmt.Errorf("%w: endpoint is required", ErrInvalidSubscription)
	}
	if err := s.subs.DeleteByEndpoint(ctx, endpoint); err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	return nil
}

// Subscriptions lists the registered endpoints of userID.
func (s *Service) Subscriptions(ctx context.Context, userID string) ([]store.Subscription, error) {
	subs, err := s.subs.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	return subs, nil
}
