package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/pingdaily/ping-server/internal/store"
)

// Service runs the fire procedure and manages push registrations.
// A nil dispatcher means push delivery is not configured: registrations still
// work, sends return ErrPushNotConfigured.
type Service struct {
	subs       SubscriptionStore
	ledger     Ledger
	dispatcher *Dispatcher
	logger     *slog.Logger
	now        func() time.Time
}

// NewService wires the fire procedure to its stores and dispatcher.
func NewService(subs SubscriptionStore, ledger Ledger, dispatcher *Dispatcher, logger *slog.Logger) *Service {
	return &Service{
		subs:       subs,
		ledger:     ledger,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

// PushEnabled reports whether sends can reach a push service.
func (s *Service) PushEnabled() bool {
	return s.dispatcher != nil
}

// SendPing issues one ping to every device of userID.
//
// A user without subscriptions gets nothing: no ledger entry, an empty report
// and a nil error. Otherwise the ping is recorded in the ledger first so the
// payload can carry its id, then delivered to all subscriptions concurrently.
// Only store failures are returned as errors; delivery failures are counted in
// the report.
func (s *Service) SendPing(ctx context.Context, userID string, interval int, source string) (Report, error) {
	report := Report{UserID: userID}
	if s.dispatcher == nil {
		return report, ErrPushNotConfigured
	}

	subs, err := s.subs.FindByUser(ctx, userID)
	if err != nil {
		return report, fmt.Errorf("load subscriptions: %w", err)
	}
	if len(subs) == 0 {
		s.logger.Info("no push subscriptions, ping skipped", "user_id", userID, "source", source)
		return report, nil
	}

	now := s.now()
	meta := store.Metadata{Source: source}
	if interval > 0 {
		meta.Interval = &interval
	}
	entry, err := s.ledger.Create(ctx, store.Notification{
		UserID:    userID,
		Message:   PingMessage,
		Timestamp: now,
		Metadata:  meta,
	})
	if err != nil {
		return report, fmt.Errorf("record ping: %w", err)
	}
	report.NotificationID = entry.ID

	payload, err := json.Marshal(PingPayload(entry.ID, now))
	if err != nil {
		return report, fmt.Errorf("encode payload: %w", err)
	}

	_, report.Summary = s.dispatcher.DeliverAll(ctx, subs, payload)
	s.logger.Info("ping sent",
		"user_id", userID, "notification_id", entry.ID, "source", source,
		"sent", report.Succeeded, "failed", report.Failed, "gone", report.Gone)
	return report, nil
}

// SendTest pushes a test notification to every device of userID without
// touching the ledger.
func (s *Service) SendTest(ctx context.Context, userID string) (Report, error) {
	report := Report{UserID: userID}
	if s.dispatcher == nil {
		return report, ErrPushNotConfigured
	}

	subs, err := s.subs.FindByUser(ctx, userID)
	if err != nil {
		return report, fmt.Errorf("load subscriptions: %w", err)
	}
	if len(subs) == 0 {
		return report, ErrNoSubscriptions
	}

	payload, err := json.Marshal(TestPayload(s.now()))
	if err != nil {
		return report, fmt.Errorf("encode payload: %w", err)
	}

	_, report.Summary = s.dispatcher.DeliverAll(ctx, subs, payload)
	s.logger.Info("test push sent", "user_id", userID, "sent", report.Succeeded, "failed", report.Failed)
	return report, nil
}
