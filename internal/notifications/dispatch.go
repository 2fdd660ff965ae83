package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pingdaily/ping-server/internal/store"
)

// Status classifies one delivery attempt.
type Status int

const (
	StatusDelivered Status = iota
	StatusGone
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusDelivered:
		return "delivered"
	case StatusGone:
		return "gone"
	default:
		return "failed"
	}
}

// Outcome is the result of delivering to one subscription.
type Outcome struct {
	SubscriptionID int64
	Endpoint       string
	Status         Status
	Err            error
}

// Dispatcher fans a payload out to a user's subscriptions and keeps the
// subscription table healthy: delivered endpoints get lastUsed touched, gone
// endpoints are deleted, and transient failures leave the row untouched.
type Dispatcher struct {
	subs      SubscriptionStore
	transport Transport
	fanout    int
	timeout   time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

// NewDispatcher creates a dispatcher. Non-positive fanout or timeout fall
// back to 8 concurrent deliveries and 10 seconds per delivery.
func NewDispatcher(subs SubscriptionStore, transport Transport, fanout int, timeout time.Duration, logger *slog.Logger) *Dispatcher {
	if fanout <= 0 {
		fanout = defaultFanout
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Dispatcher{
		subs:      subs,
		transport: transport,
		fanout:    fanout,
		timeout:   timeout,
		logger:    logger,
		now:       time.Now,
	}
}

// Deliver sends payload to one subscription and applies the store side
// effects of the result. It never returns an error; failures are reported in
// the Outcome.
func (d *Dispatcher) Deliver(ctx context.Context, sub store.Subscription, payload []byte) Outcome {
	out := Outcome{SubscriptionID: sub.ID, Endpoint: sub.Endpoint}

	err := d.send(ctx, sub, payload)
	switch {
	case err == nil:
		out.Status = StatusDelivered
		if tErr := d.subs.TouchLastUsed(ctx, sub.ID, d.now()); tErr != nil && !errors.Is(tErr, store.ErrNotFound) {
			d.logger.Warn("touch subscription failed", "subscription_id", sub.ID, "error", tErr)
		}
	case errors.Is(err, ErrGone):
		out.Status = StatusGone
		out.Err = err
		if dErr := d.subs.DeleteByID(ctx, sub.ID); dErr != nil {
			d.logger.Warn("remove gone subscription failed", "subscription_id", sub.ID, "error", dErr)
		} else {
			d.logger.Info("removed gone subscription", "subscription_id", sub.ID, "endpoint", shortEndpoint(sub.Endpoint))
		}
	default:
		out.Status = StatusFailed
		out.Err = err
		d.logger.Warn("push delivery failed", "subscription_id", sub.ID, "endpoint", shortEndpoint(sub.Endpoint), "error", err)
	}
	return out
}

// send bounds one transport call by the per-delivery timeout. The call runs
// in its own goroutine so a transport that ignores ctx cannot stall the batch.
func (d *Dispatcher) send(ctx context.Context, sub store.Subscription, payload []byte) error {
	callCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- d.transport.Send(callCtx, Target{Endpoint: sub.Endpoint, Keys: sub.Keys}, payload)
	}()

	select {
	case err := <-done:
		return err
	case <-callCtx.Done():
		return fmt.Errorf("deliver to subscription %d: %w", sub.ID, callCtx.Err())
	}
}

// DeliverAll delivers payload to every subscription with at most fanout calls
// in flight. One failure never cancels the others.
func (d *Dispatcher) DeliverAll(ctx context.Context, subs []store.Subscription, payload []byte) ([]Outcome, Summary) {
	outcomes := make([]Outcome, len(subs))

	var g errgroup.Group
	g.SetLimit(d.fanout)
	for i, sub := range subs {
		g.Go(func() error {
			outcomes[i] = d.Deliver(ctx, sub, payload)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes, summarize(outcomes)
}

func summarize(outcomes []Outcome) Summary {
	s := Summary{Total: len(outcomes)}
	for _, o := range outcomes {
		switch o.Status {
		case StatusDelivered:
			s.Succeeded++
		case StatusGone:
			s.Gone++
			s.Failed++
		default:
			s.Failed++
		}
	}
	return s
}

func shortEndpoint(endpoint string) string {
	const max = 50
	if len(endpoint) <= max {
		return endpoint
	}
	return endpoint[:max] + "..."
}
