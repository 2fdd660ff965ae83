// Package maintenance runs periodic housekeeping as a Go ticker: devices that
// stopped accepting pushes are forgotten and old ledger entries are purged.
package maintenance

import (
	"context"
	"log/slog"
	"time"
)

// SubscriptionPruner removes push subscriptions that have gone quiet.
// *store.SubscriptionStore satisfies it.
type SubscriptionPruner interface {
	DeleteUnusedSince(ctx context.Context, before time.Time) (int64, error)
}

// LedgerPruner removes old ledger entries. *store.LedgerStore satisfies it.
type LedgerPruner interface {
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
}

// Config controls maintenance intervals. Zero duration disables a task.
type Config struct {
	Interval            time.Duration // How often cleanup runs
	SubscriptionMaxIdle time.Duration // Subscriptions unused this long are deleted
	LedgerRetention     time.Duration // Ledger entries older than this are deleted
}

// Result counts what one cleanup pass removed.
type Result struct {
	Subscriptions int64
	Notifications int64
}

// Runner performs cleanup passes.
type Runner struct {
	subs   SubscriptionPruner
	ledger LedgerPruner
	cfg    Config
	logger *slog.Logger
	now    func() time.Time
}

// New creates a Runner. Either pruner may be nil to skip its task.
func New(subs SubscriptionPruner, ledger LedgerPruner, cfg Config, logger *slog.Logger) *Runner {
	return &Runner{subs: subs, ledger: ledger, cfg: cfg, logger: logger, now: time.Now}
}

// Start runs a cleanup pass every cfg.Interval. Blocks until ctx is
// cancelled. Intended to be called with `go`.
func (r *Runner) Start(ctx context.Context) {
	if r.cfg.Interval <= 0 {
		r.logger.Info("Maintenance disabled")
		return
	}
	r.logger.Info("Maintenance ticker started",
		"interval", r.cfg.Interval,
		"subscription_max_idle", r.cfg.SubscriptionMaxIdle,
		"ledger_retention", r.cfg.LedgerRetention)

	t := time.NewTicker(r.cfg.Interval)
	defer t.Stop()
	runLoop(ctx, t.C, func() { r.Cleanup(ctx) })

	r.logger.Info("Maintenance ticker stopped")
}

func runLoop(ctx context.Context, ch <-chan time.Time, fn func()) {
	for {
		select {
		case <-ch:
			fn()
		case <-ctx.Done():
			return
		}
	}
}

// --------------------------------------------------------------------------
// Task implementations
// --------------------------------------------------------------------------

// Cleanup runs one pass of every enabled task. Failures are logged and do not
// stop the other task.
func (r *Runner) Cleanup(ctx context.Context) Result {
	var res Result
	now := r.now()

	if r.subs != nil && r.cfg.SubscriptionMaxIdle > 0 {
		n, err := r.subs.DeleteUnusedSince(ctx, now.Add(-r.cfg.SubscriptionMaxIdle))
		if err != nil {
			r.logger.Warn("Cleanup: failed to purge idle subscriptions", "error", err)
		} else if n > 0 {
			r.logger.Info("Cleanup: purged idle subscriptions", "count", n)
		}
		res.Subscriptions = n
	}

	if r.ledger != nil && r.cfg.LedgerRetention > 0 {
		n, err := r.ledger.DeleteOlderThan(ctx, now.Add(-r.cfg.LedgerRetention))
		if err != nil {
			r.logger.Warn("Cleanup: failed to purge old notifications", "error", err)
		} else if n > 0 {
			r.logger.Info("Cleanup: purged old notifications", "count", n)
		}
		res.Notifications = n
	}
	return res
}
