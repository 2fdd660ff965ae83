// Package scheduler decides once per wall-clock minute which users are due a
// ping and fires them.
//
// Each tick: take the minute lease (optional) → load enabled settings →
// evaluate every user on a bounded worker group → fire due users → record
// lastPingTime. One user's failure or panic never affects another user or the
// tick itself.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pingdaily/ping-server/internal/notifications"
	"github.com/pingdaily/ping-server/internal/store"
)

const defaultWorkers = 8

// SettingsStore is the settings persistence the scheduler reads and writes.
// *store.SettingsStore satisfies it.
type SettingsStore interface {
	FindEnabled(ctx context.Context) ([]store.Settings, error)
	TouchLastPing(ctx context.Context, userID string, at time.Time) error
}

// Pinger runs the fire procedure for one user. *notifications.Service
// satisfies it.
type Pinger interface {
	SendPing(ctx context.Context, userID string, interval int, source string) (notifications.Report, error)
}

// Options tunes a Scheduler. Zero values select local time, eight workers and
// no lease.
type Options struct {
	Location *time.Location
	Workers  int
	Lease    Lease
}

// Outcome is the per-user result of one tick.
type Outcome struct {
	UserID string
	Fired  bool
	Reason Reason
	Report notifications.Report
	Err    error
}

// TickResult summarizes one tick.
type TickResult struct {
	At           time.Time
	Evaluated    int
	Fired        int
	Skipped      int
	Failed       int
	LeaseSkipped bool
	Err          error // loading the enabled settings failed
	Outcomes     []Outcome
}

// Scheduler owns the minute loop. Create one per process with New.
type Scheduler struct {
	settings SettingsStore
	pinger   Pinger
	loc      *time.Location
	workers  int
	lease    Lease
	logger   *slog.Logger
	now      func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a stopped scheduler.
func New(settings SettingsStore, pinger Pinger, logger *slog.Logger, opts Options) *Scheduler {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Scheduler{
		settings: settings,
		pinger:   pinger,
		loc:      loc,
		workers:  workers,
		lease:    opts.Lease,
		logger:   logger,
		now:      time.Now,
	}
}

// --------------------------------------------------------------------------
// Loop
// --------------------------------------------------------------------------

// Start launches the minute loop in its own goroutine. Calling Start on a
// running scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.run(ctx, s.done)
}

// Stop halts future ticks and waits for an in-flight tick to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (s *Scheduler) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	s.logger.Info("Ping scheduler started", "timezone", s.loc.String(), "workers", s.workers)
	timer := time.NewTimer(untilNextMinute(s.now()))
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			res := s.Tick(ctx, s.now())
			switch {
			case res.Err != nil:
				s.logger.Error("scheduler tick failed", "error", res.Err)
			case res.Fired+res.Failed > 0:
				s.logger.Info("scheduler tick",
					"evaluated", res.Evaluated, "fired", res.Fired,
					"skipped", res.Skipped, "failed", res.Failed)
			}
			timer.Reset(untilNextMinute(s.now()))
		case <-ctx.Done():
			s.logger.Info("Ping scheduler stopped")
			return
		}
	}
}

// untilNextMinute returns the wait until the next wall-clock minute boundary.
func untilNextMinute(now time.Time) time.Duration {
	return now.Truncate(time.Minute).Add(time.Minute).Sub(now)
}

// --------------------------------------------------------------------------
// Tick
// --------------------------------------------------------------------------

// Tick evaluates every enabled user at now and fires the due ones. It always
// completes; failures are reported in the result.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) TickResult {
	res := TickResult{At: now}

	if s.lease != nil {
		key := leaseKey(now.UTC())
		held, err := s.lease.Acquire(ctx, key, leaseTTL)
		switch {
		case err != nil:
			s.logger.Warn("tick lease unavailable, evaluating anyway", "key", key, "error", err)
		case !held:
			s.logger.Debug("tick lease held elsewhere", "key", key)
			res.LeaseSkipped = true
			return res
		}
	}

	all, err := s.settings.FindEnabled(ctx)
	if err != nil {
		res.Err = fmt.Errorf("load enabled settings: %w", err)
		return res
	}

	res.Outcomes = make([]Outcome, len(all))
	var g errgroup.Group
	g.SetLimit(s.workers)
	for i, st := range all {
		g.Go(func() error {
			res.Outcomes[i] = s.evaluate(ctx, st, now)
			return nil
		})
	}
	_ = g.Wait()

	res.Evaluated = len(all)
	for _, o := range res.Outcomes {
		if o.Fired {
			res.Fired++
		}
		switch {
		case o.Err != nil:
			res.Failed++
			s.logger.Error("scheduler user failed", "user_id", o.UserID, "error", o.Err)
		case !o.Fired:
			res.Skipped++
		}
	}
	return res
}

// evaluate runs the eligibility checks for one user and fires when due.
// lastPingTime is recorded for every due user, whether or not any device
// accepted the push. A due user without subscriptions counts as skipped.
func (s *Scheduler) evaluate(ctx context.Context, st store.Settings, now time.Time) (out Outcome) {
	out.UserID = st.UserID
	defer func() {
		if r := recover(); r != nil {
			out.Err = fmt.Errorf("panic evaluating user %s: %v", st.UserID, r)
		}
	}()

	due, reason, err := Due(st, now, s.loc)
	if err != nil {
		out.Err = fmt.Errorf("invalid settings: %w", err)
		return out
	}
	if !due {
		out.Reason = reason
		return out
	}

	report, err := s.pinger.SendPing(ctx, st.UserID, st.Interval, store.SourceScheduler)
	if err != nil {
		out.Err = fmt.Errorf("send ping: %w", err)
		return out
	}
	out.Report = report
	if report.Total == 0 {
		out.Reason = ReasonNoSubscriptions
	} else {
		out.Fired = true
	}

	if err := s.settings.TouchLastPing(ctx, st.UserID, now); err != nil {
		out.Err = fmt.Errorf("record last ping: %w", err)
	}
	return out
}
