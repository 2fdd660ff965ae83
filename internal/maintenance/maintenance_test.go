package maintenance

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pingdaily/ping-server/internal/config"
)

type pruneFunc func(ctx context.Context, before time.Time) (int64, error)

func (f pruneFunc) DeleteUnusedSince(ctx context.Context, before time.Time) (int64, error) {
	return f(ctx, before)
}

func (f pruneFunc) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	return f(ctx, before)
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestCleanup_Cutoffs(t *testing.T) {
	var subsCutoff, ledgerCutoff time.Time
	subs := pruneFunc(func(_ context.Context, before time.Time) (int64, error) {
		subsCutoff = before
		return 2, nil
	})
	ledger := pruneFunc(func(_ context.Context, before time.Time) (int64, error) {
		ledgerCutoff = before
		return 7, nil
	})

	r := New(subs, ledger, Config{
		Interval:            time.Hour,
		SubscriptionMaxIdle: 48 * time.Hour,
		LedgerRetention:     30 * 24 * time.Hour,
	}, discard())
	r.now = func() time.Time { return fixedNow }

	res := r.Cleanup(context.Background())
	assert.Equal(t, Result{Subscriptions: 2, Notifications: 7}, res)
	assert.Equal(t, fixedNow.Add(-48*time.Hour), subsCutoff)
	assert.Equal(t, fixedNow.AddDate(0, 0, -30), ledgerCutoff)
}

func TestCleanup_DisabledTasksNotCalled(t *testing.T) {
	called := false
	p := pruneFunc(func(context.Context, time.Time) (int64, error) {
		called = true
		return 0, nil
	})

	r := New(p, p, Config{Interval: time.Hour}, discard())
	assert.Equal(t, Result{}, r.Cleanup(context.Background()))
	assert.False(t, called)

	r = New(nil, nil, Config{SubscriptionMaxIdle: time.Hour, LedgerRetention: time.Hour}, discard())
	assert.Equal(t, Result{}, r.Cleanup(context.Background()))
}

func TestCleanup_DefaultConfigKeepsEverything(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/ping")
	cfg, err := config.Load()
	require.NoError(t, err)

	called := false
	p := pruneFunc(func(context.Context, time.Time) (int64, error) {
		called = true
		return 1, nil
	})
	r := New(p, p, Config{
		Interval:            cfg.MaintenanceInterval,
		SubscriptionMaxIdle: cfg.SubscriptionMaxIdle,
		LedgerRetention:     cfg.LedgerRetention,
	}, discard())
	r.now = func() time.Time { return fixedNow }

	assert.Equal(t, Result{}, r.Cleanup(context.Background()))
	assert.False(t, called, "subscriptions and ledger entries are only pruned when opted in")
}

func TestCleanup_FailureDoesNotStopOtherTask(t *testing.T) {
	subs := pruneFunc(func(context.Context, time.Time) (int64, error) {
		return 0, errors.New("db down")
	})
	ledger := pruneFunc(func(context.Context, time.Time) (int64, error) { return 3, nil })

	r := New(subs, ledger, Config{SubscriptionMaxIdle: time.Hour, LedgerRetention: time.Hour}, discard())
	res := r.Cleanup(context.Background())
	assert.Zero(t, res.Subscriptions)
	assert.Equal(t, int64(3), res.Notifications)
}

func TestStart_RunsUntilCancelled(t *testing.T) {
	var runs atomic.Int32
	p := pruneFunc(func(context.Context, time.Time) (int64, error) {
		runs.Add(1)
		return 0, nil
	})
	r := New(p, nil, Config{Interval: 5 * time.Millisecond, SubscriptionMaxIdle: time.Hour}, discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return runs.Load() >= 2 }, time.Second, time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start did not return after cancel")
	}
}

func TestStart_ZeroIntervalReturns(t *testing.T) {
	r := New(nil, nil, Config{}, discard())
	r.Start(context.Background())
}
