package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pingdaily/ping-server/internal/store"
)

func newTestService(subs *fakeSubs, tr *fakeTransport, ledger Ledger) *Service {
	svc := NewService(subs, ledger, NewDispatcher(subs, tr, 4, time.Second, testLogger()), testLogger())
	svc.now = func() time.Time { return time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC) }
	return svc
}

func TestSendPing_NoSubscriptions(t *testing.T) {
	subs := newFakeSubs()
	tr := newFakeTransport()
	ledger := new(mockLedger)
	svc := newTestService(subs, tr, ledger)

	report, err := svc.SendPing(context.Background(), "u1", 30, store.SourceScheduler)

	require.NoError(t, err)
	assert.Equal(t, Report{UserID: "u1"}, report)
	assert.Zero(t, tr.sends())
	ledger.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSendPing_GoneAndSuccess(t *testing.T) {
	a := sub(1, "u1", "https://push.example/a")
	b := sub(2, "u1", "https://push.example/b")
	subs := newFakeSubs(a, b)
	tr := newFakeTransport()
	tr.results[b.Endpoint] = &StatusError{StatusCode: http.StatusGone}

	ledger := new(mockLedger)
	ledger.On("Create", mock.Anything, mock.MatchedBy(func(n store.Notification) bool {
		return n.UserID == "u1" &&
			n.Message == PingMessage &&
			n.Metadata.Source == store.SourceScheduler &&
			n.Metadata.Interval != nil && *n.Metadata.Interval == 30
	})).Return(&store.Notification{ID: "n-1", UserID: "u1"}, nil).Once()

	svc := newTestService(subs, tr, ledger)
	report, err := svc.SendPing(context.Background(), "u1", 30, store.SourceScheduler)

	require.NoError(t, err)
	ledger.AssertExpectations(t)
	assert.Equal(t, "n-1", report.NotificationID)
	assert.Equal(t, 2, report.Total)
	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.Gone)
	assert.False(t, subs.has(b.ID))
	assert.True(t, subs.wasTouched(a.ID))

	var p Payload
	require.NoError(t, json.Unmarshal(tr.lastPayload(), &p))
	assert.Equal(t, PingTitle, p.Title)
	assert.Equal(t, PingBody, p.Body)
	assert.Equal(t, "/icon-192.png", p.Icon)
	assert.Equal(t, "/badge-72.png", p.Badge)
	assert.Equal(t, PingTag, p.Tag)
	assert.True(t, p.RequireInteraction)
	assert.Equal(t, "/", p.Data.URL)
	assert.Equal(t, "n-1", p.Data.NotificationID)
	assert.Equal(t, time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC).UnixMilli(), p.Data.Timestamp)
}

func TestSendPing_ManualWithoutInterval(t *testing.T) {
	subs := newFakeSubs(sub(1, "u1", "https://push.example/a"))
	ledger := new(mockLedger)
	ledger.On("Create", mock.Anything, mock.MatchedBy(func(n store.Notification) bool {
		return n.Metadata.Source == store.SourceManual && n.Metadata.Interval == nil
	})).Return(&store.Notification{ID: "n-2"}, nil).Once()

	svc := newTestService(subs, newFakeTransport(), ledger)
	report, err := svc.SendPing(context.Background(), "u1", 0, store.SourceManual)

	require.NoError(t, err)
	ledger.AssertExpectations(t)
	assert.Equal(t, 1, report.Succeeded)
}

func TestSendPing_StoreErrors(t *testing.T) {
	t.Run("subscriptions", func(t *testing.T) {
		subs := newFakeSubs()
		subs.findErr = errors.New("db down")
		ledger := new(mockLedger)

		_, err := newTestService(subs, newFakeTransport(), ledger).SendPing(context.Background(), "u1", 15, store.SourceScheduler)

		require.Error(t, err)
		ledger.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("ledger", func(t *testing.T) {
		subs := newFakeSubs(sub(1, "u1", "https://push.example/a"))
		tr := newFakeTransport()
		ledger := new(mockLedger)
		ledger.On("Create", mock.Anything, mock.Anything).Return(nil, errors.New("insert failed")).Once()

		_, err := newTestService(subs, tr, ledger).SendPing(context.Background(), "u1", 15, store.SourceScheduler)

		require.Error(t, err)
		assert.Zero(t, tr.sends(), "nothing is pushed without a ledger entry")
	})
}

func TestSendPing_NotConfigured(t *testing.T) {
	svc := NewService(newFakeSubs(), new(mockLedger), nil, testLogger())

	_, err := svc.SendPing(context.Background(), "u1", 15, store.SourceManual)
	assert.ErrorIs(t, err, ErrPushNotConfigured)

	_, err = svc.SendTest(context.Background(), "u1")
	assert.ErrorIs(t, err, ErrPushNotConfigured)
	assert.False(t, svc.PushEnabled())
}

func TestSendTest(t *testing.T) {
	t.Run("no subscriptions", func(t *testing.T) {
		_, err := newTestService(newFakeSubs(), newFakeTransport(), new(mockLedger)).SendTest(context.Background(), "u1")
		assert.ErrorIs(t, err, ErrNoSubscriptions)
	})

	t.Run("delivers without ledger entry", func(t *testing.T) {
		subs := newFakeSubs(sub(1, "u1", "https://push.example/a"))
		tr := newFakeTransport()
		ledger := new(mockLedger)

		report, err := newTestService(subs, tr, ledger).SendTest(context.Background(), "u1")

		require.NoError(t, err)
		assert.Equal(t, 1, report.Succeeded)
		ledger.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)

		var p Payload
		require.NoError(t, json.Unmarshal(tr.lastPayload(), &p))
		assert.Equal(t, TestTag, p.Tag)
		assert.Empty(t, p.Data.NotificationID)
	})
}
