package listener

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	listened  []string
	payloads  []string
	closed    bool
	listenErr error
}

func (f *fakeConn) Listen(_ context.Context, channel string) error {
	f.listened = append(f.listened, channel)
	return f.listenErr
}

func (f *fakeConn) WaitForNotification(context.Context) (string, error) {
	if len(f.payloads) == 0 {
		return "", io.EOF
	}
	p := f.payloads[0]
	f.payloads = f.payloads[1:]
	return p, nil
}

func (f *fakeConn) Close(context.Context) error {
	f.closed = true
	return nil
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestListenLoop_DeliversUserIDs(t *testing.T) {
	fc := &fakeConn{payloads: []string{"alice", " bob ", "", "alice"}}
	var got []string

	err := listenLoop(context.Background(),
		func(context.Context) (conn, error) { return fc, nil },
		func(uid string) { got = append(got, uid) },
		discard())

	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, []string{Channel}, fc.listened)
	assert.Equal(t, []string{"alice", "bob", "alice"}, got)
	assert.True(t, fc.closed)
}

func TestListenLoop_ListenFailure(t *testing.T) {
	fc := &fakeConn{listenErr: errors.New("permission denied")}
	err := listenLoop(context.Background(),
		func(context.Context) (conn, error) { return fc, nil },
		func(string) { t.Fatal("unexpected notification") },
		discard())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "LISTEN "+Channel)
	assert.True(t, fc.closed)
}

func TestRun_StopsOnCancelDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := make(chan struct{}, 1)

	done := make(chan struct{})
	go func() {
		run(ctx, func(context.Context) (conn, error) {
			attempts <- struct{}{}
			return nil, errors.New("connection refused")
		}, func(string) {}, discard())
		close(done)
	}()

	<-attempts
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("run did not return after cancel")
	}
}
