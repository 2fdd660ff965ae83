package notifications

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/pingdaily/ping-server/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --------------------------------------------------------------------------
// Subscription store
// --------------------------------------------------------------------------

type fakeSubs struct {
	mu      sync.Mutex
	nextID  int64
	rows    map[int64]store.Subscription
	touched map[int64]time.Time
	deleted []int64
	findErr error
}

func newFakeSubs(subs ...store.Subscription) *fakeSubs {
	f := &fakeSubs{
		rows:    make(map[int64]store.Subscription),
		touched: make(map[int64]time.Time),
	}
	for _, s := range subs {
		if s.ID == 0 {
			f.nextID++
			s.ID = f.nextID
		} else if s.ID > f.nextID {
			f.nextID = s.ID
		}
		f.rows[s.ID] = s
	}
	return f
}

func (f *fakeSubs) FindByUser(_ context.Context, userID string) ([]store.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	var out []store.Subscription
	for _, s := range f.rows {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeSubs) UpsertByEndpoint(_ context.Context, sub store.Subscription) (*store.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, s := range f.rows {
		if s.Endpoint == sub.Endpoint {
			sub.ID = id
			sub.CreatedAt = s.CreatedAt
			f.rows[id] = sub
			return &sub, nil
		}
	}
	f.nextID++
	sub.ID = f.nextID
	sub.CreatedAt = time.Now()
	f.rows[sub.ID] = sub
	return &sub, nil
}

func (f *fakeSubs) DeleteByEndpoint(_ context.Context, endpoint string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, s := range f.rows {
		if s.Endpoint == endpoint {
			delete(f.rows, id)
		}
	}
	return nil
}

func (f *fakeSubs) DeleteByID(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeSubs) TouchLastUsed(_ context.Context, id int64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.rows[id]
	if !ok {
		return store.ErrNotFound
	}
	s.LastUsed = at
	f.rows[id] = s
	f.touched[id] = at
	return nil
}

func (f *fakeSubs) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

func (f *fakeSubs) has(id int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.rows[id]
	return ok
}

func (f *fakeSubs) wasTouched(id int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.touched[id]
	return ok
}

// --------------------------------------------------------------------------
// Transport
// --------------------------------------------------------------------------

type fakeTransport struct {
	mu       sync.Mutex
	results  map[string]error
	hang     map[string]bool
	release  chan struct{}
	payloads [][]byte
	targets  []Target

	inflight    int
	maxInflight int
	delay       time.Duration
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		results: make(map[string]error),
		hang:    make(map[string]bool),
		release: make(chan struct{}),
	}
}

func (t *fakeTransport) Send(_ context.Context, target Target, payload []byte) error {
	t.mu.Lock()
	t.targets = append(t.targets, target)
	t.payloads = append(t.payloads, payload)
	t.inflight++
	if t.inflight > t.maxInflight {
		t.maxInflight = t.inflight
	}
	hang := t.hang[target.Endpoint]
	err := t.results[target.Endpoint]
	delay := t.delay
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		t.inflight--
		t.mu.Unlock()
	}()

	// Ignores ctx on purpose: a stuck push service must not stall a batch.
	if hang {
		<-t.release
	}
	if delay > 0 {
		time.Sleep(delay)
	}
	return err
}

func (t *fakeTransport) sends() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.targets)
}

func (t *fakeTransport) lastPayload() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.payloads) == 0 {
		return nil
	}
	return t.payloads[len(t.payloads)-1]
}

// --------------------------------------------------------------------------
// Ledger
// --------------------------------------------------------------------------

type mockLedger struct {
	mock.Mock
}

func (m *mockLedger) Create(ctx context.Context, n store.Notification) (*store.Notification, error) {
	args := m.Called(ctx, n)
	if v := args.Get(0); v != nil {
		return v.(*store.Notification), args.Error(1)
	}
	return nil, args.Error(1)
}
