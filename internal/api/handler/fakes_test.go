package handler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/pingdaily/ping-server/internal/auth"
	"github.com/pingdaily/ping-server/internal/cache"
	"github.com/pingdaily/ping-server/internal/notifications"
	"github.com/pingdaily/ping-server/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --------------------------------------------------------------------------
// Settings
// --------------------------------------------------------------------------

type memSettings struct {
	mu   sync.Mutex
	rows map[string]store.Settings
}

func newMemSettings() *memSettings {
	return &memSettings{rows: make(map[string]store.Settings)}
}

func (m *memSettings) GetOrCreate(_ context.Context, userID string) (*store.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.rows[userID]
	if !ok {
		st = store.DefaultSettings(userID)
		m.rows[userID] = st
	}
	return &st, nil
}

func (m *memSettings) Upsert(_ context.Context, st store.Settings) (*store.Settings, error) {
	if err := st.Validate(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if st.LastPingTime == nil {
		st.LastPingTime = m.rows[st.UserID].LastPingTime
	}
	m.rows[st.UserID] = st
	return &st, nil
}

// --------------------------------------------------------------------------
// Ledger
// --------------------------------------------------------------------------

type memLedger struct {
	mu   sync.Mutex
	seq  int
	rows map[string]store.Notification
}

func newMemLedger() *memLedger {
	return &memLedger{rows: make(map[string]store.Notification)}
}

func (m *memLedger) Create(_ context.Context, n store.Notification) (*store.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	if n.ID == "" {
		n.ID = fmt.Sprintf("n-%d", m.seq)
	}
	m.rows[n.ID] = n
	return &n, nil
}

func (m *memLedger) Get(_ context.Context, userID, id string) (*store.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.rows[id]
	if !ok || n.UserID != userID {
		return nil, store.ErrNotFound
	}
	return &n, nil
}

func (m *memLedger) List(_ context.Context, userID string, f store.ListFilter) ([]store.Notification, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []store.Notification
	for _, n := range m.rows {
		if n.UserID == userID && (!f.UnreadOnly || !n.Read) {
			all = append(all, n)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Timestamp.After(all[j].Timestamp) })
	total := len(all)
	if f.Skip >= total {
		return []store.Notification{}, total, nil
	}
	end := min(f.Skip+f.Limit, total)
	return all[f.Skip:end], total, nil
}

func (m *memLedger) MarkRead(_ context.Context, userID, id string) (*store.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.rows[id]
	if !ok || n.UserID != userID {
		return nil, store.ErrNotFound
	}
	n.Read = true
	m.rows[id] = n
	return &n, nil
}

func (m *memLedger) MarkLogged(_ context.Context, userID, id string, category *store.Category, customText, action string) (*store.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.rows[id]
	if !ok || n.UserID != userID {
		return nil, store.ErrNotFound
	}
	n.Read = true
	n.ActivityLogged = true
	n.Category = category
	n.Metadata.LoggedCategory = category
	n.Metadata.CustomText = customText
	n.Metadata.Action = action
	m.rows[id] = n
	return &n, nil
}

func (m *memLedger) MarkAllRead(_ context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var changed int64
	for id, n := range m.rows {
		if n.UserID == userID && !n.Read {
			n.Read = true
			m.rows[id] = n
			changed++
		}
	}
	return changed, nil
}

func (m *memLedger) Delete(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.rows[id]
	if !ok || n.UserID != userID {
		return store.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memLedger) Summary(_ context.Context, userID string) (store.LedgerSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var s store.LedgerSummary
	for _, n := range m.rows {
		if n.UserID != userID {
			continue
		}
		s.Total++
		if !n.Read {
			s.Unread++
		}
		if n.ActivityLogged {
			s.Logged++
		}
	}
	s.ResponseRate = store.ResponseRate(s.Logged, s.Total)
	return s, nil
}

// --------------------------------------------------------------------------
// Time entries
// --------------------------------------------------------------------------

type memEntries struct {
	mu     sync.Mutex
	seq    int64
	rows   map[int64]store.TimeEntry
	counts int
}

func newMemEntries() *memEntries {
	return &memEntries{rows: make(map[int64]store.TimeEntry)}
}

func (m *memEntries) Upsert(_ context.Context, e store.TimeEntry) (*store.TimeEntry, bool, error) {
	if err := e.Validate(); err != nil {
		return nil, false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, old := range m.rows {
		if old.UserID == e.UserID && old.Date == e.Date && old.Hour == e.Hour {
			e.ID = id
			m.rows[id] = e
			return &e, false, nil
		}
	}
	m.seq++
	e.ID = m.seq
	m.rows[e.ID] = e
	return &e, true, nil
}

func (m *memEntries) inRange(e store.TimeEntry, userID string, r store.DateRange) bool {
	return e.UserID == userID &&
		(r.Start == "" || e.Date >= r.Start) &&
		(r.End == "" || e.Date <= r.End)
}

func (m *memEntries) List(_ context.Context, userID string, r store.DateRange) ([]store.TimeEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []store.TimeEntry
	for _, e := range m.rows {
		if m.inRange(e, userID, r) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].Hour < out[j].Hour
	})
	return out, nil
}

func (m *memEntries) ListByDate(ctx context.Context, userID, date string) ([]store.TimeEntry, error) {
	return m.List(ctx, userID, store.DateRange{Start: date, End: date})
}

func (m *memEntries) Update(_ context.Context, userID string, id int64, category *store.Category, customText string) (*store.TimeEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.rows[id]
	if !ok || e.UserID != userID {
		return nil, store.ErrNotFound
	}
	e.CategoryID = category
	e.CustomText = customText
	m.rows[id] = e
	return &e, nil
}

func (m *memEntries) Delete(_ context.Context, userID string, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.rows[id]
	if !ok || e.UserID != userID {
		return store.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memEntries) CountByCategory(_ context.Context, userID string, r store.DateRange) (map[string]int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts++
	counts := make(map[string]int)
	total := 0
	for _, e := range m.rows {
		if !m.inRange(e, userID, r) {
			continue
		}
		key := store.UnassignedKey
		if e.CategoryID != nil {
			key = string(*e.CategoryID)
		}
		counts[key]++
		total++
	}
	return counts, total, nil
}

// --------------------------------------------------------------------------
// Subscriptions (backs a real notifications.Service)
// --------------------------------------------------------------------------

type memSubs struct {
	mu   sync.Mutex
	seq  int64
	rows map[int64]store.Subscription
}

func newMemSubs() *memSubs {
	return &memSubs{rows: make(map[int64]store.Subscription)}
}

func (m *memSubs) FindByUser(_ context.Context, userID string) ([]store.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []store.Subscription
	for _, s := range m.rows {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memSubs) UpsertByEndpoint(_ context.Context, sub store.Subscription) (*store.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.rows {
		if s.Endpoint == sub.Endpoint {
			sub.ID = id
			m.rows[id] = sub
			return &sub, nil
		}
	}
	m.seq++
	sub.ID = m.seq
	m.rows[sub.ID] = sub
	return &sub, nil
}

func (m *memSubs) DeleteByEndpoint(_ context.Context, endpoint string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.rows {
		if s.Endpoint == endpoint {
			delete(m.rows, id)
		}
	}
	return nil
}

func (m *memSubs) DeleteByID(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, id)
	return nil
}

func (m *memSubs) TouchLastUsed(_ context.Context, id int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.rows[id]
	if !ok {
		return store.ErrNotFound
	}
	s.LastUsed = at
	m.rows[id] = s
	return nil
}

type okTransport struct{}

func (okTransport) Send(context.Context, notifications.Target, []byte) error { return nil }

// --------------------------------------------------------------------------
// Harness
// --------------------------------------------------------------------------

const testUser = "user-1"

type harness struct {
	settings *memSettings
	ledger   *memLedger
	entries  *memEntries
	subs     *memSubs
	handler  *Handler
	router   chi.Router
}

// newHarness wires a Handler over in-memory stores. With push=true the push
// service delivers through a transport that always succeeds.
func newHarness(t *testing.T, push bool) *harness {
	t.Helper()
	h := &harness{
		settings: newMemSettings(),
		ledger:   newMemLedger(),
		entries:  newMemEntries(),
		subs:     newMemSubs(),
	}

	var dispatcher *notifications.Dispatcher
	if push {
		dispatcher = notifications.NewDispatcher(h.subs, okTransport{}, 2, time.Second, testLogger())
	}
	svc := notifications.NewService(h.subs, h.ledger, dispatcher, testLogger())

	c := cache.New(true)
	t.Cleanup(c.Close)

	h.handler = New(Deps{
		Settings:       h.settings,
		Ledger:         h.ledger,
		Entries:        h.entries,
		Push:           svc,
		Cache:          c,
		VAPIDPublicKey: "BPubKey",
		Location:       time.UTC,
		Logger:         testLogger(),
	})
	h.handler.now = func() time.Time { return time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC) }

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(auth.WithUserID(req.Context(), testUser)))
		})
	})
	hd := h.handler
	r.Get("/api/health", hd.HealthCheck)
	r.Get("/api/notifications/settings", hd.GetSettings)
	r.Put("/api/notifications/settings", hd.UpdateSettings)
	r.Get("/api/notifications", hd.ListNotifications)
	r.Post("/api/notifications", hd.CreateNotification)
	r.Post("/api/notifications/mark-all-read", hd.MarkAllNotificationsRead)
	r.Get("/api/notifications/stats/summary", hd.NotificationSummary)
	r.Get("/api/notifications/{id}", hd.GetNotification)
	r.Delete("/api/notifications/{id}", hd.DeleteNotification)
	r.Patch("/api/notifications/{id}/read", hd.MarkNotificationRead)
	r.Patch("/api/notifications/{id}/logged", hd.MarkNotificationLogged)
	r.Post("/api/notifications/{id}/action", hd.LogNotificationAction)
	r.Get("/api/push/vapid-public-key", hd.VAPIDPublicKey)
	r.Post("/api/push/subscribe", hd.Subscribe)
	r.Post("/api/push/unsubscribe", hd.Unsubscribe)
	r.Get("/api/push/subscriptions", hd.ListSubscriptions)
	r.Post("/api/push/test-push", hd.TestPush)
	r.Post("/api/push/trigger", hd.TriggerPing)
	r.Get("/api/time-entries", hd.ListTimeEntries)
	r.Post("/api/time-entries", hd.UpsertTimeEntry)
	r.Get("/api/time-entries/date/{date}", hd.ListTimeEntriesByDate)
	r.Get("/api/time-entries/stats/summary", hd.TimeEntrySummary)
	r.Put("/api/time-entries/{id}", hd.UpdateTimeEntry)
	r.Delete("/api/time-entries/{id}", hd.DeleteTimeEntry)
	h.router = r
	return h
}

func (h *harness) do(t *testing.T, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	require.NotNil(t, rec)
	return rec
}
