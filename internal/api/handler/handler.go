// Package handler provides HTTP handlers for all API endpoints.
// Handlers resolve the calling user from the request context, call a store or
// the push service, and wrap the result in the JSON envelope.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/pingdaily/ping-server/internal/api/respond"
	"github.com/pingdaily/ping-server/internal/auth"
	"github.com/pingdaily/ping-server/internal/cache"
	"github.com/pingdaily/ping-server/internal/notifications"
	"github.com/pingdaily/ping-server/internal/store"
)

// --------------------------------------------------------------------------
// Dependencies
// --------------------------------------------------------------------------

// SettingsStore reads and writes notification settings.
type SettingsStore interface {
	GetOrCreate(ctx context.Context, userID string) (*store.Settings, error)
	Upsert(ctx context.Context, st store.Settings) (*store.Settings, error)
}

// LedgerStore reads and updates the notification ledger.
type LedgerStore interface {
	Create(ctx context.Context, n store.Notification) (*store.Notification, error)
	Get(ctx context.Context, userID, id string) (*store.Notification, error)
	List(ctx context.Context, userID string, f store.ListFilter) ([]store.Notification, int, error)
	MarkRead(ctx context.Context, userID, id string) (*store.Notification, error)
	MarkLogged(ctx context.Context, userID, id string, category *store.Category, customText, action string) (*store.Notification, error)
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	Delete(ctx context.Context, userID, id string) error
	Summary(ctx context.Context, userID string) (store.LedgerSummary, error)
}

// TimeEntryStore reads and writes hourly time entries.
type TimeEntryStore interface {
	Upsert(ctx context.Context, e store.TimeEntry) (*store.TimeEntry, bool, error)
	List(ctx context.Context, userID string, r store.DateRange) ([]store.TimeEntry, error)
	ListByDate(ctx context.Context, userID, date string) ([]store.TimeEntry, error)
	Update(ctx context.Context, userID string, id int64, category *store.Category, customText string) (*store.TimeEntry, error)
	Delete(ctx context.Context, userID string, id int64) error
	CountByCategory(ctx context.Context, userID string, r store.DateRange) (map[string]int, int, error)
}

// PushService registers devices and sends pings. *notifications.Service
// satisfies it.
type PushService interface {
	Subscribe(ctx context.Context, userID, endpoint string, keys store.Keys, userAgent string) (*store.Subscription, error)
	Unsubscribe(ctx context.Context, endpoint string) error
	Subscriptions(ctx context.Context, userID string) ([]store.Subscription, error)
	SendPing(ctx context.Context, userID string, interval int, source string) (notifications.Report, error)
	SendTest(ctx context.Context, userID string) (notifications.Report, error)
	PushEnabled() bool
}

// HealthChecker verifies database connectivity.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps are the collaborators of a Handler. Location is the wall clock used to
// turn a ping's timestamp into a time-entry slot.
type Deps struct {
	Settings       SettingsStore
	Ledger         LedgerStore
	Entries        TimeEntryStore
	Push           PushService
	DB             HealthChecker
	Cache          *cache.Cache
	VAPIDPublicKey string
	Location       *time.Location
	Logger         *slog.Logger
}

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	settings       SettingsStore
	ledger         LedgerStore
	entries        TimeEntryStore
	push           PushService
	db             HealthChecker
	cache          *cache.Cache
	vapidPublicKey string
	loc            *time.Location
	logger         *slog.Logger
	now            func() time.Time
}

// New creates a Handler with shared dependencies.
func New(d Deps) *Handler {
	loc := d.Location
	if loc == nil {
		loc = time.Local
	}
	c := d.Cache
	if c == nil {
		c = cache.New(false)
	}
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		settings:       d.Settings,
		ledger:         d.Ledger,
		entries:        d.Entries,
		push:           d.Push,
		db:             d.DB,
		cache:          c,
		vapidPublicKey: d.VAPIDPublicKey,
		loc:            loc,
		logger:         logger,
		now:            time.Now,
	}
}

// --------------------------------------------------------------------------
// Meta
// --------------------------------------------------------------------------

// Root serves API info at /.
// @Summary API root info
// @Description Returns API name, version, status and docs location.
// @Tags meta
// @Produce json
// @Success 200 {object} respond.DataResponse
// @Router / [get]
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.WriteData(w, http.StatusOK, map[string]interface{}{
		"name":    "PingDaily API",
		"version": "1.0.0",
		"status":  "running",
		"docs":    "/docs",
		"push":    h.push != nil && h.push.PushEnabled(),
	})
}

// HealthCheck reports service and database health.
// @Summary Health check
// @Description Returns health status, timestamp and database connectivity.
// @Tags health
// @Produce json
// @Success 200 {object} respond.DataResponse
// @Failure 503 {object} respond.ErrorResponse
// @Router /api/health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ts := h.now().UTC().Format(time.RFC3339)
	if h.db != nil {
		if err := h.db.HealthCheck(r.Context()); err != nil {
			h.logger.Error("health check failed", "error", err)
			respond.WriteErrorDetail(w, http.StatusServiceUnavailable, "DB_UNAVAILABLE",
				"Database connection check failed", ts)
			return
		}
	}
	respond.WriteData(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": ts,
	})
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

// userID returns the caller resolved by the auth middleware.
func userID(r *http.Request) string {
	id, _ := auth.UserID(r.Context())
	return id
}

// decodeJSON reads a JSON request body into v, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_BODY", "Request body must be valid JSON")
		return false
	}
	return true
}

// writeStoreError maps store and push errors onto status codes.
func (h *Handler) writeStoreError(w http.ResponseWriter, err error, notFound string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		respond.WriteError(w, http.StatusNotFound, "NOT_FOUND", notFound)
	case errors.Is(err, store.ErrInvalidSettings),
		errors.Is(err, store.ErrInvalidEntry),
		errors.Is(err, store.ErrInvalidCategory),
		errors.Is(err, notifications.ErrInvalidSubscription):
		respond.WriteError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, notifications.ErrNoSubscriptions):
		respond.WriteError(w, http.StatusNotFound, "NO_SUBSCRIPTIONS", "No push subscriptions found for this user")
	case errors.Is(err, notifications.ErrPushNotConfigured):
		respond.WriteError(w, http.StatusServiceUnavailable, "PUSH_NOT_CONFIGURED", "Push notifications are not configured")
	default:
		h.logger.Error("request failed", "error", err)
		respond.WriteError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}
