package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pingdaily/ping-server/internal/api/respond"
	"github.com/pingdaily/ping-server/internal/store"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// CreateNotificationRequest is the body of POST /api/notifications.
type CreateNotificationRequest struct {
	Message      string         `json:"message"`
	Category     string         `json:"category"`
	ScheduledFor *time.Time     `json:"scheduledFor"`
	Metadata     store.Metadata `json:"metadata"`
}

// LoggedRequest is the body of PATCH /api/notifications/{id}/logged.
type LoggedRequest struct {
	Category   string `json:"category"`
	CustomText string `json:"customText"`
}

// ActionRequest is the body of POST /api/notifications/{id}/action.
type ActionRequest struct {
	Action string `json:"action"`
}

// ListNotifications returns a page of the caller's ledger, newest first.
// @Summary List notifications
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size (default 50)"
// @Param skip query int false "Entries to skip"
// @Param unreadOnly query bool false "Only unread entries"
// @Success 200 {object} respond.DataResponse{data=[]store.Notification}
// @Router /api/notifications [get]
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := queryInt(q.Get("limit"), defaultPageSize)
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	skip := queryInt(q.Get("skip"), 0)
	if skip < 0 {
		skip = 0
	}

	items, total, err := h.ledger.List(r.Context(), userID(r), store.ListFilter{
		Limit:      limit,
		Skip:       skip,
		UnreadOnly: q.Get("unreadOnly") == "true",
	})
	if err != nil {
		h.writeStoreError(w, err, "Notifications not found")
		return
	}
	respond.WritePage(w, items, total, limit, skip)
}

// CreateNotification appends an entry to the caller's ledger.
// @Summary Create notification
// @Tags notifications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateNotificationRequest true "Notification"
// @Success 201 {object} respond.DataResponse{data=store.Notification}
// @Failure 400 {object} respond.ErrorResponse
// @Router /api/notifications [post]
func (h *Handler) CreateNotification(w http.ResponseWriter, r *http.Request) {
	var req CreateNotificationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Message == "" {
		respond.WriteError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Message is required")
		return
	}
	category, err := store.ParseCategory(req.Category)
	if err != nil {
		h.writeStoreError(w, err, "")
		return
	}
	meta := req.Metadata
	if meta.Source == "" {
		meta.Source = store.SourceAPI
	}

	n, err := h.ledger.Create(r.Context(), store.Notification{
		UserID:       userID(r),
		Message:      req.Message,
		Category:     category,
		Timestamp:    h.now(),
		ScheduledFor: req.ScheduledFor,
		Metadata:     meta,
	})
	if err != nil {
		h.writeStoreError(w, err, "")
		return
	}
	respond.WriteData(w, http.StatusCreated, n)
}

// GetNotification returns one ledger entry.
// @Summary Get notification
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Notification ID"
// @Success 200 {object} respond.DataResponse{data=store.Notification}
// @Failure 404 {object} respond.ErrorResponse
// @Router /api/notifications/{id} [get]
func (h *Handler) GetNotification(w http.ResponseWriter, r *http.Request) {
	n, err := h.ledger.Get(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		h.writeStoreError(w, err, "Notification not found")
		return
	}
	respond.WriteData(w, http.StatusOK, n)
}

// MarkNotificationRead flags one entry as read.
// @Summary Mark notification read
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Notification ID"
// @Success 200 {object} respond.DataResponse{data=store.Notification}
// @Failure 404 {object} respond.ErrorResponse
// @Router /api/notifications/{id}/read [patch]
func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	n, err := h.ledger.MarkRead(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		h.writeStoreError(w, err, "Notification not found")
		return
	}
	respond.WriteData(w, http.StatusOK, n)
}

// MarkNotificationLogged records the activity the user logged for a ping.
// @Summary Mark notification logged
// @Tags notifications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Notification ID"
// @Param body body LoggedRequest true "Logged activity"
// @Success 200 {object} respond.DataResponse{data=store.Notification}
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Router /api/notifications/{id}/logged [patch]
func (h *Handler) MarkNotificationLogged(w http.ResponseWriter, r *http.Request) {
	var req LoggedRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	category, err := store.ParseCategory(req.Category)
	if err != nil {
		h.writeStoreError(w, err, "")
		return
	}
	n, err := h.ledger.MarkLogged(r.Context(), userID(r), chi.URLParam(r, "id"), category, req.CustomText, "")
	if err != nil {
		h.writeStoreError(w, err, "Notification not found")
		return
	}
	respond.WriteData(w, http.StatusOK, n)
}

// LogNotificationAction handles a quick-reply tap on a ping: the action is
// mapped to a category, the time entry for the ping's hour is written and the
// ping is marked logged.
// @Summary Log notification action
// @Tags notifications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Notification ID"
// @Param body body ActionRequest true "Action (working, meeting, break)"
// @Success 200 {object} respond.DataResponse
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Router /api/notifications/{id}/action [post]
func (h *Handler) LogNotificationAction(w http.ResponseWriter, r *http.Request) {
	var req ActionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	action, err := store.ResolveAction(req.Action)
	if err != nil {
		h.writeStoreError(w, err, "")
		return
	}

	ctx := r.Context()
	uid := userID(r)
	n, err := h.ledger.Get(ctx, uid, chi.URLParam(r, "id"))
	if err != nil {
		h.writeStoreError(w, err, "Notification not found")
		return
	}

	slot := n.Timestamp.In(h.loc)
	category := action.Category
	notificationID := n.ID
	entry, _, err := h.entries.Upsert(ctx, store.TimeEntry{
		UserID:         uid,
		Hour:           slot.Hour(),
		Date:           slot.Format(store.DateLayout),
		CategoryID:     &category,
		CustomText:     action.Label,
		Timestamp:      h.now().UnixMilli(),
		NotificationID: &notificationID,
	})
	if err != nil {
		h.writeStoreError(w, err, "")
		return
	}
	h.invalidateEntryStats(uid)

	logged, err := h.ledger.MarkLogged(ctx, uid, n.ID, &category, action.Label, req.Action)
	if err != nil {
		h.writeStoreError(w, err, "Notification not found")
		return
	}
	respond.WriteData(w, http.StatusOK, map[string]interface{}{
		"notification": logged,
		"timeEntry":    entry,
	})
}

// MarkAllNotificationsRead flags every unread entry of the caller as read.
// @Summary Mark all notifications read
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} respond.DataResponse
// @Router /api/notifications/mark-all-read [post]
func (h *Handler) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	n, err := h.ledger.MarkAllRead(r.Context(), userID(r))
	if err != nil {
		h.writeStoreError(w, err, "")
		return
	}
	respond.WriteData(w, http.StatusOK, map[string]int64{"modifiedCount": n})
}

// DeleteNotification removes one ledger entry.
// @Summary Delete notification
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Notification ID"
// @Success 200 {object} respond.DataResponse
// @Failure 404 {object} respond.ErrorResponse
// @Router /api/notifications/{id} [delete]
func (h *Handler) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	if err := h.ledger.Delete(r.Context(), userID(r), chi.URLParam(r, "id")); err != nil {
		h.writeStoreError(w, err, "Notification not found")
		return
	}
	respond.WriteData(w, http.StatusOK, map[string]string{"message": "Notification deleted"})
}

// NotificationSummary returns the caller's ledger counters.
// @Summary Notification statistics
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} respond.DataResponse{data=store.LedgerSummary}
// @Router /api/notifications/stats/summary [get]
func (h *Handler) NotificationSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.ledger.Summary(r.Context(), userID(r))
	if err != nil {
		h.writeStoreError(w, err, "")
		return
	}
	respond.WriteData(w, http.StatusOK, sum)
}

func queryInt(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}
