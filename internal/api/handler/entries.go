package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pingdaily/ping-server/internal/api/respond"
	"github.com/pingdaily/ping-server/internal/cache"
	"github.com/pingdaily/ping-server/internal/store"
)

// TimeEntryRequest is the body of POST /api/time-entries. Either categoryId
// or a notification action may name the category.
type TimeEntryRequest struct {
	Hour           *int    `json:"hour"`
	Date           string  `json:"date"`
	CategoryID     string  `json:"categoryId"`
	CustomText     string  `json:"customText"`
	NotificationID *string `json:"notificationId"`
	Action         string  `json:"action"`
}

// TimeEntryUpdate is the body of PUT /api/time-entries/{id}.
type TimeEntryUpdate struct {
	CategoryID string `json:"categoryId"`
	CustomText string `json:"customText"`
}

// EntrySummary counts time entries per category.
type EntrySummary struct {
	Total      int             `json:"total"`
	ByCategory map[string]int  `json:"byCategory"`
	DateRange  store.DateRange `json:"dateRange"`
}

// EntryStatsPrefix is the cache key prefix of every cached time entry
// summary of a user.
func EntryStatsPrefix(userID string) string {
	return "timestats:" + userID + ":"
}

func (h *Handler) invalidateEntryStats(userID string) {
	h.cache.InvalidatePrefix(EntryStatsPrefix(userID))
}

func dateRange(r *http.Request) store.DateRange {
	q := r.URL.Query()
	return store.DateRange{Start: q.Get("startDate"), End: q.Get("endDate")}
}

// ListTimeEntries returns the caller's entries, optionally bounded by date.
// @Summary List time entries
// @Tags time-entries
// @Produce json
// @Security BearerAuth
// @Param startDate query string false "First day (YYYY-MM-DD)"
// @Param endDate query string false "Last day (YYYY-MM-DD)"
// @Success 200 {object} respond.DataResponse{data=[]store.TimeEntry}
// @Router /api/time-entries [get]
func (h *Handler) ListTimeEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := h.entries.List(r.Context(), userID(r), dateRange(r))
	if err != nil {
		h.writeStoreError(w, err, "")
		return
	}
	if entries == nil {
		entries = []store.TimeEntry{}
	}
	respond.WriteData(w, http.StatusOK, entries)
}

// ListTimeEntriesByDate returns the caller's entries for one day.
// @Summary List time entries for a day
// @Tags time-entries
// @Produce json
// @Security BearerAuth
// @Param date path string true "Day (YYYY-MM-DD)"
// @Success 200 {object} respond.DataResponse{data=[]store.TimeEntry}
// @Router /api/time-entries/date/{date} [get]
func (h *Handler) ListTimeEntriesByDate(w http.ResponseWriter, r *http.Request) {
	entries, err := h.entries.ListByDate(r.Context(), userID(r), chi.URLParam(r, "date"))
	if err != nil {
		h.writeStoreError(w, err, "")
		return
	}
	if entries == nil {
		entries = []store.TimeEntry{}
	}
	respond.WriteData(w, http.StatusOK, entries)
}

// UpsertTimeEntry creates or replaces the entry for one hourly slot. Returns
// 201 when the slot was empty and 200 when it was overwritten.
// @Summary Create or update a time entry
// @Tags time-entries
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body TimeEntryRequest true "Time entry"
// @Success 200 {object} respond.DataResponse{data=store.TimeEntry}
// @Success 201 {object} respond.DataResponse{data=store.TimeEntry}
// @Failure 400 {object} respond.ErrorResponse
// @Router /api/time-entries [post]
func (h *Handler) UpsertTimeEntry(w http.ResponseWriter, r *http.Request) {
	var req TimeEntryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Hour == nil || req.Date == "" {
		respond.WriteError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Hour and date are required")
		return
	}

	category, err := store.ParseCategory(req.CategoryID)
	if err != nil {
		h.writeStoreError(w, err, "")
		return
	}
	customText := req.CustomText
	if req.Action != "" {
		action, err := store.ResolveAction(req.Action)
		if err != nil {
			h.writeStoreError(w, err, "")
			return
		}
		c := action.Category
		category = &c
		if customText == "" {
			customText = action.Label
		}
	}

	uid := userID(r)
	entry, inserted, err := h.entries.Upsert(r.Context(), store.TimeEntry{
		UserID:         uid,
		Hour:           *req.Hour,
		Date:           req.Date,
		CategoryID:     category,
		CustomText:     customText,
		Timestamp:      h.now().UnixMilli(),
		NotificationID: req.NotificationID,
	})
	if err != nil {
		h.writeStoreError(w, err, "")
		return
	}
	h.invalidateEntryStats(uid)

	status := http.StatusOK
	if inserted {
		status = http.StatusCreated
	}
	respond.WriteData(w, status, entry)
}

// UpdateTimeEntry changes the category and text of an entry.
// @Summary Update a time entry
// @Tags time-entries
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Time entry ID"
// @Param body body TimeEntryUpdate true "New values"
// @Success 200 {object} respond.DataResponse{data=store.TimeEntry}
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Router /api/time-entries/{id} [put]
func (h *Handler) UpdateTimeEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := entryID(w, r)
	if !ok {
		return
	}
	var req TimeEntryUpdate
	if !decodeJSON(w, r, &req) {
		return
	}
	category, err := store.ParseCategory(req.CategoryID)
	if err != nil {
		h.writeStoreError(w, err, "")
		return
	}

	uid := userID(r)
	entry, err := h.entries.Update(r.Context(), uid, id, category, req.CustomText)
	if err != nil {
		h.writeStoreError(w, err, "Time entry not found")
		return
	}
	h.invalidateEntryStats(uid)
	respond.WriteData(w, http.StatusOK, entry)
}

// DeleteTimeEntry removes an entry.
// @Summary Delete a time entry
// @Tags time-entries
// @Produce json
// @Security BearerAuth
// @Param id path int true "Time entry ID"
// @Success 200 {object} respond.DataResponse
// @Failure 404 {object} respond.ErrorResponse
// @Router /api/time-entries/{id} [delete]
func (h *Handler) DeleteTimeEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := entryID(w, r)
	if !ok {
		return
	}
	uid := userID(r)
	if err := h.entries.Delete(r.Context(), uid, id); err != nil {
		h.writeStoreError(w, err, "Time entry not found")
		return
	}
	h.invalidateEntryStats(uid)
	respond.WriteData(w, http.StatusOK, map[string]string{"message": "Time entry deleted"})
}

// TimeEntrySummary counts the caller's entries per category. Responses are
// cached per user and date range until the next write.
// @Summary Time entry statistics
// @Tags time-entries
// @Produce json
// @Security BearerAuth
// @Param startDate query string false "First day (YYYY-MM-DD)"
// @Param endDate query string false "Last day (YYYY-MM-DD)"
// @Success 200 {object} respond.DataResponse{data=EntrySummary}
// @Success 304 "Not modified"
// @Router /api/time-entries/stats/summary [get]
func (h *Handler) TimeEntrySummary(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	rng := dateRange(r)
	cacheKey := fmt.Sprintf("%s%s:%s", EntryStatsPrefix(uid), rng.Start, rng.End)
	ttl := cache.TTLStats

	if data, etag, ok := h.cache.Get(cacheKey); ok {
		if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
			respond.WriteNotModified(w, etag)
			return
		}
		respond.WriteJSON(w, data, etag, ttl, true)
		return
	}

	counts, total, err := h.entries.CountByCategory(r.Context(), uid, rng)
	if err != nil {
		h.writeStoreError(w, err, "")
		return
	}
	raw, err := respond.Envelope(EntrySummary{Total: total, ByCategory: counts, DateRange: rng})
	if err != nil {
		h.writeStoreError(w, err, "")
		return
	}

	etag := h.cache.Set(cacheKey, raw, ttl)
	respond.WriteJSON(w, raw, etag, ttl, false)
}

func entryID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_ID", "ID must be an integer")
		return 0, false
	}
	return id, true
}
