package handler

import (
	"net/http"

	"github.com/pingdaily/ping-server/internal/api/respond"
)

// SettingsRequest is a partial settings update; omitted fields keep their
// current value.
type SettingsRequest struct {
	Enabled    *bool   `json:"enabled"`
	Interval   *int    `json:"interval"`
	StartTime  *string `json:"startTime"`
	EndTime    *string `json:"endTime"`
	DaysOfWeek *[]int  `json:"daysOfWeek"`
}

// GetSettings returns the caller's notification settings, creating the
// defaults on first read.
// @Summary Get notification settings
// @Tags settings
// @Produce json
// @Security BearerAuth
// @Success 200 {object} respond.DataResponse{data=store.Settings}
// @Router /api/notifications/settings [get]
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	st, err := h.settings.GetOrCreate(r.Context(), userID(r))
	if err != nil {
		h.writeStoreError(w, err, "Settings not found")
		return
	}
	respond.WriteData(w, http.StatusOK, st)
}

// UpdateSettings applies a settings update. Enabling notifications stamps
// lastPingTime with the current time so the current minute is not pinged.
// @Summary Update notification settings
// @Tags settings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body SettingsRequest true "Settings fields to change"
// @Success 200 {object} respond.DataResponse{data=store.Settings}
// @Failure 400 {object} respond.ErrorResponse
// @Router /api/notifications/settings [put]
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req SettingsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	uid := userID(r)
	current, err := h.settings.GetOrCreate(r.Context(), uid)
	if err != nil {
		h.writeStoreError(w, err, "Settings not found")
		return
	}

	next := *current
	if req.Enabled != nil {
		next.Enabled = *req.Enabled
	}
	if req.Interval != nil {
		next.Interval = *req.Interval
	}
	if req.StartTime != nil {
		next.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		next.EndTime = *req.EndTime
	}
	if req.DaysOfWeek != nil {
		next.DaysOfWeek = *req.DaysOfWeek
	}
	next.LastPingTime = nil
	if next.Enabled {
		now := h.now()
		next.LastPingTime = &now
	}

	saved, err := h.settings.Upsert(r.Context(), next)
	if err != nil {
		h.writeStoreError(w, err, "Settings not found")
		return
	}
	h.logger.Info("settings updated", "user_id", uid, "enabled", saved.Enabled, "interval", saved.Interval)
	respond.WriteData(w, http.StatusOK, saved)
}
