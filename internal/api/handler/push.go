package handler

import (
	"fmt"
	"net/http"

	"github.com/pingdaily/ping-server/internal/api/respond"
	"github.com/pingdaily/ping-server/internal/store"
)

// SubscribeRequest carries a browser PushSubscription.
type SubscribeRequest struct {
	Subscription struct {
		Endpoint string     `json:"endpoint"`
		Keys     store.Keys `json:"keys"`
	} `json:"subscription"`
}

// UnsubscribeRequest names the endpoint to remove.
type UnsubscribeRequest struct {
	Endpoint string `json:"endpoint"`
}

// VAPIDPublicKey returns the application server key browsers subscribe with.
// @Summary Get VAPID public key
// @Tags push
// @Produce json
// @Success 200 {object} respond.DataResponse
// @Failure 503 {object} respond.ErrorResponse
// @Router /api/push/vapid-public-key [get]
func (h *Handler) VAPIDPublicKey(w http.ResponseWriter, r *http.Request) {
	if h.vapidPublicKey == "" {
		respond.WriteError(w, http.StatusServiceUnavailable, "PUSH_NOT_CONFIGURED", "VAPID keys not configured")
		return
	}
	respond.WriteData(w, http.StatusOK, map[string]string{"publicKey": h.vapidPublicKey})
}

// Subscribe registers the caller's browser for push.
// @Summary Subscribe to push
// @Tags push
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body SubscribeRequest true "Push subscription"
// @Success 201 {object} respond.DataResponse{data=store.Subscription}
// @Failure 400 {object} respond.ErrorResponse
// @Router /api/push/subscribe [post]
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req SubscribeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	sub, err := h.push.Subscribe(r.Context(), userID(r),
		req.Subscription.Endpoint, req.Subscription.Keys, r.UserAgent())
	if err != nil {
		h.writeStoreError(w, err, "")
		return
	}
	respond.WriteMessage(w, http.StatusCreated, "Push subscription saved successfully", sub)
}

// Unsubscribe removes a push endpoint. Unknown endpoints succeed.
// @Summary Unsubscribe from push
// @Tags push
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body UnsubscribeRequest true "Endpoint"
// @Success 200 {object} respond.DataResponse
// @Failure 400 {object} respond.ErrorResponse
// @Router /api/push/unsubscribe [post]
func (h *Handler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	var req UnsubscribeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.push.Unsubscribe(r.Context(), req.Endpoint); err != nil {
		h.writeStoreError(w, err, "")
		return
	}
	respond.WriteMessage(w, http.StatusOK, "Push subscription removed successfully", nil)
}

// ListSubscriptions returns the caller's registered devices.
// @Summary List push subscriptions
// @Tags push
// @Produce json
// @Security BearerAuth
// @Success 200 {object} respond.DataResponse{data=[]store.Subscription}
// @Router /api/push/subscriptions [get]
func (h *Handler) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := h.push.Subscriptions(r.Context(), userID(r))
	if err != nil {
		h.writeStoreError(w, err, "")
		return
	}
	if subs == nil {
		subs = []store.Subscription{}
	}
	respond.WriteData(w, http.StatusOK, subs)
}

// TestPush sends a test notification to every device of the caller.
// @Summary Send test push
// @Tags push
// @Produce json
// @Security BearerAuth
// @Success 200 {object} respond.DataResponse{data=notifications.Report}
// @Failure 404 {object} respond.ErrorResponse
// @Failure 503 {object} respond.ErrorResponse
// @Router /api/push/test-push [post]
func (h *Handler) TestPush(w http.ResponseWriter, r *http.Request) {
	report, err := h.push.SendTest(r.Context(), userID(r))
	if err != nil {
		h.writeStoreError(w, err, "")
		return
	}
	respond.WriteMessage(w, http.StatusOK,
		fmt.Sprintf("Sent %d notifications, %d failed", report.Succeeded, report.Failed), report)
}

// TriggerPing runs the fire procedure for the caller right now.
// @Summary Trigger a ping
// @Tags push
// @Produce json
// @Security BearerAuth
// @Success 200 {object} respond.DataResponse{data=notifications.Report}
// @Failure 503 {object} respond.ErrorResponse
// @Router /api/push/trigger [post]
func (h *Handler) TriggerPing(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	interval := 0
	if st, err := h.settings.GetOrCreate(r.Context(), uid); err == nil {
		interval = st.Interval
	}
	report, err := h.push.SendPing(r.Context(), uid, interval, store.SourceManual)
	if err != nil {
		h.writeStoreError(w, err, "")
		return
	}
	respond.WriteData(w, http.StatusOK, report)
}
