// Package notifications delivers pings to a user's devices as Web Push
// messages.
//
// Pipeline: look up subscriptions → append a ledger entry → build the payload
// → fan out to every endpoint concurrently → touch delivered endpoints and
// prune the ones the push service reports as gone.
package notifications

import (
	"errors"
	"time"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	PingTitle   = "🔔 Ping! What are you doing?"
	PingBody    = "Tap to log your current activity"
	PingMessage = PingTitle
	PingTag     = "ping-notification"

	TestTitle = "🔔 Test Notification"
	TestBody  = "This is a test push notification!"
	TestTag   = "test-notification"

	iconPath  = "/icon-192.png"
	badgePath = "/badge-72.png"
	openURL   = "/"

	defaultFanout  = 8
	defaultTimeout = 10 * time.Second
)

// --------------------------------------------------------------------------
// Errors
// --------------------------------------------------------------------------

var (
	// ErrGone marks an endpoint the push service reports as permanently
	// invalid (HTTP 404/410). The subscription is deleted.
	ErrGone = errors.New("push subscription gone")

	ErrInvalidSubscription = errors.New("invalid subscription")
	ErrNoSubscriptions     = errors.New("no push subscriptions for user")
	ErrPushNotConfigured   = errors.New("push delivery not configured")
)

// --------------------------------------------------------------------------
// Payload
// --------------------------------------------------------------------------

// Payload is the JSON document a service worker receives. Its shape is a
// contract with deployed clients and must stay stable.
type Payload struct {
	Title              string      `json:"title"`
	Body               string      `json:"body"`
	Icon               string      `json:"icon"`
	Badge              string      `json:"badge"`
	Tag                string      `json:"tag"`
	RequireInteraction bool        `json:"requireInteraction"`
	Data               PayloadData `json:"data"`
}

// PayloadData lets the client correlate a tap with the ledger entry.
type PayloadData struct {
	URL            string `json:"url"`
	NotificationID string `json:"notificationId,omitempty"`
	Timestamp      int64  `json:"timestamp"`
}

// PingPayload builds the payload of a scheduled or manual ping. The fixed tag
// makes a newer unread ping replace an older one on the device.
func PingPayload(notificationID string, now time.Time) Payload {
	return Payload{
		Title:              PingTitle,
		Body:               PingBody,
		Icon:               iconPath,
		Badge:              badgePath,
		Tag:                PingTag,
		RequireInteraction: true,
		Data: PayloadData{
			URL:            openURL,
			NotificationID: notificationID,
			Timestamp:      now.UnixMilli(),
		},
	}
}

// TestPayload builds the payload of a test push; it is not recorded in the ledger.
func TestPayload(now time.Time) Payload {
	return Payload{
		Title: TestTitle,
		Body:  TestBody,
		Icon:  iconPath,
		Badge: badgePath,
		Tag:   TestTag,
		Data: PayloadData{
			URL:       openURL,
			Timestamp: now.UnixMilli(),
		},
	}
}

// --------------------------------------------------------------------------
// Results
// --------------------------------------------------------------------------

// Summary aggregates the outcomes of one fan-out. Gone endpoints count as
// failures and are also reported separately.
type Summary struct {
	Total     int `json:"total"`
	Succeeded int `json:"successful"`
	Failed    int `json:"failed"`
	Gone      int `json:"gone"`
}

// Report is the result of one fire procedure.
type Report struct {
	UserID         string `json:"userId"`
	NotificationID string `json:"notificationId,omitempty"`
	Summary
}
