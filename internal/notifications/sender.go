package notifications

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/sony/gobreaker"

	"github.com/pingdaily/ping-server/internal/store"
)

// Target is a single push endpoint with the client keys used to encrypt the
// payload for it.
type Target struct {
	Endpoint string
	Keys     store.Keys
}

// Transport delivers one encrypted payload to one endpoint. An error that
// wraps ErrGone means the endpoint is permanently invalid.
type Transport interface {
	Send(ctx context.Context, target Target, payload []byte) error
}

// StatusError is a non-2xx answer from a push service.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("push service returned %d", e.StatusCode)
	}
	return fmt.Sprintf("push service returned %d: %s", e.StatusCode, e.Body)
}

// Unwrap exposes ErrGone for 404 and 410 so callers can use errors.Is.
func (e *StatusError) Unwrap() error {
	if e.StatusCode == http.StatusNotFound || e.StatusCode == http.StatusGone {
		return ErrGone
	}
	return nil
}

// WebPushConfig holds the VAPID identity and delivery options.
type WebPushConfig struct {
	PublicKey  string
	PrivateKey string
	Subject    string
	TTL        int
	HTTPClient webpush.HTTPClient
}

// WebPushSender sends VAPID-signed, encrypted Web Push messages. Each push
// service host gets its own circuit breaker so one failing provider does not
// slow delivery to the others.
type WebPushSender struct {
	publicKey  string
	privateKey string
	subscriber string
	ttl        int
	client     webpush.HTTPClient
	logger     *slog.Logger

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// NewWebPushSender returns ErrPushNotConfigured when either VAPID key is
// missing.
func NewWebPushSender(cfg WebPushConfig, logger *slog.Logger) (*WebPushSender, error) {
	if cfg.PublicKey == "" || cfg.PrivateKey == "" {
		return nil, ErrPushNotConfigured
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 3600
	}
	return &WebPushSender{
		publicKey:  cfg.PublicKey,
		privateKey: cfg.PrivateKey,
		// webpush-go adds the mailto: scheme itself.
		subscriber: strings.TrimPrefix(cfg.Subject, "mailto:"),
		ttl:        ttl,
		client:     client,
		logger:     logger,
		breakers:   make(map[string]*gobreaker.CircuitBreaker),
	}, nil
}

// PublicKey is the VAPID application server key handed to browsers.
func (s *WebPushSender) PublicKey() string {
	return s.publicKey
}

// Send delivers payload to target through the breaker of the target's host.
func (s *WebPushSender) Send(ctx context.Context, target Target, payload []byte) error {
	cb := s.breaker(endpointHost(target.Endpoint))
	_, err := cb.Execute(func() (interface{}, error) {
		return nil, s.send(ctx, target, payload)
	})
	return err
}

func (s *WebPushSender) send(ctx context.Context, target Target, payload []byte) error {
	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: target.Endpoint,
		Keys: webpush.Keys{
			P256dh: target.Keys.P256dh,
			Auth:   target.Keys.Auth,
		},
	}, &webpush.Options{
		HTTPClient:      s.client,
		Subscriber:      s.subscriber,
		TTL:             s.ttl,
		Urgency:         webpush.UrgencyNormal,
		VAPIDPublicKey:  s.publicKey,
		VAPIDPrivateKey: s.privateKey,
	})
	if err != nil {
		return fmt.Errorf("web push: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}

func (s *WebPushSender) breaker(host string) *gobreaker.CircuitBreaker {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cb, ok := s.breakers[host]; ok {
		return cb
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        host,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// A gone endpoint is a healthy push service answering correctly.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrGone)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			s.logger.Warn("push breaker state change", "host", name, "from", from.String(), "to", to.String())
		},
	})
	s.breakers[host] = cb
	return cb
}

func endpointHost(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return endpoint
	}
	return u.Host
}

// GenerateVAPIDKeys returns a new base64url-encoded VAPID key pair.
func GenerateVAPIDKeys() (publicKey, privateKey string, err error) {
	privateKey, publicKey, err = webpush.GenerateVAPIDKeys()
	if err != nil {
		return "", "", fmt.Errorf("generate vapid keys: %w", err)
	}
	return publicKey, privateKey, nil
}
