// Package listener provides a Postgres LISTEN/NOTIFY consumer that keeps the
// in-memory response caches of several API instances consistent. It holds a
// dedicated pgx connection (not from the pool) listening on the
// `time_entries_changed` channel, which a trigger on time_entries feeds with
// the id of the user whose entries changed.
package listener

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

// Channel is the notification channel written by the time_entries trigger.
const Channel = "time_entries_changed"

const (
	reconnectBackoff = 5 * time.Second
	maxReconnect     = 30 * time.Second
)

// conn is the part of a listening connection the loop uses.
type conn interface {
	Listen(ctx context.Context, channel string) error
	WaitForNotification(ctx context.Context) (string, error)
	Close(ctx context.Context) error
}

type pgxConn struct{ c *pgx.Conn }

func dial(ctx context.Context, dbURL string) (conn, error) {
	c, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		return nil, err
	}
	return &pgxConn{c: c}, nil
}

func (p *pgxConn) Listen(ctx context.Context, channel string) error {
	_, err := p.c.Exec(ctx, "LISTEN "+pgx.Identifier{channel}.Sanitize())
	return err
}

func (p *pgxConn) WaitForNotification(ctx context.Context) (string, error) {
	n, err := p.c.WaitForNotification(ctx)
	if err != nil {
		return "", err
	}
	return n.Payload, nil
}

func (p *pgxConn) Close(ctx context.Context) error { return p.c.Close(ctx) }

// Start opens a dedicated connection and listens on Channel, calling onChange
// with the user id of every notification. It reconnects automatically on
// connection loss. Blocks until ctx is cancelled. Intended to be called with
// `go`.
func Start(ctx context.Context, dbURL string, onChange func(userID string), logger *slog.Logger) {
	run(ctx, func(ctx context.Context) (conn, error) { return dial(ctx, dbURL) }, onChange, logger)
}

func run(ctx context.Context, connect func(context.Context) (conn, error), onChange func(string), logger *slog.Logger) {
	backoff := reconnectBackoff

	for {
		err := listenLoop(ctx, connect, onChange, logger)
		if ctx.Err() != nil {
			logger.Info("Cache listener stopped (context cancelled)")
			return
		}

		logger.Error("Cache listener disconnected, reconnecting...",
			"error", err, "backoff", backoff)

		select {
		case <-time.After(backoff):
			backoff = min(backoff*2, maxReconnect)
		case <-ctx.Done():
			return
		}
	}
}

// listenLoop runs a single listen session. Returns when the connection drops
// or the context is cancelled.
func listenLoop(ctx context.Context, connect func(context.Context) (conn, error), onChange func(string), logger *slog.Logger) error {
	c, err := connect(ctx)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer c.Close(context.Background())

	if err := c.Listen(ctx, Channel); err != nil {
		return fmt.Errorf("LISTEN %s: %w", Channel, err)
	}
	logger.Info("Cache listener connected", "channel", Channel)

	for {
		payload, err := c.WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait for notification: %w", err)
		}
		userID := strings.TrimSpace(payload)
		if userID == "" {
			continue
		}
		logger.Debug("Time entries changed", "user_id", userID)
		onChange(userID)
	}
}
