// Command pingctl is the PingDaily operations CLI.
//
// Usage:
//
//	pingctl migrate
//	pingctl vapid generate
//	pingctl token issue --user alice --ttl 720h
//	pingctl ping trigger --user alice
//	pingctl ping test --user alice
//	pingctl scheduler tick --at 2024-01-15T10:00:00+01:00
//	pingctl cleanup --ledger-retention 2160h
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/pingdaily/ping-server/internal/auth"
	"github.com/pingdaily/ping-server/internal/config"
	"github.com/pingdaily/ping-server/internal/db"
	"github.com/pingdaily/ping-server/internal/maintenance"
	"github.com/pingdaily/ping-server/internal/notifications"
	"github.com/pingdaily/ping-server/internal/scheduler"
	"github.com/pingdaily/ping-server/internal/store"
)

var logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:          "pingctl",
		Short:        "PingDaily operations CLI",
		SilenceUsage: true,
	}

	root.AddCommand(migrateCmd())
	root.AddCommand(vapidCmd())
	root.AddCommand(tokenCmd())
	root.AddCommand(pingCmd())
	root.AddCommand(schedulerCmd())
	root.AddCommand(cleanupCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// migrate command
// --------------------------------------------------------------------------

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := db.Migrate(ctx, cfg.DatabaseURL); err != nil {
				return err
			}
			logger.Info("Migrations applied")
			return nil
		},
	}
}

// --------------------------------------------------------------------------
// vapid command
// --------------------------------------------------------------------------

func vapidCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vapid",
		Short: "Manage VAPID keys",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "generate",
		Short: "Generate a VAPID key pair as environment lines",
		RunE: func(cmd *cobra.Command, args []string) error {
			public, private, err := notifications.GenerateVAPIDKeys()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "VAPID_PUBLIC_KEY=%s\n", public)
			fmt.Fprintf(out, "VAPID_PRIVATE_KEY=%s\n", private)
			return nil
		},
	})
	return cmd
}

// --------------------------------------------------------------------------
// token command
// --------------------------------------------------------------------------

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage API tokens",
	}

	var (
		userID string
		ttl    time.Duration
		secret string
	)
	issue := &cobra.Command{
		Use:   "issue",
		Short: "Issue a bearer token for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				secret = os.Getenv("JWT_SECRET")
			}
			if secret == "" {
				return errors.New("JWT_SECRET is required (or pass --secret)")
			}
			token, err := auth.NewTokens(secret).Issue(userID, ttl, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	issue.Flags().StringVar(&userID, "user", "", "User ID to embed in the token")
	issue.Flags().DurationVar(&ttl, "ttl", 720*time.Hour, "Token lifetime")
	issue.Flags().StringVar(&secret, "secret", "", "Signing secret (defaults to JWT_SECRET)")
	issue.MarkFlagRequired("user")
	cmd.AddCommand(issue)
	return cmd
}

// --------------------------------------------------------------------------
// ping command
// --------------------------------------------------------------------------

func pingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Send pings outside the scheduler",
	}
	cmd.AddCommand(pingTriggerCmd())
	cmd.AddCommand(pingTestCmd())
	return cmd
}

func pingTriggerCmd() *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "trigger",
		Short: "Record and send a ping to every device of a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithPush(func(ctx context.Context, rt *app) error {
				interval := 0
				if st, err := rt.settings.GetOrCreate(ctx, userID); err == nil {
					interval = st.Interval
				}
				report, err := rt.push.SendPing(ctx, userID, interval, store.SourceManual)
				if err != nil {
					return err
				}
				return printJSON(cmd, report)
			})
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "User ID")
	cmd.MarkFlagRequired("user")
	return cmd
}

func pingTestCmd() *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Send a test notification without recording it",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithPush(func(ctx context.Context, rt *app) error {
				report, err := rt.push.SendTest(ctx, userID)
				if err != nil {
					return err
				}
				return printJSON(cmd, report)
			})
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "User ID")
	cmd.MarkFlagRequired("user")
	return cmd
}

// --------------------------------------------------------------------------
// scheduler command
// --------------------------------------------------------------------------

func schedulerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scheduler",
		Short: "Run the scheduler by hand",
	}

	var at string
	tick := &cobra.Command{
		Use:   "tick",
		Short: "Evaluate every enabled user once and fire the due ones",
		Long: "Runs a single scheduler tick. Without --at the current minute is used. " +
			"The Redis tick lease is not taken, so a running server may fire the same minute.",
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now()
			if at != "" {
				t, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("parse --at: %w", err)
				}
				now = t
			}
			return runWithPush(func(ctx context.Context, rt *app) error {
				sched := scheduler.New(rt.settings, rt.push, logger, scheduler.Options{
					Location: rt.loc,
					Workers:  rt.cfg.SchedulerWorkers,
				})
				res := sched.Tick(ctx, now.Truncate(time.Minute))
				if res.Err != nil {
					return res.Err
				}
				for _, o := range res.Outcomes {
					switch {
					case o.Err != nil:
						logger.Error("User failed", "user_id", o.UserID, "error", o.Err)
					case o.Fired:
						logger.Info("User pinged", "user_id", o.UserID,
							"sent", o.Report.Succeeded, "failed", o.Report.Failed)
					default:
						logger.Debug("User skipped", "user_id", o.UserID, "reason", o.Reason)
					}
				}
				logger.Info("Tick finished",
					"at", res.At.In(rt.loc).Format(time.RFC3339),
					"evaluated", res.Evaluated,
					"fired", res.Fired,
					"skipped", res.Skipped,
					"failed", res.Failed)
				return nil
			})
		},
	}
	tick.Flags().StringVar(&at, "at", "", "Evaluate as of this RFC 3339 time")
	cmd.AddCommand(tick)
	return cmd
}

// --------------------------------------------------------------------------
// cleanup command
// --------------------------------------------------------------------------

func cleanupCmd() *cobra.Command {
	var maxIdle, retention time.Duration
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Purge idle subscriptions and old ledger entries once",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if !cmd.Flags().Changed("subscription-max-idle") {
				maxIdle = cfg.SubscriptionMaxIdle
			}
			if !cmd.Flags().Changed("ledger-retention") {
				retention = cfg.LedgerRetention
			}

			pool, err := db.New(ctx, cfg)
			if err != nil {
				return fmt.Errorf("connect to database: %w", err)
			}
			defer pool.Close()

			res := maintenance.New(
				store.NewSubscriptionStore(pool.Pool),
				store.NewLedgerStore(pool.Pool),
				maintenance.Config{SubscriptionMaxIdle: maxIdle, LedgerRetention: retention},
				logger,
			).Cleanup(ctx)
			logger.Info("Cleanup finished",
				"subscriptions", res.Subscriptions,
				"notifications", res.Notifications)
			return nil
		},
	}
	cmd.Flags().DurationVar(&maxIdle, "subscription-max-idle", 0, "Delete subscriptions unused for this long (0 keeps all)")
	cmd.Flags().DurationVar(&retention, "ledger-retention", 0, "Delete ledger entries older than this (0 keeps all)")
	return cmd
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

type app struct {
	cfg      *config.Config
	loc      *time.Location
	settings *store.SettingsStore
	push     *notifications.Service
}

// runWithPush connects to the database, builds the push service from the
// VAPID configuration and calls fn.
func runWithPush(fn func(ctx context.Context, rt *app) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return fmt.Errorf("scheduler timezone: %w", err)
	}

	pool, err := db.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	sender, err := notifications.NewWebPushSender(notifications.WebPushConfig{
		PublicKey:  cfg.VAPIDPublicKey,
		PrivateKey: cfg.VAPIDPrivateKey,
		Subject:    cfg.VAPIDSubject,
		TTL:        cfg.PushTTL,
	}, logger)
	if err != nil {
		return err
	}

	subs := store.NewSubscriptionStore(pool.Pool)
	dispatcher := notifications.NewDispatcher(subs, sender, cfg.PushFanout, cfg.PushTimeout, logger)
	return fn(ctx, &app{
		cfg:      cfg,
		loc:      loc,
		settings: store.NewSettingsStore(pool.Pool),
		push:     notifications.NewService(subs, store.NewLedgerStore(pool.Pool), dispatcher, logger),
	})
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
