// Command api is the PingDaily API server. It serves the REST API and runs
// the minute scheduler that sends interval pings.
//
// Usage:
//
//	ping-api
//	API_PORT=8080 SCHEDULER_ENABLED=false ping-api

// @title PingDaily API
// @version 1.0.0
// @description Interval ping server: notification settings, push subscriptions, the notification ledger and hourly time entries.
// @host localhost:5000
// @BasePath /
// @schemes http https
// @contact.name PingDaily
// @license.name MIT
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/pingdaily/ping-server/internal/api"
	"github.com/pingdaily/ping-server/internal/api/handler"
	"github.com/pingdaily/ping-server/internal/cache"
	"github.com/pingdaily/ping-server/internal/config"
	"github.com/pingdaily/ping-server/internal/db"
	"github.com/pingdaily/ping-server/internal/listener"
	"github.com/pingdaily/ping-server/internal/maintenance"
	"github.com/pingdaily/ping-server/internal/notifications"
	"github.com/pingdaily/ping-server/internal/scheduler"
	"github.com/pingdaily/ping-server/internal/store"

	_ "github.com/pingdaily/ping-server/docs" // swagger docs
)

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	loc, err := cfg.Location()
	if err != nil {
		logger.Error("Invalid scheduler timezone", "timezone", cfg.SchedulerTimezone, "error", err)
		os.Exit(1)
	}

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Connect to database
	logger.Info("Connecting to database...")
	pool, err := db.New(ctx, cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("Database connected",
		"min_conns", cfg.DBPoolMinConns,
		"max_conns", cfg.DBPoolMaxConns)

	settings := store.NewSettingsStore(pool.Pool)
	subs := store.NewSubscriptionStore(pool.Pool)
	ledger := store.NewLedgerStore(pool.Pool)
	entries := store.NewTimeEntryStore(pool.Pool)

	// Initialize cache
	appCache := cache.New(cfg.CacheEnabled)
	defer appCache.Close()
	logger.Info("Cache initialized", "enabled", cfg.CacheEnabled)

	// Drop cached summaries when another instance writes time entries
	if cfg.CacheEnabled {
		go listener.Start(ctx, cfg.DatabaseURL, func(userID string) {
			appCache.InvalidatePrefix(handler.EntryStatsPrefix(userID))
		}, logger)
	}

	// Push delivery (if VAPID keys are configured)
	var dispatcher *notifications.Dispatcher
	sender, err := notifications.NewWebPushSender(notifications.WebPushConfig{
		PublicKey:  cfg.VAPIDPublicKey,
		PrivateKey: cfg.VAPIDPrivateKey,
		Subject:    cfg.VAPIDSubject,
		TTL:        cfg.PushTTL,
	}, logger)
	switch {
	case err == nil:
		dispatcher = notifications.NewDispatcher(subs, sender, cfg.PushFanout, cfg.PushTimeout, logger)
		logger.Info("Web push enabled", "subject", cfg.VAPIDSubject, "fanout", cfg.PushFanout)
	case errors.Is(err, notifications.ErrPushNotConfigured):
		logger.Warn("Web push disabled (set VAPID_PUBLIC_KEY and VAPID_PRIVATE_KEY)")
	default:
		logger.Error("Failed to initialize web push", "error", err)
		os.Exit(1)
	}
	pushService := notifications.NewService(subs, ledger, dispatcher, logger)

	// Start the minute scheduler
	var sched *scheduler.Scheduler
	if cfg.SchedulerEnabled && pushService.PushEnabled() {
		opts := scheduler.Options{Location: loc, Workers: cfg.SchedulerWorkers}
		if cfg.RedisURL != "" {
			lease, err := scheduler.NewRedisLease(ctx, cfg.RedisURL)
			if err != nil {
				logger.Error("Failed to connect to Redis", "error", err)
				os.Exit(1)
			}
			defer lease.Close()
			opts.Lease = lease
			logger.Info("Scheduler tick lease enabled")
		}
		sched = scheduler.New(settings, pushService, logger, opts)
		sched.Start(ctx)
		logger.Info("Scheduler started", "timezone", loc.String(), "workers", cfg.SchedulerWorkers)
	} else {
		logger.Info("Scheduler disabled",
			"scheduler_enabled", cfg.SchedulerEnabled,
			"push_enabled", pushService.PushEnabled())
	}

	// Start maintenance ticker (idle subscriptions, ledger retention)
	go maintenance.New(subs, ledger, maintenance.Config{
		Interval:            cfg.MaintenanceInterval,
		SubscriptionMaxIdle: cfg.SubscriptionMaxIdle,
		LedgerRetention:     cfg.LedgerRetention,
	}, logger).Start(ctx)

	// Create router
	router := api.NewRouter(handler.Deps{
		Settings:       settings,
		Ledger:         ledger,
		Entries:        entries,
		Push:           pushService,
		DB:             pool,
		Cache:          appCache,
		VAPIDPublicKey: cfg.VAPIDPublicKey,
		Location:       loc,
		Logger:         logger,
	}, cfg)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		logger.Info("Starting PingDaily API",
			"addr", addr,
			"environment", cfg.Environment,
			"auth", cfg.AuthEnabled(),
			"docs", fmt.Sprintf("http://localhost:%d/docs/", cfg.APIPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt
	<-ctx.Done()
	logger.Info("Shutting down...")

	if sched != nil {
		sched.Stop()
		logger.Info("Scheduler stopped")
	}

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}
	logger.Info("Server stopped")
}
