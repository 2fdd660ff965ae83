package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	corslib "github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/pingdaily/ping-server/internal/api/handler"
	"github.com/pingdaily/ping-server/internal/auth"
	"github.com/pingdaily/ping-server/internal/config"
)

// NewRouter creates and configures the Chi router with all middleware and routes.
func NewRouter(deps handler.Deps, cfg *config.Config) *chi.Mux {
	r := chi.NewRouter()

	// --- Middleware stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(TimingMiddleware)
	r.Use(middleware.Compress(5)) // gzip

	// CORS
	c := corslib.New(corslib.Options{
		AllowedOrigins:   cfg.CORSAllowOrigins,
		AllowedMethods:   []string{"GET", "HEAD", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Encoding", "Authorization", "Content-Type", "If-None-Match", "Cache-Control"},
		ExposedHeaders:   []string{"X-Process-Time", "X-Cache", "ETag"},
		AllowCredentials: true,
	})
	r.Use(c.Handler)

	// Rate limiting
	if cfg.RateLimitEnabled {
		r.Use(RateLimitMiddleware(cfg.RateLimitRequests, cfg.RateLimitWindow))
	}

	// --- Handler dependencies ---
	h := handler.New(deps)

	var tokens *auth.Tokens
	if cfg.AuthEnabled() {
		tokens = auth.NewTokens(cfg.JWTSecret)
	}
	requireUser := AuthMiddleware(tokens, cfg.AuthDefaultUser)

	// --- Routes ---

	r.Get("/", h.Root)

	// Swagger UI
	r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL("/docs/doc.json")))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.HealthCheck)

		// Settings and ledger
		r.Route("/notifications", func(r chi.Router) {
			r.Use(requireUser)

			r.Get("/settings", h.GetSettings)
			r.Put("/settings", h.UpdateSettings)

			r.Get("/", h.ListNotifications)
			r.Post("/", h.CreateNotification)
			r.Post("/mark-all-read", h.MarkAllNotificationsRead)
			r.Get("/stats/summary", h.NotificationSummary)

			r.Get("/{id}", h.GetNotification)
			r.Delete("/{id}", h.DeleteNotification)
			r.Patch("/{id}/read", h.MarkNotificationRead)
			r.Patch("/{id}/logged", h.MarkNotificationLogged)
			r.Post("/{id}/action", h.LogNotificationAction)
		})

		// Push
		r.Route("/push", func(r chi.Router) {
			r.Get("/vapid-public-key", h.VAPIDPublicKey)

			r.Group(func(r chi.Router) {
				r.Use(requireUser)

				r.Post("/subscribe", h.Subscribe)
				r.Post("/unsubscribe", h.Unsubscribe)
				r.Get("/subscriptions", h.ListSubscriptions)
				r.Post("/test-push", h.TestPush)
				r.Post("/trigger", h.TriggerPing)
			})
		})

		// Time entries
		r.Route("/time-entries", func(r chi.Router) {
			r.Use(requireUser)

			r.Get("/", h.ListTimeEntries)
			r.Post("/", h.UpsertTimeEntry)
			r.Get("/date/{date}", h.ListTimeEntriesByDate)
			r.Get("/stats/summary", h.TimeEntrySummary)
			r.Put("/{id}", h.UpdateTimeEntry)
			r.Delete("/{id}", h.DeleteTimeEntry)
		})
	})

	return r
}
