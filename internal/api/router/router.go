package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/probegrid/probegrid/internal/api/handlers"
	"github.com/probegrid/probegrid/internal/api/middleware"
	"github.com/probegrid/probegrid/internal/config"
	"github.com/probegrid/probegrid/internal/pkg/logger"
	"github.com/probegrid/probegrid/internal/pkg/metrics"
)

type Handlers struct {
	Health   *handlers.HealthHandler
	Alert    *handlers.AlertHandler
	Check    *handlers.CheckHandler
	Schedule *handlers.ScheduleHandler
	Event    *handlers.EventHandler
}

func New(cfg *config.Config, log *logger.Logger, h *Handlers) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))
	r.Use(metrics.Middleware)
	r.Use(middleware.DefaultCORS(cfg.Server.FrontendURL))
	r.Use(middleware.RateLimit(100, 200)) // 100 req/sec, burst of 200

	// Public routes
	r.Group(func(r chi.Router) {
		r.Get("/swagger/*", httpSwagger.WrapHandler)

		r.Get("/health", h.Health.Healthz)
		r.Get("/healthz", h.Health.Healthz)
		r.Get("/readyz", h.Health.Readyz)

		r.Handle("/metrics", metrics.Handler())
	})

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.Auth.JWTSecret))
		r.Use(middleware.TenantRateLimit(50, 100))

		// Alerts
		r.Route("/api/v1/alerts", func(r chi.Router) {
			r.Get("/", h.Alert.List)
			r.Post("/", h.Alert.Trigger)
			r.Get("/summary", h.Alert.GetSummary)
			r.Get("/active", h.Alert.ListActive)
			r.Get("/{id}", h.Alert.Get)
			r.Post("/{id}/acknowledge", h.Alert.Acknowledge)
			r.Post("/{id}/resolve", h.Alert.Resolve)
			r.Post("/{id}/escalate", h.Alert.Escalate)
			r.Post("/{id}/suppress", h.Alert.Suppress)
			r.Post("/{id}/reopen", h.Alert.Reopen)
		})

		// Service checks
		r.Route("/api/v1/checks", func(r chi.Router) {
			r.Get("/", h.Check.List)
			r.Post("/", h.Check.Create)
			r.Get("/failing", h.Check.ListFailing)
			r.Get("/{id}", h.Check.Get)
			r.Put("/{id}", h.Check.Update)
			r.Delete("/{id}", h.Check.Delete)
			r.Post("/{id}/enable", h.Check.Enable)
			r.Post("/{id}/disable", h.Check.Disable)
			r.Post("/{id}/result", h.Check.RecordResult)
			r.Post("/{id}/reset-failures", h.Check.ResetFailures)
		})

		// Polling schedules
		r.Route("/api/v1/schedules", func(r chi.Router) {
			r.Get("/", h.Schedule.List)
			r.Post("/", h.Schedule.Create)
			r.Get("/{id}", h.Schedule.Get)
			r.Delete("/{id}", h.Schedule.Delete)
			r.Post("/{id}/enable", h.Schedule.Enable)
			r.Post("/{id}/disable", h.Schedule.Disable)
			r.Post("/{id}/lock", h.Schedule.AcquireLock)
			r.Delete("/{id}/lock", h.Schedule.ReleaseLock)
		})

		// Event log
		r.Route("/api/v1/events", func(r chi.Router) {
			r.Get("/", h.Event.List)
			r.Post("/", h.Event.Record)
			r.Get("/recent", h.Event.ListRecent)
			r.Get("/{id}", h.Event.Get)
		})
	})

	return r
}
