package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/aquatrack/aquatrack/internal/middleware"
	"github.com/aquatrack/aquatrack/internal/ratelimit"
)

// RouterConfig wires handlers and middleware into the API router.
type RouterConfig struct {
	Handler   *Handler
	Health    *HealthHandler
	Metrics   *MetricsHandler
	Auth      *AuthHandler
	Hydration *HydrationHandler
	Events    *EventsHandler

	Sessions middleware.SessionVerifier
	// AuthLimiter throttles register and login per IP. Nil disables it.
	AuthLimiter ratelimit.Limiter

	Logger         *slog.Logger
	AllowedOrigins []string
	HSTS           bool
	MaxBodySize    int64
	// VerboseErrors logs stacks for recovered panics.
	VerboseErrors bool
}

// NewRouter builds the chi router with every route and middleware.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recoverer(cfg.Logger, cfg.VerboseErrors))
	r.Use(middleware.Security(middleware.SecurityConfig{HSTS: cfg.HSTS}))
	r.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.AllowedOrigins)))
	r.Use(middleware.MaxBodySize(cfg.MaxBodySize))

	r.Get("/", cfg.Handler.Hello)
	r.Get("/healthz", cfg.Health.Healthz)
	r.Get("/readyz", cfg.Health.Readyz)
	r.Get("/metrics", cfg.Metrics.Metrics)

	throttle := func(next http.Handler) http.Handler { return next }
	if cfg.AuthLimiter != nil {
		throttle = middleware.RateLimitIP(cfg.AuthLimiter, cfg.Logger)
	}
	guard := middleware.RequireSession(cfg.Sessions)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/presets", cfg.Handler.Presets)

		r.Route("/auth", func(r chi.Router) {
			r.Get("/session", cfg.Auth.Session)
			r.With(throttle).Post("/register", cfg.Auth.Register)
			r.With(throttle).Post("/login", cfg.Auth.Login)
			r.With(guard).Post("/logout", cfg.Auth.Logout)
		})

		r.Group(func(r chi.Router) {
			r.Use(guard)

			r.Route("/hydration", func(r chi.Router) {
				r.Get("/", cfg.Hydration.State)
				r.Put("/goal", cfg.Hydration.UpdateGoal)
				r.Post("/intake", cfg.Hydration.LogIntake)
				r.Get("/progress", cfg.Hydration.Progress)
				r.Get("/history", cfg.Hydration.History)
				r.Get("/reminders", cfg.Hydration.ListReminders)
				r.Post("/reminders", cfg.Hydration.AddReminder)
				r.Post("/reminders/{id}/toggle", cfg.Hydration.ToggleReminder)
				r.Delete("/reminders/{id}", cfg.Hydration.DeleteReminder)
			})

			r.Get("/events", cfg.Events.Subscribe)
		})
	})

	r.NotFound(cfg.Handler.NotFound)
	r.MethodNotAllowed(cfg.Handler.MethodNotAllowed)

	return r
}
