// Package main is the entrypoint for the aquatrack API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"regexp"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/aquatrack/aquatrack/internal/auth"
	"github.com/aquatrack/aquatrack/internal/config"
	"github.com/aquatrack/aquatrack/internal/handler"
	"github.com/aquatrack/aquatrack/internal/metrics"
	"github.com/aquatrack/aquatrack/internal/ratelimit"
	"github.com/aquatrack/aquatrack/internal/realtime"
	"github.com/aquatrack/aquatrack/internal/reminder"
	"github.com/aquatrack/aquatrack/internal/server"
	"github.com/aquatrack/aquatrack/internal/service"
	"github.com/aquatrack/aquatrack/internal/storage"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}

	logger := initLogger(cfg)

	loc, err := cfg.Location()
	if err != nil {
		logger.Error("invalid timezone", "error", err)
		return 1
	}

	// Initialize storage
	st, err := storage.Open(ctx, cfg)
	if err != nil {
		dsn := storageURL(cfg)
		logger.Error(
			"failed to open storage",
			slog.String("driver", cfg.StorageDriver),
			slog.String("error", sanitizeError(err, dsn)),
			slog.String("url", redactURL(dsn)),
		)
		return 1
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Error("failed to close storage", "error", err)
		}
	}()
	logger.Info("storage ready", "driver", cfg.StorageDriver)

	// Initialize stores
	recorder := metrics.NewInMemory()
	authStore := service.NewAuthStore(st, auth.NewTokenIssuer(cfg.SessionSecret, cfg.SessionTTL), logger, recorder)
	hydration := service.NewHydrationStore(st, loc, logger, recorder)
	defer hydration.BindAuth(authStore)()

	hub := realtime.NewHub(logger, recorder, cfg.GetCORSAllowedOrigins())
	defer hydration.Subscribe(hub.OnHydration)()
	defer authStore.Subscribe(hub.AuthListener())()

	if err := authStore.Restore(ctx); err != nil {
		logger.Error("failed to restore session", "error", err)
		return 1
	}

	// Initialize handlers
	router := handler.NewRouter(handler.RouterConfig{
		Handler: handler.New(),
		Health: handler.NewHealthHandler(map[string]handler.HealthChecker{
			"storage": st,
		}),
		Metrics:        handler.NewMetricsHandler(recorder),
		Auth:           handler.NewAuthHandler(authStore, logger),
		Hydration:      handler.NewHydrationHandler(hydration, logger),
		Events:         handler.NewEventsHandler(hub),
		Sessions:       authStore,
		AuthLimiter:    newAuthLimiter(cfg, st),
		Logger:         logger,
		AllowedOrigins: cfg.GetCORSAllowedOrigins(),
		HSTS:           cfg.IsProduction(),
		MaxBodySize:    cfg.MaxRequestBodySize,
		VerboseErrors:  cfg.IsDevelopment(),
	})

	srv := server.New(
		router,
		cfg.AppPort,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)
	srv.OnShutdown("realtime", hub.Close)

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"timezone", loc.String(),
	)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return srv.Run(gCtx)
	})

	if cfg.RemindersEnabled {
		notifier := reminder.MultiNotifier{reminder.NewLogNotifier(logger), hub}
		scheduler := reminder.NewScheduler(hydration, notifier, logger, recorder)
		scheduler.SetPollInterval(cfg.ReminderPollInterval)
		g.Go(func() error {
			return scheduler.Run(gCtx)
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("server error", "error", err)
		return 1
	}

	logger.Info("server stopped")
	return 0
}

// newAuthLimiter shares buckets through Redis when Redis is the storage
// driver so every replica throttles the same IPs.
func newAuthLimiter(cfg *config.Config, st storage.Storage) ratelimit.Limiter {
	if !cfg.AuthRateLimitEnabled {
		return nil
	}
	if r, ok := st.(*storage.Redis); ok {
		return ratelimit.NewRedis(r.Client(), cfg.RedisKeyPrefix+"ratelimit:", cfg.AuthRateLimitPerMinute, cfg.AuthRateLimitBurst)
	}
	return ratelimit.NewMemory(cfg.AuthRateLimitPerMinute, cfg.AuthRateLimitBurst)
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	level := parseLogLevel(cfg.LogLevel)

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// storageURL returns the connection string of the configured driver, if any.
func storageURL(cfg *config.Config) string {
	switch cfg.StorageDriver {
	case config.StorageRedis:
		return cfg.RedisURL
	case config.StoragePostgres:
		return cfg.DatabaseURL
	default:
		return ""
	}
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
