// Package server wires the storefront components together and runs the
// HTTP server with graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iudanet/storefront/internal/crypto"
	"github.com/iudanet/storefront/internal/server/auth"
	"github.com/iudanet/storefront/internal/server/config"
	"github.com/iudanet/storefront/internal/server/handlers"
	"github.com/iudanet/storefront/internal/server/jobs"
	"github.com/iudanet/storefront/internal/server/jwt"
	"github.com/iudanet/storefront/internal/server/mail"
	"github.com/iudanet/storefront/internal/server/middleware"
	"github.com/iudanet/storefront/internal/server/ratelimit"
	"github.com/iudanet/storefront/internal/server/session"
	"github.com/iudanet/storefront/internal/server/storage"
	"github.com/iudanet/storefront/internal/server/storage/postgres"
	"github.com/iudanet/storefront/internal/server/storage/sqlite"
	"github.com/iudanet/storefront/internal/server/telemetry"
)

const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 15 * time.Second
	writeTimeout      = 15 * time.Second
	idleTimeout       = 60 * time.Second
)

// App владеет всеми компонентами сервера
type App struct {
	config   *config.Config
	logger   *slog.Logger
	store    storage.Store
	service  *auth.Service
	sessions *session.Manager
	sweeper  *jobs.Sweeper
	server   *http.Server
	closers  []func() error
	version  string
}

// NewLogger создает slog logger по настройкам конфигурации
func NewLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// OpenStore открывает хранилище и применяет миграции
func OpenStore(ctx context.Context, cfg config.DatabaseConfig) (storage.Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		store, err := sqlite.New(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.DriverPostgres:
		store, err := postgres.New(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// NewApp собирает сервер из конфигурации
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, version string) (*App, error) {
	app := &App{config: cfg, logger: logger, version: version}

	store, err := OpenStore(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	app.store = store
	app.closers = append(app.closers, store.Close)

	metrics, err := telemetry.NewGlobalMetrics()
	if err != nil {
		app.close()
		return nil, fmt.Errorf("metrics init error: %w", err)
	}

	loginLimiter, registerLimiter, resetLimiter, err := app.newLimiters(ctx)
	if err != nil {
		app.close()
		return nil, err
	}

	tokens := crypto.NewTokenGenerator(nil)

	app.sessions = session.NewManager(store, store, tokens, session.Config{
		Lifetime:     cfg.Auth.SessionLifetime,
		SecureCookie: cfg.IsProduction(),
	}, logger)

	app.service = auth.NewService(auth.Deps{
		Users:    store,
		Sessions: app.sessions,
		Limiter:  loginLimiter,
		Hasher:   crypto.NewBcryptHasher(cfg.Auth.BcryptCost),
		Tokens:   tokens,
		Mailer:   app.newMailer(),
		Metrics:  metrics,
		Logger:   logger,
	}, auth.Config{
		BaseURL:         cfg.Server.BaseURL,
		VerificationTTL: cfg.Auth.VerificationTTL,
		ResetTTL:        cfg.Auth.ResetTTL,
	})

	if !cfg.Jobs.SweepDisabled {
		app.sweeper, err = jobs.NewSweeper(app.service, cfg.Jobs.SweepSchedule, logger)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("sweeper init error: %w", err)
		}
	}

	var admin *jwt.Service
	if cfg.Admin.JWTSecret != "" {
		admin = jwt.NewService(cfg.Admin.JWTSecret)
	} else {
		logger.Warn("Admin JWT secret is not set, admin endpoints are disabled")
	}

	handler := app.routes(routeDeps{
		admin:           admin,
		registerLimiter: registerLimiter,
		resetLimiter:    resetLimiter,
		metrics:         metrics,
	})

	app.server = &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	return app, nil
}

// newLimiters создает лимитеры входа, регистрации и запроса сброса пароля
func (app *App) newLimiters(ctx context.Context) (login, register, reset ratelimit.Limiter, err error) {
	rl := app.config.RateLimit
	loginCfg := ratelimit.Config{MaxRequests: rl.LoginMax, Window: rl.LoginWindow}
	registerCfg := ratelimit.Config{MaxRequests: rl.RegisterMax, Window: rl.RegisterWindow}
	resetCfg := ratelimit.Config{MaxRequests: rl.ResetMax, Window: rl.ResetWindow}

	if rl.Backend == config.LimiterRedis {
		client := redis.NewClient(&redis.Options{
			Addr:     rl.RedisAddr,
			Password: rl.RedisPassword,
			DB:       rl.RedisDB,
		})
		app.closers = append(app.closers, client.Close)

		if err := client.Ping(ctx).Err(); err != nil {
			return nil, nil, nil, fmt.Errorf("redis init error: %w", err)
		}

		return ratelimit.NewRedis(client, loginCfg, ""),
			ratelimit.NewRedis(client, registerCfg, ""),
			ratelimit.NewRedis(client, resetCfg, ""),
			nil
	}

	limiters := []*ratelimit.FixedWindow{
		ratelimit.NewFixedWindow(loginCfg),
		ratelimit.NewFixedWindow(registerCfg),
		ratelimit.NewFixedWindow(resetCfg),
	}
	for _, l := range limiters {
		app.closers = append(app.closers, func() error { l.Stop(); return nil })
	}

	return limiters[0], limiters[1], limiters[2], nil
}

func (app *App) newMailer() mail.Mailer {
	if app.config.Mail.Backend == config.MailSMTP {
		return mail.NewSMTPMailer(mail.SMTPConfig{
			Host:     app.config.Mail.SMTPHost,
			Port:     app.config.Mail.SMTPPort,
			Username: app.config.Mail.SMTPUsername,
			Password: app.config.Mail.SMTPPassword,
			From:     app.config.Mail.From,
			Timeout:  app.config.Mail.SMTPTimeout,
		})
	}
	return mail.NewLogMailer(app.logger)
}

type routeDeps struct {
	admin           *jwt.Service
	registerLimiter ratelimit.Limiter
	resetLimiter    ratelimit.Limiter
	metrics         *telemetry.Metrics
}

// routes регистрирует маршруты API
func (app *App) routes(deps routeDeps) http.Handler {
	logger := app.logger

	authHandler := handlers.NewAuthHandler(logger, app.service)
	adminHandler := handlers.NewAdminHandler(logger, app.service)
	healthHandler := handlers.NewHealthHandler(logger, app.store, app.version)

	requireSession := middleware.RequireSession(logger, app.sessions)
	registerLimit := middleware.RateLimit(logger, deps.registerLimiter, "register", deps.metrics)
	resetLimit := middleware.RateLimit(logger, deps.resetLimiter, "password_reset", deps.metrics)

	mux := http.NewServeMux()

	mux.Handle("POST /api/v1/auth/register", registerLimit(http.HandlerFunc(authHandler.Register)))
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/v1/auth/logout", authHandler.Logout)
	mux.HandleFunc("GET /api/v1/auth/me", authHandler.Me)
	mux.Handle("GET /api/v1/auth/profile", requireSession(http.HandlerFunc(authHandler.Profile)))
	mux.HandleFunc("PATCH /api/v1/auth/profile", authHandler.UpdateProfile)
	mux.HandleFunc("GET /api/v1/auth/verify-email", authHandler.VerifyEmail)
	mux.Handle("POST /api/v1/auth/request-password-reset", resetLimit(http.HandlerFunc(authHandler.RequestPasswordReset)))
	mux.HandleFunc("POST /api/v1/auth/reset-password", authHandler.ResetPassword)
	mux.HandleFunc("GET /api/v1/health", healthHandler.Health)

	if deps.admin != nil {
		adminAuth := middleware.AdminAuth(logger, deps.admin)
		mux.Handle("POST /api/v1/admin/cleanup-sessions", adminAuth(http.HandlerFunc(adminHandler.CleanupSessions)))
	}

	// recovery -> client ip -> logging -> mux
	var handler http.Handler = mux
	handler = middleware.LoggingWithSkip(logger, []string{"/api/v1/health"})(handler)
	handler = middleware.ClientIP(app.config.Server.TrustProxyHeaders)(handler)
	handler = middleware.RecoveryMiddleware(logger)(handler)

	return handler
}

// Handler возвращает корневой http.Handler
func (app *App) Handler() http.Handler {
	return app.server.Handler
}

// Service возвращает сервис авторизации
func (app *App) Service() *auth.Service {
	return app.service
}

// Run запускает HTTP сервер и блокируется до отмены ctx,
// после чего выполняет graceful shutdown
func (app *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		app.logger.Info("Starting storefront server",
			slog.String("addr", app.config.Server.ListenAddr),
			slog.String("version", app.version),
			slog.String("environment", app.config.Server.Environment),
		)
		if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	if app.sweeper != nil {
		app.sweeper.Start()
	}

	var runErr error
	select {
	case <-ctx.Done():
		app.logger.Info("Shutdown signal received")
	case err, ok := <-errCh:
		if ok {
			runErr = fmt.Errorf("http server: %w", err)
		}
	}

	if err := app.Shutdown(); err != nil && runErr == nil {
		runErr = err
	}

	return runErr
}

// Shutdown останавливает сервер, фоновые задачи и закрывает ресурсы
func (app *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), app.config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error

	if err := app.server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}

	if app.sweeper != nil {
		if err := app.sweeper.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("sweeper stop: %w", err))
		}
	}

	app.sessions.Wait()

	if err := app.close(); err != nil {
		errs = append(errs, err)
	}

	app.logger.Info("Server stopped")
	return errors.Join(errs...)
}

// close освобождает ресурсы в обратном порядке
func (app *App) close() error {
	var errs []error
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	app.closers = nil
	return errors.Join(errs...)
}
