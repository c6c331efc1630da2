package app

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

	"github.com/redis/go-redis/v9"

	httpapi "github.com/fricon/coreapi/internal/auth/http"
	"github.com/fricon/coreapi/internal/auth/service"
	"github.com/fricon/coreapi/internal/auth/store/drivers/sqlite"
	"github.com/fricon/coreapi/pkg/cryptox"
	"github.com/fricon/coreapi/pkg/httpx"
	"github.com/fricon/coreapi/pkg/jwtx"
	"github.com/fricon/coreapi/pkg/slogx"
)

// BuildVersion is overridden at build time via -ldflags.
var BuildVersion = "v0.1.0"

// Application owns the auth API and everything it depends on.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db       *sqlite.Store
	signer   jwtx.Signer
	verifier jwtx.Verifier
	redis    *redis.Client

	auth         *service.AuthService
	housekeeping *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New validates cfg and initializes every dependency in startup order.
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "core-api",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	pepper, err := cryptox.LoadOrCreatePepper(cfg.PepperFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load pepper: %w", err)
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.signer, app.verifier, err = InitSigner(cfg, app.logger)
	if err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.auth = service.NewAuthService(cfg.ServiceConfig(), service.Deps{
		Store:  app.db,
		Signer: app.signer,
		Hasher: cryptox.NewPasswordHasher(pepper),
	})
	app.housekeeping = service.NewHousekeepingService(app.auth, app.logger, cfg.HousekeepingSchedule, cfg.AuditRetention)

	if cfg.RedisHost != "" {
		app.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr(),
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		app.logger.Info("redis rate limiting enabled", "addr", cfg.RedisAddr())
	}

	app.initHTTP()

	return app, nil
}

// Handler exposes the routed API, mostly for tests.
func (app *Application) Handler() http.Handler { return app.router }

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	if err := app.housekeeping.Start(); err != nil {
		return fmt.Errorf("start housekeeping: %w", err)
	}

	app.logger.Info("core api starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			_ = app.Shutdown()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown drains in-flight requests, stops background jobs and closes
// connections.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down core api...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeeping.Stop()

	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("error closing redis client", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("core api stopped")
	return nil
}

// initDatabase opens the database and applies migrations
func (app *Application) initDatabase() error {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(dsn)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully", "file", app.cfg.DatabaseFile)
	return nil
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(app.signer, app.verifier, BuildVersion, app.db, app.logger)
	router.Auth = app.auth
	router.Cookies = httpapi.CookieConfig{Secure: app.cfg.CookieSecure}
	router.CORSOrigins = app.cfg.CORSOrigins
	if app.redis != nil {
		router.Limiters = httpx.RedisLimiters(app.redis, "core-api:ratelimit")
		router.Redis = app.redis
	}
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
