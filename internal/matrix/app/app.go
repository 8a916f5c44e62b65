package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	httpapi "github.com/aussiebroadwan/matrixstore/internal/matrix/http"
	"github.com/aussiebroadwan/matrixstore/internal/matrix/service"
	"github.com/aussiebroadwan/matrixstore/internal/matrix/store"
	"github.com/aussiebroadwan/matrixstore/internal/matrix/store/drivers/postgres"
	"github.com/aussiebroadwan/matrixstore/internal/matrix/store/drivers/sqlite"
	"github.com/aussiebroadwan/matrixstore/pkg/cryptox"
	"github.com/aussiebroadwan/matrixstore/pkg/jwtx"
	"github.com/aussiebroadwan/matrixstore/pkg/metricsx"
	"github.com/aussiebroadwan/matrixstore/pkg/slogx"
)

// BuildVersion is overridden at build time via -ldflags "-X ...".
var BuildVersion = "v0.1.0"

const pepperBytes = 32

// pooledStore is what both drivers return.
type pooledStore interface {
	store.Store
	service.PoolStatser
}

// Application wires the matrix service together and owns its lifecycle.
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db         pooledStore
	keyManager *jwtx.KeyManager
	metrics    *metricsx.Metrics

	// Services
	tokenService   *service.TokenService
	accountService *service.AccountService
	matrixService  *service.MatrixService
	poolMonitor    *service.PoolMonitor
	monitorRunning atomic.Bool

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates an Application with every dependency initialized. The store
// is open and migrated when New returns.
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "matrixstore",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
		metrics: metricsx.New(),
	}

	if err := app.initDatabase(context.Background()); err != nil {
		return nil, err
	}

	keyManager, err := InitKeys(app.cfg, app.logger)
	if err != nil {
		_ = app.db.Close()
		return nil, err
	}
	app.keyManager = keyManager

	if err := app.initServices(); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Handler returns the root HTTP handler.
func (app *Application) Handler() http.Handler {
	return app.router
}

// Run serves on the configured port and blocks until SIGINT/SIGTERM or a
// server failure.
func (app *Application) Run() error {
	ln, err := net.Listen("tcp", app.server.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.Serve(ln)
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

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

// Serve starts the pool monitor and serves HTTP on ln until Shutdown.
func (app *Application) Serve(ln net.Listener) error {
	if app.monitorRunning.CompareAndSwap(false, true) {
		app.poolMonitor.Start()
	}

	app.logger.Info("matrix service starting",
		"addr", ln.Addr().String(),
		"version", BuildVersion,
		"db_driver", app.cfg.DBDriver,
		"allocation_strategy", app.matrixService.Strategy,
		"resave_policy", app.matrixService.Policy,
	)
	return app.server.Serve(ln)
}

// Shutdown drains in-flight requests, stops the pool monitor and closes the
// store, in that order.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down matrix service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if app.monitorRunning.CompareAndSwap(true, false) {
		app.poolMonitor.Stop()
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("matrix service stopped")
	return nil
}

// initDatabase opens the configured driver and applies migrations.
func (app *Application) initDatabase(ctx context.Context) error {
	pool := store.PoolConfig{
		MaxOpenConns:    app.cfg.DBMaxOpenConns,
		MaxIdleConns:    app.cfg.DBMaxIdleConns,
		ConnMaxIdleTime: app.cfg.DBConnMaxIdleTime,
	}

	var (
		db  pooledStore
		err error
	)
	switch app.cfg.DBDriver {
	case DriverPostgres:
		db, err = postgres.NewStore(ctx, app.cfg.DatabaseURL, pool)
	default:
		db, err = sqlite.NewStore(app.cfg.DatabaseFile, pool)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully", "driver", app.cfg.DBDriver)
	return nil
}

// initServices initializes all business logic services.
func (app *Application) initServices() error {
	pepper, err := cryptox.LoadOrCreateSecret(app.cfg.PepperFile, pepperBytes)
	if err != nil {
		return fmt.Errorf("failed to load pepper: %w", err)
	}

	// Validate has already accepted both values.
	strategy, _ := service.ParseAllocationStrategy(app.cfg.AllocationStrategy)
	policy, _ := service.ParseResavePolicy(app.cfg.ResavePolicy)

	app.tokenService = &service.TokenService{
		KeyManager: app.keyManager,
		Issuer:     app.cfg.Issuer,
	}
	app.accountService = &service.AccountService{
		Store:   app.db,
		Hasher:  cryptox.NewPasswordHasher(pepper),
		Tokens:  app.tokenService,
		Timeout: app.cfg.DBTimeout,
	}
	app.matrixService = &service.MatrixService{
		Store:    app.db,
		Strategy: strategy,
		Policy:   policy,
		Timeout:  app.cfg.DBTimeout,
		Metrics:  app.metrics,
	}

	app.poolMonitor = service.NewPoolMonitor(
		app.db,
		app.metrics,
		app.logger,
		app.cfg.PoolMonitorInterval,
	)
	return nil
}

// initHTTP initializes the HTTP router and server.
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.keyManager,
		BuildVersion,
		app.db,
		app.metrics,
		app.cfg.RateLimits,
		app.logger,
	)

	router.TokenService = app.tokenService
	router.AccountService = app.accountService
	router.MatrixService = app.matrixService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
