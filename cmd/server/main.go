package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"gorm.io/gorm"

	"coffeeshop/internal/auth"
	"coffeeshop/internal/config"
	"coffeeshop/internal/db"
	"coffeeshop/internal/db/mock"
	applog "coffeeshop/internal/log"
	"coffeeshop/internal/server"
	"coffeeshop/internal/store"
)

type serverLifecycle interface {
	Start() error
	Stop() error
}

var (
	loadConfigFunc      = config.Load
	setLogLevelFunc     = applog.SetLevel
	setLogFormatFunc    = applog.SetFormat
	newMockDatabaseFunc = mock.New
	configureDatabase   = db.Configure
	resetDatabaseFunc   = db.Reset
	loadSeedFunc        = db.LoadSeed
	newVerifierFunc     = newVerifier
	newServerFunc       = func(cfg server.Config) (serverLifecycle, error) {
		return server.New(cfg)
	}
	subscribeShutdownSig = func() (<-chan os.Signal, func()) {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGTERM, syscall.SIGINT)
		return ch, func() { signal.Stop(ch) }
	}
)

func main() {
	os.Exit(run(context.Background()))
}

func run(ctx context.Context) int {
	cfg, err := loadConfigFunc()
	if err != nil {
		applog.Error(ctx, "failed to load configuration", "error", err)
		return 1
	}

	if err := setLogLevelFunc(cfg.Logging.Level); err != nil {
		applog.Error(ctx, "invalid log level", "level", cfg.Logging.Level, "error", err)
		return 1
	}
	if cfg.Logging.Format != "" {
		if err := setLogFormatFunc(cfg.Logging.Format); err != nil {
			applog.Error(ctx, "invalid log format", "format", cfg.Logging.Format, "error", err)
			return 1
		}
	}

	database, err := openDatabase(ctx, cfg.Database)
	if err != nil {
		applog.Error(ctx, "failed to open database", "error", err)
		return 1
	}

	if cfg.Database.Reset {
		if err := resetDatabase(ctx, database, cfg.Database.SeedFile); err != nil {
			applog.Error(ctx, "failed to reset database", "error", err)
			return 1
		}
	}

	srv, err := newServerFunc(server.Config{
		Addr:              cfg.Server.Addr,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ShutdownTimeout:   cfg.Server.ShutdownTimeout,
		Store:             store.NewGormDrinkStore(database),
		Verifier:          newVerifierFunc(ctx, cfg.Auth),
	})
	if err != nil {
		applog.Error(ctx, "failed to build server", "error", err)
		return 1
	}

	sigCh, unsubscribe := subscribeShutdownSig()
	defer unsubscribe()

	errCh := make(chan error, 1)
	go func() {
		applog.Info(ctx, "starting http server", "addr", cfg.Server.Addr)
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			applog.Error(ctx, "server encountered an error", "error", err)
			return 1
		}
		return 0
	case sig := <-sigCh:
		applog.Info(ctx, "shutting down http server", "signal", sig.String())
	case <-ctx.Done():
		applog.Info(ctx, "shutting down http server", "reason", ctx.Err())
	}

	if err := srv.Stop(); err != nil {
		applog.Error(ctx, "graceful shutdown failed", "error", err)
		return 1
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		applog.Error(ctx, "server stopped with error", "error", err)
		return 1
	}
	applog.Info(ctx, "http server stopped")
	return 0
}

func openDatabase(ctx context.Context, cfg config.DatabaseConfig) (*gorm.DB, error) {
	if cfg.UseMock {
		applog.Info(ctx, "using in-memory mock database")
		return newMockDatabaseFunc(ctx)
	}
	return configureDatabase(cfg)
}

func resetDatabase(ctx context.Context, database *gorm.DB, seedFile string) error {
	seed, err := loadSeedFunc(seedFile)
	if err != nil {
		return err
	}
	applog.Warn(ctx, "dropping and recreating drinks table", "seedDrinks", len(seed))
	return resetDatabaseFunc(ctx, database, seed)
}

func newVerifier(ctx context.Context, cfg config.AuthConfig) auth.Verifier {
	keys := auth.NewKeySet(cfg.JWKSURL, cfg.JWKSRefresh, &http.Client{Timeout: cfg.JWKSTimeout})
	if cfg.JWKSURL != "" {
		go func() {
			if err := keys.Refresh(ctx); err != nil {
				applog.Warn(ctx, "initial signing key fetch failed", "url", cfg.JWKSURL, "error", err)
			}
		}()
	}
	return auth.NewJWTVerifier(keys, cfg.Issuer, cfg.Audience)
}
