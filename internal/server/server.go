package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"coffeeshop/internal/auth"
	"coffeeshop/internal/handlers"
	applog "coffeeshop/internal/log"
	"coffeeshop/internal/metrics"
	"coffeeshop/internal/store"
)

// Config captures the runtime configuration for the HTTP server.
type Config struct {
	Addr              string
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
	Store             store.DrinkStore
	Verifier          auth.Verifier
}

// Server wraps an http.Server and exposes helpers for bootstrapping a
// production-ready web service.
type Server struct {
	config     Config
	httpServer *http.Server
}

// New builds a new Server using the provided configuration.
func New(cfg Config) (*Server, error) {
	applog.Debug(context.Background(), "initializing server",
		"addr", cfg.Addr,
		"readHeaderTimeout", cfg.ReadHeaderTimeout.String(),
		"shutdownTimeout", cfg.ShutdownTimeout.String(),
	)

	if cfg.Store == nil {
		return nil, errors.New("server: drink store is required")
	}
	if cfg.Verifier == nil {
		return nil, errors.New("server: token verifier is required")
	}
	if cfg.ReadHeaderTimeout <= 0 {
		applog.Debug(context.Background(), "read header timeout not provided, using default")
		cfg.ReadHeaderTimeout = 5 * time.Second
	}
	if cfg.ShutdownTimeout <= 0 {
		applog.Debug(context.Background(), "shutdown timeout not provided, using default")
		cfg.ShutdownTimeout = 5 * time.Second
	}

	api, err := handlers.New(cfg.Store, cfg.Verifier)
	if err != nil {
		return nil, err
	}

	metrics.RegisterDefault()
	handler := withCORS(logRequests(compress(handlers.Recoverer(newRouter(api)))))

	applog.Debug(context.Background(), "http handler chain prepared")

	return &Server{
		config: cfg,
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           handler,
			ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		},
	}, nil
}

// Start begins serving HTTP traffic using the underlying http.Server.
func (s *Server) Start() error {
	applog.Info(context.Background(), "server starting listener", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Stop gracefully shuts down the HTTP server with a timeout.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	applog.Debug(ctx, "server initiating graceful shutdown")
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the configured HTTP handler, enabling integration tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
