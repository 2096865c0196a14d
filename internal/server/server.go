// Package server exposes the loaded datasets over a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/leapview/internal/erp"
	"github.com/leapstack-labs/leapview/pkg/core"
	"github.com/leapstack-labs/leapview/pkg/view"
)

// Default timings.
const (
	DefaultDebounce          = 100 * time.Millisecond
	DefaultReadHeaderTimeout = 10 * time.Second
	shutdownTimeout          = 5 * time.Second
)

// Server serves the dataset API and, when enabled, reloads the catalog
// whenever a data file changes.
type Server struct {
	catalog  *erp.Catalog
	store    core.Store
	dataDir  string
	settings map[string]erp.Settings
	port     int
	watch    bool
	debounce time.Duration
	timeout  time.Duration
	opts     view.Options
	logger   *slog.Logger
	notifier *Notifier
	metrics  *Metrics
}

// Config holds configuration for the server.
type Config struct {
	Catalog *erp.Catalog
	// Store is optional; without it the view and snapshot routes report
	// 503.
	Store    core.Store
	DataDir  string
	Settings map[string]erp.Settings
	Port     int
	Watch    bool
	Debounce time.Duration
	// ReadHeaderTimeout defaults to DefaultReadHeaderTimeout.
	ReadHeaderTimeout time.Duration
	Options           view.Options
	Logger            *slog.Logger
}

// NewServer creates a server instance.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	catalog := cfg.Catalog
	if catalog == nil {
		catalog = erp.NewCatalog()
	}
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	timeout := cfg.ReadHeaderTimeout
	if timeout <= 0 {
		timeout = DefaultReadHeaderTimeout
	}

	s := &Server{
		catalog:  catalog,
		store:    cfg.Store,
		dataDir:  cfg.DataDir,
		settings: cfg.Settings,
		port:     cfg.Port,
		watch:    cfg.Watch,
		debounce: debounce,
		timeout:  timeout,
		opts:     cfg.Options,
		logger:   logger,
		notifier: NewNotifier(),
		metrics:  NewMetrics(),
	}
	s.metrics.ObserveCatalog(catalog)
	return s
}

// Notifier returns the notifier signalled after each catalog reload.
func (s *Server) Notifier() *Notifier {
	return s.notifier
}

// Metrics returns the server's Prometheus collectors.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Handler returns the router with every route and middleware installed.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		requestLogger(s.logger),
		middleware.Recoverer,
		s.metrics.Middleware,
		middleware.Compress(5),
	)
	s.routes(r)
	return r
}

// Serve starts the server on its port and blocks until the context is
// cancelled.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", s.port, err)
	}
	return s.ServeListener(ctx, ln)
}

// ServeListener serves on ln until the context is cancelled, then shuts
// down gracefully. The listener is closed on return.
func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	s.logger.Info("starting server", "addr", "http://"+ln.Addr().String())

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: s.timeout,
	}

	if s.watch && s.dataDir != "" {
		eg.Go(func() error {
			return s.watchFiles(egctx)
		})
	}

	eg.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		s.logger.Debug("shutting down server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// requestLogger logs each request at debug level through slog.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
