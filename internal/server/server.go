// Package server exposes the ask pipeline over HTTP.
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
	"github.com/go-chi/cors"
	"golang.org/x/sync/errgroup"
)

// Server serves the ask API for a default project and any other project
// directory a request names.
type Server struct {
	port              int
	readHeaderTimeout time.Duration
	allowedOrigins    []string
	logger            *slog.Logger
	projects          *projects
}

// Config holds configuration for the HTTP server.
type Config struct {
	// DefaultProject is used when a request names no projectPath.
	DefaultProject string
	Port           int
	// ReadHeaderTimeout defaults to 10s.
	ReadHeaderTimeout time.Duration
	// AllowedOrigins defaults to any origin.
	AllowedOrigins []string
	// Open builds a project. Defaults to OpenProject.
	Open OpenFunc
	// Logger is the structured logger (optional, uses discard if nil).
	Logger *slog.Logger
}

// NewServer creates a new server instance.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.ReadHeaderTimeout <= 0 {
		cfg.ReadHeaderTimeout = 10 * time.Second
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}
	open := cfg.Open
	if open == nil {
		open = NewProjectOpener(logger)
	}

	return &Server{
		port:              cfg.Port,
		readHeaderTimeout: cfg.ReadHeaderTimeout,
		allowedOrigins:    cfg.AllowedOrigins,
		logger:            logger,
		projects:          newProjects(cfg.DefaultProject, open, logger),
	}
}

// Handler returns the HTTP handler. Schema watchers started on behalf of
// requests stop when ctx is done.
func (s *Server) Handler(ctx context.Context) http.Handler {
	s.projects.start(ctx)

	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middleware.Compress(5),
		cors.Handler(cors.Options{
			AllowedOrigins: s.allowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
			MaxAge:         300,
		}),
	)
	SetupRoutes(r, newHandlers(s.projects, s.logger))
	return r
}

// SetupRoutes registers the API routes.
func SetupRoutes(router chi.Router, h *Handlers) {
	router.Get("/health", h.Health)
	router.Post("/ask", h.Ask)
	router.Get("/tables", h.Tables)
	router.Get("/history", h.History)
	router.Get("/events", h.Events)
}

// Serve starts the server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("starting server", "addr", fmt.Sprintf("http://localhost:%d", s.port))

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    addr,
		Handler: s.Handler(egctx),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: s.readHeaderTimeout,
	}

	// Open the default project up front so configuration errors surface at start.
	if _, err := s.projects.get(""); err != nil {
		return err
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down server...")
		return srv.Shutdown(shutdownCtx)
	})

	err := eg.Wait()
	if cerr := s.projects.close(); cerr != nil {
		s.logger.Warn("failed to close projects", "error", cerr)
	}
	return err
}

// Close stops schema watchers and releases every opened project.
// It is only needed when Handler was used without Serve.
func (s *Server) Close() error {
	return s.projects.close()
}
