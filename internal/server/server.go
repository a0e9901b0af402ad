// Package server provides the HTTP API for kurasu.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hyperjump/kurasu/internal/analytics"
	"github.com/hyperjump/kurasu/internal/config"
	"github.com/hyperjump/kurasu/internal/search"
	"go.uber.org/zap"
)

// Server is the HTTP server for the kurasu API.
type Server struct {
	engine   *search.Engine
	config   *config.Config
	recorder *analytics.Recorder
	logger   *zap.Logger
	server   *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithRecorder exposes the recorder's counters on the status endpoint.
func WithRecorder(r *analytics.Recorder) Option {
	return func(s *Server) { s.recorder = r }
}

// NewServer creates a server with the given dependencies.
func NewServer(engine *search.Engine, cfg *config.Config, logger *zap.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		engine: engine,
		config: cfg,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	var addr string
	if cfg != nil {
		addr = cfg.Server.Addr()
	}
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the API router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/suggest", s.handleSuggest)
		r.Get("/courses/search", s.handleCourseSearch)
		r.Get("/courses/{course}/grades", s.handleCourseGrades)
		r.Get("/professors/rating", s.handleProfessorRating)
		r.Get("/professors/{name}/grades", s.handleProfessorGrades)
		r.Get("/status", s.handleStatus)
	})
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops. It returns nil once Stop
// has shut the server down.
func (s *Server) Start() error {
	s.logger.Info("Starting server", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
