// Package server provides the HTTP API for lessonforge.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/hyperjump/lessonforge/internal/config"
	"github.com/hyperjump/lessonforge/internal/content"
	"github.com/hyperjump/lessonforge/internal/models"
	"github.com/hyperjump/lessonforge/internal/pipeline"
	"github.com/hyperjump/lessonforge/internal/storage"
	"github.com/hyperjump/lessonforge/pkg/utils"
)

// Generator runs one generation request. *pipeline.Orchestrator implements it.
type Generator interface {
	Run(ctx context.Context, req *models.GenerateRequest) (*pipeline.Result, error)
}

// Server is the HTTP server for the lessonforge API.
type Server struct {
	generator Generator
	lessons   storage.LessonStore
	content   content.Store
	config    *config.Config
	logger    *zap.Logger
	server    *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	generator Generator,
	lessons storage.LessonStore,
	store content.Store,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		generator: generator,
		lessons:   lessons,
		content:   store,
		config:    cfg,
		logger:    utils.OrNop(logger),
	}
}

// Router returns the HTTP handler with all routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.config.Server.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	// Generation waits on the completion service, so it runs without the request timeout.
	r.Post("/api/generate-documents", s.handleGenerate)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))
		r.Use(middleware.Compress(5))
		r.Get("/api/lessons", s.handleListLessons)
		r.Get("/api/lessons/{id}", s.handleGetLesson)
		r.Get("/api/v1/status", s.handleStatus)
		r.Get("/health", s.handleHealth)
	})

	if local, ok := s.content.(*content.LocalStore); ok {
		prefix := local.Prefix()
		fs := http.StripPrefix(prefix, http.FileServer(http.Dir(local.Dir())))
		r.Handle(prefix+"/*", fs)
	}
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
