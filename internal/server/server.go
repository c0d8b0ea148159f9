// Package server provides the HTTP API for nagare.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/nagare/internal/config"
	"github.com/hyperjump/nagare/internal/querylog"
	"github.com/hyperjump/nagare/internal/trends"
)

// EmbedderInfo reports embedding backend identity and availability for the
// status and health endpoints.
type EmbedderInfo interface {
	ModelName() string
	Dimensions() int
	Available() bool
}

// Server is the HTTP server for the nagare API.
type Server struct {
	analyzer *trends.Analyzer
	store    *querylog.Store
	info     EmbedderInfo
	config   *config.Config
	logger   *zap.Logger
	server   *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	analyzer *trends.Analyzer,
	store *querylog.Store,
	info EmbedderInfo,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		analyzer: analyzer,
		store:    store,
		info:     info,
		config:   cfg,
		logger:   logger,
	}
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Get("/api/v1/trending", s.handleTrending)
	r.Post("/api/v1/trending/similar", s.handleSimilar)
	r.Post("/api/v1/queries", s.handleRecordQuery)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: r,
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
