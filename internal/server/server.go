// Package server provides the gateway HTTP surface: health and stats
// endpoints, cache administration, Prometheus metrics, and REST passthrough
// to the GTEx Portal service.
package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/gtex-link/gtex-link/pkg/config"
	"github.com/gtex-link/gtex-link/pkg/logging"
	"github.com/gtex-link/gtex-link/pkg/service"
)

// Server is the gateway HTTP server.
type Server struct {
	router *chi.Mux
	server *http.Server
	svc    *service.Service
	cfg    config.ServerConfig
	logger zerolog.Logger
}

// New creates a gateway server around a GTEx service.
func New(svc *service.Service, cfg config.ServerConfig, addr string) *Server {
	r := chi.NewRouter()

	s := &Server{
		router: r,
		svc:    svc,
		cfg:    cfg,
		logger: logging.NewLogger("server"),
	}

	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	s.registerRoutes()

	s.server = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// Handler exposes the underlying router for testing.
func (s *Server) Handler() http.Handler {
	return s.router
}
