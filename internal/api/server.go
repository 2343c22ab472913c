// Package api exposes the reporting pipeline over HTTP: trigger a run,
// read the derived views, inspect discrepancies.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ignite/revenue-reporter/internal/config"
	"github.com/ignite/revenue-reporter/internal/pkg/logger"
)

// Server wraps the HTTP server and its routed handlers.
type Server struct {
	config   config.ServerConfig
	handlers *Handlers
	server   *http.Server
}

// NewServer creates an API server around a pipeline runner.
func NewServer(cfg config.ServerConfig, runner Runner) *Server {
	handlers := NewHandlers(runner)
	return &Server{
		config:   cfg,
		handlers: handlers,
	}
}

// Handlers exposes the handler set, mainly for tests.
func (s *Server) Handlers() *Handlers { return s.handlers }

// Start begins serving and blocks until the listener fails or the
// server is shut down.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      SetupRoutes(s.handlers),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	logger.Info("api server listening", "port", s.config.Port)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
