package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/aristath/tasktracker/internal/manager"
)

// Server hosts the task tracker HTTP API.
type Server struct {
	http   *http.Server
	logger *log.Logger
}

// NewServer builds the API server around a manager. listen is the
// host:port pair to bind.
func NewServer(m *manager.Manager, logger *log.Logger, listen string) *Server {
	return &Server{
		http: &http.Server{
			Addr:         listen,
			Handler:      newRouter(m, logger),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// Start listens and serves until the listener fails or Shutdown is
// called. A shutdown-initiated close is not an error.
func (s *Server) Start() error {
	s.logger.Info("api server listening", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server listen failed: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down api server")
	if err := s.http.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.http.Addr
}
