// Package server provides the dashboard HTTP server.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/xolodev/xolo-go/internal/application/container"
	"github.com/xolodev/xolo-go/internal/presentation/http/routes"
	"github.com/xolodev/xolo-go/pkg/config"
)

// Server wraps the dashboard HTTP server.
type Server struct {
	httpServer *http.Server
	container  *container.Container
}

// New creates the dashboard server on the given port.
func New(port string, c *container.Container) *Server {
	router := routes.SetupRoutes(c)

	httpServer := &http.Server{
		Addr:        ":" + port,
		Handler:     router,
		ReadTimeout: config.ServerReadTimeout,
		IdleTimeout: config.ServerIdleTimeout,
	}

	return &Server{
		httpServer: httpServer,
		container:  c,
	}
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.container.Logger.Dashboard().Info("Dashboard server listening", "address", s.httpServer.Addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start dashboard server: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
