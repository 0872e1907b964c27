// Package handlers serves the portfolio services over HTTP, binding form
// and JSON bodies to service inputs and mapping domain errors onto
// redirects and status codes.
package handlers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

const (
	shutdownTimeout = 5 * time.Second
	maxBodySize     = 32 << 20
)

// Server is the HTTP front of the portfolio system.
type Server struct {
	app      *fiber.App
	logger   *zap.Logger
	endpoint string
}

// NewServer builds a fiber app listening on port with panic recovery and
// request logging installed.
func NewServer(port int, logger *zap.Logger) *Server {
	app := fiber.New(fiber.Config{
		AppName:               "vcpms",
		BodyLimit:             maxBodySize,
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(RequestLogger(logger))
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})
	return &Server{
		app:      app,
		logger:   logger,
		endpoint: fmt.Sprintf(":%d", port),
	}
}

// RegisterHandler mounts every route of h.
func (s *Server) RegisterHandler(h *Handler) {
	h.Register(s.app)
}

// App exposes the fiber app, mainly for in-process requests in tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start listens until Stop is called or the listener fails.
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server", zap.String("endpoint", s.endpoint))
	if err := s.app.Listen(s.endpoint); err != nil {
		return fmt.Errorf("HTTP serve error: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop() {
	s.logger.Info("Shutting down server...")
	if err := s.app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		s.logger.Error("HTTP server shutdown error", zap.Error(err))
	}
	s.logger.Info("Server stopped")
}
