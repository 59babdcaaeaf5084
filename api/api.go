// Package api exposes the arena over HTTP: run submission, the agent
// catalog, and the per-observer SSE event stream.
package api

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/manroop79/coding-arena/pkg/agent"
	"github.com/manroop79/coding-arena/pkg/config"
	"github.com/manroop79/coding-arena/pkg/run"
	"github.com/manroop79/coding-arena/pkg/stream"
)

// ErrorResponse is the JSON error body for failed requests.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Server is the arena HTTP server. The registry, orchestrator, and
// streamer are injected so tests can construct everything against a fresh
// in-memory state.
type Server struct {
	config   Config
	cfg      *config.Config
	registry *run.Registry
	orch     *run.Orchestrator
	streamer *stream.Streamer
	adapters []agent.Adapter
	logger   *zap.Logger
	app      *fiber.App
}

// NewServer creates the API server and registers its routes.
func NewServer(apiConfig Config, cfg *config.Config, registry *run.Registry, orch *run.Orchestrator, streamer *stream.Streamer, adapters []agent.Adapter, logger *zap.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		// Enable streaming bodies for multipart uploads
		StreamRequestBody: true,
	})

	s := &Server{
		config:   apiConfig,
		cfg:      cfg,
		registry: registry,
		orch:     orch,
		streamer: streamer,
		adapters: adapters,
		logger:   logger,
		app:      app,
	}

	app.Get("/ping", s.handlePing)
	app.Get("/api/agents", s.handleListAgents)
	app.Post("/api/run", s.handleCreateRun)
	app.Get("/api/stream", s.handleStream)

	return s
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting arena server",
		zap.String("listen", s.config.ListenAddr),
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// agentInfo describes one configured adapter for the catalog endpoint.
type agentInfo struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Available   bool   `json:"available"`
}

// handleListAgents returns the configured adapters and their availability
// under the current configuration.
func (s *Server) handleListAgents(c *fiber.Ctx) error {
	infos := make([]agentInfo, 0, len(s.adapters))
	for _, a := range s.adapters {
		infos = append(infos, agentInfo{
			ID:          a.ID(),
			DisplayName: a.DisplayName(),
			Available:   a.Available(s.cfg),
		})
	}
	return c.JSON(map[string]any{"agents": infos})
}
