// Package servecmder provides the serve command running the arena server.
package servecmder

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/manroop79/coding-arena/api"
	"github.com/manroop79/coding-arena/pkg/agent"
	"github.com/manroop79/coding-arena/pkg/agent/anthropic"
	"github.com/manroop79/coding-arena/pkg/agent/mock"
	"github.com/manroop79/coding-arena/pkg/agent/openai"
	"github.com/manroop79/coding-arena/pkg/config"
	"github.com/manroop79/coding-arena/pkg/diff"
	"github.com/manroop79/coding-arena/pkg/logger"
	"github.com/manroop79/coding-arena/pkg/run"
	"github.com/manroop79/coding-arena/pkg/stream"
)

type ServeCommander struct {
	listen       string
	uploadDir    string
	workspaceDir string
	debug        bool
	logger       *zap.Logger
}

const serveLongDesc string = `Run the arena HTTP server.

Exposes run submission (POST /api/run), the agent catalog
(GET /api/agents), and the observer event stream (GET /api/stream).`

const serveShortDesc string = "Run the arena server"

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %v", err)
			}
			return cmder.run()
		},
	}

	cmd.Flags().StringVarP(&cmder.listen, "listen", "l", "", "Address for the server to listen on (default from config)")
	cmd.Flags().StringVar(&cmder.uploadDir, "upload-dir", "", "Directory for uploaded attachments (default from config)")
	cmd.Flags().StringVar(&cmder.workspaceDir, "workspace-dir", "", "Workspace directory for agents (default from config)")

	return cmd
}

func (c *ServeCommander) run() error {
	c.logger = logger.NewLogger(c.debug)
	defer c.logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Flags beat config file and environment.
	if c.listen != "" {
		cfg.Server.Listen = c.listen
	}
	if c.uploadDir != "" {
		cfg.Uploads.Dir = c.uploadDir
	}
	if c.workspaceDir != "" {
		cfg.Workspace.Dir = c.workspaceDir
	}

	if err := os.MkdirAll(cfg.Uploads.Dir, 0o755); err != nil {
		return fmt.Errorf("creating upload dir: %w", err)
	}
	if err := os.MkdirAll(cfg.Workspace.Dir, 0o755); err != nil {
		return fmt.Errorf("creating workspace dir: %w", err)
	}

	diffs := diff.NewStore()
	mockAdapter := mock.New(diffs)
	adapters := []agent.Adapter{
		mockAdapter,
		openai.New(cfg, diffs, mockAdapter),
		anthropic.New(cfg, diffs, mockAdapter),
	}

	bus := run.NewBus(c.logger)
	registry := run.NewRegistry(bus, c.logger)
	orch := run.NewOrchestrator(registry, c.logger)
	streamer := stream.New(registry, c.logger, stream.WithHeartbeat(cfg.Stream.Heartbeat))

	server := api.NewServer(api.Config{
		ListenAddr:   cfg.Server.Listen,
		UploadDir:    cfg.Uploads.Dir,
		WorkspaceDir: cfg.Workspace.Dir,
	}, cfg, registry, orch, streamer, adapters, c.logger)

	c.logger.Info("starting arena",
		zap.String("listen", cfg.Server.Listen),
		zap.String("upload_dir", cfg.Uploads.Dir),
		zap.String("workspace_dir", cfg.Workspace.Dir),
		zap.Bool("openai_available", cfg.OpenAI.APIKey != ""),
		zap.Bool("anthropic_available", cfg.Anthropic.APIKey != ""),
	)

	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("shutting down", zap.String("signal", sig.String()))
		return server.Shutdown()
	}
}
