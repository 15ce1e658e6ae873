package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/sitepatch"
	"github.com/jpalmerr/sitepatch/config"
)

// forceExitGrace is added to the configured shutdown timeout before the
// CLI gives up waiting for a graceful stop.
const forceExitGrace = 5 * time.Second

// newServeCmd starts the sitepatch server.
func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the site and accept saves",
		Long: `Start the sitepatch server.

The server will:
  - Serve files under the site root, with "/" mapped to the document
  - Accept POST /save-projects and rewrite the document's literal
  - Stream save events on /api/events (SSE) and /ws (websocket)

Flags override values from the config file. The server runs until
interrupted (Ctrl+C) or receives SIGTERM.

Example:
  sitepatch serve
  sitepatch serve --root ./site --port 9000
  sitepatch serve -c sitepatch.yaml`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	addConfigFlags(cmd)
	cmd.Flags().Int("port", 0, "HTTP port (default: 8080)")
	cmd.Flags().String("log-level", "", "log level: debug, info, warn, error (default: info)")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := config.NewLogger(cfg, os.Stderr)
	if err != nil {
		return err
	}

	srv, err := sitepatch.New(config.BuildOptions(cfg, logger)...)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	logger.Info("config loaded",
		"root", srv.Root(),
		"document", srv.DocumentPath(),
		"port", srv.Port(),
	)

	// set up context with signal handling - cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// start server - blocks until context cancelled
	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start(ctx)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		logger.Info("shutdown complete")
		return nil

	case <-ctx.Done():
		// signal received, wait for graceful shutdown with timeout
		limit := cfg.ShutdownTimeout.Duration() + forceExitGrace
		select {
		case err := <-errChan:
			if err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			logger.Info("shutdown complete")
			return nil
		case <-time.After(limit):
			logger.Warn("shutdown timed out",
				"timeout", limit.String(),
				"action", "forcing exit",
			)
			return nil
		}
	}
}
