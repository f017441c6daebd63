package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/hearth"
	"github.com/aretw0/hearth/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes conversations as MCP tools, so an AI agent can search stays and
raise support tickets on a visitor's behalf.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")

		logger := newLogger()
		a, err := setup(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()
		defer func() {
			if err := a.assistant.Shutdown(context.WithoutCancel(cmd.Context())); err != nil {
				logger.Warn("failed to archive live conversations", "err", err)
			}
		}()

		srv := mcp.NewServer(a.assistant.Sessions(), hearth.Version,
			mcp.WithCatalog(a.assistant.Catalog()),
			mcp.WithLogger(logger),
		)

		switch transport {
		case "stdio":
			// Ensure logs don't corrupt JSON-RPC on Stdout
			log.SetOutput(os.Stderr)
			logger.Info("starting hearth mcp server (stdio)")
			if err := srv.ServeStdio(); err != nil {
				return fmt.Errorf("mcp server failed: %w", err)
			}
			return nil
		case "sse":
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := srv.ServeSSE(ctx, cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("mcp server failed: %w", err)
			}
			logger.Info("mcp server stopped gracefully")
			return nil
		default:
			return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8080, "Port to listen on (only for SSE, overrides HEARTH_PORT)")
}
