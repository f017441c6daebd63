package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/hearth"
	httpAdapter "github.com/aretw0/hearth/pkg/adapters/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

// shutdownTimeout bounds graceful shutdown of the listener and the archive flush.
const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Serves conversations over a JSON API, with Server-Sent Events and a
websocket per session for the chat widget, and Prometheus metrics on /metrics.

Idle conversations are archived after HEARTH_IDLE_TTL.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		slog.SetDefault(logger)

		streams := httpAdapter.NewStreamManager(httpAdapter.WithStreamLogger(logger))
		a, err := setup(cmd.Context(), cfg, logger, hearth.WithNavigator(streams))
		if err != nil {
			return err
		}
		defer a.Close()

		handler := httpAdapter.NewHandler(a.assistant.Sessions(),
			httpAdapter.WithLogger(logger),
			httpAdapter.WithStreams(streams),
			httpAdapter.WithAllowedOrigin(cfg.AllowedOrigin),
			httpAdapter.WithVersion(hearth.Version),
			httpAdapter.WithMetricsHandler(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})),
		)

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		go func() {
			if err := a.assistant.Run(ctx, evictInterval(cfg.IdleTTL)); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("eviction loop stopped", "err", err)
			}
		}()

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("hearth server listening", "address", srv.Addr, "backend", cfg.Backend, "store", cfg.Store)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server error: %w", err)
			}
			return nil

		case <-ctx.Done():
			logger.Info("shutdown signal received")

			// Give outstanding requests a deadline for completion.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("graceful shutdown did not complete", "err", err)
				if err := srv.Close(); err != nil {
					logger.Error("failed to close server", "err", err)
				}
			}
			if err := a.assistant.Shutdown(shutdownCtx); err != nil {
				logger.Warn("failed to archive live conversations", "err", err)
			}
			logger.Info("hearth server stopped gracefully")
			return nil
		}
	},
}

// evictInterval checks for idle conversations a few times per TTL.
func evictInterval(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return time.Minute
	}
	interval := ttl / 4
	if interval < time.Second {
		interval = time.Second
	}
	return interval
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on (overrides HEARTH_PORT)")
}
