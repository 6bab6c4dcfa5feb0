package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/momah-portal/embedgen/infrastructure/api"
	"github.com/momah-portal/embedgen/internal/config"
)

// shutdownTimeout bounds graceful shutdown of in-flight requests.
const shutdownTimeout = 30 * time.Second

func serveCmd() *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the HTTP API server.

Configuration is loaded in the following order (later sources override earlier):
  1. Default values
  2. .env files (each --env-file in order, or .env in the current directory)
  3. Environment variables
  4. Command line flags

Environment variables:
  HOST                   Server host to bind to (default: 0.0.0.0)
  PORT                   Server port to listen on (default: 8080)
  DATA_DIR               Data directory (default: ~/.embedgen)
  DB_URL                 Database URL (default: sqlite:///{data_dir}/embedgen.db)
  LOG_LEVEL              Log level: DEBUG, INFO, WARN, ERROR (default: INFO)
  LOG_FORMAT             Log format: pretty, json (default: pretty)
  API_KEYS               Comma-separated list of valid API keys
  CORS_ALLOWED_ORIGINS   Comma-separated list of allowed browser origins
  METRICS_ENABLED        Serve Prometheus metrics at /metrics (default: true)
  HTTP_CACHE_DIR         Cache provider responses in this directory
  GOOGLE_API_KEY         Credential for the gemini provider

  EMBEDDING_*            Embedding provider configuration
    PROVIDER             gemini or openai (default: gemini)
    MODEL                Model identifier (default: text-embedding-004)
    BASE_URL             Provider base URL
    API_KEY              Credential for the openai provider
    TIMEOUT              Request timeout in seconds (default: 60)
    MAX_RETRIES          Retry attempts, openai only (default: 0)
    BATCH_SIZE           Records embedded concurrently (default: 5)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runServe(applyServeOverrides(cfg, host, port))
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Server host to bind to (default: 0.0.0.0)")
	cmd.Flags().IntVar(&port, "port", 0, "Server port to listen on (default: 8080)")

	return cmd
}

func runServe(cfg config.AppConfig) error {
	client, logger, err := newClient(cfg)
	if err != nil {
		return err
	}
	defer closeClient(client, logger)

	apiServer := api.NewAPIServer(client,
		api.WithCORSAllowedOrigins(cfg.CORSAllowedOrigins()),
		api.WithMetricsEndpoint(cfg.MetricsEnabled()),
		api.WithVersion(version),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("listening", slog.String("host", cfg.Host()), slog.Int("port", cfg.Port()))

	errCh := make(chan error, 1)
	go func() {
		errCh <- apiServer.ListenAndServe(cfg.Addr())
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", slog.Any("error", err))
		return err
	}
	return <-errCh
}

// applyServeOverrides applies command line flag overrides to the config.
func applyServeOverrides(cfg config.AppConfig, host string, port int) config.AppConfig {
	var opts []config.AppConfigOption

	if host != "" {
		opts = append(opts, config.WithHost(host))
	}
	if port != 0 {
		opts = append(opts, config.WithPort(port))
	}

	return cfg.Apply(opts...)
}
