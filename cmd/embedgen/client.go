package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/momah-portal/embedgen"
	"github.com/momah-portal/embedgen/internal/config"
	"github.com/momah-portal/embedgen/internal/log"
)

// newClient configures logging and opens an embedgen Client from cfg.
func newClient(cfg config.AppConfig) (*embedgen.Client, *slog.Logger, error) {
	if strings.HasPrefix(cfg.DBURL(), "sqlite:///") {
		if _, err := config.PrepareDataDir(cfg.DataDir()); err != nil {
			return nil, nil, err
		}
	}

	logger := log.Configure(cfg).Slog()

	attrs := append([]slog.Attr{slog.String("version", version)}, cfg.LogAttrs()...)
	logger.LogAttrs(context.Background(), slog.LevelInfo, "starting embedgen", attrs...)

	opts := append(embedgen.FromConfig(cfg), embedgen.WithLogger(logger))
	client, err := embedgen.New(opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("create embedgen client: %w", err)
	}
	return client, logger, nil
}

func closeClient(client *embedgen.Client, logger *slog.Logger) {
	if err := client.Close(); err != nil {
		logger.Error("failed to close embedgen client", slog.Any("error", err))
	}
}
