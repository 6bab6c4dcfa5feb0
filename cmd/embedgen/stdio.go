package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/momah-portal/embedgen/internal/mcp"
)

func stdioCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stdio",
		Short: "Start MCP server on stdio",
		Long: `Start the MCP (Model Context Protocol) server on stdio.

Exposes the generate_embeddings and list_entity_types tools. Logs go to
stderr so stdout carries only protocol messages.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			client, logger, err := newClient(cfg)
			if err != nil {
				return err
			}
			defer closeClient(client, logger)

			logger.Info("starting MCP server", slog.String("version", version))
			return mcp.NewServer(client.Embeddings, client.Records, version, logger).ServeStdio()
		},
	}
}
