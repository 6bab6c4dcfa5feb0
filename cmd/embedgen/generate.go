package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/momah-portal/embedgen/infrastructure/api/v1/dto"
	"github.com/momah-portal/embedgen/internal/config"
)

func generateCmd() *cobra.Command {
	var (
		entityName string
		mode       string
		ids        []string
		batchSize  int
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Run one embedding generation and print the JSON summary",
		Example: `  embedgen generate --entity Challenge --mode missing
  embedgen generate --entity Pilot --ids p-1,p-2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if batchSize > 0 {
				cfg = cfg.Apply(config.WithEmbedding(
					config.NewEmbeddingWithOptions(embeddingOptions(cfg.Embedding(), config.WithBatchSize(batchSize))...),
				))
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runGenerate(ctx, cmd.OutOrStdout(), cfg, entityName, mode, ids)
		},
	}

	cmd.Flags().StringVar(&entityName, "entity", "", "Entity kind to embed (e.g. Challenge)")
	cmd.Flags().StringVar(&mode, "mode", "", "all (default) or missing")
	cmd.Flags().StringSliceVar(&ids, "ids", nil, "Explicit record ids; overrides --mode")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "Records embedded concurrently (default: EMBEDDING_BATCH_SIZE)")
	_ = cmd.MarkFlagRequired("entity")

	return cmd
}

func runGenerate(ctx context.Context, out io.Writer, cfg config.AppConfig, entityName, mode string, ids []string) error {
	client, logger, err := newClient(cfg)
	if err != nil {
		return err
	}
	defer closeClient(client, logger)

	summary, err := client.Embeddings.Generate(ctx, entityName, mode, ids)
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(dto.NewGenerateResponse(summary))
}

// embeddingOptions copies e into options so that extra can override fields.
func embeddingOptions(e config.Embedding, extra ...config.EmbeddingOption) []config.EmbeddingOption {
	opts := []config.EmbeddingOption{
		config.WithProvider(e.Provider()),
		config.WithBaseURL(e.BaseURL()),
		config.WithModel(e.Model()),
		config.WithAPIKey(e.APIKey()),
		config.WithTimeout(e.Timeout()),
		config.WithMaxRetries(e.MaxRetries()),
		config.WithBatchSize(e.BatchSize()),
	}
	return append(opts, extra...)
}
