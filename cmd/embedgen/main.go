// Package main is the entry point for the embedgen CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/momah-portal/embedgen/internal/config"
)

// Version information set via ldflags during build.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "embedgen",
		Short:         "Embedding generation for portal entities",
		Long:          `embedgen composes portal records into text, embeds them through a remote provider in small concurrent batches, and stores the vectors back on each record.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringArray("env-file", nil, "Path to a .env file; repeat to layer files (default: .env in current directory)")
	cmd.PersistentFlags().Bool("env-override", false, "Let .env files override variables already set in the environment")
	cmd.PersistentFlags().String("env-prefix", "", "Read variables with this prefix, e.g. EMBEDGEN reads EMBEDGEN_PORT")

	cmd.AddCommand(serveCmd())
	cmd.AddCommand(generateCmd())
	cmd.AddCommand(importCmd())
	cmd.AddCommand(stdioCmd())
	cmd.AddCommand(versionCmd())

	return cmd
}

// loadConfig loads configuration from .env files and environment variables.
func loadConfig(cmd *cobra.Command) (config.AppConfig, error) {
	envFiles, _ := cmd.Flags().GetStringArray("env-file")
	override, _ := cmd.Flags().GetBool("env-override")
	prefix, _ := cmd.Flags().GetString("env-prefix")

	cfg, err := config.LoadConfig(config.Sources{
		EnvFiles: envFiles,
		Override: override,
		Prefix:   prefix,
	})
	if err != nil {
		return config.AppConfig{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
