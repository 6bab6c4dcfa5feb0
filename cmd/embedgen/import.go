package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/momah-portal/embedgen/application/service"
	"github.com/momah-portal/embedgen/internal/config"
)

// importFile is the document accepted by the import command. JSON files
// parse as YAML.
type importFile struct {
	Entity  string               `yaml:"entity"`
	Records []service.ImportItem `yaml:"records"`
}

var errNoEntity = errors.New("entity kind not set: pass --entity or set entity in the file")

func importCmd() *cobra.Command {
	var entityName string

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Load records from a YAML or JSON file",
		Long: `Load records from a YAML or JSON file into an entity table.

The file holds either a list of records or a document with an entity kind:

  entity: Challenge
  records:
    - id: c-1
      fields:
        title_en: Smart parking
        keywords: [mobility, sensors]

Records without an id get a generated UUID. Re-importing an id replaces its
fields and clears its embedding.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open import file: %w", err)
			}
			defer func() { _ = f.Close() }()

			doc, err := parseImportFile(f)
			if err != nil {
				return err
			}
			if entityName != "" {
				doc.Entity = entityName
			}
			if doc.Entity == "" {
				return errNoEntity
			}
			return runImport(cmd.Context(), cmd.OutOrStdout(), cfg, doc)
		},
	}

	cmd.Flags().StringVar(&entityName, "entity", "", "Entity kind; overrides the file's entity")

	return cmd
}

// parseImportFile accepts a document with entity and records, or a bare
// list of records.
func parseImportFile(r io.Reader) (importFile, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return importFile{}, fmt.Errorf("read import file: %w", err)
	}

	var node yaml.Node
	if err := yaml.Unmarshal(raw, &node); err != nil {
		return importFile{}, fmt.Errorf("parse import file: %w", err)
	}
	if len(node.Content) == 0 {
		return importFile{}, nil
	}

	var doc importFile
	switch node.Content[0].Kind {
	case yaml.SequenceNode:
		if err := node.Content[0].Decode(&doc.Records); err != nil {
			return importFile{}, fmt.Errorf("parse import records: %w", err)
		}
	default:
		if err := node.Content[0].Decode(&doc); err != nil {
			return importFile{}, fmt.Errorf("parse import file: %w", err)
		}
	}
	return doc, nil
}

func runImport(ctx context.Context, out io.Writer, cfg config.AppConfig, doc importFile) error {
	client, logger, err := newClient(cfg)
	if err != nil {
		return err
	}
	defer closeClient(client, logger)

	res, err := client.Records.Import(ctx, doc.Entity, doc.Records)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "imported %d %s records (%d replaced)\n", len(res.IDs), doc.Entity, res.Replaced)
	return err
}
