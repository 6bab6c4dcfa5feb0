package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/momah-portal/embedgen/domain/embedding"
	"github.com/momah-portal/embedgen/domain/entity"
	"github.com/momah-portal/embedgen/domain/repository"
)

// RecordCatalog extends the embedding store with the reads and writes
// needed to manage entity rows directly.
type RecordCatalog interface {
	embedding.RecordStore
	Get(ctx context.Context, name entity.Name, id string) (entity.Record, error)
	Count(ctx context.Context, name entity.Name, options ...repository.Option) (int64, error)
	SaveAll(ctx context.Context, name entity.Name, records []entity.Record) (int64, error)
}

// ImportItem is one row to load into an entity table.
type ImportItem struct {
	ID     string         `json:"id" yaml:"id"`
	Fields map[string]any `json:"fields" yaml:"fields"`
}

// ImportResult lists the ids written by an import. Replaced counts the
// ids that already existed and so lost their embedding.
type ImportResult struct {
	IDs      []string
	Replaced int64
}

// RecordListParams configures record listing. MissingOnly and Embedded
// are mutually exclusive; MissingOnly wins when both are set.
type RecordListParams struct {
	MissingOnly bool
	Embedded    bool
	Model       string
	Descending  bool
	Limit       int
	Offset      int
}

// filters returns the WHERE options shared by List and Count.
func (p RecordListParams) filters() []repository.Option {
	var opts []repository.Option
	switch {
	case p.MissingOnly:
		opts = append(opts, repository.WithEmbeddingMissing())
	case p.Embedded:
		opts = append(opts, repository.WithEmbeddingPresent())
	}
	if p.Model != "" {
		opts = append(opts, repository.WithEmbeddingModel(p.Model))
	}
	return opts
}

func (p RecordListParams) order() []repository.Option {
	if p.Descending {
		return []repository.Option{repository.WithOrderDesc("created_at"), repository.WithOrderDesc("id")}
	}
	return []repository.Option{repository.WithOrderAsc("created_at"), repository.WithOrderAsc("id")}
}

// Coverage reports how many rows of one kind carry an embedding.
type Coverage struct {
	Entity  entity.Name `json:"entity"`
	Table   string      `json:"table"`
	Total   int64       `json:"total"`
	Missing int64       `json:"missing"`
}

// Records manages entity rows and reports embedding coverage.
type Records struct {
	catalog RecordCatalog
	logger  *slog.Logger
}

// NewRecords creates a new Records service.
func NewRecords(catalog RecordCatalog, logger *slog.Logger) *Records {
	if logger == nil {
		logger = slog.Default()
	}
	return &Records{catalog: catalog, logger: logger}
}

// Import saves the items into the entity table in one transaction. Items
// without an id get a generated UUID. Re-importing an existing id replaces
// its fields and clears its embedding.
func (s *Records) Import(ctx context.Context, entityName string, items []ImportItem) (ImportResult, error) {
	name, err := entity.ParseName(entityName)
	if err != nil {
		return ImportResult{}, err
	}

	records := make([]entity.Record, len(items))
	ids := make([]string, len(items))
	for i, item := range items {
		id := item.ID
		if id == "" {
			id = uuid.NewString()
		}
		records[i] = entity.NewRecord(id, item.Fields)
		ids[i] = id
	}

	replaced, err := s.catalog.SaveAll(ctx, name, records)
	if err != nil {
		return ImportResult{}, fmt.Errorf("import %s: %w", name, err)
	}

	s.logger.Info("records imported",
		slog.String("entity", string(name)),
		slog.Int("count", len(records)),
		slog.Int64("replaced", replaced),
	)
	return ImportResult{IDs: ids, Replaced: replaced}, nil
}

// Get returns one record.
func (s *Records) Get(ctx context.Context, entityName, id string) (entity.Record, error) {
	name, err := entity.ParseName(entityName)
	if err != nil {
		return entity.Record{}, err
	}
	return s.catalog.Get(ctx, name, id)
}

// List returns records of one kind, oldest first unless params.Descending.
func (s *Records) List(ctx context.Context, entityName string, params RecordListParams) ([]entity.Record, error) {
	name, err := entity.ParseName(entityName)
	if err != nil {
		return nil, err
	}

	opts := append(params.filters(), params.order()...)
	if params.Limit > 0 {
		opts = append(opts, repository.WithPagination(params.Limit, params.Offset)...)
	}
	return s.catalog.Find(ctx, name, opts...)
}

// Count returns the number of records of one kind matching the filters of
// params. Ordering and pagination are ignored.
func (s *Records) Count(ctx context.Context, entityName string, params RecordListParams) (int64, error) {
	name, err := entity.ParseName(entityName)
	if err != nil {
		return 0, err
	}
	return s.catalog.Count(ctx, name, params.filters()...)
}

// Coverage returns total and missing counts for every entity kind.
func (s *Records) Coverage(ctx context.Context) ([]Coverage, error) {
	names := entity.Names()
	result := make([]Coverage, 0, len(names))
	for _, name := range names {
		total, err := s.catalog.Count(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", name, err)
		}
		missing, err := s.catalog.Count(ctx, name, repository.WithEmbeddingMissing())
		if err != nil {
			return nil, fmt.Errorf("count missing %s: %w", name, err)
		}
		result = append(result, Coverage{
			Entity:  name,
			Table:   name.Table(),
			Total:   total,
			Missing: missing,
		})
	}
	return result, nil
}
