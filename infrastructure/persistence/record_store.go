package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/momah-portal/embedgen/domain/entity"
	"github.com/momah-portal/embedgen/domain/repository"
	"github.com/momah-portal/embedgen/internal/database"
)

type recordRepository = database.Repository[entity.Record, RecordModel]

// RecordStore implements embedding.RecordStore over one table per entity kind.
type RecordStore struct {
	repos map[entity.Name]recordRepository
}

// NewRecordStore creates a RecordStore covering every supported entity kind.
func NewRecordStore(db database.Database) RecordStore {
	repos := make(map[entity.Name]recordRepository, len(entity.Names()))
	for _, name := range entity.Names() {
		repos[name] = database.NewRepositoryForTable[entity.Record, RecordModel](
			db, RecordMapper{}, string(name), name.Table(),
		)
	}
	return RecordStore{repos: repos}
}

func (s RecordStore) repo(name entity.Name) (recordRepository, error) {
	r, ok := s.repos[name]
	if !ok {
		return recordRepository{}, entity.NewUnsupportedEntityError(string(name))
	}
	return r, nil
}

// List returns every record of the kind, oldest first.
func (s RecordStore) List(ctx context.Context, name entity.Name) ([]entity.Record, error) {
	return s.Find(ctx, name, repository.WithOrderAsc("created_at"), repository.WithOrderAsc("id"))
}

// Find returns the records matching the options.
func (s RecordStore) Find(ctx context.Context, name entity.Name, options ...repository.Option) ([]entity.Record, error) {
	r, err := s.repo(name)
	if err != nil {
		return nil, err
	}
	return r.Find(ctx, options...)
}

// Get returns one record by id.
func (s RecordStore) Get(ctx context.Context, name entity.Name, id string) (entity.Record, error) {
	r, err := s.repo(name)
	if err != nil {
		return entity.Record{}, err
	}
	return r.FindOne(ctx, repository.WithID(id))
}

// Count returns the number of records matching the options.
func (s RecordStore) Count(ctx context.Context, name entity.Name, options ...repository.Option) (int64, error) {
	r, err := s.repo(name)
	if err != nil {
		return 0, err
	}
	return r.Count(ctx, options...)
}

// Save inserts or replaces one record. Replacing a record clears any
// stored embedding.
func (s RecordStore) Save(ctx context.Context, name entity.Name, record entity.Record) (entity.Record, error) {
	r, err := s.repo(name)
	if err != nil {
		return entity.Record{}, err
	}
	return r.Save(ctx, record)
}

// SaveAll inserts or replaces records atomically and returns how many of
// them replaced an existing row.
func (s RecordStore) SaveAll(ctx context.Context, name entity.Name, records []entity.Record) (int64, error) {
	r, err := s.repo(name)
	if err != nil {
		return 0, err
	}
	ids := make([]string, len(records))
	for i, record := range records {
		ids[i] = record.ID()
	}
	return r.SaveAll(ctx, records, repository.WithIDIn(ids))
}

// UpdateEmbedding writes the embedding columns of one record. Other
// columns are untouched.
func (s RecordStore) UpdateEmbedding(
	ctx context.Context,
	name entity.Name,
	id string,
	vector []float64,
	model string,
	at time.Time,
) error {
	r, err := s.repo(name)
	if err != nil {
		return err
	}

	n, err := r.UpdateColumns(ctx, map[string]any{
		"embedding":                database.NewVector(vector),
		"embedding_model":          model,
		"embedding_generated_date": at,
		"updated_at":               at,
	}, repository.WithID(id))
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s %s", database.ErrNotFound, name, id)
	}
	return nil
}
