package service

import (
	"context"
	"fmt"

	"github.com/momah-portal/embedgen/domain/embedding"
	"github.com/momah-portal/embedgen/domain/entity"
	"github.com/momah-portal/embedgen/domain/repository"
)

// Fetcher selects the candidate records for one request.
type Fetcher struct {
	store embedding.RecordStore
}

// NewFetcher creates a Fetcher over the store.
func NewFetcher(store embedding.RecordStore) Fetcher {
	return Fetcher{store: store}
}

// Fetch returns the records selected by the request's mode. Any store error
// is returned as is; there is no partial recovery.
//
// In ids mode each id is looked up on its own and the results are
// flattened, so unknown or duplicate ids simply change the count.
func (f Fetcher) Fetch(ctx context.Context, req embedding.Request) ([]entity.Record, error) {
	name := req.EntityName()

	switch req.Mode() {
	case embedding.ModeIDs:
		var records []entity.Record
		for _, id := range req.IDs() {
			found, err := f.store.Find(ctx, name, repository.WithID(id))
			if err != nil {
				return nil, fmt.Errorf("fetch %s %s: %w", name, id, err)
			}
			records = append(records, found...)
		}
		return records, nil

	case embedding.ModeMissing:
		all, err := f.store.List(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", name, err)
		}
		missing := make([]entity.Record, 0, len(all))
		for _, r := range all {
			if !r.HasEmbedding() {
				missing = append(missing, r)
			}
		}
		return missing, nil

	default:
		all, err := f.store.List(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", name, err)
		}
		return all, nil
	}
}
