package embedding

import (
	"context"
	"time"

	"github.com/momah-portal/embedgen/domain/entity"
	"github.com/momah-portal/embedgen/domain/repository"
)

// Embedder converts one text into an embedding vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// RecordStore reads entity rows and writes their embedding fields.
type RecordStore interface {
	// List returns every record of the kind.
	List(ctx context.Context, name entity.Name) ([]entity.Record, error)

	// Find returns the records matching the options.
	Find(ctx context.Context, name entity.Name, options ...repository.Option) ([]entity.Record, error)

	// UpdateEmbedding writes the three embedding fields of one record.
	UpdateEmbedding(ctx context.Context, name entity.Name, id string, vector []float64, model string, at time.Time) error
}

// Observer receives progress notifications. Implementations must be safe
// for concurrent use.
type Observer interface {
	RunStarted(name entity.Name, candidates int)
	RecordProcessed(name entity.Name, outcome Outcome)
	BatchCompleted(name entity.Name, size int, elapsed time.Duration)
}

// NopObserver ignores all notifications.
type NopObserver struct{}

// RunStarted implements Observer.
func (NopObserver) RunStarted(entity.Name, int) {}

// RecordProcessed implements Observer.
func (NopObserver) RecordProcessed(entity.Name, Outcome) {}

// BatchCompleted implements Observer.
func (NopObserver) BatchCompleted(entity.Name, int, time.Duration) {}

// Observers fans notifications out to several observers in order.
type Observers []Observer

// RunStarted implements Observer.
func (o Observers) RunStarted(name entity.Name, candidates int) {
	for _, obs := range o {
		obs.RunStarted(name, candidates)
	}
}

// RecordProcessed implements Observer.
func (o Observers) RecordProcessed(name entity.Name, outcome Outcome) {
	for _, obs := range o {
		obs.RecordProcessed(name, outcome)
	}
}

// BatchCompleted implements Observer.
func (o Observers) BatchCompleted(name entity.Name, size int, elapsed time.Duration) {
	for _, obs := range o {
		obs.BatchCompleted(name, size, elapsed)
	}
}
