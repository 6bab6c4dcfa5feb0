package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/momah-portal/embedgen/domain/embedding"
	"github.com/momah-portal/embedgen/domain/entity"
	"github.com/momah-portal/embedgen/internal/log"
	"golang.org/x/sync/errgroup"
)

// DefaultBatchSize bounds the number of records processed concurrently.
const DefaultBatchSize = 5

// DefaultCredentialName names the provider credential in error messages.
const DefaultCredentialName = "GOOGLE_API_KEY"

// EmbeddingsConfig configures the Embeddings service.
type EmbeddingsConfig struct {
	// Model is recorded alongside every stored vector.
	Model string
	// BatchSize is the number of records processed concurrently.
	BatchSize int
	// Credential is the provider credential. Empty means unconfigured,
	// which rejects every invocation before any fetch.
	Credential string
	// CredentialName is reported when Credential is empty.
	CredentialName string
}

// Embeddings runs batched embedding generation for one entity kind at a time.
type Embeddings struct {
	fetcher  Fetcher
	store    embedding.RecordStore
	embedder embedding.Embedder
	observer embedding.Observer
	logger   *slog.Logger
	now      func() time.Time
	config   EmbeddingsConfig
}

// NewEmbeddings creates a new Embeddings service.
func NewEmbeddings(
	store embedding.RecordStore,
	embedder embedding.Embedder,
	config EmbeddingsConfig,
	logger *slog.Logger,
) *Embeddings {
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultBatchSize
	}
	if config.CredentialName == "" {
		config.CredentialName = DefaultCredentialName
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Embeddings{
		fetcher:  NewFetcher(store),
		store:    store,
		embedder: embedder,
		observer: embedding.NopObserver{},
		logger:   logger,
		now:      time.Now,
		config:   config,
	}
}

// WithObserver sets the progress observer.
func (s *Embeddings) WithObserver(o embedding.Observer) *Embeddings {
	if o != nil {
		s.observer = o
	}
	return s
}

// WithClock sets the clock used for embedding_generated_date.
func (s *Embeddings) WithClock(now func() time.Time) *Embeddings {
	if now != nil {
		s.now = now
	}
	return s
}

// Model returns the embedding model name recorded with each vector.
func (s *Embeddings) Model() string { return s.config.Model }

// BatchSize returns the configured batch size.
func (s *Embeddings) BatchSize() int { return s.config.BatchSize }

// Generate embeds the selected records of one entity kind and writes the
// vectors back. The returned error is non-nil only for an unsupported
// entity, an invalid mode, a missing credential, or a fetch failure;
// every per-record failure is reported in the summary instead.
func (s *Embeddings) Generate(ctx context.Context, entityName, mode string, ids []string) (embedding.Summary, error) {
	name, err := entity.ParseName(entityName)
	if err != nil {
		return embedding.Summary{}, err
	}
	m, err := embedding.ParseMode(mode, ids)
	if err != nil {
		return embedding.Summary{}, err
	}
	if s.config.Credential == "" {
		return embedding.Summary{}, &embedding.MissingCredentialError{Name: s.config.CredentialName}
	}

	req := embedding.NewRequest(name, m, ids)
	records, err := s.fetcher.Fetch(ctx, req)
	if err != nil {
		return embedding.Summary{}, err
	}

	logger := log.ForEntity(s.logger, string(name))
	s.observer.RunStarted(name, len(records))
	if len(records) == 0 {
		logger.Info("no records to embed", slog.String("mode", string(m)))
		return embedding.NewSummary(name, nil), nil
	}

	logger.Info("embedding generation started",
		slog.String("mode", string(m)),
		slog.Int("records", len(records)),
		slog.Int("batch_size", s.config.BatchSize),
	)

	results := make([]embedding.Outcome, 0, len(records))
	for start := 0; start < len(records); start += s.config.BatchSize {
		end := min(start+s.config.BatchSize, len(records))
		results = append(results, s.runBatch(ctx, logger, name, records[start:end])...)
	}

	summary := embedding.NewSummary(name, results)
	logger.Info("embedding generation finished",
		slog.Int("processed", summary.Processed),
		slog.Int("successful", summary.Successful),
		slog.Int("failed", summary.Failed),
	)
	return summary, nil
}

// runBatch processes every record of the batch concurrently and waits for
// all of them. Outcomes keep the order of the input records.
func (s *Embeddings) runBatch(ctx context.Context, logger *slog.Logger, name entity.Name, batch []entity.Record) []embedding.Outcome {
	started := time.Now()
	outcomes := make([]embedding.Outcome, len(batch))

	var g errgroup.Group
	for i, record := range batch {
		g.Go(func() error {
			outcomes[i] = s.process(ctx, logger, name, record)
			s.observer.RecordProcessed(name, outcomes[i])
			return nil
		})
	}
	_ = g.Wait()

	s.observer.BatchCompleted(name, len(batch), time.Since(started))
	return outcomes
}

// process embeds one record. A panic is confined to the record's outcome.
func (s *Embeddings) process(ctx context.Context, logger *slog.Logger, name entity.Name, record entity.Record) (outcome embedding.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			outcome = s.failed(logger, record.ID(), fmt.Errorf("%w: %v", ErrRecordPanic, r))
		}
	}()

	text, err := entity.Compose(name, record)
	if err != nil {
		return s.failed(logger, record.ID(), err)
	}

	vector, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return s.failed(logger, record.ID(), err)
	}

	if err := s.store.UpdateEmbedding(ctx, name, record.ID(), vector, s.config.Model, s.now()); err != nil {
		return s.failed(logger, record.ID(), err)
	}

	return embedding.Succeeded(record.ID(), len(vector))
}

func (s *Embeddings) failed(logger *slog.Logger, id string, err error) embedding.Outcome {
	logger.Warn("record embedding failed",
		slog.String("id", id),
		slog.String("error", err.Error()),
	)
	return embedding.Failed(id, err)
}
