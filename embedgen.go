// Package embedgen generates vector embeddings for portal entities.
//
// Records of seven entity kinds (challenges, solutions, pilots, R&D projects,
// programs, organizations and citizen ideas) are composed into one text each,
// embedded through a remote provider in small concurrent batches, and written
// back with the model name and generation time.
//
// Basic usage:
//
//	client, err := embedgen.New(
//	    embedgen.WithSQLite("embedgen.db"),
//	    embedgen.WithGemini(os.Getenv("GOOGLE_API_KEY")),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	summary, err := client.Embeddings.Generate(ctx, "Challenge", "missing", nil)
package embedgen

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/momah-portal/embedgen/application/service"
	"github.com/momah-portal/embedgen/domain/embedding"
	"github.com/momah-portal/embedgen/infrastructure/metrics"
	"github.com/momah-portal/embedgen/infrastructure/persistence"
	"github.com/momah-portal/embedgen/infrastructure/provider"
	"github.com/momah-portal/embedgen/internal/database"
	"github.com/momah-portal/embedgen/internal/log"
)

// ServiceName labels metrics and logs.
const ServiceName = "embedgen"

// providedCredential stands in for the credential of a custom provider,
// which manages its own authentication.
const providedCredential = "provided"

// PostgreSQL pool limits. A batch writes its rows concurrently.
const (
	postgresMaxOpen      = 10
	postgresMaxIdle      = 5
	postgresConnLifetime = 30 * time.Minute
)

// Client is the main entry point for the embedgen library.
//
// Access resources via struct fields:
//
//	client.Embeddings.Generate(ctx, "Pilot", "all", nil)
//	client.Records.Coverage(ctx)
type Client struct {
	Embeddings *service.Embeddings
	Records    *service.Records

	db       database.Database
	embedder provider.Embedder
	metrics  *metrics.Metrics
	closers  []io.Closer

	logger  *slog.Logger
	apiKeys []string
	closed  atomic.Bool
	mu      sync.Mutex
}

// New creates a new Client with the given options.
func New(opts ...Option) (*Client, error) {
	cfg := newClientConfig()

	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.database == databaseUnset {
		return nil, ErrNoDatabase
	}

	logger := cfg.logger
	if logger == nil {
		logger = log.Default().Slog()
	}

	ctx := context.Background()
	dbURL, err := buildDatabaseURL(cfg)
	if err != nil {
		return nil, fmt.Errorf("build database url: %w", err)
	}

	db, err := database.NewDatabase(ctx, dbURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if db.IsPostgres() {
		if err := db.ConfigurePool(postgresMaxOpen, postgresMaxIdle, postgresConnLifetime); err != nil {
			errClose := db.Close()
			return nil, errors.Join(fmt.Errorf("configure pool: %w", err), errClose)
		}
	}

	if err := persistence.AutoMigrate(db); err != nil {
		errClose := db.Close()
		return nil, errors.Join(fmt.Errorf("auto migrate: %w", err), errClose)
	}

	if err := persistence.ValidateSchema(db); err != nil {
		errClose := db.Close()
		return nil, errors.Join(fmt.Errorf("validate schema: %w", err), errClose)
	}

	embedder := cfg.embedder
	credential := cfg.credential
	if embedder == nil {
		embedder, err = provider.New(cfg.provider)
		if err != nil {
			errClose := db.Close()
			return nil, errors.Join(fmt.Errorf("embedding provider: %w", err), errClose)
		}
	} else if !cfg.credentialSet {
		credential = providedCredential
	}

	m := metrics.New(metrics.Config{ServiceName: ServiceName, EnableDefaultCollectors: true})
	observers := append(embedding.Observers{m}, cfg.observers...)

	store := persistence.NewRecordStore(db)
	embeddings := service.NewEmbeddings(store, embedder, service.EmbeddingsConfig{
		Model:          embedder.Model(),
		BatchSize:      cfg.batchSize,
		Credential:     credential,
		CredentialName: cfg.credentialName,
	}, logger).WithObserver(observers)

	client := &Client{
		Embeddings: embeddings,
		Records:    service.NewRecords(store, logger),
		db:         db,
		embedder:   embedder,
		metrics:    m,
		closers:    cfg.closers,
		logger:     logger,
		apiKeys:    cfg.apiKeys,
	}

	logger.Info("embedgen client ready",
		slog.String("database", db.GORM().Name()),
		slog.String("model", embedder.Model()),
		slog.Int("batch_size", embeddings.BatchSize()),
		slog.Bool("credential_set", credential != ""),
	)
	return client, nil
}

// Close releases all resources.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrClientClosed
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.embedder.Close(); err != nil {
		c.logger.Error("failed to close embedding provider", slog.Any("error", err))
	}

	// Close registered resources
	for _, closer := range c.closers {
		if err := closer.Close(); err != nil {
			c.logger.Error("failed to close resource", slog.Any("error", err))
		}
	}

	if err := c.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// Ping verifies the database is reachable.
func (c *Client) Ping(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	return c.db.Ping(ctx)
}

// Logger returns the client's logger.
func (c *Client) Logger() *slog.Logger {
	return c.logger
}

// Metrics returns the Prometheus registry fed by embedding runs.
func (c *Client) Metrics() *metrics.Metrics {
	return c.metrics
}

// APIKeys returns the keys accepted by the HTTP API.
func (c *Client) APIKeys() []string {
	return append([]string(nil), c.apiKeys...)
}

// buildDatabaseURL returns the URL handed to database.NewDatabase.
func buildDatabaseURL(cfg *clientConfig) (string, error) {
	switch cfg.database {
	case databaseSQLite:
		if cfg.dbPath == "" {
			return "", errors.New("sqlite path is empty")
		}
		return "sqlite:///" + cfg.dbPath, nil
	case databasePostgres:
		if cfg.dbDSN == "" {
			return "", errors.New("postgres dsn is empty")
		}
		return cfg.dbDSN, nil
	default:
		return "", ErrNoDatabase
	}
}

// sqlitePath extracts the file path of a sqlite:/// URL.
func sqlitePath(url string) (string, bool) {
	if !strings.HasPrefix(url, "sqlite:///") {
		return "", false
	}
	return strings.TrimPrefix(url, "sqlite:///"), true
}
