package embedgen

import (
	"io"
	"log/slog"

	"github.com/momah-portal/embedgen/domain/embedding"
	"github.com/momah-portal/embedgen/infrastructure/provider"
	"github.com/momah-portal/embedgen/internal/config"
)

// databaseType identifies the database.
type databaseType int

const (
	databaseUnset databaseType = iota
	databaseSQLite
	databasePostgres
)

// clientConfig holds configuration for Client construction.
type clientConfig struct {
	database       databaseType
	dbPath         string
	dbDSN          string
	provider       provider.Config
	embedder       provider.Embedder
	credential     string
	credentialName string
	credentialSet  bool
	batchSize      int
	logger         *slog.Logger
	observers      []embedding.Observer
	apiKeys        []string
	closers        []io.Closer
}

// newClientConfig creates a clientConfig with defaults from internal/config.
func newClientConfig() *clientConfig {
	return &clientConfig{
		provider: provider.Config{
			Provider: provider.Gemini,
			Model:    config.DefaultEmbeddingModel,
			Timeout:  config.DefaultEmbeddingTimeout,
		},
		credentialName: config.GeminiCredentialName,
		batchSize:      config.DefaultEmbeddingBatchSize,
	}
}

// Option configures the Client.
type Option func(*clientConfig)

// WithSQLite stores entity tables in the SQLite file at path.
func WithSQLite(path string) Option {
	return func(c *clientConfig) {
		c.database = databaseSQLite
		c.dbPath = path
	}
}

// WithPostgres stores entity tables in PostgreSQL.
func WithPostgres(dsn string) Option {
	return func(c *clientConfig) {
		c.database = databasePostgres
		c.dbDSN = dsn
	}
}

// WithDatabaseURL selects SQLite or PostgreSQL from a sqlite:/// or
// postgres:// URL.
func WithDatabaseURL(url string) Option {
	return func(c *clientConfig) {
		if path, ok := sqlitePath(url); ok {
			c.database = databaseSQLite
			c.dbPath = path
			return
		}
		c.database = databasePostgres
		c.dbDSN = url
	}
}

// WithGemini embeds through the Google Generative Language API using
// apiKey as GOOGLE_API_KEY. An empty key leaves the client unconfigured:
// every generation request then fails with a missing credential error.
func WithGemini(apiKey string) Option {
	return func(c *clientConfig) {
		c.provider.Provider = provider.Gemini
		c.provider.APIKey = apiKey
		c.credential = apiKey
		c.credentialName = config.GeminiCredentialName
		c.credentialSet = true
	}
}

// WithModel sets the embedding model recorded on every row.
func WithModel(model string) Option {
	return func(c *clientConfig) {
		if model != "" {
			c.provider.Model = model
		}
	}
}

// WithEmbeddingBaseURL overrides the provider endpoint.
func WithEmbeddingBaseURL(url string) Option {
	return func(c *clientConfig) {
		c.provider.BaseURL = url
	}
}

// WithOpenAIConfig embeds through an OpenAI-compatible /embeddings API.
func WithOpenAIConfig(cfg provider.OpenAIConfig) Option {
	return func(c *clientConfig) {
		model := cfg.Model
		if model == "" {
			model = provider.DefaultOpenAIModel
		}
		c.provider = provider.Config{
			Provider:      provider.OpenAI,
			APIKey:        cfg.APIKey,
			BaseURL:       cfg.BaseURL,
			Model:         model,
			Timeout:       cfg.Timeout,
			MaxRetries:    cfg.MaxRetries,
			InitialDelay:  cfg.InitialDelay,
			BackoffFactor: cfg.BackoffFactor,
			CacheDir:      c.provider.CacheDir,
		}
		c.credential = cfg.APIKey
		c.credentialName = config.OpenAICredentialName
		c.credentialSet = true
	}
}

// WithEmbeddingConfig configures the built-in provider directly.
func WithEmbeddingConfig(cfg provider.Config) Option {
	return func(c *clientConfig) {
		c.provider = cfg
		c.credential = cfg.APIKey
		c.credentialName = config.GeminiCredentialName
		if cfg.Provider == provider.OpenAI {
			c.credentialName = config.OpenAICredentialName
		}
		c.credentialSet = true
	}
}

// WithEmbeddingProvider sets a custom embedding provider. The provider is
// assumed to carry its own credential unless WithCredential says otherwise.
func WithEmbeddingProvider(p provider.Embedder) Option {
	return func(c *clientConfig) {
		c.embedder = p
	}
}

// WithCredential sets the credential checked before each generation run
// and the name reported when it is empty.
func WithCredential(name, value string) Option {
	return func(c *clientConfig) {
		c.credentialName = name
		c.credential = value
		c.credentialSet = true
	}
}

// WithBatchSize sets how many records are embedded concurrently.
// Values <= 0 are ignored.
func WithBatchSize(n int) Option {
	return func(c *clientConfig) {
		if n > 0 {
			c.batchSize = n
		}
	}
}

// WithHTTPCacheDir caches successful provider responses in dir.
func WithHTTPCacheDir(dir string) Option {
	return func(c *clientConfig) {
		c.provider.CacheDir = dir
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *clientConfig) {
		c.logger = l
	}
}

// WithObserver adds a progress observer next to the built-in metrics.
func WithObserver(o embedding.Observer) Option {
	return func(c *clientConfig) {
		if o != nil {
			c.observers = append(c.observers, o)
		}
	}
}

// WithAPIKeys sets the API keys for HTTP API authentication.
func WithAPIKeys(keys ...string) Option {
	return func(c *clientConfig) {
		c.apiKeys = keys
	}
}

// WithCloser registers a resource to be closed when the Client shuts down.
func WithCloser(closer io.Closer) Option {
	return func(c *clientConfig) {
		c.closers = append(c.closers, closer)
	}
}

// FromConfig translates an AppConfig into client options.
func FromConfig(cfg config.AppConfig) []Option {
	emb := cfg.Embedding()
	opts := []Option{
		WithDatabaseURL(cfg.DBURL()),
		WithBatchSize(emb.BatchSize()),
		WithAPIKeys(cfg.APIKeys()...),
	}

	switch emb.Provider() {
	case provider.OpenAI:
		opts = append(opts, WithOpenAIConfig(provider.OpenAIConfig{
			APIKey:     emb.APIKey(),
			BaseURL:    emb.BaseURL(),
			Model:      emb.Model(),
			Timeout:    emb.Timeout(),
			MaxRetries: emb.MaxRetries(),
		}))
	default:
		opts = append(opts,
			WithGemini(emb.APIKey()),
			WithModel(emb.Model()),
			WithEmbeddingBaseURL(emb.BaseURL()),
		)
		if emb.Provider() != provider.Gemini {
			opts = append(opts, withProviderName(emb.Provider()))
		}
	}

	opts = append(opts, WithCredential(emb.CredentialName(), emb.APIKey()))

	if cfg.HTTPCacheDir() != "" {
		opts = append(opts, WithHTTPCacheDir(cfg.HTTPCacheDir()))
	}
	return opts
}

// withProviderName forwards an unrecognised provider so that New reports it.
func withProviderName(name string) Option {
	return func(c *clientConfig) {
		c.provider.Provider = name
	}
}
