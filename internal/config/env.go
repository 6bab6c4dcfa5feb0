package config

import (
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvConfig holds all environment-based configuration.
// Field names map directly to environment variables, without a prefix.
type EnvConfig struct {
	// Host is the server host to bind to.
	// Env: HOST (default: 0.0.0.0)
	Host string `envconfig:"HOST" default:"0.0.0.0"`

	// Port is the server port to listen on.
	// Env: PORT (default: 8080)
	Port int `envconfig:"PORT" default:"8080"`

	// DataDir is the data directory path.
	// Env: DATA_DIR
	// Default: ~/.embedgen
	DataDir string `envconfig:"DATA_DIR"`

	// DBURL is the database connection URL.
	// Env: DB_URL
	// Default: sqlite:///{data_dir}/embedgen.db
	DBURL string `envconfig:"DB_URL"`

	// LogLevel is the log verbosity level.
	// Env: LOG_LEVEL (default: INFO)
	LogLevel string `envconfig:"LOG_LEVEL" default:"INFO"`

	// LogFormat is the log output format (pretty or json).
	// Env: LOG_FORMAT (default: pretty)
	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	// APIKeys is a comma-separated list of valid API keys.
	// Env: API_KEYS
	APIKeys string `envconfig:"API_KEYS"`

	// CORSAllowedOrigins is a comma-separated list of allowed origins.
	// Env: CORS_ALLOWED_ORIGINS
	CORSAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS"`

	// MetricsEnabled serves Prometheus metrics at /metrics.
	// Env: METRICS_ENABLED (default: true)
	MetricsEnabled bool `envconfig:"METRICS_ENABLED" default:"true"`

	// HTTPCacheDir caches successful provider responses on disk.
	// Env: HTTP_CACHE_DIR
	HTTPCacheDir string `envconfig:"HTTP_CACHE_DIR"`

	// GoogleAPIKey is the Gemini credential.
	// Env: GOOGLE_API_KEY
	GoogleAPIKey string `envconfig:"GOOGLE_API_KEY"`

	// Embedding configures the embedding provider.
	Embedding EmbeddingEnv `envconfig:"EMBEDDING"`
}

// EmbeddingEnv holds environment configuration for the embedding provider.
type EmbeddingEnv struct {
	// Provider is gemini or openai.
	// Env: EMBEDDING_PROVIDER (default: gemini)
	Provider string `envconfig:"PROVIDER" default:"gemini"`

	// Model is the model identifier.
	// Env: EMBEDDING_MODEL (default: text-embedding-004)
	Model string `envconfig:"MODEL" default:"text-embedding-004"`

	// BaseURL overrides the provider endpoint.
	// Env: EMBEDDING_BASE_URL
	BaseURL string `envconfig:"BASE_URL"`

	// APIKey is the credential for the openai provider.
	// Env: EMBEDDING_API_KEY
	APIKey string `envconfig:"API_KEY"`

	// Timeout is the request timeout in seconds.
	// Env: EMBEDDING_TIMEOUT (default: 60)
	Timeout float64 `envconfig:"TIMEOUT" default:"60"`

	// MaxRetries is the retry count (openai only).
	// Env: EMBEDDING_MAX_RETRIES (default: 0)
	MaxRetries int `envconfig:"MAX_RETRIES" default:"0"`

	// BatchSize is the number of records embedded concurrently.
	// Env: EMBEDDING_BATCH_SIZE (default: 5)
	BatchSize int `envconfig:"BATCH_SIZE" default:"5"`
}

// LoadFromEnvWithPrefix loads configuration with a custom prefix.
// For example, prefix "EMBEDGEN" would require EMBEDGEN_DATA_DIR instead of DATA_DIR.
func LoadFromEnvWithPrefix(prefix string) (EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process(prefix, &cfg); err != nil {
		return EnvConfig{}, err
	}
	return cfg, nil
}

// ToAppConfig converts EnvConfig to AppConfig.
func (e EnvConfig) ToAppConfig() AppConfig {
	var opts []AppConfigOption

	if e.Host != "" {
		opts = append(opts, WithHost(e.Host))
	}
	if e.Port != 0 {
		opts = append(opts, WithPort(e.Port))
	}
	if e.DataDir != "" {
		opts = append(opts, WithDataDir(e.DataDir))
	}
	if e.DBURL != "" {
		opts = append(opts, WithDBURL(e.DBURL))
	}
	if e.LogLevel != "" {
		opts = append(opts, WithLogLevel(e.LogLevel))
	}
	if e.LogFormat != "" {
		opts = append(opts, WithLogFormat(parseLogFormat(e.LogFormat)))
	}
	if e.APIKeys != "" {
		opts = append(opts, WithAPIKeys(ParseList(e.APIKeys)))
	}
	if e.CORSAllowedOrigins != "" {
		opts = append(opts, WithCORSAllowedOrigins(ParseList(e.CORSAllowedOrigins)))
	}
	opts = append(opts, WithMetricsEnabled(e.MetricsEnabled))
	if e.HTTPCacheDir != "" {
		opts = append(opts, WithHTTPCacheDir(e.HTTPCacheDir))
	}
	opts = append(opts, WithEmbedding(e.Embedding.ToEmbedding(e.GoogleAPIKey)))

	return NewAppConfigWithOptions(opts...)
}

// ToEmbedding converts EmbeddingEnv to Embedding. The gemini provider reads
// its credential from GOOGLE_API_KEY, every other provider from
// EMBEDDING_API_KEY.
func (e EmbeddingEnv) ToEmbedding(googleAPIKey string) Embedding {
	opts := []EmbeddingOption{
		WithTimeout(time.Duration(e.Timeout * float64(time.Second))),
		WithMaxRetries(e.MaxRetries),
		WithBatchSize(e.BatchSize),
	}
	if e.Provider != "" {
		opts = append(opts, WithProvider(e.Provider))
	}
	if e.Model != "" {
		opts = append(opts, WithModel(e.Model))
	}
	if e.BaseURL != "" {
		opts = append(opts, WithBaseURL(e.BaseURL))
	}

	emb := NewEmbeddingWithOptions(opts...)
	key := e.APIKey
	if emb.Provider() == DefaultEmbeddingProvider {
		key = googleAPIKey
	}
	if key != "" {
		emb = NewEmbeddingWithOptions(append(opts, WithAPIKey(key))...)
	}
	return emb
}

// parseLogFormat parses a log format string.
func parseLogFormat(s string) LogFormat {
	switch strings.ToLower(s) {
	case "json":
		return LogFormatJSON
	default:
		return LogFormatPretty
	}
}
