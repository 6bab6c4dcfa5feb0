// Package config provides application configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Default configuration values.
const (
	DefaultHost               = "0.0.0.0"
	DefaultPort               = 8080
	DefaultLogLevel           = "INFO"
	DefaultDBFile             = "embedgen.db"
	DefaultEmbeddingProvider  = "gemini"
	DefaultEmbeddingModel     = "text-embedding-004"
	DefaultEmbeddingTimeout   = 60 * time.Second
	DefaultEmbeddingRetries   = 0
	DefaultEmbeddingBatchSize = 5
	GeminiCredentialName      = "GOOGLE_API_KEY"
	OpenAICredentialName      = "EMBEDDING_API_KEY"
)

// LogFormat represents the log output format.
type LogFormat string

// LogFormat values.
const (
	LogFormatPretty LogFormat = "pretty"
	LogFormatJSON   LogFormat = "json"
)

// Embedding configures the embedding provider.
type Embedding struct {
	provider   string
	baseURL    string
	model      string
	apiKey     string
	timeout    time.Duration
	maxRetries int
	batchSize  int
}

// NewEmbedding creates an Embedding config with defaults.
func NewEmbedding() Embedding {
	return Embedding{
		provider:   DefaultEmbeddingProvider,
		model:      DefaultEmbeddingModel,
		timeout:    DefaultEmbeddingTimeout,
		maxRetries: DefaultEmbeddingRetries,
		batchSize:  DefaultEmbeddingBatchSize,
	}
}

// Provider returns the provider name (gemini or openai).
func (e Embedding) Provider() string { return e.provider }

// BaseURL returns the provider base URL override.
func (e Embedding) BaseURL() string { return e.baseURL }

// Model returns the model identifier.
func (e Embedding) Model() string { return e.model }

// APIKey returns the provider credential.
func (e Embedding) APIKey() string { return e.apiKey }

// Timeout returns the per-request timeout.
func (e Embedding) Timeout() time.Duration { return e.timeout }

// MaxRetries returns the retry count for providers that retry.
func (e Embedding) MaxRetries() int { return e.maxRetries }

// BatchSize returns the number of records embedded concurrently.
func (e Embedding) BatchSize() int { return e.batchSize }

// CredentialName returns the name reported when the credential is absent.
func (e Embedding) CredentialName() string {
	if e.provider == "openai" {
		return OpenAICredentialName
	}
	return GeminiCredentialName
}

// EmbeddingOption is a functional option for Embedding.
type EmbeddingOption func(*Embedding)

// WithProvider sets the provider name.
func WithProvider(p string) EmbeddingOption {
	return func(e *Embedding) { e.provider = strings.ToLower(p) }
}

// WithBaseURL sets the base URL.
func WithBaseURL(url string) EmbeddingOption {
	return func(e *Embedding) { e.baseURL = url }
}

// WithModel sets the model.
func WithModel(model string) EmbeddingOption {
	return func(e *Embedding) { e.model = model }
}

// WithAPIKey sets the provider credential.
func WithAPIKey(key string) EmbeddingOption {
	return func(e *Embedding) { e.apiKey = key }
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) EmbeddingOption {
	return func(e *Embedding) { e.timeout = d }
}

// WithMaxRetries sets the retry count.
func WithMaxRetries(n int) EmbeddingOption {
	return func(e *Embedding) {
		if n >= 0 {
			e.maxRetries = n
		}
	}
}

// WithBatchSize sets the batch size. Non-positive values are ignored.
func WithBatchSize(n int) EmbeddingOption {
	return func(e *Embedding) {
		if n > 0 {
			e.batchSize = n
		}
	}
}

// NewEmbeddingWithOptions creates an Embedding with functional options.
func NewEmbeddingWithOptions(opts ...EmbeddingOption) Embedding {
	e := NewEmbedding()
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

// AppConfig holds the main application configuration.
type AppConfig struct {
	host               string
	port               int
	dataDir            string
	dbURL              string
	logLevel           string
	logFormat          LogFormat
	apiKeys            []string
	corsAllowedOrigins []string
	metricsEnabled     bool
	httpCacheDir       string
	embedding          Embedding
}

// DefaultDataDir returns the default data directory.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".embedgen"
	}
	return filepath.Join(home, ".embedgen")
}

// PrepareDataDir creates the data directory if it does not exist and returns it.
func PrepareDataDir(dataDir string) (string, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return "", fmt.Errorf("create data directory: %w", err)
	}
	return dataDir, nil
}

// NewAppConfig creates a new AppConfig with defaults.
func NewAppConfig() AppConfig {
	dataDir := DefaultDataDir()
	return AppConfig{
		host:               DefaultHost,
		port:               DefaultPort,
		dataDir:            dataDir,
		dbURL:              "sqlite:///" + filepath.Join(dataDir, DefaultDBFile),
		logLevel:           DefaultLogLevel,
		logFormat:          LogFormatPretty,
		apiKeys:            []string{},
		corsAllowedOrigins: []string{},
		metricsEnabled:     true,
		embedding:          NewEmbedding(),
	}
}

// Host returns the server host to bind to.
func (c AppConfig) Host() string { return c.host }

// Port returns the server port to listen on.
func (c AppConfig) Port() int { return c.port }

// Addr returns the combined host:port address.
func (c AppConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.host, c.port)
}

// DataDir returns the data directory path.
func (c AppConfig) DataDir() string { return c.dataDir }

// DBURL returns the database connection URL.
func (c AppConfig) DBURL() string { return c.dbURL }

// LogLevel returns the log level.
func (c AppConfig) LogLevel() string { return c.logLevel }

// LogFormat returns the log format.
func (c AppConfig) LogFormat() LogFormat { return c.logFormat }

// APIKeys returns the configured API keys.
func (c AppConfig) APIKeys() []string {
	keys := make([]string, len(c.apiKeys))
	copy(keys, c.apiKeys)
	return keys
}

// CORSAllowedOrigins returns the origins allowed by the CORS middleware.
func (c AppConfig) CORSAllowedOrigins() []string {
	origins := make([]string, len(c.corsAllowedOrigins))
	copy(origins, c.corsAllowedOrigins)
	return origins
}

// MetricsEnabled reports whether /metrics is served.
func (c AppConfig) MetricsEnabled() bool { return c.metricsEnabled }

// HTTPCacheDir returns the provider response cache directory, if any.
func (c AppConfig) HTTPCacheDir() string { return c.httpCacheDir }

// Embedding returns the embedding provider config.
func (c AppConfig) Embedding() Embedding { return c.embedding }

// AppConfigOption is a functional option for AppConfig.
type AppConfigOption func(*AppConfig)

// WithHost sets the server host.
func WithHost(host string) AppConfigOption {
	return func(c *AppConfig) { c.host = host }
}

// WithPort sets the server port.
func WithPort(port int) AppConfigOption {
	return func(c *AppConfig) { c.port = port }
}

// WithDataDir sets the data directory.
func WithDataDir(dir string) AppConfigOption {
	return func(c *AppConfig) {
		c.dataDir = dir
		// Follow the data dir while the DB URL is still the default.
		if c.dbURL == "" || strings.HasSuffix(c.dbURL, DefaultDBFile) {
			c.dbURL = "sqlite:///" + filepath.Join(dir, DefaultDBFile)
		}
	}
}

// WithDBURL sets the database URL.
func WithDBURL(url string) AppConfigOption {
	return func(c *AppConfig) { c.dbURL = url }
}

// WithLogLevel sets the log level.
func WithLogLevel(level string) AppConfigOption {
	return func(c *AppConfig) { c.logLevel = level }
}

// WithLogFormat sets the log format.
func WithLogFormat(format LogFormat) AppConfigOption {
	return func(c *AppConfig) { c.logFormat = format }
}

// WithAPIKeys sets the API keys.
func WithAPIKeys(keys []string) AppConfigOption {
	return func(c *AppConfig) {
		c.apiKeys = make([]string, len(keys))
		copy(c.apiKeys, keys)
	}
}

// WithCORSAllowedOrigins sets the allowed CORS origins.
func WithCORSAllowedOrigins(origins []string) AppConfigOption {
	return func(c *AppConfig) {
		c.corsAllowedOrigins = make([]string, len(origins))
		copy(c.corsAllowedOrigins, origins)
	}
}

// WithMetricsEnabled toggles the /metrics endpoint.
func WithMetricsEnabled(enabled bool) AppConfigOption {
	return func(c *AppConfig) { c.metricsEnabled = enabled }
}

// WithHTTPCacheDir sets the provider response cache directory.
func WithHTTPCacheDir(dir string) AppConfigOption {
	return func(c *AppConfig) { c.httpCacheDir = dir }
}

// WithEmbedding sets the embedding provider config.
func WithEmbedding(e Embedding) AppConfigOption {
	return func(c *AppConfig) { c.embedding = e }
}

// NewAppConfigWithOptions creates an AppConfig with functional options.
func NewAppConfigWithOptions(opts ...AppConfigOption) AppConfig {
	c := NewAppConfig()
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Apply returns a new AppConfig with the given options applied.
func (c AppConfig) Apply(opts ...AppConfigOption) AppConfig {
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// LogAttrs returns slog attributes for logging the configuration.
// Secrets are reported as presence flags or counts only.
func (c AppConfig) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("data_dir", c.dataDir),
		slog.String("log_level", c.logLevel),
		slog.String("db_url", c.maskedDBURL()),
		slog.String("embedding_provider", c.embedding.Provider()),
		slog.String("embedding_model", c.embedding.Model()),
		slog.String("embedding_base_url", c.embeddingBaseURL()),
		slog.Bool("embedding_credential_set", c.embedding.APIKey() != ""),
		slog.Int("embedding_batch_size", c.embedding.BatchSize()),
		slog.Int("api_keys_count", len(c.apiKeys)),
		slog.Bool("metrics_enabled", c.metricsEnabled),
		slog.String("http_cache_dir", c.httpCacheDir),
	}
}

func (c AppConfig) maskedDBURL() string {
	if c.dbURL == "" {
		return "(default)"
	}
	if strings.HasPrefix(c.dbURL, "sqlite:") {
		return c.dbURL
	}
	return "postgres://***@***"
}

func (c AppConfig) embeddingBaseURL() string {
	if c.embedding.BaseURL() == "" {
		return "(provider default)"
	}
	return c.embedding.BaseURL()
}

// ParseList parses a comma-separated string, dropping blank entries.
func ParseList(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	items := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
