package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	clearEnvVars(t)

	cfg, err := LoadFromEnvWithPrefix("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "", cfg.DataDir)
	assert.Equal(t, "", cfg.DBURL)
	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.Equal(t, "pretty", cfg.LogFormat)
	assert.Equal(t, "", cfg.APIKeys)
	assert.True(t, cfg.MetricsEnabled)
	assert.Equal(t, "", cfg.GoogleAPIKey)

	assert.Equal(t, "gemini", cfg.Embedding.Provider)
	assert.Equal(t, "text-embedding-004", cfg.Embedding.Model)
	assert.Equal(t, 60.0, cfg.Embedding.Timeout)
	assert.Equal(t, 0, cfg.Embedding.MaxRetries)
	assert.Equal(t, 5, cfg.Embedding.BatchSize)
}

func TestEnvDefaults_MatchConfigDefaults(t *testing.T) {
	// Struct tag defaults must be literals, so keep them in sync with the constants.
	clearEnvVars(t)

	cfg, err := LoadFromEnvWithPrefix("")
	require.NoError(t, err)

	assert.Equal(t, DefaultHost, cfg.Host)
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, DefaultEmbeddingProvider, cfg.Embedding.Provider)
	assert.Equal(t, DefaultEmbeddingModel, cfg.Embedding.Model)
	assert.Equal(t, DefaultEmbeddingTimeout.Seconds(), cfg.Embedding.Timeout)
	assert.Equal(t, DefaultEmbeddingRetries, cfg.Embedding.MaxRetries)
	assert.Equal(t, DefaultEmbeddingBatchSize, cfg.Embedding.BatchSize)
}

func TestLoadFromEnv_OverrideValues(t *testing.T) {
	clearEnvVars(t)

	t.Setenv("HOST", "127.0.0.1")
	t.Setenv("PORT", "9000")
	t.Setenv("DATA_DIR", "/custom/data")
	t.Setenv("DB_URL", "postgres://localhost/portal")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("API_KEYS", "key1,key2,key3")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://portal.example.sa")
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("HTTP_CACHE_DIR", "/tmp/cache")

	cfg, err := LoadFromEnvWithPrefix("")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "/custom/data", cfg.DataDir)
	assert.Equal(t, "postgres://localhost/portal", cfg.DBURL)
	assert.Equal(t, "DEBUG", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "key1,key2,key3", cfg.APIKeys)
	assert.Equal(t, "https://portal.example.sa", cfg.CORSAllowedOrigins)
	assert.False(t, cfg.MetricsEnabled)
	assert.Equal(t, "/tmp/cache", cfg.HTTPCacheDir)
}

func TestLoadFromEnv_Embedding(t *testing.T) {
	clearEnvVars(t)

	t.Setenv("EMBEDDING_PROVIDER", "openai")
	t.Setenv("EMBEDDING_MODEL", "text-embedding-3-small")
	t.Setenv("EMBEDDING_BASE_URL", "https://api.openai.com/v1")
	t.Setenv("EMBEDDING_API_KEY", "sk-test")
	t.Setenv("EMBEDDING_TIMEOUT", "30")
	t.Setenv("EMBEDDING_MAX_RETRIES", "3")
	t.Setenv("EMBEDDING_BATCH_SIZE", "8")

	cfg, err := LoadFromEnvWithPrefix("")
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.Embedding.Provider)
	assert.Equal(t, "text-embedding-3-small", cfg.Embedding.Model)
	assert.Equal(t, "https://api.openai.com/v1", cfg.Embedding.BaseURL)
	assert.Equal(t, "sk-test", cfg.Embedding.APIKey)
	assert.Equal(t, 30.0, cfg.Embedding.Timeout)
	assert.Equal(t, 3, cfg.Embedding.MaxRetries)
	assert.Equal(t, 8, cfg.Embedding.BatchSize)
}

func TestEnvConfig_ToAppConfig(t *testing.T) {
	clearEnvVars(t)

	t.Setenv("DATA_DIR", "/srv/embedgen")
	t.Setenv("API_KEYS", "a, b,,c")
	t.Setenv("GOOGLE_API_KEY", "g-key")
	t.Setenv("LOG_FORMAT", "JSON")

	env, err := LoadFromEnvWithPrefix("")
	require.NoError(t, err)
	cfg := env.ToAppConfig()

	assert.Equal(t, "/srv/embedgen", cfg.DataDir())
	assert.Equal(t, "sqlite:///"+filepath.Join("/srv/embedgen", DefaultDBFile), cfg.DBURL())
	assert.Equal(t, []string{"a", "b", "c"}, cfg.APIKeys())
	assert.Equal(t, LogFormatJSON, cfg.LogFormat())
	assert.True(t, cfg.MetricsEnabled())

	emb := cfg.Embedding()
	assert.Equal(t, "gemini", emb.Provider())
	assert.Equal(t, "g-key", emb.APIKey())
	assert.Equal(t, GeminiCredentialName, emb.CredentialName())
	assert.Equal(t, 60*time.Second, emb.Timeout())
	assert.Equal(t, 5, emb.BatchSize())
}

func TestEmbeddingEnv_ToEmbedding_CredentialByProvider(t *testing.T) {
	gemini := EmbeddingEnv{Provider: "gemini", APIKey: "ignored", BatchSize: 5, Timeout: 60}.ToEmbedding("g-key")
	assert.Equal(t, "g-key", gemini.APIKey())

	openai := EmbeddingEnv{Provider: "OpenAI", APIKey: "sk", BatchSize: 5, Timeout: 60}.ToEmbedding("g-key")
	assert.Equal(t, "openai", openai.Provider())
	assert.Equal(t, "sk", openai.APIKey())
	assert.Equal(t, OpenAICredentialName, openai.CredentialName())

	none := EmbeddingEnv{Provider: "gemini", BatchSize: 5}.ToEmbedding("")
	assert.Equal(t, "", none.APIKey())
}

func TestEmbeddingEnv_ToEmbedding_IgnoresInvalidBatchSize(t *testing.T) {
	emb := EmbeddingEnv{Provider: "gemini", BatchSize: 0, MaxRetries: -1}.ToEmbedding("")
	assert.Equal(t, DefaultEmbeddingBatchSize, emb.BatchSize())
	assert.Equal(t, DefaultEmbeddingRetries, emb.MaxRetries())
}

func TestParseLogFormat(t *testing.T) {
	tests := []struct {
		input string
		want  LogFormat
	}{
		{"json", LogFormatJSON},
		{"JSON", LogFormatJSON},
		{"pretty", LogFormatPretty},
		{"", LogFormatPretty},
		{"unknown", LogFormatPretty},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLogFormat(tt.input))
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	tmpDir := t.TempDir()
	envFile := filepath.Join(tmpDir, ".env")
	content := `DATA_DIR=/from/dotenv
LOG_LEVEL=DEBUG
GOOGLE_API_KEY=dotenv-key
`
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o644))

	clearEnvVars(t)

	require.NoError(t, LoadDotEnv(envFile))

	assert.Equal(t, "/from/dotenv", os.Getenv("DATA_DIR"))
	assert.Equal(t, "DEBUG", os.Getenv("LOG_LEVEL"))
	assert.Equal(t, "dotenv-key", os.Getenv("GOOGLE_API_KEY"))
}

func TestLoadDotEnv_NonExistent(t *testing.T) {
	clearEnvVars(t)
	assert.NoError(t, LoadDotEnv("/nonexistent/.env"))
}

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	envFile := filepath.Join(tmpDir, ".env")
	content := `DATA_DIR=/config/data
LOG_LEVEL=WARN
EMBEDDING_MODEL=text-embedding-005
EMBEDDING_BATCH_SIZE=3
`
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o644))

	clearEnvVars(t)

	cfg, err := LoadConfig(Sources{EnvFiles: []string{envFile}})
	require.NoError(t, err)

	assert.Equal(t, "/config/data", cfg.DataDir())
	assert.Equal(t, "WARN", cfg.LogLevel())
	assert.Equal(t, "text-embedding-005", cfg.Embedding().Model())
	assert.Equal(t, 3, cfg.Embedding().BatchSize())
}

func TestLoadConfig_EnvironmentWins(t *testing.T) {
	tmpDir := t.TempDir()
	envFile := filepath.Join(tmpDir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("LOG_LEVEL=WARN\n"), 0o644))

	clearEnvVars(t)
	t.Setenv("LOG_LEVEL", "ERROR")

	cfg, err := LoadConfig(Sources{EnvFiles: []string{envFile}})
	require.NoError(t, err)
	assert.Equal(t, "ERROR", cfg.LogLevel())
}

func TestLoadConfig_OverrideLaterFileWins(t *testing.T) {
	tmpDir := t.TempDir()
	base := filepath.Join(tmpDir, ".env")
	require.NoError(t, os.WriteFile(base, []byte("LOG_LEVEL=WARN\nEMBEDDING_BATCH_SIZE=3\n"), 0o644))
	local := filepath.Join(tmpDir, ".env.local")
	require.NoError(t, os.WriteFile(local, []byte("EMBEDDING_BATCH_SIZE=8\n"), 0o644))

	clearEnvVars(t)
	t.Setenv("LOG_LEVEL", "ERROR")

	cfg, err := LoadConfig(Sources{EnvFiles: []string{base, local}, Override: true})
	require.NoError(t, err)
	assert.Equal(t, "WARN", cfg.LogLevel(), "override replaces the environment")
	assert.Equal(t, 8, cfg.Embedding().BatchSize())
}

func TestLoadConfig_FirstFileWinsWithoutOverride(t *testing.T) {
	tmpDir := t.TempDir()
	base := filepath.Join(tmpDir, ".env")
	require.NoError(t, os.WriteFile(base, []byte("EMBEDDING_BATCH_SIZE=3\n"), 0o644))
	local := filepath.Join(tmpDir, ".env.local")
	require.NoError(t, os.WriteFile(local, []byte("EMBEDDING_BATCH_SIZE=8\n"), 0o644))

	clearEnvVars(t)

	cfg, err := LoadConfig(Sources{EnvFiles: []string{base, filepath.Join(tmpDir, "absent.env"), local}})
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Embedding().BatchSize())
}

func TestLoadConfig_Prefix(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("PORT", "1111")
	t.Setenv("EMBEDGEN_PORT", "9090")
	t.Setenv("EMBEDGEN_GOOGLE_API_KEY", "prefixed-key")
	t.Setenv("EMBEDGEN_EMBEDDING_BATCH_SIZE", "2")

	cfg, err := LoadConfig(Sources{EnvFiles: []string{filepath.Join(t.TempDir(), "none.env")}, Prefix: "EMBEDGEN"})
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port())
	assert.Equal(t, "prefixed-key", cfg.Embedding().APIKey())
	assert.Equal(t, 2, cfg.Embedding().BatchSize())
}

func TestLoadDotEnvFromFiles(t *testing.T) {
	tmpDir := t.TempDir()

	env1 := filepath.Join(tmpDir, ".env")
	require.NoError(t, os.WriteFile(env1, []byte("KEY1=value1\nKEY2=value2\n"), 0o644))
	env2 := filepath.Join(tmpDir, ".env.local")
	require.NoError(t, os.WriteFile(env2, []byte("KEY2=override\nKEY3=value3\n"), 0o644))

	clearEnvVars(t)

	require.NoError(t, LoadDotEnvFromFiles(env1, env2))

	assert.Equal(t, "value1", os.Getenv("KEY1"))
	assert.Equal(t, "value2", os.Getenv("KEY2")) // first file wins
	assert.Equal(t, "value3", os.Getenv("KEY3"))
}

func TestOverloadDotEnvFromFiles(t *testing.T) {
	tmpDir := t.TempDir()

	env1 := filepath.Join(tmpDir, ".env")
	require.NoError(t, os.WriteFile(env1, []byte("KEY1=value1\nKEY2=value2\n"), 0o644))
	env2 := filepath.Join(tmpDir, ".env.local")
	require.NoError(t, os.WriteFile(env2, []byte("KEY2=override\nKEY3=value3\n"), 0o644))

	clearEnvVars(t)

	require.NoError(t, OverloadDotEnvFromFiles(env1, env2))

	assert.Equal(t, "value1", os.Getenv("KEY1"))
	assert.Equal(t, "override", os.Getenv("KEY2"))
	assert.Equal(t, "value3", os.Getenv("KEY3"))
}

// clearEnvVars unsets all config-related environment variables for the
// duration of the test.
func clearEnvVars(t *testing.T) {
	t.Helper()

	vars := []string{
		"HOST",
		"PORT",
		"DATA_DIR",
		"DB_URL",
		"LOG_LEVEL",
		"LOG_FORMAT",
		"API_KEYS",
		"CORS_ALLOWED_ORIGINS",
		"METRICS_ENABLED",
		"HTTP_CACHE_DIR",
		"GOOGLE_API_KEY",
		"EMBEDDING_PROVIDER",
		"EMBEDDING_MODEL",
		"EMBEDDING_BASE_URL",
		"EMBEDDING_API_KEY",
		"EMBEDDING_TIMEOUT",
		"EMBEDDING_MAX_RETRIES",
		"EMBEDDING_BATCH_SIZE",
		"KEY1",
		"KEY2",
		"KEY3",
		"EMBEDGEN_PORT",
		"EMBEDGEN_GOOGLE_API_KEY",
		"EMBEDGEN_EMBEDDING_BATCH_SIZE",
	}

	for _, v := range vars {
		t.Setenv(v, "")
		_ = os.Unsetenv(v)
	}
}
