package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Embedder is an embedding client that owns releasable resources.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
	Model() string
	Close() error
}

// Config selects and configures an embedding provider.
type Config struct {
	Provider string
	APIKey   string
	BaseURL  string
	Model    string
	Timeout  time.Duration
	// MaxRetries, InitialDelay and BackoffFactor apply to the openai provider only.
	MaxRetries    int
	InitialDelay  time.Duration
	BackoffFactor float64
	// CacheDir enables the on-disk response cache when set.
	CacheDir string
}

// New creates the embedder named by cfg.Provider. An empty provider means Gemini.
func New(cfg Config) (Embedder, error) {
	var transport http.RoundTripper
	var cache *CachingTransport
	if cfg.CacheDir != "" {
		var err error
		cache, err = NewCachingTransport(cfg.CacheDir, nil)
		if err != nil {
			return nil, err
		}
		transport = cache
	}

	var inner Embedder
	switch cfg.Provider {
	case "", Gemini:
		inner = NewGeminiEmbedder(GeminiConfig{
			APIKey:    cfg.APIKey,
			BaseURL:   cfg.BaseURL,
			Model:     cfg.Model,
			Timeout:   cfg.Timeout,
			Transport: transport,
		})
	case OpenAI:
		inner = NewOpenAIEmbedder(OpenAIConfig{
			APIKey:        cfg.APIKey,
			BaseURL:       cfg.BaseURL,
			Model:         cfg.Model,
			Timeout:       cfg.Timeout,
			Transport:     transport,
			MaxRetries:    cfg.MaxRetries,
			InitialDelay:  cfg.InitialDelay,
			BackoffFactor: cfg.BackoffFactor,
		})
	default:
		if cache != nil {
			_ = cache.Close()
		}
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, cfg.Provider)
	}

	if cache == nil {
		return inner, nil
	}
	return cachedEmbedder{Embedder: inner, cache: cache}, nil
}

type cachedEmbedder struct {
	Embedder
	cache *CachingTransport
}

func (c cachedEmbedder) Close() error {
	return errors.Join(c.Embedder.Close(), c.cache.Close())
}
