package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultOpenAIModel is used when no embedding model is configured.
const DefaultOpenAIModel = "text-embedding-3-small"

// errEmptyEmbedding indicates the API answered 200 without a vector.
// Routing gateways do this when their upstream is down.
var errEmptyEmbedding = errors.New("empty embedding response")

// OpenAIConfig configures an OpenAIEmbedder.
type OpenAIConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	Timeout   time.Duration
	Transport http.RoundTripper
	// MaxRetries is the number of extra attempts on retryable failures.
	// Zero disables retrying.
	MaxRetries    int
	InitialDelay  time.Duration
	BackoffFactor float64
}

// OpenAIEmbedder embeds text through any OpenAI-compatible /embeddings API.
type OpenAIEmbedder struct {
	client        *openai.Client
	httpClient    *http.Client
	model         string
	maxRetries    int
	initialDelay  time.Duration
	backoffFactor float64
}

// NewOpenAIEmbedder creates an embedder from configuration.
func NewOpenAIEmbedder(cfg OpenAIConfig) *OpenAIEmbedder {
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	httpClient := &http.Client{Timeout: timeout, Transport: cfg.Transport}
	config.HTTPClient = httpClient

	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}

	initialDelay := cfg.InitialDelay
	if initialDelay == 0 {
		initialDelay = 2 * time.Second
	}

	backoffFactor := cfg.BackoffFactor
	if backoffFactor == 0 {
		backoffFactor = 2.0
	}

	return &OpenAIEmbedder{
		client:        openai.NewClientWithConfig(config),
		httpClient:    httpClient,
		model:         model,
		maxRetries:    max(cfg.MaxRetries, 0),
		initialDelay:  initialDelay,
		backoffFactor: backoffFactor,
	}
}

// Model returns the embedding model name.
func (p *OpenAIEmbedder) Model() string { return p.model }

// Close releases idle connections.
func (p *OpenAIEmbedder) Close() error {
	p.httpClient.CloseIdleConnections()
	return nil
}

// Embed returns the embedding vector for one text.
func (p *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	req := openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(p.model),
		Input: []string{text},
	}

	var resp openai.EmbeddingResponse
	err := p.withRetry(ctx, func() error {
		var err error
		resp, err = p.client.CreateEmbeddings(ctx, req)
		if err != nil {
			return err
		}
		if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
			return fmt.Errorf("%w: model %q returned no vector", errEmptyEmbedding, resp.Model)
		}
		return nil
	})
	if err != nil {
		return nil, p.wrapError("embedding", err)
	}

	vector := make([]float64, len(resp.Data[0].Embedding))
	for i, v := range resp.Data[0].Embedding {
		vector[i] = float64(v)
	}
	return vector, nil
}

// withRetry executes fn with exponential backoff on retryable errors.
func (p *OpenAIEmbedder) withRetry(ctx context.Context, fn func() error) error {
	delay := p.initialDelay
	var lastErr error

	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if !p.isRetryable(lastErr) {
			return lastErr
		}

		if attempt < p.maxRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay = time.Duration(float64(delay) * p.backoffFactor)
			}
		}
	}

	if p.maxRetries == 0 {
		return lastErr
	}
	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (p *OpenAIEmbedder) isRetryable(err error) bool {
	if errors.Is(err, errEmptyEmbedding) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
	}

	var reqErr *openai.RequestError
	return errors.As(err, &reqErr)
}

func (p *OpenAIEmbedder) wrapError(operation string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return NewProviderError(operation, apiErr.HTTPStatusCode, apiErr.Message, err)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return NewProviderError(operation, reqErr.HTTPStatusCode, "", err)
	}

	return NewProviderError(operation, 0, "", err)
}
