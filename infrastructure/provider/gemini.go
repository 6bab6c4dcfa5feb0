package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Gemini defaults.
const (
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultGeminiModel   = "text-embedding-004"
	defaultTimeout       = 60 * time.Second
)

// GeminiConfig configures a GeminiEmbedder.
type GeminiConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	Timeout   time.Duration
	Transport http.RoundTripper
}

// GeminiEmbedder calls the Generative Language embedContent endpoint, one
// text per request. It does not retry.
type GeminiEmbedder struct {
	client  *http.Client
	baseURL string
	model   string
	apiKey  string
}

// NewGeminiEmbedder creates a GeminiEmbedder.
func NewGeminiEmbedder(cfg GeminiConfig) *GeminiEmbedder {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultGeminiBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultGeminiModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &GeminiEmbedder{
		client:  &http.Client{Timeout: timeout, Transport: cfg.Transport},
		baseURL: baseURL,
		model:   model,
		apiKey:  cfg.APIKey,
	}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiEmbedRequest struct {
	Model   string        `json:"model"`
	Content geminiContent `json:"content"`
}

type geminiEmbedResponse struct {
	Embedding *struct {
		Values []float64 `json:"values"`
	} `json:"embedding"`
}

// Model returns the embedding model name.
func (g *GeminiEmbedder) Model() string { return g.model }

// Embed returns the embedding vector for one text. Non-2xx responses and
// responses without values become a *ProviderError carrying the raw body.
func (g *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	body, err := json.Marshal(geminiEmbedRequest{
		Model:   "models/" + g.model,
		Content: geminiContent{Parts: []geminiPart{{Text: text}}},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, NewProviderError("embedding", 0, "", redactKey(err, g.apiKey))
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewProviderError("embedding", resp.StatusCode, "read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, NewProviderError("embedding", resp.StatusCode, strings.TrimSpace(string(raw)), nil)
	}

	var parsed geminiEmbedResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, NewProviderError("embedding", resp.StatusCode, "malformed response: "+strings.TrimSpace(string(raw)), nil)
	}
	if parsed.Embedding == nil || len(parsed.Embedding.Values) == 0 {
		return nil, NewProviderError("embedding", resp.StatusCode, "no embedding values in response: "+strings.TrimSpace(string(raw)), nil)
	}

	return parsed.Embedding.Values, nil
}

// Close releases idle connections.
func (g *GeminiEmbedder) Close() error {
	g.client.CloseIdleConnections()
	return nil
}

func (g *GeminiEmbedder) endpoint() string {
	q := url.Values{}
	q.Set("key", g.apiKey)
	return fmt.Sprintf("%s/models/%s:embedContent?%s", g.baseURL, url.PathEscape(g.model), q.Encode())
}

// redactKey strips the credential from transport errors, which quote the
// request URL.
func redactKey(err error, key string) error {
	if key == "" || !strings.Contains(err.Error(), key) {
		return err
	}
	return errors.New(strings.ReplaceAll(err.Error(), key, "REDACTED"))
}
