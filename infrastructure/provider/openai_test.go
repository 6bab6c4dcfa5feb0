package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeOpenAIServer mimics the /embeddings endpoint. The first failFirst
// requests answer with an empty data array.
func fakeOpenAIServer(t *testing.T, counter *atomic.Int64, failFirst int64) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := counter.Add(1)

		var body struct {
			Input any    `json:"input"`
			Model string `json:"model"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		data := []map[string]any{}
		if n > failFirst {
			data = append(data, map[string]any{
				"object":    "embedding",
				"index":     0,
				"embedding": []float64{0.1, 0.2, 0.3},
			})
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   data,
			"model":  body.Model,
			"usage":  map[string]int{"prompt_tokens": 4, "total_tokens": 4},
		})
	}))
}

func TestOpenAIEmbedder_Embed(t *testing.T) {
	var counter atomic.Int64
	srv := fakeOpenAIServer(t, &counter, 0)
	defer srv.Close()

	p := NewOpenAIEmbedder(OpenAIConfig{APIKey: "test-key", BaseURL: srv.URL, Model: "test-model"})
	defer func() { _ = p.Close() }()

	vec, err := p.Embed(context.Background(), "hello world")
	require.NoError(t, err)
	require.Len(t, vec, 3)
	assert.InDelta(t, 0.1, vec[0], 1e-6)
	assert.Equal(t, int64(1), counter.Load())
	assert.Equal(t, "test-model", p.Model())
}

func TestOpenAIEmbedder_NoRetryByDefault(t *testing.T) {
	var counter atomic.Int64
	srv := fakeOpenAIServer(t, &counter, 999)
	defer srv.Close()

	p := NewOpenAIEmbedder(OpenAIConfig{APIKey: "test-key", BaseURL: srv.URL})

	_, err := p.Embed(context.Background(), "hello world")
	require.ErrorIs(t, err, errEmptyEmbedding)
	var perr *ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, int64(1), counter.Load())
}

func TestOpenAIEmbedder_RetriesWhenConfigured(t *testing.T) {
	var counter atomic.Int64
	srv := fakeOpenAIServer(t, &counter, 2)
	defer srv.Close()

	p := NewOpenAIEmbedder(OpenAIConfig{
		APIKey:       "test-key",
		BaseURL:      srv.URL,
		MaxRetries:   3,
		InitialDelay: time.Millisecond,
	})

	vec, err := p.Embed(context.Background(), "hello world")
	require.NoError(t, err)
	assert.Len(t, vec, 3)
	assert.Equal(t, int64(3), counter.Load(), "two retries then success")
}

func TestOpenAIEmbedder_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	p := NewOpenAIEmbedder(OpenAIConfig{APIKey: "bad", BaseURL: srv.URL, MaxRetries: 2, InitialDelay: time.Millisecond})

	_, err := p.Embed(context.Background(), "hello world")
	var perr *ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, http.StatusUnauthorized, perr.StatusCode())
	assert.Contains(t, err.Error(), "Incorrect API key provided")
}

func TestOpenAIEmbedder_CancelledContext(t *testing.T) {
	var counter atomic.Int64
	srv := fakeOpenAIServer(t, &counter, 0)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewOpenAIEmbedder(OpenAIConfig{APIKey: "test-key", BaseURL: srv.URL})
	_, err := p.Embed(ctx, "hello world")
	require.Error(t, err)
	assert.Zero(t, counter.Load())
}
