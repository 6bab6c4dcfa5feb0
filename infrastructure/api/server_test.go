package api

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apimiddleware "github.com/momah-portal/embedgen/infrastructure/api/middleware"
)

func newTestServer(t *testing.T) (Server, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))
	return NewServer("127.0.0.1:0", logger), &logs
}

func TestNewServer_Addr(t *testing.T) {
	server, _ := newTestServer(t)

	assert.Equal(t, "127.0.0.1:0", server.Addr())
	assert.NotNil(t, server.Router())
}

func TestServer_MiddlewareChain(t *testing.T) {
	server, logs := newTestServer(t)
	server.Router().Get("/api/v1/embeddings/entities", func(w http.ResponseWriter, r *http.Request) {
		apimiddleware.WriteJSON(w, http.StatusOK, map[string]string{
			"correlation_id": apimiddleware.GetCorrelationID(r.Context()),
		})
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/embeddings/entities", nil)
	req.Header.Set(apimiddleware.CorrelationIDHeader, "run-42")
	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "run-42", w.Header().Get(apimiddleware.CorrelationIDHeader))
	assert.JSONEq(t, `{"correlation_id":"run-42"}`, w.Body.String())
	assert.Contains(t, logs.String(), `"path":"/api/v1/embeddings/entities"`)
}

func TestServer_PanicBecomesJSONError(t *testing.T) {
	server, _ := newTestServer(t)
	server.Router().Post("/api/v1/embeddings/generate", func(http.ResponseWriter, *http.Request) {
		panic("pilots table missing")
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/embeddings/generate", nil)
	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"pilots table missing"}`, w.Body.String())
}

func TestServer_UnknownRoute(t *testing.T) {
	server, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v2/embeddings", nil)
	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_ShutdownBeforeStart(t *testing.T) {
	server, _ := newTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	assert.NoError(t, server.Shutdown(ctx))
}
