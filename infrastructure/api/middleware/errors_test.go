package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/momah-portal/embedgen/domain/embedding"
	"github.com/momah-portal/embedgen/domain/entity"
	"github.com/momah-portal/embedgen/internal/database"
)

func TestAPIError(t *testing.T) {
	err := NewAPIError(404, "resource not found", nil)

	if err.Code() != 404 {
		t.Errorf("Code() = %v, want 404", err.Code())
	}
	if err.Message() != "resource not found" {
		t.Errorf("Message() = %v, want 'resource not found'", err.Message())
	}

	expected := "api error 404: resource not found"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestAPIError_WithCause(t *testing.T) {
	cause := errors.New("underlying error")
	err := NewAPIError(500, "internal error", cause)

	expected := "api error 500: internal error: underlying error"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}

	if err.Unwrap() != cause {
		t.Error("Unwrap() should return the cause")
	}
}

func TestAuthenticationError(t *testing.T) {
	err := NewAuthenticationError("invalid token")

	expected := "authentication failed: invalid token"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}

	// Should be matchable with errors.Is
	if !errors.Is(err, ErrAuthentication) {
		t.Error("AuthenticationError should match ErrAuthentication with errors.Is")
	}
}

func TestServerError(t *testing.T) {
	err := NewServerError(503, "service unavailable")

	if err.StatusCode() != 503 {
		t.Errorf("StatusCode() = %v, want 503", err.StatusCode())
	}
	if err.Message() != "service unavailable" {
		t.Errorf("Message() = %v, want 'service unavailable'", err.Message())
	}

	expected := "server error 503: service unavailable"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}

	// Should be matchable with errors.Is
	if !errors.Is(err, ErrServer) {
		t.Error("ServerError should match ErrServer with errors.Is")
	}
}

func TestErrors_CanBeWrapped(t *testing.T) {
	authErr := NewAuthenticationError("token expired")
	wrapped := fmt.Errorf("request failed: %w", authErr)

	if !errors.Is(wrapped, ErrAuthentication) {
		t.Error("wrapped AuthenticationError should still match ErrAuthentication")
	}

	// Should be able to extract the typed error
	var target *AuthenticationError
	if !errors.As(wrapped, &target) {
		t.Error("should be able to extract AuthenticationError with errors.As")
	}
}

func TestStatusFor(t *testing.T) {
	_, modeErr := embedding.ParseMode("sometimes", nil)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"api error", NewAPIError(http.StatusBadRequest, "invalid request body", errors.New("eof")), 400, "invalid request body"},
		{"authentication", NewAuthenticationError("missing API key"), 401, "Unauthorized"},
		{"unsupported entity", fmt.Errorf("generate: %w", entity.NewUnsupportedEntityError("User")), 400, "Entity User not supported for embeddings"},
		{"invalid mode", modeErr, 400, "Invalid mode sometimes"},
		{"missing credential", &embedding.MissingCredentialError{Name: "GOOGLE_API_KEY"}, 500, "GOOGLE_API_KEY not configured"},
		{"not found", fmt.Errorf("%w: challenges", database.ErrNotFound), 404, "entity not found: challenges"},
		{"server error", NewServerError(503, "service unavailable"), 503, "service unavailable"},
		{"other", errors.New("connection reset"), 500, "connection reset"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, msg := StatusFor(tt.err)
			if status != tt.wantStatus {
				t.Errorf("status = %d, want %d", status, tt.wantStatus)
			}
			if msg != tt.wantMsg {
				t.Errorf("message = %q, want %q", msg, tt.wantMsg)
			}
		})
	}
}

func TestWriteError(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/embeddings/generate", nil)
	w := httptest.NewRecorder()

	WriteError(w, req, &embedding.MissingCredentialError{Name: "GOOGLE_API_KEY"}, nil)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if got := strings.TrimSpace(w.Body.String()); got != `{"error":"GOOGLE_API_KEY not configured"}` {
		t.Errorf("body = %s", got)
	}
}
