package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/momah-portal/embedgen/domain/embedding"
	"github.com/momah-portal/embedgen/domain/entity"
	"github.com/momah-portal/embedgen/internal/database"
)

// Base API errors as sentinels.
var (
	// ErrAuthentication indicates authentication failure.
	ErrAuthentication = errors.New("authentication failed")

	// ErrServer indicates the server returned an error response.
	ErrServer = errors.New("server error")
)

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// APIError represents a structured API error with additional context.
type APIError struct {
	code    int
	message string
	cause   error
}

// NewAPIError creates a new APIError.
func NewAPIError(code int, message string, cause error) *APIError {
	return &APIError{
		code:    code,
		message: message,
		cause:   cause,
	}
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("api error %d: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("api error %d: %s", e.code, e.message)
}

// Unwrap returns the underlying cause.
func (e *APIError) Unwrap() error {
	return e.cause
}

// Code returns the error code.
func (e *APIError) Code() int {
	return e.code
}

// Message returns the error message.
func (e *APIError) Message() string {
	return e.message
}

// AuthenticationError represents an authentication failure.
type AuthenticationError struct {
	message string
}

// NewAuthenticationError creates a new AuthenticationError.
func NewAuthenticationError(message string) *AuthenticationError {
	return &AuthenticationError{message: message}
}

// Error implements the error interface.
func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication failed: %s", e.message)
}

// Unwrap returns the base authentication error for errors.Is compatibility.
func (e *AuthenticationError) Unwrap() error {
	return ErrAuthentication
}

// ServerError represents a server-side error.
type ServerError struct {
	statusCode int
	message    string
}

// NewServerError creates a new ServerError.
func NewServerError(statusCode int, message string) *ServerError {
	return &ServerError{
		statusCode: statusCode,
		message:    message,
	}
}

// Error implements the error interface.
func (e *ServerError) Error() string {
	return fmt.Sprintf("server error %d: %s", e.statusCode, e.message)
}

// Unwrap returns the base server error for errors.Is compatibility.
func (e *ServerError) Unwrap() error {
	return ErrServer
}

// StatusCode returns the HTTP status code.
func (e *ServerError) StatusCode() int {
	return e.statusCode
}

// Message returns the error message.
func (e *ServerError) Message() string {
	return e.message
}

// StatusFor maps an error to its HTTP status code and client-facing message.
func StatusFor(err error) (int, string) {
	var apiErr *APIError
	var serverErr *ServerError
	var unsupported *entity.UnsupportedEntityError
	var invalidMode *embedding.InvalidModeError
	var missing *embedding.MissingCredentialError

	switch {
	case errors.As(err, &apiErr):
		return apiErr.Code(), apiErr.Message()
	case errors.As(err, &serverErr):
		return serverErr.StatusCode(), serverErr.Message()
	case errors.Is(err, ErrAuthentication):
		return http.StatusUnauthorized, "Unauthorized"
	case errors.As(err, &unsupported):
		return http.StatusBadRequest, unsupported.Error()
	case errors.As(err, &invalidMode):
		return http.StatusBadRequest, invalidMode.Error()
	case errors.As(err, &missing):
		return http.StatusInternalServerError, missing.Error()
	case errors.Is(err, database.ErrNotFound):
		return http.StatusNotFound, err.Error()
	}
	return http.StatusInternalServerError, err.Error()
}

// WriteError writes {"error": message} with the status StatusFor selects.
func WriteError(w http.ResponseWriter, r *http.Request, err error, logger *slog.Logger) {
	status, message := StatusFor(err)

	if logger != nil {
		level := slog.LevelWarn
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(r.Context(), level, "request error",
			"correlation_id", GetCorrelationID(r.Context()),
			"status", status,
			"error", err.Error(),
			"path", r.URL.Path,
		)
	}

	WriteJSON(w, status, ErrorResponse{Error: message})
}

// WriteJSON writes a JSON response.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
