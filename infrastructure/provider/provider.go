// Package provider implements embedding clients for external embedding APIs.
package provider

import (
	"errors"
	"fmt"
)

// ErrUnsupportedProvider indicates an unknown provider name.
var ErrUnsupportedProvider = errors.New("unsupported embedding provider")

// Provider names.
const (
	Gemini = "gemini"
	OpenAI = "openai"
)

// ProviderError wraps a failed provider call. For HTTP failures the raw
// response body is kept as the message so callers can diagnose it.
type ProviderError struct {
	operation  string
	statusCode int
	message    string
	cause      error
}

// NewProviderError creates a new ProviderError.
func NewProviderError(operation string, statusCode int, message string, cause error) *ProviderError {
	return &ProviderError{
		operation:  operation,
		statusCode: statusCode,
		message:    message,
		cause:      cause,
	}
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	msg := e.operation + " failed"
	if e.statusCode > 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.statusCode)
	}
	if e.message != "" {
		msg += ": " + e.message
	}
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *ProviderError) Unwrap() error {
	return e.cause
}

// StatusCode returns the HTTP status code, or 0 if the call never got a response.
func (e *ProviderError) StatusCode() int { return e.statusCode }

// Message returns the provider message or raw response body.
func (e *ProviderError) Message() string { return e.message }
