// Package embedding defines the batch embedding request, its per-record
// outcomes, and the ports the orchestrator depends on.
package embedding

import (
	"errors"
	"fmt"

	"github.com/momah-portal/embedgen/domain/entity"
)

// ErrInvalidMode indicates an unknown selection mode.
var ErrInvalidMode = errors.New("invalid mode")

// Mode selects which records an invocation processes.
type Mode string

// Selection modes.
const (
	ModeAll     Mode = "all"
	ModeMissing Mode = "missing"
	ModeIDs     Mode = "ids"
)

// ParseMode resolves the request mode. Explicit ids take precedence over
// the mode string; an omitted mode means all.
func ParseMode(mode string, ids []string) (Mode, error) {
	if len(ids) > 0 {
		return ModeIDs, nil
	}
	switch Mode(mode) {
	case "", ModeAll:
		return ModeAll, nil
	case ModeMissing:
		return ModeMissing, nil
	}
	return "", &InvalidModeError{Mode: mode}
}

// InvalidModeError reports the rejected mode string.
type InvalidModeError struct {
	Mode string
}

// Error implements error.
func (e *InvalidModeError) Error() string {
	return fmt.Sprintf("Invalid mode %s", e.Mode)
}

// Is makes the error match ErrInvalidMode.
func (e *InvalidModeError) Is(target error) bool {
	return target == ErrInvalidMode
}

// Request is one validated batch invocation. It is never persisted.
type Request struct {
	entityName entity.Name
	mode       Mode
	ids        []string
}

// NewRequest creates a Request.
func NewRequest(entityName entity.Name, mode Mode, ids []string) Request {
	return Request{
		entityName: entityName,
		mode:       mode,
		ids:        append([]string(nil), ids...),
	}
}

// EntityName returns the entity kind to process.
func (r Request) EntityName() entity.Name { return r.entityName }

// Mode returns the selection mode.
func (r Request) Mode() Mode { return r.mode }

// IDs returns the explicit record ids (ModeIDs only).
func (r Request) IDs() []string { return append([]string(nil), r.ids...) }

// MissingCredentialError reports an absent embedding-provider credential.
type MissingCredentialError struct {
	Name string
}

// Error implements error.
func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("%s not configured", e.Name)
}
