// Package domain defines domain-specific errors.
// These errors represent business logic failures and are independent of infrastructure.
package domain

import (
	"errors"
	"fmt"
)

// Common errors that services can return.
var (
	// ErrFileNotFound is returned when a requested local file does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrNoMediaLoaded is returned when an operation requires loaded media.
	ErrNoMediaLoaded = errors.New("no media loaded")

	// ErrPlaylistEmpty is returned when an operation requires a non-empty playlist.
	ErrPlaylistEmpty = errors.New("playlist is empty")

	// ErrInvalidIndex is returned when a playlist index is out of bounds.
	ErrInvalidIndex = errors.New("invalid playlist index")

	// ErrEngineClosed is returned when the engine connection has been shut down.
	ErrEngineClosed = errors.New("engine connection closed")

	// ErrSearchInProgress is returned when a search slot is already occupied
	// and the caller did not allow cancellation.
	ErrSearchInProgress = errors.New("search already in progress")

	// ErrMirrorsExhausted is returned after the bounded mirror fallback fails.
	ErrMirrorsExhausted = errors.New("all search mirrors failed")
)

// EngineError wraps a failure reported by the external media engine.
type EngineError struct {
	Op      string // Operation that failed (e.g., "set_property", "command")
	Name    string // Property name or command verb, if applicable
	Message string // Error string from the engine
	Err     error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("engine %s %q failed: %s", e.Op, e.Name, e.Message)
	}
	return fmt.Sprintf("engine %s failed: %s", e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *EngineError) Unwrap() error {
	return e.Err
}

// NewEngineError creates a new EngineError.
func NewEngineError(op, name, message string, err error) *EngineError {
	return &EngineError{
		Op:      op,
		Name:    name,
		Message: message,
		Err:     err,
	}
}

// StoreError wraps a persistence-layer failure. Storage errors never stop
// playback; they are logged by the caller and reads degrade to zero values.
type StoreError struct {
	Op      string // Operation that failed (e.g., "position", "save", "delete")
	Message string // Error message
	Err     error  // Underlying error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s failed: %s", e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError.
func NewStoreError(op, message string, err error) *StoreError {
	return &StoreError{
		Op:      op,
		Message: message,
		Err:     err,
	}
}
