package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidDomain indicates the caller referenced an unknown knowledge domain.
	// This is a client error and is never retried.
	ErrInvalidDomain = errors.New("invalid domain")

	// ErrEmbeddingUnavailable indicates every configured embedding backend failed.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrKnowledgeStore indicates the vector search or upsert call itself failed.
	ErrKnowledgeStore = errors.New("knowledge store error")

	// ErrDimensionMismatch indicates an embedding does not match the
	// dimensionality fixed for its domain.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrUnsupportedType indicates an unknown provider or backend type.
	ErrUnsupportedType = errors.New("unsupported type")
)

// Pipeline stages reported in StageError.
const (
	StageValidate  = "validate"
	StageEmbedding = "embedding"
	StageSearch    = "search"
	StageUpsert    = "upsert"
)

// StageError reports which pipeline stage failed, with enough context
// for an operator to diagnose the failure without reading logs.
type StageError struct {
	// Stage is the failing pipeline stage.
	Stage string

	// Domain is the knowledge domain involved.
	Domain string

	// QueryLength is the length in bytes of the query or content.
	QueryLength int

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed (domain=%s, input_length=%d): %v",
		e.Stage, e.Domain, e.QueryLength, e.Err)
}

// Unwrap returns the underlying cause.
func (e *StageError) Unwrap() error {
	return e.Err
}

// BackendStatus describes one embedding backend's part in a failed chain.
type BackendStatus struct {
	// Name identifies the backend (e.g. "openai:text-embedding-3-small").
	Name string

	// Configured is true when the backend was set up in settings.
	Configured bool

	// Available is true when the backend was loaded and attempted.
	Available bool

	// Err is the failure returned by the backend, if attempted.
	Err error
}

// EmbeddingError is returned when every embedding backend fails.
// It matches ErrEmbeddingUnavailable with errors.Is.
type EmbeddingError struct {
	// InputLength is the length in bytes of the text that failed to embed.
	InputLength int

	// Backends lists each backend in chain order.
	Backends []BackendStatus
}

// Error implements the error interface.
func (e *EmbeddingError) Error() string {
	parts := make([]string, 0, len(e.Backends))
	for _, b := range e.Backends {
		switch {
		case !b.Configured:
			parts = append(parts, b.Name+": not configured")
		case !b.Available:
			parts = append(parts, b.Name+": not available")
		case b.Err != nil:
			parts = append(parts, fmt.Sprintf("%s: %v", b.Name, b.Err))
		default:
			parts = append(parts, b.Name+": failed")
		}
	}
	if len(parts) == 0 {
		parts = append(parts, "no backends configured")
	}
	return fmt.Sprintf("%s (input_length=%d): %s",
		ErrEmbeddingUnavailable, e.InputLength, strings.Join(parts, "; "))
}

// Is makes EmbeddingError match ErrEmbeddingUnavailable.
func (e *EmbeddingError) Is(target error) bool {
	return target == ErrEmbeddingUnavailable
}
