package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/ragkit/internal/core/domain"
	"github.com/custodia-labs/ragkit/internal/core/ports/driven"
	"github.com/custodia-labs/ragkit/internal/logger"
)

// Ensure FallbackEmbedder implements the interface.
var _ driven.EmbeddingService = (*FallbackEmbedder)(nil)

// DefaultRetryBackoff is the base delay between retries of one backend.
// The nth retry waits n times this long.
const DefaultRetryBackoff = 250 * time.Millisecond

var errEmptyEmbedding = errors.New("backend returned an empty embedding")

// EmbeddingBackend is one link of the fallback chain.
type EmbeddingBackend struct {
	// Name identifies the backend in logs and errors (e.g. "openai").
	Name string

	// Service is the adapter. It may be nil when the backend is not configured.
	Service driven.EmbeddingService

	// Configured reports whether settings for this backend exist.
	Configured bool

	// Available reports whether the backend was reachable at startup.
	Available bool

	// Retries is the number of extra attempts before moving on.
	Retries int
}

func (b EmbeddingBackend) usable() bool {
	return b.Configured && b.Available && b.Service != nil
}

func (b EmbeddingBackend) status() domain.BackendStatus {
	return domain.BackendStatus{Name: b.Name, Configured: b.Configured, Available: b.Available}
}

// FallbackEmbedder tries an ordered chain of embedding backends.
// The first backend that returns a vector wins; failures of earlier
// backends are logged and absorbed. When every backend fails the caller
// gets a *domain.EmbeddingError and never a zero or partial vector.
type FallbackEmbedder struct {
	backends []EmbeddingBackend
	backoff  time.Duration
}

// NewFallbackEmbedder creates a fallback chain over backends in order.
func NewFallbackEmbedder(backends ...EmbeddingBackend) *FallbackEmbedder {
	return &FallbackEmbedder{
		backends: backends,
		backoff:  DefaultRetryBackoff,
	}
}

// SetRetryBackoff overrides the base retry delay.
func (e *FallbackEmbedder) SetRetryBackoff(d time.Duration) {
	e.backoff = d
}

// Backends returns the configured chain status without errors.
func (e *FallbackEmbedder) Backends() []domain.BackendStatus {
	statuses := make([]domain.BackendStatus, len(e.backends))
	for i, b := range e.backends {
		statuses[i] = b.status()
	}
	return statuses
}

// Embed returns the first successful embedding from the chain.
func (e *FallbackEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	statuses := make([]domain.BackendStatus, 0, len(e.backends))

	for _, b := range e.backends {
		st := b.status()
		if !b.usable() {
			statuses = append(statuses, st)
			continue
		}

		vec, err := withRetries(ctx, b, e.backoff, func() ([]float32, error) {
			v, err := b.Service.Embed(ctx, text)
			if err == nil && len(v) == 0 {
				err = errEmptyEmbedding
			}
			return v, err
		})
		if err == nil {
			return vec, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("embed with %s: %w", b.Name, ctxErr)
		}

		logger.Warn("embedding backend %s failed (input_length=%d): %v", b.Name, len(text), err)
		st.Err = err
		statuses = append(statuses, st)
	}

	return nil, &domain.EmbeddingError{InputLength: len(text), Backends: statuses}
}

// EmbedBatch embeds texts with the first backend that handles the whole batch.
func (e *FallbackEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	total := 0
	for _, t := range texts {
		total += len(t)
	}

	statuses := make([]domain.BackendStatus, 0, len(e.backends))
	for _, b := range e.backends {
		st := b.status()
		if !b.usable() {
			statuses = append(statuses, st)
			continue
		}

		vecs, err := withRetries(ctx, b, e.backoff, func() ([][]float32, error) {
			v, err := b.Service.EmbedBatch(ctx, texts)
			if err != nil {
				return nil, err
			}
			if len(v) != len(texts) {
				return nil, fmt.Errorf("backend returned %d embeddings for %d texts", len(v), len(texts))
			}
			for _, vec := range v {
				if len(vec) == 0 {
					return nil, errEmptyEmbedding
				}
			}
			return v, nil
		})
		if err == nil {
			return vecs, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("embed batch with %s: %w", b.Name, ctxErr)
		}

		logger.Warn("embedding backend %s failed batch of %d: %v", b.Name, len(texts), err)
		st.Err = err
		statuses = append(statuses, st)
	}

	return nil, &domain.EmbeddingError{InputLength: total, Backends: statuses}
}

// Dimensions returns the vector size of the first usable backend, or 0.
func (e *FallbackEmbedder) Dimensions() int {
	for _, b := range e.backends {
		if b.usable() {
			return b.Service.Dimensions()
		}
	}
	return 0
}

// ModelName returns the model of the first usable backend.
func (e *FallbackEmbedder) ModelName() string {
	for _, b := range e.backends {
		if b.usable() {
			return b.Service.ModelName()
		}
	}
	return ""
}

// Ping succeeds when any usable backend responds.
func (e *FallbackEmbedder) Ping(ctx context.Context) error {
	statuses := make([]domain.BackendStatus, 0, len(e.backends))
	for _, b := range e.backends {
		st := b.status()
		if b.usable() {
			err := b.Service.Ping(ctx)
			if err == nil {
				return nil
			}
			st.Err = err
		}
		statuses = append(statuses, st)
	}
	return &domain.EmbeddingError{Backends: statuses}
}

// Close releases every backend.
func (e *FallbackEmbedder) Close() error {
	var errs []error
	for _, b := range e.backends {
		if b.Service == nil {
			continue
		}
		if err := b.Service.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", b.Name, err))
		}
	}
	return errors.Join(errs...)
}

// withRetries runs fn up to 1+b.Retries times with linear backoff.
func withRetries[T any](ctx context.Context, b EmbeddingBackend, backoff time.Duration, fn func() (T, error)) (T, error) {
	var (
		result T
		err    error
	)
	for attempt := 0; attempt <= b.Retries; attempt++ {
		if attempt > 0 {
			logger.Debug("retrying embedding backend %s (attempt %d/%d)", b.Name, attempt+1, b.Retries+1)
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(time.Duration(attempt) * backoff):
			}
		}
		result, err = fn()
		if err == nil {
			return result, nil
		}
		if ctx.Err() != nil {
			return result, err
		}
	}
	return result, err
}
