// Package ai provides factory functions for creating embedding adapters
// and assembling the fallback chain.
package ai

import (
	"context"
	"fmt"
	"time"

	ollamaembed "github.com/custodia-labs/ragkit/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/ragkit/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/ragkit/internal/core/domain"
	"github.com/custodia-labs/ragkit/internal/core/ports/driven"
	"github.com/custodia-labs/ragkit/internal/core/services"
	"github.com/custodia-labs/ragkit/internal/logger"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// Backend names reported in logs and errors.
const (
	BackendPrimary   = "primary"
	BackendSecondary = "secondary"
)

// ChainResult is the assembled embedding chain plus the reasons any
// backend was left out.
type ChainResult struct {
	Embedder *services.FallbackEmbedder
	Warnings []string
}

// BuildEmbeddingChain creates the primary and secondary backends from settings.
// The primary is used as soon as it can be constructed. The secondary is
// pinged first because a local server is often simply not running.
// A backend that cannot be created stays in the chain as unavailable so
// errors can name it. Backends that produce vectors of different sizes
// are rejected with ErrDimensionMismatch.
func BuildEmbeddingChain(ctx context.Context, settings *domain.AppSettings) (*ChainResult, error) {
	result := &ChainResult{}
	dims := settings.Knowledge.Dimensions

	primary := EmbeddingBackendFor(BackendPrimary, &settings.Primary, dims)
	if primary.Configured && !primary.Available {
		result.Warnings = append(result.Warnings, fmt.Sprintf("%s embedding backend could not be created", BackendPrimary))
	}

	secondary := EmbeddingBackendFor(BackendSecondary, &settings.Secondary, dims)
	if primary.Available && secondary.Available {
		if p, s := primary.Service.Dimensions(), secondary.Service.Dimensions(); p != s {
			closeBackends(primary, secondary)
			return nil, fmt.Errorf("%w: %s produces %d dimensions, %s produces %d; set knowledge.dimensions to %d",
				domain.ErrDimensionMismatch, primary.Name, p, secondary.Name, s, s)
		}
	}
	if secondary.Available {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		err := secondary.Service.Ping(pingCtx)
		cancel()
		if err != nil {
			logger.Debug("secondary embedding backend unreachable: %v", err)
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("%s embedding backend unreachable: %v", BackendSecondary, err))
			secondary.Available = false
		}
	}

	for _, w := range result.Warnings {
		logger.Warn("%s", w)
	}

	result.Embedder = services.NewFallbackEmbedder(primary, secondary)
	return result, nil
}

func closeBackends(backends ...services.EmbeddingBackend) {
	for _, b := range backends {
		if b.Service != nil {
			_ = b.Service.Close()
		}
	}
}

// EmbeddingBackendFor wraps one settings block as a chain link.
func EmbeddingBackendFor(name string, settings *domain.EmbeddingSettings, dims int) services.EmbeddingBackend {
	b := services.EmbeddingBackend{
		Name:       fmt.Sprintf("%s(%s)", name, settings.Provider),
		Configured: settings.IsConfigured(),
		Retries:    settings.Retries,
	}
	if !b.Configured {
		return b
	}

	svc, err := CreateEmbeddingService(settings, dims)
	if err != nil {
		logger.Warn("create %s embedding backend: %v", name, err)
		return b
	}
	b.Service = svc
	b.Available = svc != nil
	return b
}

// ValidateEmbeddingConfig validates an embedding configuration by creating a service and pinging it.
// This is intended for the settings command to validate credentials on configuration.
func ValidateEmbeddingConfig(settings *domain.EmbeddingSettings) error {
	if settings == nil || !settings.IsConfigured() {
		return nil
	}

	svc, err := CreateEmbeddingService(settings, 0)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}

// CreateEmbeddingService creates the embedding adapter for settings.
// dims is passed to providers that can shorten their vectors.
func CreateEmbeddingService(settings *domain.EmbeddingSettings, dims int) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, fmt.Errorf("%w: embedding provider not configured", domain.ErrInvalidInput)
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return createOllamaEmbedding(settings), nil
	case domain.AIProviderOpenAI:
		return createOpenAIEmbedding(settings, dims)
	default:
		return nil, fmt.Errorf("%w: embedding provider %s", domain.ErrUnsupportedType, settings.Provider)
	}
}

func createOllamaEmbedding(settings *domain.EmbeddingSettings) driven.EmbeddingService {
	dimensions := domain.EmbeddingDimensions()[settings.Model]
	if dimensions == 0 {
		dimensions = ollamaembed.DefaultDimensions
	}

	return ollamaembed.NewEmbeddingService(ollamaembed.Config{
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Dimensions: dimensions,
	})
}

func createOpenAIEmbedding(settings *domain.EmbeddingSettings, dims int) (driven.EmbeddingService, error) {
	return openaiembed.NewEmbeddingService(openaiembed.Config{
		APIKey:            settings.APIKey,
		BaseURL:           settings.BaseURL,
		Model:             settings.Model,
		Dimensions:        dims,
		RequestsPerSecond: settings.RequestsPerSecond,
	})
}
