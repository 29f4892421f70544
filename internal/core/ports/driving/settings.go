package driving

import "github.com/custodia-labs/ragkit/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// SetPrimaryEmbedding configures the remote embedding backend.
	SetPrimaryEmbedding(provider domain.AIProvider, model, baseURL, apiKey string) error

	// SetSecondaryEmbedding configures the local fallback embedding backend.
	SetSecondaryEmbedding(provider domain.AIProvider, model, baseURL string) error

	// SetDefaultResults updates the number of results returned by default.
	SetDefaultResults(n int) error

	// Validate checks that settings are internally consistent.
	Validate() error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings

	// ValidateEmbeddingConfig validates the primary embedding configuration by pinging the provider.
	ValidateEmbeddingConfig() error
}
