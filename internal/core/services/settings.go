package services

import (
	"errors"
	"fmt"

	"github.com/custodia-labs/ragkit/internal/core/domain"
	"github.com/custodia-labs/ragkit/internal/core/ports/driven"
	"github.com/custodia-labs/ragkit/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	KeyPrimaryProvider   = "embedding.primary.provider"
	KeyPrimaryModel      = "embedding.primary.model"
	KeyPrimaryBaseURL    = "embedding.primary.base_url"
	KeyPrimaryAPIKey     = "embedding.primary.api_key"
	KeyPrimaryRetries    = "embedding.primary.retries"
	KeyPrimaryRPS        = "embedding.primary.requests_per_second"
	KeySecondaryProvider = "embedding.secondary.provider"
	KeySecondaryModel    = "embedding.secondary.model"
	KeySecondaryBaseURL  = "embedding.secondary.base_url"
	KeySecondaryRetries  = "embedding.secondary.retries"
	KeyDefaultResults    = "retrieval.default_results"
	KeyKnowledgeDomains  = "knowledge.domains"
	KeyKnowledgeDims     = "knowledge.dimensions"
	KeyStorageBackend    = "storage.backend"
	KeyStorageDataDir    = "storage.data_dir"
)

const defaultLocalBaseURL = "http://localhost:11434"

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Primary: domain.EmbeddingSettings{
			Provider:          s.getProvider(KeyPrimaryProvider, defaults.Primary.Provider),
			Model:             s.getString(KeyPrimaryModel, defaults.Primary.Model),
			BaseURL:           s.configStore.GetString(KeyPrimaryBaseURL), // No default - empty is valid for cloud providers
			APIKey:            s.configStore.GetString(KeyPrimaryAPIKey),
			Retries:           s.configStore.GetInt(KeyPrimaryRetries),
			RequestsPerSecond: s.configStore.GetFloat(KeyPrimaryRPS),
		},
		Secondary: domain.EmbeddingSettings{
			Provider: s.getProvider(KeySecondaryProvider, defaults.Secondary.Provider),
			Model:    s.getString(KeySecondaryModel, defaults.Secondary.Model),
			BaseURL:  s.getString(KeySecondaryBaseURL, defaults.Secondary.BaseURL),
			Retries:  s.configStore.GetInt(KeySecondaryRetries),
		},
		Retrieval: domain.RetrievalSettings{
			DefaultResults: s.getInt(KeyDefaultResults, defaults.Retrieval.DefaultResults),
		},
		Knowledge: domain.KnowledgeSettings{
			Domains:    s.configStore.GetStringSlice(KeyKnowledgeDomains),
			Dimensions: s.getInt(KeyKnowledgeDims, defaults.Knowledge.Dimensions),
			Backend:    s.getBackend(defaults.Knowledge.Backend),
			DataDir:    s.configStore.GetString(KeyStorageDataDir),
		},
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{KeyPrimaryProvider, settings.Primary.Provider.String()},
		{KeyPrimaryModel, settings.Primary.Model},
		{KeyPrimaryBaseURL, settings.Primary.BaseURL},
		{KeyPrimaryRetries, settings.Primary.Retries},
		{KeyPrimaryRPS, settings.Primary.RequestsPerSecond},
		{KeySecondaryProvider, settings.Secondary.Provider.String()},
		{KeySecondaryModel, settings.Secondary.Model},
		{KeySecondaryBaseURL, settings.Secondary.BaseURL},
		{KeySecondaryRetries, settings.Secondary.Retries},
		{KeyDefaultResults, settings.Retrieval.DefaultResults},
		{KeyKnowledgeDims, settings.Knowledge.Dimensions},
		{KeyStorageBackend, string(settings.Knowledge.Backend)},
		{KeyStorageDataDir, settings.Knowledge.DataDir},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	if settings.Primary.APIKey != "" {
		if err := s.configStore.Set(KeyPrimaryAPIKey, settings.Primary.APIKey); err != nil {
			return fmt.Errorf("save %s: %w", KeyPrimaryAPIKey, err)
		}
	}
	if len(settings.Knowledge.Domains) > 0 {
		if err := s.configStore.Set(KeyKnowledgeDomains, settings.Knowledge.Domains); err != nil {
			return fmt.Errorf("save %s: %w", KeyKnowledgeDomains, err)
		}
	}

	return nil
}

// SetPrimaryEmbedding configures the remote embedding backend.
func (s *SettingsService) SetPrimaryEmbedding(provider domain.AIProvider, model, baseURL, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid embedding provider: %s", provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Primary.Provider = provider
	settings.Primary.Model = modelOrDefault(provider, model)
	settings.Primary.BaseURL = baseURL
	if provider.IsLocal() && baseURL == "" {
		settings.Primary.BaseURL = defaultLocalBaseURL
	}
	settings.Primary.APIKey = apiKey

	return s.Save(settings)
}

// SetSecondaryEmbedding configures the local fallback embedding backend.
func (s *SettingsService) SetSecondaryEmbedding(provider domain.AIProvider, model, baseURL string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid embedding provider: %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Secondary.Provider = provider
	settings.Secondary.Model = modelOrDefault(provider, model)
	settings.Secondary.BaseURL = baseURL
	if provider.IsLocal() && baseURL == "" {
		settings.Secondary.BaseURL = defaultLocalBaseURL
	}

	return s.Save(settings)
}

// SetDefaultResults updates the number of results returned by default.
func (s *SettingsService) SetDefaultResults(n int) error {
	if n <= 0 {
		return fmt.Errorf("%w: default results must be positive, got %d", domain.ErrInvalidInput, n)
	}
	return s.configStore.Set(KeyDefaultResults, n)
}

// Validate checks that settings are internally consistent.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	var errs []error
	if !settings.Primary.IsConfigured() && !settings.Secondary.IsConfigured() {
		errs = append(errs, errors.New("no embedding backend is configured"))
	}
	if settings.Primary.Retries < 0 || settings.Secondary.Retries < 0 {
		errs = append(errs, errors.New("embedding retries must not be negative"))
	}
	if settings.Primary.RequestsPerSecond < 0 {
		errs = append(errs, errors.New("requests_per_second must not be negative"))
	}
	if r := settings.Retrieval.DefaultResults; r <= 0 {
		errs = append(errs, fmt.Errorf("default results must be positive, got %d", r))
	}
	if settings.Knowledge.Dimensions < 0 {
		errs = append(errs, errors.New("knowledge dimensions must not be negative"))
	}
	if err := checkChainDimensions(settings); err != nil {
		errs = append(errs, err)
	}
	if stored := s.configStore.GetString(KeyStorageBackend); stored != "" && !domain.StorageBackend(stored).IsValid() {
		errs = append(errs, fmt.Errorf("unknown storage backend %q", stored))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", domain.ErrInvalidInput, errors.Join(errs...))
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the primary embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Primary)
}

// checkChainDimensions rejects a chain whose backends would write vectors
// of different sizes into the same domains.
func checkChainDimensions(settings *domain.AppSettings) error {
	if !settings.Primary.IsConfigured() || !settings.Secondary.IsConfigured() {
		return nil
	}
	dims := settings.Knowledge.Dimensions
	primary := settings.Primary.OutputDimensions(dims)
	secondary := settings.Secondary.OutputDimensions(dims)
	if primary == 0 || secondary == 0 || primary == secondary {
		return nil
	}
	return fmt.Errorf("primary model %s produces %d dimensions but secondary model %s produces %d",
		settings.Primary.Model, primary, settings.Secondary.Model, secondary)
}

func modelOrDefault(provider domain.AIProvider, model string) string {
	if model != "" {
		return model
	}
	return domain.DefaultEmbeddingModels()[provider]
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getBackend(defaultVal domain.StorageBackend) domain.StorageBackend {
	backend := domain.StorageBackend(s.configStore.GetString(KeyStorageBackend))
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}
