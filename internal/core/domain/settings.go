package domain

import "strings"

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API or a compatible endpoint.
	AIProviderOpenAI AIProvider = "openai"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds configuration for one embedding backend.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint.
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// Retries is the number of extra attempts before falling back.
	Retries int

	// RequestsPerSecond throttles outbound calls (0 disables throttling).
	RequestsPerSecond float64
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// OutputDimensions returns the vector size this backend produces when
// domains are fixed at requested dimensions, or 0 for an unknown model.
// Only OpenAI text-embedding-3 models can shorten their vectors.
func (e EmbeddingSettings) OutputDimensions(requested int) int {
	if requested > 0 && e.Provider == AIProviderOpenAI && strings.HasPrefix(e.Model, "text-embedding-3-") {
		return requested
	}
	return EmbeddingDimensions()[e.Model]
}

// RetrievalSettings holds retrieval defaults.
type RetrievalSettings struct {
	// DefaultResults is used when a request does not set n_results.
	DefaultResults int
}

// StorageBackend selects the knowledge store implementation.
type StorageBackend string

// Available storage backends.
const (
	StorageBackendSQLite StorageBackend = "sqlite"
	StorageBackendMemory StorageBackend = "memory"
)

// IsValid returns true if the backend is recognised.
func (b StorageBackend) IsValid() bool {
	return b == StorageBackendSQLite || b == StorageBackendMemory
}

// KnowledgeSettings holds the domain registry and storage configuration.
type KnowledgeSettings struct {
	// Domains lists the configured partition names.
	Domains []string

	// Dimensions fixes the embedding size for every domain. The default
	// matches the local model so the remote one shortens its vectors to fit.
	Dimensions int

	// Backend selects the store implementation.
	Backend StorageBackend

	// DataDir overrides the store location.
	DataDir string
}

// AppSettings holds all application settings.
type AppSettings struct {
	// Primary is the remote embedding backend tried first.
	Primary EmbeddingSettings

	// Secondary is the local embedding backend used as fallback.
	Secondary EmbeddingSettings

	// Retrieval holds retrieval defaults.
	Retrieval RetrievalSettings

	// Knowledge holds domain registry and storage settings.
	Knowledge KnowledgeSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// The primary backend is left unconfigured until an API key is supplied;
// the secondary points at a local Ollama instance. Both produce
// DefaultDimensions-sized vectors.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Primary: EmbeddingSettings{
			Provider: AIProviderOpenAI,
			Model:    DefaultEmbeddingModels()[AIProviderOpenAI],
		},
		Secondary: EmbeddingSettings{
			Provider: AIProviderOllama,
			Model:    DefaultEmbeddingModels()[AIProviderOllama],
			BaseURL:  "http://localhost:11434",
		},
		Retrieval: RetrievalSettings{
			DefaultResults: DefaultResults,
		},
		Knowledge: KnowledgeSettings{
			Dimensions: DefaultDimensions,
			Backend:    StorageBackendSQLite,
		},
	}
}

// DefaultDimensions is the vector size of the default local model.
const DefaultDimensions = 768

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
