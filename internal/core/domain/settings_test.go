package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAIProvider_IsValid(t *testing.T) {
	assert.True(t, AIProviderOllama.IsValid())
	assert.True(t, AIProviderOpenAI.IsValid())
	assert.False(t, AIProvider("").IsValid())
	assert.False(t, AIProvider("anthropic").IsValid())
}

func TestAIProvider_Properties(t *testing.T) {
	assert.True(t, AIProviderOpenAI.RequiresAPIKey())
	assert.False(t, AIProviderOllama.RequiresAPIKey())
	assert.True(t, AIProviderOllama.IsLocal())
	assert.False(t, AIProviderOpenAI.IsLocal())
	assert.Equal(t, "Ollama (local)", AIProviderOllama.Description())
	assert.Equal(t, "OpenAI (cloud)", AIProviderOpenAI.Description())
	assert.Equal(t, "Unknown", AIProvider("x").Description())
}

func TestEmbeddingSettings_IsConfigured(t *testing.T) {
	tests := []struct {
		name     string
		settings EmbeddingSettings
		expected bool
	}{
		{"empty", EmbeddingSettings{}, false},
		{"ollama without key", EmbeddingSettings{Provider: AIProviderOllama}, true},
		{"openai without key", EmbeddingSettings{Provider: AIProviderOpenAI}, false},
		{"openai with key", EmbeddingSettings{Provider: AIProviderOpenAI, APIKey: "sk-test"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.settings.IsConfigured())
		})
	}
}

func TestDefaultAppSettings(t *testing.T) {
	settings := DefaultAppSettings()

	assert.Equal(t, AIProviderOpenAI, settings.Primary.Provider)
	assert.False(t, settings.Primary.IsConfigured())
	assert.Equal(t, AIProviderOllama, settings.Secondary.Provider)
	assert.True(t, settings.Secondary.IsConfigured())
	assert.Equal(t, DefaultResults, settings.Retrieval.DefaultResults)
	assert.Equal(t, StorageBackendSQLite, settings.Knowledge.Backend)
	assert.Equal(t, DefaultDimensions, settings.Knowledge.Dimensions)
	assert.Equal(t,
		settings.Secondary.OutputDimensions(settings.Knowledge.Dimensions),
		settings.Primary.OutputDimensions(settings.Knowledge.Dimensions))
}

func TestEmbeddingSettings_OutputDimensions(t *testing.T) {
	tests := []struct {
		name      string
		settings  EmbeddingSettings
		requested int
		expected  int
	}{
		{"openai shortened", EmbeddingSettings{Provider: AIProviderOpenAI, Model: "text-embedding-3-large"}, 512, 512},
		{"openai native", EmbeddingSettings{Provider: AIProviderOpenAI, Model: "text-embedding-3-small"}, 0, 1536},
		{"openai fixed size", EmbeddingSettings{Provider: AIProviderOpenAI, Model: "text-embedding-ada-002"}, 512, 1536},
		{"ollama ignores request", EmbeddingSettings{Provider: AIProviderOllama, Model: "all-minilm"}, 768, 384},
		{"unknown model", EmbeddingSettings{Provider: AIProviderOllama, Model: "custom"}, 768, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.settings.OutputDimensions(tt.requested))
		})
	}
}

func TestKnowledgeDomainsFromNames(t *testing.T) {
	t.Run("defaults when empty", func(t *testing.T) {
		domains := KnowledgeDomainsFromNames(nil, 0)
		require.Len(t, domains, len(DefaultKnowledgeDomains()))
		assert.Equal(t, DomainContentGeneration, domains[0].Name)
	})

	t.Run("always includes interaction domain", func(t *testing.T) {
		domains := KnowledgeDomainsFromNames([]string{"lab_assistant", "robotics", "robotics", ""}, 384)
		require.Len(t, domains, 3)
		assert.Equal(t, DomainLabAssistant, domains[0].Name)
		assert.NotEmpty(t, domains[0].Description)
		assert.Equal(t, "robotics", domains[1].Name)
		assert.Empty(t, domains[1].Description)
		assert.Equal(t, DomainUserInteractions, domains[2].Name)
		for _, d := range domains {
			assert.Equal(t, 384, d.Dimensions)
		}
	})
}

func TestIntent(t *testing.T) {
	assert.Len(t, IntentPriority(), 6)
	assert.Equal(t, IntentHowTo, IntentPriority()[0])
	assert.True(t, IntentGeneral.IsValid())
	assert.False(t, Intent("chitchat").IsValid())

	analysis := IntentAnalysis{
		AllIntents: []Intent{IntentTroubleshoot},
		Concepts:   []ConceptMatch{{Area: "programming"}, {Area: "databases"}},
	}
	assert.True(t, analysis.HasIntent(IntentTroubleshoot))
	assert.False(t, analysis.HasIntent(IntentHowTo))
	assert.Equal(t, []string{"programming", "databases"}, analysis.ConceptAreas())
}
