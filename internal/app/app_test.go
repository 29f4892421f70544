package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragkit/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ragkit/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/ragkit/internal/core/domain"
)

// isolate points every environment lookup at throwaway values.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv(EnvHome, "")
	t.Setenv(EnvOpenAIAPIKey, "")
	// Unreachable so the secondary backend is marked unavailable quickly.
	t.Setenv(EnvOllamaHost, "http://127.0.0.1:1")
	t.Chdir(t.TempDir())
	return home
}

func TestNew_DefaultsToSQLite(t *testing.T) {
	home := isolate(t)

	c, err := New(context.Background(), Options{Home: home})
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, home, c.Home)
	assert.Equal(t, filepath.Join(home, "config.toml"), c.Config.Path())
	store, ok := c.Store.(*sqlite.Store)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(home, "data", "knowledge.db"), store.Path())
	assert.NotEmpty(t, c.Warnings)

	_, err = c.Retrieval.Query(context.Background(), domain.QueryRequest{Query: "loops", Domain: domain.DomainLabAssistant})
	assert.True(t, errors.Is(err, domain.ErrEmbeddingUnavailable))
}

func TestNew_MemoryBackendFromConfig(t *testing.T) {
	home := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(home, "config.toml"), []byte(`
[storage]
backend = "memory"

[knowledge]
domains = ["robotics"]
`), 0600))

	c, err := New(context.Background(), Options{Home: home})
	require.NoError(t, err)
	defer c.Close()

	_, ok := c.Store.(*memory.KnowledgeStore)
	require.True(t, ok)

	infos, err := c.Retrieval.Domains(context.Background())
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "robotics", infos[0].Name)
	assert.Equal(t, domain.DomainUserInteractions, infos[1].Name)
}

func TestNew_ReadsEnvFile(t *testing.T) {
	home := isolate(t)
	envFile := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte(EnvOpenAIAPIKey+"=sk-from-env\n"), 0600))
	// godotenv does not override variables that are already set.
	require.NoError(t, os.Unsetenv(EnvOpenAIAPIKey))

	c, err := New(context.Background(), Options{Home: home, EnvFile: envFile})
	require.NoError(t, err)
	defer c.Close()
	defer os.Unsetenv(EnvOpenAIAPIKey)

	statuses := c.Embedder.Backends()
	require.Len(t, statuses, 2)
	assert.True(t, statuses[0].Configured)
	assert.True(t, statuses[0].Available)

	settings, err := c.Settings.Get()
	require.NoError(t, err)
	assert.Empty(t, settings.Primary.APIKey)
}

func TestNew_HomeFromEnvironment(t *testing.T) {
	isolate(t)
	home := t.TempDir()
	t.Setenv(EnvHome, home)

	c, err := New(context.Background(), Options{})
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, home, c.Home)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvOpenAIAPIKey, "sk-env")
	t.Setenv(EnvOllamaHost, "http://gpu:11434")

	settings := domain.DefaultAppSettings()
	applyEnv(&settings)
	assert.Equal(t, "sk-env", settings.Primary.APIKey)
	assert.Equal(t, "http://gpu:11434", settings.Secondary.BaseURL)

	settings = domain.DefaultAppSettings()
	settings.Primary.APIKey = "sk-file"
	settings.Secondary.BaseURL = "http://custom:11434"
	applyEnv(&settings)
	assert.Equal(t, "sk-file", settings.Primary.APIKey)
	assert.Equal(t, "http://custom:11434", settings.Secondary.BaseURL)
}

func TestOpenStore_UnknownBackend(t *testing.T) {
	_, err := openStore(t.TempDir(), domain.KnowledgeSettings{Backend: "redis"})
	assert.True(t, errors.Is(err, domain.ErrUnsupportedType))
}
