// Package app assembles the adapters and services from settings.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/ragkit/internal/adapters/driven/ai"
	"github.com/custodia-labs/ragkit/internal/adapters/driven/config/file"
	"github.com/custodia-labs/ragkit/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ragkit/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/ragkit/internal/core/domain"
	"github.com/custodia-labs/ragkit/internal/core/ports/driven"
	"github.com/custodia-labs/ragkit/internal/core/semantic"
	"github.com/custodia-labs/ragkit/internal/core/services"
	"github.com/custodia-labs/ragkit/internal/logger"
)

// Environment variables read at startup.
const (
	EnvHome         = "RAGKIT_HOME"
	EnvEnvFile      = "RAGKIT_ENV_FILE"
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
	EnvOllamaHost   = "OLLAMA_HOST"
)

// Options controls where the container reads its state from.
type Options struct {
	// Home is the ragkit directory. Empty means $RAGKIT_HOME or ~/.ragkit.
	Home string

	// EnvFile is loaded before anything else. A missing file is ignored.
	EnvFile string
}

// Container holds the wired application.
type Container struct {
	Home      string
	Config    *file.ConfigStore
	Settings  *services.SettingsService
	Embedder  *services.FallbackEmbedder
	Store     driven.KnowledgeStore
	Processor *semantic.Processor
	Retrieval *services.RetrievalService
	Ingest    *services.IngestService

	// Warnings lists embedding backends left out of the chain.
	Warnings []string
}

// New loads configuration and builds every service.
func New(ctx context.Context, opts Options) (*Container, error) {
	if err := loadEnvFile(opts.EnvFile); err != nil {
		return nil, err
	}

	home, err := resolveHome(opts.Home)
	if err != nil {
		return nil, err
	}
	logger.Debug("ragkit home: %s", home)

	config, err := file.NewConfigStore(home)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	settingsService := services.NewSettingsService(config, ai.NewConfigValidator())
	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("reading settings: %w", err)
	}
	applyEnv(settings)

	processor, err := semantic.NewDefault()
	if err != nil {
		return nil, fmt.Errorf("loading semantic vocabulary: %w", err)
	}

	store, err := openStore(home, settings.Knowledge)
	if err != nil {
		return nil, err
	}

	chain, err := ai.BuildEmbeddingChain(ctx, settings)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	c := &Container{
		Home:      home,
		Config:    config,
		Settings:  settingsService,
		Embedder:  chain.Embedder,
		Store:     store,
		Processor: processor,
		Retrieval: services.NewRetrievalService(chain.Embedder, store, processor, settings.Retrieval.DefaultResults),
		Ingest:    services.NewIngestService(chain.Embedder, store),
		Warnings:  chain.Warnings,
	}
	return c, nil
}

// WatchConfig reloads retrieval defaults whenever the config file changes.
// Backend and storage changes need a restart. It blocks until ctx is done.
func (c *Container) WatchConfig(ctx context.Context) error {
	return c.Config.Watch(ctx, func() {
		settings, err := c.Settings.Get()
		if err != nil {
			logger.Warn("reading reloaded settings: %v", err)
			return
		}
		c.Retrieval.SetDefaultResults(settings.Retrieval.DefaultResults)
		logger.Debug("default results now %d", settings.Retrieval.DefaultResults)
	})
}

// Close releases the store and embedding backends.
func (c *Container) Close() error {
	var errs []error
	if c.Embedder != nil {
		errs = append(errs, c.Embedder.Close())
	}
	if c.Store != nil {
		errs = append(errs, c.Store.Close())
	}
	return errors.Join(errs...)
}

func loadEnvFile(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	logger.Debug("loaded environment from %s", path)
	return nil
}

func resolveHome(home string) (string, error) {
	if home != "" {
		return home, nil
	}
	if env := os.Getenv(EnvHome); env != "" {
		return env, nil
	}
	return file.DefaultDir()
}

// applyEnv fills settings from the environment without persisting them.
// Values in the config file win.
func applyEnv(settings *domain.AppSettings) {
	if settings.Primary.Provider == domain.AIProviderOpenAI && settings.Primary.APIKey == "" {
		settings.Primary.APIKey = os.Getenv(EnvOpenAIAPIKey)
	}
	if host := os.Getenv(EnvOllamaHost); host != "" &&
		settings.Secondary.Provider == domain.AIProviderOllama &&
		settings.Secondary.BaseURL == domain.DefaultAppSettings().Secondary.BaseURL {
		settings.Secondary.BaseURL = host
	}
}

func openStore(home string, knowledge domain.KnowledgeSettings) (driven.KnowledgeStore, error) {
	domains := domain.KnowledgeDomainsFromNames(knowledge.Domains, knowledge.Dimensions)

	switch knowledge.Backend {
	case domain.StorageBackendMemory:
		logger.Debug("using in-memory knowledge store")
		return memory.NewKnowledgeStore(domains), nil
	case domain.StorageBackendSQLite, "":
		dataDir := knowledge.DataDir
		if dataDir == "" {
			dataDir = filepath.Join(home, "data")
		}
		store, err := sqlite.NewStore(dataDir, domains)
		if err != nil {
			return nil, fmt.Errorf("opening knowledge store: %w", err)
		}
		logger.Debug("knowledge store: %s", store.Path())
		return store, nil
	default:
		return nil, fmt.Errorf("%w: storage backend %q", domain.ErrUnsupportedType, knowledge.Backend)
	}
}
