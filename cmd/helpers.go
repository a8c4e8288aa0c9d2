package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ziadkadry99/chat-lens/internal/archive"
	"github.com/ziadkadry99/chat-lens/internal/config"
	"github.com/ziadkadry99/chat-lens/internal/contacts"
	"github.com/ziadkadry99/chat-lens/internal/embeddings"
	"github.com/ziadkadry99/chat-lens/internal/llm"
	"github.com/ziadkadry99/chat-lens/internal/resolver"
	"github.com/ziadkadry99/chat-lens/internal/store"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `chatlens init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w\nEdit %s or rerun `chatlens init`", err, cfgFile)
	}
	return cfg, nil
}

// openArchive loads the export and the contact book named by the config
// and builds a resolver over them. Stored manual corrections are
// replayed so they keep winning across runs.
func openArchive(cfg *config.Config) (*archive.Archive, *resolver.Resolver, error) {
	arc, err := archive.Load(cfg.Archive)
	if err != nil {
		return nil, nil, fmt.Errorf("loading archive: %w", err)
	}

	book, err := contacts.Load(cfg.Contacts)
	if err != nil {
		return nil, nil, fmt.Errorf("loading contacts: %w", err)
	}

	res := resolver.New(book, arc, resolver.Options{
		CountryCode: cfg.DefaultCountryCode,
		Fallback:    cfg.FallbackName,
	})

	if err := replayCorrections(cfg, res); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not load corrections: %v\n", err)
	}

	return arc, res, nil
}

// replayCorrections applies every stored manual correction to the resolver.
func replayCorrections(cfg *config.Config, res *resolver.Resolver) error {
	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	corrs, err := db.ListCorrections(context.Background())
	if err != nil {
		return err
	}
	for _, c := range corrs {
		res.AddManualCorrection(c.Identifier, c.DisplayName)
	}
	return nil
}

// openStore opens the sqlite database under the cache directory.
func openStore(cfg *config.Config) (*store.DB, error) {
	return store.Open(filepath.Join(cfg.CacheDir, "chatlens.db"))
}

// vectorDir is where the semantic index persists between runs.
func vectorDir(cfg *config.Config) string {
	return filepath.Join(cfg.CacheDir, "vectors")
}

// createEmbedderFromConfig creates an embeddings.Embedder based on config.
// This is the shared version used by the index, ask, analyze and serve commands.
func createEmbedderFromConfig(cfg *config.Config) (embeddings.Embedder, error) {
	model := cfg.EmbeddingModel
	if model == "" {
		model = config.GetPreset(cfg.Provider).EmbeddingModel
	}

	switch cfg.Provider {
	case config.ProviderOllama:
		return embeddings.NewOllamaEmbedder(model, 768, ""), nil
	default:
		apiKey := os.Getenv(config.APIKeyEnvVar(config.ProviderOpenAI))
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is required for OpenAI embeddings")
		}
		return embeddings.NewOpenAIEmbedder(apiKey, embeddings.OpenAIModel(model)), nil
	}
}

// createLLMProviderFromConfig creates an LLM provider based on config settings.
func createLLMProviderFromConfig(cfg *config.Config) (llm.Provider, error) {
	return llm.NewProvider(string(cfg.Provider), cfg.Model)
}
