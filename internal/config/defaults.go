package config

// ProviderPreset describes the model pair a provider starts out with.
type ProviderPreset struct {
	Model          string
	EmbeddingModel string
}

// providerPresets maps each provider to its default model choices.
var providerPresets = map[ProviderType]ProviderPreset{
	ProviderOpenAI: {Model: "gpt-4o-mini", EmbeddingModel: "text-embedding-3-small"},
	ProviderOllama: {Model: "llama3", EmbeddingModel: "nomic-embed-text"},
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Archive:             "data/result.json",
		Contacts:            "data/contacts.json",
		DefaultCountryCode:  "52",
		FallbackName:        "Desconocido",
		OutputDir:           "reports",
		CacheDir:            ".chatlens",
		Provider:            ProviderOpenAI,
		Model:               "gpt-4o-mini",
		EmbeddingModel:      "text-embedding-3-small",
		ConfidenceThreshold: 50,
		ContextSize:         2,
		MaxConcurrency:      4,
	}
}

// GetPreset returns the default models for the given provider. Unknown
// providers fall back to the OpenAI preset.
func GetPreset(provider ProviderType) ProviderPreset {
	if preset, ok := providerPresets[provider]; ok {
		return preset
	}
	return providerPresets[ProviderOpenAI]
}
