package config

// ProviderType identifies an LLM provider.
type ProviderType string

const (
	ProviderOpenAI ProviderType = "openai"
	ProviderOllama ProviderType = "ollama"
)

// Config is the top-level chatlens configuration, corresponding to .chatlens.yml.
type Config struct {
	Archive             string       `yaml:"archive" koanf:"archive"`
	Contacts            string       `yaml:"contacts" koanf:"contacts"`
	DefaultCountryCode  string       `yaml:"default_country_code" koanf:"default_country_code"`
	FallbackName        string       `yaml:"fallback_name" koanf:"fallback_name"`
	OutputDir           string       `yaml:"output_dir" koanf:"output_dir"`
	CacheDir            string       `yaml:"cache_dir" koanf:"cache_dir"`
	Provider            ProviderType `yaml:"provider" koanf:"provider"`
	Model               string       `yaml:"model" koanf:"model"`
	EmbeddingModel      string       `yaml:"embedding_model" koanf:"embedding_model"`
	ConfidenceThreshold int          `yaml:"confidence_threshold" koanf:"confidence_threshold"`
	ContextSize         int          `yaml:"context_size" koanf:"context_size"`
	MaxConcurrency      int          `yaml:"max_concurrency" koanf:"max_concurrency"`
}
