package config

import (
	"fmt"
	"os"

	"github.com/manifoldco/promptui"
)

// archiveCandidates are the usual places an export lands after
// unzipping, in the order people tend to have them.
var archiveCandidates = []string{
	"data/result.json",
	"result.json",
	"whatsapp_export/result.json",
	"whatsapp_export/result/result.json",
}

// detectArchive checks the current directory for a WhatsApp export.
func detectArchive() string {
	for _, candidate := range archiveCandidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to .chatlens.yml.
func RunWizard() (*Config, error) {
	fmt.Println("Welcome to chatlens! Let's configure your archive.")
	fmt.Println()

	cfg := DefaultConfig()

	// Detect an export in the working directory.
	if found := detectArchive(); found != "" {
		fmt.Printf("Detected export at: %s\n\n", found)
		cfg.Archive = found
	}

	// 1. Archive path.
	archivePrompt := promptui.Prompt{
		Label:   "Path to the exported chat JSON",
		Default: cfg.Archive,
	}
	archivePath, err := archivePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("archive path: %w", err)
	}
	cfg.Archive = archivePath

	// 2. Contacts path.
	contactsPrompt := promptui.Prompt{
		Label:   "Path to the contacts JSON (built by 'chatlens contacts import')",
		Default: cfg.Contacts,
	}
	contactsPath, err := contactsPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("contacts path: %w", err)
	}
	cfg.Contacts = contactsPath

	// 3. Country code for bare numbers.
	ccPrompt := promptui.Prompt{
		Label:   "Default country code for short numbers",
		Default: cfg.DefaultCountryCode,
		Validate: func(s string) error {
			if s == "" {
				return fmt.Errorf("country code is required")
			}
			for _, r := range s {
				if r < '0' || r > '9' {
					return fmt.Errorf("digits only")
				}
			}
			return nil
		},
	}
	countryCode, err := ccPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("country code: %w", err)
	}
	cfg.DefaultCountryCode = countryCode

	// 4. Provider selection for the analysis features.
	providerPrompt := promptui.Select{
		Label: "Select LLM provider (for analyze/ask/index)",
		Items: []string{"openai", "ollama"},
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	cfg.Provider = ProviderType(providerStr)

	preset := GetPreset(cfg.Provider)
	cfg.Model = preset.Model
	cfg.EmbeddingModel = preset.EmbeddingModel

	// 5. Output directory.
	outputPrompt := promptui.Prompt{
		Label:   "Output directory for reports",
		Default: cfg.OutputDir,
	}
	outputDir, err := outputPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("output dir: %w", err)
	}
	cfg.OutputDir = outputDir

	// Check for API key.
	envVar := APIKeyEnvVar(cfg.Provider)
	if envVar != "" {
		if os.Getenv(envVar) == "" {
			fmt.Printf("\nNote: Set %s in your environment before running chatlens analyze.\n", envVar)
		}
	}

	// Save to .chatlens.yml.
	configPath := ".chatlens.yml"
	if err := cfg.Save(configPath); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", configPath)
	return cfg, nil
}
