package config

import (
	"errors"
	"os"
	"strings"

	"github.com/ShayCichocki/matchday/internal/llm"
)

// ErrNoAPIKey is returned when the selected provider has no API key.
var ErrNoAPIKey = errors.New("no model API key configured")

// providerEnv is the conventional key variable per provider. Bedrock uses
// the AWS credential chain instead.
var providerEnv = map[string]string{
	llm.ProviderAnthropic: "ANTHROPIC_API_KEY",
	llm.ProviderOpenAI:    "OPENAI_API_KEY",
}

func providerKeyFromEnv(provider string) string {
	name, ok := providerEnv[strings.ToLower(provider)]
	if !ok {
		return ""
	}
	return os.Getenv(name)
}

// GetAPIKey returns the API key for the configured provider.
// It checks in order: config (after env expansion), provider environment variable.
func GetAPIKey(cfg *Config) (string, error) {
	if cfg == nil {
		return "", ErrNoAPIKey
	}
	if key := expandEnv(cfg.LLM.APIKey); key != "" && !strings.HasPrefix(key, "${") {
		return key, nil
	}
	if key := providerKeyFromEnv(cfg.LLM.Provider); key != "" {
		return key, nil
	}
	return "", ErrNoAPIKey
}

// NeedsAPIKey reports whether the provider authenticates with an API key.
func NeedsAPIKey(provider string) bool {
	_, ok := providerEnv[strings.ToLower(provider)]
	return ok
}

// MaskAPIKey returns a masked version of the API key for display.
// Shows the first 7 characters and last 4 characters.
func MaskAPIKey(key string) string {
	if key == "" {
		return "(not set)"
	}

	if len(key) <= 15 {
		return "***"
	}

	return key[:7] + "..." + key[len(key)-4:]
}

// KeySource represents where an API key was loaded from.
type KeySource string

const (
	KeySourceEnv    KeySource = "environment"
	KeySourceConfig KeySource = "config_file"
	KeySourceNone   KeySource = "none"
)

// APIKeySource returns where the API key was loaded from. Keys set through
// MATCHDAY_LLM_API_KEY count as config.
func (c *Config) APIKeySource() KeySource {
	if c.keySource == "" {
		return KeySourceNone
	}
	return c.keySource
}
