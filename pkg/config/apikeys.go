package config

import (
	"fmt"
	"os"
)

// GetAPIKey returns the API key for a provider, checking decrypted secrets
// first and then the environment. Ollama needs no key and returns empty.
func GetAPIKey(provider string) (string, error) {
	var envVar string
	switch provider {
	case ProviderAnthropic:
		envVar = EnvAnthropicAPIKey
	case ProviderOpenAI:
		envVar = EnvOpenAIAPIKey
	case ProviderGoogle:
		envVar = EnvGoogleAPIKey
	case ProviderDashScope:
		envVar = EnvDashScopeAPIKey
	case ProviderOllama:
		return "", nil
	default:
		return "", fmt.Errorf("unknown provider: %s", provider)
	}

	key, err := GetSecret(envVar)
	if err != nil {
		return "", fmt.Errorf("API key for provider %s: %w", provider, err)
	}
	return key, nil
}

// GetDashScopeBaseURL returns the DashScope OpenAI-compatible endpoint,
// overridable via the environment.
func GetDashScopeBaseURL() string {
	if url := os.Getenv(EnvDashScopeBaseURL); url != "" {
		return url
	}
	return DefaultDashScopeBaseURL
}

// GetOllamaHost returns the Ollama server address, overridable via the
// environment.
func GetOllamaHost() string {
	if host := os.Getenv(EnvOllamaHost); host != "" {
		return host
	}
	return "http://localhost:11434"
}
