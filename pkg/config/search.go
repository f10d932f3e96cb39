package config

import (
	"os"

	"agentd/pkg/logx"
)

// Search provider environment variable names.
// Add new providers here as they're supported.
const (
	// EnvTavilyAPIKey is the environment variable for the Tavily search API key.
	EnvTavilyAPIKey = "TAVILY_API_KEY"
)

// SearchProviderType identifies which search provider is available.
type SearchProviderType string

// Search provider type constants.
const (
	SearchProviderNone   SearchProviderType = ""
	SearchProviderTavily SearchProviderType = "tavily"
)

// SearchAPIStatus contains information about available search APIs.
type SearchAPIStatus struct {
	Available    bool               // Whether any search API is available
	Provider     SearchProviderType // Which provider is available (empty if none)
	TavilyAPIKey string             // Tavily API key (if available)
}

// DetectSearchAPIs checks the secrets store and environment variables and
// returns status of available search APIs. This function is idempotent and
// can be called multiple times.
func DetectSearchAPIs() SearchAPIStatus {
	status := SearchAPIStatus{}

	// Check Tavily (highest priority)
	tavilyKey, err := GetSecret(EnvTavilyAPIKey)
	if err != nil {
		tavilyKey = os.Getenv(EnvTavilyAPIKey)
	}
	if tavilyKey != "" {
		status.Available = true
		status.Provider = SearchProviderTavily
		status.TavilyAPIKey = tavilyKey
		return status
	}

	// Future: check other providers here in priority order

	return status
}

// IsSearchEnabled determines if web search should be enabled based on config
// and API availability. Returns true if:
//   - Config explicitly enables search (search.enabled = true), OR
//   - Config doesn't specify (nil) AND search APIs are available
//
// Returns false if:
//   - Config explicitly disables search (search.enabled = false), OR
//   - Config doesn't specify (nil) AND no search APIs are available
//
// This function also logs warnings when search falls back to the limited
// instant-answer provider due to missing API keys.
func IsSearchEnabled(cfg *Config) bool {
	searchLogger := logx.NewLogger("config")

	if cfg == nil || cfg.Search == nil {
		status := DetectSearchAPIs()
		if !status.Available {
			searchLogger.Warn("No search API keys found, web search limited to instant answers. Set %s to enable full search.",
				EnvTavilyAPIKey)
		}
		return status.Available
	}

	// If explicitly configured, respect that setting
	if cfg.Search.Enabled != nil {
		enabled := *cfg.Search.Enabled
		if enabled {
			status := DetectSearchAPIs()
			if !status.Available {
				searchLogger.Warn("Web search enabled in config but no API keys found. Set %s.", EnvTavilyAPIKey)
			}
		}
		return enabled
	}

	// Auto-detect based on API availability
	status := DetectSearchAPIs()
	if !status.Available {
		searchLogger.Warn("No search API keys found, web search limited to instant answers. Set %s to enable full search.",
			EnvTavilyAPIKey)
	}
	return status.Available
}

// GetSearchProvider returns the detected search provider type.
// Returns SearchProviderNone if no provider is available.
func GetSearchProvider() SearchProviderType {
	return DetectSearchAPIs().Provider
}
