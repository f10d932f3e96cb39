// Package config provides configuration loading, validation, and management
// for the agent backend.
//
// KEY PRINCIPLES:
//
//  1. SEPARATION OF CONCERNS:
//     - Config: user-configurable settings saved to .agentd/config.json
//     - Constants: hardcoded parameters that users should not modify
//     - Secrets: API keys resolved from the encrypted secrets file or environment
//     - State (run history, answers) belongs in the DATABASE, never in config
//
//  2. SCHEMA VERSIONING: config changes MUST increment SchemaVersion to prevent
//     breaking existing installations.
//
//  3. GLOBAL SINGLETON: a single global Config instance is maintained in memory,
//     protected by mutex for thread safety.
//
//  4. VALUE-BASED ACCESS: GetConfig() returns the config BY VALUE (copy, not
//     reference) to prevent external mutation.
package config

import (
	"fmt"
	"strings"
	"sync"

	"agentd/pkg/logx"
)

// Global config instance with mutex protection.
// projectDir is set once during LoadConfig and never changes.
//
//nolint:gochecknoglobals // Intentional singleton pattern for config management
var (
	config     *Config
	projectDir string       // Immutable after LoadConfig - set once at startup
	logger     *logx.Logger // Package logger for config operations
	mu         sync.RWMutex
)

// getLogger returns the config logger, initializing it if needed.
func getLogger() *logx.Logger {
	if logger == nil {
		logger = logx.NewLogger("config")
	}
	return logger
}

// LogInfo logs an info message using the config logger.
// This is exposed for other packages (like main) to use consistent logging.
func LogInfo(format string, args ...interface{}) {
	getLogger().Info(format, args...)
}

// ModelInfo contains static information about a known LLM model.
// This data is hardcoded in the application, not user-configurable.
type ModelInfo struct {
	Provider         string  // API provider (anthropic, openai, google, dashscope, ollama)
	InputCPM         float64 // Cost per million input tokens (USD)
	OutputCPM        float64 // Cost per million output tokens (USD)
	MaxContextTokens int     // Maximum context window size in tokens
	MaxOutputTokens  int     // Maximum output tokens per request
}

// KnownModels registry contains pricing and provider information for common models.
// This is optional - unknown models will be inferred via ProviderPatterns.
//
//nolint:gochecknoglobals // Intentional global for static model registry
var KnownModels = map[string]ModelInfo{
	// Qwen models via DashScope's OpenAI-compatible endpoint
	"qwen-plus": {
		Provider:         ProviderDashScope,
		InputCPM:         0.4,
		OutputCPM:        1.2,
		MaxContextTokens: 131072,
		MaxOutputTokens:  8192,
	},
	"qwen-max": {
		Provider:         ProviderDashScope,
		InputCPM:         1.6,
		OutputCPM:        6.4,
		MaxContextTokens: 131072,
		MaxOutputTokens:  8192,
	},
	"qwen3-max": {
		Provider:         ProviderDashScope,
		InputCPM:         1.2,
		OutputCPM:        6.0,
		MaxContextTokens: 262144,
		MaxOutputTokens:  65536,
	},
	"qwen-turbo": {
		Provider:         ProviderDashScope,
		InputCPM:         0.05,
		OutputCPM:        0.2,
		MaxContextTokens: 1008192,
		MaxOutputTokens:  8192,
	},

	// Claude models (Anthropic)
	"claude-sonnet-4-20250514": {
		Provider:         ProviderAnthropic,
		InputCPM:         3.0,
		OutputCPM:        15.0,
		MaxContextTokens: 200000,
		MaxOutputTokens:  8192,
	},
	"claude-3-7-sonnet-20250219": {
		Provider:         ProviderAnthropic,
		InputCPM:         3.0,
		OutputCPM:        15.0,
		MaxContextTokens: 200000,
		MaxOutputTokens:  8192,
	},

	// OpenAI GPT models
	"gpt-4o": {
		Provider:         ProviderOpenAI,
		InputCPM:         2.5,
		OutputCPM:        10.0,
		MaxContextTokens: 128000,
		MaxOutputTokens:  4096,
	},
	"o4-mini": {
		Provider:         ProviderOpenAI,
		InputCPM:         1.1,
		OutputCPM:        4.4,
		MaxContextTokens: 128000,
		MaxOutputTokens:  16384,
	},

	// Google Gemini models
	"gemini-2.0-flash": {
		Provider:         ProviderGoogle,
		InputCPM:         0.10,
		OutputCPM:        0.40,
		MaxContextTokens: 1048576,
		MaxOutputTokens:  8192,
	},
	"gemini-2.5-flash": {
		Provider:         ProviderGoogle,
		InputCPM:         0.30,
		OutputCPM:        2.50,
		MaxContextTokens: 1048576,
		MaxOutputTokens:  65536,
	},
}

// ProviderPattern represents a pattern for inferring provider from model name.
type ProviderPattern struct {
	Prefix   string
	Provider string
}

// ProviderPatterns defines rules for inferring providers from unknown model names.
// Allows using new models without code changes. Order matters: the "ollama:"
// prefix must win over bare model-family prefixes.
//
//nolint:gochecknoglobals // Intentional global for inference rules
var ProviderPatterns = []ProviderPattern{
	{"ollama:", ProviderOllama}, // Explicit prefix like "ollama:qwen2.5"
	{"qwen", ProviderDashScope},
	{"claude", ProviderAnthropic},
	{"gpt", ProviderOpenAI},
	{"o1", ProviderOpenAI},
	{"o3", ProviderOpenAI},
	{"o4", ProviderOpenAI},
	{"gemini", ProviderGoogle},
	// Common open-source model prefixes served locally
	{"llama", ProviderOllama},
	{"mistral", ProviderOllama},
	{"phi", ProviderOllama},
	{"deepseek", ProviderOllama},
}

// GetModelProvider returns the API provider for a given model.
// First checks KnownModels, then tries pattern matching.
// Returns error if model cannot be mapped to a provider (FATAL).
func GetModelProvider(modelName string) (string, error) {
	// Check known models first
	if info, exists := KnownModels[modelName]; exists {
		return info.Provider, nil
	}

	// Try pattern matching for unknown models
	for i := range ProviderPatterns {
		if strings.HasPrefix(modelName, ProviderPatterns[i].Prefix) {
			return ProviderPatterns[i].Provider, nil
		}
	}

	// FATAL: Cannot proceed without valid provider
	return "", fmt.Errorf("unknown model '%s': no known provider mapping or pattern match - cannot determine API provider", modelName)
}

// GetModelInfo returns the ModelInfo for a given model name.
// Returns the info and true if found in KnownModels, or a default info with
// inferred provider and false if not found.
func GetModelInfo(modelName string) (ModelInfo, bool) {
	if info, exists := KnownModels[modelName]; exists {
		return info, true
	}

	provider := ""
	for i := range ProviderPatterns {
		if strings.HasPrefix(modelName, ProviderPatterns[i].Prefix) {
			provider = ProviderPatterns[i].Provider
			break
		}
	}

	// Use conservative defaults for unknown models
	return ModelInfo{
		Provider:         provider,
		InputCPM:         0.0,
		OutputCPM:        0.0,
		MaxContextTokens: 32000,
		MaxOutputTokens:  4096,
	}, false
}

// All constants bundled together for easy maintenance.
const (
	// Shutdown behavior.
	GracefulShutdownTimeoutSec = 10 // How long to wait for graceful shutdown before force-exit

	// Model name constants.
	ModelQwenPlus  = "qwen-plus"
	ModelQwenMax   = "qwen-max"
	ModelQwenTurbo = "qwen-turbo"

	DefaultChatModel   = ModelQwenPlus
	DefaultSearchModel = ModelQwenMax

	// Project config constants.
	ProjectConfigFilename = "config.json"
	ProjectConfigDir      = ".agentd"
	DatabaseFilename      = "agentd.db"
	SchemaVersion         = "1.0"

	// Provider constants.
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderGoogle    = "google"
	ProviderDashScope = "dashscope"
	ProviderOllama    = "ollama"

	// API key environment variable names.
	EnvAnthropicAPIKey  = "ANTHROPIC_API_KEY"
	EnvOpenAIAPIKey     = "OPENAI_API_KEY"
	EnvGoogleAPIKey     = "GOOGLE_GENAI_API_KEY"
	EnvDashScopeAPIKey  = "DASHSCOPE_API_KEY"
	EnvDashScopeBaseURL = "DASHSCOPE_BASE_URL"
	EnvOllamaHost       = "OLLAMA_HOST"

	// Basic auth password for the HTTP API, paired with ServerConfig.BasicAuthUser.
	EnvAuthPassword = "AGENTD_AUTH_PASSWORD"

	// DashScope's OpenAI-compatible endpoint, used when EnvDashScopeBaseURL is unset.
	DefaultDashScopeBaseURL = "https://dashscope.aliyuncs.com/compatible-mode/v1"
)

// ServerConfig contains HTTP API server settings.
type ServerConfig struct {
	Host          string `json:"host"`                      // Host to bind to (default: "localhost")
	Port          int    `json:"port"`                      // Port to listen on (default: 8000, must be > 0)
	BasicAuthUser string `json:"basic_auth_user,omitempty"` // Optional basic auth username (password via AGENTD_AUTH_PASSWORD)
}

// AgentConfig defines which models to use and generation limits.
type AgentConfig struct {
	ChatModel         string  `json:"chat_model"`          // Model name for the chat agent (mapped to provider via KnownModels)
	SearchModel       string  `json:"search_model"`        // Model name for the search agent (mapped to provider via KnownModels)
	MaxTokens         int     `json:"max_tokens"`          // Maximum output tokens per completion (default: 4096)
	Temperature       float64 `json:"temperature"`         // Sampling temperature (default: 0.7)
	MaxToolIterations int     `json:"max_tool_iterations"` // Maximum tool round-trips per run (default: 10)
	ProfilesPath      string  `json:"profiles_path,omitempty"` // Optional YAML file with per-agent profile overrides
}

// MetricsConfig defines configuration for metrics collection.
type MetricsConfig struct {
	Enabled       bool   `json:"enabled"`        // Whether metrics collection is enabled
	Namespace     string `json:"namespace"`      // Metrics namespace for grouping
	PrometheusURL string `json:"prometheus_url"` // Prometheus server URL for querying usage summaries
}

// SearchConfig defines web search tool configuration.
// Search is auto-enabled when API keys are detected, but can be explicitly disabled.
type SearchConfig struct {
	Enabled *bool `json:"enabled,omitempty"` // Whether web search is enabled (nil = auto-detect from API keys)
}

// LogsConfig contains log management configuration.
type LogsConfig struct {
	BufferSize int `json:"buffer_size"` // In-memory log entries retained for /api/logs (default: 1000)
}

// DebugConfig defines configuration for debug logging.
type DebugConfig struct {
	LLMMessages bool `json:"llm_messages"` // Enable debug logging for LLM message payloads (default: false)
}

// Config represents the main configuration for the agent backend.
//
// IMPORTANT: this structure contains only user-configurable settings.
// Model pricing and provider mappings are hardcoded in KnownModels.
//
// Schema versioning prevents breaking changes - increment SchemaVersion for
// any structural changes.
type Config struct {
	SchemaVersion string `json:"schema_version"` // MUST increment for breaking changes

	Server  *ServerConfig  `json:"server"`  // HTTP API server settings
	Agents  *AgentConfig   `json:"agents"`  // Which models to use for this deployment
	Metrics *MetricsConfig `json:"metrics"` // Metrics collection configuration
	Search  *SearchConfig  `json:"search"`  // Web search settings
	Logs    *LogsConfig    `json:"logs"`    // Log management settings
	Debug   *DebugConfig   `json:"debug"`   // Debug settings

	// === RUNTIME-ONLY STATE (NOT PERSISTED) ===
	SessionID string `json:"-"` // Current backend session UUID (generated at startup)
}

// GetProjectDir returns the current project directory.
// Must call LoadConfig first to initialize projectDir.
func GetProjectDir() string {
	mu.RLock()
	defer mu.RUnlock()
	return projectDir
}

// GetDebugLLMMessages returns whether debug logging for LLM message payloads
// is enabled. Returns false if config is not loaded or debug is not configured.
func GetDebugLLMMessages() bool {
	cfg, err := GetConfig()
	if err != nil {
		return false
	}
	if cfg.Debug != nil {
		return cfg.Debug.LLMMessages
	}
	return false
}

// GetConfig returns the current global config BY VALUE (copy, not reference).
// This prevents external mutation - all updates must go through LoadConfig.
// Must call LoadConfig first to initialize the global config.
func GetConfig() (Config, error) {
	mu.RLock()
	defer mu.RUnlock()
	if config == nil {
		return Config{}, fmt.Errorf("config not initialized - call LoadConfig first")
	}
	// Return by value (copy) to prevent external mutation
	return *config, nil
}

// SetConfigForTesting sets the global config for testing purposes.
// Pass nil to reset. This bypasses normal initialization and should only be
// used in tests.
func SetConfigForTesting(cfg *Config) {
	mu.Lock()
	defer mu.Unlock()
	config = cfg
	if cfg == nil {
		projectDir = ""
	}
}
