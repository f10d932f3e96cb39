package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// LoadConfig loads the entire configuration from <projectDir>/.agentd/config.json
// into the global singleton.
//
// Behavior:
// - Missing file: creates new config with defaults and saves it
// - Existing file: loads and validates, applying defaults for missing fields
// - Unparseable file: returns error to avoid overwriting user changes
//
// This should typically be called once at application startup.
func LoadConfig(inputProjectDir string) error {
	mu.Lock()
	defer mu.Unlock()

	// Store project directory - immutable after this point
	projectDir = inputProjectDir
	configPath := filepath.Join(projectDir, ProjectConfigDir, ProjectConfigFilename)

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		getLogger().Info("Config file not found, creating new config at %s", configPath)
		config = createDefaultConfig()

		if err := validateConfig(config); err != nil {
			return fmt.Errorf("default config validation failed: %w", err)
		}
		if err := saveConfigLocked(); err != nil {
			return fmt.Errorf("failed to save initial config: %w", err)
		}
		getLogger().Info("New config file created and validated")
		return nil
	}

	getLogger().Info("Loading config from %s", configPath)
	loadedConfig, err := loadConfigFromFile(configPath)
	if err != nil {
		return fmt.Errorf("fatal: config file exists but cannot be parsed (to avoid overwriting your changes): %w", err)
	}

	applyDefaults(loadedConfig)
	if err := validateConfig(loadedConfig); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	config = loadedConfig

	// Save config back to disk with applied defaults (ensures old configs get updated)
	if err := saveConfigLocked(); err != nil {
		return fmt.Errorf("failed to save config with applied defaults: %w", err)
	}

	getLogger().Info("Config loaded and validated successfully")
	return nil
}

// loadConfigFromFile loads a config file and parses JSON.
func loadConfigFromFile(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON %s: %w", configPath, err)
	}

	return &cfg, nil
}

// createDefaultConfig creates a new config with sensible defaults.
func createDefaultConfig() *Config {
	return &Config{
		SchemaVersion: SchemaVersion,
		Server: &ServerConfig{
			Host: "localhost", // Secure default: bind to localhost only
			Port: 8000,
		},
		Agents: &AgentConfig{
			ChatModel:         DefaultChatModel,
			SearchModel:       DefaultSearchModel,
			MaxTokens:         4096,
			Temperature:       0.7,
			MaxToolIterations: 10,
		},
		Metrics: &MetricsConfig{
			Enabled:   true, // Enable metrics by default for development visibility
			Namespace: "agentd",
		},
		Logs: &LogsConfig{
			BufferSize: 1000,
		},
		Debug: &DebugConfig{
			LLMMessages: false,
		},
	}
}

// applyDefaults sets default values for missing configuration.
func applyDefaults(cfg *Config) {
	if cfg.Server == nil {
		cfg.Server = &ServerConfig{}
	}
	if cfg.Agents == nil {
		cfg.Agents = &AgentConfig{}
	}
	if cfg.Metrics == nil {
		cfg.Metrics = &MetricsConfig{Enabled: true}
	}
	if cfg.Search == nil {
		cfg.Search = &SearchConfig{}
	}
	if cfg.Logs == nil {
		cfg.Logs = &LogsConfig{}
	}
	if cfg.Debug == nil {
		cfg.Debug = &DebugConfig{}
	}

	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}

	if cfg.Agents.ChatModel == "" {
		cfg.Agents.ChatModel = DefaultChatModel
	}
	if cfg.Agents.SearchModel == "" {
		cfg.Agents.SearchModel = DefaultSearchModel
	}
	if cfg.Agents.MaxTokens == 0 {
		cfg.Agents.MaxTokens = 4096
	}
	if cfg.Agents.Temperature == 0 {
		cfg.Agents.Temperature = 0.7
	}
	if cfg.Agents.MaxToolIterations == 0 {
		cfg.Agents.MaxToolIterations = 10
	}

	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = "agentd"
	}
	if cfg.Logs.BufferSize == 0 {
		cfg.Logs.BufferSize = 1000
	}
}

// validateConfig validates the loaded configuration.
func validateConfig(cfg *Config) error {
	if cfg.Server == nil || cfg.Agents == nil {
		return fmt.Errorf("config missing required sections")
	}

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server port must be in range 1-65535, got %d", cfg.Server.Port)
	}

	// Validate that both models can be mapped to providers
	if _, err := GetModelProvider(cfg.Agents.ChatModel); err != nil {
		return fmt.Errorf("chat_model '%s': %w", cfg.Agents.ChatModel, err)
	}
	if _, err := GetModelProvider(cfg.Agents.SearchModel); err != nil {
		return fmt.Errorf("search_model '%s': %w", cfg.Agents.SearchModel, err)
	}

	if cfg.Agents.MaxToolIterations < 0 {
		return fmt.Errorf("max_tool_iterations must be non-negative, got %d", cfg.Agents.MaxToolIterations)
	}

	return nil
}

// saveConfigLocked saves config to disk using the stored project directory.
// Must be called with mutex locked.
func saveConfigLocked() error {
	if projectDir == "" {
		return fmt.Errorf("config not initialized - call LoadConfig first")
	}

	configPath := filepath.Join(projectDir, ProjectConfigDir, ProjectConfigFilename)

	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
