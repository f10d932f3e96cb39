package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGetModelProvider_KnownModels(t *testing.T) {
	cases := map[string]string{
		"qwen-plus":                ProviderDashScope,
		"qwen3-max":                ProviderDashScope,
		"claude-sonnet-4-20250514": ProviderAnthropic,
		"gpt-4o":                   ProviderOpenAI,
		"gemini-2.5-flash":         ProviderGoogle,
	}
	for model, want := range cases {
		got, err := GetModelProvider(model)
		if err != nil {
			t.Errorf("GetModelProvider(%q) error: %v", model, err)
			continue
		}
		if got != want {
			t.Errorf("GetModelProvider(%q) = %q, want %q", model, got, want)
		}
	}
}

func TestGetModelProvider_PatternMatching(t *testing.T) {
	cases := map[string]string{
		"qwen2.5-72b-instruct": ProviderDashScope,
		"claude-future-model":  ProviderAnthropic,
		"gpt-6-preview":        ProviderOpenAI,
		"gemini-9000":          ProviderGoogle,
		"llama3.3:70b":         ProviderOllama,
		"ollama:qwen2.5":       ProviderOllama,
	}
	for model, want := range cases {
		got, err := GetModelProvider(model)
		if err != nil {
			t.Errorf("GetModelProvider(%q) error: %v", model, err)
			continue
		}
		if got != want {
			t.Errorf("GetModelProvider(%q) = %q, want %q", model, got, want)
		}
	}
}

func TestGetModelProvider_UnknownModel(t *testing.T) {
	if _, err := GetModelProvider("totally-unknown-model"); err == nil {
		t.Error("Expected error for unknown model")
	}
}

func TestGetModelInfo_UnknownModelDefaults(t *testing.T) {
	info, known := GetModelInfo("qwen-experimental")
	if known {
		t.Error("Expected known=false for unregistered model")
	}
	if info.Provider != ProviderDashScope {
		t.Errorf("Provider = %q, want %q", info.Provider, ProviderDashScope)
	}
	if info.MaxContextTokens != 32000 {
		t.Errorf("MaxContextTokens = %d, want conservative default 32000", info.MaxContextTokens)
	}
}

func TestGetConfig_NotInitialized(t *testing.T) {
	SetConfigForTesting(nil)
	if _, err := GetConfig(); err == nil {
		t.Error("Expected error when config not initialized")
	}
}

func TestLoadConfig_CreatesDefaults(t *testing.T) {
	dir := t.TempDir()
	defer SetConfigForTesting(nil)

	if err := LoadConfig(dir); err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}

	cfg, err := GetConfig()
	if err != nil {
		t.Fatalf("GetConfig() error: %v", err)
	}
	if cfg.Agents.ChatModel != DefaultChatModel {
		t.Errorf("ChatModel = %q, want %q", cfg.Agents.ChatModel, DefaultChatModel)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("Port = %d, want 8000", cfg.Server.Port)
	}
	if cfg.SchemaVersion != SchemaVersion {
		t.Errorf("SchemaVersion = %q, want %q", cfg.SchemaVersion, SchemaVersion)
	}

	// Defaults should have been persisted
	if _, err := os.Stat(filepath.Join(dir, ProjectConfigDir, ProjectConfigFilename)); err != nil {
		t.Errorf("Expected config file to be created: %v", err)
	}
}

func TestLoadConfig_AppliesDefaultsToPartialFile(t *testing.T) {
	dir := t.TempDir()
	defer SetConfigForTesting(nil)

	configDir := filepath.Join(dir, ProjectConfigDir)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatal(err)
	}
	partial := `{"schema_version":"1.0","server":{"port":9000}}`
	if err := os.WriteFile(filepath.Join(configDir, ProjectConfigFilename), []byte(partial), 0644); err != nil {
		t.Fatal(err)
	}

	if err := LoadConfig(dir); err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}

	cfg, _ := GetConfig()
	if cfg.Server.Port != 9000 {
		t.Errorf("Port = %d, want explicit 9000 preserved", cfg.Server.Port)
	}
	if cfg.Server.Host != "localhost" {
		t.Errorf("Host = %q, want default localhost", cfg.Server.Host)
	}
	if cfg.Agents.MaxToolIterations != 10 {
		t.Errorf("MaxToolIterations = %d, want default 10", cfg.Agents.MaxToolIterations)
	}
}

func TestLoadConfig_RejectsUnparseableFile(t *testing.T) {
	dir := t.TempDir()
	defer SetConfigForTesting(nil)

	configDir := filepath.Join(dir, ProjectConfigDir)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(configDir, ProjectConfigFilename), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := LoadConfig(dir); err == nil {
		t.Error("Expected error for unparseable config file")
	}
}

func TestValidateConfig_BadPort(t *testing.T) {
	cfg := createDefaultConfig()
	cfg.Server.Port = -1
	if err := validateConfig(cfg); err == nil {
		t.Error("Expected error for negative port")
	}
}

func TestValidateConfig_BadModel(t *testing.T) {
	cfg := createDefaultConfig()
	cfg.Agents.ChatModel = "nonexistent-model"
	err := validateConfig(cfg)
	if err == nil {
		t.Fatal("Expected error for unmappable chat model")
	}
	if !strings.Contains(err.Error(), "chat_model") {
		t.Errorf("Error should name chat_model: %v", err)
	}
}
