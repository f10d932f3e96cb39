package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AgentProfile defines per-agent overrides loaded from a YAML profiles file.
// Profiles let deployments tune an agent's model and generation settings
// without code changes.
type AgentProfile struct {
	Model        string   `yaml:"model"`         // Model override (empty = use config default)
	Instructions string   `yaml:"instructions"`  // Extra system prompt instructions appended to the built-in prompt
	Tools        []string `yaml:"tools"`         // Tool allow-list override (empty = use built-in list)
	MaxTokens    int      `yaml:"max_tokens"`    // Output token limit override (0 = use config default)
	Temperature  *float64 `yaml:"temperature"`   // Sampling temperature override (nil = use config default)
	Markdown     bool     `yaml:"markdown"`      // Whether responses should be formatted as markdown
}

// ProfilesFile is the top-level structure of the agent profiles YAML file.
type ProfilesFile struct {
	Agents map[string]AgentProfile `yaml:"agents"`
}

// LoadProfiles reads agent profiles from a YAML file.
// Returns an empty map if path is empty.
func LoadProfiles(path string) (map[string]AgentProfile, error) {
	if path == "" {
		return map[string]AgentProfile{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profiles file %s: %w", path, err)
	}

	var file ProfilesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse profiles YAML %s: %w", path, err)
	}

	if file.Agents == nil {
		return map[string]AgentProfile{}, nil
	}

	// Validate model overrides up front so a typo fails at startup, not mid-run
	for name, profile := range file.Agents {
		if profile.Model != "" {
			if _, err := GetModelProvider(profile.Model); err != nil {
				return nil, fmt.Errorf("profile '%s': %w", name, err)
			}
		}
	}

	return file.Agents, nil
}
