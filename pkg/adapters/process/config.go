package process

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ActionConfig declares an allow-listed command a call step may launch.
type ActionConfig struct {
	Name        string            `yaml:"name" json:"name"`
	Command     string            `yaml:"command" json:"command"`
	Args        []string          `yaml:"args" json:"args"`
	Environment map[string]string `yaml:"env" json:"env"`
	Description string            `yaml:"description" json:"description"`
}

// ConfigFile represents the structure of actions.yaml.
type ConfigFile struct {
	Actions []ActionConfig `yaml:"actions" json:"actions"`
}

// LoadActions reads a configuration file, YAML or JSON by extension.
// Entries without a name or command are rejected.
func LoadActions(path string) ([]ActionConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read actions config: %w", err)
	}

	var cfg ConfigFile
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	seen := make(map[string]struct{}, len(cfg.Actions))
	for i, a := range cfg.Actions {
		if a.Name == "" || a.Command == "" {
			return nil, fmt.Errorf("%s: action #%d needs a name and a command", path, i)
		}
		if _, ok := seen[a.Name]; ok {
			return nil, fmt.Errorf("%s: action %q is declared twice", path, a.Name)
		}
		seen[a.Name] = struct{}{}
	}
	return cfg.Actions, nil
}
