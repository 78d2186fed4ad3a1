package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load loads configuration with priority: defaults < file < flags.
// The result is validated before it is returned.
func Load() (*Config, error) {
	cfg := Default()

	if path := ConfigPath(); path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", path, err)
		}
	} else if _, err := os.Stat("veldt.yaml"); err == nil {
		if err := loadFromFile(cfg, "veldt.yaml"); err != nil {
			return nil, fmt.Errorf("loading config from veldt.yaml: %w", err)
		}
	}

	applyFlags(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromFile loads config from a YAML file, merging with existing values.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}
