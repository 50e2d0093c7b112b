package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Load reads and merges configuration from global and project paths.
// Order of precedence (highest to lowest): project config, global config,
// defaults. Missing files are not errors; malformed JSON is.
func Load(globalPath, projectPath string) (*Config, error) {
	cfg := DefaultConfig()

	if globalPath != "" {
		if err := mergeConfigFile(cfg, globalPath); err != nil {
			return nil, fmt.Errorf("loading global config: %w", err)
		}
	}

	if projectPath != "" {
		if err := mergeConfigFile(cfg, projectPath); err != nil {
			return nil, fmt.Errorf("loading project config: %w", err)
		}
	}

	return cfg, nil
}

// LoadDefault loads configuration from conventional paths.
// Global: ~/.tasktracker/config.json
// Project: .tasktracker/config.json (relative to cwd)
func LoadDefault() (*Config, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting home directory: %w", err)
	}

	globalPath := filepath.Join(homeDir, ".tasktracker", "config.json")
	projectPath := filepath.Join(".tasktracker", "config.json")

	return Load(globalPath, projectPath)
}

// mergeConfigFile reads a JSON config file and merges it into the base
// config field by field; zero values in the file do not override.
func mergeConfigFile(base *Config, path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil // Missing file is not an error
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	var loaded Config
	if err := json.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	merge(base, &loaded)
	return nil
}

// merge copies every non-zero field of over onto base.
func merge(base, over *Config) {
	if over.Server.Listen != "" {
		base.Server.Listen = over.Server.Listen
	}
	if over.Server.ShutdownTimeout > 0 {
		base.Server.ShutdownTimeout = over.Server.ShutdownTimeout
	}

	if over.Store.Driver != "" {
		base.Store.Driver = over.Store.Driver
	}
	if over.Store.Path != "" {
		base.Store.Path = over.Store.Path
	}

	if over.Log.Level != "" {
		base.Log.Level = over.Log.Level
	}
	if over.Log.Format != "" {
		base.Log.Format = over.Log.Format
	}

	if over.Events.BufferSize > 0 {
		base.Events.BufferSize = over.Events.BufferSize
	}

	if over.Save.InitialIntervalMs > 0 {
		base.Save.InitialIntervalMs = over.Save.InitialIntervalMs
	}
	if over.Save.MaxIntervalMs > 0 {
		base.Save.MaxIntervalMs = over.Save.MaxIntervalMs
	}
	if over.Save.MaxElapsedMs > 0 {
		base.Save.MaxElapsedMs = over.Save.MaxElapsedMs
	}
}
