// Package config loads and persists engine configuration from the
// project dotdir.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const configDir = ".forged"
const configFile = "config.json"

// Config holds the engine settings for one workspace.
type Config struct {
	Model            string `json:"model"`
	Quality          string `json:"quality"`
	ContextBudget    int    `json:"context_budget"`
	MaxFixIterations int    `json:"max_fix_iterations,omitempty"`
	MemorySnapshots  bool   `json:"memory_snapshots"`
	Verbose          bool   `json:"verbose,omitempty"`
}

func (cfg *Config) setDefaultValues() {
	if cfg.Model == "" {
		cfg.Model = "ollama:qwen2.5-coder"
	}
	if cfg.Quality == "" {
		cfg.Quality = "demo"
	}
	if cfg.ContextBudget == 0 {
		cfg.ContextBudget = 4000
	}
}

// applyEnvOverrides lets the environment override the persisted file.
func (cfg *Config) applyEnvOverrides() {
	if model := os.Getenv("FORGED_MODEL"); model != "" {
		cfg.Model = model
	}
	if quality := os.Getenv("FORGED_QUALITY"); quality != "" {
		cfg.Quality = quality
	}
}

func configPath(rootDir string) string {
	return filepath.Join(rootDir, configDir, configFile)
}

func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("could not parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes the config back to the workspace dotdir.
func (cfg *Config) Save(rootDir string) error {
	path := configPath(rootDir)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("could not create config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("could not serialize config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("could not write config: %w", err)
	}
	return nil
}

// LoadOrInit returns the workspace config, creating a default one on
// first use. Environment variables override the persisted values.
func LoadOrInit(rootDir string) (*Config, error) {
	path := configPath(rootDir)
	cfg, err := loadConfig(path)
	if os.IsNotExist(err) {
		cfg = &Config{}
		cfg.setDefaultValues()
		if saveErr := cfg.Save(rootDir); saveErr != nil {
			return nil, saveErr
		}
	} else if err != nil {
		return nil, err
	}

	cfg.setDefaultValues()
	cfg.applyEnvOverrides()
	return cfg, nil
}
