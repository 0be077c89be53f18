// Copyright File2Knowledge Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the main configuration
type Config struct {
	API      APIConfig      `yaml:"api"`
	Models   ModelsConfig   `yaml:"models"`
	Storage  StorageConfig  `yaml:"storage"`
	Source   SourceConfig   `yaml:"source"`
	Logging  LoggingConfig  `yaml:"logging"`
	Features FeaturesConfig `yaml:"features"`
}

// APIConfig contains the Responses API endpoint configuration
type APIConfig struct {
	Endpoint string        `yaml:"endpoint"` // e.g. "https://api.openai.com/v1"
	APIKey   string        `yaml:"api_key"`
	Timeout  time.Duration `yaml:"timeout"` // per-turn request timeout
}

// ModelsConfig selects models per feature mode
type ModelsConfig struct {
	Search           string `yaml:"search"`            // used for web/file search turns
	Reasoning        string `yaml:"reasoning"`         // used when reasoning mode is on
	ReasoningEffort  string `yaml:"reasoning_effort"`  // "low", "medium", "high"
	ReasoningSummary string `yaml:"reasoning_summary"` // "auto", "concise", "detailed", "" to omit
}

// StorageConfig selects the session store backend
type StorageConfig struct {
	Type       string `yaml:"type"`        // "file" (default), "memory", "sqlite", "postgres"
	Path       string `yaml:"path"`        // file backend: session store path
	DSN        string `yaml:"dsn"`         // sqlite/postgres backend
	TrackerLog string `yaml:"tracker_log"` // durable response-id log path
}

// SourceConfig selects where local documents are read from before upload
type SourceConfig struct {
	Type     string `yaml:"type"` // "filesystem" (default) or "s3"
	BaseDir  string `yaml:"base_dir"`
	Bucket   string `yaml:"bucket"`
	Region   string `yaml:"region"`
	Prefix   string `yaml:"prefix"`
	Endpoint string `yaml:"endpoint"` // custom S3 endpoint for MinIO compatibility
}

// LoggingConfig controls the slog output
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// FeaturesConfig holds the default feature-mode toggles
type FeaturesConfig struct {
	WebSearch          bool `yaml:"web_search"`
	FileSearchDisabled bool `yaml:"file_search_disabled"`
	Reasoning          bool `yaml:"reasoning"`
}

// Load loads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)
	return &cfg, nil
}

// Default returns default configuration
func Default() *Config {
	cfg := &Config{}
	applyEnvOverrides(cfg)
	applyDefaults(cfg)
	return cfg
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.API.APIKey = v
	}
	if v := os.Getenv("OPENAI_API_ENDPOINT"); v != "" {
		cfg.API.Endpoint = v
	}
}

func applyDefaults(cfg *Config) {
	dataDir := defaultDataDir()

	if cfg.API.Endpoint == "" {
		cfg.API.Endpoint = "https://api.openai.com/v1"
	}
	if cfg.API.Timeout == 0 {
		cfg.API.Timeout = 120 * time.Second
	}
	if cfg.Models.Search == "" {
		cfg.Models.Search = "gpt-4o"
	}
	if cfg.Models.Reasoning == "" {
		cfg.Models.Reasoning = "o4-mini"
	}
	if cfg.Models.ReasoningEffort == "" {
		cfg.Models.ReasoningEffort = "medium"
	}
	if cfg.Storage.Type == "" {
		cfg.Storage.Type = "file"
	}
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = filepath.Join(dataDir, "sessions.json")
	}
	if cfg.Storage.TrackerLog == "" {
		cfg.Storage.TrackerLog = filepath.Join(dataDir, "response_ids.log")
	}
	if cfg.Source.Type == "" {
		cfg.Source.Type = "filesystem"
	}
	if cfg.Source.BaseDir == "" {
		cfg.Source.BaseDir = "."
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".file2knowledge"
	}
	return filepath.Join(home, ".file2knowledge")
}
