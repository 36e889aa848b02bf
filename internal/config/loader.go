package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Loader handles configuration loading from multiple sources.
type Loader struct {
	configPath string
	envPrefix  string
}

// NewLoader creates a config loader.
func NewLoader(configPath string) *Loader {
	return &Loader{
		configPath: configPath,
		envPrefix:  "CROSSCHECK_",
	}
}

// Load reads configuration from file and environment.
func (l *Loader) Load() (*Config, error) {
	// Start with defaults
	cfg := DefaultConfig()

	// Load from file if exists
	if l.configPath != "" {
		if err := l.loadFile(cfg); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	} else {
		// Try default locations
		for _, path := range l.defaultPaths() {
			if _, err := os.Stat(path); err == nil {
				l.configPath = path
				if err := l.loadFile(cfg); err != nil {
					return nil, fmt.Errorf("load config file %s: %w", path, err)
				}
				break
			}
		}
	}

	// Override with environment variables
	if err := l.loadEnv(cfg); err != nil {
		return nil, fmt.Errorf("load env config: %w", err)
	}

	// Validate final config
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// defaultPaths returns default config file locations.
func (l *Loader) defaultPaths() []string {
	paths := []string{
		"crosscheck.json",
		".crosscheck.json",
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(homeDir, ".config", "crosscheck", "config.json"),
			filepath.Join(homeDir, ".crosscheck", "config.json"),
		)
	}

	return paths
}

// loadFile reads config from JSON file.
func (l *Loader) loadFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse JSON: %w", err)
	}

	return nil
}

// loadEnv overrides config from environment variables.
func (l *Loader) loadEnv(cfg *Config) error {
	// Generator settings
	if v := os.Getenv(l.envPrefix + "PLATFORM"); v != "" {
		cfg.Generator.Platform = v
	}

	if v := os.Getenv(l.envPrefix + "VERSION"); v != "" {
		cfg.Generator.Version = v
	}

	if v := os.Getenv(l.envPrefix + "SEED"); v != "" {
		cfg.Generator.Seed = v
	}

	if v := os.Getenv(l.envPrefix + "SKIP_SENSITIVE"); v != "" {
		cfg.Generator.SkipSensitive = v == "true" || v == "1"
	}

	// Archive settings
	if v := os.Getenv(l.envPrefix + "ARCHIVE_ROOT"); v != "" {
		cfg.Archive.Root = v
	}

	if v := os.Getenv(l.envPrefix + "ARCHIVE_FORMAT"); v != "" {
		cfg.Archive.Format = strings.ToLower(v)
	}

	// Verify settings
	if v := os.Getenv(l.envPrefix + "MAX_CONCURRENT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse MAX_CONCURRENT: %w", err)
		}
		cfg.Verify.MaxConcurrent = n
	}

	if v := os.Getenv(l.envPrefix + "ITEM_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse ITEM_TIMEOUT: %w", err)
		}
		cfg.Verify.ItemTimeout = d
	}

	if v := os.Getenv(l.envPrefix + "HISTORY_DB"); v != "" {
		cfg.Verify.HistoryDB = v
	}

	// Log settings
	if v := os.Getenv(l.envPrefix + "LOG_LEVEL"); v != "" {
		cfg.Log.Level = strings.ToLower(v)
	}

	if v := os.Getenv(l.envPrefix + "LOG_FORMAT"); v != "" {
		cfg.Log.Format = strings.ToLower(v)
	}

	if v := os.Getenv(l.envPrefix + "LOG_FILE"); v != "" {
		cfg.Log.File = v
	}

	return nil
}

// SaveExample writes an example config file.
func SaveExample(path string) error {
	cfg := DefaultConfig()

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write file: %w", err)
	}

	return nil
}
