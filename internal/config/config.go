package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Vector generation
	Generator GeneratorConfig `json:"generator"`

	// Archive layout and packaging
	Archive ArchiveConfig `json:"archive"`

	// Verification behavior
	Verify VerifyConfig `json:"verify"`

	// Logging
	Log LogConfig `json:"log"`
}

// GeneratorConfig controls deterministic vector generation.
type GeneratorConfig struct {
	Platform        string `json:"platform"`         // Platform tag stamped into ids and metadata
	Version         string `json:"version"`          // Dataset version string
	Seed            string `json:"seed"`             // Seed for the deterministic byte generator
	InlineThreshold int64  `json:"inline_threshold"` // Max edge-case payload size to inline, bytes
	SkipSensitive   bool   `json:"skip_sensitive"`   // Skip the memory-hard KDF cost tier
}

// ArchiveConfig controls where archives live and how they are packaged.
type ArchiveConfig struct {
	Root   string `json:"root"`   // Base directory scanned for regression archives
	Format string `json:"format"` // "zip" or "dir"
}

// VerifyConfig controls verification runs.
type VerifyConfig struct {
	MaxConcurrent int           `json:"max_concurrent"` // Concurrent category workers
	ItemTimeout   time.Duration `json:"item_timeout"`   // Per-item verification timeout
	HistoryDB     string        `json:"history_db"`     // SQLite run-history path (empty = disabled)
}

// LogConfig for logging behavior.
type LogConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // text, json
	File   string `json:"file"`   // Log file path (empty = stdout)
	Color  bool   `json:"color"`  // Enable colored output
}

// DefaultConfig returns config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Generator: GeneratorConfig{
			Platform:        "go",
			Version:         "1.0.0",
			Seed:            "crosscheck-regression-v1",
			InlineThreshold: 1024 * 1024, // 1MB
		},
		Archive: ArchiveConfig{
			Root:   ".crosscheck",
			Format: "zip",
		},
		Verify: VerifyConfig{
			MaxConcurrent: 4,
			ItemTimeout:   2 * time.Minute,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			Color:  true,
		},
	}
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	if c.Generator.Platform == "" {
		return errors.New("generator.platform is required")
	}

	if c.Generator.Seed == "" {
		return errors.New("generator.seed is required")
	}

	if c.Generator.InlineThreshold <= 0 {
		return errors.New("generator.inline_threshold must be positive")
	}

	if c.Archive.Root == "" {
		return errors.New("archive.root is required")
	}

	validFormats := map[string]bool{"zip": true, "dir": true}
	if !validFormats[c.Archive.Format] {
		return fmt.Errorf("invalid archive format: %s", c.Archive.Format)
	}

	if c.Verify.MaxConcurrent <= 0 {
		return errors.New("verify.max_concurrent must be positive")
	}

	if c.Verify.ItemTimeout <= 0 {
		return errors.New("verify.item_timeout must be positive")
	}

	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[c.Log.Level] {
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}

	validLogFormats := map[string]bool{"text": true, "json": true}
	if !validLogFormats[c.Log.Format] {
		return fmt.Errorf("invalid log format: %s", c.Log.Format)
	}

	return nil
}

// EnsureDirectories creates required directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Archive.Root,
		filepath.Join(c.Archive.Root, "regression"),
	}

	if c.Log.File != "" {
		dirs = append(dirs, filepath.Dir(c.Log.File))
	}

	if c.Verify.HistoryDB != "" {
		dirs = append(dirs, filepath.Dir(c.Verify.HistoryDB))
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	return nil
}
