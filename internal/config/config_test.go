package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "go", cfg.Generator.Platform)
	assert.NotEmpty(t, cfg.Generator.Seed)
	assert.Equal(t, int64(1024*1024), cfg.Generator.InlineThreshold)
	assert.Equal(t, "zip", cfg.Archive.Format)
	assert.Equal(t, 4, cfg.Verify.MaxConcurrent)
	assert.Equal(t, 2*time.Minute, cfg.Verify.ItemTimeout)

	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "missing platform",
			mutate:  func(c *Config) { c.Generator.Platform = "" },
			wantErr: "generator.platform",
		},
		{
			name:    "missing seed",
			mutate:  func(c *Config) { c.Generator.Seed = "" },
			wantErr: "generator.seed",
		},
		{
			name:    "non-positive inline threshold",
			mutate:  func(c *Config) { c.Generator.InlineThreshold = 0 },
			wantErr: "inline_threshold",
		},
		{
			name:    "missing archive root",
			mutate:  func(c *Config) { c.Archive.Root = "" },
			wantErr: "archive.root",
		},
		{
			name:    "bad archive format",
			mutate:  func(c *Config) { c.Archive.Format = "tar" },
			wantErr: "invalid archive format",
		},
		{
			name:    "non-positive concurrency",
			mutate:  func(c *Config) { c.Verify.MaxConcurrent = 0 },
			wantErr: "max_concurrent",
		},
		{
			name:    "non-positive timeout",
			mutate:  func(c *Config) { c.Verify.ItemTimeout = 0 },
			wantErr: "item_timeout",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Log.Level = "verbose" },
			wantErr: "invalid log level",
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.Log.Format = "xml" },
			wantErr: "invalid log format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestConfig_EnsureDirectories(t *testing.T) {
	dir := t.TempDir()

	cfg := DefaultConfig()
	cfg.Archive.Root = filepath.Join(dir, "archives")
	cfg.Verify.HistoryDB = filepath.Join(dir, "state", "runs.db")

	require.NoError(t, cfg.EnsureDirectories())

	assert.DirExists(t, filepath.Join(dir, "archives", "regression"))
	assert.DirExists(t, filepath.Join(dir, "state"))
}

func TestLoader_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	content := `{
		"generator": {"platform": "android", "version": "2.1.0"},
		"verify": {"max_concurrent": 8}
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	t.Run("file overrides defaults", func(t *testing.T) {
		cfg, err := NewLoader(path).Load()
		require.NoError(t, err)

		assert.Equal(t, "android", cfg.Generator.Platform)
		assert.Equal(t, "2.1.0", cfg.Generator.Version)
		assert.Equal(t, 8, cfg.Verify.MaxConcurrent)
		// Untouched fields keep their defaults.
		assert.Equal(t, "zip", cfg.Archive.Format)
	})

	t.Run("env overrides file", func(t *testing.T) {
		t.Setenv("CROSSCHECK_PLATFORM", "ios")
		t.Setenv("CROSSCHECK_ITEM_TIMEOUT", "30s")
		t.Setenv("CROSSCHECK_SKIP_SENSITIVE", "true")

		cfg, err := NewLoader(path).Load()
		require.NoError(t, err)

		assert.Equal(t, "ios", cfg.Generator.Platform)
		assert.Equal(t, 30*time.Second, cfg.Verify.ItemTimeout)
		assert.True(t, cfg.Generator.SkipSensitive)
	})

	t.Run("bad env value", func(t *testing.T) {
		t.Setenv("CROSSCHECK_MAX_CONCURRENT", "lots")

		_, err := NewLoader(path).Load()
		assert.ErrorContains(t, err, "MAX_CONCURRENT")
	})

	t.Run("malformed file", func(t *testing.T) {
		badPath := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(badPath, []byte("{not json"), 0600))

		_, err := NewLoader(badPath).Load()
		assert.Error(t, err)
	})

	t.Run("missing explicit file", func(t *testing.T) {
		_, err := NewLoader(filepath.Join(dir, "absent.json")).Load()
		assert.Error(t, err)
	})
}

func TestSaveExample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "example.json")
	require.NoError(t, SaveExample(path))

	cfg, err := NewLoader(path).Load()
	require.NoError(t, err)
	assert.NoError(t, cfg.Validate())
}
