package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "default", cfg.Analyzer.DefaultDatabase)
	assert.Equal(t, "", cfg.Catalog.Path)
	assert.Equal(t, 256, cfg.Catalog.CacheSize)
	assert.Equal(t, "hdfs://localhost:20500", cfg.Storage.DefaultFS)
	assert.Equal(t, "hdfs", cfg.Storage.Scheme)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, Default(), cfg)
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name        string
		modify      func(*Config)
		shouldError bool
	}{
		{name: "valid config", modify: func(c *Config) {}},
		{name: "empty default database", modify: func(c *Config) { c.Analyzer.DefaultDatabase = " " }, shouldError: true},
		{name: "negative cache size", modify: func(c *Config) { c.Catalog.CacheSize = -1 }, shouldError: true},
		{name: "cache disabled", modify: func(c *Config) { c.Catalog.CacheSize = 0 }},
		{name: "empty scheme", modify: func(c *Config) { c.Storage.Scheme = "" }, shouldError: true},
		{name: "invalid log level", modify: func(c *Config) { c.Log.Level = "invalid" }, shouldError: true},
		{name: "upper-case log level", modify: func(c *Config) { c.Log.Level = "DEBUG" }},
		{name: "invalid log format", modify: func(c *Config) { c.Log.Format = "xml" }, shouldError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.shouldError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "granite.yaml")
	require.NoError(t, CreateDefaultConfig(path, "/srv/catalog.yaml"))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), `path: "/srv/catalog.yaml"`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/catalog.yaml", cfg.Catalog.Path)
	assert.Equal(t, "hdfs", cfg.Storage.Scheme)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("GRANITE_ANALYZER_DEFAULT_DATABASE", "functional")
	t.Setenv("GRANITE_STORAGE_SCHEME", "mem")
	t.Setenv("GRANITE_CATALOG_CACHE_SIZE", "8")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "functional", cfg.Analyzer.DefaultDatabase)
	assert.Equal(t, "mem", cfg.Storage.Scheme)
	assert.Equal(t, 8, cfg.Catalog.CacheSize)
}

func TestLoadSearchPath(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("HOME", t.TempDir())

	require.NoError(t, os.Chdir(t.TempDir()))
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "granite.yaml"), []byte("analyzer:\n  default_database: functional\n"), 0644))
	require.NoError(t, os.Chdir(dir))
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "functional", cfg.Analyzer.DefaultDatabase)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "granite.yaml"), []byte("log: [unclosed\n"), 0644))
	_, err = Load("")
	assert.ErrorContains(t, err, "config: read granite.yaml")
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: loud\n"), 0644))
	_, err = Load(path)
	assert.ErrorContains(t, err, "invalid log level: loud")
}
