// Package config handles configuration loading and validation for granitectl
// and the analysis service.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Config holds all analyzer configuration.
type Config struct {
	Analyzer AnalyzerConfig `mapstructure:"analyzer"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Log      LogConfig      `mapstructure:"log"`
}

// AnalyzerConfig holds name resolution settings.
type AnalyzerConfig struct {
	DefaultDatabase string `mapstructure:"default_database"`
}

// CatalogConfig selects the table metadata source. An empty Path selects the
// embedded functional test catalog.
type CatalogConfig struct {
	Path      string `mapstructure:"path"`
	CacheSize int    `mapstructure:"cache_size"`
}

// StorageConfig describes the filesystem LOAD DATA paths live on.
type StorageConfig struct {
	DefaultFS string `mapstructure:"default_fs"`
	Scheme    string `mapstructure:"scheme"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

const envPrefix = "GRANITE"

func defaultConfig() *Config {
	return &Config{
		Analyzer: AnalyzerConfig{
			DefaultDatabase: "default",
		},
		Catalog: CatalogConfig{
			CacheSize: 256,
		},
		Storage: StorageConfig{
			DefaultFS: "hdfs://localhost:20500",
			Scheme:    "hdfs",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// Default returns the built-in configuration.
func Default() *Config {
	return defaultConfig()
}

// Load reads configuration from file and environment. An empty path searches
// granite.yaml in the usual locations and falls back to defaults.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	cfg := defaultConfig()
	v.SetDefault("analyzer.default_database", cfg.Analyzer.DefaultDatabase)
	v.SetDefault("catalog.path", cfg.Catalog.Path)
	v.SetDefault("catalog.cache_size", cfg.Catalog.CacheSize)
	v.SetDefault("storage.default_fs", cfg.Storage.DefaultFS)
	v.SetDefault("storage.scheme", cfg.Storage.Scheme)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("log.output", cfg.Log.Output)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "config: read %s", configPath)
		}
	} else {
		v.SetConfigName("granite")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.granite")
		v.AddConfigPath("/etc/granite")

		// Defaults apply when no file is found.
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, errors.Wrap(err, "config: read granite.yaml")
			}
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "config: parse")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that configuration values are sensible.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Analyzer.DefaultDatabase) == "" {
		return errors.New("config: analyzer.default_database must not be empty")
	}
	if c.Catalog.CacheSize < 0 {
		return errors.Errorf("config: catalog.cache_size must not be negative: %d", c.Catalog.CacheSize)
	}
	if strings.TrimSpace(c.Storage.Scheme) == "" {
		return errors.New("config: storage.scheme must not be empty")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		return errors.Errorf("config: invalid log level: %s", c.Log.Level)
	}
	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Log.Format)] {
		return errors.Errorf("config: invalid log format: %s", c.Log.Format)
	}
	return nil
}

// CreateDefaultConfig writes a default configuration file pointing at the
// given catalog snapshot.
func CreateDefaultConfig(path string, catalogPath string) error {
	content := fmt.Sprintf(`# granite analyzer configuration

analyzer:
  default_database: default

catalog:
  path: "%s"
  cache_size: 256        # cached tables, 0 disables the cache

storage:
  default_fs: hdfs://localhost:20500
  scheme: hdfs           # LOAD DATA paths must use this scheme

log:
  level: info            # debug, info, warn, error
  format: text           # text or json
  output: stderr         # stderr, stdout, or file path
`, catalogPath)

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return errors.Wrapf(err, "config: write %s", path)
	}
	return nil
}
