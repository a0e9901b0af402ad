// Package config provides configuration loading and structs for the kurasu server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where the server and CLI look for configuration.
const DefaultPath = "/usr/local/etc/kurasu/config.yaml"

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Suggest   SuggestConfig   `yaml:"suggest"`
	Analytics AnalyticsConfig `yaml:"analytics"`
	Import    ImportConfig    `yaml:"import"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// StorageConfig holds the grade database location.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// SuggestConfig holds suggestion ranking and result cache settings.
// A negative CacheTTL disables the cache.
type SuggestConfig struct {
	Limit        int           `yaml:"limit"`
	CacheTTL     time.Duration `yaml:"cache_ttl"`
	CacheCleanup time.Duration `yaml:"cache_cleanup"`
	WarmOnStart  *bool         `yaml:"warm_on_start"`
}

// Warm returns whether to load the corpus at startup; defaults to true when unset.
func (s *SuggestConfig) Warm() bool {
	if s.WarmOnStart != nil {
		return *s.WarmOnStart
	}
	return true
}

// AnalyticsConfig holds search event recording settings.
type AnalyticsConfig struct {
	Enabled    *bool         `yaml:"enabled"`
	Debounce   time.Duration `yaml:"debounce"`
	BufferSize int           `yaml:"buffer_size"`
}

// EnabledOrDefault returns whether analytics is on; defaults to true when unset.
func (a *AnalyticsConfig) EnabledOrDefault() bool {
	if a.Enabled != nil {
		return *a.Enabled
	}
	return true
}

// ImportConfig holds drop directory settings for grade and rating imports.
type ImportConfig struct {
	Directories []string `yaml:"directories"`
	Extensions  []string `yaml:"extensions"`
	Recursive   *bool    `yaml:"recursive"`
}

// RecursiveOrDefault returns whether to watch recursively; defaults to true when unset.
func (w *ImportConfig) RecursiveOrDefault() bool {
	if w.Recursive != nil {
		return *w.Recursive
	}
	return true
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	for i := range cfg.Import.Directories {
		cfg.Import.Directories[i] = expandPath(cfg.Import.Directories[i], configDir)
	}

	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
