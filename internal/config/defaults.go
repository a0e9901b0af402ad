package config

import "time"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/kurasu/data/grades.sqlite"
	}
	if cfg.Suggest.Limit <= 0 {
		cfg.Suggest.Limit = 20
	}
	if cfg.Suggest.CacheTTL == 0 {
		cfg.Suggest.CacheTTL = 10 * time.Minute
	}
	if cfg.Suggest.CacheCleanup <= 0 {
		cfg.Suggest.CacheCleanup = 20 * time.Minute
	}
	if cfg.Analytics.Debounce == 0 {
		cfg.Analytics.Debounce = time.Second
	}
	if cfg.Analytics.BufferSize <= 0 {
		cfg.Analytics.BufferSize = 256
	}
	if cfg.Import.Extensions == nil {
		cfg.Import.Extensions = []string{".csv", ".xlsx", ".json"}
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Import.Directories) > 0 && cfg.Import.Recursive == nil {
		t := true
		cfg.Import.Recursive = &t
	}
}
