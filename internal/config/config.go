// Package config provides configuration loading for dejoiner.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds the process-level configuration, loaded from environment
// variables with the DEJOINER_ prefix. Provider tokens may also live in the
// app_settings table; see Settings for the runtime-refreshable view.
type Config struct {
	HTTPAddr  string `koanf:"http_addr"`
	DBPath    string `koanf:"db_path"`
	LogLevel  string `koanf:"log_level"`
	LogFormat string `koanf:"log_format"`

	FigmaToken  string `koanf:"figma_token"`
	FigmaTeamID string `koanf:"figma_team_id"`
	GitHubToken string `koanf:"github_token"`
	GroqAPIKey  string `koanf:"groq_api_key"`

	SyncWorkers    int           `koanf:"sync_workers"`
	SearchCacheTTL time.Duration `koanf:"search_cache_ttl"`
}

// Default returns the hardcoded defaults applied before env overrides
func Default() *Config {
	return &Config{
		HTTPAddr:       ":8090",
		DBPath:         "dejoiner.db",
		LogLevel:       "info",
		LogFormat:      "json",
		SyncWorkers:    4,
		SearchCacheTTL: 5 * time.Minute,
	}
}

// Load builds the configuration from defaults overridden by environment
// variables.
//
// Environment variables use the DEJOINER_ prefix and map to lowercased field
// keys:
//
//	DEJOINER_HTTP_ADDR    -> http_addr
//	DEJOINER_FIGMA_TOKEN  -> figma_token
//	DEJOINER_SYNC_WORKERS -> sync_workers
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(env.Provider("DEJOINER_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "DEJOINER_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the loaded configuration for unusable values
func (c *Config) Validate() error {
	if c.HTTPAddr == "" {
		return fmt.Errorf("http_addr must not be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("db_path must not be empty")
	}
	if c.SyncWorkers <= 0 {
		return fmt.Errorf("sync_workers must be positive, got %d", c.SyncWorkers)
	}
	if c.SearchCacheTTL < 0 {
		return fmt.Errorf("search_cache_ttl must not be negative")
	}
	return nil
}
