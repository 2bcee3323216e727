// Copyright (c) 2025-2026 Lumen Learning Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config is the complete client configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	// API configuration
	API APIConfig `toml:"api" json:"api"`

	// Auth configuration
	Auth AuthConfig `toml:"auth" json:"auth"`

	// Page is the study material the client attaches as context.
	Page PageConfig `toml:"page" json:"page"`

	// Limits configuration
	Limits LimitsConfig `toml:"limits" json:"limits"`

	// Telemetry configuration
	Telemetry TelemetryConfig `toml:"telemetry" json:"telemetry"`
}

// APIConfig contains tutoring API settings.
type APIConfig struct {
	// BaseURL is the tutoring API base URL.
	BaseURL string `toml:"base_url" json:"base_url"`
	// ThreadListLimit is how many threads the sidebar loads.
	ThreadListLimit int `toml:"thread_list_limit" json:"thread_list_limit"`
}

// AuthConfig contains session integration settings.
type AuthConfig struct {
	// SessionToken is a fixed bearer token; normally injected via
	// LUMEN_SESSION_TOKEN rather than written to disk.
	SessionToken string `toml:"session_token" json:"session_token"`
	// PollIntervalSecs is how often the sign-in state is re-checked.
	PollIntervalSecs int `toml:"poll_interval_secs" json:"poll_interval_secs"`
}

// PageConfig describes the study material document.
type PageConfig struct {
	URL      string   `toml:"url" json:"url"`
	Title    string   `toml:"title" json:"title"`
	Headings []string `toml:"headings" json:"headings"`
}

// LimitsConfig contains quota display settings.
type LimitsConfig struct {
	// UsageRefreshPerMinute throttles usage endpoint polling.
	UsageRefreshPerMinute float64 `toml:"usage_refresh_per_minute" json:"usage_refresh_per_minute"`
}

// TelemetryConfig contains the exchange journal settings.
type TelemetryConfig struct {
	Enabled bool `toml:"enabled" json:"enabled"`
	// DBPath is the journal database path (empty = default
	// ~/.lumen/tutorchat/journal.db).
	DBPath string `toml:"db_path" json:"db_path"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Version: "1",
		API: APIConfig{
			BaseURL:         "https://api.lumen.education/v1/tutor",
			ThreadListLimit: 20,
		},
		Auth: AuthConfig{
			PollIntervalSecs: 30,
		},
		Limits: LimitsConfig{
			UsageRefreshPerMinute: 6,
		},
		Telemetry: TelemetryConfig{
			Enabled: true,
		},
	}
}

// Dir returns the configuration directory.
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".lumen", "tutorchat"), nil
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads the configuration from the default locations, applies
// environment overrides, and validates.
func Load() (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	return LoadFrom(dir)
}

// LoadFrom reads configuration from a specific directory. Missing files
// fall back to defaults; a present-but-broken file is an error rather
// than a silent default.
func LoadFrom(dir string) (*Config, error) {
	cfg := Default()

	tomlPath := filepath.Join(dir, "config.toml")
	jsonPath := filepath.Join(dir, "config.json")

	switch {
	case fileExists(tomlPath):
		if _, err := toml.DecodeFile(tomlPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", tomlPath, err)
		}
	case fileExists(jsonPath):
		data, err := os.ReadFile(jsonPath)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", jsonPath, err)
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv applies LUMEN_* environment overrides.
func (c *Config) applyEnv() {
	if v := os.Getenv("LUMEN_API_BASE_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("LUMEN_SESSION_TOKEN"); v != "" {
		c.Auth.SessionToken = v
	}
	if v := os.Getenv("LUMEN_PAGE_URL"); v != "" {
		c.Page.URL = v
	}
	if v := os.Getenv("LUMEN_PAGE_TITLE"); v != "" {
		c.Page.Title = v
	}
	if v := os.Getenv("LUMEN_TELEMETRY"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			c.Telemetry.Enabled = enabled
		}
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks the configuration, clamping out-of-range numeric
// values instead of failing on them.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		c.API.BaseURL = Default().API.BaseURL
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid api.base_url: %q", c.API.BaseURL)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return fmt.Errorf("api.base_url must be http(s), got %q", u.Scheme)
	}
	c.API.BaseURL = strings.TrimSuffix(c.API.BaseURL, "/")

	if c.API.ThreadListLimit < 1 {
		c.API.ThreadListLimit = 1
	}
	if c.API.ThreadListLimit > 100 {
		c.API.ThreadListLimit = 100
	}

	if c.Auth.PollIntervalSecs < 5 {
		c.Auth.PollIntervalSecs = 5
	}

	if c.Limits.UsageRefreshPerMinute <= 0 {
		c.Limits.UsageRefreshPerMinute = Default().Limits.UsageRefreshPerMinute
	}

	return nil
}

// fileExists reports whether path is an existing regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
