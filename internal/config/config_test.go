// Copyright (c) 2025-2026 Lumen Learning Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadFromMissingDirUsesDefaults(t *testing.T) {
	cfg, err := LoadFrom(t.TempDir())
	require.NoError(t, err)
	require.Equal(t, Default().API.BaseURL, cfg.API.BaseURL)
	require.Equal(t, 20, cfg.API.ThreadListLimit)
	require.True(t, cfg.Telemetry.Enabled)
}

func TestLoadFromTOML(t *testing.T) {
	dir := t.TempDir()
	data := `
version = "1"

[api]
base_url = "https://staging.lumen.education/v1/tutor/"
thread_list_limit = 5

[limits]
usage_refresh_per_minute = 2.0
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(data), 0644))

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)
	require.Equal(t, "https://staging.lumen.education/v1/tutor", cfg.API.BaseURL, "trailing slash trimmed")
	require.Equal(t, 5, cfg.API.ThreadListLimit)
	require.Equal(t, 2.0, cfg.Limits.UsageRefreshPerMinute)
}

func TestLoadFromJSONFallback(t *testing.T) {
	dir := t.TempDir()
	data := `{"api":{"base_url":"http://localhost:8080","thread_list_limit":3}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(data), 0644))

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8080", cfg.API.BaseURL)
	require.Equal(t, 3, cfg.API.ThreadListLimit)
}

func TestLoadFromBrokenFileErrors(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[api\nbroken"), 0644))

	_, err := LoadFrom(dir)
	require.Error(t, err, "a present-but-broken file must not silently default")
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("LUMEN_API_BASE_URL", "https://override.example/v1")
	t.Setenv("LUMEN_SESSION_TOKEN", "env-token")
	t.Setenv("LUMEN_TELEMETRY", "false")

	cfg, err := LoadFrom(t.TempDir())
	require.NoError(t, err)
	require.Equal(t, "https://override.example/v1", cfg.API.BaseURL)
	require.Equal(t, "env-token", cfg.Auth.SessionToken)
	require.False(t, cfg.Telemetry.Enabled)
}

func TestValidateRejectsBadScheme(t *testing.T) {
	cfg := Default()
	cfg.API.BaseURL = "ftp://lumen.education"
	require.Error(t, cfg.Validate())

	cfg.API.BaseURL = "not a url at all\x00"
	require.Error(t, cfg.Validate())
}

func TestValidateClampsRanges(t *testing.T) {
	cfg := Default()
	cfg.API.ThreadListLimit = 0
	cfg.Auth.PollIntervalSecs = 1
	cfg.Limits.UsageRefreshPerMinute = -3

	require.NoError(t, cfg.Validate())
	require.Equal(t, 1, cfg.API.ThreadListLimit)
	require.Equal(t, 5, cfg.Auth.PollIntervalSecs)
	require.Equal(t, Default().Limits.UsageRefreshPerMinute, cfg.Limits.UsageRefreshPerMinute)

	cfg.API.ThreadListLimit = 500
	require.NoError(t, cfg.Validate())
	require.Equal(t, 100, cfg.API.ThreadListLimit)
}
