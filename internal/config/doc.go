// Copyright (c) 2025-2026 Lumen Learning Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading for the tutoring
// client.
//
// Supports both TOML and JSON formats with sensible defaults,
// environment variable overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.lumen/tutorchat/config.toml
//   - ~/.lumen/tutorchat/config.json
//   - Built-in defaults
//
// Environment overrides use the LUMEN_ prefix, e.g. LUMEN_API_BASE_URL
// and LUMEN_SESSION_TOKEN.
package config
