// Copyright (c) 2025-2026 Lumen Learning Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth obtains and caches the bearer credential for tutoring
// API calls.
//
// The credential itself is minted by the platform's session provider;
// this package only owns the cache slot and its lifecycle: process-wide,
// last write wins, cleared on explicit sign-out. Mint failures are
// swallowed - callers send an empty bearer value and let the backend's
// own rejection surface, rather than blocking the send path.
//
// Sign-in/out changes observed either through the provider's event hook
// or through the periodic check are published on a single subscription
// channel, so consumers subscribe once instead of juggling two
// mechanisms.
package auth
