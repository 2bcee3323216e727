// Copyright (c) 2025-2026 Lumen Learning Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the Bubble Tea front-end for the tutoring
// client.
//
// The view is deliberately thin: every UI flag (spinner, disabled send
// control, error line, quota banner) derives from the streaming
// session's phase discriminant and the rate-limit tracker, never from
// independently maintained booleans. Messages are rendered as plain
// text; formatting is the platform's concern, not this client's.
package chat
