// Copyright (c) 2025-2026 Lumen Learning Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package tutor

import (
	"github.com/lumenedu/tutorchat/internal/ratelimit"
)

// CodeRateLimited is the only code value the client acts on.
const CodeRateLimited = "RATE_LIMITED"

// StreamEvent is one decoded payload from the chat stream. All fields
// are optional and independent; any subset may appear in a single event,
// so handling is by field presence.
type StreamEvent struct {
	// Code carries a server-declared condition ("RATE_LIMITED").
	Code string `json:"code,omitempty"`

	// Message is the user-facing text accompanying Code.
	Message string `json:"message,omitempty"`

	// ThreadID is the new or continuing thread id.
	ThreadID string `json:"id,omitempty"`

	// Text is an incremental content delta. A pointer so that an empty
	// delta is still distinguishable from an absent field.
	Text *string `json:"text,omitempty"`

	// RateLimit is a fresh quota snapshot.
	RateLimit *ratelimit.Snapshot `json:"rate_limit,omitempty"`

	// MessageID is the terminal marker carrying the server-confirmed id
	// of the finalized assistant message.
	MessageID string `json:"message_id,omitempty"`
}
