// Copyright (c) 2025-2026 Lumen Learning Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package ratelimit

import (
	"sync"
	"time"
)

// LowWaterMark is the remaining-sends threshold at or below which the UI
// shows the low-quota advisory banner.
const LowWaterMark = 5

// =============================================================================
// SNAPSHOT
// =============================================================================

// Snapshot is the server's authoritative statement of remaining allowed
// sends in the current quota window. Invariant: 0 <= Remaining <= Limit.
type Snapshot struct {
	Remaining int        `json:"remaining"`
	Limit     int        `json:"limit"`
	ResetAt   *time.Time `json:"reset_at"`
}

// clamp enforces the snapshot invariant on values from the wire.
func (s Snapshot) clamp() Snapshot {
	if s.Limit < 0 {
		s.Limit = 0
	}
	if s.Remaining < 0 {
		s.Remaining = 0
	}
	if s.Remaining > s.Limit {
		s.Remaining = s.Limit
	}
	return s
}

// =============================================================================
// TRACKER
// =============================================================================

// Tracker holds the last-known quota snapshot. Updates replace the
// snapshot wholesale, never field by field; last write wins by arrival
// order.
type Tracker struct {
	mu    sync.Mutex
	snap  Snapshot
	known bool
}

// NewTracker creates a tracker with no snapshot known.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Update replaces the snapshot. Idempotent-replace, not additive.
func (t *Tracker) Update(s Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snap = s.clamp()
	t.known = true
}

// MarkUnknown discards the snapshot, returning the tracker to the
// explicit unknown state. Used when the usage endpoint stays unreachable
// past its retry budget rather than keeping a stale guess.
func (t *Tracker) MarkUnknown() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snap = Snapshot{}
	t.known = false
}

// CanSend reports whether sending is currently allowed. With no limit
// known the tracker is permissive and returns true.
func (t *Tracker) CanSend() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.known {
		return true
	}
	return t.snap.Remaining > 0
}

// Low reports whether the low-quota advisory should be shown.
func (t *Tracker) Low() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.known && t.snap.Remaining <= LowWaterMark
}

// Snapshot returns the current snapshot and whether one is known.
func (t *Tracker) Snapshot() (Snapshot, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snap, t.known
}
