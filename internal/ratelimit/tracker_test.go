// Copyright (c) 2025-2026 Lumen Learning Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTrackerPermissiveWhenUnknown(t *testing.T) {
	tr := NewTracker()

	require.True(t, tr.CanSend())
	require.False(t, tr.Low())
	_, known := tr.Snapshot()
	require.False(t, known)
}

func TestTrackerUpdateReplacesWholesale(t *testing.T) {
	tr := NewTracker()
	reset := time.Now().Add(time.Hour)

	tr.Update(Snapshot{Remaining: 3, Limit: 10, ResetAt: &reset})
	tr.Update(Snapshot{Remaining: 7, Limit: 10})

	snap, known := tr.Snapshot()
	require.True(t, known)
	require.Equal(t, 7, snap.Remaining)
	require.Nil(t, snap.ResetAt, "later snapshot replaces the earlier one field-for-field")
}

func TestTrackerCanSendAtZero(t *testing.T) {
	tr := NewTracker()
	tr.Update(Snapshot{Remaining: 0, Limit: 10})
	require.False(t, tr.CanSend())

	tr.Update(Snapshot{Remaining: 1, Limit: 10})
	require.True(t, tr.CanSend())
}

func TestTrackerClampsWireValues(t *testing.T) {
	tr := NewTracker()

	tr.Update(Snapshot{Remaining: -2, Limit: 10})
	snap, _ := tr.Snapshot()
	require.Equal(t, 0, snap.Remaining)

	tr.Update(Snapshot{Remaining: 15, Limit: 10})
	snap, _ = tr.Snapshot()
	require.Equal(t, 10, snap.Remaining)
}

func TestTrackerLowWaterMark(t *testing.T) {
	tr := NewTracker()

	tr.Update(Snapshot{Remaining: LowWaterMark + 1, Limit: 20})
	require.False(t, tr.Low())

	tr.Update(Snapshot{Remaining: LowWaterMark, Limit: 20})
	require.True(t, tr.Low())
}

func TestTrackerMarkUnknown(t *testing.T) {
	tr := NewTracker()
	tr.Update(Snapshot{Remaining: 0, Limit: 10})
	require.False(t, tr.CanSend())

	tr.MarkUnknown()
	require.True(t, tr.CanSend(), "unknown quota is permissive, not stale")
	_, known := tr.Snapshot()
	require.False(t, known)
}

func TestRefreshGateBudget(t *testing.T) {
	g := NewRefreshGate(6)
	require.True(t, g.Allow())
	require.False(t, g.Allow(), "burst of one: second immediate refresh is dropped")
}
