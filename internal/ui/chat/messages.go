// Copyright (c) 2025-2026 Lumen Learning Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"time"

	"github.com/lumenedu/tutorchat/internal/auth"
	"github.com/lumenedu/tutorchat/internal/config"
	"github.com/lumenedu/tutorchat/internal/thread"
	"github.com/lumenedu/tutorchat/internal/tutor"
)

// =============================================================================
// SESSION MESSAGES
// =============================================================================

// SessionNoteMsg carries one notification from the streaming session
// goroutine into the program loop.
type SessionNoteMsg struct {
	Note tutor.Note
}

// SendRefusedMsg reports a send refused before any network call (empty
// input or exhausted quota).
type SendRefusedMsg struct {
	Err error
}

// =============================================================================
// READ-PATH MESSAGES
// =============================================================================

// ThreadsLoadedMsg delivers the thread list. Err is logged, not shown;
// the read path is lenient.
type ThreadsLoadedMsg struct {
	Threads []thread.Thread
	Err     error
}

// ThreadHistoryMsg delivers one thread's loaded message history.
type ThreadHistoryMsg struct {
	ThreadID string
	Messages []thread.Message
	Err      error
}

// UsageRefreshedMsg signals that a usage refresh attempt finished; the
// tracker already holds the result (or the explicit unknown state).
type UsageRefreshedMsg struct{}

// =============================================================================
// AMBIENT MESSAGES
// =============================================================================

// AuthStateMsg reports a sign-in state transition.
type AuthStateMsg struct {
	State auth.State
}

// ConfigReloadedMsg delivers a live-reloaded configuration.
type ConfigReloadedMsg struct {
	Config *config.Config
}

// TickMsg drives periodic housekeeping (quota re-check).
type TickMsg struct {
	Time time.Time
}
