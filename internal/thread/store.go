// Copyright (c) 2025-2026 Lumen Learning Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package thread

import (
	"sort"
	"sync"
	"time"
)

// =============================================================================
// STORE
// =============================================================================

// Store is the in-memory list of known threads and the active thread's
// messages. Finalized messages are mutated only through Views handed to
// streaming sessions; everything else is read state for the UI.
type Store struct {
	mu sync.Mutex

	// epoch advances whenever the active view changes (new thread,
	// switch, navigation). Views from older epochs keep writing into
	// their thread slices but are never shown.
	epoch int64

	// activeID is the active thread id, empty before the first exchange
	// of a fresh thread has discovered its server-assigned id.
	activeID string

	// byThread holds finalized messages per thread id.
	byThread map[string][]Message

	// pending holds messages of not-yet-named threads, keyed by the
	// epoch the exchange started in. Moved into byThread on adoption.
	pending map[int64][]Message

	// threads is the known thread list, most recently updated first.
	threads []Thread
}

// NewStore creates an empty thread store.
func NewStore() *Store {
	return &Store{
		byThread: make(map[string][]Message),
		pending:  make(map[int64][]Message),
	}
}

// =============================================================================
// ACTIVE VIEW
// =============================================================================

// ActiveID returns the active thread id, or empty for a fresh thread.
func (s *Store) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

// Visible returns a copy of the messages of the active view, in display
// order.
func (s *Store) Visible() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	var src []Message
	if s.activeID != "" {
		src = s.byThread[s.activeID]
	} else {
		src = s.pending[s.epoch]
	}
	out := make([]Message, len(src))
	copy(out, src)
	return out
}

// StartNew evicts the active view: messages cleared from display and the
// thread id reset. The server-side thread is untouched.
func (s *Store) StartNew() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	s.activeID = ""
}

// SwitchTo makes an existing thread the active view. Its messages should
// be loaded (or already present) via SetMessages.
func (s *Store) SwitchTo(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	s.activeID = id
}

// =============================================================================
// THREAD LIST
// =============================================================================

// SetThreads replaces the known thread list, most recently updated first.
func (s *Store) SetThreads(threads []Thread) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.threads = make([]Thread, len(threads))
	copy(s.threads, threads)
	sort.SliceStable(s.threads, func(i, j int) bool {
		return s.threads[i].UpdatedAt.After(s.threads[j].UpdatedAt)
	})
}

// Threads returns a copy of the known thread list.
func (s *Store) Threads() []Thread {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Thread, len(s.threads))
	copy(out, s.threads)
	return out
}

// SetMessages installs the loaded message history of a thread, replacing
// any mirror the store held for it.
func (s *Store) SetMessages(id string, msgs []Message) {
	if id == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]Message, len(msgs))
	copy(cp, msgs)
	s.byThread[id] = cp
}

// touchLocked bumps a thread's UpdatedAt in the list, inserting a stub
// entry for threads the list does not know yet.
func (s *Store) touchLocked(id string) {
	now := time.Now()
	for i := range s.threads {
		if s.threads[i].ID == id {
			s.threads[i].UpdatedAt = now
			return
		}
	}
	s.threads = append([]Thread{{ID: id, UpdatedAt: now}}, s.threads...)
}

// =============================================================================
// VIEW (SESSION WRITE HANDLE)
// =============================================================================

// View is the write handle a streaming session uses to record messages.
// It is pinned to the epoch and thread id that were active when the
// exchange started.
type View struct {
	store    *Store
	epoch    int64
	threadID string
}

// NewView captures the active view for one exchange.
func (s *Store) NewView() *View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &View{store: s, epoch: s.epoch, threadID: s.activeID}
}

// ThreadID returns the view's thread id, empty while the server has not
// assigned one.
func (v *View) ThreadID() string {
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	return v.threadID
}

// Append records a finalized message into the view's thread. Late
// appends from a superseded view still land in their thread slice; the
// UI filters rendering by the active view, so they never surface there.
func (v *View) Append(msg Message) {
	s := v.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if v.threadID != "" {
		s.byThread[v.threadID] = append(s.byThread[v.threadID], msg)
		s.touchLocked(v.threadID)
		return
	}
	s.pending[v.epoch] = append(s.pending[v.epoch], msg)
}

// AdoptID installs the server-assigned id for a view that started with
// none, moving its pending messages under the new id. If the view's
// epoch is still the active one, the store's active id follows.
func (v *View) AdoptID(id string) {
	if id == "" {
		return
	}
	s := v.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if v.threadID != "" {
		return // already bound to a thread
	}
	v.threadID = id

	if msgs := s.pending[v.epoch]; len(msgs) > 0 {
		s.byThread[id] = append(s.byThread[id], msgs...)
		delete(s.pending, v.epoch)
	}
	s.touchLocked(id)

	if s.epoch == v.epoch && s.activeID == "" {
		s.activeID = id
	}
}

// Current reports whether the view is still the active one. The UI uses
// this to decide whether partial content from the exchange is rendered.
func (v *View) Current() bool {
	s := v.store
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch == v.epoch
}

// Release drops the pending messages of a superseded view whose thread
// was never named. They can no longer surface (the epoch is stale) and
// no adoption will come (the exchange is over). Called once per view,
// when its exchange resolves; a no-op for active or adopted views.
func (v *View) Release() {
	s := v.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if v.threadID == "" && v.epoch != s.epoch {
		delete(s.pending, v.epoch)
	}
}
