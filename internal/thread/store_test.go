// Copyright (c) 2025-2026 Lumen Learning Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package thread

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func contents(msgs []Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Content
	}
	return out
}

func TestViewAppendOrdering(t *testing.T) {
	s := NewStore()
	v := s.NewView()

	v.Append(NewUserMessage("question"))
	v.AdoptID("t1")
	v.Append(NewAssistantMessage("m1", "answer"))

	require.Equal(t, []string{"question", "answer"}, contents(s.Visible()))
	require.Equal(t, "t1", s.ActiveID())
}

func TestAdoptIDMovesPendingMessages(t *testing.T) {
	s := NewStore()
	v := s.NewView()

	v.Append(NewUserMessage("first"))
	require.Equal(t, "", v.ThreadID())

	v.AdoptID("t9")
	require.Equal(t, "t9", v.ThreadID())
	require.Equal(t, []string{"first"}, contents(s.Visible()))

	// A second adoption attempt is a no-op.
	v.AdoptID("other")
	require.Equal(t, "t9", v.ThreadID())
}

func TestStartNewHidesSupersededWrites(t *testing.T) {
	s := NewStore()
	old := s.NewView()
	old.Append(NewUserMessage("old question"))
	old.AdoptID("t1")

	// Learner starts a new thread while the old exchange is mid-stream.
	s.StartNew()
	require.False(t, old.Current())
	require.Empty(t, s.Visible())

	// The late assistant message still lands in its own thread, never in
	// the fresh view.
	old.Append(NewAssistantMessage("m1", "late answer"))
	require.Empty(t, s.Visible())

	s.SwitchTo("t1")
	require.Equal(t, []string{"old question", "late answer"}, contents(s.Visible()))
}

func TestPendingWritesOfSupersededNamelessView(t *testing.T) {
	s := NewStore()
	old := s.NewView()
	old.Append(NewUserMessage("unsent"))

	s.StartNew()
	fresh := s.NewView()
	fresh.Append(NewUserMessage("new question"))

	// Only the fresh epoch's pending messages are visible.
	require.Equal(t, []string{"new question"}, contents(s.Visible()))

	// The old view adopting an id now must not steal the active slot.
	old.AdoptID("t-old")
	require.Equal(t, "", s.ActiveID())
	require.Equal(t, []string{"new question"}, contents(s.Visible()))
}

func TestReleaseDropsSupersededPending(t *testing.T) {
	s := NewStore()
	old := s.NewView()
	old.Append(NewUserMessage("abandoned"))
	oldEpoch := old.epoch

	s.StartNew()
	old.Release()

	// The exchange resolved without ever being named; its buffered
	// messages have no thread to land in and are gone.
	_, held := s.pending[oldEpoch]
	require.False(t, held)
	require.Empty(t, s.Visible())
}

func TestReleaseKeepsActiveAndAdoptedViews(t *testing.T) {
	s := NewStore()

	// Active nameless view: Release must not touch what is on screen.
	v := s.NewView()
	v.Append(NewUserMessage("still visible"))
	v.Release()
	require.Equal(t, []string{"still visible"}, contents(s.Visible()))

	// Adopted then superseded: the messages already moved under the
	// thread id, so Release has nothing to drop.
	v.AdoptID("t1")
	s.StartNew()
	v.Release()
	s.SwitchTo("t1")
	require.Equal(t, []string{"still visible"}, contents(s.Visible()))
}

func TestSetThreadsSortsByRecency(t *testing.T) {
	s := NewStore()
	now := time.Now()
	s.SetThreads([]Thread{
		{ID: "a", UpdatedAt: now.Add(-time.Hour)},
		{ID: "b", UpdatedAt: now},
	})

	got := s.Threads()
	require.Equal(t, "b", got[0].ID)
	require.Equal(t, "a", got[1].ID)
}

func TestSetMessagesReplacesHistory(t *testing.T) {
	s := NewStore()
	s.SetMessages("t1", []Message{NewUserMessage("stale")})
	s.SetMessages("t1", []Message{NewUserMessage("fresh")})

	s.SwitchTo("t1")
	require.Equal(t, []string{"fresh"}, contents(s.Visible()))
}

func TestAppendTouchesThreadList(t *testing.T) {
	s := NewStore()
	s.SetThreads([]Thread{{ID: "t1", Title: "Algebra"}, {ID: "t2", Title: "History"}})

	s.SwitchTo("t2")
	v := s.NewView()
	v.Append(NewUserMessage("hi"))

	require.Equal(t, "t2", s.Threads()[0].ID)
}

func TestTitleOrDefault(t *testing.T) {
	tr := Thread{Title: "Fractions"}
	require.Equal(t, "Fractions", tr.TitleOrDefault())

	tr = Thread{Messages: []Message{
		{Role: RoleAssistant, Content: "Hello!"},
		{Role: RoleUser, Content: "What is a fraction?"},
	}}
	require.Equal(t, "What is a fraction?", tr.TitleOrDefault())

	tr = Thread{}
	require.Equal(t, "New conversation", tr.TitleOrDefault())
}

func TestPreviewTruncatesOnRunes(t *testing.T) {
	long := ""
	for i := 0; i < 60; i++ {
		long += "あ"
	}
	tr := Thread{Messages: []Message{{Role: RoleUser, Content: long}}}

	got := tr.TitleOrDefault()
	runes := []rune(got)
	require.Len(t, runes, 50)
	require.Equal(t, "...", string(runes[47:]))
}

func TestNewAssistantMessageSynthesizesID(t *testing.T) {
	m := NewAssistantMessage("", "orphaned text")
	require.NotEmpty(t, m.ID)
	require.Contains(t, m.ID, "local_")

	m = NewAssistantMessage("srv_1", "answer")
	require.Equal(t, "srv_1", m.ID)
}
