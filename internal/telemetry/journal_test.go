// Copyright (c) 2025-2026 Lumen Learning Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package telemetry

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestJournalRecordAndDay(t *testing.T) {
	j := openTestJournal(t)
	now := time.Now()

	require.NoError(t, j.Record(Exchange{
		ID:         "ex-1",
		ThreadID:   "t1",
		Outcome:    OutcomeSuccess,
		StartedAt:  now,
		Duration:   1200 * time.Millisecond,
		DeltaCount: 4,
		Chars:      120,
		Remaining:  9,
		Limit:      10,
	}))
	require.NoError(t, j.Record(Exchange{
		ID:        "ex-2",
		Outcome:   OutcomeRateLimited,
		StartedAt: now.Add(time.Minute),
		Remaining: -1,
		Limit:     -1,
	}))

	got, err := j.Day(now)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "ex-1", got[0].ID)
	require.Equal(t, OutcomeSuccess, got[0].Outcome)
	require.Equal(t, 4, got[0].DeltaCount)
	require.Equal(t, 9, got[0].Remaining)
	require.Equal(t, OutcomeRateLimited, got[1].Outcome)
	require.Equal(t, -1, got[1].Remaining)
}

func TestJournalDayExcludesOtherDays(t *testing.T) {
	j := openTestJournal(t)
	now := time.Now()

	require.NoError(t, j.Record(Exchange{ID: "today", Outcome: OutcomeSuccess, StartedAt: now}))
	require.NoError(t, j.Record(Exchange{ID: "yesterday", Outcome: OutcomeError, StartedAt: now.Add(-26 * time.Hour)}))

	got, err := j.Day(now)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "today", got[0].ID)
}

func TestJournalRecordIsIdempotentPerID(t *testing.T) {
	j := openTestJournal(t)
	now := time.Now()

	require.NoError(t, j.Record(Exchange{ID: "ex-1", Outcome: OutcomeError, StartedAt: now}))
	require.NoError(t, j.Record(Exchange{ID: "ex-1", Outcome: OutcomeSuccess, StartedAt: now}))

	got, err := j.Day(now)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, OutcomeSuccess, got[0].Outcome)
}

func TestJournalClosedRejectsWrites(t *testing.T) {
	j := openTestJournal(t)
	require.NoError(t, j.Close())

	err := j.Record(Exchange{ID: "ex-1", Outcome: OutcomeSuccess, StartedAt: time.Now()})
	require.ErrorIs(t, err, ErrClosed)

	_, err = j.Day(time.Now())
	require.ErrorIs(t, err, ErrClosed)
}
