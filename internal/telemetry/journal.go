// Copyright (c) 2025-2026 Lumen Learning Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package telemetry

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrClosed is returned when recording into a closed journal.
	ErrClosed = errors.New("journal closed")
)

// =============================================================================
// EXCHANGE RECORD
// =============================================================================

// Outcome classifies how an exchange ended.
type Outcome string

const (
	// OutcomeSuccess is a finalized assistant message (including the
	// settling fallback).
	OutcomeSuccess Outcome = "success"

	// OutcomeError is a transport or protocol failure.
	OutcomeError Outcome = "error"

	// OutcomeRateLimited is a server-declared rate limit.
	OutcomeRateLimited Outcome = "rate_limited"
)

// Exchange is one journal row.
type Exchange struct {
	ID         string
	ThreadID   string
	Outcome    Outcome
	StartedAt  time.Time
	Duration   time.Duration
	DeltaCount int
	Chars      int

	// Remaining/Limit mirror the last quota snapshot seen during the
	// exchange; -1 when no snapshot was known.
	Remaining int
	Limit     int
}

// Recorder is the write side of the journal, satisfied by *Journal.
// Sessions hold the interface so tests can substitute a fake.
type Recorder interface {
	Record(e Exchange) error
}

// =============================================================================
// JOURNAL
// =============================================================================

const schema = `
CREATE TABLE IF NOT EXISTS exchanges (
	id          TEXT PRIMARY KEY,
	thread_id   TEXT NOT NULL DEFAULT '',
	outcome     TEXT NOT NULL,
	started_at  INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL,
	delta_count INTEGER NOT NULL,
	chars       INTEGER NOT NULL,
	remaining   INTEGER NOT NULL,
	quota_limit INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_exchanges_started ON exchanges(started_at);
CREATE INDEX IF NOT EXISTS idx_exchanges_thread ON exchanges(thread_id);
`

// Journal persists exchange records to a local SQLite database.
type Journal struct {
	mu     sync.Mutex
	db     *sql.DB
	closed bool
}

// Open creates or opens the journal database at path. An empty path
// defaults to ~/.lumen/tutorchat/journal.db.
func Open(path string) (*Journal, error) {
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(homeDir, ".lumen", "tutorchat", "journal.db")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize journal schema: %w", err)
	}

	return &Journal{db: db}, nil
}

// Record writes one exchange row.
func (j *Journal) Record(e Exchange) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return ErrClosed
	}

	_, err := j.db.Exec(`
		INSERT OR REPLACE INTO exchanges
		(id, thread_id, outcome, started_at, duration_ms, delta_count, chars, remaining, quota_limit)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.ThreadID, string(e.Outcome), e.StartedAt.UnixMilli(),
		e.Duration.Milliseconds(), e.DeltaCount, e.Chars, e.Remaining, e.Limit,
	)
	if err != nil {
		return fmt.Errorf("failed to record exchange: %w", err)
	}
	return nil
}

// Day returns the exchanges started on the given local day, oldest
// first.
func (j *Journal) Day(day time.Time) ([]Exchange, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return nil, ErrClosed
	}

	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.Add(24 * time.Hour)

	rows, err := j.db.Query(`
		SELECT id, thread_id, outcome, started_at, duration_ms, delta_count, chars, remaining, quota_limit
		FROM exchanges
		WHERE started_at >= ? AND started_at < ?
		ORDER BY started_at ASC`,
		start.UnixMilli(), end.UnixMilli(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query exchanges: %w", err)
	}
	defer rows.Close()

	var out []Exchange
	for rows.Next() {
		var e Exchange
		var startedMs, durMs int64
		var outcome string
		if err := rows.Scan(&e.ID, &e.ThreadID, &outcome, &startedMs, &durMs,
			&e.DeltaCount, &e.Chars, &e.Remaining, &e.Limit); err != nil {
			return nil, fmt.Errorf("failed to scan exchange: %w", err)
		}
		e.Outcome = Outcome(outcome)
		e.StartedAt = time.UnixMilli(startedMs)
		e.Duration = time.Duration(durMs) * time.Millisecond
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close releases the database handle.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return nil
	}
	j.closed = true
	return j.db.Close()
}
