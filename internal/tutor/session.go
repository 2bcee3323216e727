// Copyright (c) 2025-2026 Lumen Learning Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package tutor

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lumenedu/tutorchat/internal/pagectx"
	"github.com/lumenedu/tutorchat/internal/ratelimit"
	"github.com/lumenedu/tutorchat/internal/sse"
	"github.com/lumenedu/tutorchat/internal/telemetry"
	"github.com/lumenedu/tutorchat/internal/thread"
)

// =============================================================================
// PHASES
// =============================================================================

// Phase is the exchange state. Every UI flag (spinner, disabled send,
// error line) derives from this one discriminant; the phases are
// mutually exclusive by construction.
type Phase int

const (
	// PhaseIdle is a session not yet started.
	PhaseIdle Phase = iota

	// PhaseSending covers token fetch through the initial POST.
	PhaseSending

	// PhaseStreaming covers the event read loop.
	PhaseStreaming

	// PhaseSettling is the fallback window after the body ended without
	// a terminal marker.
	PhaseSettling

	// PhaseSuccess is terminal: a finalized assistant message exists.
	PhaseSuccess

	// PhaseError is terminal: transport or protocol failure.
	PhaseError

	// PhaseRateLimited is terminal: the server declared a rate limit.
	PhaseRateLimited
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseSending:
		return "sending"
	case PhaseStreaming:
		return "streaming"
	case PhaseSettling:
		return "settling"
	case PhaseSuccess:
		return "success"
	case PhaseError:
		return "error"
	case PhaseRateLimited:
		return "rate-limited"
	default:
		return "unknown"
	}
}

// Terminal reports whether the phase ends the exchange.
func (p Phase) Terminal() bool {
	return p == PhaseSuccess || p == PhaseError || p == PhaseRateLimited
}

// =============================================================================
// NOTES
// =============================================================================

// Note is one UI-bound notification from a running session. Partial
// content is the full accumulated text so far, so UI updates are
// strictly monotonically growing until the terminal message replaces
// them.
type Note struct {
	ExchangeID string
	Phase      Phase

	// Partial is the accumulated assistant text, set on every text
	// delta.
	Partial string

	// Message is the finalized assistant message, set on PhaseSuccess.
	Message *thread.Message

	// ServerMessage is the server's rate-limit text, set on
	// PhaseRateLimited, displayed verbatim.
	ServerMessage string

	// Err is set on PhaseError.
	Err error
}

// =============================================================================
// SESSION
// =============================================================================

// Session drives one send/receive exchange: it issues the request,
// feeds the SSE parser, updates the thread view and rate-limit tracker
// incrementally, and resolves to a terminal phase. One session per
// send; a spent session is never reused.
type Session struct {
	mu sync.Mutex

	id     string
	client *Client
	view   *thread.View
	limits *ratelimit.Tracker

	notify  func(Note)
	journal telemetry.Recorder
	cleanup func()

	phase         Phase
	text          strings.Builder
	deltaCount    int
	completed     bool
	serverMessage string
	err           error
	startedAt     time.Time
}

// NewSession creates a session for one exchange against the given view.
func NewSession(client *Client, view *thread.View, limits *ratelimit.Tracker) *Session {
	return &Session{
		id:     uuid.NewString(),
		client: client,
		view:   view,
		limits: limits,
		phase:  PhaseIdle,
	}
}

// WithNotify sets the UI notification callback.
func (s *Session) WithNotify(fn func(Note)) *Session {
	s.notify = fn
	return s
}

// WithJournal sets the exchange journal.
func (s *Session) WithJournal(r telemetry.Recorder) *Session {
	s.journal = r
	return s
}

// WithCleanup sets the hook run on every terminal phase (clears the
// transient selection, re-enables the send control).
func (s *Session) WithCleanup(fn func()) *Session {
	s.cleanup = fn
	return s
}

// ID returns the exchange id.
func (s *Session) ID() string {
	return s.id
}

// Phase returns the current phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Partial returns the accumulated assistant text so far.
func (s *Session) Partial() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text.String()
}

// ServerMessage returns the server's rate-limit message, if any.
func (s *Session) ServerMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.serverMessage
}

// Err returns the terminal error, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// View returns the thread view the session writes into.
func (s *Session) View() *thread.View {
	return s.view
}

// =============================================================================
// EXCHANGE
// =============================================================================

// Run performs the whole exchange and blocks until it resolves. It is
// meant to run on its own goroutine; progress reaches the UI through
// the notify callback.
//
// The Idle->Sending transition is guarded: empty trimmed content or an
// exhausted quota refuse the send with no network call and no state
// change. The optimistic user message appended once Sending begins is
// never rolled back - failure does not retract what the user said.
func (s *Session) Run(ctx context.Context, content string, pc pagectx.PageContext) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return ErrEmptyMessage
	}
	if !s.limits.CanSend() {
		return ErrQuotaExhausted
	}

	s.mu.Lock()
	if s.phase != PhaseIdle {
		s.mu.Unlock()
		return ErrSessionSpent
	}
	s.phase = PhaseSending
	s.startedAt = time.Now()
	s.mu.Unlock()
	s.post(Note{Phase: PhaseSending})

	s.view.Append(thread.NewUserMessage(content))

	token := s.client.tokenFor(ctx)

	body := sendRequest{Content: content}
	if id := s.view.ThreadID(); id != "" {
		body.ThreadID = &id
	}

	resp, err := s.client.openStream(ctx, token, body, pc)
	if err != nil {
		return s.fail(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, MaxErrorBody))
		return s.fail(&APIError{Status: resp.StatusCode, Body: string(errBody)})
	}

	s.setPhase(PhaseStreaming)
	s.post(Note{Phase: PhaseStreaming})

	return s.readLoop(resp.Body)
}

// readLoop drives the parser over the response body until a terminal
// event or the end of the stream.
func (s *Session) readLoop(bodyReader io.Reader) error {
	parser := sse.NewParser()
	buf := make([]byte, 4096)

	for {
		n, readErr := bodyReader.Read(buf)
		if n > 0 {
			for _, ev := range parser.Feed(buf[:n]) {
				if terminal := s.handleEvent(ev); terminal {
					return s.terminalErr()
				}
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return s.fail(&StreamError{Partial: s.Partial(), Err: readErr})
		}
	}

	return s.settle()
}

// handleEvent interprets one parsed event by field presence. Returns
// true when the event resolved the exchange.
func (s *Session) handleEvent(raw sse.Event) bool {
	var ev StreamEvent
	if err := json.Unmarshal(raw.Data, &ev); err != nil {
		// Same recovery as a malformed frame: drop this event, keep the
		// stream alive.
		log.Printf("tutor: dropping unreadable event: %v", err)
		return false
	}

	// Fields are independent and may co-occur, so an id or snapshot
	// riding on a stop event is applied before the stop is honored.
	if ev.ThreadID != "" {
		s.view.AdoptID(ev.ThreadID)
	}
	if ev.RateLimit != nil {
		s.limits.Update(*ev.RateLimit)
	}

	if ev.Code == CodeRateLimited {
		// A stop event without its own snapshot invalidates whatever
		// count we held; sending stays gated until a snapshot taken
		// after the stop arrives.
		if ev.RateLimit == nil {
			s.limits.MarkUnknown()
		}
		s.rateLimited(ev.Message)
		return true
	}

	if ev.Text != nil {
		s.mu.Lock()
		s.text.WriteString(*ev.Text)
		s.deltaCount++
		partial := s.text.String()
		s.mu.Unlock()
		s.post(Note{Phase: PhaseStreaming, Partial: partial})
	}

	if ev.MessageID != "" {
		s.succeed(ev.MessageID)
		return true
	}

	return false
}

// settle handles a stream that ended without a terminal marker. Received
// assistant text is never silently discarded: a message with a
// client-generated id is synthesized when any text arrived.
func (s *Session) settle() error {
	s.setPhase(PhaseSettling)

	if s.Partial() != "" {
		s.succeed("")
		return nil
	}
	return s.fail(ErrNoContent)
}

// succeed finalizes the assistant message and resolves the exchange. An
// empty id means the settling fallback synthesizes one.
func (s *Session) succeed(messageID string) {
	s.mu.Lock()
	msg := thread.NewAssistantMessage(messageID, s.text.String())
	s.completed = true
	s.phase = PhaseSuccess
	s.mu.Unlock()

	s.view.Append(msg)
	s.finish(telemetry.OutcomeSuccess)
	s.post(Note{Phase: PhaseSuccess, Message: &msg})
}

// rateLimited resolves the exchange with the server's message, read
// verbatim. Not an error: a first-class terminal state.
func (s *Session) rateLimited(serverMsg string) {
	s.mu.Lock()
	s.serverMessage = serverMsg
	s.phase = PhaseRateLimited
	s.mu.Unlock()

	s.finish(telemetry.OutcomeRateLimited)
	s.post(Note{Phase: PhaseRateLimited, ServerMessage: serverMsg})
}

// fail resolves the exchange with an error.
func (s *Session) fail(err error) error {
	s.mu.Lock()
	s.err = err
	s.phase = PhaseError
	s.mu.Unlock()

	s.finish(telemetry.OutcomeError)
	s.post(Note{Phase: PhaseError, Err: err})
	return err
}

// terminalErr returns the stored error for terminal phases, nil for
// success and rate-limit resolutions.
func (s *Session) terminalErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// finish runs the terminal bookkeeping shared by all resolutions.
func (s *Session) finish(outcome telemetry.Outcome) {
	s.view.Release()
	if s.cleanup != nil {
		s.cleanup()
	}
	if s.journal == nil {
		return
	}

	threadID := s.view.ThreadID()

	s.mu.Lock()
	entry := telemetry.Exchange{
		ID:         s.id,
		ThreadID:   threadID,
		Outcome:    outcome,
		StartedAt:  s.startedAt,
		Duration:   time.Since(s.startedAt),
		DeltaCount: s.deltaCount,
		Chars:      s.text.Len(),
		Remaining:  -1,
		Limit:      -1,
	}
	s.mu.Unlock()

	if snap, known := s.limits.Snapshot(); known {
		entry.Remaining = snap.Remaining
		entry.Limit = snap.Limit
	}

	if err := s.journal.Record(entry); err != nil {
		log.Printf("tutor: journal record failed: %v", err)
	}
}

// setPhase updates the phase under lock.
func (s *Session) setPhase(p Phase) {
	s.mu.Lock()
	s.phase = p
	s.mu.Unlock()
}

// post delivers a note to the UI, stamping the exchange id.
func (s *Session) post(n Note) {
	if s.notify == nil {
		return
	}
	n.ExchangeID = s.id
	s.notify(n)
}
