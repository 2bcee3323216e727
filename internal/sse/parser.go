// Copyright (c) 2025-2026 Lumen Learning Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package sse

import (
	"bytes"
	"encoding/json"
	"log"
)

// =============================================================================
// CONSTANTS
// =============================================================================

// MaxBufferSize is the maximum number of buffered bytes awaiting an event
// terminator. A frame larger than this indicates a broken peer.
const MaxBufferSize = 64 * 1024

// eventSeparator terminates an SSE event. An event is only emitted once its
// terminating blank line has been observed; this is the framing invariant
// that guarantees no partial-JSON emission.
var eventSeparator = []byte("\n\n")

// =============================================================================
// EVENT TYPE
// =============================================================================

// Event is a single decoded protocol event.
type Event struct {
	// Type is the value of the "event:" field, or empty if absent.
	Type string

	// Data is the JSON payload from the "data:" field(s). Always valid
	// JSON: frames with malformed payloads are dropped by the parser.
	Data json.RawMessage
}

// =============================================================================
// PARSER
// =============================================================================

// Parser splits a raw byte stream into discrete protocol events.
//
// A Parser is bound to a single stream and is not safe for concurrent use;
// the streaming session owns it for the lifetime of one response body.
type Parser struct {
	buf bytes.Buffer

	// dropped counts frames discarded for malformed JSON payloads.
	dropped int

	// overflowed is set once the buffer limit is exceeded; the parser
	// stops accepting input afterwards.
	overflowed bool

	// pendingCR holds back a chunk-final '\r' so a CRLF split across two
	// chunks still normalizes to a single LF.
	pendingCR bool
}

// NewParser creates a parser for one response body.
func NewParser() *Parser {
	return &Parser{}
}

// Feed appends a chunk to the internal buffer and returns the events
// completed by it. A chunk may complete zero, one, or many events.
func (p *Parser) Feed(chunk []byte) []Event {
	if p.overflowed {
		return nil
	}

	if p.pendingCR {
		chunk = append([]byte{'\r'}, chunk...)
		p.pendingCR = false
	}
	if n := len(chunk); n > 0 && chunk[n-1] == '\r' {
		chunk = chunk[:n-1]
		p.pendingCR = true
	}
	p.buf.Write(normalizeNewlines(chunk))

	var events []Event
	for {
		raw := p.buf.Bytes()
		idx := bytes.Index(raw, eventSeparator)
		if idx < 0 {
			break
		}

		frame := make([]byte, idx)
		copy(frame, raw[:idx])
		p.buf.Next(idx + len(eventSeparator))

		if ev, ok := p.parseFrame(frame); ok {
			events = append(events, ev)
		}
	}

	if p.buf.Len() > MaxBufferSize {
		log.Printf("sse: frame exceeds %d bytes, dropping stream buffer", MaxBufferSize)
		p.buf.Reset()
		p.overflowed = true
	}

	return events
}

// Dropped returns the number of frames discarded for malformed payloads.
func (p *Parser) Dropped() int {
	return p.dropped
}

// parseFrame scans one completed fragment line by line. A fragment without
// a "data:" line is a keep-alive ping and produces no event. A fragment
// whose payload is not valid JSON is dropped without aborting the stream.
func (p *Parser) parseFrame(frame []byte) (Event, bool) {
	var eventType string
	var dataLines [][]byte

	for _, line := range bytes.Split(frame, []byte("\n")) {
		switch {
		case bytes.HasPrefix(line, []byte("event:")):
			eventType = string(bytes.TrimSpace(line[len("event:"):]))
		case bytes.HasPrefix(line, []byte("data:")):
			data := line[len("data:"):]
			// At most one optional space after the colon.
			if len(data) > 0 && data[0] == ' ' {
				data = data[1:]
			}
			dataLines = append(dataLines, data)
		}
		// Other fields (id:, retry:, ": comment") are ignored.
	}

	if len(dataLines) == 0 {
		return Event{}, false
	}

	payload := bytes.Join(dataLines, []byte("\n"))
	if !json.Valid(payload) {
		p.dropped++
		log.Printf("sse: dropping malformed frame (%d bytes)", len(payload))
		return Event{}, false
	}

	return Event{Type: eventType, Data: json.RawMessage(payload)}, true
}

// normalizeNewlines converts CRLF line endings to LF so that framing only
// has to deal with a single separator form. Bare CR is left alone; the
// tutoring service never emits it.
func normalizeNewlines(chunk []byte) []byte {
	if !bytes.Contains(chunk, []byte{'\r'}) {
		return chunk
	}
	return bytes.ReplaceAll(chunk, []byte("\r\n"), []byte("\n"))
}
