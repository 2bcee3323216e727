// Copyright (c) 2025-2026 Lumen Learning Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package sse implements Server-Sent Events framing for the tutoring
// stream protocol.
//
// The parser is push-fed: callers hand it raw chunks from the response
// body in whatever sizes the transport delivers them, and receive back
// the events completed by those bytes. Framing is chunk-boundary
// independent - feeding the same byte stream one byte at a time or all
// at once yields the identical event sequence.
//
// # Key Types
//
//   - Parser: stateful push parser, one per response body
//   - Event: a decoded protocol event (type + JSON payload)
//
// # Usage
//
//	p := sse.NewParser()
//	for {
//	    n, err := body.Read(buf)
//	    for _, ev := range p.Feed(buf[:n]) {
//	        handle(ev)
//	    }
//	    ...
//	}
package sse
