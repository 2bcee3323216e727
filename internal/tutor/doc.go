// Copyright (c) 2025-2026 Lumen Learning Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package tutor implements the client for the Lumen AI tutoring
// service.
//
// The protocol is a single HTTPS POST per exchange answered with a
// Server-Sent Events stream: the assistant's reply arrives as text
// deltas, interleaved with quota snapshots, the server-assigned thread
// id, and a terminal message id. Companion REST endpoints expose the
// thread list, individual thread history, and current usage.
//
// # Key Types
//
//   - Client: HTTP client for the tutoring API with pooled transport
//   - Session: the state machine driving one send/receive exchange
//   - StreamEvent: one decoded event payload from the stream
//
// # Error policy
//
// The send path is strict: transport failures and non-2xx responses
// terminate the exchange and are surfaced to the caller. The read path
// (thread list, usage) is lenient: failures are logged, retried within a
// small budget, and otherwise treated as no-ops.
package tutor
