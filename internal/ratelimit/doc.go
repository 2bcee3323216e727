// Copyright (c) 2025-2026 Lumen Learning Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ratelimit tracks the tutoring quota declared by the server.
//
// The server is the authority: the tracker only holds the last snapshot
// it was given, replaced wholesale whenever a fresher one arrives
// in-band or from the usage endpoint. With no snapshot known the
// tracker is permissive - the backend enforces the real limit either
// way.
//
// The package also owns the refresh gate that throttles how often the
// client asks the usage endpoint for a fresh snapshot.
package ratelimit
