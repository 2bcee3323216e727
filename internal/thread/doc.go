// Copyright (c) 2025-2026 Lumen Learning Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package thread holds the conversation data model and the in-memory
// thread store for the tutoring client.
//
// A Thread is a named, server-persisted conversation; the store only
// mirrors it for display. Messages are append-only and insertion order
// is display order. Finalized messages are written exclusively by the
// streaming session through a View, which is pinned to the view epoch
// that was active when the exchange started: an exchange that finishes
// after the user has moved to a different thread still records its
// messages, but they never appear in the newly active view.
package thread
