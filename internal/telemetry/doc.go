// Copyright (c) 2025-2026 Lumen Learning Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package telemetry keeps a local journal of tutoring exchanges.
//
// The journal records one row per exchange: outcome, timing, delta
// count, and the closing quota snapshot. It is an activity log for the
// learner's own usage review - not an offline cache of messages, which
// the client deliberately does not keep.
package telemetry
