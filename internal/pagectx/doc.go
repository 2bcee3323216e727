// Copyright (c) 2025-2026 Lumen Learning Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package pagectx captures the study-material context attached to every
// tutoring request.
//
// The context mirrors what the learner is currently looking at: the
// material's URL, its title, and its section headings. It is re-captured
// on every send and never cached. Values are percent-encoded before
// being placed into transport headers, since titles, headings and
// selected text may contain arbitrary characters that HTTP headers
// cannot carry raw.
package pagectx
