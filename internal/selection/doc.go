// Copyright (c) 2025-2026 Lumen Learning Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package selection turns an ad-hoc text selection into a pre-filled
// outgoing message. Purely a formatting step before the normal send
// path; no state of its own.
package selection
