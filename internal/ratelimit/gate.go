// Copyright (c) 2025-2026 Lumen Learning Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package ratelimit

import (
	"golang.org/x/time/rate"
)

// =============================================================================
// REFRESH GATE
// =============================================================================

// DefaultRefreshPerMinute is how often the usage endpoint may be polled
// by default. Refreshes beyond the budget are dropped, not queued: a
// fresher snapshot will arrive in-band with the next exchange anyway.
const DefaultRefreshPerMinute = 6

// RefreshGate throttles read-path usage refreshes.
type RefreshGate struct {
	limiter *rate.Limiter
}

// NewRefreshGate creates a gate allowing perMinute refreshes with a
// burst of one. Non-positive values fall back to the default.
func NewRefreshGate(perMinute float64) *RefreshGate {
	if perMinute <= 0 {
		perMinute = DefaultRefreshPerMinute
	}
	return &RefreshGate{
		limiter: rate.NewLimiter(rate.Limit(perMinute/60.0), 1),
	}
}

// Allow reports whether a refresh may proceed now.
func (g *RefreshGate) Allow() bool {
	return g.limiter.Allow()
}
