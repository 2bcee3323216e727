// Copyright (c) 2025-2026 Lumen Learning Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"context"
	"log"
	"sync"
	"time"
)

// DefaultPollInterval is how often the periodic check consults the
// session provider for sign-in state changes.
const DefaultPollInterval = 30 * time.Second

// =============================================================================
// SESSION PROVIDER
// =============================================================================

// SessionProvider is the external authentication/session module. The
// client never authenticates on its own; it asks the provider for a
// token and for the current sign-in state.
type SessionProvider interface {
	// MintToken produces a bearer token for the signed-in user.
	MintToken(ctx context.Context) (string, error)

	// SignedIn reports whether a user session currently exists.
	SignedIn() bool
}

// StaticProvider is a SessionProvider backed by a fixed token, used when
// the credential comes from the environment or a config file.
type StaticProvider struct {
	Token string
}

// MintToken returns the fixed token.
func (p *StaticProvider) MintToken(ctx context.Context) (string, error) {
	return p.Token, nil
}

// SignedIn reports whether a token is present.
func (p *StaticProvider) SignedIn() bool {
	return p.Token != ""
}

// =============================================================================
// STATE CHANGES
// =============================================================================

// State is the sign-in state published to subscribers.
type State int

const (
	// SignedOut indicates no user session exists.
	SignedOut State = iota

	// SignedIn indicates a user session exists.
	SignedIn
)

// String returns the state name.
func (s State) String() string {
	if s == SignedIn {
		return "signed-in"
	}
	return "signed-out"
}

// =============================================================================
// TOKEN PROVIDER
// =============================================================================

// TokenProvider caches the bearer credential in a single shared slot.
type TokenProvider struct {
	mu       sync.Mutex
	provider SessionProvider
	token    string
	last     State
	subs     []chan State
}

// NewTokenProvider creates a provider around the given session module.
func NewTokenProvider(p SessionProvider) *TokenProvider {
	tp := &TokenProvider{provider: p}
	if p != nil && p.SignedIn() {
		tp.last = SignedIn
	}
	return tp
}

// GetToken returns the cached token, minting one when the cache is
// empty. Mint failure is swallowed to an empty token: the request
// proceeds unauthenticated and the backend's rejection is what the
// caller ultimately sees. A fresh attempt is made on every call that
// finds the cache empty.
func (tp *TokenProvider) GetToken(ctx context.Context) string {
	tp.mu.Lock()
	if tp.token != "" {
		tok := tp.token
		tp.mu.Unlock()
		return tok
	}
	provider := tp.provider
	tp.mu.Unlock()

	if provider == nil {
		return ""
	}

	tok, err := provider.MintToken(ctx)
	if err != nil {
		log.Printf("auth: token mint failed: %v", err)
		return ""
	}

	// Last value wins if several callers minted concurrently.
	tp.mu.Lock()
	tp.token = tok
	tp.mu.Unlock()
	return tok
}

// Invalidate clears the cached token. Called on explicit sign-out and
// when the periodic check notices the session disappeared.
func (tp *TokenProvider) Invalidate() {
	tp.mu.Lock()
	tp.token = ""
	tp.mu.Unlock()
}

// =============================================================================
// SIGN-IN NOTIFICATIONS
// =============================================================================

// Subscribe returns a channel receiving sign-in state transitions. Both
// the event-driven hook and the periodic check publish here. The channel
// is buffered; a slow consumer loses intermediate transitions but always
// sees the latest.
func (tp *TokenProvider) Subscribe() <-chan State {
	ch := make(chan State, 1)
	tp.mu.Lock()
	tp.subs = append(tp.subs, ch)
	tp.mu.Unlock()
	return ch
}

// NotifySignIn is the event hook for a sign-in happening elsewhere.
func (tp *TokenProvider) NotifySignIn() {
	tp.publish(SignedIn)
}

// NotifySignOut is the event hook for a sign-out happening elsewhere.
// The cached token is dropped before subscribers hear about it.
func (tp *TokenProvider) NotifySignOut() {
	tp.Invalidate()
	tp.publish(SignedOut)
}

// publish delivers a transition to subscribers if it changes the
// last-published state.
func (tp *TokenProvider) publish(s State) {
	tp.mu.Lock()
	if tp.last == s {
		tp.mu.Unlock()
		return
	}
	tp.last = s
	subs := make([]chan State, len(tp.subs))
	copy(subs, tp.subs)
	tp.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- s:
		default:
			// Drop the stale value so the latest state always fits.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- s:
			default:
			}
		}
	}
}

// StartPolling runs the periodic check until ctx is done. State changes
// it observes go through the same publish channel as the event hooks.
func (tp *TokenProvider) StartPolling(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				tp.poll()
			}
		}
	}()
}

// poll compares provider state against the last published state.
func (tp *TokenProvider) poll() {
	tp.mu.Lock()
	provider := tp.provider
	tp.mu.Unlock()
	if provider == nil {
		return
	}
	if provider.SignedIn() {
		tp.publish(SignedIn)
	} else {
		tp.NotifySignOut()
	}
}
