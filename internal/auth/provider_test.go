// Copyright (c) 2025-2026 Lumen Learning Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeProvider is a scriptable session module.
type fakeProvider struct {
	token    string
	err      error
	signedIn bool
	mints    int
}

func (f *fakeProvider) MintToken(ctx context.Context) (string, error) {
	f.mints++
	return f.token, f.err
}

func (f *fakeProvider) SignedIn() bool { return f.signedIn }

func TestGetTokenCachesMint(t *testing.T) {
	fp := &fakeProvider{token: "tok-1", signedIn: true}
	tp := NewTokenProvider(fp)

	require.Equal(t, "tok-1", tp.GetToken(context.Background()))
	require.Equal(t, "tok-1", tp.GetToken(context.Background()))
	require.Equal(t, 1, fp.mints, "second call must hit the cache")
}

func TestGetTokenSwallowsMintFailure(t *testing.T) {
	fp := &fakeProvider{err: errors.New("boom")}
	tp := NewTokenProvider(fp)

	require.Equal(t, "", tp.GetToken(context.Background()))

	// The failure is not cached; the next call tries again.
	fp.err = nil
	fp.token = "tok-2"
	require.Equal(t, "tok-2", tp.GetToken(context.Background()))
}

func TestInvalidateForcesRemint(t *testing.T) {
	fp := &fakeProvider{token: "tok-1", signedIn: true}
	tp := NewTokenProvider(fp)

	tp.GetToken(context.Background())
	tp.Invalidate()
	fp.token = "tok-2"

	require.Equal(t, "tok-2", tp.GetToken(context.Background()))
	require.Equal(t, 2, fp.mints)
}

func TestNilProviderDegradesToEmpty(t *testing.T) {
	tp := NewTokenProvider(nil)
	require.Equal(t, "", tp.GetToken(context.Background()))
}

func TestSubscribeSeesTransitions(t *testing.T) {
	fp := &fakeProvider{signedIn: false}
	tp := NewTokenProvider(fp)
	ch := tp.Subscribe()

	tp.NotifySignIn()
	select {
	case s := <-ch:
		require.Equal(t, SignedIn, s)
	case <-time.After(time.Second):
		t.Fatal("no sign-in notification")
	}

	tp.NotifySignOut()
	select {
	case s := <-ch:
		require.Equal(t, SignedOut, s)
	case <-time.After(time.Second):
		t.Fatal("no sign-out notification")
	}
}

func TestPublishDeduplicatesState(t *testing.T) {
	fp := &fakeProvider{signedIn: false}
	tp := NewTokenProvider(fp)
	ch := tp.Subscribe()

	tp.NotifySignIn()
	<-ch
	tp.NotifySignIn() // same state again

	select {
	case s := <-ch:
		t.Fatalf("unexpected duplicate notification: %v", s)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSlowSubscriberSeesLatestState(t *testing.T) {
	fp := &fakeProvider{signedIn: false}
	tp := NewTokenProvider(fp)
	ch := tp.Subscribe()

	// Nobody reads between these; the stale value is dropped.
	tp.NotifySignIn()
	tp.NotifySignOut()

	select {
	case s := <-ch:
		require.Equal(t, SignedOut, s)
	case <-time.After(time.Second):
		t.Fatal("no notification")
	}
}

func TestNotifySignOutDropsToken(t *testing.T) {
	fp := &fakeProvider{token: "tok-1", signedIn: true}
	tp := NewTokenProvider(fp)
	tp.GetToken(context.Background())

	tp.NotifySignOut()
	fp.token = "tok-2"
	require.Equal(t, "tok-2", tp.GetToken(context.Background()))
}

func TestStaticProvider(t *testing.T) {
	p := &StaticProvider{Token: "fixed"}
	tok, err := p.MintToken(context.Background())
	require.NoError(t, err)
	require.Equal(t, "fixed", tok)
	require.True(t, p.SignedIn())

	empty := &StaticProvider{}
	require.False(t, empty.SignedIn())
}
