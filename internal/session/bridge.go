// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session holds the HTTP session manager and the bridge that
// mediates between the identity provider and the rest of the app.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/traceofthetides/tides-go/internal/identity"
	"github.com/traceofthetides/tides-go/internal/model"
)

// Bridge states.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateLoading       State = "loading"
	StateSignedOut     State = "signed_out"
	StateSignedIn      State = "signed_in"
)

// Snapshot is the bridge's view of the current session at one point
// in time. Profile may be nil while loading or after a fetch failure.
type Snapshot struct {
	State   State
	UID     string
	Profile *model.User
}

// IsAdmin reports whether the session belongs to an administrator.
func (s Snapshot) IsAdmin() bool {
	return s.Profile != nil && s.Profile.IsAdmin()
}

// IsAuthor reports whether the session holds author privileges.
// Admins hold them implicitly.
func (s Snapshot) IsAuthor() bool {
	return s.Profile != nil && s.Profile.IsAuthor()
}

// IsApprovedAuthor reports whether the session may submit content.
func (s Snapshot) IsApprovedAuthor() bool {
	return s.Profile != nil && s.Profile.IsApprovedAuthor()
}

// Identity is the provider surface the bridge needs.
type Identity interface {
	Observe(cb func(identity.Event)) func()
	Profile(ctx context.Context, uid string) (*model.User, error)
}

const defaultFetchTimeout = 5 * time.Second

// Bridge observes the identity provider's session stream and keeps a
// single shared snapshot. Profile fetches run asynchronously and are
// tagged with a generation counter: a fetch that loses the race with
// a later sign-out or sign-in is discarded, so a stale profile can
// never repopulate a signed-out session.
type Bridge struct {
	id      Identity
	timeout time.Duration

	mu      sync.Mutex
	snap    Snapshot
	gen     uint64
	subs    map[int]chan Snapshot
	nextSub int
	release func()

	wg sync.WaitGroup
}

// NewBridge subscribes to the provider's session stream. The single
// registration is released by Close.
func NewBridge(id Identity) *Bridge {
	b := &Bridge{
		id:      id,
		timeout: defaultFetchTimeout,
		snap:    Snapshot{State: StateUninitialized},
		subs:    make(map[int]chan Snapshot),
	}
	b.release = id.Observe(b.onEvent)
	return b
}

// Snapshot returns the current session view.
func (b *Bridge) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snap
}

// Subscribe returns a channel receiving every snapshot change, primed
// with the current one, and a release function. Slow receivers drop
// intermediate snapshots rather than block the bridge.
func (b *Bridge) Subscribe() (<-chan Snapshot, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Snapshot, 8)
	ch <- b.snap
	id := b.nextSub
	b.nextSub++
	b.subs[id] = ch

	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(ch)
		}
	}
}

// Close releases the observer registration, waits for any in-flight
// profile fetch and closes subscriber channels.
func (b *Bridge) Close() {
	b.release()
	b.wg.Wait()

	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}

func (b *Bridge) onEvent(ev identity.Event) {
	b.mu.Lock()

	// Sign-out clears the session synchronously. Bumping the
	// generation invalidates any fetch still in flight.
	if ev.User == nil {
		b.gen++
		b.snap = Snapshot{State: StateSignedOut}
		b.broadcastLocked()
		b.mu.Unlock()
		return
	}

	b.gen++
	gen := b.gen
	b.snap = Snapshot{State: StateLoading, UID: ev.UID}
	b.broadcastLocked()
	b.mu.Unlock()

	b.wg.Add(1)
	go b.fetchProfile(gen, ev.UID)
}

func (b *Bridge) fetchProfile(gen uint64, uid string) {
	defer b.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()

	profile, err := b.id.Profile(ctx, uid)

	b.mu.Lock()
	defer b.mu.Unlock()
	if gen != b.gen {
		// The session changed while we were fetching
		slog.Debug("discarding stale profile fetch", "uid", uid)
		return
	}
	if err != nil {
		// Signed in with partial data; role-gated surfaces see no roles
		slog.Error("profile fetch failed", "error", err, "uid", uid)
		b.snap = Snapshot{State: StateSignedIn, UID: uid}
	} else {
		b.snap = Snapshot{State: StateSignedIn, UID: uid, Profile: profile}
	}
	b.broadcastLocked()
}

func (b *Bridge) broadcastLocked() {
	for _, ch := range b.subs {
		select {
		case ch <- b.snap:
		default:
		}
	}
}
