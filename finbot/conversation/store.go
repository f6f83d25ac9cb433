package conversation

import (
	"context"
	"errors"
	"sync"
)

// ErrUnavailable wraps backend failures so callers can degrade gracefully.
var ErrUnavailable = errors.New("conversation store unavailable")

// Store maps a user id to its conversation state.
//
// Get returns an idle state for unknown users. Update runs fn with the current
// state and persists the result while holding a per-user lock, so concurrent
// events from one user are applied one at a time. Different users never block
// each other.
type Store interface {
	Get(ctx context.Context, userID string) (State, error)
	Set(ctx context.Context, userID string, st State) error
	Clear(ctx context.Context, userID string) error
	Update(ctx context.Context, userID string, fn func(State) State) (State, error)
}

// keyedLock hands out one mutex per user id and drops it when no caller holds it.
type keyedLock struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedLock() *keyedLock {
	return &keyedLock{locks: make(map[string]*refMutex)}
}

func (k *keyedLock) lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

func (k *keyedLock) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
