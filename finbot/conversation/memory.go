package conversation

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/finbot/core/logger"
	"github.com/m3rciful/finbot/core/metrics"
)

// MemoryStore keeps conversation states in process memory. It never returns errors.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string]State
	locks  *keyedLock
	ttl    time.Duration
	now    func() time.Time
}

// MemoryOption customises a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithTTL evicts states that have not been written for ttl. Zero keeps them forever.
func WithTTL(ttl time.Duration) MemoryOption {
	return func(s *MemoryStore) { s.ttl = ttl }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) { s.now = now }
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		states: make(map[string]State),
		locks:  newKeyedLock(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the stored state or an idle state.
func (s *MemoryStore) Get(_ context.Context, userID string) (State, error) {
	return s.load(userID), nil
}

// Set stores st under the user's lock; an idle state removes the entry.
func (s *MemoryStore) Set(_ context.Context, userID string, st State) error {
	unlock := s.locks.lock(userID)
	defer unlock()

	s.store(userID, st)
	return nil
}

// Clear removes any state kept for userID. It waits for an Update in flight.
func (s *MemoryStore) Clear(_ context.Context, userID string) error {
	unlock := s.locks.lock(userID)
	defer unlock()

	s.mu.Lock()
	delete(s.states, userID)
	n := len(s.states)
	s.mu.Unlock()
	metrics.Conversations.Set(float64(n))
	return nil
}

// Update applies fn under the user's lock and stores the result.
func (s *MemoryStore) Update(_ context.Context, userID string, fn func(State) State) (State, error) {
	unlock := s.locks.lock(userID)
	defer unlock()

	next := fn(s.load(userID)).Normalize()
	return s.store(userID, next), nil
}

// Len returns the number of non-idle conversations held.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.states)
}

func (s *MemoryStore) load(userID string) State {
	s.mu.RLock()
	st, ok := s.states[userID]
	s.mu.RUnlock()
	if !ok || s.expired(st) {
		return Idle()
	}
	return st
}

func (s *MemoryStore) store(userID string, st State) State {
	st = st.Normalize()
	st.UpdatedAt = s.now()
	s.mu.Lock()
	if st.IsIdle() {
		delete(s.states, userID)
	} else {
		s.states[userID] = st
	}
	n := len(s.states)
	s.mu.Unlock()
	metrics.Conversations.Set(float64(n))
	return st
}

func (s *MemoryStore) expired(st State) bool {
	return s.ttl > 0 && s.now().Sub(st.UpdatedAt) > s.ttl
}

// Sweep drops expired states and returns how many were removed.
func (s *MemoryStore) Sweep() int {
	if s.ttl <= 0 {
		return 0
	}
	s.mu.Lock()
	removed := 0
	for id, st := range s.states {
		if s.expired(st) {
			delete(s.states, id)
			removed++
		}
	}
	n := len(s.states)
	s.mu.Unlock()
	metrics.Conversations.Set(float64(n))
	return removed
}

// RunSweeper calls Sweep every interval until ctx is done.
func (s *MemoryStore) RunSweeper(ctx context.Context, interval time.Duration) {
	if s.ttl <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := s.Sweep(); removed > 0 {
				logger.STORE.Debug("expired conversations evicted",
					slog.String("event", "conversation.sweep"),
					slog.Int("count", removed),
					slog.Int("remaining", s.Len()),
				)
			}
		}
	}
}
