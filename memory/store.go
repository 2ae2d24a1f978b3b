// Package memory keeps in-flight conversations in process memory.
package memory

import (
	"sync"
	"time"

	"github.com/benjamonnguyen/daybook"
)

// Store is a daybook.MemoryStore backed by a map. Conversations idle for
// longer than the TTL read back empty and are dropped on the next write.
// Everything is lost on restart.
type Store struct {
	mu     sync.Mutex
	states map[string]daybook.ConversationState
	ttl    time.Duration
	now    func() time.Time
}

var _ daybook.MemoryStore = (*Store)(nil)

// New returns a Store. A ttl <= 0 keeps conversations until cleared.
func New(ttl time.Duration) *Store {
	return &Store{
		states: make(map[string]daybook.ConversationState),
		ttl:    ttl,
		now:    time.Now,
	}
}

// WithClock replaces time.Now and returns s.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) Get(userID string) daybook.ConversationState {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.states[userID]
	if !ok || s.expired(state) {
		return daybook.ConversationState{}
	}
	return state
}

func (s *Store) Merge(userID string, patch daybook.StatePatch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.states[userID]
	if s.expired(state) {
		state = daybook.ConversationState{}
	}
	if patch.Intent != "" {
		state.Intent = patch.Intent
	}
	state.Fields.Merge(patch.Fields)
	if patch.Awaiting != nil {
		state.Awaiting = *patch.Awaiting
	}
	state.UpdatedAt = s.now()
	s.states[userID] = state

	s.evictLocked()
}

func (s *Store) Clear(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, userID)
}

// Len returns the number of live conversations.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictLocked()
	return len(s.states)
}

func (s *Store) expired(state daybook.ConversationState) bool {
	return s.ttl > 0 && !state.UpdatedAt.IsZero() && s.now().Sub(state.UpdatedAt) > s.ttl
}

func (s *Store) evictLocked() {
	for id, state := range s.states {
		if s.expired(state) {
			delete(s.states, id)
		}
	}
}
