// Package store provides the conversation.Store backends: in-memory for
// tests and single-node setups, JSON files for durability without
// infrastructure, Redis and MongoDB for shared deployments.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/sweetpotato0/reportflow/conversation"
	"github.com/sweetpotato0/reportflow/errors"
)

// InMemoryStore keeps states in a map. All operations clone, so callers
// never share memory with the store.
type InMemoryStore struct {
	mu     sync.RWMutex
	states map[string]*conversation.State
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{states: make(map[string]*conversation.State)}
}

func (s *InMemoryStore) Get(ctx context.Context, userID string) (*conversation.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.states[userID]
	if !ok {
		return nil, errors.ErrNotFound
	}
	return state.Clone(), nil
}

func (s *InMemoryStore) Put(ctx context.Context, state *conversation.State) error {
	if state == nil || state.UserID == "" {
		return errors.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[state.UserID] = state.Clone()
	return nil
}

func (s *InMemoryStore) Delete(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, userID)
	return nil
}

func (s *InMemoryStore) Evict(ctx context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int
	for id, state := range s.states {
		if state.UpdatedAt.Before(cutoff) {
			delete(s.states, id)
			n++
		}
	}
	return n, nil
}
