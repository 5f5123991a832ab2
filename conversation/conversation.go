// Package conversation persists per-user dialogue state: the running message
// history plus the report and parameters accumulated so far. A Manager wraps
// a Store with per-user locking so concurrent turns from the same user are
// serialized.
package conversation

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	stderrors "errors"

	"github.com/sweetpotato0/reportflow/errors"
	"github.com/sweetpotato0/reportflow/message"
	"github.com/sweetpotato0/reportflow/pkg/logging"
	"github.com/sweetpotato0/reportflow/report"
)

// State is one user's conversation: history plus the pending request.
type State struct {
	UserID    string             `json:"user_id"`
	Report    report.ID          `json:"report"`
	Fields    report.Fields      `json:"fields"`
	Status    report.Status      `json:"status"`
	History   []*message.Message `json:"history"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// NewState returns a fresh state for a user.
func NewState(userID string) *State {
	return &State{UserID: userID, UpdatedAt: time.Now()}
}

// Clone deep-copies the state so callers can mutate freely.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	out := &State{
		UserID:    s.UserID,
		Report:    s.Report,
		Status:    s.Status,
		UpdatedAt: s.UpdatedAt,
		History:   message.CloneMessages(s.History),
	}
	if s.Fields != nil {
		out.Fields = s.Fields.Clone()
	}
	return out
}

// Append records one exchange on the history.
func (s *State) Append(userText, assistantText string) {
	s.History = append(s.History,
		message.New(message.RoleUser, userText),
		message.New(message.RoleAssistant, assistantText),
	)
	s.UpdatedAt = time.Now()
}

// ResetRequest clears the pending request but keeps the user. Switching
// reports also drops the history: parameters discussed for the old report
// must not leak into extraction for the new one.
func (s *State) ResetRequest() {
	s.Report = ""
	s.Fields = nil
	s.Status = 0
	s.History = nil
	s.UpdatedAt = time.Now()
}

// ErrSkipPersist can be returned by an Update callback to signal that the
// state was not modified; Update then succeeds without writing the store.
var ErrSkipPersist = stderrors.New("conversation: skip persist")

// Store is the persistence contract. Get returns errors.ErrNotFound for
// unknown users.
type Store interface {
	Get(ctx context.Context, userID string) (*State, error)
	Put(ctx context.Context, state *State) error
	Delete(ctx context.Context, userID string) error
	// Evict removes states idle since before cutoff and reports how many
	// were dropped. Stores with native TTL may return 0.
	Evict(ctx context.Context, cutoff time.Time) (int, error)
}

// Manager serializes access to a user's state.
type Manager struct {
	store Store
	locks [64]sync.Mutex
}

func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

// userLock returns the stripe serializing this user's turns. Striping keeps
// the lock table bounded no matter how many users a process ever sees;
// unrelated users occasionally sharing a stripe only costs a short wait.
func (m *Manager) userLock(userID string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(userID))
	return &m.locks[h.Sum32()%uint32(len(m.locks))]
}

// Update loads the user's state (fresh when absent), runs fn on it and
// persists the result. Turns for the same user run one at a time; different
// users proceed in parallel.
func (m *Manager) Update(ctx context.Context, userID string, fn func(*State) error) (*State, error) {
	l := m.userLock(userID)
	l.Lock()
	defer l.Unlock()

	state, err := m.store.Get(ctx, userID)
	switch {
	case err == nil:
	case stderrors.Is(err, errors.ErrNotFound):
		state = NewState(userID)
	default:
		return nil, fmt.Errorf("load conversation: %w", err)
	}

	if err := fn(state); err != nil {
		if stderrors.Is(err, ErrSkipPersist) {
			return state, nil
		}
		return nil, err
	}
	state.UpdatedAt = time.Now()
	if err := m.store.Put(ctx, state); err != nil {
		return nil, fmt.Errorf("save conversation: %w", err)
	}
	return state, nil
}

// Last returns the user's state without locking for mutation, or nil when
// none exists.
func (m *Manager) Last(ctx context.Context, userID string) (*State, error) {
	state, err := m.store.Get(ctx, userID)
	if stderrors.Is(err, errors.ErrNotFound) {
		return nil, nil
	}
	return state, err
}

// Delete drops a user's conversation.
func (m *Manager) Delete(ctx context.Context, userID string) error {
	l := m.userLock(userID)
	l.Lock()
	defer l.Unlock()
	return m.store.Delete(ctx, userID)
}

// EvictIdle drops conversations idle for longer than ttl.
func (m *Manager) EvictIdle(ctx context.Context, ttl time.Duration) (int, error) {
	n, err := m.store.Evict(ctx, time.Now().Add(-ttl))
	if err != nil {
		return n, err
	}
	if n > 0 {
		logging.WithComponent("conversation").Info("evicted idle conversations", "count", n)
	}
	return n, nil
}
