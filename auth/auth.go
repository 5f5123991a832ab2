// Package auth resolves API keys to user identities before a turn is
// processed.
package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"github.com/sweetpotato0/reportflow/errors"
)

// Service authorizes an API key and returns the user ID it belongs to.
type Service interface {
	Authorize(ctx context.Context, apiKey string) (string, error)
}

// HashKey returns the hex SHA-256 of a key; only hashes are ever stored.
func HashKey(apiKey string) string {
	sum := sha256.Sum256([]byte(apiKey))
	return hex.EncodeToString(sum[:])
}

// Static authorizes against a fixed key-to-user map. Useful for tests and
// single-tenant setups.
type Static struct {
	mu   sync.RWMutex
	keys map[string]string // key hash -> user ID
}

func NewStatic() *Static {
	return &Static{keys: make(map[string]string)}
}

// Add registers a key for a user.
func (s *Static) Add(apiKey, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[HashKey(apiKey)] = userID
}

func (s *Static) Authorize(ctx context.Context, apiKey string) (string, error) {
	if apiKey == "" {
		return "", errors.ErrUnauthorized
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	userID, ok := s.keys[HashKey(apiKey)]
	if !ok {
		return "", errors.ErrUnauthorized
	}
	return userID, nil
}
