package store

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sweetpotato0/reportflow/conversation"
	"github.com/sweetpotato0/reportflow/errors"
)

// FileStore persists one JSON file per user under a directory. Writes go
// through a temp file and rename, so a crash never leaves a torn state on
// disk.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create conversation dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// path encodes the user ID so arbitrary IDs cannot escape the directory.
func (s *FileStore) path(userID string) string {
	name := base64.URLEncoding.EncodeToString([]byte(userID))
	return filepath.Join(s.dir, name+".json")
}

func (s *FileStore) Get(ctx context.Context, userID string) (*conversation.State, error) {
	data, err := os.ReadFile(s.path(userID))
	if os.IsNotExist(err) {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read conversation: %w", err)
	}
	var state conversation.State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decode conversation: %w", err)
	}
	return &state, nil
}

func (s *FileStore) Put(ctx context.Context, state *conversation.State) error {
	if state == nil || state.UserID == "" {
		return errors.ErrInvalidInput
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode conversation: %w", err)
	}

	target := s.path(state.UserID)
	tmp, err := os.CreateTemp(s.dir, ".conv-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write conversation: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace conversation: %w", err)
	}
	return nil
}

func (s *FileStore) Delete(ctx context.Context, userID string) error {
	err := os.Remove(s.path(userID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete conversation: %w", err)
	}
	return nil
}

func (s *FileStore) Evict(ctx context.Context, cutoff time.Time) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("list conversations: %w", err)
	}
	var n int
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(s.dir, entry.Name())); err == nil {
				n++
			}
		}
	}
	return n, nil
}
