package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// SessionStore persists the current session between runs.
// Load returns nil, nil when nothing is stored.
type SessionStore interface {
	Load() (*Session, error)
	Save(s *Session) error
	Clear() error
}

type MemoryStore struct {
	mu sync.Mutex
	s  *Session
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (m *MemoryStore) Load() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.s == nil {
		return nil, nil
	}
	cp := *m.s
	return &cp, nil
}

func (m *MemoryStore) Save(s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.s = &cp
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	m.s = nil
	m.mu.Unlock()
	return nil
}

// FileStore keeps the session as JSON in a single user-only file.
type FileStore struct {
	Path string
}

func NewFileStore(path string) *FileStore { return &FileStore{Path: path} }

// DefaultSessionPath is <user config dir>/go-task-manager/session.json.
func DefaultSessionPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "go-task-manager", "session.json"), nil
}

func (f *FileStore) Load() (*Session, error) {
	b, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	var s Session
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", f.Path, err)
	}
	if s.AccessToken == "" {
		return nil, nil
	}
	return &s, nil
}

func (f *FileStore) Save(s *Session) error {
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	tmp := f.Path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return os.Rename(tmp, f.Path)
}

func (f *FileStore) Clear() error {
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}
