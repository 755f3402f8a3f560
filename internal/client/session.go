package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrNoSession is returned when no session has been saved.
var ErrNoSession = errors.New("not logged in")

// Session is what login leaves behind for later commands.
type Session struct {
	Server   string `json:"server"`
	Username string `json:"username"`
	Token    string `json:"token"`
}

// SessionStore keeps a Session in a file guarded by a sibling .lock file, so
// concurrent CLI invocations never see a half-written session.
type SessionStore struct {
	path string
	lock *flock.Flock
}

// NewSessionStore creates a store at path.
func NewSessionStore(path string) *SessionStore {
	return &SessionStore{path: path, lock: flock.New(path + ".lock")}
}

// Path returns the session file location.
func (s *SessionStore) Path() string {
	return s.path
}

// Save writes the session under an exclusive lock.
func (s *SessionStore) Save(sess Session) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("lock session: %w", err)
	}
	defer func() { _ = s.lock.Unlock() }()

	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	tmp := s.path + ".tmp"
	if err = os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	if err = os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace session: %w", err)
	}
	return nil
}

// Load reads the session under a shared lock.
func (s *SessionStore) Load() (Session, error) {
	var sess Session
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return sess, fmt.Errorf("create session dir: %w", err)
	}
	if err := s.lock.RLock(); err != nil {
		return sess, fmt.Errorf("lock session: %w", err)
	}
	defer func() { _ = s.lock.Unlock() }()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return sess, ErrNoSession
		}
		return sess, fmt.Errorf("read session: %w", err)
	}
	if err = json.Unmarshal(data, &sess); err != nil {
		return sess, fmt.Errorf("decode session: %w", err)
	}
	if sess.Token == "" {
		return sess, ErrNoSession
	}
	return sess, nil
}

// Clear removes the saved session.
func (s *SessionStore) Clear() error {
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("lock session: %w", err)
	}
	defer func() { _ = s.lock.Unlock() }()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}
