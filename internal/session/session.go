package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Environment variables that override the stored session.
const (
	EnvSessionID = "RAFCDN_SESSION_ID"
	EnvUsername  = "RAFCDN_USERNAME"
)

// ErrNoSession is returned when no usable session is available.
var ErrNoSession = errors.New("no session: run 'rafcdn session set' first")

// Session is the authentication context issued by the login flow.
type Session struct {
	ID       string `json:"session_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Valid reports whether the session carries an id and a role.
func (s Session) Valid() bool {
	return strings.TrimSpace(s.ID) != "" && strings.TrimSpace(s.Role) != ""
}

// Store reads and writes the session file.
type Store struct {
	path   string
	getenv func(string) string
}

// NewStore builds a Store rooted at the provided path.
func NewStore(path string) *Store {
	return &Store{path: path, getenv: os.Getenv}
}

// Path returns the session file location.
func (s *Store) Path() string {
	return s.path
}

// Read returns the stored session with environment overrides applied.
// A missing file resolves to an empty session.
func (s *Store) Read() (Session, error) {
	var sess Session
	data, err := os.ReadFile(s.path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &sess); err != nil {
			return Session{}, fmt.Errorf("decode session: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return Session{}, fmt.Errorf("read session: %w", err)
	}

	if id := strings.TrimSpace(s.getenv(EnvSessionID)); id != "" {
		sess.ID = id
		if sess.Role == "" {
			sess.Role = "user"
		}
	}
	if name := strings.TrimSpace(s.getenv(EnvUsername)); name != "" {
		sess.Username = name
	}
	return sess, nil
}

// Load returns the active session or ErrNoSession when the id or role is missing.
func (s *Store) Load() (Session, error) {
	sess, err := s.Read()
	if err != nil {
		return Session{}, err
	}
	if !sess.Valid() {
		return Session{}, ErrNoSession
	}
	return sess, nil
}

// Save persists the session with restricted permissions.
func (s *Store) Save(sess Session) error {
	if !sess.Valid() {
		return errors.New("session id and role are required")
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("ensure session directory: %w", err)
	}

	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// Clear removes the session file. A missing file is not an error.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}
