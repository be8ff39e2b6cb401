package core

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session is the state of one browser session: an optional user label, the
// loaded datasets and a scratch directory for their file copies.
//
// Service methods lock the session for the whole operation, so one session
// handles one interaction at a time. Sessions never share registries.
type Session struct {
	ID string

	mu       sync.Mutex
	user     string
	registry *Registry
	dir      string
	lastSeen time.Time
}

// User returns the logged-in label, or "" when logged out.
func (s *Session) User() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// LoggedIn reports whether a user label is set.
func (s *Session) LoggedIn() bool {
	return s.User() != ""
}

// Dir returns the session's scratch directory.
func (s *Session) Dir() string {
	return s.dir
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// reset clears identity and registry and recreates the scratch directory.
// The caller holds s.mu.
func (s *Session) reset() error {
	s.user = ""
	s.registry.Clear()
	if err := os.RemoveAll(s.dir); err != nil {
		return fmt.Errorf("remove scratch dir: %w", err)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create scratch dir: %w", err)
	}
	return nil
}

// SessionStore holds every live session, keyed by id.
type SessionStore struct {
	root string
	now  func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionStore creates a store whose scratch directories live under root.
func NewSessionStore(root string) *SessionStore {
	return &SessionStore{
		root:     root,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Create starts a new session with a fresh id and scratch directory.
func (st *SessionStore) Create() (*Session, error) {
	id := uuid.NewString()
	dir := filepath.Join(st.root, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}

	sess := &Session{
		ID:       id,
		registry: NewRegistry(),
		dir:      dir,
		lastSeen: st.now(),
	}

	st.mu.Lock()
	st.sessions[id] = sess
	st.mu.Unlock()

	slog.Debug("session created", "session_id", id)
	return sess, nil
}

// Get returns the session for id and marks it as recently used.
func (st *SessionStore) Get(id string) (*Session, bool) {
	st.mu.RLock()
	sess, ok := st.sessions[id]
	st.mu.RUnlock()

	if ok {
		sess.touch(st.now())
	}
	return sess, ok
}

// GetOrCreate returns the session for id, creating a new one when id is
// unknown. created reports which happened.
func (st *SessionStore) GetOrCreate(id string) (sess *Session, created bool, err error) {
	if id != "" {
		if sess, ok := st.Get(id); ok {
			return sess, false, nil
		}
	}
	sess, err = st.Create()
	return sess, err == nil, err
}

// Delete ends a session and removes its scratch directory.
func (st *SessionStore) Delete(id string) error {
	st.mu.Lock()
	sess, ok := st.sessions[id]
	delete(st.sessions, id)
	st.mu.Unlock()

	if !ok {
		return nil
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.registry.Clear()
	if err := os.RemoveAll(sess.dir); err != nil {
		return fmt.Errorf("remove scratch dir: %w", err)
	}
	return nil
}

// EvictIdle deletes sessions unused for longer than maxIdle and returns how
// many were removed.
func (st *SessionStore) EvictIdle(maxIdle time.Duration) int {
	cutoff := st.now().Add(-maxIdle)

	st.mu.RLock()
	var stale []string
	for id, sess := range st.sessions {
		if sess.idleSince().Before(cutoff) {
			stale = append(stale, id)
		}
	}
	st.mu.RUnlock()

	evicted := 0
	for _, id := range stale {
		if err := st.Delete(id); err != nil {
			slog.Warn("evict session", "session_id", id, "error", err)
			continue
		}
		evicted++
	}
	return evicted
}

// Len returns the number of live sessions.
func (st *SessionStore) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
