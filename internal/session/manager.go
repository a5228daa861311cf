// Package session scopes health records to one browser session. A Session is
// created on the first request without a valid cookie and ends when the
// Manager evicts it (least recently used) or End is called.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"healthgenie.io/assistant/internal/logging"
	"healthgenie.io/assistant/internal/metrics"
	"healthgenie.io/assistant/internal/store"
)

// Session is the context object handed to every handler of one session.
// Handlers run with the session locked, so at most one user action is in
// progress per session.
type Session struct {
	ID        string
	CreatedAt time.Time
	Store     store.Store

	mu    sync.Mutex
	ended bool   // guarded by mu
	flash string // guarded by mu
}

func (s *Session) Lock()   { s.mu.Lock() }
func (s *Session) Unlock() { s.mu.Unlock() }

// Ended reports whether the session's records have been dropped. The caller
// must hold the lock.
func (s *Session) Ended() bool { return s.ended }

// SetFlash stores a one-time notice for the next page render. The caller
// must hold the lock.
func (s *Session) SetFlash(msg string) { s.flash = msg }

// TakeFlash returns and clears the pending notice. The caller must hold the
// lock.
func (s *Session) TakeFlash() string {
	msg := s.flash
	s.flash = ""
	return msg
}

type Manager struct {
	backend store.Backend
	metrics *metrics.Metrics

	mu       sync.Mutex // serialises lookup-or-create
	sessions *lru.Cache[string, *Session]
	drops    sync.WaitGroup
}

// NewManager keeps at most size sessions; the least recently used one is
// ended when a new session would exceed that.
func NewManager(backend store.Backend, size int, m *metrics.Metrics) (*Manager, error) {
	mgr := &Manager{backend: backend, metrics: m}
	cache, err := lru.NewWithEvict[string, *Session](size, mgr.onEvict)
	if err != nil {
		return nil, fmt.Errorf("create session cache: %w", err)
	}
	mgr.sessions = cache
	return mgr, nil
}

// onEvict runs with m.mu held, so the drop waits for the session's lock in
// the background: a request still running on the session finishes its
// writes first and they are dropped with the rest.
func (m *Manager) onEvict(id string, sess *Session) {
	m.metrics.SessionEnded()
	m.drops.Add(1)
	go func() {
		defer m.drops.Done()
		sess.Lock()
		defer sess.Unlock()
		sess.ended = true
		if err := m.backend.Drop(id); err != nil {
			logging.Logger.Warn("Failed to drop session state", zap.String("session_id", id), zap.Error(err))
		}
		logging.Logger.Info("Session ended", zap.String("session_id", id))
	}()
}

// Get returns a live session.
func (m *Manager) Get(id string) (*Session, bool) {
	return m.sessions.Get(id)
}

// Start creates a session with a fresh id.
func (m *Manager) Start() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.startLocked()
}

// Resume returns the session for id, or starts a new one (with a new id) when
// id is empty or no longer live. started reports which happened.
func (m *Manager) Resume(id string) (sess *Session, started bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id != "" {
		if sess, ok := m.sessions.Get(id); ok {
			return sess, false, nil
		}
	}
	sess, err = m.startLocked()
	if err != nil {
		return nil, false, err
	}
	return sess, true, nil
}

// Acquire resumes (or starts) the session for id and returns it locked. A
// session that ended between lookup and locking is skipped and a new one
// started in its place.
func (m *Manager) Acquire(id string) (sess *Session, started bool, err error) {
	for {
		s, fresh, err := m.Resume(id)
		if err != nil {
			return nil, false, err
		}
		started = started || fresh
		s.Lock()
		if !s.ended {
			return s, started, nil
		}
		s.Unlock()
		id = ""
	}
}

func (m *Manager) startLocked() (*Session, error) {
	id := uuid.NewString()
	st, err := m.backend.Open(id)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	sess := &Session{ID: id, CreatedAt: time.Now(), Store: st}
	m.sessions.Add(id, sess)
	m.metrics.SessionStarted()
	logging.Logger.Info("Session started", zap.String("session_id", id))
	return sess, nil
}

// End discards a session and its records.
func (m *Manager) End(id string) {
	m.sessions.Remove(id)
}

func (m *Manager) Len() int {
	return m.sessions.Len()
}

// Close ends every session and waits until their records are dropped.
func (m *Manager) Close() {
	m.sessions.Purge()
	m.drops.Wait()
}
