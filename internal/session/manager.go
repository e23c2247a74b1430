package session

import (
	"sync"

	"github.com/felixgeelhaar/mars-auth/internal/auth"
	apperrors "github.com/felixgeelhaar/mars-auth/internal/errors"
	"github.com/felixgeelhaar/mars-auth/internal/log"
)

// Manager owns the current session. All reads return copies.
type Manager struct {
	store  *Store
	logger *log.Logger

	mu      sync.RWMutex
	current *auth.Session
}

func NewManager(store *Store, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.DefaultLogger()
	}
	return &Manager{store: store, logger: logger}
}

// Store returns the backing record store.
func (m *Manager) Store() *Store {
	return m.store
}

// Current returns the current session or nil.
func (m *Manager) Current() *auth.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.Clone()
}

// Set persists sess and makes it current. On failure the current session
// is left unchanged.
func (m *Manager) Set(sess *auth.Session) error {
	if err := m.store.Save(sess); err != nil {
		return err
	}
	m.mu.Lock()
	m.current = sess.Clone()
	m.mu.Unlock()

	m.logger.Debug("session persisted", "uid", sess.UID, "method", string(sess.AuthMethod))
	return nil
}

// Clear forgets the current session and removes the record. The in-memory
// session is dropped even when removal fails.
func (m *Manager) Clear() error {
	m.mu.Lock()
	m.current = nil
	m.mu.Unlock()

	if err := m.store.Clear(); err != nil {
		return err
	}
	m.logger.Debug("session cleared")
	return nil
}

// Adopt replaces the in-memory session without touching storage. Used when
// the record changed outside this process.
func (m *Manager) Adopt(sess *auth.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = sess.Clone()
}

// Restore loads the persisted record into memory. A corrupt record is
// removed and reported; the manager then holds no session.
func (m *Manager) Restore() (*auth.Session, error) {
	sess, err := m.store.Load()
	if err != nil {
		if apperrors.HasCode(err, apperrors.ErrCodeSessionCorrupt) {
			m.logger.WithError(err).Warn("discarding corrupt session record")
			_ = m.store.Clear()
		}
		m.Adopt(nil)
		return nil, err
	}
	m.Adopt(sess)
	return sess.Clone(), nil
}
