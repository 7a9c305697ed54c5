package session

import (
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/varbridge/backend/internal/models"
)

// MaxSessions limits concurrently connected plugin sessions.
const MaxSessions = 32

// ErrTooManySessions is returned by Register when MaxSessions is reached.
var ErrTooManySessions = errors.New("too many active plugin sessions")

// Manager tracks connected plugin sessions so idle ones can be closed.
type Manager struct {
	sessions map[string]*state
	mu       sync.RWMutex
	logger   *slog.Logger
	now      func() time.Time
}

type state struct {
	info   models.SessionInfo
	closer io.Closer
}

// NewManager creates a new session manager.
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		sessions: make(map[string]*state),
		logger:   logger,
		now:      time.Now,
	}
}

// Register adds a session for documentID. closer is called when the session
// is evicted by CleanupIdle or Close.
func (m *Manager) Register(documentID string, closer io.Closer) (models.SessionInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.sessions) >= MaxSessions {
		return models.SessionInfo{}, ErrTooManySessions
	}

	now := m.now()
	info := models.SessionInfo{
		ID:           uuid.New().String(),
		DocumentID:   documentID,
		StartedAt:    now,
		LastAccessed: now,
	}
	m.sessions[info.ID] = &state{info: info, closer: closer}
	m.logger.Info("plugin session started", "session", info.ID, "document", documentID)
	return info, nil
}

// Touch records activity on a session.
func (m *Manager) Touch(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.sessions[id]
	if !ok {
		return false
	}
	st.info.LastAccessed = m.now()
	st.info.Messages++
	return true
}

// Get returns a session by ID.
func (m *Manager) Get(id string) (models.SessionInfo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st, ok := m.sessions[id]
	if !ok {
		return models.SessionInfo{}, false
	}
	return st.info, true
}

// List returns all sessions, oldest first.
func (m *Manager) List() []models.SessionInfo {
	m.mu.RLock()
	out := make([]models.SessionInfo, 0, len(m.sessions))
	for _, st := range m.sessions {
		out = append(out, st.info)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	return out
}

// Remove forgets a session without closing it. Used by the connection that
// owns the session when it ends on its own.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; ok {
		delete(m.sessions, id)
		m.logger.Info("plugin session ended", "session", id)
	}
}

// Close closes and removes a session.
func (m *Manager) Close(id string) bool {
	m.mu.Lock()
	st, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	if !ok {
		return false
	}
	m.closeState(st)
	return true
}

// CleanupIdle closes sessions without activity for longer than maxIdle and
// returns how many were closed.
func (m *Manager) CleanupIdle(maxIdle time.Duration) int {
	cutoff := m.now().Add(-maxIdle)

	m.mu.Lock()
	var idle []*state
	for id, st := range m.sessions {
		if st.info.LastAccessed.Before(cutoff) {
			idle = append(idle, st)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, st := range idle {
		m.logger.Info("closing idle plugin session", "session", st.info.ID,
			"idle", m.now().Sub(st.info.LastAccessed).Round(time.Second))
		m.closeState(st)
	}
	return len(idle)
}

// CloseAll closes every session.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	all := m.sessions
	m.sessions = make(map[string]*state)
	m.mu.Unlock()

	for _, st := range all {
		m.closeState(st)
	}
}

func (m *Manager) closeState(st *state) {
	if st.closer == nil {
		return
	}
	if err := st.closer.Close(); err != nil {
		m.logger.Warn("failed to close plugin session", "session", st.info.ID, "error", err)
	}
}
