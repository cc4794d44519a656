package session

import (
	"errors"
	"strings"

	"ai-legal-engine/internal/repository/memory"
	"ai-legal-engine/pkg/store"

	"github.com/google/uuid"
)

// ErrNotFound is returned for operations on an unknown session.
var ErrNotFound = errors.New("session not found")

// Manager hands out per-session state. Each session carries its own lock so
// concurrent requests for different sessions never contend.
type Manager struct {
	sessionRepo *memory.SessionRepository
}

func NewManager(sessionRepo *memory.SessionRepository) *Manager {
	return &Manager{sessionRepo: sessionRepo}
}

// LoadOrCreate returns the session for id, creating it in GENERAL mode when
// unknown. A blank id starts a fresh session with a generated id.
func (m *Manager) LoadOrCreate(sessionID string) *store.Session {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	return m.sessionRepo.GetOrCreate(sessionID)
}

// Find returns an existing session without creating one.
func (m *Manager) Find(sessionID string) (*store.Session, bool) {
	return m.sessionRepo.Get(strings.TrimSpace(sessionID))
}

// SetMode switches the session's mode under its lock.
func (m *Manager) SetMode(s *store.Session, mode store.Mode) {
	s.Lock()
	s.Mode = mode
	s.Unlock()
}

// Reset clears the conversation and returns the session to GENERAL mode.
func (m *Manager) Reset(sessionID string) bool {
	s, ok := m.Find(sessionID)
	if !ok {
		return false
	}
	s.Lock()
	s.Log.Reset()
	s.Mode = store.ModeGeneral
	s.Unlock()
	return true
}
