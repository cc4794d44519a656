package store

import (
	"sync"
	"time"

	"ai-legal-engine/pkg/rag/conversation"
)

// Mode selects which knowledge source answers a session's messages.
type Mode string

const (
	ModeGeneral  Mode = "GENERAL"  // fixed corpus, routed between specialized strategies
	ModeDocument Mode = "DOCUMENT" // uploaded document
)

// Session is the per-conversation state kept in memory for the process lifetime.
// Mode and Log must only be touched while holding the session lock.
type Session struct {
	ID        string
	Mode      Mode
	Log       *conversation.Log
	CreatedAt time.Time

	mu sync.Mutex
}

func NewSession(id string) *Session {
	return &Session{
		ID:        id,
		Mode:      ModeGeneral,
		Log:       conversation.NewLog(),
		CreatedAt: time.Now(),
	}
}

func (s *Session) Lock() {
	s.mu.Lock()
}

func (s *Session) Unlock() {
	s.mu.Unlock()
}
