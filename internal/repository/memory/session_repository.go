package memory

import (
	"time"

	"ai-legal-engine/pkg/store"

	"github.com/patrickmn/go-cache"
)

type SessionRepository struct {
	cache *cache.Cache
}

// NewSessionRepository keeps sessions for ttl after their last access and
// purges expired ones every cleanupInterval. A ttl of zero or less keeps
// sessions for the lifetime of the process.
func NewSessionRepository(ttl, cleanupInterval time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	if cleanupInterval <= 0 {
		cleanupInterval = 10 * time.Minute
	}
	return &SessionRepository{
		cache: cache.New(ttl, cleanupInterval),
	}
}

func (r *SessionRepository) Save(session *store.Session) {
	r.cache.Set(session.ID, session, cache.DefaultExpiration)
}

// Get returns the session and extends its expiration.
func (r *SessionRepository) Get(sessionID string) (*store.Session, bool) {
	x, found := r.cache.Get(sessionID)
	if !found {
		return nil, false
	}
	session := x.(*store.Session)
	r.cache.Set(sessionID, session, cache.DefaultExpiration)
	return session, true
}

// GetOrCreate returns the existing session or atomically registers a new one.
func (r *SessionRepository) GetOrCreate(sessionID string) *store.Session {
	if session, found := r.Get(sessionID); found {
		return session
	}
	session := store.NewSession(sessionID)
	if err := r.cache.Add(sessionID, session, cache.DefaultExpiration); err != nil {
		// another request created it first
		if existing, found := r.Get(sessionID); found {
			return existing
		}
		r.Save(session)
	}
	return session
}
