package session

import (
	"context"
	"log"
	"sync"

	"github.com/akillionvoice/callcore/internal/domain"
)

// Registry is a concurrency-safe directory of live sessions keyed by call id.
// One structural mutex guards the map; per-call work happens under each
// session's own lock so slow turns never block the registry.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	deps     *Deps
}

// NewRegistry creates an empty registry.
func NewRegistry(deps *Deps) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		deps:     deps,
	}
}

// Create returns the session for callID, creating it if needed. Idempotent:
// a second create for the same call id returns the existing session.
func (r *Registry) Create(callID, callerID string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.sessions[callID]; ok {
		log.Printf("WARN: duplicate session create for call %s", callID)
		return existing
	}
	s := newSession(callID, callerID, r.deps)
	r.sessions[callID] = s
	return s
}

// Get returns the session for callID if one is live.
func (r *Registry) Get(callID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[callID]
	return s, ok
}

// End finalizes and removes the session for callID. The summary and
// persistence work runs outside the registry lock.
func (r *Registry) End(ctx context.Context, callID string, status domain.CallStatus) (*domain.CallReport, bool) {
	r.mu.Lock()
	s, ok := r.sessions[callID]
	r.mu.Unlock()
	if !ok {
		return nil, false
	}

	report := s.EndCall(ctx, status)

	r.mu.Lock()
	delete(r.sessions, callID)
	r.mu.Unlock()
	return report, true
}

// ListActive returns lightweight snapshots of all live sessions.
func (r *Registry) ListActive() []domain.SessionInfo {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.Unlock()

	infos := make([]domain.SessionInfo, 0, len(sessions))
	for _, s := range sessions {
		infos = append(infos, s.Info())
	}
	return infos
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// CleanupInactive sweeps out sessions flagged inactive but not yet removed.
// Normal teardown goes through End; this is a safety net for missed hangups.
func (r *Registry) CleanupInactive() int {
	r.mu.Lock()
	sessions := make(map[string]*Session, len(r.sessions))
	for id, s := range r.sessions {
		sessions[id] = s
	}
	r.mu.Unlock()

	removed := 0
	for id, s := range sessions {
		if s.IsActive() {
			continue
		}
		r.mu.Lock()
		if r.sessions[id] == s {
			delete(r.sessions, id)
			removed++
		}
		r.mu.Unlock()
	}
	if removed > 0 {
		log.Printf("cleaned up %d inactive sessions", removed)
	}
	return removed
}
