package section

import (
	"sync"
	"time"
)

type sessionEditors struct {
	bySection map[string]*Editor
	lastUsed  time.Time
}

// Registry holds the open editors of each visitor session.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*sessionEditors
	now      func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*sessionEditors), now: time.Now}
}

// Get returns the editor for a session's section, or nil.
func (r *Registry) Get(sessionID, name string) *Editor {
	r.mu.Lock()
	defer r.mu.Unlock()
	se := r.sessions[sessionID]
	if se == nil {
		return nil
	}
	se.lastUsed = r.now()
	return se.bySection[name]
}

// Open returns the session's editor for sec. An editor that is mid-edit on
// the same profile is kept; otherwise a new one is built from the freshly
// fetched values.
func (r *Registry) Open(sessionID string, sec Section, profileID string, current map[string]any, saver Saver) *Editor {
	r.mu.Lock()
	defer r.mu.Unlock()
	se := r.sessions[sessionID]
	if se == nil {
		se = &sessionEditors{bySection: make(map[string]*Editor)}
		r.sessions[sessionID] = se
	}
	se.lastUsed = r.now()
	if e := se.bySection[sec.Name]; e != nil && e.ProfileID() == profileID && e.Editing() {
		return e
	}
	e := NewEditor(sec, profileID, current, saver)
	se.bySection[sec.Name] = e
	return e
}

// DropSession forgets every editor of a session.
func (r *Registry) DropSession(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
}

// EvictIdle forgets the editors of sessions not used within maxIdle and
// returns how many sessions were dropped.
func (r *Registry) EvictIdle(maxIdle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := r.now().Add(-maxIdle)
	n := 0
	for id, se := range r.sessions {
		if se.lastUsed.Before(cutoff) {
			delete(r.sessions, id)
			n++
		}
	}
	return n
}

// Sessions returns the number of sessions with open editors.
func (r *Registry) Sessions() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
