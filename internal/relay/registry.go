package relay

import (
	"sync"
	"time"
)

// SessionInfo holds metadata about an active session.
type SessionInfo struct {
	// ID is the unique identifier for this session.
	ID string

	// Voice is the provider voice ID in use.
	Voice string

	// StartedAt is when the session started.
	StartedAt time.Time
}

// Registry tracks active relay sessions by ID. All methods are safe for
// concurrent use.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]SessionInfo
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]SessionInfo)}
}

// Add registers a session. Returns false if a session with the same ID is
// already registered.
func (r *Registry) Add(info SessionInfo) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sessions[info.ID]; exists {
		return false
	}
	r.sessions[info.ID] = info
	return true
}

// Remove deregisters the session with the given ID. Removing an unknown ID
// is a no-op.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Len reports the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// List returns a snapshot of all registered sessions.
func (r *Registry) List() []SessionInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]SessionInfo, 0, len(r.sessions))
	for _, info := range r.sessions {
		out = append(out, info)
	}
	return out
}
