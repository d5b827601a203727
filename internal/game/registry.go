package game

import "github.com/rs/zerolog/log"

// Registry owns all live session state. It is not safe for concurrent use:
// every mutation is expected to happen on the coordinator's event loop, the
// same way all draft state changes funnel through a single consumer.
type Registry struct {
	sessions map[string]*Session
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
	}
}

// GetOrCreate resolves a session by persistent identity. A new identity gets
// a fresh session at stage 1; a known identity is rebound to the given
// connection and reactivated, with its stage and timers left untouched.
// Reattachment is keyed by persistent identity only — the connection id is
// never treated as session identity.
func (r *Registry) GetOrCreate(persistentID, name, connectionID string) *Session {
	// A connection can carry at most one active session. If this connection
	// was bound to a different identity, that binding is stale now.
	for _, s := range r.sessions {
		if s.ConnectionID == connectionID && s.PersistentID != persistentID {
			s.ConnectionID = ""
			s.Status = StatusDisconnected
			log.Debug().
				Str("persistent_id", s.PersistentID).
				Str("connection_id", connectionID).
				Msg("unbound stale session from rejoining connection")
		}
	}

	if s, ok := r.sessions[persistentID]; ok {
		s.ConnectionID = connectionID
		s.Status = StatusActive
		if name != "" {
			s.Name = name
		}
		return s
	}

	s := &Session{
		PersistentID: persistentID,
		ConnectionID: connectionID,
		Name:         name,
		CurrentStage: 1,
		Timers:       make(map[int]*StageTimer),
		Status:       StatusActive,
	}
	r.sessions[persistentID] = s
	return s
}

// Get returns the session for a persistent identity, or nil.
func (r *Registry) Get(persistentID string) *Session {
	return r.sessions[persistentID]
}

// Remove drops a session from the active set.
func (r *Registry) Remove(persistentID string) {
	delete(r.sessions, persistentID)
}

// MarkDisconnected finds the session bound to the given connection and marks
// it disconnected, returning it. Late or duplicate disconnect events for
// connections with no bound session return nil and change nothing.
func (r *Registry) MarkDisconnected(connectionID string) *Session {
	for _, s := range r.sessions {
		if s.ConnectionID == connectionID {
			s.ConnectionID = ""
			s.Status = StatusDisconnected
			return s
		}
	}
	return nil
}

// Sessions returns the live sessions. The slice is a fresh copy but the
// sessions themselves are shared; callers must not retain them across events.
func (r *Registry) Sessions() []*Session {
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	return len(r.sessions)
}
