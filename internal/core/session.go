package core

// Session is the live binding between a connection and the identity it joined
// with, plus the single room it currently occupies.
type Session struct {
	ConnectionID string
	Identity     Identity
	Room         RoomID
	InRoom       bool
}

// Registry tracks open sessions keyed by connection id. It is owned by the
// hub goroutine and must only be touched from there; that single-writer
// discipline is what makes it lock-free.
type Registry struct {
	sessions map[string]*Session
}

// NewRegistry constructs an empty session registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// OpenSession records a session for the connection. If one is already open
// the identity snapshot is refreshed and the existing session returned, so no
// two sessions ever share a connection id.
func (r *Registry) OpenSession(connID string, identity Identity) *Session {
	if sess, ok := r.sessions[connID]; ok {
		sess.Identity = identity
		return sess
	}
	sess := &Session{ConnectionID: connID, Identity: identity}
	r.sessions[connID] = sess
	return sess
}

// CloseSession removes and returns the session, or nil if none is open.
// Calling it twice for the same connection is safe; cleanup runs once.
func (r *Registry) CloseSession(connID string) *Session {
	sess, ok := r.sessions[connID]
	if !ok {
		return nil
	}
	delete(r.sessions, connID)
	return sess
}

// Get returns the open session for the connection, or nil.
func (r *Registry) Get(connID string) *Session {
	return r.sessions[connID]
}

// SetCurrentRoom records the room the connection now occupies.
func (r *Registry) SetCurrentRoom(connID string, room RoomID) {
	if sess, ok := r.sessions[connID]; ok {
		sess.Room = room
		sess.InRoom = true
	}
}

// ClearCurrentRoom marks the connection as not joined to any room.
func (r *Registry) ClearCurrentRoom(connID string) {
	if sess, ok := r.sessions[connID]; ok {
		sess.Room = RoomID{}
		sess.InRoom = false
	}
}

// Len reports the number of open sessions.
func (r *Registry) Len() int {
	return len(r.sessions)
}
