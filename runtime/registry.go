// Package runtime holds the relay core: the session registry, the durable
// membership index, and the message router. It carries no transport or
// storage-format knowledge.
package runtime

import (
	"sync"

	"textnest/contract"
)

// Registry maps usernames to their live sessions. A username may hold several
// concurrent sessions (multi-device); a session is bound to at most one
// username. State is purely in-memory and safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	byUser map[string]map[string]contract.Session // username -> session id -> handle
	owners map[string]string                      // session id -> username
}

func NewRegistry() *Registry {
	return &Registry{
		byUser: make(map[string]map[string]contract.Session),
		owners: make(map[string]string),
	}
}

// Register binds a session to a username. Registering the same session again
// is a no-op; the session keeps its first binding.
func (r *Registry) Register(username string, s contract.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, bound := r.owners[s.ID()]; bound {
		return
	}
	r.owners[s.ID()] = username

	if _, ok := r.byUser[username]; !ok {
		r.byUser[username] = make(map[string]contract.Session)
	}
	r.byUser[username][s.ID()] = s
}

// Unregister removes a session from whatever username it is bound to.
// Unbound sessions are a no-op, so the connection teardown path may call this
// unconditionally.
func (r *Registry) Unregister(s contract.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	username, bound := r.owners[s.ID()]
	if !bound {
		return
	}
	delete(r.owners, s.ID())

	if sessions, ok := r.byUser[username]; ok {
		delete(sessions, s.ID())

		// No empty sets left behind, the user map would otherwise grow forever
		if len(sessions) == 0 {
			delete(r.byUser, username)
		}
	}
}

// SessionsFor returns the live sessions currently bound to username.
// The result is a copy; callers may range over it without holding any lock.
func (r *Registry) SessionsFor(username string) []contract.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sessions, ok := r.byUser[username]
	if !ok {
		return nil
	}
	out := make([]contract.Session, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, s)
	}
	return out
}

// All returns every bound session. Kept for the legacy un-targeted broadcast
// surface; the router itself only fans out to resolved targets.
func (r *Registry) All() []contract.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []contract.Session
	for _, sessions := range r.byUser {
		for _, s := range sessions {
			out = append(out, s)
		}
	}
	return out
}
