package runtime

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"textnest/domain"
	"textnest/domain/event"
)

// stubSession is a minimal contract.Session for registry tests.
type stubSession struct {
	id string
}

func newStubSession() *stubSession {
	return &stubSession{id: uuid.NewString()}
}

func (s *stubSession) ID() string { return s.id }

func (s *stubSession) Consume(_ context.Context, _ event.Event) error { return nil }

func (s *stubSession) SubscribedTo(_ domain.GroupID) bool { return false }

func TestRegistry_Register_One_User_One_Session(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	sess := newStubSession()

	// Given nobody is connected
	req.Empty(registry.SessionsFor("alice"))

	// When a session registers
	registry.Register("alice", sess)

	// Then it is resolvable by username
	sessions := registry.SessionsFor("alice")
	req.Len(sessions, 1)
	req.Equal(sess.ID(), sessions[0].ID())
}

func TestRegistry_Register_Multi_Device(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	phone := newStubSession()
	laptop := newStubSession()

	// When the same username registers two sessions
	registry.Register("alice", phone)
	registry.Register("alice", laptop)

	// Then both are live
	req.Len(registry.SessionsFor("alice"), 2)
	req.Len(registry.All(), 2)
}

func TestRegistry_Register_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	sess := newStubSession()

	// When the same session registers twice
	registry.Register("alice", sess)
	registry.Register("alice", sess)

	// Then it counts once
	req.Len(registry.SessionsFor("alice"), 1)

	// And a second registration under another name does not rebind it
	registry.Register("mallory", sess)
	req.Len(registry.SessionsFor("alice"), 1)
	req.Empty(registry.SessionsFor("mallory"))
}

func TestRegistry_Unregister(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	phone := newStubSession()
	laptop := newStubSession()

	// Given a user with two sessions
	registry.Register("alice", phone)
	registry.Register("alice", laptop)

	// When one session unregisters
	registry.Unregister(phone)

	// Then the other stays live
	sessions := registry.SessionsFor("alice")
	req.Len(sessions, 1)
	req.Equal(laptop.ID(), sessions[0].ID())

	// And removing the last one empties the user entry
	registry.Unregister(laptop)
	req.Empty(registry.SessionsFor("alice"))
	req.Empty(registry.All())
}

func TestRegistry_Unregister_Unbound_Session_Is_Noop(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	sess := newStubSession()

	// When an unknown session unregisters
	registry.Unregister(sess)

	// Then nothing happens
	req.Empty(registry.All())

	// And unregistering twice is just as safe
	registry.Register("alice", sess)
	registry.Unregister(sess)
	registry.Unregister(sess)
	req.Empty(registry.SessionsFor("alice"))
}

func TestRegistry_SessionsFor_Unknown_User(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	// An offline username resolves to no sessions, not an error
	req.Empty(registry.SessionsFor("ghost"))
}
