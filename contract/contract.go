//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"

	"textnest/domain"
	"textnest/domain/event"
)

// EventSink receives events on behalf of one consumer.
type EventSink interface {
	Consume(ctx context.Context, e event.Event) error
}

// Session is the registry's view of a live connection: an opaque id, a sink to
// push events into, and the session-local group subscriptions that scope group
// delivery. The lifecycle manager owns the handle; the registry only holds it.
type Session interface {
	EventSink
	ID() string
	SubscribedTo(groupID domain.GroupID) bool
}

// ISessionRegistry maps usernames to their live sessions.
// Purely in-memory; safe for concurrent use.
type ISessionRegistry interface {
	Register(username string, s Session)
	Unregister(s Session)
	SessionsFor(username string) []Session
	All() []Session
}

// IMembershipIndex is the durable group surface: every mutation is persisted
// before it is acknowledged.
type IMembershipIndex interface {
	CreateGroup(name, creator string) (domain.Group, error)
	JoinGroup(name, username string) (domain.Group, error)
	MembersOf(id domain.GroupID) ([]string, error)
	GroupByID(id domain.GroupID) (domain.Group, error)
}

// IRouter resolves a send intent to live sessions, persisting first and
// delivering best-effort.
type IRouter interface {
	SendPersonal(ctx context.Context, sender, receiver, content string) (domain.Message, error)
	SendGroup(ctx context.Context, groupID domain.GroupID, sender, content string) (domain.Message, error)
}
