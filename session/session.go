// Package session owns the per-connection state machine: a connection starts
// unregistered, binds a username exactly once, optionally subscribes to
// groups, and terminates with a guaranteed registry cleanup.
package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"textnest/contract"
	"textnest/domain"
	"textnest/domain/event"
	"textnest/errors"
)

type State int

const (
	StateUnregistered State = iota
	StateRegistered
	StateTerminated
)

// Session is one live connection. It implements contract.Session so the
// registry and router can hold it, and exposes the intent surface the
// transport drives (Register, SendPersonal, SendGroup, JoinGroup, Disconnect).
type Session struct {
	id         string
	log        *slog.Logger
	registry   contract.ISessionRegistry
	membership contract.IMembershipIndex
	router     contract.IRouter

	events chan event.Event
	done   chan struct{}
	once   sync.Once

	mu            sync.RWMutex
	state         State
	username      string
	subscriptions map[domain.GroupID]struct{}
}

func New(log *slog.Logger, registry contract.ISessionRegistry,
	membership contract.IMembershipIndex, router contract.IRouter, bufferSize int) *Session {
	id := uuid.NewString()
	return &Session{
		id:            id,
		log:           log.With("session_id", id),
		registry:      registry,
		membership:    membership,
		router:        router,
		events:        make(chan event.Event, bufferSize),
		done:          make(chan struct{}),
		subscriptions: make(map[domain.GroupID]struct{}),
	}
}

func (s *Session) ID() string { return s.id }

// Events is drained by the transport's write loop.
func (s *Session) Events() <-chan event.Event { return s.events }

// Done is closed when the session terminates.
func (s *Session) Done() <-chan struct{} { return s.done }

// Consume implements contract.EventSink for the router's fan-out. The push is
// non-blocking: a full buffer means the client cannot keep up and the event is
// dropped for this session only; the message itself is already durable.
func (s *Session) Consume(ctx context.Context, e event.Event) error {
	select {
	case <-s.done:
		return errors.ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	case s.events <- e:
		return nil
	default:
		return errors.ErrSessionBusy
	}
}

// SubscribedTo reports whether this session opted into live pushes for a group.
func (s *Session) SubscribedTo(groupID domain.GroupID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.subscriptions[groupID]
	return ok
}

// Register binds the connection to a username and enters the registry.
// Re-registering the same username is a no-op; switching usernames on a live
// connection is rejected.
func (s *Session) Register(username string) error {
	s.mu.Lock()
	switch s.state {
	case StateTerminated:
		s.mu.Unlock()
		return errors.ErrSessionClosed
	case StateRegistered:
		bound := s.username
		s.mu.Unlock()
		if bound == username {
			return nil
		}
		return errors.ErrAlreadyRegistered
	}
	s.state = StateRegistered
	s.username = username
	s.mu.Unlock()

	// Registry has its own lock; never call it while holding ours.
	s.registry.Register(username, s)
	s.log.Info("session registered", "username", username)
	return nil
}

// SendPersonal routes a direct message from the bound username.
func (s *Session) SendPersonal(ctx context.Context, receiver, content string) (domain.Message, error) {
	sender, err := s.requireRegistered()
	if err != nil {
		return domain.Message{}, err
	}
	return s.router.SendPersonal(ctx, sender, receiver, content)
}

// SendGroup routes a group message from the bound username.
func (s *Session) SendGroup(ctx context.Context, groupID domain.GroupID, content string) (domain.Message, error) {
	sender, err := s.requireRegistered()
	if err != nil {
		return domain.Message{}, err
	}
	return s.router.SendGroup(ctx, groupID, sender, content)
}

// JoinGroup subscribes the session to a group's live pushes and returns the
// group metadata. The durable membership itself is mutated through the REST
// surface; an unknown group id is rejected before any state changes.
func (s *Session) JoinGroup(groupID domain.GroupID) (domain.Group, error) {
	if _, err := s.requireRegistered(); err != nil {
		return domain.Group{}, err
	}

	group, err := s.membership.GroupByID(groupID)
	if err != nil {
		return domain.Group{}, err
	}

	s.mu.Lock()
	s.subscriptions[groupID] = struct{}{}
	s.mu.Unlock()

	s.log.Info("session subscribed to group", "group_id", groupID)
	return group, nil
}

// Disconnect terminates the session. It is safe to call from any state and
// from multiple paths (read error, write error, explicit logout); the registry
// unregistration runs exactly once.
func (s *Session) Disconnect() {
	s.once.Do(func() {
		s.mu.Lock()
		s.state = StateTerminated
		s.mu.Unlock()

		close(s.done)
		s.registry.Unregister(s)
		s.log.Info("session terminated")
	})
}

func (s *Session) requireRegistered() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.state != StateRegistered {
		return "", errors.ErrUnauthenticated
	}
	return s.username, nil
}
