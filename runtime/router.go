package runtime

import (
	"context"
	"fmt"
	"log/slog"

	"textnest/contract"
	"textnest/domain"
	"textnest/domain/event"
	"textnest/observability"
	"textnest/repositories"
)

// Router turns a send intent into a durable record plus a best-effort fan-out.
//
// Persistence is the authoritative "sent" signal: if the append fails, nothing
// is delivered and the error is surfaced; once it succeeds, a session that
// cannot take the event is logged and skipped, never rolled back. Offline
// recipients are not queued, they catch up through a history fetch.
type Router struct {
	log        *slog.Logger
	registry   contract.ISessionRegistry
	membership contract.IMembershipIndex
	messages   repositories.IMessageRepository
	stats      *observability.Stats
}

func NewRouter(log *slog.Logger, registry contract.ISessionRegistry,
	membership contract.IMembershipIndex, messages repositories.IMessageRepository,
	stats *observability.Stats) *Router {
	return &Router{
		log:        log,
		registry:   registry,
		membership: membership,
		messages:   messages,
		stats:      stats,
	}
}

// SendPersonal persists a direct message, then delivers it to the receiver's
// live sessions and to the sender's other sessions so every device of both
// parties renders it. Nobody else hears about it.
func (r *Router) SendPersonal(ctx context.Context, sender, receiver, content string) (domain.Message, error) {
	stored, err := r.messages.AppendMessage(domain.NewPersonalMessage(sender, receiver, content))
	if err != nil {
		return domain.Message{}, fmt.Errorf("append message: %w", err)
	}
	r.stats.MessageRouted()

	targets := r.registry.SessionsFor(receiver)
	if sender != receiver {
		targets = append(targets, r.registry.SessionsFor(sender)...)
	}
	r.deliver(ctx, targets, event.PersonalMessage{Message: stored})

	return stored, nil
}

// SendGroup persists a group message, then fans it out to the live sessions of
// durable members that subscribed to the group. Members without a matching
// session are skipped.
func (r *Router) SendGroup(ctx context.Context, groupID domain.GroupID, sender, content string) (domain.Message, error) {
	group, err := r.membership.GroupByID(groupID)
	if err != nil {
		return domain.Message{}, err
	}

	stored, err := r.messages.AppendMessage(domain.NewGroupMessage(sender, groupID, content))
	if err != nil {
		return domain.Message{}, fmt.Errorf("append message: %w", err)
	}
	r.stats.MessageRouted()

	evt := event.GroupMessage{Message: stored, Group: group}
	for _, member := range group.Members {
		for _, s := range r.registry.SessionsFor(member) {
			// Durable membership grants history; only a session-local
			// subscription opts into live pushes.
			if !s.SubscribedTo(groupID) {
				continue
			}
			r.consume(ctx, s, evt)
		}
	}

	return stored, nil
}

func (r *Router) deliver(ctx context.Context, sessions []contract.Session, evt event.Event) {
	for _, s := range sessions {
		r.consume(ctx, s, evt)
	}
}

// consume pushes one event into one session. A failed push is a partial
// delivery failure: logged, never propagated.
func (r *Router) consume(ctx context.Context, s contract.Session, evt event.Event) {
	if err := s.Consume(ctx, evt); err != nil {
		r.stats.EventDropped()
		r.log.Warn("dropping event for session",
			"session_id", s.ID(),
			"event", evt.Name(),
			"error", err)
		return
	}
	r.stats.EventDelivered()
}
