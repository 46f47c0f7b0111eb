// Package event defines the notifications pushed to live sessions.
package event

import "textnest/domain"

// Event is something a connected client should hear about.
// The name doubles as the frame type on the wire.
type Event interface {
	Name() string
}

// PersonalMessage notifies a session of a direct message involving it.
type PersonalMessage struct {
	Message domain.Message
}

func (e PersonalMessage) Name() string { return "personal_message" }

// GroupMessage notifies a subscribed session of a message in one of its groups.
// Group metadata rides along so clients can render without a lookup.
type GroupMessage struct {
	Message domain.Message
	Group   domain.Group
}

func (e GroupMessage) Name() string { return "group_message" }

// GroupJoined acknowledges a session-local group subscription.
type GroupJoined struct {
	Group domain.Group
}

func (e GroupJoined) Name() string { return "group_joined" }
