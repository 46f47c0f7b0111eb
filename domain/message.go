// Package domain contains core concepts of the chat relay.
// This file defines Message records and related rules.
// Messages are immutable once appended to the store.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// MessageKind discriminates personal from group messages.
type MessageKind string

const (
	KindPersonal MessageKind = "personal"
	KindGroup    MessageKind = "group"
)

// Message is one immutable chat record. Target holds a receiver username for
// personal messages and a GroupID for group messages. SentAt is assigned by
// the store on append and is monotonically non-decreasing in append order.
type Message struct {
	ID      uuid.UUID
	Sender  string
	Target  string
	Content string
	Kind    MessageKind
	SentAt  time.Time
}

func NewPersonalMessage(sender, receiver, content string) Message {
	return Message{
		ID:      uuid.New(),
		Sender:  sender,
		Target:  receiver,
		Content: content,
		Kind:    KindPersonal,
	}
}

func NewGroupMessage(sender string, groupID GroupID, content string) Message {
	return Message{
		ID:      uuid.New(),
		Sender:  sender,
		Target:  string(groupID),
		Content: content,
		Kind:    KindGroup,
	}
}

func (m Message) IsGroup() bool {
	return m.Kind == KindGroup
}

// Involves reports whether party appears as sender or target of the message.
// For group messages the target is a group id, so only the sender side matches
// a username.
func (m Message) Involves(party string) bool {
	return m.Sender == party || m.Target == party
}
