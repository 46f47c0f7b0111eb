package ws

import (
	"time"

	"github.com/samber/lo"

	"textnest/domain"
	"textnest/domain/event"
)

// ClientFrame is every intent a client can issue over the socket. Type selects
// the operation; the other fields are read as that operation needs them.
type ClientFrame struct {
	Type     string `json:"type"` // register | send_personal | send_group | join_group
	Username string `json:"username,omitempty"`
	Receiver string `json:"receiver,omitempty"`
	GroupID  string `json:"groupId,omitempty"`
	Content  string `json:"content,omitempty"`
}

const (
	frameRegister     = "register"
	frameSendPersonal = "send_personal"
	frameSendGroup    = "send_group"
	frameJoinGroup    = "join_group"
)

// ServerFrame is what the relay pushes back: message events, group acks, and
// per-intent errors. Field names follow the store's message shape.
type ServerFrame struct {
	Type    string          `json:"type"`
	Message *MessagePayload `json:"message,omitempty"`
	Group   *GroupPayload   `json:"group,omitempty"`
	Error   string          `json:"error,omitempty"`
}

type MessagePayload struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Receiver  string    `json:"receiver"`
	Content   string    `json:"content"`
	IsGroup   bool      `json:"isGroup"`
	Timestamp time.Time `json:"timestamp"`
}

type GroupPayload struct {
	GroupID   string   `json:"groupId"`
	GroupName string   `json:"groupName"`
	Members   []string `json:"members,omitempty"`
}

func toServerFrame(e event.Event) ServerFrame {
	switch evt := e.(type) {
	case event.PersonalMessage:
		return ServerFrame{Type: evt.Name(), Message: lo.ToPtr(toMessagePayload(evt.Message))}
	case event.GroupMessage:
		return ServerFrame{
			Type:    evt.Name(),
			Message: lo.ToPtr(toMessagePayload(evt.Message)),
			Group:   lo.ToPtr(toGroupPayload(evt.Group)),
		}
	case event.GroupJoined:
		return ServerFrame{Type: evt.Name(), Group: lo.ToPtr(toGroupPayload(evt.Group))}
	default:
		return ServerFrame{Type: e.Name()}
	}
}

func errorFrame(err error) ServerFrame {
	return ServerFrame{Type: "error", Error: err.Error()}
}

func toMessagePayload(message domain.Message) MessagePayload {
	return MessagePayload{
		ID:        message.ID.String(),
		Sender:    message.Sender,
		Receiver:  message.Target,
		Content:   message.Content,
		IsGroup:   message.IsGroup(),
		Timestamp: message.SentAt,
	}
}

func toGroupPayload(group domain.Group) GroupPayload {
	return GroupPayload{
		GroupID:   string(group.ID),
		GroupName: group.Name,
		Members:   group.Members,
	}
}
