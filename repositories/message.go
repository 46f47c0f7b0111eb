//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"textnest/domain"
)

const inboxKeyPrefix = "inbox:"

type IMessageRepository interface {
	AppendMessage(message domain.Message) (domain.Message, error)
	MessagesInvolving(party string) ([]domain.Message, error)
}

// MessageRepository is the append-only message log.
//
// Each message is written under one key per involved party, formatted as
// "inbox:{party}:{timestamp_padded}:{uuid}":
//  1. The 19-digit zero padding makes lexicographic key order equal
//     chronological order, so history reads are a single prefix scan.
//  2. The UUID disambiguates two messages stamped on the same nanosecond.
//
// The party is the sender's username and the target (a username for personal
// messages, a group id for group ones), which is exactly the set of parties a
// history fetch may ask about.
type MessageRepository struct {
	db  *badger.DB
	log *slog.Logger

	// clockMu serializes timestamp assignment so SentAt never goes backwards
	// across appends, even if the wall clock does.
	clockMu   sync.Mutex
	lastStamp time.Time
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) *MessageRepository {
	return &MessageRepository{db: db, log: log}
}

type diskMessage struct {
	ID      string `json:"id"`
	Sender  string `json:"sender"`
	Target  string `json:"receiver"`
	Content string `json:"content"`
	IsGroup bool   `json:"is_group"`
	SentAt  int64  `json:"timestamp"` // unix nanoseconds
}

// AppendMessage stamps the message with a monotonically non-decreasing server
// timestamp and persists it. The returned message carries the assigned stamp.
func (r *MessageRepository) AppendMessage(message domain.Message) (domain.Message, error) {
	message.SentAt = r.nextStamp()

	data, err := json.Marshal(fromMessage(message))
	if err != nil {
		return domain.Message{}, fmt.Errorf("marshal message: %w", err)
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(inboxKey(message.Sender, message), data); err != nil {
			return err
		}
		if message.Target == message.Sender {
			return nil
		}
		return txn.Set(inboxKey(message.Target, message), data)
	})
	if err != nil {
		return domain.Message{}, err
	}

	r.log.Debug("message appended",
		"sender", message.Sender,
		"target", message.Target,
		"kind", message.Kind)
	return message, nil
}

// MessagesInvolving returns every message sent by or addressed to party,
// ascending by timestamp. Key order gives the ordering for free.
func (r *MessageRepository) MessagesInvolving(party string) ([]domain.Message, error) {
	var messages []domain.Message

	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(inboxKeyPrefix + party + ":")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var stored diskMessage
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &stored)
			})
			if err != nil {
				return err
			}
			messages = append(messages, toMessage(stored))
		}
		return nil
	})

	return messages, err
}

func (r *MessageRepository) nextStamp() time.Time {
	r.clockMu.Lock()
	defer r.clockMu.Unlock()

	now := time.Now().UTC()
	if !now.After(r.lastStamp) {
		now = r.lastStamp.Add(time.Nanosecond)
	}
	r.lastStamp = now
	return now
}

func inboxKey(party string, message domain.Message) []byte {
	return []byte(fmt.Sprintf("%s%s:%019d:%s",
		inboxKeyPrefix, party, message.SentAt.UnixNano(), message.ID))
}

func fromMessage(message domain.Message) diskMessage {
	return diskMessage{
		ID:      message.ID.String(),
		Sender:  message.Sender,
		Target:  message.Target,
		Content: message.Content,
		IsGroup: message.IsGroup(),
		SentAt:  message.SentAt.UnixNano(),
	}
}

func toMessage(stored diskMessage) domain.Message {
	kind := domain.KindPersonal
	if stored.IsGroup {
		kind = domain.KindGroup
	}
	return domain.Message{
		ID:      uuid.MustParse(stored.ID),
		Sender:  stored.Sender,
		Target:  stored.Target,
		Content: stored.Content,
		Kind:    kind,
		SentAt:  time.Unix(0, stored.SentAt).UTC(),
	}
}
