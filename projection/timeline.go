// Package projection builds local message timelines from observed events.
// Handles ordering and deduplication; it never talks to the relay itself.
package projection

import (
	"sort"
	"sync"

	"textnest/domain"
)

// Timeline is one party's local view of its conversation history. Pushed
// events and fetched history can overlap, so entries are deduplicated by
// message id and kept in timestamp order.
type Timeline struct {
	Owner string

	mu       sync.Mutex
	seen     map[string]struct{}
	messages []domain.Message
}

func NewTimeline(owner string) *Timeline {
	return &Timeline{
		Owner: owner,
		seen:  make(map[string]struct{}),
	}
}

// Observe folds one message into the timeline. Duplicates are ignored.
func (t *Timeline) Observe(message domain.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := message.ID.String()
	if _, ok := t.seen[id]; ok {
		return
	}
	t.seen[id] = struct{}{}

	// Events usually arrive in order; the common case is an append.
	at := sort.Search(len(t.messages), func(i int) bool {
		return t.messages[i].SentAt.After(message.SentAt)
	})
	t.messages = append(t.messages, domain.Message{})
	copy(t.messages[at+1:], t.messages[at:])
	t.messages[at] = message
}

// Messages returns the timeline oldest first.
func (t *Timeline) Messages() []domain.Message {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]domain.Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// Len avoids copying when only the count matters.
func (t *Timeline) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.messages)
}
