// Package projection builds local views from observed events.
// Handles ordering and accumulation; it does not emit events or interact
// with the transport directly.
package projection

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"roomsync/domain"
	"roomsync/domain/event"
)

// Timeline accumulates one room's state as seen from the event stream:
// messages in delivery order, the latest presence snapshot, the current
// typing set. The viewer renders from it; tests assert on it.
type Timeline struct {
	mu       sync.Mutex
	Room     domain.RoomID
	messages []domain.Message
	members  []domain.User
	typing   map[string]domain.User
}

func NewTimeline(roomID domain.RoomID) *Timeline {
	return &Timeline{Room: roomID, typing: make(map[string]domain.User)}
}

func (t *Timeline) Apply(e event.DomainEvent) {
	if e.RoomID() != t.Room {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	switch evt := e.(type) {
	case event.MessageReceived:
		t.messages = append(t.messages, evt.Message)
	case event.MessagesReadUpdate:
		// Union, never replace: the update carries only newly marked IDs.
		marked := make(map[uuid.UUID]struct{}, len(evt.MessageIDs))
		for _, id := range evt.MessageIDs {
			marked[id] = struct{}{}
		}
		for i := range t.messages {
			if _, ok := marked[t.messages[i].ID]; !ok {
				continue
			}
			if t.messages[i].ReadBy == nil {
				t.messages[i].ReadBy = make(map[string]time.Time)
			}
			if _, seen := t.messages[i].ReadBy[evt.UserID]; !seen {
				t.messages[i].ReadBy[evt.UserID] = evt.ReadAt
			}
		}
	case event.RoomUsersUpdate:
		t.members = evt.Users
	case event.UserTyping:
		t.typing[evt.User.ID] = evt.User
	case event.UserStoppedTyping:
		delete(t.typing, evt.User.ID)
	}
}

func (t *Timeline) Messages() []domain.Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]domain.Message, len(t.messages))
	copy(out, t.messages)
	return out
}

func (t *Timeline) Members() []domain.User {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]domain.User, len(t.members))
	copy(out, t.members)
	return out
}

func (t *Timeline) TypingUsers() []domain.User {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]domain.User, 0, len(t.typing))
	for _, u := range t.typing {
		out = append(out, u)
	}
	return out
}
