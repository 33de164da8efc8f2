package event

import (
	"time"

	"github.com/google/uuid"

	"roomsync/domain"
)

// DomainEvent is any server-to-room event flowing through the fanout.
type DomainEvent interface {
	RoomID() domain.RoomID
}

// UserJoined notifies remaining members that a user entered the room.
type UserJoined struct {
	Room    domain.RoomID
	User    domain.User
	Title   string
	Message string
}

func (e UserJoined) RoomID() domain.RoomID { return e.Room }

// UserLeft notifies remaining members that a user left the room.
type UserLeft struct {
	Room    domain.RoomID
	User    domain.User
	Title   string
	Message string
}

func (e UserLeft) RoomID() domain.RoomID { return e.Room }

// RoomUsersUpdate carries the full current member list. Full snapshots are
// broadcast instead of deltas so a missed event never causes permanent
// divergence; the next snapshot self-corrects.
type RoomUsersUpdate struct {
	Room  domain.RoomID
	Users []domain.User
}

func (e RoomUsersUpdate) RoomID() domain.RoomID { return e.Room }

// MessageReceived delivers a freshly persisted message to the room.
type MessageReceived struct {
	Message domain.Message
}

func (e MessageReceived) RoomID() domain.RoomID { return e.Message.Room }

// MessagesReadUpdate carries only the newly marked message IDs for one
// reader. Receivers union it into local state, never replace.
type MessagesReadUpdate struct {
	Room       domain.RoomID
	UserID     string
	MessageIDs []uuid.UUID
	ReadAt     time.Time
}

func (e MessagesReadUpdate) RoomID() domain.RoomID { return e.Room }

type UserTyping struct {
	Room domain.RoomID
	User domain.User
}

func (e UserTyping) RoomID() domain.RoomID { return e.Room }

type UserStoppedTyping struct {
	Room domain.RoomID
	User domain.User
}

func (e UserStoppedTyping) RoomID() domain.RoomID { return e.Room }

// WhiteboardUpdate carries the full element list after a stroke, same
// full-state-over-delta rationale as RoomUsersUpdate.
type WhiteboardUpdate struct {
	Room     domain.RoomID
	Elements []domain.WhiteboardElement
}

func (e WhiteboardUpdate) RoomID() domain.RoomID { return e.Room }

type WhiteboardCleared struct {
	Room      domain.RoomID
	ClearedBy string
}

func (e WhiteboardCleared) RoomID() domain.RoomID { return e.Room }
