package runtime

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"roomsync/domain"
	"roomsync/domain/event"
)

type Sink struct{}

func (s Sink) Consume(ctx context.Context, e event.DomainEvent) error {
	return nil
}

func TestRegistry_Join_One_Room_One_Session(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	roomID := domain.RoomID("design-review")
	session := NewSession(domain.User{ID: "u1", Name: "Alice"}, Sink{})

	// Given no session is connected and no room exists
	req.Empty(registry.sessions)
	req.Empty(registry.roomMembers)

	// When a session registers and joins a room
	registry.Register(session)
	changed := registry.Join(session, roomID)

	// Then
	req.True(changed)
	req.Len(registry.sessions, 1)
	req.Contains(registry.roomMembers[roomID], session.ID)
	req.Len(registry.SessionsInRoom(roomID), 1)
}

func TestRegistry_Join_Twice_Is_NoOp(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	roomID := domain.RoomID("design-review")
	session := NewSession(domain.User{ID: "u1", Name: "Alice"}, Sink{})
	registry.Register(session)

	// Given the session already joined the room
	req.True(registry.Join(session, roomID))

	// When it joins again
	changed := registry.Join(session, roomID)

	// Then nothing changed
	req.False(changed)
	req.Len(registry.roomMembers[roomID], 1)
}

func TestRegistry_Join_Unregistered_Session(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	session := NewSession(domain.User{ID: "u1", Name: "Alice"}, Sink{})

	// When an unregistered session tries to join
	changed := registry.Join(session, domain.RoomID("design-review"))

	// Then it holds no membership
	req.False(changed)
	req.Empty(registry.roomMembers)
}

func TestRegistry_Leave_One_Room_One_Session(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	roomID := domain.RoomID("design-review")
	session := NewSession(domain.User{ID: "u1", Name: "Alice"}, Sink{})
	registry.Register(session)
	registry.Join(session, roomID)

	// When the session leaves the room
	changed := registry.Leave(session.ID, roomID)

	// Then the room doesn't exist anymore
	req.True(changed)
	req.Empty(registry.roomMembers)
	req.Nil(registry.SessionsInRoom(roomID))

	// And leaving again is a no-op
	req.False(registry.Leave(session.ID, roomID))
}

func TestRegistry_Leave_One_Room_Multiple_Sessions(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	roomID := domain.RoomID("design-review")
	session1 := NewSession(domain.User{ID: "u1", Name: "Alice"}, Sink{})
	session2 := NewSession(domain.User{ID: "u2", Name: "Bob"}, Sink{})
	registry.Register(session1)
	registry.Register(session2)
	registry.Join(session1, roomID)
	registry.Join(session2, roomID)

	// When one session leaves
	registry.Leave(session1.ID, roomID)

	// Then only the other remains
	req.Len(registry.roomMembers[roomID], 1)
	remaining := registry.SessionsInRoom(roomID)
	req.Len(remaining, 1)
	req.Equal(session2.ID, remaining[0].ID)
}

func TestRegistry_Unregister_Drops_Leftover_Memberships(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	room1 := domain.RoomID("design-review")
	room2 := domain.RoomID("random")
	session := NewSession(domain.User{ID: "u1", Name: "Alice"}, Sink{})
	registry.Register(session)
	registry.Join(session, room1)
	registry.Join(session, room2)

	// When the session unregisters without leaving its rooms
	registry.Unregister(session.ID)

	// Then no dead session lingers in any member set
	req.Empty(registry.sessions)
	req.Empty(registry.roomMembers)
	req.Nil(registry.SessionsInRoom(room1))
	req.Nil(registry.SessionsInRoom(room2))
}

func TestRegistry_Rooms_Lists_Current_Memberships(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	session := NewSession(domain.User{ID: "u1", Name: "Alice"}, Sink{})
	registry.Register(session)
	registry.Join(session, domain.RoomID("a"))
	registry.Join(session, domain.RoomID("b"))

	rooms := registry.Rooms(session.ID)

	req.Len(rooms, 2)
	req.ElementsMatch([]domain.RoomID{"a", "b"}, rooms)
}
