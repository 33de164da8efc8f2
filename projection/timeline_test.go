package projection

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"roomsync/domain"
	"roomsync/domain/event"
)

func TestTimeline_Accumulates_Messages_In_Delivery_Order(t *testing.T) {
	req := require.New(t)
	roomID := domain.RoomID("design-review")
	timeline := NewTimeline(roomID)

	m1 := domain.Message{ID: uuid.New(), Room: roomID, Content: "first"}
	m2 := domain.Message{ID: uuid.New(), Room: roomID, Content: "second"}

	timeline.Apply(event.MessageReceived{Message: m1})
	timeline.Apply(event.MessageReceived{Message: m2})

	messages := timeline.Messages()
	req.Len(messages, 2)
	req.Equal("first", messages[0].Content)
	req.Equal("second", messages[1].Content)
}

func TestTimeline_Ignores_Other_Rooms(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline(domain.RoomID("design-review"))

	timeline.Apply(event.MessageReceived{
		Message: domain.Message{ID: uuid.New(), Room: domain.RoomID("random")},
	})

	req.Empty(timeline.Messages())
}

func TestTimeline_Read_Updates_Union_Into_Messages(t *testing.T) {
	req := require.New(t)
	roomID := domain.RoomID("design-review")
	timeline := NewTimeline(roomID)
	at := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	m := domain.Message{ID: uuid.New(), Room: roomID, SenderID: "u1",
		ReadBy: map[string]time.Time{"u1": at}}
	timeline.Apply(event.MessageReceived{Message: m})

	// When Bob's receipt arrives
	timeline.Apply(event.MessagesReadUpdate{
		Room: roomID, UserID: "u2", MessageIDs: []uuid.UUID{m.ID}, ReadAt: at.Add(time.Minute),
	})

	// Then the receipt set grew without losing the sender's entry
	messages := timeline.Messages()
	req.Len(messages[0].ReadBy, 2)

	// When a duplicate update arrives with a later time
	timeline.Apply(event.MessagesReadUpdate{
		Room: roomID, UserID: "u2", MessageIDs: []uuid.UUID{m.ID}, ReadAt: at.Add(time.Hour),
	})

	// Then the first read time wins
	req.Equal(at.Add(time.Minute), timeline.Messages()[0].ReadBy["u2"])
}

func TestTimeline_Members_Track_Latest_Snapshot(t *testing.T) {
	req := require.New(t)
	roomID := domain.RoomID("design-review")
	timeline := NewTimeline(roomID)
	alice := domain.User{ID: "u1", Name: "Alice"}
	bob := domain.User{ID: "u2", Name: "Bob"}

	timeline.Apply(event.RoomUsersUpdate{Room: roomID, Users: []domain.User{alice, bob}})
	timeline.Apply(event.RoomUsersUpdate{Room: roomID, Users: []domain.User{alice}})

	// Snapshots replace, they never merge
	req.Equal([]domain.User{alice}, timeline.Members())
}

func TestTimeline_Typing_Set(t *testing.T) {
	req := require.New(t)
	roomID := domain.RoomID("design-review")
	timeline := NewTimeline(roomID)
	bob := domain.User{ID: "u2", Name: "Bob"}

	timeline.Apply(event.UserTyping{Room: roomID, User: bob})
	req.Equal([]domain.User{bob}, timeline.TypingUsers())

	timeline.Apply(event.UserStoppedTyping{Room: roomID, User: bob})
	req.Empty(timeline.TypingUsers())
}
