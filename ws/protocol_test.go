package ws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"roomsync/domain"
	"roomsync/domain/event"
)

func decodeFrame(t *testing.T, raw []byte) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(raw, &env))
	return env
}

func TestEncodeEvent_Frame_Types(t *testing.T) {
	req := require.New(t)
	roomID := domain.RoomID("design-review")
	alice := domain.User{ID: "u1", Name: "Alice"}

	cases := []struct {
		event event.DomainEvent
		want  string
	}{
		{event.UserJoined{Room: roomID, User: alice}, TypeUserJoined},
		{event.UserLeft{Room: roomID, User: alice}, TypeUserLeft},
		{event.RoomUsersUpdate{Room: roomID, Users: []domain.User{alice}}, TypeRoomUsersUpdate},
		{event.MessageReceived{Message: domain.Message{ID: uuid.New(), Room: roomID}}, TypeReceiveMessage},
		{event.MessagesReadUpdate{Room: roomID, UserID: "u1"}, TypeMessagesReadUpdate},
		{event.UserTyping{Room: roomID, User: alice}, TypeUserTyping},
		{event.UserStoppedTyping{Room: roomID, User: alice}, TypeUserStoppedTyping},
		{event.WhiteboardUpdate{Room: roomID}, TypeWhiteboardUpdate},
		{event.WhiteboardCleared{Room: roomID, ClearedBy: "u1"}, TypeWhiteboardCleared},
	}

	for _, tc := range cases {
		raw, err := EncodeEvent(tc.event)
		req.NoError(err)
		req.Equal(tc.want, decodeFrame(t, raw).Type)
	}
}

func TestEncodeEvent_Message_Round_Trip(t *testing.T) {
	req := require.New(t)
	roomID := domain.RoomID("design-review")
	at := time.Date(2026, 8, 30, 12, 0, 0, 123456789, time.UTC)
	m := domain.Message{
		ID:         uuid.New(),
		Room:       roomID,
		SenderID:   "u1",
		SenderName: "Alice",
		Content:    "hello",
		Lang:       "en",
		Attachments: []domain.Attachment{
			{Name: "spec.pdf", Size: 1024, URL: "https://files.example.com/spec.pdf"},
		},
		CreatedAt: at,
		ReadBy: map[string]time.Time{
			"u1": at,
			"u2": at.Add(time.Minute),
		},
	}

	raw, err := EncodeEvent(event.MessageReceived{Message: m})
	req.NoError(err)

	decoded, err := DecodeEvent(decodeFrame(t, raw))
	req.NoError(err)
	received, ok := decoded.(event.MessageReceived)
	req.True(ok)

	req.Equal(m.ID, received.Message.ID)
	req.Equal(m.Room, received.Message.Room)
	req.Equal(m.Content, received.Message.Content)
	req.Equal(m.Lang, received.Message.Lang)
	req.Len(received.Message.Attachments, 1)
	req.Equal("spec.pdf", received.Message.Attachments[0].Name)
	req.True(m.CreatedAt.Equal(received.Message.CreatedAt))
	req.Len(received.Message.ReadBy, 2)
	req.True(m.ReadBy["u2"].Equal(received.Message.ReadBy["u2"]))
}

func TestEncodeEvent_ReadUpdate_Round_Trip(t *testing.T) {
	req := require.New(t)
	roomID := domain.RoomID("design-review")
	ids := []uuid.UUID{uuid.New(), uuid.New()}
	at := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	raw, err := EncodeEvent(event.MessagesReadUpdate{
		Room: roomID, UserID: "u2", MessageIDs: ids, ReadAt: at,
	})
	req.NoError(err)

	decoded, err := DecodeEvent(decodeFrame(t, raw))
	req.NoError(err)
	update, ok := decoded.(event.MessagesReadUpdate)
	req.True(ok)
	req.Equal(roomID, update.Room)
	req.Equal("u2", update.UserID)
	req.Equal(ids, update.MessageIDs)
	req.True(at.Equal(update.ReadAt))
}

func TestEncodeEvent_Whiteboard_Round_Trip(t *testing.T) {
	req := require.New(t)
	roomID := domain.RoomID("design-review")
	el := domain.WhiteboardElement{
		ID:          uuid.New(),
		Room:        roomID,
		AuthorID:    "u1",
		Kind:        domain.ElementRectangle,
		Points:      []domain.Point{{X: 0, Y: 0}, {X: 10, Y: 20}},
		Color:       "#00ff00",
		StrokeWidth: 3,
	}

	raw, err := EncodeEvent(event.WhiteboardUpdate{Room: roomID, Elements: []domain.WhiteboardElement{el}})
	req.NoError(err)

	decoded, err := DecodeEvent(decodeFrame(t, raw))
	req.NoError(err)
	update, ok := decoded.(event.WhiteboardUpdate)
	req.True(ok)
	req.Equal([]domain.WhiteboardElement{el}, update.Elements)
}

func TestDecodeEvent_Ignores_Non_Event_Frames(t *testing.T) {
	req := require.New(t)

	decoded, err := DecodeEvent(Envelope{Type: TypeSearchResults, Payload: []byte(`{}`)})

	req.NoError(err)
	req.Nil(decoded)
}

func TestDecodeEvent_Malformed_Payload(t *testing.T) {
	req := require.New(t)

	_, err := DecodeEvent(Envelope{Type: TypeReceiveMessage, Payload: []byte(`{"id":"nope"}`)})

	req.Error(err)
}
