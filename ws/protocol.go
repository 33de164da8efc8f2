// Package ws is the websocket transport. It translates wire frames into
// service calls and domain events into wire frames; all room semantics
// live behind the service facade.
package ws

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"roomsync/domain"
	"roomsync/domain/event"
	"roomsync/search"
)

// Inbound frame types.
const (
	TypeJoinRoom         = "join-room"
	TypeLeaveRoom        = "leave-room"
	TypeSendMessage      = "send-message"
	TypeMarkMessagesRead = "mark-messages-read"
	TypeTypingStart      = "typing-start"
	TypeTypingStop       = "typing-stop"
	TypeWhiteboardStroke = "whiteboard-stroke"
	TypeWhiteboardClear  = "whiteboard-clear"
	TypeGetMessages      = "get-messages"
	TypeSearchMessages   = "search-messages"
)

// Outbound frame types.
const (
	TypeUserJoined         = "user-joined-notification"
	TypeUserLeft           = "user-left-notification"
	TypeRoomUsersUpdate    = "room-users-update"
	TypeReceiveMessage     = "receive-message"
	TypeMessagesReadUpdate = "messages-read-update"
	TypeUserTyping         = "user-typing"
	TypeUserStoppedTyping  = "user-stopped-typing"
	TypeWhiteboardUpdate   = "whiteboard:update"
	TypeWhiteboardCleared  = "whiteboard:cleared"
	TypeMessagePage        = "message-page"
	TypeSearchResults      = "search-results"
	TypeError              = "error"
)

// Envelope is the single wire shape in both directions. Payload is decoded
// according to Type.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type RoomPayload struct {
	RoomID string `json:"roomId"`
}

type SendMessagePayload struct {
	RoomID      string           `json:"roomId"`
	Content     string           `json:"content"`
	Attachments []WireAttachment `json:"attachments,omitempty"`
}

type WireAttachment struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	URL  string `json:"url,omitempty"`
	Data []byte `json:"data,omitempty"`
}

type MarkReadPayload struct {
	RoomID     string   `json:"roomId"`
	MessageIDs []string `json:"messageIds"`
}

type StrokePayload struct {
	RoomID      string         `json:"roomId"`
	Kind        string         `json:"kind"`
	Points      []domain.Point `json:"points"`
	Color       string         `json:"color"`
	StrokeWidth float64        `json:"strokeWidth"`
}

type GetMessagesPayload struct {
	RoomID string  `json:"roomId"`
	Cursor *string `json:"cursor,omitempty"`
}

type SearchPayload struct {
	RoomID string `json:"roomId"`
	Query  string `json:"query"`
}

type WireUser struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type WireMessage struct {
	ID          string            `json:"id"`
	RoomID      string            `json:"roomId"`
	SenderID    string            `json:"senderId"`
	SenderName  string            `json:"senderName"`
	Content     string            `json:"content"`
	Lang        string            `json:"lang,omitempty"`
	Attachments []WireAttachment  `json:"attachments,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
	ReadBy      map[string]string `json:"readBy"`
}

type WireElement struct {
	ID          string         `json:"id"`
	AuthorID    string         `json:"authorId"`
	Kind        string         `json:"kind"`
	Points      []domain.Point `json:"points"`
	Color       string         `json:"color"`
	StrokeWidth float64        `json:"strokeWidth"`
}

func toWireUser(u domain.User) WireUser {
	return WireUser{ID: u.ID, Name: u.Name}
}

func toWireMessage(m domain.Message) WireMessage {
	readBy := make(map[string]string, len(m.ReadBy))
	for userID, at := range m.ReadBy {
		readBy[userID] = at.Format(time.RFC3339Nano)
	}
	return WireMessage{
		ID:         m.ID.String(),
		RoomID:     string(m.Room),
		SenderID:   m.SenderID,
		SenderName: m.SenderName,
		Content:    m.Content,
		Lang:       m.Lang,
		Attachments: lo.Map(m.Attachments, func(a domain.Attachment, _ int) WireAttachment {
			return WireAttachment{Name: a.Name, Size: a.Size, URL: a.URL}
		}),
		CreatedAt: m.CreatedAt,
		ReadBy:    readBy,
	}
}

func toWireElement(el domain.WhiteboardElement) WireElement {
	return WireElement{
		ID:          el.ID.String(),
		AuthorID:    el.AuthorID,
		Kind:        string(el.Kind),
		Points:      el.Points,
		Color:       el.Color,
		StrokeWidth: el.StrokeWidth,
	}
}

func marshalEnvelope(frameType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", frameType, err)
	}
	return json.Marshal(Envelope{Type: frameType, Payload: raw})
}

// EncodeEvent maps a domain event onto its wire frame.
func EncodeEvent(e event.DomainEvent) ([]byte, error) {
	switch evt := e.(type) {
	case event.UserJoined:
		return marshalEnvelope(TypeUserJoined, map[string]any{
			"roomId":  string(evt.Room),
			"user":    toWireUser(evt.User),
			"title":   evt.Title,
			"message": evt.Message,
		})
	case event.UserLeft:
		return marshalEnvelope(TypeUserLeft, map[string]any{
			"roomId":  string(evt.Room),
			"user":    toWireUser(evt.User),
			"title":   evt.Title,
			"message": evt.Message,
		})
	case event.RoomUsersUpdate:
		return marshalEnvelope(TypeRoomUsersUpdate, map[string]any{
			"roomId": string(evt.Room),
			"users":  lo.Map(evt.Users, func(u domain.User, _ int) WireUser { return toWireUser(u) }),
		})
	case event.MessageReceived:
		return marshalEnvelope(TypeReceiveMessage, toWireMessage(evt.Message))
	case event.MessagesReadUpdate:
		return marshalEnvelope(TypeMessagesReadUpdate, map[string]any{
			"roomId": string(evt.Room),
			"userId": evt.UserID,
			"messageIds": lo.Map(evt.MessageIDs, func(id uuid.UUID, _ int) string {
				return id.String()
			}),
			"readAt": evt.ReadAt,
		})
	case event.UserTyping:
		return marshalEnvelope(TypeUserTyping, map[string]any{
			"roomId": string(evt.Room),
			"user":   toWireUser(evt.User),
		})
	case event.UserStoppedTyping:
		return marshalEnvelope(TypeUserStoppedTyping, map[string]any{
			"roomId": string(evt.Room),
			"user":   toWireUser(evt.User),
		})
	case event.WhiteboardUpdate:
		return marshalEnvelope(TypeWhiteboardUpdate, map[string]any{
			"roomId": string(evt.Room),
			"elements": lo.Map(evt.Elements, func(el domain.WhiteboardElement, _ int) WireElement {
				return toWireElement(el)
			}),
		})
	case event.WhiteboardCleared:
		return marshalEnvelope(TypeWhiteboardCleared, map[string]any{
			"roomId":    string(evt.Room),
			"clearedBy": evt.ClearedBy,
		})
	default:
		return nil, fmt.Errorf("no wire mapping for event %T", e)
	}
}

// DecodeEvent is the client-side inverse of EncodeEvent. Frames that do
// not map onto a domain event (pages, search results, errors) return nil
// with no error; callers handle those by frame type.
func DecodeEvent(env Envelope) (event.DomainEvent, error) {
	switch env.Type {
	case TypeUserJoined, TypeUserLeft:
		var p struct {
			RoomID  string   `json:"roomId"`
			User    WireUser `json:"user"`
			Title   string   `json:"title"`
			Message string   `json:"message"`
		}
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return nil, err
		}
		user := domain.User{ID: p.User.ID, Name: p.User.Name}
		if env.Type == TypeUserJoined {
			return event.UserJoined{Room: domain.RoomID(p.RoomID), User: user, Title: p.Title, Message: p.Message}, nil
		}
		return event.UserLeft{Room: domain.RoomID(p.RoomID), User: user, Title: p.Title, Message: p.Message}, nil

	case TypeRoomUsersUpdate:
		var p struct {
			RoomID string     `json:"roomId"`
			Users  []WireUser `json:"users"`
		}
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return nil, err
		}
		return event.RoomUsersUpdate{
			Room: domain.RoomID(p.RoomID),
			Users: lo.Map(p.Users, func(u WireUser, _ int) domain.User {
				return domain.User{ID: u.ID, Name: u.Name}
			}),
		}, nil

	case TypeReceiveMessage:
		var p WireMessage
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return nil, err
		}
		m, err := fromWireMessage(p)
		if err != nil {
			return nil, err
		}
		return event.MessageReceived{Message: m}, nil

	case TypeMessagesReadUpdate:
		var p struct {
			RoomID     string    `json:"roomId"`
			UserID     string    `json:"userId"`
			MessageIDs []string  `json:"messageIds"`
			ReadAt     time.Time `json:"readAt"`
		}
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return nil, err
		}
		ids := make([]uuid.UUID, 0, len(p.MessageIDs))
		for _, raw := range p.MessageIDs {
			id, err := uuid.Parse(raw)
			if err != nil {
				return nil, fmt.Errorf("malformed message id %q: %w", raw, err)
			}
			ids = append(ids, id)
		}
		return event.MessagesReadUpdate{
			Room: domain.RoomID(p.RoomID), UserID: p.UserID, MessageIDs: ids, ReadAt: p.ReadAt,
		}, nil

	case TypeUserTyping, TypeUserStoppedTyping:
		var p struct {
			RoomID string   `json:"roomId"`
			User   WireUser `json:"user"`
		}
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return nil, err
		}
		user := domain.User{ID: p.User.ID, Name: p.User.Name}
		if env.Type == TypeUserTyping {
			return event.UserTyping{Room: domain.RoomID(p.RoomID), User: user}, nil
		}
		return event.UserStoppedTyping{Room: domain.RoomID(p.RoomID), User: user}, nil

	case TypeWhiteboardUpdate:
		var p struct {
			RoomID   string        `json:"roomId"`
			Elements []WireElement `json:"elements"`
		}
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return nil, err
		}
		elements := make([]domain.WhiteboardElement, 0, len(p.Elements))
		for _, el := range p.Elements {
			id, err := uuid.Parse(el.ID)
			if err != nil {
				return nil, fmt.Errorf("malformed element id %q: %w", el.ID, err)
			}
			elements = append(elements, domain.WhiteboardElement{
				ID:          id,
				Room:        domain.RoomID(p.RoomID),
				AuthorID:    el.AuthorID,
				Kind:        domain.ElementKind(el.Kind),
				Points:      el.Points,
				Color:       el.Color,
				StrokeWidth: el.StrokeWidth,
			})
		}
		return event.WhiteboardUpdate{Room: domain.RoomID(p.RoomID), Elements: elements}, nil

	case TypeWhiteboardCleared:
		var p struct {
			RoomID    string `json:"roomId"`
			ClearedBy string `json:"clearedBy"`
		}
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return nil, err
		}
		return event.WhiteboardCleared{Room: domain.RoomID(p.RoomID), ClearedBy: p.ClearedBy}, nil
	}
	return nil, nil
}

func fromWireMessage(w WireMessage) (domain.Message, error) {
	id, err := uuid.Parse(w.ID)
	if err != nil {
		return domain.Message{}, fmt.Errorf("malformed message id %q: %w", w.ID, err)
	}
	readBy := make(map[string]time.Time, len(w.ReadBy))
	for userID, raw := range w.ReadBy {
		at, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return domain.Message{}, fmt.Errorf("malformed receipt time %q: %w", raw, err)
		}
		readBy[userID] = at
	}
	return domain.Message{
		ID:         id,
		Room:       domain.RoomID(w.RoomID),
		SenderID:   w.SenderID,
		SenderName: w.SenderName,
		Content:    w.Content,
		Lang:       w.Lang,
		Attachments: lo.Map(w.Attachments, func(a WireAttachment, _ int) domain.Attachment {
			return domain.Attachment{Name: a.Name, Size: a.Size, URL: a.URL}
		}),
		CreatedAt: w.CreatedAt,
		ReadBy:    readBy,
	}, nil
}

func encodeMessagePage(roomID domain.RoomID, messages []domain.Message, cursor *string) ([]byte, error) {
	return marshalEnvelope(TypeMessagePage, map[string]any{
		"roomId":     string(roomID),
		"messages":   lo.Map(messages, func(m domain.Message, _ int) WireMessage { return toWireMessage(m) }),
		"nextCursor": cursor,
	})
}

func encodeSearchResults(roomID domain.RoomID, hits []search.Hit) ([]byte, error) {
	return marshalEnvelope(TypeSearchResults, map[string]any{
		"roomId": string(roomID),
		"hits": lo.Map(hits, func(h search.Hit, _ int) map[string]any {
			return map[string]any{
				"messageId": h.MessageID.String(),
				"author":    h.Author,
				"content":   h.Content,
				"at":        h.At,
				"score":     h.Score,
			}
		}),
	})
}

func encodeError(message string) ([]byte, error) {
	return marshalEnvelope(TypeError, map[string]any{"message": message})
}
