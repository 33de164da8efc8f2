package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/samber/lo"

	"roomsync/domain"
	"roomsync/runtime"
	"roomsync/services"
	"roomsync/sink"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20
)

// client is one live websocket connection bound to a session. Frames it
// receives are dispatched to the room service; events the broadcaster
// pushes into its sink are encoded and written back.
type client struct {
	log     *slog.Logger
	conn    *websocket.Conn
	rooms   *services.RoomService
	session *runtime.Session
	sink    *sink.ConnSink

	// replies carries request-scoped responses (pages, search results,
	// errors) so they share the single writer with broadcast events.
	replies chan []byte
}

func (c *client) readPump(ctx context.Context) {
	defer c.conn.Close()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn("websocket read failed", "session_id", c.session.ID, "error", err)
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			c.reply(encodeError("malformed frame"))
			continue
		}
		c.dispatch(ctx, env)
	}
}

func (c *client) dispatch(ctx context.Context, env Envelope) {
	switch env.Type {
	case TypeJoinRoom:
		var p RoomPayload
		if !c.decode(env, &p) {
			return
		}
		if err := c.rooms.JoinRoom(ctx, c.session, domain.RoomID(p.RoomID)); err != nil {
			c.reply(encodeError(err.Error()))
		}

	case TypeLeaveRoom:
		var p RoomPayload
		if !c.decode(env, &p) {
			return
		}
		c.rooms.LeaveRoom(ctx, c.session, domain.RoomID(p.RoomID))

	case TypeSendMessage:
		var p SendMessagePayload
		if !c.decode(env, &p) {
			return
		}
		attachments := lo.Map(p.Attachments, func(a WireAttachment, _ int) domain.Attachment {
			return domain.Attachment{Name: a.Name, Size: a.Size, URL: a.URL, Data: a.Data}
		})
		if _, err := c.rooms.PostMessage(ctx, c.session, domain.RoomID(p.RoomID), p.Content, attachments); err != nil {
			c.reply(encodeError(err.Error()))
		}

	case TypeMarkMessagesRead:
		var p MarkReadPayload
		if !c.decode(env, &p) {
			return
		}
		ids := make([]uuid.UUID, 0, len(p.MessageIDs))
		for _, raw := range p.MessageIDs {
			id, err := uuid.Parse(raw)
			if err != nil {
				continue // unknown IDs are a silent no-op, malformed ones too
			}
			ids = append(ids, id)
		}
		c.rooms.MarkRead(ctx, c.session, domain.RoomID(p.RoomID), ids)

	case TypeTypingStart:
		var p RoomPayload
		if !c.decode(env, &p) {
			return
		}
		c.rooms.TypingStart(ctx, c.session, domain.RoomID(p.RoomID))

	case TypeTypingStop:
		var p RoomPayload
		if !c.decode(env, &p) {
			return
		}
		c.rooms.TypingStop(ctx, c.session, domain.RoomID(p.RoomID))

	case TypeWhiteboardStroke:
		var p StrokePayload
		if !c.decode(env, &p) {
			return
		}
		c.rooms.ApplyStroke(ctx, c.session, domain.RoomID(p.RoomID), domain.WhiteboardElement{
			Kind:        domain.ElementKind(p.Kind),
			Points:      p.Points,
			Color:       p.Color,
			StrokeWidth: p.StrokeWidth,
		})

	case TypeWhiteboardClear:
		var p RoomPayload
		if !c.decode(env, &p) {
			return
		}
		if err := c.rooms.ClearWhiteboard(ctx, c.session, domain.RoomID(p.RoomID)); err != nil {
			c.reply(encodeError(err.Error()))
		}

	case TypeGetMessages:
		var p GetMessagesPayload
		if !c.decode(env, &p) {
			return
		}
		messages, next, err := c.rooms.GetMessages(domain.RoomID(p.RoomID), p.Cursor)
		if err != nil {
			c.reply(encodeError(err.Error()))
			return
		}
		c.reply(encodeMessagePage(domain.RoomID(p.RoomID), messages, next))

	case TypeSearchMessages:
		var p SearchPayload
		if !c.decode(env, &p) {
			return
		}
		hits, err := c.rooms.SearchMessages(ctx, domain.RoomID(p.RoomID), p.Query)
		if err != nil {
			c.reply(encodeError(err.Error()))
			return
		}
		c.reply(encodeSearchResults(domain.RoomID(p.RoomID), hits))

	default:
		c.reply(encodeError("unknown frame type: " + env.Type))
	}
}

func (c *client) decode(env Envelope, into any) bool {
	if err := json.Unmarshal(env.Payload, into); err != nil {
		c.reply(encodeError("malformed " + env.Type + " payload"))
		return false
	}
	return true
}

func (c *client) reply(frame []byte, err error) {
	if err != nil {
		c.log.Error("frame encoding failed", "session_id", c.session.ID, "error", err)
		return
	}
	select {
	case c.replies <- frame:
	default:
		c.log.Warn("reply dropped, buffer full", "session_id", c.session.ID)
	}
}

func (c *client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case e := <-c.sink.Events:
			frame, err := EncodeEvent(e)
			if err != nil {
				c.log.Error("event encoding failed", "session_id", c.session.ID, "error", err)
				continue
			}
			if !c.write(frame) {
				return
			}
		case frame := <-c.replies:
			if !c.write(frame) {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-ctx.Done():
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return
		}
	}
}

func (c *client) write(frame []byte) bool {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		c.log.Warn("websocket write failed", "session_id", c.session.ID, "error", err)
		return false
	}
	return true
}
