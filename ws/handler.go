package ws

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"roomsync/services"
	"roomsync/sink"
)

const defaultEventBufferSize = 256

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// Token auth guards the endpoint; origins are not restricted.
		return true
	},
}

// Handler upgrades authenticated HTTP requests to websocket sessions.
type Handler struct {
	log        *slog.Logger
	rooms      *services.RoomService
	auth       services.IAuthService
	bufferSize int
}

func NewHandler(log *slog.Logger, rooms *services.RoomService, auth services.IAuthService, bufferSize int) *Handler {
	if bufferSize <= 0 {
		bufferSize = defaultEventBufferSize
	}
	return &Handler{log: log, rooms: rooms, auth: auth, bufferSize: bufferSize}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = r.Header.Get("Authorization")
	}
	user, err := h.auth.Verify(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	connSink := sink.NewConnSink(h.bufferSize)
	session := h.rooms.Connect(user, connSink)
	h.log.Info("session connected",
		"session_id", session.ID, "user_id", user.ID, "remote_addr", r.RemoteAddr)

	c := &client{
		log:     h.log,
		conn:    conn,
		rooms:   h.rooms,
		session: session,
		sink:    connSink,
		replies: make(chan []byte, 64),
	}

	ctx := r.Context()
	go c.writePump(ctx)
	// The read pump owns the connection lifetime: when it returns the
	// session is torn down and every room membership released.
	c.readPump(ctx)

	h.rooms.Disconnect(ctx, session)
	h.log.Info("session disconnected", "session_id", session.ID, "user_id", user.ID)
}
