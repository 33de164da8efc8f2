// Package runtime owns the shared room state and how changes to it
// propagate to connected sessions. It contains no transport or UI logic.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"roomsync/contract"
	"roomsync/domain"
	"roomsync/domain/event"
	"roomsync/domain/mimetypes"
	rserrors "roomsync/errors"
	"roomsync/moderation"
	"roomsync/search"
)

// AllowAll is the default RoomAuthorizer: every authenticated user may
// enter every room. Closed rooms plug in a real collaborator instead.
type AllowAll struct{}

func (AllowAll) Authorize(context.Context, domain.User, domain.RoomID) error { return nil }

// Orchestrator coordinates the registry, presence, message log, typing
// tracker and whiteboard for all rooms. Membership changes and the
// broadcasts they trigger are serialized per room: a session that just
// left cannot receive a broadcast issued after its departure, and a
// session that just joined receives everything issued after its join.
// Different rooms proceed fully in parallel.
type Orchestrator struct {
	log         *slog.Logger
	registry    *Registry
	presence    *Presence
	broadcaster *Broadcaster
	messages    *MessageLog
	typing      *TypingTracker
	whiteboard  *Whiteboard
	activity    contract.IActivityRepository
	authorizer  contract.RoomAuthorizer
	moderator   *moderation.Moderator
	index       *search.Index

	maxContentLength  int
	maxAttachmentSize int64

	mu    sync.Mutex
	locks map[domain.RoomID]*sync.Mutex

	now func() time.Time
}

type OrchestratorOptions struct {
	Registry          *Registry
	MessageStore      contract.IMessageRepository
	WhiteboardStore   contract.IWhiteboardRepository
	Activity          contract.IActivityRepository
	Authorizer        contract.RoomAuthorizer
	Moderator         *moderation.Moderator
	Index             *search.Index
	TypingTTL         time.Duration
	DeliveryTimeout   time.Duration
	MaxContentLength  int
	MaxAttachmentSize int64
}

func NewOrchestrator(log *slog.Logger, opts OrchestratorOptions) *Orchestrator {
	registry := opts.Registry
	if registry == nil {
		registry = NewRegistry()
	}
	authorizer := opts.Authorizer
	if authorizer == nil {
		authorizer = AllowAll{}
	}
	return &Orchestrator{
		log:               log,
		registry:          registry,
		presence:          NewPresence(),
		broadcaster:       NewBroadcaster(registry, log, opts.DeliveryTimeout),
		messages:          NewMessageLog(opts.MessageStore, log),
		typing:            NewTypingTracker(opts.TypingTTL),
		whiteboard:        NewWhiteboard(opts.WhiteboardStore, log),
		activity:          opts.Activity,
		authorizer:        authorizer,
		moderator:         opts.Moderator,
		index:             opts.Index,
		maxContentLength:  opts.MaxContentLength,
		maxAttachmentSize: opts.MaxAttachmentSize,
		locks:             make(map[domain.RoomID]*sync.Mutex),
		now:               time.Now,
	}
}

// Connect registers a new session for an authenticated user. The session
// holds no room membership until it joins one.
func (o *Orchestrator) Connect(user domain.User, sink contract.EventSink) *Session {
	s := NewSession(user, sink)
	o.registry.Register(s)
	o.log.Debug("session connected", "session_id", s.ID, "user_id", user.ID)
	return s
}

// Disconnect cascades a leave for every room the session held, each run
// exactly once, then drops the session from the directory. The session's
// typing and presence entries go with it; nothing survives for a reconnect.
func (o *Orchestrator) Disconnect(ctx context.Context, s *Session) {
	for _, roomID := range o.registry.Rooms(s.ID) {
		o.LeaveRoom(ctx, s, roomID)
	}
	o.registry.Unregister(s.ID)
	o.log.Debug("session disconnected", "session_id", s.ID, "user_id", s.User.ID)
}

// JoinRoom admits the session to the room. Re-joining is a no-op. The
// joiner first receives the member list as it stood, then everyone
// (joiner included) receives the post-join full snapshot.
func (o *Orchestrator) JoinRoom(ctx context.Context, s *Session, roomID domain.RoomID) error {
	if err := o.authorizer.Authorize(ctx, s.User, roomID); err != nil {
		return fmt.Errorf("%w: %v", rserrors.ErrNotAuthorized, err)
	}

	lock := o.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	if !o.registry.Join(s, roomID) {
		return nil
	}

	before := o.presence.Snapshot(roomID)
	first := o.presence.Add(roomID, s.User)

	if err := s.Deliver(ctx, event.RoomUsersUpdate{Room: roomID, Users: before}); err != nil {
		o.log.Warn("snapshot not delivered to joiner", "session_id", s.ID, "error", err)
	}

	if first {
		o.broadcaster.Notify(ctx, event.UserJoined{
			Room:    roomID,
			User:    s.User,
			Title:   "User joined",
			Message: fmt.Sprintf("%s joined the room", s.User.Name),
		}, s.ID)
		o.broadcaster.Notify(ctx, event.RoomUsersUpdate{Room: roomID, Users: o.presence.Snapshot(roomID)})
	}

	o.recordActivity(roomID, domain.ActivityJoined, s.User.ID, "")
	return nil
}

// LeaveRoom removes the session from the room. Idempotent; remaining
// members get the leave notification and an updated snapshot only when the
// user is actually gone (their last session in the room left).
func (o *Orchestrator) LeaveRoom(ctx context.Context, s *Session, roomID domain.RoomID) {
	lock := o.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	if !o.registry.Leave(s.ID, roomID) {
		return
	}

	gone := o.presence.Remove(roomID, s.User.ID)
	if !gone {
		return
	}

	if u, wasTyping := o.typing.Stop(roomID, s.User.ID); wasTyping {
		o.broadcaster.Notify(ctx, event.UserStoppedTyping{Room: roomID, User: u}, s.ID)
	}

	o.broadcaster.Notify(ctx, event.UserLeft{
		Room:    roomID,
		User:    s.User,
		Title:   "User left",
		Message: fmt.Sprintf("%s left the room", s.User.Name),
	}, s.ID)
	o.broadcaster.Notify(ctx, event.RoomUsersUpdate{Room: roomID, Users: o.presence.Snapshot(roomID)}, s.ID)

	o.recordActivity(roomID, domain.ActivityLeft, s.User.ID, "")
}

// PostMessage validates, moderates, persists and only then broadcasts the
// message. A persistence failure surfaces to the caller and suppresses the
// broadcast: no client may observe a message that never durably existed.
func (o *Orchestrator) PostMessage(ctx context.Context, s *Session, roomID domain.RoomID,
	content string, attachments []domain.Attachment) (domain.Message, error) {
	if strings.TrimSpace(content) == "" {
		return domain.Message{}, rserrors.ErrEmptyContent
	}
	if o.maxContentLength > 0 && len(content) > o.maxContentLength {
		return domain.Message{}, rserrors.ErrContentTooLong
	}
	for i, a := range attachments {
		if o.maxAttachmentSize > 0 && a.Size > o.maxAttachmentSize {
			return domain.Message{}, fmt.Errorf("%w: %s (%d bytes)", rserrors.ErrAttachmentTooLarge, a.Name, a.Size)
		}
		if len(a.Data) == 0 {
			continue
		}
		// Inline payloads get their type from the bytes, not the client.
		detected := mimetypes.Sniff(a.Data)
		if !mimetypes.Allowed(detected) {
			return domain.Message{}, fmt.Errorf("%w: %s (%s)", rserrors.ErrAttachmentForbidden, a.Name, detected)
		}
		attachments[i].MimeType = string(detected)
	}

	lang := moderation.DetectLanguage(content)
	if o.moderator != nil {
		sanitized, found := o.moderator.Censor(content)
		if len(found) > 0 {
			o.log.Info("message censored",
				"room_id", roomID, "user_id", s.User.ID, "words", len(found), "lang", lang)
		}
		content = sanitized
	}

	lock := o.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	m, err := o.messages.Append(roomID, s.User, content, lang, attachments, o.now().UTC())
	if err != nil {
		return domain.Message{}, err
	}

	if o.index != nil {
		if err := o.index.IndexMessage(m); err != nil {
			o.log.Warn("message not indexed", "message_id", m.ID, "error", err)
		}
	}

	o.broadcaster.Notify(ctx, event.MessageReceived{Message: m})
	o.recordActivity(roomID, domain.ActivityMessage, s.User.ID, m.ID.String())
	return m, nil
}

// MarkRead accumulates read receipts for the reader and broadcasts one
// aggregated update carrying only the newly marked IDs. Re-marking and
// unknown IDs are silent no-ops; nothing is broadcast when no receipt
// actually changed.
func (o *Orchestrator) MarkRead(ctx context.Context, s *Session, roomID domain.RoomID, messageIDs []uuid.UUID) {
	lock := o.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	at := o.now().UTC()
	newly := o.messages.MarkRead(roomID, s.User.ID, messageIDs, at)
	if len(newly) == 0 {
		return
	}

	o.broadcaster.Notify(ctx, event.MessagesReadUpdate{
		Room:       roomID,
		UserID:     s.User.ID,
		MessageIDs: newly,
		ReadAt:     at,
	})
}

// TypingStart inserts or refreshes the typing entry; only the
// absent-to-present transition is broadcast.
func (o *Orchestrator) TypingStart(ctx context.Context, s *Session, roomID domain.RoomID) {
	lock := o.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	if o.typing.Start(roomID, s.User) {
		o.broadcaster.Notify(ctx, event.UserTyping{Room: roomID, User: s.User}, s.ID)
	}
}

// TypingStop removes the entry and broadcasts immediately.
func (o *Orchestrator) TypingStop(ctx context.Context, s *Session, roomID domain.RoomID) {
	lock := o.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	if u, ok := o.typing.Stop(roomID, s.User.ID); ok {
		o.broadcaster.Notify(ctx, event.UserStoppedTyping{Room: roomID, User: u}, s.ID)
	}
}

// SweepTyping removes every expired typing entry and broadcasts exactly
// one stop event per removal. Covers clients that vanish mid-typing
// without an explicit stop. Called by the sweeper worker.
func (o *Orchestrator) SweepTyping(ctx context.Context) {
	now := o.now()
	for _, c := range o.typing.Candidates(now) {
		lock := o.roomLock(c.Room)
		lock.Lock()
		// The deadline is re-checked under the room lock: a typing-start
		// racing the sweep refreshed the entry, and a stale stop after its
		// start broadcast would leave clients showing the user as idle.
		if u, ok := o.typing.Reap(c.Room, c.User.ID, now); ok {
			o.broadcaster.Notify(ctx, event.UserStoppedTyping{Room: c.Room, User: u})
		}
		lock.Unlock()
	}
}

// ApplyStroke appends the element in server-receive order and broadcasts
// the full updated list.
func (o *Orchestrator) ApplyStroke(ctx context.Context, s *Session, roomID domain.RoomID,
	element domain.WhiteboardElement) domain.WhiteboardElement {
	element.ID = uuid.New()
	element.Room = roomID
	element.AuthorID = s.User.ID

	lock := o.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	elements := o.whiteboard.ApplyStroke(element)
	o.broadcaster.Notify(ctx, event.WhiteboardUpdate{Room: roomID, Elements: elements})
	return element
}

// ClearWhiteboard atomically empties the room's board and broadcasts the
// clear. Any stroke applied afterwards is observed strictly after it.
func (o *Orchestrator) ClearWhiteboard(ctx context.Context, s *Session, roomID domain.RoomID) error {
	lock := o.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	if err := o.whiteboard.Clear(roomID); err != nil {
		return err
	}
	o.broadcaster.Notify(ctx, event.WhiteboardCleared{Room: roomID, ClearedBy: s.User.ID})
	return nil
}

// WhiteboardElements returns the room's current ordered element list,
// for the initial sync of a freshly joined client.
func (o *Orchestrator) WhiteboardElements(roomID domain.RoomID) []domain.WhiteboardElement {
	return o.whiteboard.Elements(roomID)
}

// PresenceSnapshot computes the current member list on demand.
func (o *Orchestrator) PresenceSnapshot(roomID domain.RoomID) []domain.User {
	return o.presence.Snapshot(roomID)
}

// GetMessages pages through the persisted log, newest first.
func (o *Orchestrator) GetMessages(roomID domain.RoomID, cursor *string) ([]domain.Message, *string, error) {
	return o.messages.History(roomID, cursor)
}

// SearchMessages runs a full-text query over the room's history.
func (o *Orchestrator) SearchMessages(ctx context.Context, roomID domain.RoomID, raw string) ([]search.Hit, error) {
	if o.index == nil {
		return nil, nil
	}
	query := search.NewQuery(raw)
	if query.RoomID == "" {
		query.RoomID = string(roomID)
	}
	return o.index.Search(ctx, query)
}

// recordActivity appends to the activity log best-effort: failures are
// swallowed so the audit trail never blocks or fails the hot path.
func (o *Orchestrator) recordActivity(roomID domain.RoomID, kind domain.ActivityKind, userID, detail string) {
	if o.activity == nil {
		return
	}
	err := o.activity.Record(domain.Activity{
		ID:     uuid.New(),
		Room:   roomID,
		Kind:   kind,
		UserID: userID,
		Detail: detail,
		At:     o.now().UTC(),
	})
	if err != nil {
		o.log.Debug("activity not recorded", "room_id", roomID, "kind", kind, "error", err)
	}
}

func (o *Orchestrator) roomLock(roomID domain.RoomID) *sync.Mutex {
	o.mu.Lock()
	defer o.mu.Unlock()
	lock, ok := o.locks[roomID]
	if !ok {
		lock = &sync.Mutex{}
		o.locks[roomID] = lock
	}
	return lock
}
