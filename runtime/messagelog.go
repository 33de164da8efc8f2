package runtime

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"roomsync/contract"
	"roomsync/domain"
)

// MessageLog is the ordered message store with idempotent read-receipt
// accumulation. Order within a room is server arrival order; the persisted
// key layout preserves it across restarts.
type MessageLog struct {
	mu    sync.Mutex
	store contract.IMessageRepository
	log   *slog.Logger
	byID  map[uuid.UUID]*domain.Message
}

func NewMessageLog(store contract.IMessageRepository, log *slog.Logger) *MessageLog {
	return &MessageLog{
		store: store,
		log:   log,
		byID:  make(map[uuid.UUID]*domain.Message),
	}
}

// Append assigns the server ID and timestamp, marks the sender as having
// read their own message, and persists. The message is only visible to
// MarkRead (and worth broadcasting) once persistence succeeded: on error
// nothing is retained and the caller must not broadcast.
func (l *MessageLog) Append(roomID domain.RoomID, sender domain.User, content, lang string,
	attachments []domain.Attachment, at time.Time) (domain.Message, error) {
	m := domain.Message{
		ID:          uuid.New(),
		Room:        roomID,
		SenderID:    sender.ID,
		SenderName:  sender.Name,
		Content:     content,
		Lang:        lang,
		Attachments: attachments,
		CreatedAt:   at,
		ReadBy:      map[string]time.Time{sender.ID: at},
	}

	if err := l.store.StoreMessage(m); err != nil {
		return domain.Message{}, fmt.Errorf("persisting message: %w", err)
	}

	l.mu.Lock()
	l.byID[m.ID] = &m
	l.mu.Unlock()

	return copyMessage(m), nil
}

// MarkRead adds (reader, at) to each message's receipt set and returns the
// IDs that were newly marked. Repeat calls with the same arguments change
// nothing and return an empty slice. Unknown IDs and IDs from other rooms
// are silently skipped to tolerate races with late history fetches.
func (l *MessageLog) MarkRead(roomID domain.RoomID, readerID string, messageIDs []uuid.UUID, at time.Time) []uuid.UUID {
	l.mu.Lock()
	defer l.mu.Unlock()

	var newly []uuid.UUID
	for _, id := range messageIDs {
		m, ok := l.byID[id]
		if !ok {
			// Messages appended before the last restart are only on disk.
			// Pull the record (persisted receipts included) so marking a
			// history-fetched message works and stays idempotent.
			fetched, err := l.store.GetMessage(roomID, id)
			if err != nil {
				continue
			}
			m = &fetched
			l.byID[id] = m
		}
		if m.Room != roomID {
			continue
		}
		if _, seen := m.ReadBy[readerID]; seen {
			continue
		}
		m.ReadBy[readerID] = at
		newly = append(newly, id)

		// Receipt persistence is idempotent at the storage layer too;
		// a failed write self-heals on the next mark of the same message.
		if err := l.store.StoreReceipt(roomID, id, readerID, at); err != nil {
			l.log.Warn("receipt not persisted",
				"room_id", roomID, "message_id", id, "user_id", readerID, "error", err)
		}
	}
	return newly
}

// Get returns a copy of a message currently held in memory.
func (l *MessageLog) Get(id uuid.UUID) (domain.Message, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.byID[id]
	if !ok {
		return domain.Message{}, false
	}
	return copyMessage(*m), true
}

// History pages through the persisted log, newest first.
func (l *MessageLog) History(roomID domain.RoomID, cursor *string) ([]domain.Message, *string, error) {
	return l.store.GetMessages(roomID, cursor)
}

func copyMessage(m domain.Message) domain.Message {
	readBy := make(map[string]time.Time, len(m.ReadBy))
	for userID, at := range m.ReadBy {
		readBy[userID] = at
	}
	m.ReadBy = readBy
	return m
}
