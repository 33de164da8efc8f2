package repositories

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"roomsync/domain"
	rserrors "roomsync/errors"
)

type MessageRepository struct {
	db            *badger.DB
	log           *slog.Logger
	limitMessages *int
}

func NewMessageRepository(db *badger.DB, log *slog.Logger, limitMessages *int) MessageRepository {
	return MessageRepository{db: db, log: log, limitMessages: limitMessages}
}

type diskMessage struct {
	ID          uuid.UUID           `json:"id"`
	Room        string              `json:"room"`
	SenderID    string              `json:"sender_id"`
	SenderName  string              `json:"sender_name"`
	Content     string              `json:"content"`
	Lang        string              `json:"lang,omitempty"`
	Attachments []domain.Attachment `json:"attachments,omitempty"`
	At          int64               `json:"at"`
}

// StoreMessage persists a message in BadgerDB.
// The key is formatted as "msg:{room_id}:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding
//     (lexicographical order).
//  2. Prevent data loss by using UUID as a collision disconnector if two
//     messages arrive at the same nanosecond.
//
// Read receipts live under their own keys (see StoreReceipt); message
// records are never rewritten.
func (m MessageRepository) StoreMessage(message domain.Message) error {
	key := messageKey(message.Room, message.CreatedAt, message.ID)
	bytes, err := json.Marshal(fromMessage(message))
	if err != nil {
		return err
	}
	return m.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), bytes)
	})
}

// StoreReceipt records one (reader, readAt) pair. The key embeds reader
// and message, so re-marking overwrites the same entry and stays
// idempotent at the storage layer.
func (m MessageRepository) StoreReceipt(roomID domain.RoomID, messageID uuid.UUID, userID string, at time.Time) error {
	key := fmt.Sprintf("rcpt:%s:%s:%s", roomID, messageID, userID)
	value := strconv.FormatInt(at.UnixNano(), 10)
	return m.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), []byte(value))
	})
}

// GetMessage looks one message up by ID. Keys embed the creation time,
// which a caller holding only the ID does not know, so the lookup scans
// the room's key range for the ID suffix. Persisted receipts are merged
// in before the message is returned.
func (m MessageRepository) GetMessage(roomID domain.RoomID, id uuid.UUID) (domain.Message, error) {
	prefix := []byte(fmt.Sprintf("msg:%s:", roomID))
	suffix := []byte(":" + id.String())
	var raw []byte
	err := m.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			if !bytes.HasSuffix(item.Key(), suffix) {
				continue
			}
			return item.Value(func(value []byte) error {
				raw = append([]byte(nil), value...)
				return nil
			})
		}
		return nil
	})
	if err != nil {
		return domain.Message{}, err
	}
	if raw == nil {
		return domain.Message{}, fmt.Errorf("%w: %s", rserrors.ErrMessageNotFound, id)
	}

	var dm diskMessage
	if err = json.Unmarshal(raw, &dm); err != nil {
		return domain.Message{}, err
	}
	message := toMessage(dm)
	if err = m.mergeReceipts(&message); err != nil {
		return domain.Message{}, err
	}
	return message, nil
}

// GetMessages retrieves messages for a specific room using a prefix scan.
// Thanks to the padded timestamp in the key, messages are naturally sorted
// by time; iteration runs in reverse so pages come newest first. It stops
// collecting once the configured limitMessages is reached and returns an
// opaque cursor for the next page. Persisted receipts are merged into each
// message before it is returned.
func (m MessageRepository) GetMessages(roomID domain.RoomID, cursor *string) ([]domain.Message, *string, error) {
	var rawMessages [][]byte
	var lastKey string
	err := m.db.View(func(txn *badger.Txn) error {
		prefixStr := fmt.Sprintf("msg:%s:", roomID)
		prefix := []byte(prefixStr)
		prefixLen := len(prefixStr)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		var seekKey []byte
		switch cursor {
		case nil:
			// Seek past the newest possible key, then walk backwards.
			seekKey = append(prefix, []byte("9999999999999999999")...)
		default:
			seekKey = append(prefix, []byte(*cursor)...)
		}

		it.Seek(seekKey)

		if cursor != nil && it.ValidForPrefix(prefix) {
			it.Next()
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if m.limitMessages != nil && len(rawMessages) == *m.limitMessages {
				m.log.Debug(fmt.Sprintf("Maximum of %d messages reached", *m.limitMessages))
				break
			}
			item := it.Item()
			// Memorize cursor part of the actual key
			lastKey = string(item.Key()[prefixLen:])
			err := item.Value(func(value []byte) error {
				rawMessages = append(rawMessages, append([]byte(nil), value...))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	var messages []domain.Message
	for _, raw := range rawMessages {
		var dm diskMessage
		if err = json.Unmarshal(raw, &dm); err != nil {
			return nil, nil, err
		}
		message := toMessage(dm)
		if err = m.mergeReceipts(&message); err != nil {
			return nil, nil, err
		}
		messages = append(messages, message)
	}
	return messages, &lastKey, nil
}

func (m MessageRepository) mergeReceipts(message *domain.Message) error {
	prefix := []byte(fmt.Sprintf("rcpt:%s:%s:", message.Room, message.ID))
	return m.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			userID := string(item.Key()[len(prefix):])
			err := item.Value(func(value []byte) error {
				nanos, parseErr := strconv.ParseInt(string(value), 10, 64)
				if parseErr != nil {
					return parseErr
				}
				message.ReadBy[userID] = time.Unix(0, nanos).UTC()
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func messageKey(roomID domain.RoomID, at time.Time, id uuid.UUID) string {
	return fmt.Sprintf("msg:%s:%019d:%s", roomID, at.UnixNano(), id)
}

func fromMessage(message domain.Message) diskMessage {
	return diskMessage{
		ID:          message.ID,
		Room:        string(message.Room),
		SenderID:    message.SenderID,
		SenderName:  message.SenderName,
		Content:     message.Content,
		Lang:        message.Lang,
		Attachments: message.Attachments,
		At:          message.CreatedAt.UnixNano(),
	}
}

func toMessage(dm diskMessage) domain.Message {
	at := time.Unix(0, dm.At).UTC()
	return domain.Message{
		ID:          dm.ID,
		Room:        domain.RoomID(dm.Room),
		SenderID:    dm.SenderID,
		SenderName:  dm.SenderName,
		Content:     dm.Content,
		Lang:        dm.Lang,
		Attachments: dm.Attachments,
		CreatedAt:   at,
		ReadBy:      map[string]time.Time{dm.SenderID: at},
	}
}
