package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"roomsync/domain"
)

type WhiteboardRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewWhiteboardRepository(db *badger.DB, log *slog.Logger) WhiteboardRepository {
	return WhiteboardRepository{db: db, log: log}
}

type diskElement struct {
	ID          uuid.UUID      `json:"id"`
	Room        string         `json:"room"`
	AuthorID    string         `json:"author_id"`
	Kind        string         `json:"kind"`
	Points      []domain.Point `json:"points"`
	Color       string         `json:"color"`
	StrokeWidth float64        `json:"stroke_width"`
}

// StoreElement persists one element under "wb:{room}:{seq_padded}:{uuid}".
// The zero-padded sequence keeps iteration in server-receive order, which
// is the only order the board recognizes.
func (w WhiteboardRepository) StoreElement(seq uint64, element domain.WhiteboardElement) error {
	key := fmt.Sprintf("wb:%s:%016d:%s", element.Room, seq, element.ID)
	bytes, err := json.Marshal(fromElement(element))
	if err != nil {
		return err
	}
	return w.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), bytes)
	})
}

// GetElements returns the room's elements in insertion order.
func (w WhiteboardRepository) GetElements(roomID domain.RoomID) ([]domain.WhiteboardElement, error) {
	prefix := []byte(fmt.Sprintf("wb:%s:", roomID))
	var elements []domain.WhiteboardElement
	err := w.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(value []byte) error {
				var de diskElement
				if err := json.Unmarshal(value, &de); err != nil {
					return err
				}
				elements = append(elements, toElement(de))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return elements, nil
}

// LastSeq returns the highest sequence number persisted for the room, or
// zero when the room has no elements. A restarted server resumes its
// counter from here so new keys always sort after the existing ones.
func (w WhiteboardRepository) LastSeq(roomID domain.RoomID) (uint64, error) {
	prefix := []byte(fmt.Sprintf("wb:%s:", roomID))
	var last uint64
	err := w.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()

		// Seek past the highest possible key, then step back onto the
		// newest one.
		it.Seek(append(append([]byte(nil), prefix...), 0xFF))
		if !it.ValidForPrefix(prefix) {
			return nil
		}
		key := it.Item().Key()
		if len(key) < len(prefix)+16 {
			return fmt.Errorf("malformed whiteboard key %q", key)
		}
		seq, parseErr := strconv.ParseUint(string(key[len(prefix):len(prefix)+16]), 10, 64)
		if parseErr != nil {
			return fmt.Errorf("malformed whiteboard key %q: %w", key, parseErr)
		}
		last = seq
		return nil
	})
	if err != nil {
		return 0, err
	}
	return last, nil
}

// Clear drops every element of the room in one prefix deletion.
func (w WhiteboardRepository) Clear(roomID domain.RoomID) error {
	prefix := []byte(fmt.Sprintf("wb:%s:", roomID))
	return w.db.DropPrefix(prefix)
}

func fromElement(element domain.WhiteboardElement) diskElement {
	return diskElement{
		ID:          element.ID,
		Room:        string(element.Room),
		AuthorID:    element.AuthorID,
		Kind:        string(element.Kind),
		Points:      element.Points,
		Color:       element.Color,
		StrokeWidth: element.StrokeWidth,
	}
}

func toElement(de diskElement) domain.WhiteboardElement {
	return domain.WhiteboardElement{
		ID:          de.ID,
		Room:        domain.RoomID(de.Room),
		AuthorID:    de.AuthorID,
		Kind:        domain.ElementKind(de.Kind),
		Points:      de.Points,
		Color:       de.Color,
		StrokeWidth: de.StrokeWidth,
	}
}
