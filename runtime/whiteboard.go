package runtime

import (
	"log/slog"
	"sync"

	"roomsync/contract"
	"roomsync/domain"
)

// Whiteboard keeps the per-room ordered element lists. Elements append in
// server-receive order (client timestamps would leak clock skew into the
// drawing order) and a clear swaps the whole list out in one step.
type Whiteboard struct {
	mu     sync.Mutex
	store  contract.IWhiteboardRepository
	log    *slog.Logger
	rooms  map[domain.RoomID][]domain.WhiteboardElement
	loaded map[domain.RoomID]bool
	seqs   map[domain.RoomID]uint64
}

func NewWhiteboard(store contract.IWhiteboardRepository, log *slog.Logger) *Whiteboard {
	return &Whiteboard{
		store:  store,
		log:    log,
		rooms:  make(map[domain.RoomID][]domain.WhiteboardElement),
		loaded: make(map[domain.RoomID]bool),
		seqs:   make(map[domain.RoomID]uint64),
	}
}

// ApplyStroke appends the element and returns a copy of the full updated
// list for broadcast. Full-state broadcasts mean a missed update self-heals
// on the next stroke. The element is persisted best-effort; an unreachable
// store degrades durability, not the live room.
func (w *Whiteboard) ApplyStroke(element domain.WhiteboardElement) []domain.WhiteboardElement {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.loadLocked(element.Room)
	w.seqs[element.Room]++
	w.rooms[element.Room] = append(w.rooms[element.Room], element)

	if err := w.store.StoreElement(w.seqs[element.Room], element); err != nil {
		w.log.Warn("whiteboard element not persisted",
			"room_id", element.Room, "element_id", element.ID, "error", err)
	}
	return w.elementsLocked(element.Room)
}

// Clear atomically replaces the room's list with empty. No reader observes
// a partially-cleared list, and no pre-clear element ever reappears: the
// in-memory list is swapped under the lock and the persisted prefix is
// dropped before any later stroke can land.
func (w *Whiteboard) Clear(roomID domain.RoomID) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	delete(w.rooms, roomID)
	w.loaded[roomID] = true
	return w.store.Clear(roomID)
}

// Elements returns a copy of the room's current ordered list.
func (w *Whiteboard) Elements(roomID domain.RoomID) []domain.WhiteboardElement {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.loadLocked(roomID)
	return w.elementsLocked(roomID)
}

// loadLocked pulls the persisted list the first time a room is touched
// after startup, so a restarted server serves the durable board state.
// The sequence counter resumes from the highest persisted value: a fresh
// counter would store post-restart strokes under lower keys and break the
// server-receive order on the next restore.
func (w *Whiteboard) loadLocked(roomID domain.RoomID) {
	if w.loaded[roomID] {
		return
	}
	w.loaded[roomID] = true

	last, err := w.store.LastSeq(roomID)
	if err != nil {
		w.log.Warn("whiteboard sequence restore failed", "room_id", roomID, "error", err)
	} else if last > w.seqs[roomID] {
		w.seqs[roomID] = last
	}

	elements, err := w.store.GetElements(roomID)
	if err != nil {
		w.log.Warn("whiteboard restore failed", "room_id", roomID, "error", err)
		return
	}
	if len(elements) > 0 {
		w.rooms[roomID] = elements
	}
}

func (w *Whiteboard) elementsLocked(roomID domain.RoomID) []domain.WhiteboardElement {
	elements := make([]domain.WhiteboardElement, len(w.rooms[roomID]))
	copy(elements, w.rooms[roomID])
	return elements
}
