package runtime

import (
	"sync"

	"roomsync/domain"
)

type Set map[string]struct{}

// Registry owns the mapping from connected sessions to room memberships.
// It is an injected instance whose lifecycle is tied to the server process;
// tests can run several independent registries side by side.
type Registry struct {
	mu           sync.RWMutex
	sessions     map[string]*Session
	roomMembers  map[domain.RoomID]Set
	sessionRooms map[string]map[domain.RoomID]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		sessions:     make(map[string]*Session),
		roomMembers:  make(map[domain.RoomID]Set),
		sessionRooms: make(map[string]map[domain.RoomID]struct{}),
	}
}

// Register adds a session to the directory. A session holds no room
// membership until it explicitly joins one.
func (r *Registry) Register(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
	r.sessionRooms[s.ID] = make(map[domain.RoomID]struct{})
}

// Unregister removes the session from the directory. Membership must
// already have been released room by room; any leftovers are dropped here
// so no dead session lingers in a member set.
func (r *Registry) Unregister(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for roomID := range r.sessionRooms[sessionID] {
		r.removeMemberLocked(sessionID, roomID)
	}
	delete(r.sessionRooms, sessionID)
	delete(r.sessions, sessionID)
}

// Join adds the session to the room's membership set.
// Re-joining an already-joined room is a no-op; Join reports whether the
// membership actually changed.
func (r *Registry) Join(s *Session, roomID domain.RoomID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	rooms, ok := r.sessionRooms[s.ID]
	if !ok {
		// Unregistered sessions cannot hold membership.
		return false
	}
	if _, joined := rooms[roomID]; joined {
		return false
	}
	rooms[roomID] = struct{}{}

	if _, ok := r.roomMembers[roomID]; !ok {
		r.roomMembers[roomID] = make(Set)
	}
	r.roomMembers[roomID][s.ID] = struct{}{}
	return true
}

// Leave removes the session from the room. Idempotent: leaving a room the
// session never joined reports false and changes nothing.
func (r *Registry) Leave(sessionID string, roomID domain.RoomID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	rooms, ok := r.sessionRooms[sessionID]
	if !ok {
		return false
	}
	if _, joined := rooms[roomID]; !joined {
		return false
	}
	delete(rooms, roomID)
	r.removeMemberLocked(sessionID, roomID)
	return true
}

func (r *Registry) removeMemberLocked(sessionID string, roomID domain.RoomID) {
	members, ok := r.roomMembers[roomID]
	if !ok {
		return
	}
	delete(members, sessionID)

	// If no one is left in the room, remove the room entry entirely
	if len(members) == 0 {
		delete(r.roomMembers, roomID)
	}
}

// SessionsInRoom resolves the room's member set into live sessions.
// Returns nil if the room doesn't exist or has no members.
func (r *Registry) SessionsInRoom(roomID domain.RoomID) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.roomMembers[roomID]
	if !ok {
		return nil
	}
	var active []*Session
	for sessionID := range members {
		if s, exists := r.sessions[sessionID]; exists {
			active = append(active, s)
		}
	}
	return active
}

// Rooms returns the rooms the session currently holds membership in.
func (r *Registry) Rooms(sessionID string) []domain.RoomID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rooms := make([]domain.RoomID, 0, len(r.sessionRooms[sessionID]))
	for roomID := range r.sessionRooms[sessionID] {
		rooms = append(rooms, roomID)
	}
	return rooms
}

// MemberCount reports the number of sessions currently in the room.
func (r *Registry) MemberCount(roomID domain.RoomID) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.roomMembers[roomID])
}
