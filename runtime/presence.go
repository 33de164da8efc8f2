package runtime

import (
	"sort"
	"sync"

	"roomsync/domain"
)

type presenceEntry struct {
	user  domain.User
	conns int
}

// Presence maintains the per-room set of currently-connected users.
// A user with several sessions in the same room counts once; the entry
// survives until their last session leaves.
type Presence struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]map[string]*presenceEntry
}

func NewPresence() *Presence {
	return &Presence{rooms: make(map[domain.RoomID]map[string]*presenceEntry)}
}

// Add records one connection of the user in the room and reports whether
// the user just became present. Idempotent under duplicate session joins;
// callers only call Add once per session join.
func (p *Presence) Add(roomID domain.RoomID, user domain.User) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	entries, ok := p.rooms[roomID]
	if !ok {
		entries = make(map[string]*presenceEntry)
		p.rooms[roomID] = entries
	}
	if e, present := entries[user.ID]; present {
		e.conns++
		return false
	}
	entries[user.ID] = &presenceEntry{user: user, conns: 1}
	return true
}

// Remove drops one connection of the user and reports whether the user is
// now fully gone from the room. Removing an absent user is a no-op.
func (p *Presence) Remove(roomID domain.RoomID, userID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	entries, ok := p.rooms[roomID]
	if !ok {
		return false
	}
	e, present := entries[userID]
	if !present {
		return false
	}
	e.conns--
	if e.conns > 0 {
		return false
	}
	delete(entries, userID)
	if len(entries) == 0 {
		delete(p.rooms, roomID)
	}
	return true
}

// Snapshot returns the full current member list, sorted for deterministic
// output. Full snapshots are what gets broadcast: a late-arriving client
// self-corrects on the next one.
func (p *Presence) Snapshot(roomID domain.RoomID) []domain.User {
	p.mu.RLock()
	defer p.mu.RUnlock()

	users := make([]domain.User, 0, len(p.rooms[roomID]))
	for _, e := range p.rooms[roomID] {
		users = append(users, e.user)
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].Name != users[j].Name {
			return users[i].Name < users[j].Name
		}
		return users[i].ID < users[j].ID
	})
	return users
}
