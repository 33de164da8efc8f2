package runtime

import (
	"sync"
	"time"

	"roomsync/domain"
)

// TypingTracker holds the ephemeral per-room typing sets. An entry cannot
// outlive its TTL without a refresh; Sweep enforces that for clients that
// crash or lose network mid-typing.
type TypingTracker struct {
	mu    sync.Mutex
	ttl   time.Duration
	rooms map[domain.RoomID]map[string]domain.TypingEntry
	now   func() time.Time
}

func NewTypingTracker(ttl time.Duration) *TypingTracker {
	return &TypingTracker{
		ttl:   ttl,
		rooms: make(map[domain.RoomID]map[string]domain.TypingEntry),
		now:   time.Now,
	}
}

// Start inserts or refreshes the user's typing entry and reports whether
// this is an absent-to-present transition. Only transitions are broadcast;
// refreshes while already typing stay quiet to bound traffic.
func (t *TypingTracker) Start(roomID domain.RoomID, user domain.User) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	entries, ok := t.rooms[roomID]
	if !ok {
		entries = make(map[string]domain.TypingEntry)
		t.rooms[roomID] = entries
	}
	_, present := entries[user.ID]
	entries[user.ID] = domain.TypingEntry{User: user, ExpiresAt: t.now().Add(t.ttl)}
	return !present
}

// Stop removes the user's entry. Reports the removed user and whether an
// entry actually existed, so callers broadcast stop events exactly once.
func (t *TypingTracker) Stop(roomID domain.RoomID, userID string) (domain.User, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entries, ok := t.rooms[roomID]
	if !ok {
		return domain.User{}, false
	}
	e, present := entries[userID]
	if !present {
		return domain.User{}, false
	}
	delete(entries, userID)
	if len(entries) == 0 {
		delete(t.rooms, roomID)
	}
	return e.User, true
}

// Expired is a typing entry past its deadline, found by a sweep.
type Expired struct {
	Room domain.RoomID
	User domain.User
}

// Candidates returns every entry past its deadline without removing it.
// Removal goes through Reap, under the caller's per-room lock, so a
// refresh landing between the two calls keeps the entry alive.
func (t *TypingTracker) Candidates(now time.Time) []Expired {
	t.mu.Lock()
	defer t.mu.Unlock()

	var expired []Expired
	for roomID, entries := range t.rooms {
		for _, e := range entries {
			if e.ExpiresAt.After(now) {
				continue
			}
			expired = append(expired, Expired{Room: roomID, User: e.User})
		}
	}
	return expired
}

// Reap removes the entry only if it is still past its deadline. Reports
// the removed user so the caller broadcasts one stop event per removal.
func (t *TypingTracker) Reap(roomID domain.RoomID, userID string, now time.Time) (domain.User, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entries, ok := t.rooms[roomID]
	if !ok {
		return domain.User{}, false
	}
	e, present := entries[userID]
	if !present || e.ExpiresAt.After(now) {
		return domain.User{}, false
	}
	delete(entries, userID)
	if len(entries) == 0 {
		delete(t.rooms, roomID)
	}
	return e.User, true
}
