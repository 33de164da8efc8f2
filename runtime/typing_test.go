package runtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"roomsync/domain"
)

func TestTypingTracker_Start_Reports_Transition_Only_Once(t *testing.T) {
	req := require.New(t)
	tracker := NewTypingTracker(4 * time.Second)
	roomID := domain.RoomID("design-review")
	alice := domain.User{ID: "u1", Name: "Alice"}

	// When the user starts typing
	transition := tracker.Start(roomID, alice)

	// Then it is an absent-to-present transition
	req.True(transition)

	// When the client keeps refreshing while typing
	req.False(tracker.Start(roomID, alice))
	req.False(tracker.Start(roomID, alice))
}

func TestTypingTracker_Stop(t *testing.T) {
	req := require.New(t)
	tracker := NewTypingTracker(4 * time.Second)
	roomID := domain.RoomID("design-review")
	alice := domain.User{ID: "u1", Name: "Alice"}
	tracker.Start(roomID, alice)

	// When the user stops typing
	user, removed := tracker.Stop(roomID, alice.ID)

	// Then the removal carries the user for the broadcast
	req.True(removed)
	req.Equal(alice, user)

	// And stopping again is a no-op
	_, removed = tracker.Stop(roomID, alice.ID)
	req.False(removed)
}

func TestTypingTracker_Sweep_Reaps_Each_Expiry_Once(t *testing.T) {
	req := require.New(t)
	tracker := NewTypingTracker(4 * time.Second)
	roomID := domain.RoomID("design-review")
	alice := domain.User{ID: "u1", Name: "Alice"}
	bob := domain.User{ID: "u2", Name: "Bob"}

	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	tracker.now = func() time.Time { return base }
	tracker.Start(roomID, alice)
	tracker.Start(roomID, bob)

	// When collecting before the TTL elapsed
	req.Empty(tracker.Candidates(base.Add(3 * time.Second)))

	// When collecting after the TTL elapsed
	after := base.Add(5 * time.Second)
	candidates := tracker.Candidates(after)
	req.Len(candidates, 2)

	// Then each candidate reaps exactly once
	for _, c := range candidates {
		_, removed := tracker.Reap(c.Room, c.User.ID, after)
		req.True(removed)
		_, removed = tracker.Reap(c.Room, c.User.ID, after)
		req.False(removed)
	}
	req.Empty(tracker.Candidates(base.Add(10 * time.Second)))
}

func TestTypingTracker_Refresh_Extends_The_Deadline(t *testing.T) {
	req := require.New(t)
	tracker := NewTypingTracker(4 * time.Second)
	roomID := domain.RoomID("design-review")
	alice := domain.User{ID: "u1", Name: "Alice"}

	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	tracker.now = func() time.Time { return base }
	tracker.Start(roomID, alice)

	// Given the client refreshed 3 seconds in
	tracker.now = func() time.Time { return base.Add(3 * time.Second) }
	tracker.Start(roomID, alice)

	// Then the original deadline no longer applies
	req.Empty(tracker.Candidates(base.Add(5 * time.Second)))

	// And the refreshed one does
	req.Len(tracker.Candidates(base.Add(8*time.Second)), 1)
}

func TestTypingTracker_Refresh_Between_Collection_And_Reap_Wins(t *testing.T) {
	req := require.New(t)
	tracker := NewTypingTracker(4 * time.Second)
	roomID := domain.RoomID("design-review")
	alice := domain.User{ID: "u1", Name: "Alice"}

	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	tracker.now = func() time.Time { return base }
	tracker.Start(roomID, alice)

	// Given the entry expired and was collected for reaping
	expiry := base.Add(5 * time.Second)
	candidates := tracker.Candidates(expiry)
	req.Len(candidates, 1)

	// When a typing-start refreshes the entry before the reap lands
	tracker.now = func() time.Time { return expiry }
	req.False(tracker.Start(roomID, alice))

	// Then the reap declines and the entry stays alive
	_, removed := tracker.Reap(roomID, alice.ID, expiry)
	req.False(removed)
	req.Empty(tracker.Candidates(expiry))
}
