package domain

import "time"

// TypingEntry is an ephemeral "user is typing" marker. An entry cannot
// outlive ExpiresAt without an explicit refresh; the sweep removes it.
type TypingEntry struct {
	User      User
	ExpiresAt time.Time
}
