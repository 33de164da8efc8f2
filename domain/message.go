// This file defines Message events and related rules.
// Messages are immutable except for monotonic growth of their receipt set.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Attachment is a file carried by a message. Small payloads travel
// inline in Data; larger ones live in external storage behind URL.
// MimeType is assigned by the server from the sniffed payload when Data
// is present, never from what the client declared.
type Attachment struct {
	ID       uuid.UUID
	Name     string
	MimeType string
	Size     int64
	URL      string
	Data     []byte `json:",omitempty"`
}

// Message represents a chat event. The ID and CreatedAt are assigned by
// the server on arrival; client-supplied timestamps are never trusted.
type Message struct {
	ID          uuid.UUID
	Room        RoomID
	SenderID    string
	SenderName  string
	Content     string
	Lang        string
	Attachments []Attachment
	CreatedAt   time.Time

	// ReadBy maps user ID to the moment that user acknowledged the
	// message. It only ever grows. The sender is present from creation.
	ReadBy map[string]time.Time
}

// ReadByAll reports whether every current room member acknowledged the
// message, given the current membership size.
func (m Message) ReadByAll(memberCount int) bool {
	return memberCount > 0 && len(m.ReadBy) >= memberCount
}

// ReadBySome reports whether anyone besides the sender acknowledged the
// message. The sender's auto-receipt does not count as a second party.
func (m Message) ReadBySome() bool {
	return len(m.ReadBy) > 1
}

// Readers returns the IDs of users who acknowledged the message,
// excluding the sender's automatic receipt.
func (m Message) Readers() []string {
	readers := make([]string, 0, len(m.ReadBy))
	for userID := range m.ReadBy {
		if userID != m.SenderID {
			readers = append(readers, userID)
		}
	}
	return readers
}
