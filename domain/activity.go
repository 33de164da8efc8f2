package domain

import (
	"time"

	"github.com/google/uuid"
)

type ActivityKind string

const (
	ActivityJoined  ActivityKind = "joined"
	ActivityLeft    ActivityKind = "left"
	ActivityMessage ActivityKind = "message"
)

// Activity is a best-effort audit record. Recording failures are swallowed
// and never block the hot path.
type Activity struct {
	ID     uuid.UUID
	Room   RoomID
	Kind   ActivityKind
	UserID string
	Detail string
	At     time.Time
}
