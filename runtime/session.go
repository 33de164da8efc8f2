package runtime

import (
	"context"

	"github.com/google/uuid"

	"roomsync/contract"
	"roomsync/domain"
	"roomsync/domain/event"
)

// Session is one authenticated real-time connection. It is destroyed on
// disconnect; a reconnect is a brand-new Session with no inherited state.
type Session struct {
	ID   string
	User domain.User
	sink contract.EventSink
}

func NewSession(user domain.User, sink contract.EventSink) *Session {
	return &Session{ID: uuid.NewString(), User: user, sink: sink}
}

// Deliver pushes an event to this session's sink. The sink is expected to
// drop rather than block when the connection cannot keep up.
func (s *Session) Deliver(ctx context.Context, e event.DomainEvent) error {
	return s.sink.Consume(ctx, e)
}
