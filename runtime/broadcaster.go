package runtime

import (
	"context"
	"log/slog"
	"time"

	"roomsync/domain/event"
)

// Broadcaster fans an event out to every session currently in the event's
// room. Delivery is at-least-once to sessions connected at call time and
// fire-and-forget: a slow or dead connection gets its delivery dropped
// after deliveryTimeout instead of delaying the other recipients.
type Broadcaster struct {
	registry        *Registry
	log             *slog.Logger
	deliveryTimeout time.Duration
}

func NewBroadcaster(registry *Registry, log *slog.Logger, deliveryTimeout time.Duration) *Broadcaster {
	return &Broadcaster{registry: registry, log: log, deliveryTimeout: deliveryTimeout}
}

// Notify delivers e to all members of its room, skipping the sessions in
// exclude. Sessions not connected at the moment of the call get nothing;
// their catch-up relies on the persisted log.
func (b *Broadcaster) Notify(ctx context.Context, e event.DomainEvent, exclude ...string) {
	excluded := make(Set, len(exclude))
	for _, id := range exclude {
		excluded[id] = struct{}{}
	}

	for _, s := range b.registry.SessionsInRoom(e.RoomID()) {
		if _, skip := excluded[s.ID]; skip {
			continue
		}
		b.deliver(ctx, s, e)
	}
}

func (b *Broadcaster) deliver(ctx context.Context, s *Session, e event.DomainEvent) {
	deliveryCtx, cancel := context.WithTimeout(ctx, b.deliveryTimeout)
	defer cancel()

	if err := s.Deliver(deliveryCtx, e); err != nil {
		b.log.Warn("dropped delivery",
			"session_id", s.ID,
			"user_id", s.User.ID,
			"room_id", e.RoomID(),
			"error", err)
	}
}
