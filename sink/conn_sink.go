package sink

import (
	"context"
	"fmt"

	"roomsync/domain/event"
	"roomsync/errors"
)

// ConnSink buffers events for one connection. Consume is called by the
// broadcaster; the transport's write loop drains Events and pushes frames
// onto the wire. A full buffer means the connection cannot keep up: the
// event is dropped rather than stalling the other recipients, and the
// client self-heals through full-snapshot broadcasts and the persisted log.
type ConnSink struct {
	Events chan event.DomainEvent
}

func NewConnSink(bufferSize int) *ConnSink {
	return &ConnSink{Events: make(chan event.DomainEvent, bufferSize)}
}

func (s *ConnSink) Consume(ctx context.Context, e event.DomainEvent) error {
	select {
	case s.Events <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("%w: connection buffer full", errors.ErrDeliveryDropped)
	}
}
