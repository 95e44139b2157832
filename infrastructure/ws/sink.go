package ws

import (
	"context"

	"chat-relay/domain/event"
	relayerrors "chat-relay/errors"
	"chat-relay/observability"
)

// Sink buffers events between the coordinator's fan-out and one
// connection's write pump. Consume never blocks: when the buffer is full
// the event is dropped and counted, keeping a slow reader from stalling
// the rest of the room.
type Sink struct {
	events chan event.DomainEvent
	stats  *observability.Stats
}

func NewSink(bufferSize int, stats *observability.Stats) *Sink {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	return &Sink{events: make(chan event.DomainEvent, bufferSize), stats: stats}
}

func (s *Sink) Consume(ctx context.Context, e event.DomainEvent) error {
	select {
	case s.events <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		s.stats.IncrDropped()
		return relayerrors.ErrSinkFull
	}
}

// Events is read by the connection's write pump.
func (s *Sink) Events() <-chan event.DomainEvent {
	return s.events
}
