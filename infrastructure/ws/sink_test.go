package ws

import (
	"context"
	"testing"

	"chat-relay/domain/event"
	relayerrors "chat-relay/errors"
	"chat-relay/observability"

	"github.com/stretchr/testify/require"
)

func TestSink_Drops_When_Buffer_Is_Full(t *testing.T) {
	req := require.New(t)
	stats := observability.NewStats()
	sink := NewSink(2, stats)
	ctx := context.Background()

	notice := event.TypingNotice{Room: "lobby", From: "alice", Active: true}
	req.NoError(sink.Consume(ctx, notice))
	req.NoError(sink.Consume(ctx, notice))

	// Buffer full: the third event is dropped, not blocked on
	err := sink.Consume(ctx, notice)
	req.ErrorIs(err, relayerrors.ErrSinkFull)
	req.Equal(uint64(1), stats.Snapshot(0, 0).EventsDropped)

	// Draining one slot makes room again
	<-sink.Events()
	req.NoError(sink.Consume(ctx, notice))
}

func TestSink_Preserves_Enqueue_Order(t *testing.T) {
	req := require.New(t)
	sink := NewSink(8, nil)
	ctx := context.Background()

	first := event.TypingNotice{Room: "lobby", From: "a", Active: true}
	second := event.TypingNotice{Room: "lobby", From: "b", Active: true}
	req.NoError(sink.Consume(ctx, first))
	req.NoError(sink.Consume(ctx, second))

	req.Equal(first, <-sink.Events())
	req.Equal(second, <-sink.Events())
}
