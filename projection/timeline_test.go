package projection

import (
	"chat-relay/domain"
	"chat-relay/domain/event"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func broadcast(id int64, room, text string) event.MessageBroadcast {
	return event.MessageBroadcast{Message: domain.Message{
		ID: id, Room: domain.RoomID(room), Sender: "alice", Text: text,
	}}
}

func Test_Timeline_Keeps_Messages_Per_Room(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline(10)
	ctx := context.Background()

	req.NoError(timeline.Consume(ctx, broadcast(1, "lobby", "hi")))
	req.NoError(timeline.Consume(ctx, broadcast(2, "dev", "deploy done")))
	req.NoError(timeline.Consume(ctx, broadcast(3, "lobby", "anyone?")))

	lobby := timeline.Recent("lobby")
	req.Len(lobby, 2)
	req.Equal("hi", lobby[0].Text)
	req.Equal("anyone?", lobby[1].Text)
	req.Len(timeline.Recent("dev"), 1)
	req.ElementsMatch([]domain.RoomID{"lobby", "dev"}, timeline.ActiveRooms())
}

func Test_Timeline_Evicts_Oldest_Beyond_Capacity(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline(2)
	ctx := context.Background()

	for i := int64(1); i <= 4; i++ {
		req.NoError(timeline.Consume(ctx, broadcast(i, "lobby", "msg")))
	}

	recent := timeline.Recent("lobby")
	req.Len(recent, 2)
	req.Equal(int64(3), recent[0].ID)
	req.Equal(int64(4), recent[1].ID)
}

func Test_Timeline_Ignores_Non_Message_Events(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline(5)

	req.NoError(timeline.Consume(context.Background(), event.RosterUpdated{Room: "lobby", Users: []string{"alice"}}))
	req.Empty(timeline.Recent("lobby"))
}
