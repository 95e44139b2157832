package search

import (
	"chat-relay/domain"
	"chat-relay/domain/event"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestIndex(t *testing.T) *Index {
	t.Helper()
	req := require.New(t)
	index, err := Open(t.TempDir(), slog.Default())
	req.NoError(err)
	t.Cleanup(func() { _ = index.Close() })
	return index
}

func indexMessage(t *testing.T, index *Index, id int64, room, sender, text string) {
	t.Helper()
	require.NoError(t, index.Consume(context.Background(), event.MessageBroadcast{
		Message: domain.Message{ID: id, Room: domain.RoomID(room), Sender: sender, Text: text, SentAt: id * 1000},
	}))
}

func Test_Search_Finds_Messages_By_Text(t *testing.T) {
	req := require.New(t)
	index := openTestIndex(t)

	indexMessage(t, index, 1, "lobby", "alice", "deploy finished without errors")
	indexMessage(t, index, 2, "lobby", "bob", "lunch anyone")

	hits, err := index.Search(context.Background(), "lobby", "deploy", 10)
	req.NoError(err)
	req.Len(hits, 1)
	req.Equal(int64(1), hits[0].ID)
	req.Equal("alice", hits[0].Sender)
	req.Equal("deploy finished without errors", hits[0].Text)
	req.Equal(int64(1000), hits[0].Ts)
}

func Test_Search_Is_Scoped_To_Room(t *testing.T) {
	req := require.New(t)
	index := openTestIndex(t)

	indexMessage(t, index, 1, "lobby", "alice", "deploy finished")
	indexMessage(t, index, 2, "dev", "bob", "deploy broke everything")

	hits, err := index.Search(context.Background(), "dev", "deploy", 10)
	req.NoError(err)
	req.Len(hits, 1)
	req.Equal("dev", hits[0].Room)
}

func Test_Search_Ignores_Roster_Events(t *testing.T) {
	req := require.New(t)
	index := openTestIndex(t)

	req.NoError(index.Consume(context.Background(), event.RosterUpdated{Room: "lobby", Users: []string{"alice"}}))

	hits, err := index.Search(context.Background(), "lobby", "alice", 10)
	req.NoError(err)
	req.Empty(hits)
}
