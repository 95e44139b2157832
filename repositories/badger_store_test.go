package repositories

import (
	"context"
	"log/slog"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func openTestBadger(t *testing.T) *BadgerStore {
	t.Helper()
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	t.Cleanup(func() { _ = db.Close() })

	store, err := NewBadgerStore(db, slog.Default())
	req.NoError(err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func Test_BadgerStore_Append_Assigns_Increasing_IDs(t *testing.T) {
	req := require.New(t)
	store := openTestBadger(t)
	ctx := context.Background()
	room := "lobby"

	var lastID int64
	for _, text := range []string{"one", "two", "three"} {
		msg, err := store.Append(ctx, "lobby", "alice", text, 1000)
		req.NoError(err)
		req.Greater(msg.ID, lastID)
		lastID = msg.ID
	}

	messages, err := store.History(ctx, "lobby", 0)
	req.NoError(err)
	req.Len(messages, 3)
	req.Equal("one", messages[0].Text)
	req.Equal("three", messages[2].Text)
	req.Equal(room, string(messages[0].Room))
}

func Test_BadgerStore_History_Caps_At_Most_Recent(t *testing.T) {
	req := require.New(t)
	store := openTestBadger(t)
	ctx := context.Background()

	var ids []int64
	for _, text := range []string{"m1", "m2", "m3", "m4", "m5"} {
		msg, err := store.Append(ctx, "lobby", "bob", text, 0)
		req.NoError(err)
		ids = append(ids, msg.ID)
	}

	// Limit 3 must yield the three newest arrivals, oldest-first.
	messages, err := store.History(ctx, "lobby", 3)
	req.NoError(err)
	req.Len(messages, 3)
	req.Equal([]int64{ids[2], ids[3], ids[4]},
		[]int64{messages[0].ID, messages[1].ID, messages[2].ID})
	req.Equal("m3", messages[0].Text)
	req.Equal("m5", messages[2].Text)
}

func Test_BadgerStore_Room_Names_With_Separator_Stay_Isolated(t *testing.T) {
	req := require.New(t)
	store := openTestBadger(t)
	ctx := context.Background()

	// "a:0other" keys must not fall inside room "a"'s scan prefix.
	_, err := store.Append(ctx, "a", "alice", "mine", 0)
	req.NoError(err)
	_, err = store.Append(ctx, "a:0other", "bob", "foreign", 0)
	req.NoError(err)

	messages, err := store.History(ctx, "a", 0)
	req.NoError(err)
	req.Len(messages, 1)
	req.Equal("mine", messages[0].Text)

	other, err := store.History(ctx, "a:0other", 0)
	req.NoError(err)
	req.Len(other, 1)
	req.Equal("foreign", other[0].Text)
}

func Test_BadgerStore_History_Isolates_Rooms(t *testing.T) {
	req := require.New(t)
	store := openTestBadger(t)
	ctx := context.Background()

	_, err := store.Append(ctx, "lobby", "alice", "hello lobby", 0)
	req.NoError(err)
	_, err = store.Append(ctx, "dev", "bob", "hello dev", 0)
	req.NoError(err)

	messages, err := store.History(ctx, "dev", 0)
	req.NoError(err)
	req.Len(messages, 1)
	req.Equal("hello dev", messages[0].Text)

	empty, err := store.History(ctx, "nobody-here", 10)
	req.NoError(err)
	req.Empty(empty)
}
