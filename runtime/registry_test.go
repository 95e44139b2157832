package runtime

import (
	"chat-relay/domain/event"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeSink struct{}

func (fakeSink) Consume(_ context.Context, _ event.DomainEvent) error { return nil }

func connected(r *Registry) *Session {
	s := NewSession(fakeSink{})
	r.Connect(s)
	return s
}

func TestRegistry_Move_Creates_Room_On_First_Join(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	s := connected(registry)

	// Given no room exists
	req.Zero(registry.RoomCount())

	// When the session joins
	_, _, roster, left := registry.Move(s.ID, "lobby", "alice")

	// Then the room exists with exactly this member
	req.False(left)
	req.Equal([]string{"alice"}, roster)
	req.Equal(1, registry.RoomCount())
	req.Len(registry.SinksForRoom("lobby"), 1)

	room, ok := registry.CurrentRoom(s.ID)
	req.True(ok)
	req.Equal("lobby", string(room))
}

func TestRegistry_Move_Between_Rooms_Removes_From_Old(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	alice := connected(registry)
	bob := connected(registry)

	registry.Move(alice.ID, "lobby", "alice")
	registry.Move(bob.ID, "lobby", "bob")

	// When alice moves to another room
	oldRoom, oldRoster, newRoster, left := registry.Move(alice.ID, "dev", "alice")

	// Then she is gone from lobby and present in dev, never in both
	req.True(left)
	req.Equal("lobby", string(oldRoom))
	req.Equal([]string{"bob"}, oldRoster)
	req.Equal([]string{"alice"}, newRoster)
	req.ElementsMatch([]string{"bob"}, registry.Members("lobby"))
	req.ElementsMatch([]string{"alice"}, registry.Members("dev"))
}

func TestRegistry_Rejoin_Same_Room_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	s := connected(registry)

	registry.Move(s.ID, "lobby", "alice")
	_, _, roster, _ := registry.Move(s.ID, "lobby", "alice")

	req.Equal([]string{"alice"}, roster)
	req.Equal(1, registry.RoomCount())
	req.Len(registry.SinksForRoom("lobby"), 1)
}

func TestRegistry_Duplicate_Display_Names_Are_Kept(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	first := connected(registry)
	second := connected(registry)

	registry.Move(first.ID, "lobby", "alice")
	_, _, roster, _ := registry.Move(second.ID, "lobby", "alice")

	// Two sessions, same name: the roster is not deduplicated
	req.Equal([]string{"alice", "alice"}, roster)
}

func TestRegistry_Disconnect_Deletes_Empty_Room(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	s := connected(registry)
	registry.Move(s.ID, "lobby", "alice")

	room, roster, left := registry.Disconnect(s.ID)

	req.True(left)
	req.Equal("lobby", string(room))
	req.Empty(roster)
	req.Zero(registry.RoomCount())
	req.Zero(registry.SessionCount())
	req.Nil(registry.SinksForRoom("lobby"))
}

func TestRegistry_Disconnect_Before_Join_Leaves_No_Trace(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	s := connected(registry)

	_, _, left := registry.Disconnect(s.ID)

	req.False(left)
	req.Zero(registry.SessionCount())
}

func TestRegistry_SinksForRoomExcept_Skips_The_Named_Session(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	alice := connected(registry)
	bob := connected(registry)
	registry.Move(alice.ID, "lobby", "alice")
	registry.Move(bob.ID, "lobby", "bob")

	req.Len(registry.SinksForRoom("lobby"), 2)
	req.Len(registry.SinksForRoomExcept("lobby", alice.ID), 1)
}

func TestRegistry_Unknown_Room_Yields_No_Sinks(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	req.Nil(registry.SinksForRoom("nowhere"))
	req.Empty(registry.Members("nowhere"))
}
