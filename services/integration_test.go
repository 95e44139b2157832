package services_test

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/infrastructure/ws"
	"chat-relay/observability"
	"chat-relay/projection"
	"chat-relay/repositories"
	"chat-relay/runtime"
	"chat-relay/services"

	"github.com/stretchr/testify/require"
)

// newRelay assembles a coordinator over a real sqlite store, the way the
// server wires it, minus the network.
func newRelay(t *testing.T) (services.IChatService, *observability.Stats) {
	t.Helper()
	log := slog.Default()

	store, err := repositories.OpenSQLiteStore(filepath.Join(t.TempDir(), "chat.db"), log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	stats := observability.NewStats()
	timeline := projection.NewTimeline(10)
	coordinator := runtime.NewCoordinator(log, runtime.NewRegistry(), store, runtime.CoordinatorConfig{
		Stats:          stats,
		PermanentSinks: []contract.EventSink{timeline},
	})
	return services.NewChatService(coordinator, nil, timeline, stats), stats
}

// client pairs a session with its buffered connection sink.
type client struct {
	session *runtime.Session
	sink    *ws.Sink
}

func connect(service services.IChatService, stats *observability.Stats) client {
	sink := ws.NewSink(32, stats)
	return client{session: service.Connect(sink), sink: sink}
}

// drain empties the client's buffer without blocking.
func (c client) drain() []event.DomainEvent {
	var events []event.DomainEvent
	for {
		select {
		case e := <-c.sink.Events():
			events = append(events, e)
		default:
			return events
		}
	}
}

func lastRoster(events []event.DomainEvent) []string {
	var users []string
	for _, e := range events {
		if roster, ok := e.(event.RosterUpdated); ok {
			users = roster.Users
		}
	}
	return users
}

func chatMessages(events []event.DomainEvent) []domain.Message {
	var msgs []domain.Message
	for _, e := range events {
		if broadcast, ok := e.(event.MessageBroadcast); ok {
			msgs = append(msgs, broadcast.Message)
		}
	}
	return msgs
}

func TestRelay_Full_Room_Lifecycle(t *testing.T) {
	req := require.New(t)
	service, stats := newRelay(t)
	ctx := context.Background()

	// alice and bob join lobby
	alice := connect(service, stats)
	service.Join(ctx, alice.session, "lobby", "alice")
	bob := connect(service, stats)
	service.Join(ctx, bob.session, "lobby", "bob")

	req.ElementsMatch([]string{"alice", "bob"}, lastRoster(alice.drain()))
	req.ElementsMatch([]string{"alice", "bob"}, lastRoster(bob.drain()))

	// alice speaks; both receive the same persisted message
	req.NoError(service.Chat(ctx, alice.session, "lobby", "alice", "hi", 1111))

	aliceMsgs := chatMessages(alice.drain())
	bobMsgs := chatMessages(bob.drain())
	req.Len(aliceMsgs, 1)
	req.Len(bobMsgs, 1)
	req.Equal(aliceMsgs[0], bobMsgs[0])
	req.Positive(aliceMsgs[0].ID)

	// history replays it oldest-first
	history, err := service.History(ctx, "lobby", 0)
	req.NoError(err)
	req.Equal([]domain.Message{aliceMsgs[0]}, history)

	// bob leaves; alice sees the shrunken roster
	service.Disconnect(ctx, bob.session)
	req.Equal([]string{"alice"}, lastRoster(alice.drain()))

	report := service.Stats()
	req.Equal(1, report.Rooms)
	req.Equal(1, report.Sessions)
	req.Equal(uint64(1), report.MessagesPersisted)
}

func TestRelay_History_Survives_Reconnect(t *testing.T) {
	req := require.New(t)
	service, stats := newRelay(t)
	ctx := context.Background()

	alice := connect(service, stats)
	service.Join(ctx, alice.session, "lobby", "alice")
	req.NoError(service.Chat(ctx, alice.session, "lobby", "alice", "first", 1))
	req.NoError(service.Chat(ctx, alice.session, "lobby", "alice", "second", 2))
	service.Disconnect(ctx, alice.session)

	// A brand new session reads the room's past without joining it
	history, err := service.History(ctx, "lobby", 0)
	req.NoError(err)
	req.Len(history, 2)
	req.Equal("first", history[0].Text)
	req.Equal("second", history[1].Text)
	req.Less(history[0].ID, history[1].ID)
}
