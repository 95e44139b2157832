// Package runtime coordinates sessions, rooms and message flow. It owns
// the registry and routes every membership mutation and message append
// through a per-room serialization domain.
package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	relayerrors "chat-relay/errors"
	"chat-relay/moderation"
	"chat-relay/observability"
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/abadojack/whatlanggo"
)

const defaultSinkTimeout = 2 * time.Second

// CoordinatorConfig carries the optional collaborators. Moderator and
// Stats may be nil; PermanentSinks receive every broadcast event in
// addition to room members.
type CoordinatorConfig struct {
	Moderator      *moderation.Moderator
	Stats          *observability.Stats
	PermanentSinks []contract.EventSink
	SinkTimeout    time.Duration
}

// Coordinator handles inbound session events: it validates them against
// the session's membership state, persists chat messages before any
// broadcast, and fans events out to the current members of the target
// room. It is the only component that mutates the registry.
type Coordinator struct {
	log       *slog.Logger
	registry  *Registry
	store     contract.MessageStore
	moderator *moderation.Moderator
	stats     *observability.Stats
	permanent []contract.EventSink
	timeout   time.Duration

	lockMu    sync.Mutex
	roomLocks map[domain.RoomID]*sync.Mutex
}

func NewCoordinator(log *slog.Logger, registry *Registry, store contract.MessageStore, cfg CoordinatorConfig) *Coordinator {
	timeout := cfg.SinkTimeout
	if timeout <= 0 {
		timeout = defaultSinkTimeout
	}
	return &Coordinator{
		log:       log,
		registry:  registry,
		store:     store,
		moderator: cfg.Moderator,
		stats:     cfg.Stats,
		permanent: cfg.PermanentSinks,
		timeout:   timeout,
		roomLocks: make(map[domain.RoomID]*sync.Mutex),
	}
}

// Connect creates a session for a freshly accepted connection and registers
// it. The session stays roomless until its first join event.
func (c *Coordinator) Connect(sink contract.EventSink) *Session {
	s := NewSession(sink)
	c.registry.Connect(s)
	c.log.Debug("session connected", "session_id", s.ID)
	return s
}

// HandleJoin places the session in a room, moving it out of its previous
// room first. The new room's members receive the refreshed roster; so do
// the old room's remaining members when the session actually moved.
func (c *Coordinator) HandleJoin(ctx context.Context, s *Session, room domain.RoomID, name string) {
	current, _ := c.registry.CurrentRoom(s.ID)
	unlock := c.lockRooms(current, room)
	defer unlock()

	oldRoom, oldRoster, newRoster, left := c.registry.Move(s.ID, room, name)
	c.log.Info("session joined room", "session_id", s.ID, "room", room, "name", name, "moved_from", oldRoom)

	c.broadcast(ctx, event.RosterUpdated{Room: room, Users: newRoster}, "")
	if left && oldRoom != room && len(oldRoster) > 0 {
		c.broadcast(ctx, event.RosterUpdated{Room: oldRoom, Users: oldRoster}, "")
	}
}

// HandleChat persists the message and, only once the store confirms
// durability, broadcasts it to every current member of the room including
// the sender. Events from sessions that never joined, or that claim a room
// other than the one they are in, are dropped without feedback.
func (c *Coordinator) HandleChat(ctx context.Context, s *Session, room domain.RoomID, sender, text string, sentAt int64) error {
	current, joined := c.registry.CurrentRoom(s.ID)
	if !joined {
		c.log.Debug("chat from unjoined session dropped", "session_id", s.ID, "room", room)
		return relayerrors.ErrNotJoined
	}
	if current != room {
		c.log.Debug("chat for foreign room dropped", "session_id", s.ID, "claimed", room, "joined", current)
		return relayerrors.ErrRoomMismatch
	}

	mu := c.roomLock(room)
	mu.Lock()
	defer mu.Unlock()

	text = c.moderate(room, sender, text)

	msg, err := c.store.Append(ctx, room, sender, text, sentAt)
	if err != nil {
		c.stats.IncrPersistFailures()
		c.log.Error("message append failed, broadcast suppressed",
			"room", room, "sender", sender, "error", err)
		return err
	}
	c.stats.IncrPersisted()

	c.broadcast(ctx, event.MessageBroadcast{Message: msg}, "")
	return nil
}

// HandleTyping relays composition activity to every other member of the
// room. Nothing is persisted and the sender never hears its own notice.
func (c *Coordinator) HandleTyping(ctx context.Context, s *Session, room domain.RoomID, from string, active bool) {
	current, joined := c.registry.CurrentRoom(s.ID)
	if !joined || current != room {
		c.log.Debug("typing notice dropped", "session_id", s.ID, "room", room)
		return
	}
	c.broadcast(ctx, event.TypingNotice{Room: room, From: from, Active: active}, s.ID)
}

// Disconnect tears the session down. Remaining members of its room, if
// any, receive the shrunken roster.
func (c *Coordinator) Disconnect(ctx context.Context, s *Session) {
	current, _ := c.registry.CurrentRoom(s.ID)
	unlock := c.lockRooms(current, "")
	defer unlock()

	room, roster, left := c.registry.Disconnect(s.ID)
	c.log.Debug("session disconnected", "session_id", s.ID, "room", room)
	if left {
		c.broadcast(ctx, event.RosterUpdated{Room: room, Users: roster}, "")
	}
}

// History reads back persisted messages in arrival order.
func (c *Coordinator) History(ctx context.Context, room domain.RoomID, limit int) ([]domain.Message, error) {
	return c.store.History(ctx, room, limit)
}

// Counts reports live registry sizes for telemetry.
func (c *Coordinator) Counts() (rooms, sessions int) {
	return c.registry.RoomCount(), c.registry.SessionCount()
}

// moderate masks censored words when a moderator is configured. Hits are
// logged with the detected language of the original text.
func (c *Coordinator) moderate(room domain.RoomID, sender, text string) string {
	if c.moderator == nil {
		return text
	}
	censored, hits := c.moderator.Censor(text)
	if hits > 0 {
		info := whatlanggo.Detect(text)
		c.log.Warn("censored words masked",
			"room", room, "sender", sender, "hits", hits, "lang", info.Lang.Iso6391())
	}
	return censored
}

// broadcast fans the event out to the current members of its room, minus
// exceptSessionID, then to the permanent sinks. Both kinds of sink are
// non-blocking observers, so everything is served inline under a
// per-delivery timeout: each recipient, including the projections, sees
// the room's events in the order they were broadcast. A failing recipient
// is skipped, never retried.
func (c *Coordinator) broadcast(ctx context.Context, evt event.DomainEvent, exceptSessionID string) {
	c.stats.IncrBroadcast()

	for _, sink := range c.registry.SinksForRoomExcept(evt.RoomID(), exceptSessionID) {
		deliverCtx, cancel := context.WithTimeout(context.Background(), c.timeout)
		if err := sink.Consume(deliverCtx, evt); err != nil {
			c.stats.IncrFanoutFailures()
			c.log.Debug("event delivery skipped", "room", evt.RoomID(), "error", err)
		}
		cancel()
	}

	for _, sink := range c.permanent {
		deliverCtx, cancel := context.WithTimeout(context.Background(), c.timeout)
		if err := sink.Consume(deliverCtx, evt); err != nil {
			c.stats.IncrFanoutFailures()
			c.log.Debug("permanent sink rejected event", "room", evt.RoomID(), "error", err)
		}
		cancel()
	}
}

// roomLock returns the serialization mutex of a room, creating it on first
// use. Lock entries are never reaped; their count is bounded by the number
// of distinct room names seen.
func (c *Coordinator) roomLock(room domain.RoomID) *sync.Mutex {
	c.lockMu.Lock()
	defer c.lockMu.Unlock()
	mu, ok := c.roomLocks[room]
	if !ok {
		mu = &sync.Mutex{}
		c.roomLocks[room] = mu
	}
	return mu
}

// lockRooms locks the serialization domains of up to two rooms in a stable
// order, so concurrent join-moves between the same pair cannot deadlock.
// Empty room IDs are skipped. The returned func releases in reverse order.
func (c *Coordinator) lockRooms(a, b domain.RoomID) func() {
	var keys []domain.RoomID
	switch {
	case a == "" && b == "":
	case a == "" || a == b:
		keys = []domain.RoomID{b}
	case b == "":
		keys = []domain.RoomID{a}
	case a < b:
		keys = []domain.RoomID{a, b}
	default:
		keys = []domain.RoomID{b, a}
	}

	locked := make([]*sync.Mutex, 0, len(keys))
	for _, key := range keys {
		mu := c.roomLock(key)
		mu.Lock()
		locked = append(locked, mu)
	}
	return func() {
		for i := len(locked) - 1; i >= 0; i-- {
			locked[i].Unlock()
		}
	}
}
