// Package projection holds read-side views fed by the coordinator's
// fan-out. They are best-effort observers and never participate in
// persistence or delivery decisions.
package projection

import (
	"chat-relay/domain"
	"chat-relay/domain/event"
	"context"
	"sync"
)

// Timeline keeps the most recent broadcast messages per room in memory.
// It backs the stats endpoint's recent-activity view.
type Timeline struct {
	mu       sync.RWMutex
	capacity int
	rooms    map[domain.RoomID][]domain.Message
}

func NewTimeline(capacity int) *Timeline {
	if capacity <= 0 {
		capacity = 50
	}
	return &Timeline{
		capacity: capacity,
		rooms:    make(map[domain.RoomID][]domain.Message),
	}
}

func (t *Timeline) Consume(_ context.Context, e event.DomainEvent) error {
	broadcast, ok := e.(event.MessageBroadcast)
	if !ok {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	room := broadcast.Message.Room
	entries := append(t.rooms[room], broadcast.Message)
	if len(entries) > t.capacity {
		entries = entries[len(entries)-t.capacity:]
	}
	t.rooms[room] = entries
	return nil
}

// Recent returns a copy of the room's retained messages, oldest first.
func (t *Timeline) Recent(room domain.RoomID) []domain.Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	entries := t.rooms[room]
	out := make([]domain.Message, len(entries))
	copy(out, entries)
	return out
}

// ActiveRooms lists rooms that have seen at least one broadcast message.
func (t *Timeline) ActiveRooms() []domain.RoomID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rooms := make([]domain.RoomID, 0, len(t.rooms))
	for room := range t.rooms {
		rooms = append(rooms, room)
	}
	return rooms
}
