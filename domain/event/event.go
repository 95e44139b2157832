package event

import (
	"chat-relay/domain"
)

// DomainEvent is anything the coordinator fans out to room members.
type DomainEvent interface {
	RoomID() domain.RoomID
}

// RosterUpdated carries the full replacement list of display names for a
// room. Sent to every member after a join, a move or a disconnect.
type RosterUpdated struct {
	Room  domain.RoomID
	Users []string
}

func (e RosterUpdated) RoomID() domain.RoomID { return e.Room }

// MessageBroadcast wraps a message that has already been durably persisted.
// The coordinator never emits one before the store confirms the append.
type MessageBroadcast struct {
	Message domain.Message
}

func (e MessageBroadcast) RoomID() domain.RoomID { return e.Message.Room }

// TypingNotice is transient composition activity. It is never persisted and
// is delivered to every member of the room except its author.
type TypingNotice struct {
	Room   domain.RoomID
	From   string
	Active bool
}

func (e TypingNotice) RoomID() domain.RoomID { return e.Room }
