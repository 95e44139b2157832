// Package ws carries the relay's wire protocol: JSON envelopes over a
// WebSocket, one connection per session. Inbound frames are discriminated
// by their "type" field; malformed or invalid frames are logged and
// skipped without closing the connection.
package ws

import (
	"encoding/json"
	"fmt"

	"chat-relay/domain"
	"chat-relay/domain/event"

	"github.com/go-playground/validator/v10"
)

const (
	typeJoin   = "join"
	typeChat   = "chat"
	typeTyping = "typing"
	typeSystem = "system"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type joinFrame struct {
	Type string `json:"type" validate:"required,eq=join"`
	Room string `json:"room" validate:"required"`
	Name string `json:"name" validate:"required"`
}

type chatFrame struct {
	Type   string `json:"type" validate:"required,eq=chat"`
	Room   string `json:"room" validate:"required"`
	Sender string `json:"sender" validate:"required"`
	Text   string `json:"text" validate:"required"`
	Ts     int64  `json:"ts"`
}

type typingFrame struct {
	Type   string `json:"type" validate:"required,eq=typing"`
	Room   string `json:"room" validate:"required"`
	From   string `json:"from" validate:"required"`
	Active bool   `json:"active"`
}

// decodeInbound parses a raw frame into one of the typed inbound frames.
func decodeInbound(raw []byte) (any, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}

	switch probe.Type {
	case typeJoin:
		var frame joinFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			return nil, fmt.Errorf("decode join: %w", err)
		}
		if err := validate.Struct(frame); err != nil {
			return nil, fmt.Errorf("invalid join: %w", err)
		}
		return frame, nil
	case typeChat:
		var frame chatFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			return nil, fmt.Errorf("decode chat: %w", err)
		}
		if err := validate.Struct(frame); err != nil {
			return nil, fmt.Errorf("invalid chat: %w", err)
		}
		return frame, nil
	case typeTyping:
		var frame typingFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			return nil, fmt.Errorf("decode typing: %w", err)
		}
		if err := validate.Struct(frame); err != nil {
			return nil, fmt.Errorf("invalid typing: %w", err)
		}
		return frame, nil
	default:
		return nil, fmt.Errorf("unknown frame type %q", probe.Type)
	}
}

type systemFrame struct {
	Type  string   `json:"type"`
	Event string   `json:"event"`
	Users []string `json:"users"`
}

type chatOutFrame struct {
	Type   string `json:"type"`
	ID     int64  `json:"id"`
	Room   string `json:"room"`
	Sender string `json:"sender"`
	Text   string `json:"text"`
	Ts     int64  `json:"ts"`
}

type typingOutFrame struct {
	Type   string `json:"type"`
	From   string `json:"from"`
	Active bool   `json:"active"`
}

// toWire converts a domain event into its outbound frame.
func toWire(e event.DomainEvent) any {
	switch evt := e.(type) {
	case event.RosterUpdated:
		users := evt.Users
		if users == nil {
			users = []string{}
		}
		return systemFrame{Type: typeSystem, Event: "users", Users: users}
	case event.MessageBroadcast:
		msg := evt.Message
		return chatOutFrame{
			Type:   typeChat,
			ID:     msg.ID,
			Room:   string(msg.Room),
			Sender: msg.Sender,
			Text:   msg.Text,
			Ts:     msg.SentAt,
		}
	case event.TypingNotice:
		return typingOutFrame{Type: typeTyping, From: evt.From, Active: evt.Active}
	default:
		return nil
	}
}

func roomID(room string) domain.RoomID { return domain.RoomID(room) }
