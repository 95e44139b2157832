package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"

	"github.com/google/uuid"
)

// Session is one live connection. Name and Room start empty and are set by
// the first join; both are guarded by the registry's lock and must only be
// touched through registry methods.
type Session struct {
	ID   string
	Name string
	Room domain.RoomID

	sink contract.EventSink
}

func NewSession(sink contract.EventSink) *Session {
	return &Session{ID: uuid.NewString(), sink: sink}
}

func (s *Session) Sink() contract.EventSink { return s.sink }
