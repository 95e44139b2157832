// Package services exposes the relay's operations behind one facade so
// transports never touch the coordinator or stores directly.
package services

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/observability"
	"chat-relay/projection"
	"chat-relay/runtime"
	"chat-relay/search"
	"context"
)

type IChatService interface {
	Connect(sink contract.EventSink) *runtime.Session
	Join(ctx context.Context, s *runtime.Session, room domain.RoomID, name string)
	Chat(ctx context.Context, s *runtime.Session, room domain.RoomID, sender, text string, sentAt int64) error
	Typing(ctx context.Context, s *runtime.Session, room domain.RoomID, from string, active bool)
	Disconnect(ctx context.Context, s *runtime.Session)
	History(ctx context.Context, room domain.RoomID, limit int) ([]domain.Message, error)
	Search(ctx context.Context, room domain.RoomID, query string, limit int) ([]search.Hit, error)
	Recent(room domain.RoomID) []domain.Message
	ActiveRooms() []domain.RoomID
	Stats() observability.Report
}

// ChatService wires the coordinator with the read-side projections.
// Index and Timeline may be nil when the deployment disables them.
type ChatService struct {
	coordinator *runtime.Coordinator
	index       *search.Index
	timeline    *projection.Timeline
	stats       *observability.Stats
}

func NewChatService(coordinator *runtime.Coordinator, index *search.Index, timeline *projection.Timeline, stats *observability.Stats) *ChatService {
	return &ChatService{coordinator: coordinator, index: index, timeline: timeline, stats: stats}
}

func (s *ChatService) Connect(sink contract.EventSink) *runtime.Session {
	return s.coordinator.Connect(sink)
}

func (s *ChatService) Join(ctx context.Context, session *runtime.Session, room domain.RoomID, name string) {
	s.coordinator.HandleJoin(ctx, session, room, name)
}

func (s *ChatService) Chat(ctx context.Context, session *runtime.Session, room domain.RoomID, sender, text string, sentAt int64) error {
	return s.coordinator.HandleChat(ctx, session, room, sender, text, sentAt)
}

func (s *ChatService) Typing(ctx context.Context, session *runtime.Session, room domain.RoomID, from string, active bool) {
	s.coordinator.HandleTyping(ctx, session, room, from, active)
}

func (s *ChatService) Disconnect(ctx context.Context, session *runtime.Session) {
	s.coordinator.Disconnect(ctx, session)
}

func (s *ChatService) History(ctx context.Context, room domain.RoomID, limit int) ([]domain.Message, error) {
	return s.coordinator.History(ctx, room, limit)
}

func (s *ChatService) Search(ctx context.Context, room domain.RoomID, query string, limit int) ([]search.Hit, error) {
	if s.index == nil {
		return nil, nil
	}
	return s.index.Search(ctx, room, query, limit)
}

func (s *ChatService) Recent(room domain.RoomID) []domain.Message {
	if s.timeline == nil {
		return nil
	}
	return s.timeline.Recent(room)
}

func (s *ChatService) ActiveRooms() []domain.RoomID {
	if s.timeline == nil {
		return nil
	}
	return s.timeline.ActiveRooms()
}

func (s *ChatService) Stats() observability.Report {
	rooms, sessions := s.coordinator.Counts()
	return s.stats.Snapshot(rooms, sessions)
}
