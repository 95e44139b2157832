//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-relay/domain"
	"chat-relay/domain/event"
	"context"
	"reflect"
)

// EventSink receives fan-out events for one consumer. Implementations must
// not block: a sink that cannot accept an event drops it and returns.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// MessageStore is the durable, per-room-ordered message log. Append must
// not return before the record is durable; IDs are globally unique and
// strictly increasing in append order.
type MessageStore interface {
	Append(ctx context.Context, room domain.RoomID, sender, text string, sentAt int64) (domain.Message, error)
	History(ctx context.Context, room domain.RoomID, limit int) ([]domain.Message, error)
	Close() error
}

// Worker doesn't protect itself; supervision handles panics and restarts.
type Worker interface {
	Run(ctx context.Context) error
}

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Stop()
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// Used for logging and supervision, avoiding manual naming in the Worker
// interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
