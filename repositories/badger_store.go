package repositories

import (
	"chat-relay/domain"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"
)

const nextIDKey = "chat/next-message-id"

// BadgerStore persists messages in BadgerDB.
// Keys are formatted as "msg:{room}:{id_padded}" to:
//  1. Group all messages of a room under one scan prefix. The room segment
//     is escaped so names containing the separator cannot bleed into
//     another room's prefix.
//  2. Ensure arrival-order sorting using 19-digit zero padding
//     (lexicographical order matches numeric order).
//
// IDs come from a persisted badger Sequence with bandwidth 1, so they are
// strictly increasing across appends and across restarts.
type BadgerStore struct {
	db  *badger.DB
	seq *badger.Sequence
	log *slog.Logger
}

// NewBadgerStore wires an opened badger DB. The caller owns the DB handle;
// Close releases only the ID sequence lease.
func NewBadgerStore(db *badger.DB, log *slog.Logger) (*BadgerStore, error) {
	seq, err := db.GetSequence([]byte(nextIDKey), 1)
	if err != nil {
		return nil, fmt.Errorf("message id sequence: %w", err)
	}
	return &BadgerStore{db: db, seq: seq, log: log}, nil
}

type diskMessage struct {
	ID     int64  `json:"id"`
	Room   string `json:"room"`
	Sender string `json:"sender"`
	Text   string `json:"text"`
	Ts     int64  `json:"ts"`
}

// roomKeySegment escapes '%' then ':' so a room name can never contain the
// key separator. "a" and "a:0other" scan disjoint prefixes.
func roomKeySegment(room domain.RoomID) string {
	escaped := strings.ReplaceAll(string(room), "%", "%25")
	return strings.ReplaceAll(escaped, ":", "%3A")
}

func messageKey(room domain.RoomID, id int64) []byte {
	return []byte(fmt.Sprintf("msg:%s:%019d", roomKeySegment(room), id))
}

func (s *BadgerStore) Append(ctx context.Context, room domain.RoomID, sender, text string, sentAt int64) (domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return domain.Message{}, err
	}

	next, err := s.seq.Next()
	if err != nil {
		return domain.Message{}, fmt.Errorf("next message id: %w", err)
	}
	// Sequences start at zero; message IDs start at one.
	id := int64(next) + 1

	msg := domain.Message{ID: id, Room: room, Sender: sender, Text: text, SentAt: sentAt}
	bytes, err := json.Marshal(fromMessage(msg))
	if err != nil {
		return domain.Message{}, err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(messageKey(room, id), bytes)
	})
	if err != nil {
		return domain.Message{}, fmt.Errorf("store message: %w", err)
	}
	return msg, nil
}

// History returns up to limit most-recent messages of a room in ascending
// arrival order. It scans the room prefix in reverse (newest first) to stop
// early once limit is reached, then flips the batch.
func (s *BadgerStore) History(ctx context.Context, room domain.RoomID, limit int) ([]domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	limit = normalizeLimit(limit)

	var raw [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := []byte(fmt.Sprintf("msg:%s:", roomKeySegment(room)))
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		// Seek past the highest possible ID, then walk backwards.
		seekKey := append(append([]byte{}, prefix...), []byte("9999999999999999999")...)
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if len(raw) == limit {
				break
			}
			err := it.Item().Value(func(value []byte) error {
				raw = append(raw, append([]byte{}, value...))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	messages := make([]domain.Message, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		var dm diskMessage
		if err := json.Unmarshal(raw[i], &dm); err != nil {
			return nil, err
		}
		messages = append(messages, toMessage(dm))
	}
	return messages, nil
}

// Close releases the ID sequence lease. The badger DB itself is closed by
// whoever opened it.
func (s *BadgerStore) Close() error {
	return s.seq.Release()
}

func fromMessage(m domain.Message) diskMessage {
	return diskMessage{
		ID:     m.ID,
		Room:   string(m.Room),
		Sender: m.Sender,
		Text:   m.Text,
		Ts:     m.SentAt,
	}
}

func toMessage(dm diskMessage) domain.Message {
	return domain.Message{
		ID:     dm.ID,
		Room:   domain.RoomID(dm.Room),
		Sender: dm.Sender,
		Text:   dm.Text,
		SentAt: dm.Ts,
	}
}

func toMessages(disk []diskMessage) []domain.Message {
	return lo.Map(disk, func(dm diskMessage, _ int) domain.Message {
		return toMessage(dm)
	})
}
