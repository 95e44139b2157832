// Package search maintains a full-text index over broadcast messages and
// answers room-scoped text queries. The index is a read-side observer: it
// is fed by fan-out and plays no part in persistence, so a lost index entry
// only degrades search results.
package search

import (
	"chat-relay/domain"
	"chat-relay/domain/event"
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/blugelabs/bluge"
)

const defaultSearchLimit = 25

// Index wraps a bluge writer over message documents.
type Index struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func Open(path string, log *slog.Logger) (*Index, error) {
	writer, err := bluge.OpenWriter(bluge.DefaultConfig(path))
	if err != nil {
		return nil, fmt.Errorf("open search index: %w", err)
	}
	return &Index{writer: writer, log: log}, nil
}

func (i *Index) Close() error {
	return i.writer.Close()
}

// Consume indexes broadcast messages; every other event type is skipped.
// Updates are keyed by message ID, so re-delivery is idempotent.
func (i *Index) Consume(_ context.Context, e event.DomainEvent) error {
	broadcast, ok := e.(event.MessageBroadcast)
	if !ok {
		return nil
	}
	msg := broadcast.Message

	doc := bluge.NewDocument(strconv.FormatInt(msg.ID, 10)).
		AddField(bluge.NewKeywordField("room", string(msg.Room)).StoreValue()).
		AddField(bluge.NewKeywordField("sender", msg.Sender).StoreValue()).
		AddField(bluge.NewTextField("text", msg.Text).StoreValue()).
		AddField(bluge.NewStoredOnlyField("ts", []byte(strconv.FormatInt(msg.SentAt, 10))))

	if err := i.writer.Update(doc.ID(), doc); err != nil {
		return fmt.Errorf("index message %d: %w", msg.ID, err)
	}
	return nil
}

// Hit is one search result.
type Hit struct {
	ID     int64  `json:"id"`
	Room   string `json:"room"`
	Sender string `json:"sender"`
	Text   string `json:"text"`
	Ts     int64  `json:"ts"`
}

// Search matches query terms against message text within one room and
// returns the best-scoring hits.
func (i *Index) Search(ctx context.Context, room domain.RoomID, query string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	reader, err := i.writer.Reader()
	if err != nil {
		return nil, fmt.Errorf("search reader: %w", err)
	}
	defer func() { _ = reader.Close() }()

	match := bluge.NewBooleanQuery().
		AddMust(bluge.NewTermQuery(string(room)).SetField("room")).
		AddMust(bluge.NewMatchQuery(query).SetField("text"))

	iterator, err := reader.Search(ctx, bluge.NewTopNSearch(limit, match))
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	var hits []Hit
	for {
		next, err := iterator.Next()
		if err != nil {
			return nil, err
		}
		if next == nil {
			break
		}

		var hit Hit
		err = next.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case "_id":
				hit.ID, _ = strconv.ParseInt(string(value), 10, 64)
			case "room":
				hit.Room = string(value)
			case "sender":
				hit.Sender = string(value)
			case "text":
				hit.Text = string(value)
			case "ts":
				hit.Ts, _ = strconv.ParseInt(string(value), 10, 64)
			}
			return true
		})
		if err != nil {
			return nil, err
		}
		hits = append(hits, hit)
	}
	return hits, nil
}
