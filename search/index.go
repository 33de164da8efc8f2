package search

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/google/uuid"

	"roomsync/domain"
)

// Hit is one search result, rebuilt from the stored index fields.
type Hit struct {
	MessageID uuid.UUID
	Room      domain.RoomID
	Author    string
	Content   string
	At        time.Time
	Score     float64
}

// Index wraps a Bluge writer holding the message index.
type Index struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func NewIndex(writer *bluge.Writer, log *slog.Logger) *Index {
	return &Index{writer: writer, log: log}
}

// IndexMessage upserts one message document. Keyed by message ID, so
// re-indexing after a crash replay is harmless.
func (i *Index) IndexMessage(m domain.Message) error {
	doc := bluge.NewDocument(m.ID.String())
	doc.AddField(bluge.NewKeywordField("room", string(m.Room)).StoreValue())
	doc.AddField(bluge.NewKeywordField("author", m.SenderName).StoreValue())
	doc.AddField(bluge.NewTextField("content", m.Content).StoreValue())
	doc.AddField(bluge.NewDateTimeField("at", m.CreatedAt).StoreValue())

	if err := i.writer.Update(doc.ID(), doc); err != nil {
		return fmt.Errorf("indexing message %s: %w", m.ID, err)
	}
	return nil
}

// Search runs the query against the index, constrained to the query's room.
func (i *Index) Search(ctx context.Context, query *Query) ([]Hit, error) {
	reader, err := i.writer.Reader()
	if err != nil {
		return nil, fmt.Errorf("opening index reader: %w", err)
	}
	defer func() {
		if err := reader.Close(); err != nil {
			i.log.Warn("closing index reader", "error", err)
		}
	}()

	q := bluge.NewBooleanQuery().
		AddMust(bluge.NewMatchQuery(query.Terms).SetField("content"))
	if query.RoomID != "" {
		q.AddMust(bluge.NewTermQuery(query.RoomID).SetField("room"))
	}

	iterator, err := reader.Search(ctx, bluge.NewTopNSearch(query.Limit, q))
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}

	var hits []Hit
	for {
		match, err := iterator.Next()
		if err != nil {
			return nil, fmt.Errorf("iterating matches: %w", err)
		}
		if match == nil {
			break
		}

		hit := Hit{Score: match.Score}
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case "_id":
				if id, parseErr := uuid.Parse(string(value)); parseErr == nil {
					hit.MessageID = id
				}
			case "room":
				hit.Room = domain.RoomID(value)
			case "author":
				hit.Author = string(value)
			case "content":
				hit.Content = string(value)
			case "at":
				if at, parseErr := bluge.DecodeDateTime(value); parseErr == nil {
					hit.At = at
				}
			}
			return true
		})
		if err != nil {
			return nil, fmt.Errorf("reading stored fields: %w", err)
		}
		hits = append(hits, hit)
	}
	return hits, nil
}
