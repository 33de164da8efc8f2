package search

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"roomsync/domain"
)

func openTestIndex(t *testing.T) *Index {
	t.Helper()
	writer, err := bluge.OpenWriter(bluge.DefaultConfig(t.TempDir()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = writer.Close() })
	return NewIndex(writer, slog.Default())
}

func indexedMessage(roomID domain.RoomID, author, content string) domain.Message {
	return domain.Message{
		ID:         uuid.New(),
		Room:       roomID,
		SenderID:   "u1",
		SenderName: author,
		Content:    content,
		CreatedAt:  time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
	}
}

func TestIndex_Search_Finds_Matching_Content(t *testing.T) {
	req := require.New(t)
	index := openTestIndex(t)
	roomID := domain.RoomID("design-review")

	m := indexedMessage(roomID, "Alice", "the quarterly invoice is ready")
	req.NoError(index.IndexMessage(m))
	req.NoError(index.IndexMessage(indexedMessage(roomID, "Bob", "lunch anyone?")))

	// When searching for a term present in one message
	hits, err := index.Search(context.Background(), NewQuery("invoice --room design-review"))

	// Then only that message matches, with its stored fields rebuilt
	req.NoError(err)
	req.Len(hits, 1)
	req.Equal(m.ID, hits[0].MessageID)
	req.Equal(roomID, hits[0].Room)
	req.Equal("Alice", hits[0].Author)
	req.Equal(m.Content, hits[0].Content)
	req.Equal(m.CreatedAt, hits[0].At)
	req.Positive(hits[0].Score)
}

func TestIndex_Search_Is_Scoped_To_The_Room(t *testing.T) {
	req := require.New(t)
	index := openTestIndex(t)

	req.NoError(index.IndexMessage(indexedMessage(domain.RoomID("a"), "Alice", "secret plans")))
	req.NoError(index.IndexMessage(indexedMessage(domain.RoomID("b"), "Bob", "secret recipes")))

	hits, err := index.Search(context.Background(), NewQuery("secret --room a"))

	req.NoError(err)
	req.Len(hits, 1)
	req.Equal(domain.RoomID("a"), hits[0].Room)
}

func TestIndex_Reindexing_Same_Message_Is_An_Upsert(t *testing.T) {
	req := require.New(t)
	index := openTestIndex(t)
	roomID := domain.RoomID("design-review")
	m := indexedMessage(roomID, "Alice", "replay after crash")

	// When the same message is indexed twice
	req.NoError(index.IndexMessage(m))
	req.NoError(index.IndexMessage(m))

	// Then it exists once in the index
	hits, err := index.Search(context.Background(), NewQuery("replay --room design-review"))
	req.NoError(err)
	req.Len(hits, 1)
}
