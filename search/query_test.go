package search

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewQuery_Plain_Terms(t *testing.T) {
	req := require.New(t)

	query := NewQuery("quarterly invoice")

	req.Equal("quarterly invoice", query.Terms)
	req.Empty(query.RoomID)
	req.Equal(10, query.Limit)
}

func TestNewQuery_With_Flags(t *testing.T) {
	req := require.New(t)

	query := NewQuery(`/find "invoice" --room design-review --limit 5`)

	req.Equal("invoice", query.Terms)
	req.Equal("design-review", query.RoomID)
	req.Equal(5, query.Limit)
}

func TestNewQuery_Invalid_Limit_Falls_Back(t *testing.T) {
	req := require.New(t)

	query := NewQuery("hello --limit nope")

	req.Equal("hello", query.Terms)
	req.Equal(10, query.Limit)
}

func TestNewQuery_Negative_Limit_Falls_Back(t *testing.T) {
	req := require.New(t)

	query := NewQuery("hello --limit -3")

	req.Equal(10, query.Limit)
}
