package infra

import (
	"context"
	"strings"
	"testing"
	"time"

	"view-counter/viewcount/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seedYAML = `
items:
  - id: 42
    title: Hello
    published_at: 2025-06-01T08:00:00Z
    categories: [3, 7]
    url: https://example.org/hello
    views: 3
  - id: 43
    type: page
    status: draft
    published_at: 2025-06-02T08:00:00Z
`

func TestDecodeSeed(t *testing.T) {
	items, err := DecodeSeed(strings.NewReader(seedYAML))
	require.NoError(t, err)
	require.Len(t, items, 2)

	first := items[0].Item()
	assert.Equal(t, domain.ItemID(42), first.ID)
	assert.Equal(t, domain.DefaultItemType, first.Type)
	assert.True(t, first.Published)
	assert.Equal(t, []int64{3, 7}, first.Categories)
	assert.True(t, first.PublishedAt.Equal(time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)))

	second := items[1].Item()
	assert.Equal(t, "page", second.Type)
	assert.False(t, second.Published)
}

func TestDecodeSeed_Errors(t *testing.T) {
	_, err := DecodeSeed(strings.NewReader("items:\n  - id: 0\n"))
	assert.Error(t, err)

	_, err = DecodeSeed(strings.NewReader("items:\n  - id: 1\n    colour: red\n"))
	assert.Error(t, err, "unknown fields are rejected")

	items, err := DecodeSeed(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestSeed(t *testing.T) {
	items, err := DecodeSeed(strings.NewReader(seedYAML))
	require.NoError(t, err)

	client, _ := newTestRedis(t)
	catalog := NewRedisItemStore(client)
	views := NewRedisViewStore(client)
	ctx := context.Background()

	n, err := Seed(ctx, catalog, views, items)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	it, err := catalog.Get(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "Hello", it.Title)

	count, err := views.Get(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}
