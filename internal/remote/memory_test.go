package remote

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedFeed(t *testing.T, store *MemoryStore, n int) {
	t.Helper()
	ctx := context.Background()
	for i := 1; i <= n; i++ {
		err := store.Set(ctx, "recipes", fmt.Sprintf("r%02d", i), map[string]any{
			"isPublic":  true,
			"createdAt": int64(i * 1000),
		})
		require.NoError(t, err)
	}
}

func TestMemoryStoreGetNotFound(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.Get(context.Background(), "recipes", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreSetGetDelete(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "recipes", "r1", map[string]any{"title": "Ramen"}))

	doc, err := store.Get(ctx, "recipes", "r1")
	require.NoError(t, err)
	assert.Equal(t, "r1", doc.ID)
	assert.Equal(t, "Ramen", doc.String("title"))

	require.NoError(t, store.Delete(ctx, "recipes", "r1"))
	_, err = store.Get(ctx, "recipes", "r1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreQueryFiltersAndOrder(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "recipes", "pub1", map[string]any{"isPublic": true, "createdAt": int64(1000)}))
	require.NoError(t, store.Set(ctx, "recipes", "pub2", map[string]any{"isPublic": true, "createdAt": int64(3000)}))
	require.NoError(t, store.Set(ctx, "recipes", "priv", map[string]any{"isPublic": false, "createdAt": int64(2000)}))

	docs, cursor, err := store.Query(ctx, Query{
		Collection: "recipes",
		Filters:    []Filter{{Field: "isPublic", Value: true}},
		OrderBy:    "createdAt",
		Descending: true,
	})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "pub2", docs[0].ID)
	assert.Equal(t, "pub1", docs[1].ID)
	require.NotNil(t, cursor)
}

func TestMemoryStoreQueryAscending(t *testing.T) {
	store := NewMemoryStore()
	seedFeed(t, store, 3)

	docs, _, err := store.Query(context.Background(), Query{
		Collection: "recipes",
		OrderBy:    "createdAt",
	})
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "r01", docs[0].ID)
	assert.Equal(t, "r03", docs[2].ID)
}

func TestMemoryStoreCursorPagesAreDisjoint(t *testing.T) {
	store := NewMemoryStore()
	seedFeed(t, store, 7)
	ctx := context.Background()

	seen := make(map[string]bool)
	var cursor *Cursor
	pages := 0
	for {
		docs, next, err := store.Query(ctx, Query{
			Collection: "recipes",
			OrderBy:    "createdAt",
			Descending: true,
			Limit:      3,
			StartAfter: cursor,
		})
		require.NoError(t, err)
		if len(docs) == 0 {
			break
		}
		for _, doc := range docs {
			assert.False(t, seen[doc.ID], "document %s returned twice", doc.ID)
			seen[doc.ID] = true
		}
		cursor = next
		pages++
	}

	assert.Equal(t, 3, pages)
	assert.Len(t, seen, 7)
}

func TestMemoryStoreQueryPastEndReturnsEmpty(t *testing.T) {
	store := NewMemoryStore()
	seedFeed(t, store, 2)
	ctx := context.Background()

	docs, cursor, err := store.Query(ctx, Query{
		Collection: "recipes",
		OrderBy:    "createdAt",
		Descending: true,
		Limit:      5,
	})
	require.NoError(t, err)
	require.Len(t, docs, 2)

	docs, next, err := store.Query(ctx, Query{
		Collection: "recipes",
		OrderBy:    "createdAt",
		Descending: true,
		Limit:      5,
		StartAfter: cursor,
	})
	require.NoError(t, err)
	assert.Empty(t, docs)
	assert.Nil(t, next)
}

func TestDocumentAccessors(t *testing.T) {
	doc := &Document{ID: "d1", Data: map[string]any{
		"title":    "Pho",
		"servings": float64(4),
		"count":    int64(2),
		"rating":   4.5,
		"public":   true,
		"tags":     []any{"vegan", "quick"},
	}}

	assert.Equal(t, "Pho", doc.String("title"))
	assert.Equal(t, 4, doc.Int("servings"))
	assert.Equal(t, int64(2), doc.Int64("count"))
	assert.Equal(t, 4.5, doc.Float64("rating"))
	assert.True(t, doc.Bool("public"))
	assert.Equal(t, []string{"vegan", "quick"}, doc.Strings("tags"))

	assert.Equal(t, "", doc.String("missing"))
	assert.Equal(t, int64(0), doc.Int64("missing"))
	assert.False(t, doc.Bool("missing"))
}
