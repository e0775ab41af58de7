package kvstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-bff/internal/model"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return New(client), mr
}

func TestSetGetRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	products := []model.ProductSummary{{ID: 1, Slug: "street-deck-8", Name: "Street Deck"}}
	require.NoError(t, store.SetJSON(ctx, KeyProductsList, products, 0))

	got, err := store.Products(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "street-deck-8", got[0].Slug)
}

func TestGetMissingKeyReturnsErrNotFound(t *testing.T) {
	store, _ := newTestStore(t)

	var out []model.ProductSummary
	err := store.GetJSON(context.Background(), "never-set", &out)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestDeleteRemovesKey(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetJSON(ctx, KeyCategoriesList, []model.CategorySummary{{Slug: "decks"}}, 0))
	require.NoError(t, store.Delete(ctx, KeyCategoriesList))

	_, err := store.Categories(ctx)
	assert.True(t, errors.Is(err, ErrNotFound))

	// Deleting again is not an error.
	assert.NoError(t, store.Delete(ctx, KeyCategoriesList))
}

func TestTTLExpiry(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetJSON(ctx, "ephemeral", "value", time.Minute))
	mr.FastForward(2 * time.Minute)

	var out string
	err := store.GetJSON(ctx, "ephemeral", &out)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestProductSEOKey(t *testing.T) {
	assert.Equal(t, "product-seo-meta:street-deck-8", ProductSEOKey("street-deck-8"))
}
