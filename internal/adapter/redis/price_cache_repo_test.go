package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hamayunsaeed48github/Nawabi-Dinest-Cafe/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newTestCache(t *testing.T) (repository.PriceCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewPriceCacheRepository(client), mr
}

func TestPriceCacheRoundTrip(t *testing.T) {
	cache, _ := newTestCache(t)
	itemID := primitive.NewObjectID()

	require.NoError(t, cache.Set(context.Background(), itemID, 250, time.Minute))

	price, err := cache.Get(context.Background(), itemID)
	require.NoError(t, err)
	assert.Equal(t, int64(250), price)
}

func TestPriceCacheMiss(t *testing.T) {
	cache, _ := newTestCache(t)

	_, err := cache.Get(context.Background(), primitive.NewObjectID())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestPriceCacheExpiry(t *testing.T) {
	cache, mr := newTestCache(t)
	itemID := primitive.NewObjectID()

	require.NoError(t, cache.Set(context.Background(), itemID, 250, time.Minute))
	mr.FastForward(2 * time.Minute)

	_, err := cache.Get(context.Background(), itemID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestPriceCacheDropsCorruptEntry(t *testing.T) {
	cache, mr := newTestCache(t)
	itemID := primitive.NewObjectID()
	require.NoError(t, mr.Set(priceKey(itemID), "not-a-number"))

	_, err := cache.Get(context.Background(), itemID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.False(t, mr.Exists(priceKey(itemID)))
}
