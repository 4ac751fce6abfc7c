package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/hamayunsaeed48github/Nawabi-Dinest-Cafe/internal/repository"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const itemPriceCacheKeyPrefix = "item_price:"

// priceCacheRepository keeps catalog prices (minor currency units) hot so
// the order workflow does not hit the catalog store for every line item.
type priceCacheRepository struct {
	client *redis.Client
}

func NewPriceCacheRepository(client *redis.Client) repository.PriceCache {
	return &priceCacheRepository{client: client}
}

func priceKey(itemID primitive.ObjectID) string {
	return itemPriceCacheKeyPrefix + itemID.Hex()
}

func (r *priceCacheRepository) Get(ctx context.Context, itemID primitive.ObjectID) (int64, error) {
	val, err := r.client.Get(ctx, priceKey(itemID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, repository.ErrNotFound
		}
		return 0, fmt.Errorf("failed to get price for item %s from redis: %w", itemID.Hex(), err)
	}

	price, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		// Corrupt entry; drop it so the next lookup refills from the catalog.
		_ = r.client.Del(ctx, priceKey(itemID)).Err()
		return 0, repository.ErrNotFound
	}
	return price, nil
}

func (r *priceCacheRepository) Set(ctx context.Context, itemID primitive.ObjectID, price int64, ttl time.Duration) error {
	err := r.client.Set(ctx, priceKey(itemID), strconv.FormatInt(price, 10), ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to cache price for item %s: %w", itemID.Hex(), err)
	}
	return nil
}
