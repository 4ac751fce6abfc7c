package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CatalogRepository is the read-only view of the item catalog used by the
// order workflow. Catalog management lives elsewhere.
type CatalogRepository interface {
	// PriceByID returns the item price in minor currency units, or
	// ErrNotFound for an unknown item.
	PriceByID(ctx context.Context, itemID primitive.ObjectID) (int64, error)
}

// PriceCache is a read-through cache in front of the catalog.
type PriceCache interface {
	Get(ctx context.Context, itemID primitive.ObjectID) (int64, error)
	Set(ctx context.Context, itemID primitive.ObjectID, price int64, ttl time.Duration) error
}
