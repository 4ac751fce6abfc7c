package mongo

import (
	"context"
	"errors"

	"github.com/hamayunsaeed48github/Nawabi-Dinest-Cafe/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const itemCollectionName = "items"

// catalogRepository is a read-only view of the items collection. Item CRUD
// is managed by the catalog endpoints, not by the order workflow.
type catalogRepository struct {
	collection *mongo.Collection
}

func NewCatalogRepository(db *mongo.Database) repository.CatalogRepository {
	return &catalogRepository{
		collection: db.Collection(itemCollectionName),
	}
}

func (r *catalogRepository) PriceByID(ctx context.Context, itemID primitive.ObjectID) (int64, error) {
	var doc struct {
		Price int64 `bson:"price"`
	}
	err := r.collection.FindOne(ctx, bson.M{"_id": itemID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, repository.ErrNotFound
		}
		return 0, err
	}
	return doc.Price, nil
}
