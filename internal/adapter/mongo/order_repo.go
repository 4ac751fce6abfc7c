package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hamayunsaeed48github/Nawabi-Dinest-Cafe/internal/domain/entity"
	"github.com/hamayunsaeed48github/Nawabi-Dinest-Cafe/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const orderCollectionName = "orders"

type orderRepository struct {
	collection *mongo.Collection
}

func NewOrderRepository(db *mongo.Database) repository.OrderRepository {
	return &orderRepository{
		collection: db.Collection(orderCollectionName),
	}
}

func (r *orderRepository) Create(ctx context.Context, params repository.CreateOrderParams) (*entity.Order, error) {
	now := time.Now().UTC()
	order := entity.Order{
		ID:            primitive.NewObjectID(),
		UserID:        params.UserID,
		Items:         params.Items,
		TotalPrice:    params.TotalPrice,
		Status:        params.Status,
		PaymentMethod: params.PaymentMethod,
		PaymentID:     params.PaymentID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if _, err := r.collection.InsertOne(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	return &order, nil
}

func (r *orderRepository) GetByID(ctx context.Context, orderID primitive.ObjectID) (*entity.Order, error) {
	var order entity.Order
	err := r.collection.FindOne(ctx, bson.M{"_id": orderID}).Decode(&order)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get order %s: %w", orderID.Hex(), err)
	}
	return &order, nil
}

// MarkDelivered overwrites the status unconditionally. Delivering an already
// delivered order simply returns it again.
func (r *orderRepository) MarkDelivered(ctx context.Context, orderID primitive.ObjectID) (*entity.Order, error) {
	update := bson.M{
		"$set": bson.M{
			"status":     entity.StatusDelivered,
			"updated_at": time.Now().UTC(),
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var order entity.Order
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": orderID}, update, opts).Decode(&order)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to mark order %s delivered: %w", orderID.Hex(), err)
	}
	return &order, nil
}

func (r *orderRepository) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]entity.Order, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, findOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders for user %s: %w", userID.Hex(), err)
	}
	defer cursor.Close(ctx)

	var orders []entity.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("failed to decode listed orders: %w", err)
	}
	return orders, nil
}
