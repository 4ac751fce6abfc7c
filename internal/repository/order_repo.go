package repository

import (
	"context"

	"github.com/hamayunsaeed48github/Nawabi-Dinest-Cafe/internal/domain/entity"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CreateOrderParams struct {
	UserID        primitive.ObjectID
	Items         []entity.OrderItem
	TotalPrice    int64
	Status        entity.OrderStatus
	PaymentMethod entity.PaymentMethod
	PaymentID     string
}

type OrderRepository interface {
	Create(ctx context.Context, params CreateOrderParams) (*entity.Order, error)
	GetByID(ctx context.Context, orderID primitive.ObjectID) (*entity.Order, error)
	// MarkDelivered sets the status unconditionally and returns the updated
	// order. Calling it on an already delivered order is not an error.
	MarkDelivered(ctx context.Context, orderID primitive.ObjectID) (*entity.Order, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]entity.Order, error)
}
