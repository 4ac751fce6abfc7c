package entity

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderStatus string

const (
	StatusConfirmed OrderStatus = "Confirmed"
	StatusDelivered OrderStatus = "Delivered"
)

type PaymentMethod string

const (
	PaymentCashOnDelivery PaymentMethod = "CashOnDelivery"
	PaymentStripe         PaymentMethod = "Stripe"
)

// OrderItem is a single order line. Prices are resolved from the catalog at
// order time and are not stored per line.
type OrderItem struct {
	ItemID   primitive.ObjectID `bson:"item_id" json:"itemId"`
	Quantity int                `bson:"quantity" json:"quantity"`
}

func NewOrderItem(itemID primitive.ObjectID, quantity int) (*OrderItem, error) {
	if itemID.IsZero() {
		return nil, errors.New("item ID cannot be empty")
	}
	if quantity < 1 {
		return nil, errors.New("quantity must be at least 1")
	}
	return &OrderItem{ItemID: itemID, Quantity: quantity}, nil
}

// Order is created in Confirmed status and moves exactly once to Delivered.
// There is no cancellation path. PaymentID is only meaningful for the Stripe
// payment method and carries the gateway intent id.
type Order struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID        primitive.ObjectID `bson:"user_id" json:"userId"`
	Items         []OrderItem        `bson:"items" json:"items"`
	TotalPrice    int64              `bson:"total_price" json:"totalPrice"`
	Status        OrderStatus        `bson:"status" json:"status"`
	PaymentMethod PaymentMethod      `bson:"payment_method" json:"paymentMethod"`
	PaymentID     string             `bson:"payment_id,omitempty" json:"paymentId,omitempty"`
	CreatedAt     time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updatedAt"`
}

// PayableAmount applies the delivery fee and tax (in basis points) on top of
// an item total, rounding the tax half up. Everything is integer minor
// currency units; no floating point enters the computation.
func PayableAmount(itemTotal, deliveryFee, taxRateBps int64) int64 {
	tax := (itemTotal*taxRateBps + 5000) / 10000
	return itemTotal + deliveryFee + tax
}
