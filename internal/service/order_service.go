package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hamayunsaeed48github/Nawabi-Dinest-Cafe/internal/adapter/nats"
	"github.com/hamayunsaeed48github/Nawabi-Dinest-Cafe/internal/adapter/payment"
	"github.com/hamayunsaeed48github/Nawabi-Dinest-Cafe/internal/domain/entity"
	"github.com/hamayunsaeed48github/Nawabi-Dinest-Cafe/internal/platform/logger"
	"github.com/hamayunsaeed48github/Nawabi-Dinest-Cafe/internal/platform/metrics"
	"github.com/hamayunsaeed48github/Nawabi-Dinest-Cafe/internal/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const (
	SubjectOrderCreated   = "order.created"
	SubjectOrderDelivered = "order.delivered"
)

// OrderEvent is the payload published on order lifecycle subjects.
type OrderEvent struct {
	OrderID       string    `json:"orderId"`
	UserID        string    `json:"userId"`
	TotalPrice    int64     `json:"totalPrice"`
	Status        string    `json:"status"`
	PaymentMethod string    `json:"paymentMethod"`
	OccurredAt    time.Time `json:"occurredAt"`
}

// PaymentIntentResult carries what the client needs to complete a card
// payment for the order it references.
type PaymentIntentResult struct {
	OrderID      primitive.ObjectID
	ClientSecret string
	Amount       int64
}

// OrderService owns order placement, payment intent creation and delivery.
type OrderService interface {
	// PlaceOrder creates a cash-on-delivery order in Confirmed status.
	PlaceOrder(ctx context.Context, userID primitive.ObjectID, items []entity.OrderItem) (*entity.Order, error)
	// CreatePaymentIntent creates a Stripe order together with a gateway
	// intent covering item total, delivery fee and tax.
	CreatePaymentIntent(ctx context.Context, userID primitive.ObjectID, items []entity.OrderItem) (*PaymentIntentResult, error)
	// DeliverOrder marks the order Delivered. It is idempotent.
	DeliverOrder(ctx context.Context, orderID primitive.ObjectID) (*entity.Order, error)
	// GetOrder returns the order if the requester owns it or is staff.
	GetOrder(ctx context.Context, orderID, requesterID primitive.ObjectID, requesterRole string) (*entity.Order, error)
}

type OrderPricing struct {
	DeliveryFee int64
	TaxRateBps  int64
	Currency    string
}

type orderService struct {
	orders        repository.OrderRepository
	accounts      repository.AccountRepository
	catalog       repository.CatalogRepository
	priceCache    repository.PriceCache
	gateway       payment.Gateway
	publisher     nats.MessagePublisher
	metrics       *metrics.Manager
	log           logger.Logger
	tracer        trace.Tracer
	pricing       OrderPricing
	priceCacheTTL time.Duration
}

func NewOrderService(
	orders repository.OrderRepository,
	accounts repository.AccountRepository,
	catalog repository.CatalogRepository,
	priceCache repository.PriceCache,
	gateway payment.Gateway,
	publisher nats.MessagePublisher,
	m *metrics.Manager,
	log logger.Logger,
	pricing OrderPricing,
	priceCacheTTL time.Duration,
) OrderService {
	return &orderService{
		orders:        orders,
		accounts:      accounts,
		catalog:       catalog,
		priceCache:    priceCache,
		gateway:       gateway,
		publisher:     publisher,
		metrics:       m,
		log:           log.With("service", "order"),
		tracer:        otel.Tracer("order-service"),
		pricing:       pricing,
		priceCacheTTL: priceCacheTTL,
	}
}

// resolvePrice reads through the cache to the catalog. Cache failures other
// than a miss are logged and treated as a miss; the catalog stays the source
// of truth.
func (s *orderService) resolvePrice(ctx context.Context, itemID primitive.ObjectID) (int64, error) {
	price, err := s.priceCache.Get(ctx, itemID)
	if err == nil {
		return price, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		s.log.Warnf("price cache lookup failed for item %s: %v", itemID.Hex(), err)
	}

	price, err = s.catalog.PriceByID(ctx, itemID)
	if err != nil {
		return 0, err
	}
	if cacheErr := s.priceCache.Set(ctx, itemID, price, s.priceCacheTTL); cacheErr != nil {
		s.log.Warnf("failed to cache price for item %s: %v", itemID.Hex(), cacheErr)
	}
	return price, nil
}

// itemsTotal validates the order lines and sums price*quantity over the
// catalog prices. An unknown item fails the whole order.
func (s *orderService) itemsTotal(ctx context.Context, items []entity.OrderItem) (int64, error) {
	if len(items) == 0 {
		return 0, ErrValidation("order must contain at least one item")
	}

	var total int64
	for _, item := range items {
		if item.ItemID.IsZero() || item.Quantity < 1 {
			return 0, ErrValidation("each order item needs an item id and a positive quantity")
		}
		price, err := s.resolvePrice(ctx, item.ItemID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return 0, ErrNotFound(fmt.Sprintf("item %s does not exist", item.ItemID.Hex()))
			}
			return 0, ErrInternal(err)
		}
		total += price * int64(item.Quantity)
	}
	return total, nil
}

func (s *orderService) publishEvent(ctx context.Context, subject string, order *entity.Order) {
	event := OrderEvent{
		OrderID:       order.ID.Hex(),
		UserID:        order.UserID.Hex(),
		TotalPrice:    order.TotalPrice,
		Status:        string(order.Status),
		PaymentMethod: string(order.PaymentMethod),
		OccurredAt:    time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, subject, event); err != nil {
		s.log.Warnf("failed to publish %s for order %s: %v", subject, order.ID.Hex(), err)
	}
}

// appendHistory links the order to its owner. A vanished account leaves the
// order record behind but is surfaced to the caller.
func (s *orderService) appendHistory(ctx context.Context, userID, orderID primitive.ObjectID) error {
	err := s.accounts.AppendOrderHistory(ctx, userID, orderID)
	if err == nil {
		return nil
	}
	s.log.Errorf("failed to append order %s to history of %s: %v", orderID.Hex(), userID.Hex(), err)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound("account for this order no longer exists")
	}
	return ErrInternal(err)
}

func (s *orderService) PlaceOrder(ctx context.Context, userID primitive.ObjectID, items []entity.OrderItem) (*entity.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.PlaceOrder")
	defer span.End()

	total, err := s.itemsTotal(ctx, items)
	if err != nil {
		return nil, err
	}

	order, err := s.orders.Create(ctx, repository.CreateOrderParams{
		UserID:        userID,
		Items:         items,
		TotalPrice:    total,
		Status:        entity.StatusConfirmed,
		PaymentMethod: entity.PaymentCashOnDelivery,
	})
	if err != nil {
		return nil, ErrInternal(err)
	}

	if err := s.appendHistory(ctx, userID, order.ID); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, SubjectOrderCreated, order)
	s.metrics.OrdersPlacedTotal.Inc()
	s.log.Infof("order %s placed by %s, total %d", order.ID.Hex(), userID.Hex(), total)
	return order, nil
}

func (s *orderService) CreatePaymentIntent(ctx context.Context, userID primitive.ObjectID, items []entity.OrderItem) (*PaymentIntentResult, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.CreatePaymentIntent")
	defer span.End()

	total, err := s.itemsTotal(ctx, items)
	if err != nil {
		return nil, err
	}
	amount := entity.PayableAmount(total, s.pricing.DeliveryFee, s.pricing.TaxRateBps)

	// Gateway first: if the intent cannot be created, no order is written.
	intent, err := s.gateway.CreateIntent(ctx, amount, s.pricing.Currency, map[string]string{
		"user_id": userID.Hex(),
	})
	if err != nil {
		return nil, ErrPayment(err)
	}

	// The stored total is what the customer is actually charged: items plus
	// delivery fee plus tax.
	order, err := s.orders.Create(ctx, repository.CreateOrderParams{
		UserID:        userID,
		Items:         items,
		TotalPrice:    amount,
		Status:        entity.StatusConfirmed,
		PaymentMethod: entity.PaymentStripe,
		PaymentID:     intent.ID,
	})
	if err != nil {
		return nil, ErrInternal(err)
	}

	if err := s.appendHistory(ctx, userID, order.ID); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, SubjectOrderCreated, order)
	s.metrics.PaymentIntentsTotal.Inc()
	s.log.Infof("payment intent %s created for order %s, amount %d", intent.ID, order.ID.Hex(), amount)
	return &PaymentIntentResult{
		OrderID:      order.ID,
		ClientSecret: intent.ClientSecret,
		Amount:       amount,
	}, nil
}

func (s *orderService) DeliverOrder(ctx context.Context, orderID primitive.ObjectID) (*entity.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.DeliverOrder")
	defer span.End()

	order, err := s.orders.MarkDelivered(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound("order not found")
		}
		return nil, ErrInternal(err)
	}

	s.publishEvent(ctx, SubjectOrderDelivered, order)
	s.log.Infof("order %s marked delivered", orderID.Hex())
	return order, nil
}

func (s *orderService) GetOrder(ctx context.Context, orderID, requesterID primitive.ObjectID, requesterRole string) (*entity.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound("order not found")
		}
		return nil, ErrInternal(err)
	}
	if order.UserID != requesterID && requesterRole != entity.RoleStaff {
		return nil, ErrNotFound("order not found")
	}
	return order, nil
}
