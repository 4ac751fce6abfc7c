package payment

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hamayunsaeed48github/Nawabi-Dinest-Cafe/internal/platform/logger"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/paymentintent"
)

// Intent is the gateway-side record of an in-progress charge. ClientSecret
// is handed to the client to complete payment; ID is stored on the order.
type Intent struct {
	ID           string
	ClientSecret string
}

type Gateway interface {
	// CreateIntent creates a payment intent for the given amount in minor
	// currency units. The returned error carries the gateway's message.
	CreateIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (*Intent, error)
}

type stripeGateway struct {
	log logger.Logger
}

func NewStripeGateway(secretKey string, log logger.Logger) Gateway {
	stripe.Key = secretKey
	return &stripeGateway{log: log}
}

func (g *stripeGateway) CreateIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(currency),
	}
	params.Context = ctx
	// A fresh idempotency key per attempt: a retried HTTP call inside the
	// stripe client cannot double-create an intent.
	params.SetIdempotencyKey(uuid.NewString())
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		g.log.Errorf("stripe payment intent creation failed for amount %d %s: %v", amount, currency, err)
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	g.log.Infof("payment intent %s created for amount %d %s", pi.ID, amount, currency)
	return &Intent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}
