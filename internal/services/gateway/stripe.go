package gateway

import (
	"context"
	"errors"
	"fmt"

	stripe "github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/client"
	"github.com/stripe/stripe-go/v72/webhook"
)

// StripeGateway adapts Stripe payment intents and webhook events. It owns
// its own API client; the global stripe.Key is never set.
type StripeGateway struct {
	api *client.API
}

// NewStripeGateway builds the Stripe adapter from a secret key.
func NewStripeGateway(secretKey string) *StripeGateway {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeGateway{api: api}
}

func (g *StripeGateway) Name() string { return "stripe" }

func (g *StripeGateway) SignatureHeader() string { return "Stripe-Signature" }

func (g *StripeGateway) CreateIntent(ctx context.Context, in IntentInput) (*IntentResult, error) {
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(in.Amount),
		Currency:           stripe.String(in.Currency),
		Description:        stripe.String(in.Description),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	params.Context = ctx
	if in.CustomerRef != "" {
		params.Customer = stripe.String(in.CustomerRef)
	}
	if in.IdempotencyKey != "" {
		params.SetIdempotencyKey(in.IdempotencyKey)
	}

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return nil, wrapStripeErr(err)
	}

	return &IntentResult{
		ProviderRef:  pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       mapOrPending(stripeIntentStatus, g.Name(), string(pi.Status)),
	}, nil
}

func (g *StripeGateway) ResolveOrCreateCustomer(ctx context.Context, email, name string) (string, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(email),
	}
	params.Context = ctx
	if name != "" {
		params.Name = stripe.String(name)
	}

	cus, err := g.api.Customers.New(params)
	if err != nil {
		return "", wrapStripeErr(err)
	}
	return cus.ID, nil
}

func (g *StripeGateway) VerifyEvent(ctx context.Context, rawBody []byte, sigHeader, secret string) (*Event, error) {
	ev, err := webhook.ConstructEvent(rawBody, sigHeader, secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	ref := stripeProviderRef(ev)
	if ref == "" {
		return nil, fmt.Errorf("stripe event %s carries no payment intent reference", ev.ID)
	}

	return &Event{
		ID:          ev.ID,
		Type:        ev.Type,
		ProviderRef: ref,
		Status:      mapOrPending(stripeEventStatus, g.Name(), ev.Type),
	}, nil
}

// stripeProviderRef extracts the payment intent id the event refers to.
// Intent events carry it as the object id; charge events reference it via
// the charge's payment_intent field.
func stripeProviderRef(ev stripe.Event) string {
	obj := ev.Data.Object
	if obj == nil {
		return ""
	}
	if pi, ok := obj["payment_intent"].(string); ok && pi != "" {
		return pi
	}
	if id, ok := obj["id"].(string); ok {
		return id
	}
	return ""
}

func wrapStripeErr(err error) error {
	var se *stripe.Error
	if errors.As(err, &se) {
		if se.HTTPStatusCode >= 500 {
			return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
		}
		return fmt.Errorf("%w: %v", ErrProviderRejected, err)
	}
	return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
}
