// Package gateway wraps concrete payment providers behind one capability
// interface: create an intent, resolve a customer, verify a signed webhook
// event. Provider status vocabularies are normalized here so provider
// strings never reach the state machine.
package gateway

import (
	"context"

	"pagora/internal/models"
)

// IntentInput is the provider-agnostic request to open a payment intent.
// Amount is minor units.
type IntentInput struct {
	Amount         int64
	Currency       string
	Method         models.PaymentMethod
	CustomerRef    string
	CustomerEmail  string
	Description    string
	IdempotencyKey string
}

// IntentResult is the provider's answer to intent creation. ClientSecret is
// empty for providers that do not hand one out.
type IntentResult struct {
	ProviderRef  string
	ClientSecret string
	Status       models.TransactionStatus
}

// Event is a verified, normalized provider webhook event.
type Event struct {
	ID          string // provider-assigned event id, the dedup key half
	Type        string // provider event type, kept for audit logging
	ProviderRef string // provider reference of the affected payment
	Status      models.TransactionStatus
}

// Gateway is the minimal capability set the pipeline needs from a PSP.
type Gateway interface {
	Name() string
	// SignatureHeader names the HTTP header carrying the provider's
	// webhook signature.
	SignatureHeader() string
	CreateIntent(ctx context.Context, in IntentInput) (*IntentResult, error)
	ResolveOrCreateCustomer(ctx context.Context, email, name string) (string, error)
	// VerifyEvent authenticates rawBody against sigHeader using secret and
	// decodes it. A signature mismatch returns ErrInvalidSignature.
	VerifyEvent(ctx context.Context, rawBody []byte, sigHeader, secret string) (*Event, error)
}
