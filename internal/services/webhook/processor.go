package webhook

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"pagora/internal/services/gateway"
	"pagora/internal/services/transaction"
)

// Applier is the slice of the transaction service the processor needs.
type Applier interface {
	ApplyProviderEvent(ctx context.Context, in transaction.ApplyInput) (*transaction.ApplyResult, error)
}

// Enqueuer accepts domain events for outbound dispatch.
type Enqueuer interface {
	Enqueue(ctx context.Context, event DomainEvent) error
}

// Processor authenticates inbound provider events and applies them to the
// transaction state machine. Non-actionable events (duplicates, unknown
// transactions, invalid transitions) are acknowledged so the provider stops
// retrying; the real reason is logged internally only.
type Processor struct {
	gateways *gateway.Registry
	secrets  map[string]string // provider name -> webhook signing secret
	applier  Applier
	enqueuer Enqueuer
}

// NewProcessor creates the inbound webhook processor.
func NewProcessor(gateways *gateway.Registry, secrets map[string]string, applier Applier, enqueuer Enqueuer) *Processor {
	if gateways == nil {
		panic("gateway registry is required")
	}
	if applier == nil {
		panic("applier is required")
	}
	return &Processor{
		gateways: gateways,
		secrets:  secrets,
		applier:  applier,
		enqueuer: enqueuer,
	}
}

// Process handles one raw provider webhook request. getHeader resolves a
// request header by name. A nil return means the event should be
// acknowledged with 200, whether it changed state or was intentionally
// ignored; the caller never learns which.
func (p *Processor) Process(ctx context.Context, provider string, body []byte, getHeader func(string) string) error {
	secret := p.secrets[provider]
	if secret == "" {
		// Fail closed: never process events for a provider without a
		// signing secret, even if that means dropping real traffic.
		return fmt.Errorf("%w: %s", ErrProviderNotConfigured, provider)
	}

	gw, err := p.gateways.Get(provider)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrProviderNotConfigured, provider)
	}

	ev, err := gw.VerifyEvent(ctx, body, getHeader(gw.SignatureHeader()), secret)
	if err != nil {
		if errors.Is(err, gateway.ErrInvalidSignature) {
			log.Printf("webhook %s: rejected event with bad signature", provider)
		}
		return err
	}

	res, err := p.applier.ApplyProviderEvent(ctx, transaction.ApplyInput{
		Provider:    provider,
		EventID:     ev.ID,
		EventType:   ev.Type,
		ProviderRef: ev.ProviderRef,
		Target:      ev.Status,
	})
	switch {
	case errors.Is(err, transaction.ErrUnknownTransaction):
		// Acknowledge so the provider does not endlessly retry an event
		// we can never act on.
		log.Printf("webhook %s: event %s references unknown transaction %s", provider, ev.ID, ev.ProviderRef)
		return nil
	case errors.Is(err, transaction.ErrInvalidTransition):
		log.Printf("webhook %s: event %s (%s -> %s) rejected: %v",
			provider, ev.ID, res.Transaction.Status, ev.Status, err)
		return nil
	case err != nil:
		return fmt.Errorf("failed to apply event %s: %w", ev.ID, err)
	}

	if res.Duplicate {
		log.Printf("webhook %s: event %s already processed", provider, ev.ID)
		return nil
	}
	if !res.Changed {
		log.Printf("webhook %s: event %s is a no-op for transaction %s", provider, ev.ID, ev.ProviderRef)
		return nil
	}

	// Exactly one domain event per state-changing application. Outbound
	// delivery is best-effort and never blocks the acknowledgement.
	if p.enqueuer != nil {
		txn := res.Transaction
		if err := p.enqueuer.Enqueue(ctx, DomainEvent{
			Type:          EventTypeFor(txn.Status),
			MerchantID:    txn.MerchantID,
			TransactionID: txn.ID,
			Status:        txn.Status,
			Amount:        txn.Amount,
			OccurredAt:    time.Now().UTC(),
		}); err != nil {
			log.Printf("webhook %s: failed to enqueue %s for transaction %s: %v",
				provider, EventTypeFor(txn.Status), txn.ID, err)
		}
	}
	return nil
}
