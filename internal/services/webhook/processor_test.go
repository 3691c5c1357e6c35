package webhook

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagora/internal/models"
	"pagora/internal/services/gateway"
	"pagora/internal/services/transaction"
)

type stubGateway struct {
	event     *gateway.Event
	verifyErr error
}

func (g *stubGateway) Name() string            { return "stripe" }
func (g *stubGateway) SignatureHeader() string { return "Stripe-Signature" }

func (g *stubGateway) CreateIntent(ctx context.Context, in gateway.IntentInput) (*gateway.IntentResult, error) {
	return nil, nil
}

func (g *stubGateway) ResolveOrCreateCustomer(ctx context.Context, email, name string) (string, error) {
	return "", nil
}

func (g *stubGateway) VerifyEvent(ctx context.Context, rawBody []byte, sigHeader, secret string) (*gateway.Event, error) {
	if g.verifyErr != nil {
		return nil, g.verifyErr
	}
	return g.event, nil
}

type stubApplier struct {
	res   *transaction.ApplyResult
	err   error
	calls int
	last  transaction.ApplyInput
}

func (a *stubApplier) ApplyProviderEvent(ctx context.Context, in transaction.ApplyInput) (*transaction.ApplyResult, error) {
	a.calls++
	a.last = in
	return a.res, a.err
}

type stubEnqueuer struct {
	events []DomainEvent
}

func (e *stubEnqueuer) Enqueue(ctx context.Context, event DomainEvent) error {
	e.events = append(e.events, event)
	return nil
}

func noHeaders(string) string { return "" }

func paidEvent() *gateway.Event {
	return &gateway.Event{
		ID:          "evt-1",
		Type:        "payment_intent.succeeded",
		ProviderRef: "pi_123",
		Status:      models.StatusPaid,
	}
}

func paidTransaction() *models.Transaction {
	return &models.Transaction{
		ID:         "tx-1",
		MerchantID: 7,
		Amount:     10000,
		Status:     models.StatusPaid,
	}
}

func TestProcessor_ProviderNotConfigured(t *testing.T) {
	reg := gateway.NewRegistry()
	reg.Register(&stubGateway{event: paidEvent()})
	applier := &stubApplier{}
	p := NewProcessor(reg, map[string]string{}, applier, nil)

	err := p.Process(context.Background(), "stripe", []byte(`{}`), noHeaders)
	assert.ErrorIs(t, err, ErrProviderNotConfigured)
	assert.Zero(t, applier.calls)
}

func TestProcessor_UnknownProviderFailsClosed(t *testing.T) {
	p := NewProcessor(gateway.NewRegistry(), map[string]string{"ghost": "whsec"}, &stubApplier{}, nil)

	err := p.Process(context.Background(), "ghost", []byte(`{}`), noHeaders)
	assert.ErrorIs(t, err, ErrProviderNotConfigured)
}

func TestProcessor_InvalidSignature(t *testing.T) {
	reg := gateway.NewRegistry()
	reg.Register(&stubGateway{verifyErr: gateway.ErrInvalidSignature})
	applier := &stubApplier{}
	p := NewProcessor(reg, map[string]string{"stripe": "whsec"}, applier, nil)

	err := p.Process(context.Background(), "stripe", []byte(`{}`), noHeaders)
	assert.ErrorIs(t, err, gateway.ErrInvalidSignature)
	assert.Zero(t, applier.calls)
}

func TestProcessor_StateChangeEnqueuesOneEvent(t *testing.T) {
	reg := gateway.NewRegistry()
	reg.Register(&stubGateway{event: paidEvent()})
	applier := &stubApplier{res: &transaction.ApplyResult{
		Transaction: paidTransaction(),
		Changed:     true,
	}}
	enq := &stubEnqueuer{}
	p := NewProcessor(reg, map[string]string{"stripe": "whsec"}, applier, enq)

	err := p.Process(context.Background(), "stripe", []byte(`{}`), noHeaders)
	require.NoError(t, err)

	assert.Equal(t, 1, applier.calls)
	assert.Equal(t, "stripe", applier.last.Provider)
	assert.Equal(t, "evt-1", applier.last.EventID)
	assert.Equal(t, models.StatusPaid, applier.last.Target)

	require.Len(t, enq.events, 1)
	assert.Equal(t, EventTransactionPaid, enq.events[0].Type)
	assert.Equal(t, "tx-1", enq.events[0].TransactionID)
	assert.Equal(t, uint(7), enq.events[0].MerchantID)
	assert.Equal(t, int64(10000), enq.events[0].Amount)
}

func TestProcessor_DuplicateAcksWithoutEnqueue(t *testing.T) {
	reg := gateway.NewRegistry()
	reg.Register(&stubGateway{event: paidEvent()})
	enq := &stubEnqueuer{}
	p := NewProcessor(reg, map[string]string{"stripe": "whsec"},
		&stubApplier{res: &transaction.ApplyResult{Duplicate: true}}, enq)

	err := p.Process(context.Background(), "stripe", []byte(`{}`), noHeaders)
	assert.NoError(t, err)
	assert.Empty(t, enq.events)
}

func TestProcessor_UnknownTransactionAcks(t *testing.T) {
	reg := gateway.NewRegistry()
	reg.Register(&stubGateway{event: paidEvent()})
	enq := &stubEnqueuer{}
	p := NewProcessor(reg, map[string]string{"stripe": "whsec"},
		&stubApplier{err: transaction.ErrUnknownTransaction}, enq)

	err := p.Process(context.Background(), "stripe", []byte(`{}`), noHeaders)
	assert.NoError(t, err)
	assert.Empty(t, enq.events)
}

func TestProcessor_InvalidTransitionAcks(t *testing.T) {
	reg := gateway.NewRegistry()
	reg.Register(&stubGateway{event: &gateway.Event{
		ID:          "evt-2",
		Type:        "payment_intent.payment_failed",
		ProviderRef: "pi_123",
		Status:      models.StatusFailed,
	}})
	enq := &stubEnqueuer{}
	p := NewProcessor(reg, map[string]string{"stripe": "whsec"},
		&stubApplier{
			res: &transaction.ApplyResult{Transaction: paidTransaction()},
			err: transaction.ErrInvalidTransition,
		}, enq)

	err := p.Process(context.Background(), "stripe", []byte(`{}`), noHeaders)
	assert.NoError(t, err)
	assert.Empty(t, enq.events)
}

func TestProcessor_NoopDoesNotEnqueue(t *testing.T) {
	reg := gateway.NewRegistry()
	reg.Register(&stubGateway{event: paidEvent()})
	enq := &stubEnqueuer{}
	p := NewProcessor(reg, map[string]string{"stripe": "whsec"},
		&stubApplier{res: &transaction.ApplyResult{Transaction: paidTransaction()}}, enq)

	err := p.Process(context.Background(), "stripe", []byte(`{}`), noHeaders)
	assert.NoError(t, err)
	assert.Empty(t, enq.events)
}
