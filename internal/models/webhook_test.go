package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubscribedTo(t *testing.T) {
	all := &WebhookEndpoint{}
	assert.True(t, all.SubscribedTo("transaction.paid"), "empty set means every event")

	ep := &WebhookEndpoint{EventTypes: []string{"transaction.paid", "transaction.refunded"}}
	assert.True(t, ep.SubscribedTo("transaction.paid"))
	assert.True(t, ep.SubscribedTo("transaction.refunded"))
	assert.False(t, ep.SubscribedTo("transaction.failed"))
}

func TestStatusTerminal(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusProcessing.Terminal())
	for _, s := range []TransactionStatus{StatusPaid, StatusFailed, StatusCancelled, StatusRefunded, StatusChargeback} {
		assert.True(t, s.Terminal(), string(s))
	}
}

func TestPaymentMethodValid(t *testing.T) {
	for _, m := range []PaymentMethod{MethodCreditCard, MethodDebitCard, MethodPix, MethodBoleto, MethodWallet} {
		assert.True(t, m.Valid(), string(m))
	}
	assert.False(t, PaymentMethod("cash").Valid())
	assert.False(t, PaymentMethod("").Valid())
}
