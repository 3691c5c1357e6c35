package webhook

import (
	"time"

	"pagora/internal/models"
)

// Domain event types delivered to merchant endpoints.
const (
	EventTransactionProcessing = "transaction.processing"
	EventTransactionPaid       = "transaction.paid"
	EventTransactionFailed     = "transaction.failed"
	EventTransactionCancelled  = "transaction.cancelled"
	EventTransactionRefunded   = "transaction.refunded"
	EventTransactionChargeback = "transaction.chargeback"
)

// EventTypes lists every domain event a merchant endpoint can subscribe to.
var EventTypes = []string{
	EventTransactionProcessing,
	EventTransactionPaid,
	EventTransactionFailed,
	EventTransactionCancelled,
	EventTransactionRefunded,
	EventTransactionChargeback,
}

// DomainEvent is one internal event produced by a successful state
// transition, destined for the merchant's webhook endpoints.
type DomainEvent struct {
	Type          string
	MerchantID    uint
	TransactionID string
	Status        models.TransactionStatus
	Amount        int64
	OccurredAt    time.Time
}

// EventTypeFor maps an internal status to its domain event type.
func EventTypeFor(status models.TransactionStatus) string {
	return "transaction." + string(status)
}

// deliveryPayload is the JSON body posted to merchant endpoints.
type deliveryPayload struct {
	EventType     string                   `json:"event_type"`
	TransactionID string                   `json:"transaction_id"`
	Status        models.TransactionStatus `json:"status"`
	Amount        int64                    `json:"amount"`
	OccurredAt    time.Time                `json:"occurred_at"`
}
