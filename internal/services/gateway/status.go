package gateway

import (
	"log"

	"pagora/internal/models"
)

// Fixed mapping tables from provider vocabulary to internal statuses.
// Unmapped values fall back to pending and are logged, never dropped.

var stripeEventStatus = map[string]models.TransactionStatus{
	"payment_intent.processing":     models.StatusProcessing,
	"payment_intent.succeeded":      models.StatusPaid,
	"payment_intent.payment_failed": models.StatusFailed,
	"payment_intent.canceled":       models.StatusCancelled,
	"charge.refunded":               models.StatusRefunded,
	"charge.dispute.created":        models.StatusChargeback,
}

var stripeIntentStatus = map[string]models.TransactionStatus{
	"requires_payment_method": models.StatusPending,
	"requires_confirmation":   models.StatusPending,
	"requires_action":         models.StatusPending,
	"requires_capture":        models.StatusPending,
	"processing":              models.StatusProcessing,
	"succeeded":               models.StatusPaid,
	"canceled":                models.StatusCancelled,
}

var mercadoPagoStatus = map[string]models.TransactionStatus{
	"pending":      models.StatusPending,
	"authorized":   models.StatusProcessing,
	"in_process":   models.StatusProcessing,
	"approved":     models.StatusPaid,
	"rejected":     models.StatusFailed,
	"cancelled":    models.StatusCancelled,
	"refunded":     models.StatusRefunded,
	"charged_back": models.StatusChargeback,
}

func mapOrPending(table map[string]models.TransactionStatus, provider, key string) models.TransactionStatus {
	if s, ok := table[key]; ok {
		return s
	}
	log.Printf("gateway %s: unmapped provider status %q, defaulting to pending", provider, key)
	return models.StatusPending
}
