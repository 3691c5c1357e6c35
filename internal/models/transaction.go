package models

import (
	"time"
)

// TransactionStatus is the internal lifecycle status of a transaction.
// Provider-specific vocabularies are normalized into these values by the
// gateway adapters before they reach the state machine.
type TransactionStatus string

const (
	StatusPending    TransactionStatus = "pending"
	StatusProcessing TransactionStatus = "processing"
	StatusPaid       TransactionStatus = "paid"
	StatusFailed     TransactionStatus = "failed"
	StatusCancelled  TransactionStatus = "cancelled"
	StatusRefunded   TransactionStatus = "refunded"
	StatusChargeback TransactionStatus = "chargeback"
)

// Terminal reports whether the forward payment path ends at this status.
// A paid transaction may still move to refunded or chargeback.
func (s TransactionStatus) Terminal() bool {
	switch s {
	case StatusPaid, StatusFailed, StatusCancelled, StatusRefunded, StatusChargeback:
		return true
	}
	return false
}

// PaymentMethod identifies how the customer pays.
type PaymentMethod string

const (
	MethodCreditCard PaymentMethod = "credit_card"
	MethodDebitCard  PaymentMethod = "debit_card"
	MethodPix        PaymentMethod = "pix"
	MethodBoleto     PaymentMethod = "boleto"
	MethodWallet     PaymentMethod = "wallet"
)

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCreditCard, MethodDebitCard, MethodPix, MethodBoleto, MethodWallet:
		return true
	}
	return false
}

// Transaction is a single payment owned by a merchant. All monetary fields
// are minor units (integer cents). Fee and Net are set only when the
// transaction reaches paid.
type Transaction struct {
	ID             string            `gorm:"primaryKey;size:36" json:"id"`
	MerchantID     uint              `gorm:"index;not null" json:"merchant_id"`
	CustomerRef    string            `gorm:"size:128" json:"customer_ref,omitempty"`
	Amount         int64             `gorm:"not null" json:"amount"`
	Currency       string            `gorm:"size:3;not null" json:"currency"`
	Method         PaymentMethod     `gorm:"size:16;not null" json:"method"`
	Provider       string            `gorm:"size:32;not null;uniqueIndex:idx_provider_ref" json:"provider"`
	ProviderRef    string            `gorm:"size:128;uniqueIndex:idx_provider_ref" json:"provider_ref"`
	Status         TransactionStatus `gorm:"size:16;not null;default:'pending'" json:"status"`
	Description    string            `json:"description,omitempty"`
	Fee            int64             `gorm:"default:0" json:"fee"`
	Net            int64             `gorm:"default:0" json:"net"`
	RefundedAmount int64             `gorm:"default:0" json:"refunded_amount"`
	Metadata       JSON              `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
	CompletedAt    *time.Time        `json:"completed_at,omitempty"`
	RefundedAt     *time.Time        `json:"refunded_at,omitempty"`
}

// InboundEvent is the dedup record for a provider webhook event. The
// (provider, event_id) uniqueness constraint is what makes event
// application at-most-once under network-level redelivery.
type InboundEvent struct {
	ID         uint      `gorm:"primarykey"`
	Provider   string    `gorm:"size:32;not null;uniqueIndex:idx_provider_event"`
	EventID    string    `gorm:"size:128;not null;uniqueIndex:idx_provider_event"`
	ReceivedAt time.Time `gorm:"autoCreateTime"`
}
