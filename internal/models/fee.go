package models

import (
	"time"
)

// Fee entry kinds. A charge is written when a transaction reaches paid;
// a reversal is the compensating entry for refunds and chargebacks.
const (
	FeeKindCharge   = "charge"
	FeeKindReversal = "reversal"
)

// Fee is one ledger entry of fee bookkeeping for a transaction.
// Amount is minor units and negative for reversals.
type Fee struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	TransactionID string    `gorm:"size:36;index;not null" json:"transaction_id"`
	MerchantID    uint      `gorm:"index;not null" json:"merchant_id"`
	Amount        int64     `gorm:"not null" json:"amount"`
	RateBps       int64     `gorm:"not null" json:"rate_bps"`
	Kind          string    `gorm:"size:16;not null" json:"kind"`
	CreatedAt     time.Time `json:"created_at"`
}
