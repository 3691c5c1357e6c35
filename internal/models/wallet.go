package models

import (
	"time"
)

// Wallet holds a merchant's funds in minor units. Balance, Pending and
// Blocked never go negative; mutations happen only as side effects of
// transaction state transitions, inside the same storage transaction.
type Wallet struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	MerchantID uint      `gorm:"uniqueIndex;not null" json:"merchant_id"`
	Balance    int64     `gorm:"default:0" json:"balance"`
	Pending    int64     `gorm:"default:0" json:"pending"`
	Blocked    int64     `gorm:"default:0" json:"blocked"`
	Currency   string    `gorm:"size:3;default:'BRL'" json:"currency"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
