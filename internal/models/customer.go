package models

import (
	"time"
)

// Customer maps a merchant's customer email to the reference assigned by a
// payment provider, so repeat payments reuse the provider-side customer.
type Customer struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	MerchantID  uint      `gorm:"uniqueIndex:idx_customer_key;not null" json:"merchant_id"`
	Provider    string    `gorm:"size:32;uniqueIndex:idx_customer_key;not null" json:"provider"`
	Email       string    `gorm:"size:254;uniqueIndex:idx_customer_key;not null" json:"email"`
	Name        string    `json:"name,omitempty"`
	ProviderRef string    `gorm:"size:128;not null" json:"provider_ref"`
	CreatedAt   time.Time `json:"created_at"`
}
