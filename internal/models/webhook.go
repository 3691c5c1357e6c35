package models

import (
	"time"

	"github.com/lib/pq"
)

// WebhookEndpoint is a merchant-registered URL that receives signed domain
// events. An empty EventTypes set subscribes the endpoint to every event.
type WebhookEndpoint struct {
	ID         uint           `gorm:"primarykey" json:"id"`
	MerchantID uint           `gorm:"index;not null" json:"merchant_id"`
	URL        string         `gorm:"not null" json:"url"`
	Secret     string         `gorm:"size:64;not null" json:"-"`
	EventTypes pq.StringArray `gorm:"type:text[]" json:"event_types"`
	Active     bool           `gorm:"default:true" json:"active"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// SubscribedTo reports whether the endpoint should receive eventType.
func (e *WebhookEndpoint) SubscribedTo(eventType string) bool {
	if len(e.EventTypes) == 0 {
		return true
	}
	for _, t := range e.EventTypes {
		if t == eventType {
			return true
		}
	}
	return false
}

// WebhookDelivery is one delivery attempt against an endpoint. Rows are
// append-only: every retry writes a new row with the attempt ordinal, so
// delivery history is reconstructable.
type WebhookDelivery struct {
	ID             uint      `gorm:"primarykey" json:"id"`
	EndpointID     uint      `gorm:"index;not null" json:"endpoint_id"`
	EventType      string    `gorm:"size:64;not null" json:"event_type"`
	TransactionID  string    `gorm:"size:36;index" json:"transaction_id"`
	Payload        []byte    `gorm:"type:jsonb" json:"payload"`
	Attempt        int       `gorm:"not null" json:"attempt"`
	ResponseStatus int       `json:"response_status"`
	ResponseBody   string    `gorm:"size:512" json:"response_body,omitempty"`
	Delivered      bool      `gorm:"default:false" json:"delivered"`
	CreatedAt      time.Time `json:"created_at"`
}
