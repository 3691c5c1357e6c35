package transaction

import (
	"context"

	"pagora/internal/models"
)

// Service owns the transaction lifecycle: intent creation and the
// application of provider events through the state machine.
type Service interface {
	CreatePayment(ctx context.Context, in CreatePaymentInput) (*CreatePaymentResult, error)
	GetTransaction(ctx context.Context, merchantID uint, id string) (*models.Transaction, error)
	ApplyProviderEvent(ctx context.Context, in ApplyInput) (*ApplyResult, error)
}

// WalletInvalidator drops cached wallet reads after a balance mutation.
type WalletInvalidator interface {
	InvalidateWallet(ctx context.Context, merchantID uint) error
}

// CreatePaymentInput is a merchant's request to start a payment. Amount is
// minor units.
type CreatePaymentInput struct {
	MerchantID    uint
	Amount        int64
	Currency      string
	Method        models.PaymentMethod
	CustomerEmail string
	CustomerName  string
	Description   string
	Metadata      map[string]interface{}
}

// CreatePaymentResult carries the created transaction plus the provider's
// client secret when one exists.
type CreatePaymentResult struct {
	Transaction  *models.Transaction
	ClientSecret string
}

// ApplyInput is a verified provider event mapped to an internal target
// status, ready for the state machine.
type ApplyInput struct {
	Provider    string
	EventID     string
	EventType   string
	ProviderRef string
	Target      models.TransactionStatus
}

// ApplyResult reports what applying an event did. Duplicate means the dedup
// key already existed and nothing was touched; Changed means the status
// moved and side effects were committed.
type ApplyResult struct {
	Transaction *models.Transaction
	Changed     bool
	Duplicate   bool
}
