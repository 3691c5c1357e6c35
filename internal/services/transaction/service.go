package transaction

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"pagora/internal/models"
	"pagora/internal/repositories"
	"pagora/internal/services/gateway"
)

type service struct {
	store    repositories.LedgerStore
	gateways *gateway.Registry
	feeRates map[models.PaymentMethod]int64
	cache    WalletInvalidator
}

// NewService creates the transaction service. cache may be nil when no
// wallet cache is wired.
func NewService(store repositories.LedgerStore, gateways *gateway.Registry, feeRates map[models.PaymentMethod]int64, cache WalletInvalidator) Service {
	if store == nil {
		panic("store is required")
	}
	if gateways == nil {
		panic("gateway registry is required")
	}
	return &service{
		store:    store,
		gateways: gateways,
		feeRates: feeRates,
		cache:    cache,
	}
}

func (s *service) CreatePayment(ctx context.Context, in CreatePaymentInput) (*CreatePaymentResult, error) {
	if err := validateCreatePayment(in); err != nil {
		return nil, err
	}

	gw, err := s.gateways.ForMethod(in.Method)
	if err != nil {
		return nil, err
	}

	customerRef := ""
	if in.CustomerEmail != "" {
		customerRef, err = s.resolveCustomer(ctx, gw, in)
		if err != nil {
			return nil, err
		}
	}

	id := uuid.NewString()
	intent, err := gw.CreateIntent(ctx, gateway.IntentInput{
		Amount:         in.Amount,
		Currency:       strings.ToLower(in.Currency),
		Method:         in.Method,
		CustomerRef:    customerRef,
		CustomerEmail:  in.CustomerEmail,
		Description:    in.Description,
		IdempotencyKey: id,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	tx := &models.Transaction{
		ID:          id,
		MerchantID:  in.MerchantID,
		CustomerRef: customerRef,
		Amount:      in.Amount,
		Currency:    strings.ToUpper(in.Currency),
		Method:      in.Method,
		Provider:    gw.Name(),
		ProviderRef: intent.ProviderRef,
		Status:      models.StatusPending,
		Description: in.Description,
		Metadata:    models.NewJSON(in.Metadata),
	}
	if err := s.store.CreateTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to persist transaction: %w", err)
	}

	return &CreatePaymentResult{Transaction: tx, ClientSecret: intent.ClientSecret}, nil
}

func (s *service) resolveCustomer(ctx context.Context, gw gateway.Gateway, in CreatePaymentInput) (string, error) {
	ref, err := s.store.GetCustomerRef(ctx, in.MerchantID, gw.Name(), in.CustomerEmail)
	if err == nil {
		return ref, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return "", fmt.Errorf("failed to look up customer: %w", err)
	}

	ref, err = gw.ResolveOrCreateCustomer(ctx, in.CustomerEmail, in.CustomerName)
	if err != nil {
		return "", fmt.Errorf("failed to create provider customer: %w", err)
	}

	if err := s.store.SaveCustomerRef(ctx, &models.Customer{
		MerchantID:  in.MerchantID,
		Provider:    gw.Name(),
		Email:       in.CustomerEmail,
		Name:        in.CustomerName,
		ProviderRef: ref,
	}); err != nil {
		return "", fmt.Errorf("failed to persist customer: %w", err)
	}
	return ref, nil
}

func (s *service) GetTransaction(ctx context.Context, merchantID uint, id string) (*models.Transaction, error) {
	tx, err := s.store.GetTransactionByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tx.MerchantID != merchantID {
		return nil, repositories.ErrTransactionNotFound
	}
	return tx, nil
}

// ApplyProviderEvent runs one provider event through the state machine. The
// dedup insert, the status transition and its fee/wallet side effects share
// one storage transaction: they commit together or not at all.
//
// Semantics per outcome:
//   - dedup key already present: no-op, Duplicate set, nil error.
//   - no transaction matches the provider reference: everything rolls back
//     (including the dedup key, so a later redelivery can still apply) and
//     ErrUnknownTransaction is returned.
//   - target equals the current status: recorded no-op, nil error.
//   - unlisted edge: dedup key committed for audit, no state change,
//     ErrInvalidTransition returned.
//   - listed edge: status moves, side effects commit, Changed set.
func (s *service) ApplyProviderEvent(ctx context.Context, in ApplyInput) (*ApplyResult, error) {
	res := &ApplyResult{}
	invalid := false
	walletTouched := false
	var merchantID uint

	err := s.store.WithinTx(ctx, func(tx repositories.LedgerStore) error {
		inserted, err := tx.TryInsertDedupKey(ctx, in.Provider, in.EventID)
		if err != nil {
			return err
		}
		if !inserted {
			res.Duplicate = true
			return nil
		}

		txn, err := tx.GetTransactionByProviderRef(ctx, in.Provider, in.ProviderRef)
		if err != nil {
			if errors.Is(err, repositories.ErrTransactionNotFound) {
				return ErrUnknownTransaction
			}
			return err
		}
		res.Transaction = txn
		merchantID = txn.MerchantID

		if txn.Status == in.Target {
			// Redelivered terminal event; applying it again is a no-op.
			return nil
		}
		if !CanTransition(txn.Status, in.Target) {
			invalid = true
			return nil
		}

		now := time.Now().UTC()
		txn.Status = in.Target

		switch in.Target {
		case models.StatusPaid:
			rate := s.feeRates[txn.Method]
			txn.Fee = ComputeFee(txn.Amount, rate)
			txn.Net = txn.Amount - txn.Fee
			txn.CompletedAt = &now
			if err := tx.InsertFee(ctx, &models.Fee{
				TransactionID: txn.ID,
				MerchantID:    txn.MerchantID,
				Amount:        txn.Fee,
				RateBps:       rate,
				Kind:          models.FeeKindCharge,
			}); err != nil {
				return err
			}
			if err := tx.AdjustWalletPending(ctx, txn.MerchantID, txn.Net); err != nil {
				return err
			}
			walletTouched = true

		case models.StatusRefunded, models.StatusChargeback:
			txn.RefundedAmount = txn.Amount
			txn.RefundedAt = &now
			if err := tx.InsertFee(ctx, &models.Fee{
				TransactionID: txn.ID,
				MerchantID:    txn.MerchantID,
				Amount:        -txn.Fee,
				RateBps:       s.feeRates[txn.Method],
				Kind:          models.FeeKindReversal,
			}); err != nil {
				return err
			}
			if err := tx.AdjustWalletPending(ctx, txn.MerchantID, -txn.Net); err != nil {
				return err
			}
			walletTouched = true
		}

		if err := tx.SaveTransaction(ctx, txn); err != nil {
			return err
		}
		res.Changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if invalid {
		return res, ErrInvalidTransition
	}

	if walletTouched && s.cache != nil {
		if err := s.cache.InvalidateWallet(ctx, merchantID); err != nil {
			log.Printf("failed to invalidate wallet cache for merchant %d: %v", merchantID, err)
		}
	}
	return res, nil
}

func validateCreatePayment(in CreatePaymentInput) error {
	if in.Amount <= 0 {
		return ErrInvalidAmount
	}
	if !in.Method.Valid() {
		return ErrInvalidMethod
	}
	if len(in.Currency) != 3 {
		return ErrInvalidCurrency
	}
	return nil
}
