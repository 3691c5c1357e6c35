package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pagora/internal/models"
)

// Repository errors.
var (
	ErrNotFound            = errors.New("record not found")
	ErrInsufficientBalance = errors.New("insufficient wallet balance")
	ErrWalletMissing       = errors.New("wallet not found for merchant")
	ErrEndpointNotFound    = errors.New("webhook endpoint not found")
	ErrTransactionNotFound = errors.New("transaction not found")
)

// LedgerStore is the repository surface for money state: transactions,
// wallets, fees and the inbound-event dedup keys. WithinTx runs fn against
// a store bound to one database transaction, so a dedup insert, a status
// transition and its fee/wallet side effects commit or roll back together.
type LedgerStore interface {
	WithinTx(ctx context.Context, fn func(LedgerStore) error) error

	CreateTransaction(ctx context.Context, tx *models.Transaction) error
	SaveTransaction(ctx context.Context, tx *models.Transaction) error
	GetTransactionByID(ctx context.Context, id string) (*models.Transaction, error)
	GetTransactionByProviderRef(ctx context.Context, provider, ref string) (*models.Transaction, error)

	// TryInsertDedupKey inserts the (provider, eventID) dedup record and
	// reports whether the insert won. A false return means the event was
	// already applied; detection happens at the storage layer via the
	// uniqueness constraint, not via in-process locking.
	TryInsertDedupKey(ctx context.Context, provider, eventID string) (bool, error)

	InsertFee(ctx context.Context, fee *models.Fee) error

	GetWallet(ctx context.Context, merchantID uint) (*models.Wallet, error)
	// AdjustWalletPending moves the merchant's pending balance by delta
	// (negative to debit), creating the wallet on first credit. Debits that
	// would drive the balance negative fail.
	AdjustWalletPending(ctx context.Context, merchantID uint, delta int64) error

	GetCustomerRef(ctx context.Context, merchantID uint, provider, email string) (string, error)
	SaveCustomerRef(ctx context.Context, customer *models.Customer) error
}

type ledgerStore struct {
	db *gorm.DB
}

// NewLedgerStore builds the gorm-backed LedgerStore.
func NewLedgerStore(db *gorm.DB) LedgerStore {
	if db == nil {
		panic("db is required")
	}
	return &ledgerStore{db: db}
}

func (s *ledgerStore) WithinTx(ctx context.Context, fn func(LedgerStore) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&ledgerStore{db: tx})
	})
}

func (s *ledgerStore) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	return s.db.WithContext(ctx).Create(tx).Error
}

func (s *ledgerStore) SaveTransaction(ctx context.Context, tx *models.Transaction) error {
	return s.db.WithContext(ctx).Save(tx).Error
}

func (s *ledgerStore) GetTransactionByID(ctx context.Context, id string) (*models.Transaction, error) {
	var tx models.Transaction
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&tx).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return &tx, nil
}

func (s *ledgerStore) GetTransactionByProviderRef(ctx context.Context, provider, ref string) (*models.Transaction, error) {
	var tx models.Transaction
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("provider = ? AND provider_ref = ?", provider, ref).
		First(&tx).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction by provider ref: %w", err)
	}
	return &tx, nil
}

func (s *ledgerStore) TryInsertDedupKey(ctx context.Context, provider, eventID string) (bool, error) {
	rec := models.InboundEvent{Provider: provider, EventID: eventID}
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rec)
	if res.Error != nil {
		return false, fmt.Errorf("failed to insert dedup key: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *ledgerStore) InsertFee(ctx context.Context, fee *models.Fee) error {
	return s.db.WithContext(ctx).Create(fee).Error
}

func (s *ledgerStore) GetWallet(ctx context.Context, merchantID uint) (*models.Wallet, error) {
	var w models.Wallet
	err := s.db.WithContext(ctx).Where("merchant_id = ?", merchantID).First(&w).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrWalletMissing
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return &w, nil
}

func (s *ledgerStore) AdjustWalletPending(ctx context.Context, merchantID uint, delta int64) error {
	var w models.Wallet
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("merchant_id = ?", merchantID).
		First(&w).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if delta < 0 {
			return ErrWalletMissing
		}
		w = models.Wallet{MerchantID: merchantID, Pending: delta}
		return s.db.WithContext(ctx).Create(&w).Error
	}
	if err != nil {
		return fmt.Errorf("failed to lock wallet: %w", err)
	}

	if w.Pending+delta < 0 {
		return ErrInsufficientBalance
	}
	w.Pending += delta
	return s.db.WithContext(ctx).Save(&w).Error
}

func (s *ledgerStore) GetCustomerRef(ctx context.Context, merchantID uint, provider, email string) (string, error) {
	var c models.Customer
	err := s.db.WithContext(ctx).
		Where("merchant_id = ? AND provider = ? AND email = ?", merchantID, provider, email).
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get customer: %w", err)
	}
	return c.ProviderRef, nil
}

func (s *ledgerStore) SaveCustomerRef(ctx context.Context, customer *models.Customer) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(customer).Error
}
