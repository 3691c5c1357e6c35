// Package wallet exposes the merchant wallet read path with a Redis
// read-through cache. Balance mutations never happen here; they are side
// effects of transaction state transitions.
package wallet

import (
	"context"
	"log"

	"pagora/internal/models"
	"pagora/internal/repositories"
)

// Service reads merchant wallets.
type Service interface {
	GetWallet(ctx context.Context, merchantID uint) (*models.Wallet, error)
}

type service struct {
	store repositories.LedgerStore
	cache *repositories.WalletCache
}

// NewService creates the wallet read service. cache may be nil.
func NewService(store repositories.LedgerStore, cache *repositories.WalletCache) Service {
	if store == nil {
		panic("store is required")
	}
	return &service{store: store, cache: cache}
}

func (s *service) GetWallet(ctx context.Context, merchantID uint) (*models.Wallet, error) {
	if s.cache != nil {
		if w, err := s.cache.GetWallet(ctx, merchantID); err == nil {
			return w, nil
		}
	}

	w, err := s.store.GetWallet(ctx, merchantID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetWallet(ctx, w); err != nil {
			log.Printf("failed to cache wallet for merchant %d: %v", merchantID, err)
		}
	}
	return w, nil
}
