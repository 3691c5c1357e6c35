package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"pagora/internal/models"
)

const walletCacheTTL = 5 * time.Minute

func walletKey(merchantID uint) string {
	return fmt.Sprintf("wallet:%d", merchantID)
}

// WalletCache is a read-through Redis cache for wallet lookups. It is a
// pure optimization for the dashboard read path; wallet mutations go
// through the LedgerStore and invalidate the cached entry afterwards.
type WalletCache struct {
	client *redis.Client
}

// NewWalletCache builds the Redis wallet cache.
func NewWalletCache(client *redis.Client) *WalletCache {
	return &WalletCache{client: client}
}

// GetWallet returns the cached wallet or redis.Nil-wrapped miss.
func (c *WalletCache) GetWallet(ctx context.Context, merchantID uint) (*models.Wallet, error) {
	data, err := c.client.Get(ctx, walletKey(merchantID)).Bytes()
	if err != nil {
		return nil, err
	}
	var w models.Wallet
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	return &w, nil
}

// SetWallet caches the wallet for the read path.
func (c *WalletCache) SetWallet(ctx context.Context, w *models.Wallet) error {
	data, err := json.Marshal(w)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, walletKey(w.MerchantID), data, walletCacheTTL).Err()
}

// InvalidateWallet drops the cached wallet after a balance mutation.
func (c *WalletCache) InvalidateWallet(ctx context.Context, merchantID uint) error {
	return c.client.Del(ctx, walletKey(merchantID)).Err()
}
