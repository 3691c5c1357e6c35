package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"pagora/internal/middleware"
	"pagora/internal/repositories"
	"pagora/internal/services/wallet"
	"pagora/internal/utils/response"
)

type WalletHandler struct {
	walletService wallet.Service
}

func NewWalletHandler(walletSvc wallet.Service) *WalletHandler {
	return &WalletHandler{walletService: walletSvc}
}

// GetWallet returns the merchant's balances.
func (h *WalletHandler) GetWallet(c *fiber.Ctx) error {
	claims := middleware.Claims(c)
	if claims == nil {
		return response.Unauthorized(c)
	}

	w, err := h.walletService.GetWallet(c.Context(), claims.MerchantID)
	if err != nil {
		if errors.Is(err, repositories.ErrWalletMissing) {
			return response.NotFound(c, "wallet not found")
		}
		return response.ServerError(c, "failed to fetch wallet")
	}
	return response.Success(c, "Wallet retrieved", w)
}
