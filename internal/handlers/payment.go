package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"pagora/internal/middleware"
	"pagora/internal/models"
	"pagora/internal/repositories"
	"pagora/internal/services/gateway"
	"pagora/internal/services/transaction"
	"pagora/internal/utils/response"
)

type PaymentHandler struct {
	transactionService transaction.Service
}

func NewPaymentHandler(txSvc transaction.Service) *PaymentHandler {
	return &PaymentHandler{transactionService: txSvc}
}

// CreatePayment opens a payment intent with the provider that handles the
// requested method and records the pending transaction.
func (h *PaymentHandler) CreatePayment(c *fiber.Ctx) error {
	claims := middleware.Claims(c)
	if claims == nil {
		return response.Unauthorized(c)
	}

	var input struct {
		Amount        int64                  `json:"amount"`
		Currency      string                 `json:"currency"`
		Method        models.PaymentMethod   `json:"method"`
		CustomerEmail string                 `json:"customer_email"`
		CustomerName  string                 `json:"customer_name"`
		Description   string                 `json:"description"`
		Metadata      map[string]interface{} `json:"metadata"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request format")
	}

	res, err := h.transactionService.CreatePayment(c.Context(), transaction.CreatePaymentInput{
		MerchantID:    claims.MerchantID,
		Amount:        input.Amount,
		Currency:      input.Currency,
		Method:        input.Method,
		CustomerEmail: input.CustomerEmail,
		CustomerName:  input.CustomerName,
		Description:   input.Description,
		Metadata:      input.Metadata,
	})
	if err != nil {
		switch {
		case errors.Is(err, gateway.ErrProviderRejected):
			return response.Error(c, fiber.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, gateway.ErrProviderUnavailable):
			return response.Error(c, fiber.StatusBadGateway, "payment provider unavailable")
		case errors.Is(err, gateway.ErrMethodNotSupported),
			errors.Is(err, transaction.ErrInvalidAmount),
			errors.Is(err, transaction.ErrInvalidMethod),
			errors.Is(err, transaction.ErrInvalidCurrency):
			return response.BadRequest(c, err.Error())
		default:
			return response.ServerError(c, "failed to create payment")
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Payment created",
		"data": fiber.Map{
			"transaction":   res.Transaction,
			"client_secret": res.ClientSecret,
		},
	})
}

// GetPayment returns one of the merchant's transactions.
func (h *PaymentHandler) GetPayment(c *fiber.Ctx) error {
	claims := middleware.Claims(c)
	if claims == nil {
		return response.Unauthorized(c)
	}

	tx, err := h.transactionService.GetTransaction(c.Context(), claims.MerchantID, c.Params("id"))
	if err != nil {
		if errors.Is(err, repositories.ErrTransactionNotFound) {
			return response.NotFound(c, "transaction not found")
		}
		return response.ServerError(c, "failed to fetch transaction")
	}

	return response.Success(c, "Transaction retrieved", tx)
}
