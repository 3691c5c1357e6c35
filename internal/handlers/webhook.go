package handlers

import (
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"pagora/internal/middleware"
	"pagora/internal/models"
	"pagora/internal/repositories"
	"pagora/internal/services/gateway"
	"pagora/internal/services/webhook"
	"pagora/internal/utils/response"
)

type WebhookHandler struct {
	processor *webhook.Processor
	store     repositories.WebhookStore
}

func NewWebhookHandler(processor *webhook.Processor, store repositories.WebhookStore) *WebhookHandler {
	return &WebhookHandler{processor: processor, store: store}
}

// HandleProviderEvent ingests one PSP webhook. The response is opaque by
// design: processed and intentionally-ignored events both get 200, bad
// signatures get 400, and only unexpected internal failures get 500 so the
// provider retries those alone.
func (h *WebhookHandler) HandleProviderEvent(c *fiber.Ctx) error {
	provider := c.Params("provider")
	body := make([]byte, len(c.Body()))
	copy(body, c.Body())

	err := h.processor.Process(c.Context(), provider, body, func(name string) string {
		return c.Get(name)
	})
	switch {
	case err == nil:
		return c.JSON(fiber.Map{"received": true})
	case errors.Is(err, gateway.ErrInvalidSignature),
		errors.Is(err, webhook.ErrProviderNotConfigured):
		return response.BadRequest(c, "invalid webhook request")
	default:
		log.Printf("webhook %s: processing failed: %v", provider, err)
		return response.ServerError(c, "internal error")
	}
}

// CreateEndpoint registers a merchant webhook endpoint and hands the
// generated signing secret back exactly once.
func (h *WebhookHandler) CreateEndpoint(c *fiber.Ctx) error {
	claims := middleware.Claims(c)
	if claims == nil {
		return response.Unauthorized(c)
	}

	var input struct {
		URL        string   `json:"url"`
		EventTypes []string `json:"event_types"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request format")
	}
	if !strings.HasPrefix(input.URL, "http://") && !strings.HasPrefix(input.URL, "https://") {
		return response.BadRequest(c, "url must be http or https")
	}
	for _, t := range input.EventTypes {
		if !validEventType(t) {
			return response.BadRequest(c, "unknown event type: "+t)
		}
	}

	ep := &models.WebhookEndpoint{
		MerchantID: claims.MerchantID,
		URL:        input.URL,
		Secret:     "whsec_" + strings.ReplaceAll(uuid.NewString(), "-", ""),
		EventTypes: input.EventTypes,
		Active:     true,
	}
	if err := h.store.CreateEndpoint(c.Context(), ep); err != nil {
		return response.ServerError(c, "failed to create endpoint")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Endpoint created",
		"data": fiber.Map{
			"endpoint": ep,
			"secret":   ep.Secret,
		},
	})
}

// ListEndpoints returns the merchant's endpoints.
func (h *WebhookHandler) ListEndpoints(c *fiber.Ctx) error {
	claims := middleware.Claims(c)
	if claims == nil {
		return response.Unauthorized(c)
	}

	eps, err := h.store.ListEndpoints(c.Context(), claims.MerchantID)
	if err != nil {
		return response.ServerError(c, "failed to list endpoints")
	}
	return response.Success(c, "Endpoints retrieved", eps)
}

// DeactivateEndpoint disables an endpoint; in-flight retries for it stop.
func (h *WebhookHandler) DeactivateEndpoint(c *fiber.Ctx) error {
	claims := middleware.Claims(c)
	if claims == nil {
		return response.Unauthorized(c)
	}

	id, err := c.ParamsInt("id")
	if err != nil {
		return response.BadRequest(c, "Invalid endpoint ID")
	}

	if err := h.store.DeactivateEndpoint(c.Context(), claims.MerchantID, uint(id)); err != nil {
		if errors.Is(err, repositories.ErrEndpointNotFound) {
			return response.NotFound(c, "endpoint not found")
		}
		return response.ServerError(c, "failed to deactivate endpoint")
	}
	return response.Success(c, "Endpoint deactivated", nil)
}

// DeleteEndpoint removes an endpoint entirely.
func (h *WebhookHandler) DeleteEndpoint(c *fiber.Ctx) error {
	claims := middleware.Claims(c)
	if claims == nil {
		return response.Unauthorized(c)
	}

	id, err := c.ParamsInt("id")
	if err != nil {
		return response.BadRequest(c, "Invalid endpoint ID")
	}

	if err := h.store.DeleteEndpoint(c.Context(), claims.MerchantID, uint(id)); err != nil {
		if errors.Is(err, repositories.ErrEndpointNotFound) {
			return response.NotFound(c, "endpoint not found")
		}
		return response.ServerError(c, "failed to delete endpoint")
	}
	return response.Success(c, "Endpoint deleted", nil)
}

// ListDeliveries returns the delivery attempt history for an endpoint.
func (h *WebhookHandler) ListDeliveries(c *fiber.Ctx) error {
	claims := middleware.Claims(c)
	if claims == nil {
		return response.Unauthorized(c)
	}

	id, err := c.ParamsInt("id")
	if err != nil {
		return response.BadRequest(c, "Invalid endpoint ID")
	}

	ep, err := h.store.GetEndpoint(c.Context(), uint(id))
	if err != nil || ep.MerchantID != claims.MerchantID {
		return response.NotFound(c, "endpoint not found")
	}

	rows, err := h.store.ListDeliveries(c.Context(), ep.ID, c.QueryInt("limit", 50))
	if err != nil {
		return response.ServerError(c, "failed to list deliveries")
	}
	return response.Success(c, "Deliveries retrieved", rows)
}

func validEventType(t string) bool {
	for _, known := range webhook.EventTypes {
		if t == known {
			return true
		}
	}
	return false
}
