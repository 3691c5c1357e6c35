// Package routes defines the API routing configuration. Handlers are
// constructed in main and injected here; routing stays free of wiring.
package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"pagora/internal/handlers"
	"pagora/internal/middleware"
)

// Deps carries the constructed handlers and middleware.
type Deps struct {
	Auth     *middleware.AuthMiddleware
	Payments *handlers.PaymentHandler
	Webhooks *handlers.WebhookHandler
	Wallets  *handlers.WalletHandler
}

// SetupRoutes configures all application routes.
func SetupRoutes(app *fiber.App, d Deps) {
	app.Get("/health", handlers.HealthCheck)

	// Inbound PSP surface. Rate-limited per source IP; providers retry on
	// 429 the same way they retry on 5xx.
	app.Post("/webhooks/:provider", limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
	}), d.Webhooks.HandleProviderEvent)

	api := app.Group("/api", d.Auth.Handler)

	api.Post("/payments", d.Payments.CreatePayment)
	api.Get("/payments/:id", d.Payments.GetPayment)

	api.Get("/wallet", d.Wallets.GetWallet)

	api.Post("/webhook-endpoints", d.Webhooks.CreateEndpoint)
	api.Get("/webhook-endpoints", d.Webhooks.ListEndpoints)
	api.Patch("/webhook-endpoints/:id/deactivate", d.Webhooks.DeactivateEndpoint)
	api.Delete("/webhook-endpoints/:id", d.Webhooks.DeleteEndpoint)
	api.Get("/webhook-endpoints/:id/deliveries", d.Webhooks.ListDeliveries)
}
