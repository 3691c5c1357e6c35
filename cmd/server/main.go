// Package main is the entry point for the payment pipeline service. It
// builds the configuration, connects the stores, registers the payment
// gateways and starts the HTTP server and the outbound dispatcher.
package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"

	"pagora/internal/config"
	"pagora/internal/handlers"
	"pagora/internal/middleware"
	"pagora/internal/models"
	"pagora/internal/repositories"
	"pagora/internal/routes"
	"pagora/internal/services/gateway"
	"pagora/internal/services/transaction"
	"pagora/internal/services/wallet"
	"pagora/internal/services/webhook"
)

func main() {
	config.LoadEnv()
	cfg := config.Load()

	db, err := repositories.InitDB(cfg, repositories.DefaultDBConfig)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get database instance: %v", err)
	}
	log.Println("Connected to database")

	rdb := repositories.InitRedis(cfg)

	ledgerStore := repositories.NewLedgerStore(db)
	webhookStore := repositories.NewWebhookStore(db)
	walletCache := repositories.NewWalletCache(rdb)

	registry := gateway.NewRegistry()
	webhookSecrets := make(map[string]string)
	if p := cfg.Providers["stripe"]; p.APIKey != "" {
		registry.Register(gateway.NewStripeGateway(p.APIKey),
			models.MethodCreditCard, models.MethodDebitCard, models.MethodWallet)
		webhookSecrets["stripe"] = p.WebhookSecret
		log.Println("Registered gateway: stripe")
	}
	if p := cfg.Providers["mercadopago"]; p.APIKey != "" {
		mp, err := gateway.NewMercadoPagoGateway(p.APIKey)
		if err != nil {
			log.Fatalf("Failed to initialize mercado pago gateway: %v", err)
		}
		registry.Register(mp, models.MethodPix, models.MethodBoleto)
		webhookSecrets["mercadopago"] = p.WebhookSecret
		log.Println("Registered gateway: mercadopago")
	}

	transactionService := transaction.NewService(ledgerStore, registry, cfg.FeeRates, walletCache)
	walletService := wallet.NewService(ledgerStore, walletCache)

	dispatcher := webhook.NewDispatcher(webhookStore, webhook.DispatcherConfig{
		MaxAttempts: cfg.Dispatch.MaxAttempts,
		BackoffBase: cfg.Dispatch.BackoffBase,
		MaxBackoff:  cfg.Dispatch.MaxBackoff,
		Timeout:     cfg.Dispatch.Timeout,
	})
	processor := webhook.NewProcessor(registry, webhookSecrets, transactionService, dispatcher)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	routes.SetupRoutes(app, routes.Deps{
		Auth:     middleware.NewAuthMiddleware(cfg.JWTSecret),
		Payments: handlers.NewPaymentHandler(transactionService),
		Webhooks: handlers.NewWebhookHandler(processor, webhookStore),
		Wallets:  handlers.NewWalletHandler(walletService),
	})

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Server stopped: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down...")

	if err := app.Shutdown(); err != nil {
		log.Printf("Failed to shut down server: %v", err)
	}
	dispatcher.Stop()
	if err := sqlDB.Close(); err != nil {
		log.Printf("Failed to close database connection: %v", err)
	}
	if err := rdb.Close(); err != nil {
		log.Printf("Failed to close redis connection: %v", err)
	}
}
