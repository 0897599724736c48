// handlers/wallet.go
package handlers

import (
	"recruit-ads-backend/middleware"
	"recruit-ads-backend/services"

	"github.com/gofiber/fiber/v2"
)

func SetupWalletRoutes(app *fiber.App, jwtSecret string,
	walletService *services.WalletService,
	webhookService *services.WebhookService,
	reconService *services.ReconciliationService) {

	// Stripe calls this; authenticated by signature, not by JWT.
	app.Post("/webhooks/stripe", webhookService.HandleStripeWebhook)

	// Internal cron endpoint, guarded by the service token.
	app.Post("/reconciliation/run", middleware.ServiceTokenMiddleware(), reconService.RunHandler)

	secured := app.Group("/wallet", middleware.JWTAuthMiddleware(jwtSecret))
	secured.Post("/", walletService.CreateWallet)
	secured.Get("/", walletService.GetWallet)
	secured.Post("/topup", walletService.TopUp)
	secured.Get("/transactions", walletService.ListTransactions)
}
