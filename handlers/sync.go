// handlers/sync.go
package handlers

import (
	"recruit-ads-backend/middleware"
	"recruit-ads-backend/models"
	"recruit-ads-backend/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupSyncRoutes(app *fiber.App, db *gorm.DB, jwtSecret string, syncService *services.SyncService) {
	secured := app.Group("/integrations",
		middleware.JWTAuthMiddleware(jwtSecret),
		middleware.RequireOrgRole(db, models.RoleMember))

	secured.Post("/", syncService.ConnectIntegration)
	secured.Get("/", syncService.ListIntegrations)

	sync := app.Group("/sync",
		middleware.JWTAuthMiddleware(jwtSecret),
		middleware.RequireOrgRole(db, models.RoleMember))

	sync.Post("/meta", syncService.SyncMeta)
	sync.Post("/tiktok", syncService.SyncTikTok)
	sync.Post("/sheets", syncService.SyncSheets)
}
