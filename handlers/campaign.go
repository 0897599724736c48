// handlers/campaign.go
package handlers

import (
	"recruit-ads-backend/middleware"
	"recruit-ads-backend/models"
	"recruit-ads-backend/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupCampaignRoutes(app *fiber.App, db *gorm.DB, jwtSecret string, campaignService *services.CampaignService) {
	secured := app.Group("/campaigns",
		middleware.JWTAuthMiddleware(jwtSecret),
		middleware.RequireOrgRole(db, models.RoleMember))

	secured.Post("/", campaignService.CreateCampaign)
	secured.Get("/", campaignService.ListCampaigns)
	secured.Get("/:id", campaignService.GetCampaign)
	secured.Put("/:id", campaignService.UpdateCampaign)
	secured.Patch("/:id", campaignService.UpdateCampaign)
	secured.Delete("/:id", campaignService.DeleteCampaign)
	secured.Get("/:id/metrics", campaignService.ListCampaignMetrics)
	secured.Post("/:id/creative", campaignService.UploadCreative)
}
