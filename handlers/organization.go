// handlers/organization.go
package handlers

import (
	"recruit-ads-backend/middleware"
	"recruit-ads-backend/models"
	"recruit-ads-backend/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupOrganizationRoutes(app *fiber.App, db *gorm.DB, jwtSecret string, orgService *services.OrgService) {
	secured := app.Group("/organizations", middleware.JWTAuthMiddleware(jwtSecret))

	secured.Post("/", orgService.CreateOrganization)
	secured.Get("/me", orgService.GetMyOrganization)

	// Member management needs a resolved org; listing is open to any member,
	// adding requires admin or owner.
	secured.Get("/members", middleware.RequireOrgRole(db, models.RoleMember), orgService.ListMembers)
	secured.Post("/members", middleware.RequireOrgRole(db, models.RoleAdmin), orgService.AddMember)
}
