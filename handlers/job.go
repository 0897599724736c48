// handlers/job.go
package handlers

import (
	"recruit-ads-backend/middleware"
	"recruit-ads-backend/models"
	"recruit-ads-backend/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupJobRoutes(app *fiber.App, db *gorm.DB, jwtSecret string, jobService *services.JobService) {
	// Public careers-page lookup, no auth.
	app.Get("/careers/:slug", jobService.GetPublishedJobBySlug)

	secured := app.Group("/jobs",
		middleware.JWTAuthMiddleware(jwtSecret),
		middleware.RequireOrgRole(db, models.RoleMember))

	secured.Post("/", jobService.CreateJob)
	secured.Get("/", jobService.ListJobs)
	secured.Put("/:id", jobService.UpdateJob)
	secured.Patch("/:id", jobService.UpdateJob)
	secured.Delete("/:id", jobService.DeleteJob)
}
