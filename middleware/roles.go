// middleware/roles.go
package middleware

import (
	"errors"

	"recruit-ads-backend/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// RequireOrgRole rejects callers whose strongest membership is below
// minRole. It also stores the resolved organization id and role in locals.
func RequireOrgRole(db *gorm.DB, minRole string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := UserID(c)
		if userID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
		}

		best, err := models.ResolveMembership(db, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "not a member of any organization"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to resolve membership"})
		}

		if models.RolePriority[best.Role] < models.RolePriority[minRole] {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": best.Role + " role is not sufficient"})
		}

		c.Locals("organization_id", best.OrganizationID)
		c.Locals("org_role", best.Role)
		return c.Next()
	}
}

// OrganizationID returns the org id resolved by RequireOrgRole.
func OrganizationID(c *fiber.Ctx) string {
	if id, ok := c.Locals("organization_id").(string); ok {
		return id
	}
	return ""
}

// OrgRole returns the caller's role resolved by RequireOrgRole.
func OrgRole(c *fiber.Ctx) string {
	if role, ok := c.Locals("org_role").(string); ok {
		return role
	}
	return ""
}
