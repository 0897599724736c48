// services/org_service.go
package services

import (
	"strings"

	"recruit-ads-backend/middleware"
	"recruit-ads-backend/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

type OrgService struct {
	DB *gorm.DB
}

func NewOrgService(db *gorm.DB) *OrgService {
	return &OrgService{DB: db}
}

// CreateOrganization creates an org and makes the caller its owner.
func (s *OrgService) CreateOrganization(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	var req struct {
		Name string `json:"name"`
	}
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name is required"})
	}

	org := models.Organization{
		ID:   uuid.NewString(),
		Name: strings.TrimSpace(req.Name),
		Slug: slug.Make(req.Name),
	}

	// Slugs are unique; disambiguate with an id fragment on collision.
	var count int64
	s.DB.Model(&models.Organization{}).Where("slug = ?", org.Slug).Count(&count)
	if count > 0 {
		org.Slug = org.Slug + "-" + org.ID[:8]
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&org).Error; err != nil {
			return err
		}
		member := models.Member{
			ID:             uuid.NewString(),
			OrganizationID: org.ID,
			UserID:         userID,
			Role:           models.RoleOwner,
		}
		return tx.Create(&member).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create organization"})
	}

	return c.Status(fiber.StatusCreated).JSON(org)
}

// GetMyOrganization returns the caller's primary organization and role.
func (s *OrgService) GetMyOrganization(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	member, err := models.ResolveMembership(s.DB, userID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no organization membership"})
	}

	var org models.Organization
	if err := s.DB.First(&org, "id = ?", member.OrganizationID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "organization not found"})
	}

	return c.JSON(fiber.Map{"organization": org, "role": member.Role})
}

type memberResponse struct {
	ID       string `json:"id"`
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

// ListMembers returns the members of the caller's organization.
func (s *OrgService) ListMembers(c *fiber.Ctx) error {
	orgID := middleware.OrganizationID(c)

	var members []models.Member
	if err := s.DB.Where("organization_id = ?", orgID).Order("created_at asc").Find(&members).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch members"})
	}

	res := make([]memberResponse, 0, len(members))
	for _, m := range members {
		var user models.User
		if err := s.DB.First(&user, "id = ?", m.UserID).Error; err != nil {
			continue
		}
		res = append(res, memberResponse{
			ID:       m.ID,
			UserID:   m.UserID,
			Email:    user.Email,
			FullName: user.FullName,
			Role:     m.Role,
		})
	}
	return c.JSON(res)
}

// AddMember adds an existing user to the caller's organization
// (owner/admin only, enforced by route middleware).
func (s *OrgService) AddMember(c *fiber.Ctx) error {
	orgID := middleware.OrganizationID(c)

	var req struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if _, ok := models.RolePriority[req.Role]; !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "role must be owner, admin or member"})
	}

	var user models.User
	if err := s.DB.Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&user).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no user with that email"})
	}

	member := models.Member{
		ID:             uuid.NewString(),
		OrganizationID: orgID,
		UserID:         user.ID,
		Role:           req.Role,
	}
	if err := s.DB.Create(&member).Error; err != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "user is already a member"})
	}

	return c.Status(fiber.StatusCreated).JSON(member)
}
