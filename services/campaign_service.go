// services/campaign_service.go
package services

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"recruit-ads-backend/middleware"
	"recruit-ads-backend/models"
	"recruit-ads-backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type CampaignService struct {
	DB    *gorm.DB
	Cache *redis.Client
}

func NewCampaignService(db *gorm.DB, cache *redis.Client) *CampaignService {
	return &CampaignService{DB: db, Cache: cache}
}

func campaignsCacheKey(orgID string) string {
	return "campaigns:org:" + orgID
}

func (s *CampaignService) invalidateCampaignCache(orgID string) {
	if s.Cache == nil {
		return
	}
	_ = utils.DeleteCache(context.Background(), s.Cache, campaignsCacheKey(orgID))
}

var validCampaignStatuses = map[string]bool{
	models.CampaignStatusActive:   true,
	models.CampaignStatusPaused:   true,
	models.CampaignStatusArchived: true,
	models.CampaignStatusDraft:    true,
}

// CreateCampaign creates a locally-managed campaign in the caller's org.
func (s *CampaignService) CreateCampaign(c *fiber.Ctx) error {
	orgID := middleware.OrganizationID(c)

	var req struct {
		Name        string  `json:"name"`
		Platform    string  `json:"platform"`
		DailyBudget float64 `json:"daily_budget"`
		JobID       string  `json:"job_id"`
		Status      string  `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name is required"})
	}
	if req.Status == "" {
		req.Status = models.CampaignStatusDraft
	}
	if !validCampaignStatuses[req.Status] {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid status"})
	}

	campaign := models.Campaign{
		ID:             uuid.NewString(),
		OrganizationID: orgID,
		Platform:       req.Platform,
		Name:           strings.TrimSpace(req.Name),
		Status:         req.Status,
		DailyBudget:    req.DailyBudget,
		JobID:          req.JobID,
	}
	if err := s.DB.Create(&campaign).Error; err != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "a campaign with that name already exists for this platform"})
	}

	s.invalidateCampaignCache(orgID)
	return c.Status(fiber.StatusCreated).JSON(campaign)
}

// ListCampaigns returns all campaigns in the caller's org, cached for 60s.
func (s *CampaignService) ListCampaigns(c *fiber.Ctx) error {
	orgID := middleware.OrganizationID(c)
	ctx := context.Background()

	if s.Cache != nil {
		var cached []models.Campaign
		if found, err := utils.GetCache(ctx, s.Cache, campaignsCacheKey(orgID), &cached); err == nil && found {
			return c.JSON(fiber.Map{"campaigns": cached, "cached": true})
		}
	}

	var campaigns []models.Campaign
	if err := s.DB.Where("organization_id = ?", orgID).Order("created_at desc").Find(&campaigns).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch campaigns"})
	}

	if s.Cache != nil {
		_ = utils.SetCache(ctx, s.Cache, campaignsCacheKey(orgID), campaigns, 60*time.Second)
	}
	return c.JSON(fiber.Map{"campaigns": campaigns, "cached": false})
}

func (s *CampaignService) getOrgCampaign(c *fiber.Ctx) (*models.Campaign, error) {
	orgID := middleware.OrganizationID(c)
	var campaign models.Campaign
	err := s.DB.Where("id = ? AND organization_id = ?", c.Params("id"), orgID).First(&campaign).Error
	return &campaign, err
}

func (s *CampaignService) GetCampaign(c *fiber.Ctx) error {
	campaign, err := s.getOrgCampaign(c)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "campaign not found"})
	}
	return c.JSON(campaign)
}

// UpdateCampaign applies a partial update (name, status, budget, job link).
func (s *CampaignService) UpdateCampaign(c *fiber.Ctx) error {
	campaign, err := s.getOrgCampaign(c)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "campaign not found"})
	}

	var req struct {
		Name        *string  `json:"name"`
		Status      *string  `json:"status"`
		DailyBudget *float64 `json:"daily_budget"`
		JobID       *string  `json:"job_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if req.Name != nil && strings.TrimSpace(*req.Name) != "" {
		campaign.Name = strings.TrimSpace(*req.Name)
	}
	if req.Status != nil {
		if !validCampaignStatuses[*req.Status] {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid status"})
		}
		campaign.Status = *req.Status
	}
	if req.DailyBudget != nil {
		campaign.DailyBudget = *req.DailyBudget
	}
	if req.JobID != nil {
		campaign.JobID = *req.JobID
	}

	if err := s.DB.Save(campaign).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to update campaign"})
	}

	s.invalidateCampaignCache(campaign.OrganizationID)
	return c.JSON(campaign)
}

func (s *CampaignService) DeleteCampaign(c *fiber.Ctx) error {
	campaign, err := s.getOrgCampaign(c)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "campaign not found"})
	}
	if err := s.DB.Delete(campaign).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to delete campaign"})
	}
	s.invalidateCampaignCache(campaign.OrganizationID)
	return c.JSON(fiber.Map{"deleted": true})
}

// ListCampaignMetrics returns the last 90 days of metrics for a campaign.
func (s *CampaignService) ListCampaignMetrics(c *fiber.Ctx) error {
	campaign, err := s.getOrgCampaign(c)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "campaign not found"})
	}

	var metrics []models.CampaignMetric
	if err := s.DB.Where("campaign_id = ?", campaign.ID).
		Order("metric_date desc").Limit(90).Find(&metrics).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch metrics"})
	}
	return c.JSON(fiber.Map{"campaign_id": campaign.ID, "metrics": metrics})
}

// UploadCreative stores a campaign creative (image/video) in R2 and records
// its public URL on the campaign.
func (s *CampaignService) UploadCreative(c *fiber.Ctx) error {
	campaign, err := s.getOrgCampaign(c)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "campaign not found"})
	}

	file, err := c.FormFile("creative")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "creative file is required"})
	}

	ext := filepath.Ext(file.Filename)
	if ext == "" {
		ext = ".png"
	}
	key := "creatives/" + uuid.NewString() + ext
	publicURL, err := utils.UploadFileToR2(file, key)
	if err != nil {
		logrus.WithError(err).Error("creative upload failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to upload creative"})
	}

	campaign.CreativeURL = publicURL
	if err := s.DB.Save(campaign).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to save creative url"})
	}

	s.invalidateCampaignCache(campaign.OrganizationID)
	return c.JSON(fiber.Map{"creative_url": publicURL})
}
