// services/sync_service.go
package services

import (
	"context"
	"fmt"
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
	"gorm.io/gorm/clause"
)

// SyncService pulls campaigns and daily metrics from the connected ad
// platforms into the local tables. Campaigns are keyed by
// (organization, platform, name), so re-running a sync updates in place.
type SyncService struct {
	DB     *gorm.DB
	Cache  *redis.Client
	Meta   MetaAPI
	TikTok TikTokAPI
	Sheets SheetsAPI
}

func NewSyncService(db *gorm.DB, cache *redis.Client, meta MetaAPI, tiktok TikTokAPI, sheetsAPI SheetsAPI) *SyncService {
	return &SyncService{DB: db, Cache: cache, Meta: meta, TikTok: tiktok, Sheets: sheetsAPI}
}

// CampaignSyncResult summarizes one sync run.
type CampaignSyncResult struct {
	Platform string   `json:"platform"`
	Synced   int      `json:"synced"`
	Failed   []string `json:"failed,omitempty"`
}

// ConnectIntegration stores (or replaces) a platform token for the caller's
// organization. By default the row is scoped to the connecting user;
// org_level (owner/admin only) connects an organization-wide token that
// members without their own fall back to.
func (s *SyncService) ConnectIntegration(c *fiber.Ctx) error {
	orgID := middleware.OrganizationID(c)
	userID := middleware.UserID(c)

	var req struct {
		Platform    string `json:"platform"`
		AccessToken string `json:"access_token"`
		AccountID   string `json:"account_id"`
		OrgLevel    bool   `json:"org_level"`
	}
	if err := c.BodyParser(&req); err != nil || req.AccessToken == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "platform and access_token are required"})
	}
	switch req.Platform {
	case models.PlatformMeta, models.PlatformTikTok, models.PlatformSheets:
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unsupported platform"})
	}

	scopeUserID := userID
	if req.OrgLevel {
		if models.RolePriority[middleware.OrgRole(c)] < models.RolePriority[models.RoleAdmin] {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "only owners and admins can connect an organization-wide integration",
			})
		}
		scopeUserID = ""
	}

	integration := models.Integration{
		ID:             uuid.NewString(),
		OrganizationID: orgID,
		UserID:         scopeUserID,
		Platform:       req.Platform,
		AccessToken:    req.AccessToken,
		AccountID:      req.AccountID,
		Active:         true,
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		// One live token per (org, scope, platform).
		if err := tx.Where("organization_id = ? AND user_id = ? AND platform = ?", orgID, scopeUserID, req.Platform).
			Delete(&models.Integration{}).Error; err != nil {
			return err
		}
		return tx.Create(&integration).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to save integration"})
	}
	return c.Status(fiber.StatusCreated).JSON(integration)
}

func (s *SyncService) ListIntegrations(c *fiber.Ctx) error {
	orgID := middleware.OrganizationID(c)

	var integrations []models.Integration
	if err := s.DB.Where("organization_id = ?", orgID).Order("created_at desc").Find(&integrations).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch integrations"})
	}
	return c.JSON(fiber.Map{"integrations": integrations})
}

// resolveIntegration picks the token to sync with: the caller's own row if
// they connected one, otherwise the org-level row.
func (s *SyncService) resolveIntegration(orgID, userID, platform string) (*models.Integration, error) {
	var integration models.Integration
	err := s.DB.Where("organization_id = ? AND user_id = ? AND platform = ? AND active = ?",
		orgID, userID, platform, true).First(&integration).Error
	if err == nil {
		return &integration, nil
	}
	err = s.DB.Where("organization_id = ? AND (user_id = '' OR user_id IS NULL) AND platform = ? AND active = ?",
		orgID, platform, true).First(&integration).Error
	if err != nil {
		return nil, err
	}
	return &integration, nil
}

func (s *SyncService) syncHandler(c *fiber.Ctx, platform string,
	run func(ctx context.Context, integration *models.Integration) (*CampaignSyncResult, error)) error {
	orgID := middleware.OrganizationID(c)
	userID := middleware.UserID(c)

	integration, err := s.resolveIntegration(orgID, userID, platform)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("no %s integration connected", platform),
		})
	}

	result, err := run(c.UserContext(), integration)
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"organization_id": orgID,
			"platform":        platform,
		}).Error("campaign sync failed")
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
	}

	s.invalidateSyncCache(orgID)
	return c.JSON(result)
}

func (s *SyncService) SyncMeta(c *fiber.Ctx) error {
	return s.syncHandler(c, models.PlatformMeta, s.syncMeta)
}

func (s *SyncService) SyncTikTok(c *fiber.Ctx) error {
	return s.syncHandler(c, models.PlatformTikTok, s.syncTikTok)
}

func (s *SyncService) SyncSheets(c *fiber.Ctx) error {
	return s.syncHandler(c, models.PlatformSheets, s.syncSheets)
}

// SyncIntegration dispatches by platform. Used by the background poller.
func (s *SyncService) SyncIntegration(ctx context.Context, integration *models.Integration) (*CampaignSyncResult, error) {
	switch integration.Platform {
	case models.PlatformMeta:
		return s.syncMeta(ctx, integration)
	case models.PlatformTikTok:
		return s.syncTikTok(ctx, integration)
	case models.PlatformSheets:
		return s.syncSheets(ctx, integration)
	default:
		return nil, fmt.Errorf("unknown platform %q", integration.Platform)
	}
}

func (s *SyncService) syncMeta(ctx context.Context, integration *models.Integration) (*CampaignSyncResult, error) {
	campaigns, err := s.Meta.ListCampaigns(ctx, integration.AccessToken, integration.AccountID)
	if err != nil {
		return nil, err
	}

	result := &CampaignSyncResult{Platform: models.PlatformMeta}
	yesterday := dateOnly(time.Now().AddDate(0, 0, -1))

	for _, mc := range campaigns {
		// Meta returns daily_budget in minor units as a string.
		budget := parseFloat64(mc.DailyBudget) / 100
		local, err := s.upsertCampaign(integration.OrganizationID, models.PlatformMeta,
			mc.Name, mc.ID, MapMetaCampaignStatus(mc.Status), budget)
		if err != nil {
			result.Failed = append(result.Failed, mc.Name)
			continue
		}

		insight, err := s.Meta.CampaignInsights(ctx, integration.AccessToken, mc.ID, yesterday, yesterday)
		if err != nil {
			logrus.WithError(err).WithField("campaign", mc.Name).Warn("failed to fetch meta insights")
			result.Failed = append(result.Failed, mc.Name)
			continue
		}
		if insight != nil {
			if err := s.upsertMetric(local.ID, yesterday,
				parseInt64(insight.Impressions), parseInt64(insight.Clicks),
				parseFloat64(insight.Spend), insight.Leads()); err != nil {
				result.Failed = append(result.Failed, mc.Name)
				continue
			}
		}
		result.Synced++
	}
	return result, nil
}

func (s *SyncService) syncTikTok(ctx context.Context, integration *models.Integration) (*CampaignSyncResult, error) {
	campaigns, err := s.TikTok.ListCampaigns(ctx, integration.AccessToken, integration.AccountID)
	if err != nil {
		return nil, err
	}

	result := &CampaignSyncResult{Platform: models.PlatformTikTok}
	yesterday := dateOnly(time.Now().AddDate(0, 0, -1))

	for _, tc := range campaigns {
		local, err := s.upsertCampaign(integration.OrganizationID, models.PlatformTikTok,
			tc.CampaignName, tc.CampaignID, MapTikTokCampaignStatus(tc.OperationStatus), tc.Budget)
		if err != nil {
			result.Failed = append(result.Failed, tc.CampaignName)
			continue
		}

		metrics, err := s.TikTok.CampaignReport(ctx, integration.AccessToken,
			integration.AccountID, tc.CampaignID, yesterday, yesterday)
		if err != nil {
			logrus.WithError(err).WithField("campaign", tc.CampaignName).Warn("failed to fetch tiktok report")
			result.Failed = append(result.Failed, tc.CampaignName)
			continue
		}
		if metrics != nil {
			if err := s.upsertMetric(local.ID, yesterday,
				parseInt64(metrics.Impressions), parseInt64(metrics.Clicks),
				parseFloat64(metrics.Spend), parseInt64(metrics.Conversion)); err != nil {
				result.Failed = append(result.Failed, tc.CampaignName)
				continue
			}
		}
		result.Synced++
	}
	return result, nil
}

func (s *SyncService) syncSheets(ctx context.Context, integration *models.Integration) (*CampaignSyncResult, error) {
	rows, err := s.Sheets.ReadCampaignRows(ctx, integration.AccessToken, integration.AccountID)
	if err != nil {
		return nil, err
	}

	result := &CampaignSyncResult{Platform: models.PlatformSheets}
	for _, row := range rows {
		if strings.TrimSpace(row.Name) == "" {
			continue
		}
		local, err := s.upsertCampaign(integration.OrganizationID, models.PlatformSheets,
			row.Name, "", MapSheetCampaignStatus(row.Status), 0)
		if err != nil {
			result.Failed = append(result.Failed, row.Name)
			continue
		}
		if err := s.upsertMetric(local.ID, dateOnly(row.Date),
			row.Impressions, row.Clicks, row.Spend, row.Leads); err != nil {
			result.Failed = append(result.Failed, row.Name)
			continue
		}
		result.Synced++
	}
	return result, nil
}

// upsertCampaign writes a campaign keyed by (organization, platform, name)
// and returns the canonical row, whether inserted or updated.
func (s *SyncService) upsertCampaign(orgID, platform, name, externalID, status string, dailyBudget float64) (*models.Campaign, error) {
	campaign := models.Campaign{
		ID:             uuid.NewString(),
		OrganizationID: orgID,
		Platform:       platform,
		Name:           name,
		ExternalID:     externalID,
		Status:         status,
		DailyBudget:    dailyBudget,
	}
	err := s.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "organization_id"}, {Name: "platform"}, {Name: "name"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"external_id", "status", "daily_budget", "updated_at"}),
	}).Create(&campaign).Error
	if err != nil {
		return nil, err
	}

	var canonical models.Campaign
	if err := s.DB.Where("organization_id = ? AND platform = ? AND name = ?", orgID, platform, name).
		First(&canonical).Error; err != nil {
		return nil, err
	}
	return &canonical, nil
}

func (s *SyncService) upsertMetric(campaignID string, day time.Time, impressions, clicks int64, spend float64, leads int64) error {
	metric := models.CampaignMetric{
		ID:          uuid.NewString(),
		CampaignID:  campaignID,
		MetricDate:  day,
		Impressions: impressions,
		Clicks:      clicks,
		Spend:       spend,
		Leads:       leads,
	}
	return s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "campaign_id"}, {Name: "metric_date"}},
		DoUpdates: clause.AssignmentColumns([]string{"impressions", "clicks", "spend", "leads", "updated_at"}),
	}).Create(&metric).Error
}

func (s *SyncService) invalidateSyncCache(orgID string) {
	if s.Cache == nil {
		return
	}
	_ = utils.DeleteCache(context.Background(), s.Cache, campaignsCacheKey(orgID))
}
