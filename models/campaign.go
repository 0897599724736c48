// models/campaign.go
package models

import (
	"time"

	"gorm.io/gorm"
)

// Internal campaign statuses. Vendor statuses are mapped onto this set by
// the platform clients; anything unrecognized falls back to draft.
const (
	CampaignStatusActive   = "active"
	CampaignStatusPaused   = "paused"
	CampaignStatusArchived = "archived"
	CampaignStatusDraft    = "draft"
)

// Campaign is an advertising campaign, either created locally or mirrored
// from an external platform. Sync upserts are keyed by
// (organization, platform, name).
type Campaign struct {
	ID             string  `json:"id" gorm:"primaryKey;type:uuid"`
	OrganizationID string  `json:"organization_id" gorm:"type:uuid;not null;index;uniqueIndex:ux_campaigns_org_platform_name,priority:1"`
	Platform       string  `json:"platform" gorm:"size:32;not null;uniqueIndex:ux_campaigns_org_platform_name,priority:2"`
	Name           string  `json:"name" gorm:"not null;uniqueIndex:ux_campaigns_org_platform_name,priority:3"`
	ExternalID     string  `json:"external_id,omitempty" gorm:"index"`
	Status         string  `json:"status" gorm:"size:16;not null;default:'draft'"`
	DailyBudget    float64 `json:"daily_budget"` // EUR
	CreativeURL    string  `json:"creative_url,omitempty"`
	JobID          string  `json:"job_id,omitempty" gorm:"type:uuid;index"` // job posting this campaign advertises

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Metrics []CampaignMetric `json:"metrics,omitempty" gorm:"foreignKey:CampaignID"`
}

// CampaignMetric is one day of performance for a campaign. At most one row
// per (campaign, day); sync overwrites on conflict.
type CampaignMetric struct {
	ID          string    `json:"id" gorm:"primaryKey;type:uuid"`
	CampaignID  string    `json:"campaign_id" gorm:"type:uuid;not null;index;uniqueIndex:ux_campaign_metrics_day,priority:1"`
	MetricDate  time.Time `json:"metric_date" gorm:"not null;uniqueIndex:ux_campaign_metrics_day,priority:2"`
	Impressions int64     `json:"impressions"`
	Clicks      int64     `json:"clicks"`
	Spend       float64   `json:"spend"` // EUR
	Leads       int64     `json:"leads"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
