// services/status_mapping_test.go
package services

import (
	"testing"

	"recruit-ads-backend/models"

	"github.com/stretchr/testify/assert"
)

func TestMapMetaCampaignStatus(t *testing.T) {
	cases := map[string]string{
		"ACTIVE":          models.CampaignStatusActive,
		"IN_PROCESS":      models.CampaignStatusActive,
		"PAUSED":          models.CampaignStatusPaused,
		"CAMPAIGN_PAUSED": models.CampaignStatusPaused,
		"ADSET_PAUSED":    models.CampaignStatusPaused,
		"DELETED":         models.CampaignStatusArchived,
		"ARCHIVED":        models.CampaignStatusArchived,
		"WITH_ISSUES":     models.CampaignStatusArchived,
		"active":          models.CampaignStatusActive, // case-insensitive
		"SOME_NEW_STATE":  models.CampaignStatusDraft,  // unknown falls back
		"":                models.CampaignStatusDraft,
	}
	for in, want := range cases {
		assert.Equal(t, want, MapMetaCampaignStatus(in), "input %q", in)
	}
}

func TestMapTikTokCampaignStatus(t *testing.T) {
	cases := map[string]string{
		"ENABLE":   models.CampaignStatusActive,
		"DISABLE":  models.CampaignStatusPaused,
		"FROZEN":   models.CampaignStatusPaused,
		"DELETE":   models.CampaignStatusArchived,
		"DELETED":  models.CampaignStatusArchived,
		"enable":   models.CampaignStatusActive,
		"WHATEVER": models.CampaignStatusDraft,
		"":         models.CampaignStatusDraft,
	}
	for in, want := range cases {
		assert.Equal(t, want, MapTikTokCampaignStatus(in), "input %q", in)
	}
}

func TestMapSheetCampaignStatus(t *testing.T) {
	cases := map[string]string{
		"active":    models.CampaignStatusActive,
		"Running":   models.CampaignStatusActive,
		"live":      models.CampaignStatusActive,
		"  paused ": models.CampaignStatusPaused,
		"on hold":   models.CampaignStatusPaused,
		"ended":     models.CampaignStatusArchived,
		"finished":  models.CampaignStatusArchived,
		"archived":  models.CampaignStatusArchived,
		"??":        models.CampaignStatusDraft,
		"":          models.CampaignStatusDraft,
	}
	for in, want := range cases {
		assert.Equal(t, want, MapSheetCampaignStatus(in), "input %q", in)
	}
}
