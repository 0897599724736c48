// services/meta_client.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"recruit-ads-backend/models"
	"recruit-ads-backend/utils"
)

// MetaAPI is the slice of the Meta Marketing API the sync flow uses.
type MetaAPI interface {
	ListCampaigns(ctx context.Context, token, accountID string) ([]MetaCampaign, error)
	CampaignInsights(ctx context.Context, token, campaignID string, since, until time.Time) (*MetaInsight, error)
}

// MetaCampaign is a campaign row from the Graph API campaign listing.
type MetaCampaign struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Status      string `json:"status"`
	DailyBudget string `json:"daily_budget"` // minor units, returned as a string
}

// MetaInsight is one insights row. The Graph API returns numeric fields as
// strings; leads arrive as an action of type "lead".
type MetaInsight struct {
	Impressions string `json:"impressions"`
	Clicks      string `json:"clicks"`
	Spend       string `json:"spend"`
	Actions     []struct {
		ActionType string `json:"action_type"`
		Value      string `json:"value"`
	} `json:"actions"`
}

// Leads extracts the lead action count, 0 when absent.
func (i *MetaInsight) Leads() int64 {
	for _, a := range i.Actions {
		if a.ActionType == "lead" {
			return parseInt64(a.Value)
		}
	}
	return 0
}

type MetaClient struct {
	BaseURL string
	Client  *http.Client
}

func NewMetaClient() *MetaClient {
	return &MetaClient{
		BaseURL: "https://graph.facebook.com/v19.0",
		Client:  utils.HTTPClient,
	}
}

func (c *MetaClient) get(ctx context.Context, path string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call meta api: %w", err)
	}
	defer resp.Body.Close()

	b, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.Unmarshal(b, &apiErr)
		if apiErr.Error.Message != "" {
			return fmt.Errorf("meta api: %s", apiErr.Error.Message)
		}
		return fmt.Errorf("meta api returned status %d: %s", resp.StatusCode, string(b))
	}
	return json.Unmarshal(b, out)
}

func (c *MetaClient) ListCampaigns(ctx context.Context, token, accountID string) ([]MetaCampaign, error) {
	params := url.Values{}
	params.Set("fields", "id,name,status,daily_budget")
	params.Set("access_token", token)

	var out struct {
		Data []MetaCampaign `json:"data"`
	}
	if err := c.get(ctx, "/act_"+accountID+"/campaigns", params, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *MetaClient) CampaignInsights(ctx context.Context, token, campaignID string, since, until time.Time) (*MetaInsight, error) {
	params := url.Values{}
	params.Set("fields", "impressions,clicks,spend,actions")
	params.Set("time_range", fmt.Sprintf(`{"since":"%s","until":"%s"}`,
		since.Format("2006-01-02"), until.Format("2006-01-02")))
	params.Set("access_token", token)

	var out struct {
		Data []MetaInsight `json:"data"`
	}
	if err := c.get(ctx, "/"+campaignID+"/insights", params, &out); err != nil {
		return nil, err
	}
	if len(out.Data) == 0 {
		return nil, nil // no delivery in the window
	}
	return &out.Data[0], nil
}

// MapMetaCampaignStatus maps a Graph API campaign status onto the internal
// status set. Unrecognized values fall back to draft.
func MapMetaCampaignStatus(status string) string {
	switch strings.ToUpper(status) {
	case "ACTIVE", "IN_PROCESS":
		return models.CampaignStatusActive
	case "PAUSED", "CAMPAIGN_PAUSED", "ADSET_PAUSED":
		return models.CampaignStatusPaused
	case "DELETED", "ARCHIVED", "WITH_ISSUES":
		return models.CampaignStatusArchived
	default:
		return models.CampaignStatusDraft
	}
}
