// services/tiktok_client.go
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

// TikTokAPI is the slice of the TikTok Business API the sync flow uses.
type TikTokAPI interface {
	ListCampaigns(ctx context.Context, token, advertiserID string) ([]TikTokCampaign, error)
	CampaignReport(ctx context.Context, token, advertiserID, campaignID string, since, until time.Time) (*TikTokMetrics, error)
}

type TikTokCampaign struct {
	CampaignID      string  `json:"campaign_id"`
	CampaignName    string  `json:"campaign_name"`
	OperationStatus string  `json:"operation_status"`
	Budget          float64 `json:"budget"`
}

type TikTokMetrics struct {
	Impressions string `json:"impressions"`
	Clicks      string `json:"clicks"`
	Spend       string `json:"spend"`
	Conversion  string `json:"conversion"`
}

type TikTokClient struct {
	BaseURL string
	Client  *http.Client
}

func NewTikTokClient() *TikTokClient {
	return &TikTokClient{
		BaseURL: "https://business-api.tiktok.com/open_api/v1.3",
		Client:  utils.HTTPClient,
	}
}

// get performs a TikTok Business API call. Errors come back with HTTP 200
// and a non-zero body code, so both layers are checked.
func (c *TikTokClient) get(ctx context.Context, token, path string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Access-Token", token)

	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call tiktok api: %w", err)
	}
	defer resp.Body.Close()

	b, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tiktok api returned status %d: %s", resp.StatusCode, string(b))
	}

	var envelope struct {
		Code    int             `json:"code"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(b, &envelope); err != nil {
		return fmt.Errorf("failed to decode tiktok response: %w", err)
	}
	if envelope.Code != 0 {
		return fmt.Errorf("tiktok api: %s (code %d)", envelope.Message, envelope.Code)
	}
	return json.Unmarshal(envelope.Data, out)
}

func (c *TikTokClient) ListCampaigns(ctx context.Context, token, advertiserID string) ([]TikTokCampaign, error) {
	params := url.Values{}
	params.Set("advertiser_id", advertiserID)
	params.Set("fields", `["campaign_id","campaign_name","operation_status","budget"]`)

	var out struct {
		List []TikTokCampaign `json:"list"`
	}
	if err := c.get(ctx, token, "/campaign/get/", params, &out); err != nil {
		return nil, err
	}
	return out.List, nil
}

func (c *TikTokClient) CampaignReport(ctx context.Context, token, advertiserID, campaignID string, since, until time.Time) (*TikTokMetrics, error) {
	params := url.Values{}
	params.Set("advertiser_id", advertiserID)
	params.Set("report_type", "BASIC")
	params.Set("data_level", "AUCTION_CAMPAIGN")
	params.Set("dimensions", `["campaign_id"]`)
	params.Set("metrics", `["impressions","clicks","spend","conversion"]`)
	params.Set("start_date", since.Format("2006-01-02"))
	params.Set("end_date", until.Format("2006-01-02"))
	params.Set("filters", fmt.Sprintf(
		`[{"field_name":"campaign_ids","filter_type":"IN","filter_value":"[\"%s\"]"}]`, campaignID))

	var out struct {
		List []struct {
			Metrics TikTokMetrics `json:"metrics"`
		} `json:"list"`
	}
	if err := c.get(ctx, token, "/report/integrated/get/", params, &out); err != nil {
		return nil, err
	}
	if len(out.List) == 0 {
		return nil, nil
	}
	return &out.List[0].Metrics, nil
}

// MapTikTokCampaignStatus maps a TikTok operation status onto the internal
// status set. Unrecognized values fall back to draft.
func MapTikTokCampaignStatus(status string) string {
	switch strings.ToUpper(status) {
	case "ENABLE":
		return models.CampaignStatusActive
	case "DISABLE", "FROZEN":
		return models.CampaignStatusPaused
	case "DELETE", "DELETED":
		return models.CampaignStatusArchived
	default:
		return models.CampaignStatusDraft
	}
}
