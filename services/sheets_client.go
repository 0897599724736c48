// services/sheets_client.go
package services

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"recruit-ads-backend/models"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsAPI reads campaign/metric rows from a Google spreadsheet an
// organization uses as a manual ad source.
type SheetsAPI interface {
	ReadCampaignRows(ctx context.Context, token, spreadsheetID string) ([]SheetCampaignRow, error)
}

// SheetCampaignRow is one parsed spreadsheet row:
// name | status | date | impressions | clicks | spend | leads
type SheetCampaignRow struct {
	Name        string
	Status      string
	Date        time.Time
	Impressions int64
	Clicks      int64
	Spend       float64
	Leads       int64
}

type SheetsClient struct {
	ReadRange string
}

func NewSheetsClient() *SheetsClient {
	readRange := os.Getenv("SHEETS_READ_RANGE")
	if readRange == "" {
		readRange = "Campaigns!A2:G"
	}
	return &SheetsClient{ReadRange: readRange}
}

// ReadCampaignRows fetches the configured range using the integration's
// OAuth token. Malformed rows are logged and skipped, not fatal.
func (c *SheetsClient) ReadCampaignRows(ctx context.Context, token, spreadsheetID string) ([]SheetCampaignRow, error) {
	srv, err := sheets.NewService(ctx,
		option.WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	resp, err := srv.Spreadsheets.Values.Get(spreadsheetID, c.ReadRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read spreadsheet %s: %w", spreadsheetID, err)
	}

	rows := make([]SheetCampaignRow, 0, len(resp.Values))
	for i, raw := range resp.Values {
		if len(raw) < 3 {
			continue
		}
		date, err := time.Parse("2006-01-02", cellString(raw, 2))
		if err != nil {
			logrus.WithFields(logrus.Fields{"row": i + 2, "spreadsheet": spreadsheetID}).
				Warn("skipping sheet row with unparseable date")
			continue
		}
		rows = append(rows, SheetCampaignRow{
			Name:        cellString(raw, 0),
			Status:      cellString(raw, 1),
			Date:        date,
			Impressions: parseInt64(cellString(raw, 3)),
			Clicks:      parseInt64(cellString(raw, 4)),
			Spend:       parseFloat64(cellString(raw, 5)),
			Leads:       parseInt64(cellString(raw, 6)),
		})
	}
	return rows, nil
}

// MapSheetCampaignStatus maps a free-text spreadsheet status onto the
// internal status set. Unrecognized values fall back to draft.
func MapSheetCampaignStatus(status string) string {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "active", "running", "live":
		return models.CampaignStatusActive
	case "paused", "on hold":
		return models.CampaignStatusPaused
	case "archived", "ended", "finished":
		return models.CampaignStatusArchived
	default:
		return models.CampaignStatusDraft
	}
}

func cellString(row []interface{}, i int) string {
	if i >= len(row) {
		return ""
	}
	if s, ok := row[i].(string); ok {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(fmt.Sprintf("%v", row[i]))
}

func parseInt64(s string) int64 {
	v, _ := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return v
}

func parseFloat64(s string) float64 {
	v, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return v
}
