// services/reconciliation_service.go
package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"recruit-ads-backend/models"
	"recruit-ads-backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Per-wallet reconciliation outcomes.
const (
	ReconProcessed           = "processed"
	ReconInsufficientBalance = "insufficient_balance"
	ReconNoSpend             = "no_spend"
	ReconError               = "error"
)

// WalletReconciliationResult is one wallet's outcome in a run.
type WalletReconciliationResult struct {
	WalletID string  `json:"wallet_id"`
	Status   string  `json:"status"`
	Amount   float64 `json:"amount,omitempty"`
	Error    string  `json:"error,omitempty"`
}

// ReportUploader exports a run's results (CSV) to object storage.
type ReportUploader interface {
	Upload(ctx context.Context, key, contentType string, data []byte) (string, error)
}

// R2ReportUploader writes reports to the shared R2 bucket.
type R2ReportUploader struct{}

func (R2ReportUploader) Upload(ctx context.Context, key, contentType string, data []byte) (string, error) {
	return utils.UploadBytesToR2(ctx, key, contentType, data)
}

// ReconciliationService decides, once a day, whether each wallet's campaign
// spend fits within the card's remaining balance, and either records it or
// alerts the owner.
//
// The original product summed "yesterday's" metrics but recorded the spend
// under "today"; both offsets are configurable so neither reading of that
// behavior is hardcoded.
type ReconciliationService struct {
	DB      *gorm.DB
	Cards   CardProvider
	Mailer  EmailSender
	Reports ReportUploader

	// MetricsLagDays: the metrics window is today minus this many days.
	MetricsLagDays int
	// RecordOffsetDays: the recorded spend date is today minus this many days.
	RecordOffsetDays int
}

func NewReconciliationService(db *gorm.DB, cards CardProvider, mailer EmailSender, reports ReportUploader) *ReconciliationService {
	return &ReconciliationService{
		DB:               db,
		Cards:            cards,
		Mailer:           mailer,
		Reports:          reports,
		MetricsLagDays:   envInt("METRICS_LAG_DAYS", 1),
		RecordOffsetDays: envInt("SPEND_RECORD_OFFSET_DAYS", 0),
	}
}

// dateOnly truncates a time to a UTC calendar day. All metric and spend
// dates go through this so equality queries match.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// Run reconciles every wallet with an active card. A wallet failure is
// reported in its result row and never aborts the rest of the batch.
func (s *ReconciliationService) Run(ctx context.Context, now time.Time) []WalletReconciliationResult {
	metricsDate := dateOnly(now.AddDate(0, 0, -s.MetricsLagDays))
	recordDate := dateOnly(now.AddDate(0, 0, -s.RecordOffsetDays))

	var wallets []models.Wallet
	if err := s.DB.Where("card_status = ?", models.CardStatusActive).Find(&wallets).Error; err != nil {
		logrus.WithError(err).Error("reconciliation: failed to load wallets")
		return nil
	}

	results := make([]WalletReconciliationResult, 0, len(wallets))
	for _, wallet := range wallets {
		res := s.reconcileWallet(ctx, wallet, metricsDate, recordDate)
		logrus.WithFields(logrus.Fields{
			"wallet_id": res.WalletID,
			"status":    res.Status,
			"amount":    res.Amount,
		}).Info("wallet reconciled")
		results = append(results, res)
	}

	s.exportReport(ctx, recordDate, results)
	return results
}

func (s *ReconciliationService) reconcileWallet(ctx context.Context, wallet models.Wallet, metricsDate, recordDate time.Time) WalletReconciliationResult {
	result := WalletReconciliationResult{WalletID: wallet.ID}

	var campaignIDs []string
	if err := s.DB.Model(&models.Campaign{}).
		Where("organization_id = ?", wallet.OrganizationID).
		Pluck("id", &campaignIDs).Error; err != nil {
		result.Status = ReconError
		result.Error = err.Error()
		return result
	}
	if len(campaignIDs) == 0 {
		result.Status = ReconNoSpend
		return result
	}

	var dailySpend float64
	if err := s.DB.Model(&models.CampaignMetric{}).
		Select("COALESCE(SUM(spend), 0)").
		Where("campaign_id IN ? AND metric_date = ?", campaignIDs, metricsDate).
		Scan(&dailySpend).Error; err != nil {
		result.Status = ReconError
		result.Error = err.Error()
		return result
	}
	if dailySpend == 0 {
		result.Status = ReconNoSpend
		return result
	}

	// The card's live all_time limit is the authoritative ceiling; the
	// cached wallet balance is never consulted here.
	spendingLimit, err := s.Cards.CardSpendingLimit(ctx, wallet.CardID)
	if err != nil {
		result.Status = ReconError
		result.Error = fmt.Sprintf("failed to read card limit: %v", err)
		return result
	}

	var accumulated float64
	if err := s.DB.Model(&models.DailyCampaignSpend{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("wallet_id = ?", wallet.ID).
		Scan(&accumulated).Error; err != nil {
		result.Status = ReconError
		result.Error = err.Error()
		return result
	}

	availableBalance := spendingLimit - accumulated
	if dailySpend > availableBalance {
		s.notifyOwner(ctx, wallet, dailySpend, availableBalance)
		result.Status = ReconInsufficientBalance
		result.Amount = dailySpend
		return result
	}

	spend := models.DailyCampaignSpend{
		ID:        uuid.NewString(),
		WalletID:  wallet.ID,
		SpendDate: recordDate,
		Amount:    dailySpend,
	}
	if err := s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "wallet_id"}, {Name: "spend_date"}},
		DoUpdates: clause.AssignmentColumns([]string{"amount", "updated_at"}),
	}).Create(&spend).Error; err != nil {
		result.Status = ReconError
		result.Error = err.Error()
		return result
	}

	result.Status = ReconProcessed
	result.Amount = dailySpend
	return result
}

// notifyOwner emails the wallet owner. Delivery failure is logged, not
// escalated — the insufficient_balance result stands either way.
func (s *ReconciliationService) notifyOwner(ctx context.Context, wallet models.Wallet, required, available float64) {
	if s.Mailer == nil {
		return
	}
	var user models.User
	if err := s.DB.First(&user, "id = ?", wallet.UserID).Error; err != nil {
		logrus.WithError(err).WithField("wallet_id", wallet.ID).Error("owner lookup failed, skipping notification")
		return
	}
	if err := s.Mailer.SendInsufficientBalance(ctx, user.Email, required, available); err != nil {
		logrus.WithError(err).WithField("wallet_id", wallet.ID).Error("failed to send insufficient balance email")
	}
}

func (s *ReconciliationService) exportReport(ctx context.Context, recordDate time.Time, results []WalletReconciliationResult) {
	if s.Reports == nil || len(results) == 0 {
		return
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"wallet_id", "status", "amount", "error"})
	for _, r := range results {
		_ = w.Write([]string{r.WalletID, r.Status, strconv.FormatFloat(r.Amount, 'f', 2, 64), r.Error})
	}
	w.Flush()

	key := "reports/reconciliation-" + recordDate.Format("2006-01-02") + ".csv"
	if _, err := s.Reports.Upload(ctx, key, "text/csv", buf.Bytes()); err != nil {
		logrus.WithError(err).Warn("failed to export reconciliation report")
	}
}

// RunHandler triggers a run over HTTP. Always 200 with per-wallet results;
// individual failures live inside the result rows.
func (s *ReconciliationService) RunHandler(c *fiber.Ctx) error {
	now := time.Now().UTC()
	results := s.Run(c.UserContext(), now)
	return c.JSON(fiber.Map{
		"metrics_date": dateOnly(now.AddDate(0, 0, -s.MetricsLagDays)).Format("2006-01-02"),
		"record_date":  dateOnly(now.AddDate(0, 0, -s.RecordOffsetDays)).Format("2006-01-02"),
		"results":      results,
	})
}
