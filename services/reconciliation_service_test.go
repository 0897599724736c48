// services/reconciliation_service_test.go
package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"recruit-ads-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type reconFixture struct {
	db     *gorm.DB
	cards  *fakeCardProvider
	mailer *fakeEmailSender
	svc    *ReconciliationService
	wallet models.Wallet
	user   models.User
}

// newReconFixture seeds one org with one active wallet, one campaign, and a
// metric row dated yesterday carrying the given spend.
func newReconFixture(t *testing.T, limit, accumulated, yesterdaySpend float64) *reconFixture {
	t.Helper()
	db := newTestDB(t)
	cards := newFakeCardProvider()
	mailer := &fakeEmailSender{}

	user := models.User{ID: uuid.NewString(), Email: "owner@acme.test", PasswordHash: "x"}
	require.NoError(t, db.Create(&user).Error)

	orgID := uuid.NewString()
	require.NoError(t, db.Create(&models.Organization{ID: orgID, Name: "Acme", Slug: "acme"}).Error)

	wallet := models.Wallet{
		ID:             uuid.NewString(),
		UserID:         user.ID,
		OrganizationID: orgID,
		CardID:         "ic_test",
		CardStatus:     models.CardStatusActive,
		Currency:       "eur",
	}
	require.NoError(t, db.Create(&wallet).Error)
	cards.limits["ic_test"] = limit

	campaign := models.Campaign{
		ID:             uuid.NewString(),
		OrganizationID: orgID,
		Platform:       models.PlatformMeta,
		Name:           "Senior Engineer - Berlin",
		Status:         models.CampaignStatusActive,
	}
	require.NoError(t, db.Create(&campaign).Error)

	yesterday := dateOnly(time.Now().AddDate(0, 0, -1))
	if yesterdaySpend > 0 {
		require.NoError(t, db.Create(&models.CampaignMetric{
			ID:         uuid.NewString(),
			CampaignID: campaign.ID,
			MetricDate: yesterday,
			Spend:      yesterdaySpend,
		}).Error)
	}
	if accumulated > 0 {
		require.NoError(t, db.Create(&models.DailyCampaignSpend{
			ID:        uuid.NewString(),
			WalletID:  wallet.ID,
			SpendDate: dateOnly(time.Now().AddDate(0, 0, -2)),
			Amount:    accumulated,
		}).Error)
	}

	svc := &ReconciliationService{
		DB:             db,
		Cards:          cards,
		Mailer:         mailer,
		MetricsLagDays: 1,
	}
	return &reconFixture{db: db, cards: cards, mailer: mailer, svc: svc, wallet: wallet, user: user}
}

func TestReconciliation_RecordsSpendWithinBalance(t *testing.T) {
	// limit 100, already spent 80, yesterday cost 15 -> 15 <= 20, record it
	f := newReconFixture(t, 100, 80, 15)

	results := f.svc.Run(context.Background(), time.Now())
	require.Len(t, results, 1)
	assert.Equal(t, ReconProcessed, results[0].Status)
	assert.Equal(t, 15.0, results[0].Amount)
	assert.Equal(t, 0, f.mailer.sent)

	var spends []models.DailyCampaignSpend
	require.NoError(t, f.db.Where("wallet_id = ?", f.wallet.ID).Find(&spends).Error)
	require.Len(t, spends, 2) // the seeded prior day plus today's record
}

func TestReconciliation_InsufficientBalanceNotifiesOwner(t *testing.T) {
	// limit 100, already spent 80, yesterday cost 25 -> 25 > 20, alert instead
	f := newReconFixture(t, 100, 80, 25)

	results := f.svc.Run(context.Background(), time.Now())
	require.Len(t, results, 1)
	assert.Equal(t, ReconInsufficientBalance, results[0].Status)

	assert.Equal(t, 1, f.mailer.sent)
	assert.Equal(t, "owner@acme.test", f.mailer.lastTo)
	assert.Equal(t, 25.0, f.mailer.required)
	assert.Equal(t, 20.0, f.mailer.available)

	// Nothing new recorded: the spend row count is still the seeded one.
	var count int64
	require.NoError(t, f.db.Model(&models.DailyCampaignSpend{}).
		Where("wallet_id = ?", f.wallet.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestReconciliation_RerunOverwritesInsteadOfDoubleCounting(t *testing.T) {
	f := newReconFixture(t, 1000, 0, 40)

	now := time.Now()
	first := f.svc.Run(context.Background(), now)
	require.Equal(t, ReconProcessed, first[0].Status)
	second := f.svc.Run(context.Background(), now)
	require.Equal(t, ReconProcessed, second[0].Status)

	var spends []models.DailyCampaignSpend
	require.NoError(t, f.db.Where("wallet_id = ?", f.wallet.ID).Find(&spends).Error)
	require.Len(t, spends, 1)
	assert.Equal(t, 40.0, spends[0].Amount)
}

func TestReconciliation_NoMetricsMeansNoSpend(t *testing.T) {
	f := newReconFixture(t, 100, 0, 0)

	results := f.svc.Run(context.Background(), time.Now())
	require.Len(t, results, 1)
	assert.Equal(t, ReconNoSpend, results[0].Status)
	assert.Equal(t, 0, f.mailer.sent)
}

func TestReconciliation_IgnoresInactiveCards(t *testing.T) {
	f := newReconFixture(t, 100, 0, 10)
	require.NoError(t, f.db.Model(&models.Wallet{}).
		Where("id = ?", f.wallet.ID).
		Update("card_status", models.CardStatusInactive).Error)

	results := f.svc.Run(context.Background(), time.Now())
	assert.Empty(t, results)
}

func TestReconciliation_WalletErrorDoesNotAbortBatch(t *testing.T) {
	f := newReconFixture(t, 100, 0, 10)

	// Second wallet in another org with its own campaign spend.
	other := models.User{ID: uuid.NewString(), Email: "other@acme.test", PasswordHash: "x"}
	require.NoError(t, f.db.Create(&other).Error)
	orgID := uuid.NewString()
	require.NoError(t, f.db.Create(&models.Organization{ID: orgID, Name: "Beta", Slug: "beta"}).Error)
	wallet2 := models.Wallet{
		ID:             uuid.NewString(),
		UserID:         other.ID,
		OrganizationID: orgID,
		CardID:         "ic_other",
		CardStatus:     models.CardStatusActive,
	}
	require.NoError(t, f.db.Create(&wallet2).Error)
	campaign := models.Campaign{
		ID:             uuid.NewString(),
		OrganizationID: orgID,
		Platform:       models.PlatformTikTok,
		Name:           "Warehouse Staff",
	}
	require.NoError(t, f.db.Create(&campaign).Error)
	require.NoError(t, f.db.Create(&models.CampaignMetric{
		ID:         uuid.NewString(),
		CampaignID: campaign.ID,
		MetricDate: dateOnly(time.Now().AddDate(0, 0, -1)),
		Spend:      5,
	}).Error)
	f.cards.limits["ic_other"] = 50

	// Processor outage for the first wallet's card only.
	f.cards.limitErrs["ic_test"] = errors.New("stripe unavailable")

	results := f.svc.Run(context.Background(), time.Now())
	require.Len(t, results, 2)

	statuses := map[string]string{}
	for _, r := range results {
		statuses[r.WalletID] = r.Status
	}
	assert.Equal(t, ReconError, statuses[f.wallet.ID])
	assert.Equal(t, ReconProcessed, statuses[wallet2.ID])
}

func TestReconciliation_ReportExported(t *testing.T) {
	f := newReconFixture(t, 100, 0, 10)
	reports := &fakeReportUploader{}
	f.svc.Reports = reports

	f.svc.Run(context.Background(), time.Now())
	require.Len(t, reports.keys, 1)
	assert.Contains(t, reports.keys[0], "reports/reconciliation-")
	assert.Contains(t, string(reports.body), f.wallet.ID)
}

func TestReconciliation_OffsetsShiftDates(t *testing.T) {
	f := newReconFixture(t, 100, 0, 0)

	// Metric three days back, lag configured to match.
	var campaign models.Campaign
	require.NoError(t, f.db.First(&campaign).Error)
	day := dateOnly(time.Now().AddDate(0, 0, -3))
	require.NoError(t, f.db.Create(&models.CampaignMetric{
		ID:         uuid.NewString(),
		CampaignID: campaign.ID,
		MetricDate: day,
		Spend:      12,
	}).Error)

	f.svc.MetricsLagDays = 3
	f.svc.RecordOffsetDays = 1

	results := f.svc.Run(context.Background(), time.Now())
	require.Equal(t, ReconProcessed, results[0].Status)

	var spend models.DailyCampaignSpend
	require.NoError(t, f.db.Where("wallet_id = ?", f.wallet.ID).First(&spend).Error)
	assert.Equal(t, dateOnly(time.Now().AddDate(0, 0, -1)), dateOnly(spend.SpendDate))
	assert.Equal(t, 12.0, spend.Amount)
}
