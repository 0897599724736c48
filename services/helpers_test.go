// services/helpers_test.go
package services

import (
	"context"
	"testing"

	"recruit-ads-backend/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Organization{},
		&models.Member{},
		&models.Integration{},
		&models.Campaign{},
		&models.CampaignMetric{},
		&models.Job{},
		&models.Wallet{},
		&models.WalletTransaction{},
		&models.DailyCampaignSpend{},
		&models.WebhookEvent{},
	); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	return db
}

// fakeCardProvider is an in-memory stand-in for the card processor.
type fakeCardProvider struct {
	limits    map[string]float64
	limitErrs map[string]error
	setCalls  int
	lastLimit float64
}

func newFakeCardProvider() *fakeCardProvider {
	return &fakeCardProvider{
		limits:    map[string]float64{},
		limitErrs: map[string]error{},
	}
}

func (f *fakeCardProvider) CreateCardholder(ctx context.Context, name, email string) (string, error) {
	return "ich_test", nil
}

func (f *fakeCardProvider) CreateCard(ctx context.Context, cardholderID string) (string, error) {
	return "ic_test", nil
}

func (f *fakeCardProvider) CardSpendingLimit(ctx context.Context, cardID string) (float64, error) {
	if err := f.limitErrs[cardID]; err != nil {
		return 0, err
	}
	return f.limits[cardID], nil
}

func (f *fakeCardProvider) SetCardSpendingLimit(ctx context.Context, cardID string, limitEUR float64) error {
	f.limits[cardID] = limitEUR
	f.setCalls++
	f.lastLimit = limitEUR
	return nil
}

func (f *fakeCardProvider) CreateCheckoutSession(ctx context.Context, amountEUR float64, walletID string) (*CheckoutSession, error) {
	return &CheckoutSession{ID: "cs_test", URL: "https://checkout.test/cs_test"}, nil
}

// fakeEmailSender records insufficient-balance notifications.
type fakeEmailSender struct {
	sent      int
	lastTo    string
	required  float64
	available float64
}

func (f *fakeEmailSender) SendInsufficientBalance(ctx context.Context, to string, requiredEUR, availableEUR float64) error {
	f.sent++
	f.lastTo = to
	f.required = requiredEUR
	f.available = availableEUR
	return nil
}

// fakeReportUploader captures the exported report.
type fakeReportUploader struct {
	keys []string
	body []byte
}

func (f *fakeReportUploader) Upload(ctx context.Context, key, contentType string, data []byte) (string, error) {
	f.keys = append(f.keys, key)
	f.body = data
	return "https://cdn.test/" + key, nil
}
