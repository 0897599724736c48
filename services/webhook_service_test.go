// services/webhook_service_test.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"recruit-ads-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedPendingTopUp(t *testing.T, db *gorm.DB, cards *fakeCardProvider, amount float64) (models.Wallet, models.WalletTransaction) {
	t.Helper()
	user := models.User{ID: uuid.NewString(), Email: "payer@acme.test", PasswordHash: "x"}
	require.NoError(t, db.Create(&user).Error)

	wallet := models.Wallet{
		ID:             uuid.NewString(),
		UserID:         user.ID,
		OrganizationID: uuid.NewString(),
		CardID:         "ic_test",
		CardStatus:     models.CardStatusActive,
		Balance:        0,
	}
	require.NoError(t, db.Create(&wallet).Error)
	cards.limits["ic_test"] = 0

	txRow := models.WalletTransaction{
		ID:                uuid.NewString(),
		WalletID:          wallet.ID,
		Amount:            amount,
		Status:            models.TransactionPending,
		CheckoutSessionID: "cs_test",
	}
	require.NoError(t, db.Create(&txRow).Error)
	return wallet, txRow
}

func checkoutEvent(eventID, eventType, sessionID string) (*StripeEvent, []byte) {
	payload := []byte(fmt.Sprintf(
		`{"id":%q,"type":%q,"data":{"object":{"id":%q}}}`, eventID, eventType, sessionID))
	var event StripeEvent
	_ = json.Unmarshal(payload, &event)
	return &event, payload
}

func TestWebhook_CompletedSettlesTopUp(t *testing.T) {
	db := newTestDB(t)
	cards := newFakeCardProvider()
	svc := NewWebhookService(db, cards, nil)
	wallet, _ := seedPendingTopUp(t, db, cards, 50)

	event, payload := checkoutEvent("evt_1", "checkout.session.completed", "cs_test")
	result, err := svc.ProcessEvent(context.Background(), event, payload, true)
	require.NoError(t, err)
	assert.Equal(t, "completed", result)

	assert.Equal(t, 50.0, cards.limits["ic_test"])
	assert.Equal(t, 1, cards.setCalls)

	var got models.Wallet
	require.NoError(t, db.First(&got, "id = ?", wallet.ID).Error)
	assert.Equal(t, 50.0, got.Balance)

	var txRow models.WalletTransaction
	require.NoError(t, db.First(&txRow, "checkout_session_id = ?", "cs_test").Error)
	assert.Equal(t, models.TransactionCompleted, txRow.Status)
	assert.NotNil(t, txRow.CompletedAt)
}

func TestWebhook_ReplayedEventSettlesOnce(t *testing.T) {
	db := newTestDB(t)
	cards := newFakeCardProvider()
	svc := NewWebhookService(db, cards, nil)
	wallet, _ := seedPendingTopUp(t, db, cards, 50)

	event, payload := checkoutEvent("evt_1", "checkout.session.completed", "cs_test")
	_, err := svc.ProcessEvent(context.Background(), event, payload, true)
	require.NoError(t, err)

	// Stripe redelivers the exact same event.
	replay, replayPayload := checkoutEvent("evt_1", "checkout.session.completed", "cs_test")
	result, err := svc.ProcessEvent(context.Background(), replay, replayPayload, true)
	require.NoError(t, err)
	assert.Equal(t, "duplicate", result)

	assert.Equal(t, 50.0, cards.limits["ic_test"])
	assert.Equal(t, 1, cards.setCalls)

	var got models.Wallet
	require.NoError(t, db.First(&got, "id = ?", wallet.ID).Error)
	assert.Equal(t, 50.0, got.Balance)
}

func TestWebhook_RetryAfterTransientFailureSettles(t *testing.T) {
	db := newTestDB(t)
	cards := newFakeCardProvider()
	svc := NewWebhookService(db, cards, nil)
	wallet, _ := seedPendingTopUp(t, db, cards, 50)

	// Processor outage during the first delivery.
	cards.limitErrs["ic_test"] = errors.New("stripe unavailable")
	event, payload := checkoutEvent("evt_1", "checkout.session.completed", "cs_test")
	_, err := svc.ProcessEvent(context.Background(), event, payload, true)
	require.Error(t, err)

	var record models.WebhookEvent
	require.NoError(t, db.First(&record, "event_id = ?", "evt_1").Error)
	assert.Nil(t, record.ProcessedAt)
	assert.NotEmpty(t, record.ProcessingError)

	var txRow models.WalletTransaction
	require.NoError(t, db.First(&txRow, "checkout_session_id = ?", "cs_test").Error)
	assert.Equal(t, models.TransactionPending, txRow.Status)

	// Stripe retries the same event id once the outage clears.
	delete(cards.limitErrs, "ic_test")
	retry, retryPayload := checkoutEvent("evt_1", "checkout.session.completed", "cs_test")
	result, err := svc.ProcessEvent(context.Background(), retry, retryPayload, true)
	require.NoError(t, err)
	assert.Equal(t, "completed", result)

	assert.Equal(t, 50.0, cards.limits["ic_test"])
	assert.Equal(t, 1, cards.setCalls)

	var got models.Wallet
	require.NoError(t, db.First(&got, "id = ?", wallet.ID).Error)
	assert.Equal(t, 50.0, got.Balance)

	require.NoError(t, db.First(&record, "event_id = ?", "evt_1").Error)
	assert.NotNil(t, record.ProcessedAt)
	assert.Empty(t, record.ProcessingError)
}

func TestWebhook_DistinctEventSameSessionIsNotSettledTwice(t *testing.T) {
	db := newTestDB(t)
	cards := newFakeCardProvider()
	svc := NewWebhookService(db, cards, nil)
	wallet, _ := seedPendingTopUp(t, db, cards, 50)

	first, firstPayload := checkoutEvent("evt_1", "checkout.session.completed", "cs_test")
	_, err := svc.ProcessEvent(context.Background(), first, firstPayload, true)
	require.NoError(t, err)

	// New event id, same session: the pending-status guard catches it.
	second, secondPayload := checkoutEvent("evt_2", "checkout.session.completed", "cs_test")
	result, err := svc.ProcessEvent(context.Background(), second, secondPayload, true)
	require.NoError(t, err)
	assert.Equal(t, "already_settled", result)

	var got models.Wallet
	require.NoError(t, db.First(&got, "id = ?", wallet.ID).Error)
	assert.Equal(t, 50.0, got.Balance)
	assert.Equal(t, 1, cards.setCalls)
}

func TestWebhook_ExpiredSessionMarksTransactionFailed(t *testing.T) {
	db := newTestDB(t)
	cards := newFakeCardProvider()
	svc := NewWebhookService(db, cards, nil)
	wallet, _ := seedPendingTopUp(t, db, cards, 50)

	event, payload := checkoutEvent("evt_1", "checkout.session.expired", "cs_test")
	result, err := svc.ProcessEvent(context.Background(), event, payload, true)
	require.NoError(t, err)
	assert.Equal(t, "failed", result)

	var txRow models.WalletTransaction
	require.NoError(t, db.First(&txRow, "checkout_session_id = ?", "cs_test").Error)
	assert.Equal(t, models.TransactionFailed, txRow.Status)

	var got models.Wallet
	require.NoError(t, db.First(&got, "id = ?", wallet.ID).Error)
	assert.Equal(t, 0.0, got.Balance)
	assert.Equal(t, 0, cards.setCalls)
}

func TestWebhook_UnknownEventTypeIsIgnoredButRecorded(t *testing.T) {
	db := newTestDB(t)
	svc := NewWebhookService(db, newFakeCardProvider(), nil)

	event, payload := checkoutEvent("evt_1", "invoice.paid", "cs_test")
	result, err := svc.ProcessEvent(context.Background(), event, payload, true)
	require.NoError(t, err)
	assert.Equal(t, "ignored", result)

	var record models.WebhookEvent
	require.NoError(t, db.First(&record, "event_id = ?", "evt_1").Error)
	assert.Equal(t, "invoice.paid", record.EventType)
	assert.NotNil(t, record.ProcessedAt)
}

func TestWebhook_UnknownSessionFails(t *testing.T) {
	db := newTestDB(t)
	svc := NewWebhookService(db, newFakeCardProvider(), nil)

	event, payload := checkoutEvent("evt_1", "checkout.session.completed", "cs_missing")
	_, err := svc.ProcessEvent(context.Background(), event, payload, true)
	require.Error(t, err)

	var record models.WebhookEvent
	require.NoError(t, db.First(&record, "event_id = ?", "evt_1").Error)
	assert.NotEmpty(t, record.ProcessingError)
	assert.Nil(t, record.ProcessedAt)
}
