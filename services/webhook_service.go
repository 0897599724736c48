// services/webhook_service.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"recruit-ads-backend/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SignatureVerifier checks a provider webhook signature header against the
// raw payload. Implemented by StripeClient.
type SignatureVerifier interface {
	VerifyWebhookSignature(payload []byte, header string) bool
}

// WebhookService settles wallet top-ups from checkout webhook events.
// Processing is idempotent two ways: a unique (provider, event_id) row is
// claimed before any work, and settlement only fires on still-pending
// transactions.
type WebhookService struct {
	DB       *gorm.DB
	Cards    CardProvider
	Verifier SignatureVerifier
}

func NewWebhookService(db *gorm.DB, cards CardProvider, verifier SignatureVerifier) *WebhookService {
	return &WebhookService{DB: db, Cards: cards, Verifier: verifier}
}

// StripeEvent is the envelope of a Stripe webhook delivery.
type StripeEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

type checkoutSessionObject struct {
	ID string `json:"id"`
}

// HandleStripeWebhook is the HTTP entrypoint for Stripe deliveries.
func (s *WebhookService) HandleStripeWebhook(c *fiber.Ctx) error {
	payload := c.Body()

	sigValid := false
	if s.Verifier != nil {
		sigValid = s.Verifier.VerifyWebhookSignature(payload, c.Get("Stripe-Signature"))
		if !sigValid {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid webhook signature"})
		}
	}

	var event StripeEvent
	if err := json.Unmarshal(payload, &event); err != nil || event.ID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed event payload"})
	}

	result, err := s.ProcessEvent(c.UserContext(), &event, payload, sigValid)
	if err != nil {
		logrus.WithError(err).WithField("event_id", event.ID).Error("webhook processing failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"received": true, "result": result})
}

// ProcessEvent claims the event and dispatches by type. Returns a short
// result string for the response body and logs.
func (s *WebhookService) ProcessEvent(ctx context.Context, event *StripeEvent, payload []byte, sigValid bool) (string, error) {
	record := models.WebhookEvent{
		ID:             uuid.NewString(),
		Provider:       "stripe",
		EventID:        event.ID,
		EventType:      event.Type,
		Payload:        string(payload),
		SignatureValid: sigValid,
	}
	res := s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "provider"}, {Name: "event_id"}},
		DoNothing: true,
	}).Create(&record)
	if res.Error != nil {
		return "", fmt.Errorf("failed to record event: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// Redelivery. Only a settled event is a true duplicate; a claim whose
		// processing failed is retried (the pending-status guard keeps
		// reprocessing safe).
		var existing models.WebhookEvent
		if err := s.DB.Where("provider = ? AND event_id = ?", "stripe", event.ID).
			First(&existing).Error; err != nil {
			return "", fmt.Errorf("failed to load event record: %w", err)
		}
		if existing.ProcessedAt != nil {
			return "duplicate", nil
		}
	}

	result, err := s.dispatch(ctx, event)
	if err != nil {
		_ = s.DB.Model(&models.WebhookEvent{}).
			Where("provider = ? AND event_id = ?", "stripe", event.ID).
			Update("processing_error", err.Error()).Error
		return "", err
	}

	now := time.Now()
	_ = s.DB.Model(&models.WebhookEvent{}).
		Where("provider = ? AND event_id = ?", "stripe", event.ID).
		Updates(map[string]any{
			"processed_at":     &now,
			"processing_error": "",
		}).Error
	return result, nil
}

func (s *WebhookService) dispatch(ctx context.Context, event *StripeEvent) (string, error) {
	switch event.Type {
	case "checkout.session.completed":
		var session checkoutSessionObject
		if err := json.Unmarshal(event.Data.Object, &session); err != nil {
			return "", fmt.Errorf("malformed checkout session object: %w", err)
		}
		return s.settleCompleted(ctx, session.ID)
	case "checkout.session.expired":
		var session checkoutSessionObject
		if err := json.Unmarshal(event.Data.Object, &session); err != nil {
			return "", fmt.Errorf("malformed checkout session object: %w", err)
		}
		return s.markFailed(session.ID)
	default:
		return "ignored", nil
	}
}

// settleCompleted raises the card limit by the top-up amount, then finalizes
// the transaction and cached balance in one DB transaction. The limit push
// happens first: if the local write fails the event stays unprocessed and a
// retry re-reads the live limit instead of re-adding.
func (s *WebhookService) settleCompleted(ctx context.Context, sessionID string) (string, error) {
	var txRow models.WalletTransaction
	if err := s.DB.Where("checkout_session_id = ?", sessionID).First(&txRow).Error; err != nil {
		return "", fmt.Errorf("no transaction for checkout session %s", sessionID)
	}
	if txRow.Status != models.TransactionPending {
		return "already_settled", nil
	}

	var wallet models.Wallet
	if err := s.DB.First(&wallet, "id = ?", txRow.WalletID).Error; err != nil {
		return "", fmt.Errorf("wallet %s not found", txRow.WalletID)
	}

	limit, err := s.Cards.CardSpendingLimit(ctx, wallet.CardID)
	if err != nil {
		return "", fmt.Errorf("failed to read card limit: %w", err)
	}
	if err := s.Cards.SetCardSpendingLimit(ctx, wallet.CardID, limit+txRow.Amount); err != nil {
		return "", fmt.Errorf("failed to raise card limit: %w", err)
	}

	now := time.Now()
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&txRow).Updates(map[string]any{
			"status":       models.TransactionCompleted,
			"completed_at": &now,
		}).Error; err != nil {
			return err
		}
		return tx.Model(&wallet).
			Update("balance", gorm.Expr("balance + ?", txRow.Amount)).Error
	})
	if err != nil {
		return "", fmt.Errorf("failed to finalize settlement: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"wallet_id": wallet.ID,
		"amount":    txRow.Amount,
		"session":   sessionID,
	}).Info("top-up settled")
	return "completed", nil
}

func (s *WebhookService) markFailed(sessionID string) (string, error) {
	var txRow models.WalletTransaction
	if err := s.DB.Where("checkout_session_id = ?", sessionID).First(&txRow).Error; err != nil {
		return "", fmt.Errorf("no transaction for checkout session %s", sessionID)
	}
	if txRow.Status != models.TransactionPending {
		return "already_settled", nil
	}
	if err := s.DB.Model(&txRow).Update("status", models.TransactionFailed).Error; err != nil {
		return "", err
	}
	return "failed", nil
}
