// services/wallet_service.go
package services

import (
	"context"
	"strconv"
	"time"

	"recruit-ads-backend/middleware"
	"recruit-ads-backend/models"
	"recruit-ads-backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type WalletService struct {
	DB    *gorm.DB
	Cards CardProvider
	Cache *redis.Client
}

func NewWalletService(db *gorm.DB, cards CardProvider, cache *redis.Client) *WalletService {
	return &WalletService{DB: db, Cards: cards, Cache: cache}
}

func walletCacheKey(userID string) string {
	return "wallet:user:" + userID
}

func (s *WalletService) invalidateWalletCache(userID string) {
	if s.Cache == nil {
		return
	}
	_ = utils.DeleteCache(context.Background(), s.Cache, walletCacheKey(userID))
}

// CreateWallet provisions a cardholder and a virtual card for the caller
// and persists the wallet. One wallet per user.
func (s *WalletService) CreateWallet(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	ctx := c.UserContext()

	var existing models.Wallet
	if err := s.DB.Where("user_id = ?", userID).First(&existing).Error; err == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "wallet already exists"})
	}

	member, err := models.ResolveMembership(s.DB, userID)
	if err != nil {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "not a member of any organization"})
	}

	var user models.User
	if err := s.DB.First(&user, "id = ?", userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "user not found"})
	}

	name := user.FullName
	if name == "" {
		name = user.Email
	}
	cardholderID, err := s.Cards.CreateCardholder(ctx, name, user.Email)
	if err != nil {
		logrus.WithError(err).Error("failed to create cardholder")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	cardID, err := s.Cards.CreateCard(ctx, cardholderID)
	if err != nil {
		logrus.WithError(err).Error("failed to create virtual card")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	wallet := models.Wallet{
		ID:             uuid.NewString(),
		UserID:         userID,
		OrganizationID: member.OrganizationID,
		CardholderID:   cardholderID,
		CardID:         cardID,
		CardStatus:     models.CardStatusActive,
		Balance:        0,
		Currency:       "eur",
	}
	if err := s.DB.Create(&wallet).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create wallet"})
	}

	logrus.WithFields(logrus.Fields{"user_id": userID, "wallet_id": wallet.ID}).Info("wallet provisioned")
	s.invalidateWalletCache(userID)
	return c.Status(fiber.StatusCreated).JSON(wallet)
}

// GetWallet returns the caller's wallet, refreshing the cached balance from
// the card's live spending limit on cache misses.
func (s *WalletService) GetWallet(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	ctx := c.UserContext()

	if s.Cache != nil {
		var cached models.Wallet
		if found, err := utils.GetCache(ctx, s.Cache, walletCacheKey(userID), &cached); err == nil && found {
			return c.JSON(fiber.Map{"wallet": cached, "cached": true})
		}
	}

	var wallet models.Wallet
	if err := s.DB.Where("user_id = ?", userID).First(&wallet).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "wallet not found"})
	}

	// The processor's limit is the source of truth; the column is a cache.
	if wallet.CardID != "" {
		if limit, err := s.Cards.CardSpendingLimit(ctx, wallet.CardID); err == nil {
			wallet.Balance = limit
			_ = s.DB.Model(&wallet).Update("balance", limit).Error
		} else {
			logrus.WithError(err).WithField("wallet_id", wallet.ID).Warn("failed to refresh card limit")
		}
	}

	if s.Cache != nil {
		_ = utils.SetCache(ctx, s.Cache, walletCacheKey(userID), wallet, 60*time.Second)
	}
	return c.JSON(fiber.Map{"wallet": wallet, "cached": false})
}

// TopUp creates a hosted checkout session and records a pending transaction.
// The webhook settles it.
func (s *WalletService) TopUp(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	ctx := c.UserContext()

	var req struct {
		Amount float64 `json:"amount"`
	}
	if err := c.BodyParser(&req); err != nil || req.Amount <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "amount must be greater than zero"})
	}

	var wallet models.Wallet
	if err := s.DB.Where("user_id = ?", userID).First(&wallet).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "wallet not found"})
	}
	if wallet.CardStatus != models.CardStatusActive {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "card is not active"})
	}

	session, err := s.Cards.CreateCheckoutSession(ctx, req.Amount, wallet.ID)
	if err != nil {
		logrus.WithError(err).Error("failed to create checkout session")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	txRow := models.WalletTransaction{
		ID:                uuid.NewString(),
		WalletID:          wallet.ID,
		Amount:            req.Amount,
		Currency:          wallet.Currency,
		Status:            models.TransactionPending,
		CheckoutSessionID: session.ID,
		CheckoutURL:       session.URL,
	}
	if err := s.DB.Create(&txRow).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to record transaction"})
	}

	logrus.WithFields(logrus.Fields{
		"wallet_id": wallet.ID,
		"amount":    req.Amount,
		"session":   session.ID,
	}).Info("top-up checkout created")
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"checkout_url": session.URL,
		"transaction":  txRow,
	})
}

// ListTransactions returns the caller's top-up history, newest first.
func (s *WalletService) ListTransactions(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	var wallet models.Wallet
	if err := s.DB.Where("user_id = ?", userID).First(&wallet).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "wallet not found"})
	}

	page := 1
	pageSize := 20
	if p, err := strconv.Atoi(c.Query("page", "1")); err == nil && p > 0 {
		page = p
	}
	if ps, err := strconv.Atoi(c.Query("page_size", "20")); err == nil && ps > 0 && ps <= 100 {
		pageSize = ps
	}

	var total int64
	if err := s.DB.Model(&models.WalletTransaction{}).Where("wallet_id = ?", wallet.ID).Count(&total).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to count transactions"})
	}

	var transactions []models.WalletTransaction
	if err := s.DB.Where("wallet_id = ?", wallet.ID).
		Order("created_at desc").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&transactions).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch transactions"})
	}

	return c.JSON(fiber.Map{
		"transactions": transactions,
		"page":         page,
		"page_size":    pageSize,
		"total":        total,
		"total_pages":  (int(total) + pageSize - 1) / pageSize,
	})
}
