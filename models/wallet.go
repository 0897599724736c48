// models/wallet.go
package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	CardStatusActive   = "active"
	CardStatusInactive = "inactive"
)

// Wallet transaction states. pending transitions to completed or failed via
// the payment-processor webhook and never leaves a terminal state.
const (
	TransactionPending   = "pending"
	TransactionCompleted = "completed"
	TransactionFailed    = "failed"
)

// Wallet pairs a user (within an organization) with a payment-processor
// virtual card. Balance is a display cache; the card's live all_time
// spending limit is the authoritative ceiling for spend decisions.
type Wallet struct {
	ID             string `json:"id" gorm:"primaryKey;type:uuid"`
	UserID         string `json:"user_id" gorm:"type:uuid;not null;uniqueIndex"`
	OrganizationID string `json:"organization_id" gorm:"type:uuid;not null;index"`

	CardholderID string  `json:"cardholder_id"`
	CardID       string  `json:"card_id" gorm:"index"`
	CardStatus   string  `json:"card_status" gorm:"size:16;default:'inactive'"`
	Balance      float64 `json:"balance" gorm:"not null;default:0"` // EUR, cached
	Currency     string  `json:"currency" gorm:"size:3;default:'eur'"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// WalletTransaction is one top-up attempt through hosted checkout.
type WalletTransaction struct {
	ID                string  `json:"id" gorm:"primaryKey;type:uuid"`
	WalletID          string  `json:"wallet_id" gorm:"type:uuid;not null;index"`
	Amount            float64 `json:"amount" gorm:"not null"` // EUR
	Currency          string  `json:"currency" gorm:"size:3;default:'eur'"`
	Status            string  `json:"status" gorm:"size:16;not null;default:'pending';index"` // pending | completed | failed
	CheckoutSessionID string  `json:"checkout_session_id" gorm:"index"`
	CheckoutURL       string  `json:"checkout_url,omitempty"`

	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// DailyCampaignSpend records one day of attributed ad spend for a wallet.
// At most one row per (wallet, day): reconciliation upserts on conflict so a
// rerun overwrites rather than double-counts.
type DailyCampaignSpend struct {
	ID        string    `json:"id" gorm:"primaryKey;type:uuid"`
	WalletID  string    `json:"wallet_id" gorm:"type:uuid;not null;index;uniqueIndex:ux_daily_spend_wallet_day,priority:1"`
	SpendDate time.Time `json:"spend_date" gorm:"not null;uniqueIndex:ux_daily_spend_wallet_day,priority:2"`
	Amount    float64   `json:"amount" gorm:"not null"` // EUR

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
