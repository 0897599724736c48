// services/stripe_client.go
package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"

	"recruit-ads-backend/utils"
)

// CardProvider is the slice of the payment processor the wallet, webhook and
// reconciliation flows depend on. Implemented by StripeClient; tests use a
// fake.
type CardProvider interface {
	CreateCardholder(ctx context.Context, name, email string) (string, error)
	CreateCard(ctx context.Context, cardholderID string) (string, error)
	CardSpendingLimit(ctx context.Context, cardID string) (float64, error)
	SetCardSpendingLimit(ctx context.Context, cardID string, limitEUR float64) error
	CreateCheckoutSession(ctx context.Context, amountEUR float64, walletID string) (*CheckoutSession, error)
}

// CheckoutSession is the subset of a hosted checkout session we keep.
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// StripeClient talks to the Stripe Issuing and Checkout APIs.
type StripeClient struct {
	BaseURL       string
	SecretKey     string
	WebhookSecret string
	SuccessURL    string
	CancelURL     string
	Client        *http.Client
}

func NewStripeClient() *StripeClient {
	return &StripeClient{
		BaseURL:       "https://api.stripe.com",
		SecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		WebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		SuccessURL:    os.Getenv("CHECKOUT_SUCCESS_URL"),
		CancelURL:     os.Getenv("CHECKOUT_CANCEL_URL"),
		Client:        utils.HTTPClient,
	}
}

// eurToMinor converts an EUR amount to Stripe's minor currency unit.
func eurToMinor(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func (s *StripeClient) do(ctx context.Context, method, path string, form url.Values, out any) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, s.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.SecretKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call stripe: %w", err)
	}
	defer resp.Body.Close()

	b, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		// Surface Stripe's own message for operator debugging.
		var apiErr struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.Unmarshal(b, &apiErr)
		if apiErr.Error.Message != "" {
			return fmt.Errorf("stripe: %s", apiErr.Error.Message)
		}
		return fmt.Errorf("stripe returned status %d: %s", resp.StatusCode, string(b))
	}

	if out != nil {
		if err := json.Unmarshal(b, out); err != nil {
			return fmt.Errorf("failed to decode stripe response: %w", err)
		}
	}
	return nil
}

// CreateCardholder creates an Issuing cardholder for a wallet owner.
func (s *StripeClient) CreateCardholder(ctx context.Context, name, email string) (string, error) {
	form := url.Values{}
	form.Set("name", name)
	form.Set("email", email)
	form.Set("type", "individual")
	form.Set("billing[address][line1]", envOr("CARDHOLDER_ADDRESS_LINE1", "1 Grand Canal Square"))
	form.Set("billing[address][city]", envOr("CARDHOLDER_ADDRESS_CITY", "Dublin"))
	form.Set("billing[address][postal_code]", envOr("CARDHOLDER_ADDRESS_POSTAL_CODE", "D02"))
	form.Set("billing[address][country]", envOr("CARDHOLDER_ADDRESS_COUNTRY", "IE"))

	var out struct {
		ID string `json:"id"`
	}
	if err := s.do(ctx, http.MethodPost, "/v1/issuing/cardholders", form, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// CreateCard creates a virtual EUR card with a zero all_time limit; top-ups
// raise the limit.
func (s *StripeClient) CreateCard(ctx context.Context, cardholderID string) (string, error) {
	form := url.Values{}
	form.Set("cardholder", cardholderID)
	form.Set("currency", "eur")
	form.Set("type", "virtual")
	form.Set("status", "active")
	form.Set("spending_controls[spending_limits][0][amount]", "0")
	form.Set("spending_controls[spending_limits][0][interval]", "all_time")

	var out struct {
		ID string `json:"id"`
	}
	if err := s.do(ctx, http.MethodPost, "/v1/issuing/cards", form, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// CardSpendingLimit returns the card's all_time spending limit in EUR.
func (s *StripeClient) CardSpendingLimit(ctx context.Context, cardID string) (float64, error) {
	var out struct {
		SpendingControls struct {
			SpendingLimits []struct {
				Amount   int64  `json:"amount"`
				Interval string `json:"interval"`
			} `json:"spending_limits"`
		} `json:"spending_controls"`
	}
	if err := s.do(ctx, http.MethodGet, "/v1/issuing/cards/"+cardID, nil, &out); err != nil {
		return 0, err
	}
	for _, l := range out.SpendingControls.SpendingLimits {
		if l.Interval == "all_time" {
			return float64(l.Amount) / 100, nil
		}
	}
	return 0, fmt.Errorf("card %s has no all_time spending limit", cardID)
}

// SetCardSpendingLimit pushes a new all_time limit (EUR) to the card.
func (s *StripeClient) SetCardSpendingLimit(ctx context.Context, cardID string, limitEUR float64) error {
	form := url.Values{}
	form.Set("spending_controls[spending_limits][0][amount]", strconv.FormatInt(eurToMinor(limitEUR), 10))
	form.Set("spending_controls[spending_limits][0][interval]", "all_time")
	return s.do(ctx, http.MethodPost, "/v1/issuing/cards/"+cardID, form, nil)
}

// CreateCheckoutSession creates a hosted checkout session for a wallet
// top-up. The wallet id travels in metadata so the webhook can attribute it.
func (s *StripeClient) CreateCheckoutSession(ctx context.Context, amountEUR float64, walletID string) (*CheckoutSession, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", s.SuccessURL)
	form.Set("cancel_url", s.CancelURL)
	form.Set("line_items[0][price_data][currency]", "eur")
	form.Set("line_items[0][price_data][product_data][name]", "Wallet top-up")
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(eurToMinor(amountEUR), 10))
	form.Set("line_items[0][quantity]", "1")
	form.Set("metadata[wallet_id]", walletID)

	var out CheckoutSession
	if err := s.do(ctx, http.MethodPost, "/v1/checkout/sessions", form, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyWebhookSignature checks a Stripe-Signature header
// ("t=<ts>,v1=<hex>") against the payload.
func (s *StripeClient) VerifyWebhookSignature(payload []byte, header string) bool {
	if s.WebhookSecret == "" || header == "" {
		return false
	}

	var timestamp string
	var signatures []string
	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			timestamp = kv[1]
		case "v1":
			signatures = append(signatures, kv[1])
		}
	}
	if timestamp == "" || len(signatures) == 0 {
		return false
	}

	mac := hmac.New(sha256.New, []byte(s.WebhookSecret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, sig := range signatures {
		if hmac.Equal([]byte(expected), []byte(sig)) {
			return true
		}
	}
	return false
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
