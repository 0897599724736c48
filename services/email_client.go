// services/email_client.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"recruit-ads-backend/utils"

	"github.com/sirupsen/logrus"
)

// EmailSender delivers owner notifications. Implemented by ResendClient;
// reconciliation tests use a fake.
type EmailSender interface {
	SendInsufficientBalance(ctx context.Context, to string, requiredEUR, availableEUR float64) error
}

// ResendClient sends transactional email through the Resend REST API.
type ResendClient struct {
	BaseURL string
	APIKey  string
	From    string
	Client  *http.Client
}

func NewResendClient() *ResendClient {
	return &ResendClient{
		BaseURL: "https://api.resend.com",
		APIKey:  os.Getenv("RESEND_API_KEY"),
		From:    envOr("NOTIFICATION_FROM_EMAIL", "billing@recruitads.app"),
		Client:  utils.HTTPClient,
	}
}

// SendInsufficientBalance tells a wallet owner that yesterday's ad spend
// exceeds the card's remaining balance.
func (c *ResendClient) SendInsufficientBalance(ctx context.Context, to string, requiredEUR, availableEUR float64) error {
	subject := "Your ad wallet balance is too low"
	html := fmt.Sprintf(
		"<p>Your campaigns spent <strong>€%.2f</strong> yesterday, but your wallet only has <strong>€%.2f</strong> left.</p>"+
			"<p>Top up your wallet to keep your campaigns running — spend above the balance is not recorded until you do.</p>",
		requiredEUR, availableEUR,
	)
	return c.send(ctx, to, subject, html)
}

func (c *ResendClient) send(ctx context.Context, to, subject, html string) error {
	payload := map[string]any{
		"from":    c.From,
		"to":      []string{to},
		"subject": subject,
		"html":    html,
	}
	jsonData, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/emails", bytes.NewBuffer(jsonData))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call email provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		logrus.WithFields(logrus.Fields{"status": resp.StatusCode, "to": to}).Warn("email provider rejected message")
		return fmt.Errorf("email provider returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
