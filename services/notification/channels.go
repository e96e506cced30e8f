// File: services/notification/channels.go
package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPEmailSender delivers email through an HTTP gateway. Bodies arrive
// pre-rendered; this adapter only posts them.
type HTTPEmailSender struct {
	GatewayURL string
	From       string
	APIKey     string
	Client     *http.Client
}

// SendEmail posts one email to the gateway.
func (s *HTTPEmailSender) SendEmail(ctx context.Context, recipient, subject, body string) error {
	payload := map[string]string{
		"from":    s.From,
		"to":      recipient,
		"subject": subject,
		"html":    body,
	}
	return postJSON(ctx, s.client(), s.GatewayURL, s.APIKey, payload)
}

func (s *HTTPEmailSender) client() *http.Client {
	if s.Client != nil {
		return s.Client
	}
	return &http.Client{Timeout: 10 * time.Second}
}

// HTTPSMSSender delivers SMS through an HTTP gateway.
type HTTPSMSSender struct {
	GatewayURL string
	From       string
	APIKey     string
	Client     *http.Client
}

// SendSMS posts one text message to the gateway.
func (s *HTTPSMSSender) SendSMS(ctx context.Context, recipient, text string) error {
	payload := map[string]string{
		"from": s.From,
		"to":   recipient,
		"body": text,
	}
	return postJSON(ctx, s.client(), s.GatewayURL, s.APIKey, payload)
}

func (s *HTTPSMSSender) client() *http.Client {
	if s.Client != nil {
		return s.Client
	}
	return &http.Client{Timeout: 10 * time.Second}
}

func postJSON(ctx context.Context, client *http.Client, url, apiKey string, payload interface{}) error {
	if url == "" {
		return fmt.Errorf("gateway URL not configured")
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal gateway payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to build gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}
	return nil
}
