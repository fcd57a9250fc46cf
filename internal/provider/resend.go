package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"MediNotify/internal/models"
)

const (
	resendDefaultBaseURL = "https://api.resend.com"

	// sandbox sender used when no verified domain is configured
	resendFallbackFrom = "onboarding@resend.dev"
)

// Resend sends email through the Resend HTTP API.
type Resend struct {
	APIKey  string
	Domain  string
	BaseURL string
	Client  *http.Client
}

func (r *Resend) from(msg Message) string {
	if msg.From != "" {
		return msg.From
	}
	if r.Domain != "" {
		return "orders@" + r.Domain
	}
	return resendFallbackFrom
}

func (r *Resend) Send(ctx context.Context, msg Message) (string, error) {
	base := r.BaseURL
	if base == "" {
		base = resendDefaultBaseURL
	}

	payload, err := json.Marshal(map[string]interface{}{
		"from":    r.from(msg),
		"to":      []string{msg.To},
		"subject": msg.Subject,
		"html":    msg.HTML,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/emails", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+r.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("resend request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &SendError{
			Provider: models.ProviderResend,
			Status:   resp.StatusCode,
			Body:     string(body),
		}
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &result); err != nil || result.ID == "" {
		return "unknown", nil
	}
	return result.ID, nil
}
