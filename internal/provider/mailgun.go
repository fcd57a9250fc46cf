package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"MediNotify/internal/models"
)

const mailgunDefaultBaseURL = "https://api.mailgun.net"

// Mailgun sends email through the Mailgun messages API.
type Mailgun struct {
	APIKey  string
	Domain  string
	BaseURL string
	Client  *http.Client
}

func (m *Mailgun) Send(ctx context.Context, msg Message) (string, error) {
	base := m.BaseURL
	if base == "" {
		base = mailgunDefaultBaseURL
	}

	from := msg.From
	if from == "" {
		from = "orders@" + m.Domain
	}

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	fields := map[string]string{
		"from":    from,
		"to":      msg.To,
		"subject": msg.Subject,
		"html":    msg.HTML,
	}
	for k, v := range fields {
		if err := form.WriteField(k, v); err != nil {
			return "", err
		}
	}
	if err := form.Close(); err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/v3/%s/messages", base, m.Domain)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return "", err
	}
	req.SetBasicAuth("api", m.APIKey)
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := m.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("mailgun request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &SendError{
			Provider: models.ProviderMailgun,
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
