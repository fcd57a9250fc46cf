package provider

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"MediNotify/internal/models"
)

// Message is a rendered email ready for delivery.
type Message struct {
	To      string
	From    string
	Subject string
	HTML    string
}

// Sender delivers one rendered message and returns the provider's message id.
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// ConfigError marks a fatal configuration problem (missing credentials, no
// usable provider). It is never retried.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "provider config error: " + e.Reason
}

// SendError is a failed provider call. Body carries the provider's error
// response for the notification log.
type SendError struct {
	Provider models.ProviderType
	Status   int
	Body     string
}

func (e *SendError) Error() string {
	return fmt.Sprintf("%s send failed (status %d): %s", e.Provider, e.Status, e.Body)
}

// Options override provider endpoints, used by tests and local dev.
type Options struct {
	ResendBaseURL  string
	MailgunBaseURL string
	HTTPClient     *http.Client
}

func (o Options) client() *http.Client {
	if o.HTTPClient != nil {
		return o.HTTPClient
	}
	return &http.Client{Timeout: 15 * time.Second}
}

// FromConfig resolves the Sender for a provider config. Unknown provider
// types and missing credentials are ConfigErrors.
func FromConfig(cfg models.ProviderConfig, opts Options) (Sender, error) {
	switch cfg.ProviderType {
	case models.ProviderResend:
		key := cfg.Settings["api_key"]
		if key == "" {
			return nil, &ConfigError{Reason: "resend api_key not set"}
		}
		return &Resend{
			APIKey:  key,
			Domain:  cfg.Settings["domain"],
			BaseURL: opts.ResendBaseURL,
			Client:  opts.client(),
		}, nil

	case models.ProviderMailgun:
		key := cfg.Settings["api_key"]
		domain := cfg.Settings["domain"]
		if key == "" || domain == "" {
			return nil, &ConfigError{Reason: "mailgun api_key and domain are required"}
		}
		return &Mailgun{
			APIKey:  key,
			Domain:  domain,
			BaseURL: opts.MailgunBaseURL,
			Client:  opts.client(),
		}, nil

	case models.ProviderSMTP:
		return newSMTP(cfg.Settings)

	default:
		return nil, &ConfigError{Reason: fmt.Sprintf("unknown provider type %q", cfg.ProviderType)}
	}
}
