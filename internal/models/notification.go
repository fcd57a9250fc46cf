package models

import (
	"time"

	"github.com/google/uuid"
)

type LogStatus string

const (
	StatusPending LogStatus = "pending"
	StatusSent    LogStatus = "sent"
	StatusFailed  LogStatus = "failed"
)

// NotificationLog is the durable work item for one email dispatch and,
// once terminal, the audit record shown in the admin log view.
// Status only ever moves pending -> sent or pending -> failed.
type NotificationLog struct {
	ID             uuid.UUID              `json:"id"`
	TemplateID     uuid.UUID              `json:"template_id"`
	RecipientEmail string                 `json:"recipient_email"`
	RecipientName  string                 `json:"recipient_name"`
	ContextData    map[string]interface{} `json:"context_data"`

	Status       LogStatus  `json:"status"`
	SentAt       *time.Time `json:"sent_at,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Template is a stored subject/body pair keyed by the order event it serves.
// The dispatch pipeline only reads templates; the admin surface owns them.
type Template struct {
	ID           uuid.UUID `json:"id"`
	EventTrigger string    `json:"event_trigger"`
	Subject      string    `json:"subject"`
	BodyHTML     string    `json:"body_html"`
	BodyText     string    `json:"body_text"`
	IsActive     bool      `json:"is_active"`
}

type ProviderType string

const (
	ProviderResend  ProviderType = "resend"
	ProviderSMTP    ProviderType = "smtp"
	ProviderMailgun ProviderType = "mailgun"
)

// ProviderConfig selects and configures the outbound email provider.
// Exactly one row should be active and default at dispatch time.
type ProviderConfig struct {
	ID           uuid.UUID         `json:"id"`
	ProviderType ProviderType      `json:"provider_type"`
	Settings     map[string]string `json:"settings"`
	IsActive     bool              `json:"is_active"`
	IsDefault    bool              `json:"is_default"`
}
