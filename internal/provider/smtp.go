package provider

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gopkg.in/gomail.v2"

	"MediNotify/internal/models"
)

// SMTP sends email over a plain SMTP connection. The hosted original stubbed
// this channel because its serverless runtime could not open TCP sockets; a
// long-lived process has no such limit, so the dial is real.
type SMTP struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func newSMTP(settings map[string]string) (*SMTP, error) {
	host := settings["host"]
	if host == "" {
		return nil, &ConfigError{Reason: "smtp host not set"}
	}
	port := 587
	if p := settings["port"]; p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, &ConfigError{Reason: "smtp port is not a number: " + p}
		}
		port = n
	}
	from := settings["from"]
	if from == "" {
		from = "noreply@medinotify.local"
	}
	return &SMTP{
		Host:     host,
		Port:     port,
		Username: settings["username"],
		Password: settings["password"],
		From:     from,
	}, nil
}

func (s *SMTP) Send(ctx context.Context, msg Message) (string, error) {
	from := msg.From
	if from == "" {
		from = s.From
	}

	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTML)

	d := gomail.NewDialer(s.Host, s.Port, s.Username, s.Password)

	done := make(chan error, 1)
	go func() { done <- d.DialAndSend(m) }()

	// gomail has no context support, so honour cancellation ourselves
	select {
	case err := <-done:
		if err != nil {
			return "", &SendError{
				Provider: models.ProviderSMTP,
				Body:     err.Error(),
			}
		}
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(30 * time.Second):
		return "", &SendError{
			Provider: models.ProviderSMTP,
			Body:     "smtp dial timed out",
		}
	}

	return fmt.Sprintf("smtp-%s", uuid.NewString()), nil
}
