package config

import "github.com/kelseyhightower/envconfig"

type Config struct {
	// ----------------------------
	// HTTP API
	// ----------------------------
	APIPort string `envconfig:"API_PORT" default:"8080"`

	// ----------------------------
	// Metrics
	// ----------------------------
	MetricsPort string `envconfig:"METRICS_PORT" default:"9090"`

	// ----------------------------
	// Database
	// ----------------------------
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	// ----------------------------
	// Dispatch
	// ----------------------------
	WorkerCount   int `envconfig:"WORKER_COUNT" default:"5"`
	QueueSize     int `envconfig:"QUEUE_SIZE" default:"100"`
	RateLimit     int `envconfig:"RATE_LIMIT" default:"10"`
	RetryAttempts int `envconfig:"RETRY_ATTEMPTS" default:"3"`

	// RetryBaseMS is the linear backoff base for simulated channels.
	RetryBaseMS int `envconfig:"RETRY_BASE_MS" default:"1000"`

	// ----------------------------
	// Provider endpoint overrides (tests, local mocks)
	// ----------------------------
	ResendBaseURL  string `envconfig:"RESEND_BASE_URL" default:""`
	MailgunBaseURL string `envconfig:"MAILGUN_BASE_URL" default:""`
}

func Load() (*Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return &cfg, err
}
