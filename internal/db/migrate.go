package db

import "context"

// EnsureSchema creates the pipeline tables if they do not exist. The admin
// surface owns templates and provider_configs content; this only guarantees
// the shape so a fresh database boots.
func (s *Store) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS templates (
			id            UUID PRIMARY KEY,
			event_trigger TEXT NOT NULL,
			subject       TEXT NOT NULL,
			body_html     TEXT NOT NULL,
			body_text     TEXT NOT NULL DEFAULT '',
			is_active     BOOLEAN NOT NULL DEFAULT TRUE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_templates_trigger
			ON templates (event_trigger) WHERE is_active`,

		`CREATE TABLE IF NOT EXISTS provider_configs (
			id            UUID PRIMARY KEY,
			provider_type TEXT NOT NULL,
			settings      JSONB NOT NULL DEFAULT '{}',
			is_active     BOOLEAN NOT NULL DEFAULT FALSE,
			is_default    BOOLEAN NOT NULL DEFAULT FALSE
		)`,

		`CREATE TABLE IF NOT EXISTS notification_logs (
			id              UUID PRIMARY KEY,
			template_id     UUID NOT NULL,
			recipient_email TEXT NOT NULL,
			recipient_name  TEXT NOT NULL DEFAULT '',
			context_data    JSONB NOT NULL DEFAULT '{}',
			status          TEXT NOT NULL DEFAULT 'pending',
			sent_at         TIMESTAMPTZ,
			error_message   TEXT,
			created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_notification_logs_status
			ON notification_logs (status, created_at)`,
	}

	for _, stmt := range stmts {
		if _, err := s.Pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
