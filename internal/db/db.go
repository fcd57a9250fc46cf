package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"MediNotify/internal/models"
)

var (
	// ErrNoProvider means zero or multiple rows are active+default. Both are
	// the same fatal misconfiguration from the dispatcher's point of view.
	ErrNoProvider = errors.New("no single active default provider configured")

	ErrTemplateNotFound = errors.New("template not found")
	ErrLogNotFound      = errors.New("notification log not found")
)

type Store struct {
	Pool *pgxpool.Pool
}

func New(ctx context.Context, conn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, conn)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	s.Pool.Close()
}

// InsertLog creates the pending work item and fills in the generated id.
func (s *Store) InsertLog(ctx context.Context, log *models.NotificationLog) error {
	ctxJSON, err := json.Marshal(log.ContextData)
	if err != nil {
		return err
	}

	return s.Pool.QueryRow(ctx,
		`INSERT INTO notification_logs
		 (id, template_id, recipient_email, recipient_name, context_data, status, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,NOW())
		 RETURNING id, created_at`,
		uuid.New(),
		log.TemplateID,
		log.RecipientEmail,
		log.RecipientName,
		ctxJSON,
		models.StatusPending,
	).Scan(&log.ID, &log.CreatedAt)
}

func (s *Store) GetLog(ctx context.Context, id uuid.UUID) (*models.NotificationLog, error) {
	var (
		log     models.NotificationLog
		ctxJSON []byte
		errMsg  *string
	)

	err := s.Pool.QueryRow(ctx,
		`SELECT id, template_id, recipient_email, recipient_name, context_data,
		        status, sent_at, error_message, created_at
		 FROM notification_logs WHERE id=$1`,
		id,
	).Scan(&log.ID, &log.TemplateID, &log.RecipientEmail, &log.RecipientName,
		&ctxJSON, &log.Status, &log.SentAt, &errMsg, &log.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrLogNotFound
	}
	if err != nil {
		return nil, err
	}

	if errMsg != nil {
		log.ErrorMessage = *errMsg
	}
	if len(ctxJSON) > 0 {
		if err := json.Unmarshal(ctxJSON, &log.ContextData); err != nil {
			return nil, fmt.Errorf("context_data for %s is not valid json: %w", id, err)
		}
	}
	return &log, nil
}

// MarkSent records the terminal sent state. The status predicate closes the
// race between two near-simultaneous deliveries of the same log: only the
// delivery that flips the row wins, the other sees false.
func (s *Store) MarkSent(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := s.Pool.Exec(ctx,
		`UPDATE notification_logs
		 SET status=$1, sent_at=NOW()
		 WHERE id=$2 AND status=$3`,
		models.StatusSent, id, models.StatusPending,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// MarkFailed records the terminal failed state, same predicate as MarkSent.
func (s *Store) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) (bool, error) {
	tag, err := s.Pool.Exec(ctx,
		`UPDATE notification_logs
		 SET status=$1, error_message=$2
		 WHERE id=$3 AND status=$4`,
		models.StatusFailed, errMsg, id, models.StatusPending,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ListLogs returns the newest logs for the admin notification view.
func (s *Store) ListLogs(ctx context.Context, limit int) ([]*models.NotificationLog, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.Pool.Query(ctx,
		`SELECT id, template_id, recipient_email, recipient_name, context_data,
		        status, sent_at, error_message, created_at
		 FROM notification_logs
		 ORDER BY created_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*models.NotificationLog
	for rows.Next() {
		var (
			log     models.NotificationLog
			ctxJSON []byte
			errMsg  *string
		)
		if err := rows.Scan(&log.ID, &log.TemplateID, &log.RecipientEmail, &log.RecipientName,
			&ctxJSON, &log.Status, &log.SentAt, &errMsg, &log.CreatedAt); err != nil {
			return nil, err
		}
		if errMsg != nil {
			log.ErrorMessage = *errMsg
		}
		if len(ctxJSON) > 0 {
			_ = json.Unmarshal(ctxJSON, &log.ContextData)
		}
		list = append(list, &log)
	}
	return list, rows.Err()
}

func (s *Store) GetTemplate(ctx context.Context, id uuid.UUID) (*models.Template, error) {
	return scanTemplate(s.Pool.QueryRow(ctx,
		`SELECT id, event_trigger, subject, body_html, body_text, is_active
		 FROM templates WHERE id=$1`, id))
}

// GetTemplateByTrigger resolves the active template serving an order event.
func (s *Store) GetTemplateByTrigger(ctx context.Context, trigger string) (*models.Template, error) {
	return scanTemplate(s.Pool.QueryRow(ctx,
		`SELECT id, event_trigger, subject, body_html, body_text, is_active
		 FROM templates WHERE event_trigger=$1 AND is_active=TRUE
		 LIMIT 1`, trigger))
}

func scanTemplate(row pgx.Row) (*models.Template, error) {
	var t models.Template
	err := row.Scan(&t.ID, &t.EventTrigger, &t.Subject, &t.BodyHTML, &t.BodyText, &t.IsActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTemplateNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetDefaultProvider returns the single active default provider config.
// Reads the latest row on every call; admin edits take effect on the next
// dispatch with no caching.
func (s *Store) GetDefaultProvider(ctx context.Context) (*models.ProviderConfig, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT id, provider_type, settings, is_active, is_default
		 FROM provider_configs
		 WHERE is_active=TRUE AND is_default=TRUE`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var configs []*models.ProviderConfig
	for rows.Next() {
		var (
			cfg          models.ProviderConfig
			settingsJSON []byte
		)
		if err := rows.Scan(&cfg.ID, &cfg.ProviderType, &settingsJSON, &cfg.IsActive, &cfg.IsDefault); err != nil {
			return nil, err
		}
		if len(settingsJSON) > 0 {
			if err := json.Unmarshal(settingsJSON, &cfg.Settings); err != nil {
				return nil, fmt.Errorf("settings for provider %s: %w", cfg.ID, err)
			}
		}
		configs = append(configs, &cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(configs) != 1 {
		return nil, ErrNoProvider
	}
	return configs[0], nil
}
