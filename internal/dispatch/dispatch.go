package dispatch

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"MediNotify/internal/metrics"
	"MediNotify/internal/models"
)

// LogStore is the slice of the database the dispatch pipeline touches.
// *db.Store satisfies it; tests use fakes.
type LogStore interface {
	InsertLog(ctx context.Context, log *models.NotificationLog) error
	GetLog(ctx context.Context, id uuid.UUID) (*models.NotificationLog, error)
	GetTemplate(ctx context.Context, id uuid.UUID) (*models.Template, error)
	GetDefaultProvider(ctx context.Context) (*models.ProviderConfig, error)
	MarkSent(ctx context.Context, id uuid.UUID) (bool, error)
	MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) (bool, error)
}

// Queue writes the durable work item and hands its id to the worker pool.
type Queue struct {
	Store LogStore
	Jobs  chan<- uuid.UUID
	Log   *zap.Logger
}

// Enqueue inserts a pending notification log and reports whether it was
// queued. Failures are logged and swallowed: a notification must never
// break the order flow that triggered it.
func (q *Queue) Enqueue(ctx context.Context, recipientEmail, recipientName string, templateID uuid.UUID, contextData map[string]interface{}) bool {
	log := &models.NotificationLog{
		TemplateID:     templateID,
		RecipientEmail: recipientEmail,
		RecipientName:  recipientName,
		ContextData:    contextData,
		Status:         models.StatusPending,
	}

	if err := q.Store.InsertLog(ctx, log); err != nil {
		q.Log.Error("notification enqueue failed",
			zap.String("recipient", recipientEmail),
			zap.String("template_id", templateID.String()),
			zap.Error(err),
		)
		return false
	}

	metrics.NotificationsEnqueued.Inc()

	// The handoff never blocks the caller. The row is persisted either way,
	// so a full channel just leaves it for an external trigger to pick up.
	select {
	case q.Jobs <- log.ID:
	default:
		q.Log.Warn("job channel full, skipping handoff",
			zap.String("log_id", log.ID.String()))
	}
	return true
}
