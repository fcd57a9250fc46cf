package dispatch

import (
	"context"
	"time"

	"go.uber.org/zap"

	"MediNotify/internal/metrics"
	"MediNotify/internal/models"
	"MediNotify/internal/provider"
	"MediNotify/internal/template"
)

type OutcomeKind string

const (
	OutcomeSent    OutcomeKind = "sent"
	OutcomeSkipped OutcomeKind = "skipped"
	OutcomeFailed  OutcomeKind = "failed"
)

// Outcome is the result of one dispatch attempt.
type Outcome struct {
	Kind       OutcomeKind
	ProviderID string
	Err        error
}

// Resolver turns a provider config into a concrete sender.
type Resolver func(cfg models.ProviderConfig) (provider.Sender, error)

// DefaultResolver builds real adapters with the given endpoint options.
func DefaultResolver(opts provider.Options) Resolver {
	return func(cfg models.ProviderConfig) (provider.Sender, error) {
		return provider.FromConfig(cfg, opts)
	}
}

// Worker performs one dispatch attempt per pending notification log:
// guard, resolve template, render, resolve provider, send, record outcome.
type Worker struct {
	Store   LogStore
	Resolve Resolver
	Log     *zap.Logger
}

// Process handles a single log. The pending guard makes replays of the same
// delivery a cheap no-op; the conditional terminal updates in the store close
// the remaining race between two in-flight deliveries.
func (w *Worker) Process(ctx context.Context, log *models.NotificationLog) Outcome {
	if log.Status != models.StatusPending {
		w.Log.Info("log is not pending, skipping",
			zap.String("log_id", log.ID.String()),
			zap.String("status", string(log.Status)),
		)
		metrics.NotificationsSkipped.Inc()
		return Outcome{Kind: OutcomeSkipped}
	}

	tmpl, err := w.Store.GetTemplate(ctx, log.TemplateID)
	if err != nil || !tmpl.IsActive {
		// a missing or disabled template means this notification type is
		// turned off, not that the log is broken; leave the row pending
		w.Log.Info("template missing or inactive, skipping",
			zap.String("log_id", log.ID.String()),
			zap.String("template_id", log.TemplateID.String()),
			zap.Error(err),
		)
		metrics.NotificationsSkipped.Inc()
		return Outcome{Kind: OutcomeSkipped, Err: err}
	}

	subject := template.Render(tmpl.Subject, log.ContextData)
	html := template.Render(tmpl.BodyHTML, log.ContextData)

	cfg, err := w.Store.GetDefaultProvider(ctx)
	if err != nil {
		return w.fail(ctx, log, err)
	}

	sender, err := w.Resolve(*cfg)
	if err != nil {
		return w.fail(ctx, log, err)
	}

	start := time.Now()
	providerID, err := sender.Send(ctx, provider.Message{
		To:      log.RecipientEmail,
		Subject: subject,
		HTML:    html,
	})
	metrics.SendDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return w.fail(ctx, log, err)
	}

	won, err := w.Store.MarkSent(ctx, log.ID)
	if err != nil {
		w.Log.Error("failed to mark log sent",
			zap.String("log_id", log.ID.String()),
			zap.Error(err),
		)
	} else if !won {
		// another delivery reached a terminal state first; the email went
		// out twice, which at-least-once delivery permits
		w.Log.Warn("log already terminal after send",
			zap.String("log_id", log.ID.String()))
	}

	metrics.NotificationsSent.Inc()
	w.Log.Info("notification sent",
		zap.String("log_id", log.ID.String()),
		zap.String("to", log.RecipientEmail),
		zap.String("provider_id", providerID),
	)
	return Outcome{Kind: OutcomeSent, ProviderID: providerID}
}

func (w *Worker) fail(ctx context.Context, log *models.NotificationLog, cause error) Outcome {
	w.Log.Error("notification dispatch failed",
		zap.String("log_id", log.ID.String()),
		zap.String("to", log.RecipientEmail),
		zap.Error(cause),
	)

	if _, err := w.Store.MarkFailed(ctx, log.ID, cause.Error()); err != nil {
		w.Log.Error("failed to mark log failed",
			zap.String("log_id", log.ID.String()),
			zap.Error(err),
		)
	}

	metrics.NotificationsFailed.Inc()
	return Outcome{Kind: OutcomeFailed, Err: cause}
}
