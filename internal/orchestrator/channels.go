package orchestrator

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// SimSender delivers a message on a simulated channel (SMS, WhatsApp).
type SimSender func(ctx context.Context, recipient, message string) error

// SimulatedChannel logs the message in place of a real gateway call. The
// short delay mimics a provider round trip so retry behaviour stays honest.
func SimulatedChannel(name string, logger *zap.Logger) SimSender {
	return func(ctx context.Context, recipient, message string) error {
		select {
		case <-time.After(100 * time.Millisecond):
		case <-ctx.Done():
			return ctx.Err()
		}

		logger.Info("simulated channel delivery",
			zap.String("channel", name),
			zap.String("recipient", recipient),
			zap.String("message", message),
		)
		return nil
	}
}
