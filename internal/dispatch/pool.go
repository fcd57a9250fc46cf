package dispatch

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// StartPool runs workers goroutines that drain the jobs channel. Each job id
// is re-read from the store so the pending guard always sees the latest
// status, then handed to the Worker.
func StartPool(
	ctx context.Context,
	wg *sync.WaitGroup,
	workers int,
	jobs <-chan uuid.UUID,
	worker *Worker,
	limiter *rate.Limiter,
	logger *zap.Logger,
) {

	for i := 0; i < workers; i++ {
		wg.Add(1)

		go func(id int) {
			defer wg.Done()

			logger.Info("dispatch worker started", zap.Int("worker_id", id))

			for {
				select {

				case <-ctx.Done():
					logger.Info("dispatch worker shutting down", zap.Int("worker_id", id))
					return

				case logID, ok := <-jobs:
					if !ok {
						logger.Info("job channel closed", zap.Int("worker_id", id))
						return
					}

					if err := limiter.Wait(ctx); err != nil {
						logger.Warn("rate limiter stopped by context",
							zap.Int("worker_id", id),
							zap.Error(err),
						)
						return
					}

					log, err := worker.Store.GetLog(ctx, logID)
					if err != nil {
						logger.Error("failed to load notification log",
							zap.Int("worker_id", id),
							zap.String("log_id", logID.String()),
							zap.Error(err),
						)
						continue
					}

					worker.Process(ctx, log)
				}
			}
		}(i)
	}
}
