package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/AnassEREKYSY/MarketPulse/internal/domain"
	wdomain "github.com/AnassEREKYSY/MarketPulse/internal/worker/domain"
)

// processJob runs one refresh under the job timeout and classifies its failure
func (w *Worker) processJob(ctx context.Context, job *wdomain.RefreshJob) error {
	req := job.Request

	jobCtx, cancel := context.WithTimeout(ctx, w.jobTimeout)
	defer cancel()

	start := time.Now()
	err := w.service.Refresh(jobCtx, req.Query)
	if err == nil {
		w.logger.Info("Refresh completed",
			slog.String("request_id", req.ID),
			slog.String("text", req.Query.Text),
			slog.String("location", req.Query.Location),
			slog.Int("attempt", req.Attempt),
			slog.Duration("duration", time.Since(start)),
		)
		return nil
	}

	if !transient(err) {
		return fmt.Errorf("refresh %s failed: %w", req.ID, err)
	}

	if req.Attempt >= w.maxRetries {
		return fmt.Errorf("%w: refresh %s after %d attempts: %v", wdomain.ErrMaxRetriesExceeded, req.ID, req.Attempt+1, err)
	}

	return wdomain.NewRetryableError(fmt.Errorf("refresh %s failed: %w", req.ID, err))
}

func transient(err error) bool {
	return errors.Is(err, domain.ErrUpstreamUnavailable) ||
		errors.Is(err, domain.ErrCacheBackendUnavailable) ||
		errors.Is(err, context.DeadlineExceeded)
}
