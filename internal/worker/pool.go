package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	wdomain "github.com/AnassEREKYSY/MarketPulse/internal/worker/domain"
)

// spawnWorkerPool starts concurrency goroutines reading jobsChan
func (w *Worker) spawnWorkerPool(ctx context.Context) {
	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.workerLoop(ctx, i)
	}

	w.logger.Info("Worker pool spawned", slog.Int("worker_count", w.concurrency))
}

func (w *Worker) workerLoop(ctx context.Context, workerNum int) {
	defer w.wg.Done()

	workerName := fmt.Sprintf("%s-%d", w.workerID, workerNum)

	for {
		select {
		case <-w.stopChan:
			return
		case <-ctx.Done():
			return
		case job, ok := <-w.jobsChan:
			if !ok {
				return
			}
			err := w.processJob(ctx, job)
			w.settle(ctx, workerName, job, err)
		}
	}
}

// settle acknowledges the delivery. Retryable failures are republished with the
// next attempt number, falling back to a broker requeue when republishing fails.
func (w *Worker) settle(ctx context.Context, workerName string, job *wdomain.RefreshJob, err error) {
	logger := w.logger.With(
		slog.String("worker_name", workerName),
		slog.String("request_id", job.Request.ID),
	)

	if err == nil {
		if ackErr := job.Delivery.Ack(false); ackErr != nil {
			logger.Error("Failed to ACK message", slog.Any("error", ackErr))
		}
		return
	}

	logger.Error("Refresh failed", slog.Any("error", err))

	var retryable *wdomain.RetryableError
	if errors.As(err, &retryable) && w.requeuer != nil {
		next := job.Request
		next.Attempt++

		if w.waitRetry(ctx, next.Attempt) {
			if pubErr := w.requeuer.Republish(ctx, next); pubErr == nil {
				if ackErr := job.Delivery.Ack(false); ackErr != nil {
					logger.Error("Failed to ACK republished message", slog.Any("error", ackErr))
				}
				logger.Info("Refresh scheduled for retry", slog.Int("attempt", next.Attempt))
				return
			} else {
				logger.Warn("Failed to republish refresh, requeueing", slog.Any("error", pubErr))
			}
		}
	}

	requeue := w.shouldRequeue(err)
	if nackErr := job.Delivery.Nack(false, requeue); nackErr != nil {
		logger.Error("Failed to NACK message", slog.Any("error", nackErr))
		return
	}
	logger.Info("Message NACKed", slog.Bool("requeue", requeue))
}

// waitRetry sleeps retryDelay * 2^(attempt-1); it returns false when the worker stops first
func (w *Worker) waitRetry(ctx context.Context, attempt int) bool {
	if w.retryDelay <= 0 {
		return true
	}

	delay := w.retryDelay << min(attempt-1, 6)
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	case <-w.stopChan:
		return false
	}
}

// shouldRequeue decides the broker requeue flag for a failed refresh
func (w *Worker) shouldRequeue(err error) bool {
	if errors.Is(err, wdomain.ErrMaxRetriesExceeded) {
		return false
	}

	if errors.Is(err, wdomain.ErrInvalidPayload) {
		return false
	}

	var retryableErr *wdomain.RetryableError
	return errors.As(err, &retryableErr)
}
