// Package worker keeps the market cache warm: it consumes refresh requests
// from RabbitMQ and recomputes scheduled queries on a cron.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/AnassEREKYSY/MarketPulse/internal/domain"
	wdomain "github.com/AnassEREKYSY/MarketPulse/internal/worker/domain"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	defaultConcurrency = 1
	defaultJobTimeout  = 2 * time.Minute
)

// Refresher recomputes cached market data
type Refresher interface {
	Refresh(ctx context.Context, q domain.Query) error
	Cleanup(ctx context.Context) (int, error)
}

// Consumer delivers refresh messages
type Consumer interface {
	Consume(consumerTag string) (<-chan amqp.Delivery, error)
}

// Requeuer publishes a retry of a refresh request
type Requeuer interface {
	Republish(ctx context.Context, req domain.RefreshRequest) error
}

// Config holds worker configuration
type Config struct {
	Logger      *slog.Logger
	Service     Refresher
	Consumer    Consumer
	Requeuer    Requeuer
	Scheduler   *Scheduler
	Concurrency int
	JobTimeout  time.Duration
	MaxRetries  int
	// RetryDelay is the base delay before a failed refresh is republished; it doubles per attempt.
	// Zero republishes immediately.
	RetryDelay time.Duration
}

// Worker processes refresh requests with a fixed pool of goroutines
type Worker struct {
	workerID    string
	logger      *slog.Logger
	service     Refresher
	consumer    Consumer
	requeuer    Requeuer
	scheduler   *Scheduler
	concurrency int
	jobTimeout  time.Duration
	maxRetries  int
	retryDelay  time.Duration
	jobsChan    chan *wdomain.RefreshJob
	wg          sync.WaitGroup
	stopChan    chan struct{}
	stopOnce    sync.Once
}

// NewWorker creates a new worker instance
func NewWorker(cfg *Config) *Worker {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	jobTimeout := cfg.JobTimeout
	if jobTimeout <= 0 {
		jobTimeout = defaultJobTimeout
	}

	workerID := "worker-" + uuid.NewString()[:8]

	return &Worker{
		workerID:    workerID,
		logger:      cfg.Logger.With(slog.String("worker_id", workerID)),
		service:     cfg.Service,
		consumer:    cfg.Consumer,
		requeuer:    cfg.Requeuer,
		scheduler:   cfg.Scheduler,
		concurrency: concurrency,
		jobTimeout:  jobTimeout,
		maxRetries:  max(cfg.MaxRetries, 0),
		retryDelay:  max(cfg.RetryDelay, 0),
		jobsChan:    make(chan *wdomain.RefreshJob, concurrency),
		stopChan:    make(chan struct{}),
	}
}

// ID returns the worker id used as the consumer tag
func (w *Worker) ID() string {
	return w.workerID
}

// Start runs the scheduler and the consumer until ctx is canceled.
// It returns an error when the broker closes the delivery channel.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Starting worker",
		slog.Int("concurrency", w.concurrency),
		slog.Duration("job_timeout", w.jobTimeout),
		slog.Int("max_retries", w.maxRetries),
	)

	if w.scheduler != nil {
		w.scheduler.Start()
	}

	if w.consumer == nil {
		w.logger.Info("No refresh queue configured, running scheduled warm-up only")
		<-ctx.Done()
		return nil
	}

	deliveries, err := w.setupConsumer()
	if err != nil {
		return err
	}

	w.spawnWorkerPool(ctx)

	if err := w.startMessageDispatcher(ctx, deliveries); err != nil {
		return err
	}
	return nil
}

// Stop waits for in-flight refreshes and the scheduler to finish
func (w *Worker) Stop() {
	w.stopOnce.Do(func() {
		w.logger.Info("Stopping worker...")
		close(w.stopChan)
		w.wg.Wait()
		if w.scheduler != nil {
			w.scheduler.Stop()
		}
		w.logger.Info("Worker stopped")
	})
}

var errDeliveriesClosed = errors.New("rabbitmq delivery channel closed")
