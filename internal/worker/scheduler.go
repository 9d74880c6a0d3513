package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/AnassEREKYSY/MarketPulse/internal/domain"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"
)

// SchedulerConfig holds the cron settings of the cache warmer
type SchedulerConfig struct {
	// WarmSchedule recomputes Queries; empty disables warming
	WarmSchedule string
	// SweepSchedule evicts expired local cache entries; empty disables sweeping
	SweepSchedule string
	Queries       []domain.Query
	Timeout       time.Duration
	Concurrency   int
}

// Scheduler runs periodic cache warm-up and sweep jobs
type Scheduler struct {
	cron        *cron.Cron
	service     Refresher
	queries     []domain.Query
	timeout     time.Duration
	concurrency int
	logger      *slog.Logger
}

// NewScheduler registers the configured cron jobs; it fails on an invalid spec
func NewScheduler(service Refresher, cfg SchedulerConfig, logger *slog.Logger) (*Scheduler, error) {
	log := cronLogger{logger: logger}
	s := &Scheduler{
		cron:        cron.New(cron.WithLogger(log), cron.WithChain(cron.Recover(log), cron.SkipIfStillRunning(log))),
		service:     service,
		queries:     cfg.Queries,
		timeout:     cfg.Timeout,
		concurrency: max(cfg.Concurrency, 1),
		logger:      logger,
	}
	if s.timeout <= 0 {
		s.timeout = defaultJobTimeout
	}

	if cfg.WarmSchedule != "" {
		if _, err := s.cron.AddFunc(cfg.WarmSchedule, s.runWarm); err != nil {
			return nil, fmt.Errorf("invalid warm schedule %q: %w", cfg.WarmSchedule, err)
		}
	}

	if cfg.SweepSchedule != "" {
		if _, err := s.cron.AddFunc(cfg.SweepSchedule, s.runSweep); err != nil {
			return nil, fmt.Errorf("invalid sweep schedule %q: %w", cfg.SweepSchedule, err)
		}
	}

	return s, nil
}

// Start runs the cron in its own goroutine
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Scheduler started", slog.Int("jobs", len(s.cron.Entries())))
}

// Stop prevents new runs and waits for running ones
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// Warm refreshes every configured query with bounded concurrency.
// One failed query does not stop the others.
func (s *Scheduler) Warm(ctx context.Context) error {
	var g errgroup.Group
	g.SetLimit(s.concurrency)

	errs := make([]error, len(s.queries))
	for i, q := range s.queries {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			if err := s.service.Refresh(ctx, q); err != nil {
				errs[i] = fmt.Errorf("warm %q in %q: %w", q.Text, q.Location, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	return errors.Join(errs...)
}

// Sweep evicts expired entries and returns how many were removed
func (s *Scheduler) Sweep(ctx context.Context) (int, error) {
	return s.service.Cleanup(ctx)
}

func (s *Scheduler) runWarm() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	if err := s.Warm(ctx); err != nil {
		s.logger.Warn("Cache warm-up finished with errors",
			slog.Any("error", err),
			slog.Duration("duration", time.Since(start)),
		)
		return
	}

	s.logger.Info("Cache warm-up finished",
		slog.Int("queries", len(s.queries)),
		slog.Duration("duration", time.Since(start)),
	)
}

func (s *Scheduler) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	removed, err := s.Sweep(ctx)
	if err != nil {
		s.logger.Warn("Cache sweep failed", slog.Any("error", err))
		return
	}
	if removed > 0 {
		s.logger.Debug("Cache sweep finished", slog.Int("removed", removed))
	}
}

// cronLogger routes cron's own logging to slog
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append([]any{slog.Any("error", err)}, keysAndValues...)...)
}
