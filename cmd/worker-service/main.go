package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AnassEREKYSY/MarketPulse/internal/bootstrap"
	"github.com/AnassEREKYSY/MarketPulse/internal/config"
	"github.com/AnassEREKYSY/MarketPulse/internal/refresh"
	"github.com/AnassEREKYSY/MarketPulse/internal/worker"
	"github.com/AnassEREKYSY/MarketPulse/shared/logger"
	"github.com/AnassEREKYSY/MarketPulse/shared/rabbitmq"
	"github.com/joho/godotenv"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables or flags")
	}

	// Parse command-line flags
	defaultConfigPath := os.Getenv("WORKER_SERVICE_CONFIG_PATH")
	if defaultConfigPath == "" {
		defaultConfigPath = "configs/worker-service/config.yaml"
	}
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.ValidateWorkerConfig(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// Initialize logger
	appLogger, err := initLogger(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer appLogger.Close()

	appLogger.Info("Starting worker service",
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version),
		slog.String("environment", cfg.App.Environment),
	)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deps, err := bootstrap.Build(ctx, cfg, appLogger.Logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	scheduler, err := worker.NewScheduler(deps.Service, worker.SchedulerConfig{
		WarmSchedule:  cfg.Worker.WarmSchedule,
		SweepSchedule: cfg.Cache.SweepSchedule,
		Queries:       bootstrap.WarmQueries(cfg.Worker.WarmQueries),
		Timeout:       cfg.Worker.WarmTimeout,
		Concurrency:   cfg.Worker.Concurrency,
	}, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize scheduler: %w", err)
	}

	workerCfg := &worker.Config{
		Logger:      appLogger.Logger,
		Service:     deps.Service,
		Scheduler:   scheduler,
		Concurrency: cfg.Worker.Concurrency,
		JobTimeout:  cfg.Worker.JobTimeout,
		MaxRetries:  cfg.Worker.MaxRetries,
		RetryDelay:  cfg.Worker.RetryDelay,
	}

	// Initialize RabbitMQ client
	var rabbitClient *rabbitmq.Client
	if cfg.RabbitMQ.Enabled {
		rabbitClient, err = rabbitmq.NewClient(bootstrap.RabbitMQConfig(&cfg.RabbitMQ), appLogger.Logger)
		if err != nil {
			return fmt.Errorf("failed to initialize RabbitMQ: %w", err)
		}
		defer rabbitClient.Close()

		appLogger.Info("RabbitMQ connection established")

		workerCfg.Consumer = rabbitClient
		workerCfg.Requeuer = refresh.NewPublisher(rabbitClient, nil, appLogger.Logger)
	}

	// Create worker instance
	workerInstance := worker.NewWorker(workerCfg)

	// Start worker in a goroutine
	errChan := make(chan error, 1)
	go func() {
		if err := workerInstance.Start(ctx); err != nil {
			errChan <- err
		}
	}()

	appLogger.Info("Worker service started successfully",
		slog.String("worker_id", workerInstance.ID()),
		slog.String("cache", deps.Cache.Kind()),
	)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-quit:
		appLogger.Info("Received signal, shutting down gracefully",
			slog.String("signal", sig.String()),
		)
	case runErr = <-errChan:
		appLogger.Error("Worker error",
			slog.Any("error", runErr),
		)
	}

	// Cancel context to stop worker
	cancel()

	// Give worker time to shutdown gracefully
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Worker.ShutdownTimeout)
	defer shutdownCancel()

	// Stop worker
	done := make(chan struct{})
	go func() {
		workerInstance.Stop()
		close(done)
	}()

	select {
	case <-done:
		appLogger.Info("Worker stopped gracefully")
	case <-shutdownCtx.Done():
		appLogger.Warn("Worker shutdown timeout exceeded, forcing exit")
	}

	appLogger.Info("Worker service shutdown complete")
	return runErr
}

// initLogger initializes and configures the application logger
func initLogger(cfg *config.LoggingConfig) (*logger.Logger, error) {
	loggerCfg := &logger.Config{
		Level:        cfg.Level,
		Format:       cfg.Format,
		Output:       cfg.Output,
		EnableSource: cfg.EnableCaller,
		TimeFormat:   time.RFC3339,
	}

	return logger.New(loggerCfg)
}
