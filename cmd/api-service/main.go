package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AnassEREKYSY/MarketPulse/internal/api/handler"
	"github.com/AnassEREKYSY/MarketPulse/internal/api/router"
	"github.com/AnassEREKYSY/MarketPulse/internal/bootstrap"
	"github.com/AnassEREKYSY/MarketPulse/internal/config"
	"github.com/AnassEREKYSY/MarketPulse/internal/refresh"
	"github.com/AnassEREKYSY/MarketPulse/internal/worker"
	"github.com/AnassEREKYSY/MarketPulse/shared/logger"
	"github.com/AnassEREKYSY/MarketPulse/shared/rabbitmq"
	"github.com/gin-gonic/gin"
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
	defaultConfigPath := os.Getenv("API_SERVICE_CONFIG_PATH")
	if defaultConfigPath == "" {
		defaultConfigPath = "configs/api-service/config.yaml"
	}
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.ValidateAPIConfig(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// Initialize logger
	appLogger, err := initLogger(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer appLogger.Close()

	appLogger.Info("Starting API service",
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version),
		slog.String("environment", cfg.App.Environment),
	)

	ctx := context.Background()

	// Cache, provider and aggregation service
	deps, err := bootstrap.Build(ctx, cfg, appLogger.Logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	// The refresh queue is optional: without it refreshes run inline
	rabbitClient, publisher := initRefreshQueue(&cfg.RabbitMQ, appLogger.Logger)

	// Local cache sweep
	scheduler, err := worker.NewScheduler(deps.Service, worker.SchedulerConfig{
		SweepSchedule: cfg.Cache.SweepSchedule,
	}, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize scheduler: %w", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Initialize router
	handlerDeps := &handler.Dependencies{
		Logger:      appLogger.Logger,
		Service:     deps.Service,
		CacheKind:   deps.Cache.Kind(),
		ServiceName: cfg.App.Name,
	}
	if publisher != nil {
		handlerDeps.Publisher = publisher
	}
	r := initRouter(cfg.App.Environment, handlerDeps)

	// Create HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	appLogger.Info("Starting HTTP server",
		slog.String("address", addr),
		slog.Duration("read_timeout", cfg.Server.ReadTimeout),
		slog.Duration("write_timeout", cfg.Server.WriteTimeout),
	)

	// Start server in goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("Server failed to start",
				slog.Any("error", err),
			)
			os.Exit(1)
		}
	}()

	appLogger.Info("API service is running",
		slog.String("address", addr),
		slog.String("cache", deps.Cache.Kind()),
	)

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	defer func() {
		if rabbitClient != nil {
			rabbitClient.Close()
		}
	}()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown",
			slog.Any("error", err),
		)
		return err
	}

	appLogger.Info("Server shutdown complete")
	return nil
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

// initRefreshQueue connects RabbitMQ when enabled. A connection failure is
// logged and leaves both results nil.
func initRefreshQueue(cfg *config.RabbitMQConfig, logger *slog.Logger) (*rabbitmq.Client, *refresh.Publisher) {
	if !cfg.Enabled {
		logger.Info("Refresh queue disabled, refreshes run inline")
		return nil, nil
	}

	client, err := rabbitmq.NewClient(bootstrap.RabbitMQConfig(cfg), logger)
	if err != nil {
		logger.Warn("RabbitMQ unavailable, refreshes run inline", slog.Any("error", err))
		return nil, nil
	}

	logger.Info("RabbitMQ connection established")
	return client, refresh.NewPublisher(client, nil, logger)
}

// initRouter initializes the Gin router with all routes and middleware
func initRouter(environment string, deps *handler.Dependencies) *gin.Engine {
	// Set Gin mode based on environment
	if environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	return router.SetupRouter(deps)
}
