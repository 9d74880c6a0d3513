// Package bootstrap builds the aggregation service graph from configuration.
// Both services share it so they read and write the same cache keys.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/AnassEREKYSY/MarketPulse/internal/aggregation"
	"github.com/AnassEREKYSY/MarketPulse/internal/cache"
	"github.com/AnassEREKYSY/MarketPulse/internal/config"
	"github.com/AnassEREKYSY/MarketPulse/internal/domain"
	"github.com/AnassEREKYSY/MarketPulse/internal/geo"
	"github.com/AnassEREKYSY/MarketPulse/internal/geocode"
	"github.com/AnassEREKYSY/MarketPulse/internal/provider"
	"github.com/AnassEREKYSY/MarketPulse/internal/salary"
	"github.com/AnassEREKYSY/MarketPulse/internal/stats"
	"github.com/AnassEREKYSY/MarketPulse/shared/postgresql"
	"github.com/AnassEREKYSY/MarketPulse/shared/rabbitmq"
	"github.com/jmoiron/sqlx"
	"github.com/jonboulle/clockwork"
)

// Dependencies holds the long-lived resources of a service
type Dependencies struct {
	Cache   *cache.Cache
	DB      *postgresql.Client
	Service *aggregation.Service
	logger  *slog.Logger
}

// Build opens the cache, connects PostgreSQL when the provider needs it and
// assembles the aggregation service.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{logger: logger}

	var db *sqlx.DB
	if cfg.Provider.UsesDatabase() {
		client, err := postgresql.NewClient(ctx, PostgreSQLConfig(&cfg.Database), logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		deps.DB = client
		db = client.GetDB()
	}

	fetcher, err := NewFetcher(cfg.Provider, db, logger)
	if err != nil {
		deps.Close()
		return nil, err
	}

	clock := clockwork.NewRealClock()
	deps.Cache = cache.Open(ctx, cache.Options{RedisURL: cfg.Cache.RedisURL, Clock: clock}, logger)
	deps.Service = NewService(cfg, fetcher, deps.Cache, clock, logger)

	return deps, nil
}

// Close releases the cache and database connections
func (d *Dependencies) Close() {
	if d.Cache != nil {
		if err := d.Cache.Close(); err != nil {
			d.logger.Warn("Failed to close cache", slog.Any("error", err))
		}
	}
	if d.DB != nil {
		d.DB.Close()
	}
}

// NewService assembles the normalizer, aggregators and geocoder around fetcher
func NewService(cfg *config.Config, fetcher aggregation.Fetcher, c *cache.Cache, clock clockwork.Clock, logger *slog.Logger) *aggregation.Service {
	normalizer := salary.NewNormalizer(cfg.Salary.CurrencyRates)

	var resolver geo.Resolver
	if cfg.Geocode.Enabled {
		nominatim := geocode.NewNominatim(geocode.Config{
			BaseURL:           cfg.Geocode.BaseURL,
			UserAgent:         cfg.Geocode.UserAgent,
			Timeout:           cfg.Geocode.Timeout,
			RequestsPerSecond: cfg.Geocode.RequestsPerSecond,
		}, logger)
		resolver = geo.NewCachedResolver(nominatim, c, cfg.Geocode.CacheTTL, logger)
	}

	return aggregation.NewService(
		fetcher,
		c,
		stats.NewAggregator(normalizer),
		geo.NewAggregator(normalizer, resolver, cfg.Geocode.BatchTimeout, logger),
		clock,
		aggregation.Config{
			SearchTTL:        cfg.Cache.SearchTTL,
			AggregateTTL:     cfg.Cache.AggregateTTL,
			CacheEmptySearch: cfg.Cache.CacheEmptySearch,
			FetchSize:        cfg.Provider.FetchSize,
		},
		logger,
	)
}

// NewFetcher selects the job source. db is required for the database sources.
func NewFetcher(cfg config.ProviderConfig, db *sqlx.DB, logger *slog.Logger) (aggregation.Fetcher, error) {
	if cfg.UsesDatabase() && db == nil {
		return nil, errors.New("provider source needs a database connection")
	}

	adzuna := func() *provider.Adzuna {
		a := provider.NewAdzuna(provider.AdzunaConfig{
			BaseURL:           cfg.Adzuna.BaseURL,
			AppID:             cfg.Adzuna.AppID,
			AppKey:            cfg.Adzuna.AppKey,
			Country:           cfg.Adzuna.Country,
			ResultsPerPage:    cfg.Adzuna.ResultsPerPage,
			MaxPages:          cfg.Adzuna.MaxPages,
			Timeout:           cfg.Adzuna.Timeout,
			RequestsPerSecond: cfg.Adzuna.RequestsPerSecond,
		}, logger)
		if !a.Available() {
			logger.Warn("Adzuna credentials are not configured, searches will return no results")
		}
		return a
	}

	jsearch := func() *provider.JSearch {
		j := provider.NewJSearch(provider.JSearchConfig{
			BaseURL:           cfg.JSearch.BaseURL,
			APIKey:            cfg.JSearch.APIKey,
			Host:              cfg.JSearch.Host,
			MaxPages:          cfg.JSearch.MaxPages,
			Timeout:           cfg.JSearch.Timeout,
			RequestsPerSecond: cfg.JSearch.RequestsPerSecond,
		}, logger)
		if !j.Available() {
			logger.Warn("JSearch API key is not configured, JSearch will return no results")
		}
		return j
	}

	var fetcher provider.Source
	switch cfg.Source {
	case config.SourceAdzuna:
		fetcher = adzuna()
	case config.SourceJSearch:
		fetcher = jsearch()
	case config.SourceTopUp:
		fetcher = provider.NewTopUp(logger, adzuna(), jsearch())
	case config.SourceDatabase:
		fetcher = provider.NewStorage(db, logger)
	case config.SourceFallback:
		fetcher = provider.NewFallback(logger, adzuna(), provider.NewStorage(db, logger))
	default:
		return nil, fmt.Errorf("unknown provider source %q", cfg.Source)
	}

	logger.Info("Job provider selected", slog.String("source", cfg.Source), slog.String("provider", fetcher.Name()))
	return fetcher, nil
}

// WarmQueries turns configured warm-up pairs into service queries
func WarmQueries(warm []config.WarmQuery) []domain.Query {
	queries := make([]domain.Query, 0, len(warm))
	for _, w := range warm {
		queries = append(queries, domain.Query{Text: w.Text, Location: w.Location})
	}
	return queries
}

// PostgreSQLConfig maps the database section onto the client config
func PostgreSQLConfig(cfg *config.DatabaseConfig) *postgresql.Config {
	return &postgresql.Config{
		Host:            cfg.Host,
		Port:            cfg.Port,
		User:            cfg.User,
		Password:        cfg.Password,
		Database:        cfg.Database,
		SSLMode:         cfg.SSLMode,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.ConnMaxIdleTime,
	}
}

// RabbitMQConfig maps the rabbitmq section onto the client config
func RabbitMQConfig(cfg *config.RabbitMQConfig) *rabbitmq.Config {
	return &rabbitmq.Config{
		Host:               cfg.Host,
		Port:               cfg.Port,
		User:               cfg.User,
		Password:           cfg.Password,
		VHost:              cfg.VHost,
		ExchangeName:       cfg.Exchange.Name,
		ExchangeType:       cfg.Exchange.Type,
		ExchangeDurable:    cfg.Exchange.Durable,
		ExchangeAutoDelete: cfg.Exchange.AutoDelete,
		QueueName:          cfg.Queue.Name,
		QueueDurable:       cfg.Queue.Durable,
		QueueAutoDelete:    cfg.Queue.AutoDelete,
		QueueExclusive:     cfg.Queue.Exclusive,
		RoutingKey:         cfg.RoutingKey,
		RetryAttempts:      cfg.Connection.RetryAttempts,
		RetryInterval:      cfg.Connection.RetryInterval,
		Heartbeat:          cfg.Connection.Heartbeat,
		PublishRetries:     cfg.Publish.RetryAttempts,
		PublishRetryDelay:  cfg.Publish.RetryInterval,
		PublishBackoffMult: cfg.Publish.BackoffMultiplier,
		PrefetchCount:      cfg.Consumer.PrefetchCount,
	}
}
