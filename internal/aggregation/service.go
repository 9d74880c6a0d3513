// Package aggregation serves market queries: fetch, filter, aggregate and cache.
package aggregation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/AnassEREKYSY/MarketPulse/internal/cache"
	"github.com/AnassEREKYSY/MarketPulse/internal/domain"
	"github.com/AnassEREKYSY/MarketPulse/internal/filter"
	"github.com/AnassEREKYSY/MarketPulse/internal/geo"
	"github.com/AnassEREKYSY/MarketPulse/internal/stats"
	"github.com/jonboulle/clockwork"
)

// TTL tiers
const (
	DefaultSearchTTL    = 6 * time.Hour
	DefaultAggregateTTL = 24 * time.Hour
	// DefaultFetchSize is how many records one query pulls from the provider
	DefaultFetchSize = 1000
)

// Fetcher is the job provider collaborator. It may return fewer records than
// pageSize and returns an error when the provider is unavailable.
type Fetcher interface {
	SearchRecords(ctx context.Context, text, location string, page, pageSize int) ([]domain.RawJobRecord, error)
}

// Config holds the service tuning knobs
type Config struct {
	SearchTTL    time.Duration
	AggregateTTL time.Duration
	// CacheEmptySearch stores search pages and snapshots that came back empty
	CacheEmptySearch bool
	FetchSize        int
}

func (c Config) withDefaults() Config {
	if c.SearchTTL <= 0 {
		c.SearchTTL = DefaultSearchTTL
	}
	if c.AggregateTTL <= 0 {
		c.AggregateTTL = DefaultAggregateTTL
	}
	if c.FetchSize <= 0 {
		c.FetchSize = DefaultFetchSize
	}
	return c
}

// Service answers market queries. Results are memoized per query in the cache.
type Service struct {
	fetcher Fetcher
	cache   *cache.Cache
	stats   *stats.Aggregator
	geo     *geo.Aggregator
	clock   clockwork.Clock
	config  Config
	logger  *slog.Logger
}

// NewService creates a Service. A nil clock uses the real clock.
func NewService(
	fetcher Fetcher,
	c *cache.Cache,
	statsAgg *stats.Aggregator,
	geoAgg *geo.Aggregator,
	clock clockwork.Clock,
	config Config,
	logger *slog.Logger,
) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{
		fetcher: fetcher,
		cache:   c,
		stats:   statsAgg,
		geo:     geoAgg,
		clock:   clock,
		config:  config.withDefaults(),
		logger:  logger,
	}
}

// Search returns one page of the records matching q
func (s *Service) Search(ctx context.Context, q domain.Query) domain.SearchResult {
	q = q.WithDefaults()
	key := cache.QueryKey(cache.NamespaceSearch, q)

	return cached(ctx, s, key, s.config.SearchTTL, func(ctx context.Context) (domain.SearchResult, bool) {
		records, ok := s.fetchFiltered(ctx, q)
		result := domain.SearchResult{
			Jobs:       filter.Page(records, q.Page, q.PageSize),
			TotalCount: len(records),
			Page:       q.Page,
			PageSize:   q.PageSize,
		}
		return result, ok && (len(records) > 0 || s.config.CacheEmptySearch)
	})
}

// Snapshot returns every record for the text and location of q, unfiltered,
// for client-side refinement
func (s *Service) Snapshot(ctx context.Context, q domain.Query) domain.Snapshot {
	base := domain.Query{Text: q.Text, Location: q.Location}
	key := cache.QueryKey(cache.NamespaceSnapshot, base)

	return cached(ctx, s, key, s.config.SearchTTL, func(ctx context.Context) (domain.Snapshot, bool) {
		records, ok := s.fetch(ctx, base)
		return domain.Snapshot{Records: records, FetchedAt: s.clock.Now().UTC()}, ok && (len(records) > 0 || s.config.CacheEmptySearch)
	})
}

// Statistics aggregates every record matching q
func (s *Service) Statistics(ctx context.Context, q domain.Query) domain.StatisticsReport {
	q = aggregateQuery(q)
	key := cache.QueryKey(cache.NamespaceStatistics, q)

	return cached(ctx, s, key, s.config.AggregateTTL, func(ctx context.Context) (domain.StatisticsReport, bool) {
		records, ok := s.fetchFiltered(ctx, q)
		statistics, quality := s.stats.Aggregate(records)
		return domain.StatisticsReport{Statistics: statistics, Quality: quality}, ok
	})
}

// HeatMap bins the records matching q by city
func (s *Service) HeatMap(ctx context.Context, q domain.Query, metric domain.IntensityMetric) domain.HeatMapData {
	if metric != domain.IntensitySalary {
		metric = domain.IntensityJobs
	}
	q = aggregateQuery(q)
	key := heatMapKey(q, metric)

	return cached(ctx, s, key, s.config.AggregateTTL, func(ctx context.Context) (domain.HeatMapData, bool) {
		records, ok := s.fetchFiltered(ctx, q)
		return s.geo.BuildHeatMap(ctx, records, metric), ok
	})
}

// SalaryAnalytics summarizes the salaries of the records matching q
func (s *Service) SalaryAnalytics(ctx context.Context, q domain.Query) domain.SalaryReport {
	q = aggregateQuery(q)
	key := cache.QueryKey(cache.NamespaceSalaries, q)

	return cached(ctx, s, key, s.config.AggregateTTL, func(ctx context.Context) (domain.SalaryReport, bool) {
		records, ok := s.fetchFiltered(ctx, q)
		return domain.SalaryReport{
			Salary:  s.stats.SalaryStatistics(records),
			Quality: s.stats.Quality(records),
		}, ok
	})
}

// Trends returns the day series of the records matching q over the last days
func (s *Service) Trends(ctx context.Context, q domain.Query, days int) domain.TrendData {
	if days <= 0 {
		days = domain.DefaultTrendDays
	}
	q = aggregateQuery(q)
	key := trendsKey(q, days)

	return cached(ctx, s, key, s.config.AggregateTTL, func(ctx context.Context) (domain.TrendData, bool) {
		records, ok := s.fetchFiltered(ctx, q)
		return s.stats.Trends(records, s.clock.Now(), days), ok
	})
}

type refreshEntry struct {
	key   string
	ttl   time.Duration
	value any
}

// Refresh recomputes the cached aggregates and the snapshot of q from one
// provider fetch. When the provider fails nothing is touched and the error
// wraps domain.ErrUpstreamUnavailable.
func (s *Service) Refresh(ctx context.Context, q domain.Query) error {
	q = aggregateQuery(q)
	base := domain.Query{Text: q.Text, Location: q.Location}

	records, ok := s.fetch(ctx, base)
	if !ok {
		return fmt.Errorf("refresh text=%q location=%q: %w", q.Text, q.Location, domain.ErrUpstreamUnavailable)
	}

	matched := s.refine(records, q)
	statistics, quality := s.stats.Aggregate(matched)

	entries := []refreshEntry{
		{cache.QueryKey(cache.NamespaceStatistics, q), s.config.AggregateTTL, domain.StatisticsReport{Statistics: statistics, Quality: quality}},
		{cache.QueryKey(cache.NamespaceSalaries, q), s.config.AggregateTTL, domain.SalaryReport{Salary: s.stats.SalaryStatistics(matched), Quality: quality}},
		{heatMapKey(q, domain.IntensityJobs), s.config.AggregateTTL, s.geo.BuildHeatMap(ctx, matched, domain.IntensityJobs)},
		{heatMapKey(q, domain.IntensitySalary), s.config.AggregateTTL, s.geo.BuildHeatMap(ctx, matched, domain.IntensitySalary)},
		{trendsKey(q, domain.DefaultTrendDays), s.config.AggregateTTL, s.stats.Trends(matched, s.clock.Now(), domain.DefaultTrendDays)},
	}

	snapshotKey := cache.QueryKey(cache.NamespaceSnapshot, base)
	if len(records) > 0 || s.config.CacheEmptySearch {
		entries = append(entries, refreshEntry{snapshotKey, s.config.SearchTTL, domain.Snapshot{Records: records, FetchedAt: s.clock.Now().UTC()}})
	} else if err := s.cache.Remove(ctx, snapshotKey); err != nil {
		return fmt.Errorf("failed to invalidate %s: %w", snapshotKey, err)
	}

	for _, e := range entries {
		if err := cache.Set(ctx, s.cache, e.key, e.value, e.ttl); err != nil {
			return fmt.Errorf("failed to store %s: %w", e.key, err)
		}
	}

	s.logger.Info("Cache refreshed",
		slog.String("text", q.Text),
		slog.String("location", q.Location),
		slog.Int("records", len(records)),
		slog.Int("matched", len(matched)),
	)
	return nil
}

// Invalidate removes a single cache entry
func (s *Service) Invalidate(ctx context.Context, key string) error {
	return s.cache.Remove(ctx, key)
}

// InvalidatePattern removes every entry matching pattern; a no-op on the local backend
func (s *Service) InvalidatePattern(ctx context.Context, pattern string) (int, error) {
	return s.cache.RemoveByPattern(ctx, pattern)
}

// Cleanup sweeps expired cache entries
func (s *Service) Cleanup(ctx context.Context) (int, error) {
	return s.cache.Cleanup(ctx)
}

// cached returns the entry under key or computes and stores it.
// compute reports whether its result may be stored.
func cached[T any](ctx context.Context, s *Service, key string, ttl time.Duration, compute func(context.Context) (T, bool)) T {
	if v, ok := cache.Get[T](ctx, s.cache, key); ok {
		s.logger.Debug("Cache hit", slog.String("key", key))
		return v
	}

	v, store := compute(ctx)
	if !store {
		return v
	}

	if err := cache.Set(ctx, s.cache, key, v, ttl); err != nil {
		s.logger.Warn("Failed to store result", slog.String("key", key), slog.Any("error", err))
	}
	return v
}

// fetch pulls the records for the text and location of q.
// Provider failures degrade to an empty batch; ok is false so the result is not cached.
func (s *Service) fetch(ctx context.Context, q domain.Query) ([]domain.RawJobRecord, bool) {
	start := s.clock.Now()

	records, err := s.fetcher.SearchRecords(ctx, q.Text, q.Location, 1, s.config.FetchSize)
	if err != nil {
		if !errors.Is(err, domain.ErrUpstreamUnavailable) {
			err = fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
		}
		s.logger.Warn("Provider fetch failed, serving empty result",
			slog.String("text", q.Text),
			slog.String("location", q.Location),
			slog.Any("error", err),
		)
		return []domain.RawJobRecord{}, false
	}
	if records == nil {
		records = []domain.RawJobRecord{}
	}

	s.logger.Debug("Fetched records",
		slog.Int("count", len(records)),
		slog.Duration("duration", s.clock.Since(start)),
	)
	return records, true
}

func (s *Service) fetchFiltered(ctx context.Context, q domain.Query) ([]domain.RawJobRecord, bool) {
	records, ok := s.fetch(ctx, q)
	return s.refine(records, q), ok
}

// refine applies the categorical and salary filters of q
func (s *Service) refine(records []domain.RawJobRecord, q domain.Query) []domain.RawJobRecord {
	preds := filter.FromQuery(q).Refinements().Predicates(s.stats.Normalizer())
	if len(preds) == 0 {
		return records
	}
	return filter.Apply(records, preds...)
}

// aggregateQuery drops pagination, which does not affect aggregates
func aggregateQuery(q domain.Query) domain.Query {
	q.Page = 0
	q.PageSize = 0
	return q.WithDefaults()
}

func heatMapKey(q domain.Query, metric domain.IntensityMetric) string {
	params := cache.QueryParams(q)
	params.Set("metric", string(metric))
	return cache.Key(cache.NamespaceHeatMap, params)
}

func trendsKey(q domain.Query, days int) string {
	params := cache.QueryParams(q)
	params.Set("days", strconv.Itoa(days))
	return cache.Key(cache.NamespaceTrends, params)
}
