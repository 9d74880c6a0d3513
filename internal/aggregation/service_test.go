package aggregation

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/AnassEREKYSY/MarketPulse/internal/cache"
	"github.com/AnassEREKYSY/MarketPulse/internal/domain"
	"github.com/AnassEREKYSY/MarketPulse/internal/geo"
	"github.com/AnassEREKYSY/MarketPulse/internal/stats"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	mu       sync.Mutex
	records  []domain.RawJobRecord
	err      error
	calls    int
	lastText string
	lastLoc  string
}

func (f *stubFetcher) SearchRecords(_ context.Context, text, location string, _, _ int) ([]domain.RawJobRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastText = text
	f.lastLoc = location
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

func (f *stubFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func sampleRecords() []domain.RawJobRecord {
	paris := domain.Coordinates{Latitude: 48.85, Longitude: 2.35}
	return []domain.RawJobRecord{
		{
			ID: "1", Title: "Go Engineer", Company: "Acme",
			Location:       domain.Location{City: "Paris", Country: "France", Coordinates: domain.Some(paris)},
			EmploymentType: "CDI", WorkMode: "Remote", ExperienceLevel: "Senior",
			Salary: domain.SalaryObservation{Min: domain.Some(40000.0), Max: domain.Some(60000.0), Currency: "EUR", Period: "year"},
		},
		{
			ID: "2", Title: "Go Developer", Company: "Globex",
			Location:       domain.Location{City: "Paris", Country: "France", Coordinates: domain.Some(paris)},
			EmploymentType: "CDD", WorkMode: "Hybrid", ExperienceLevel: "Junior",
			Salary: domain.SalaryObservation{Average: domain.Some(55000.0), Currency: "EUR", Period: "year"},
		},
		{
			ID: "3", Title: "Backend Engineer", Company: "Initech",
			Location:       domain.Location{City: "Lyon", Country: "France", Coordinates: domain.Some(domain.Coordinates{Latitude: 45.76, Longitude: 4.83})},
			EmploymentType: "CDI", WorkMode: "Remote", ExperienceLevel: "Mid",
		},
	}
}

func newService(t *testing.T, fetcher Fetcher, config Config) (*Service, *clockwork.FakeClock) {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	c := cache.New(cache.NewLocalBackend(clock), logger)
	statsAgg := stats.NewAggregator(nil)
	geoAgg := geo.NewAggregator(statsAgg.Normalizer(), nil, 0, logger)
	return NewService(fetcher, c, statsAgg, geoAgg, clock, config, logger), clock
}

func TestService_StatisticsCached(t *testing.T) {
	ctx := context.Background()
	fetcher := &stubFetcher{records: sampleRecords()}
	svc, clock := newService(t, fetcher, Config{})

	q := domain.Query{Text: "go", Location: "France"}
	first := svc.Statistics(ctx, q)

	assert.Equal(t, 3, first.Statistics.TotalJobs)
	assert.Equal(t, int64(52500), first.Statistics.Salary.Median.OrElse(0))
	assert.Equal(t, "go", fetcher.lastText)
	assert.Equal(t, "France", fetcher.lastLoc)

	// pagination does not affect aggregates
	second := svc.Statistics(ctx, domain.Query{Text: "go", Location: "France", Page: 4, PageSize: 50})
	assert.Equal(t, first, second)
	assert.Equal(t, 1, fetcher.Calls())

	clock.Advance(DefaultAggregateTTL + time.Second)
	svc.Statistics(ctx, q)
	assert.Equal(t, 2, fetcher.Calls())
}

func TestService_StatisticsFiltered(t *testing.T) {
	fetcher := &stubFetcher{records: sampleRecords()}
	svc, _ := newService(t, fetcher, Config{})

	got := svc.Statistics(context.Background(), domain.Query{WorkMode: "remote"})

	assert.Equal(t, 2, got.Statistics.TotalJobs)
	assert.Equal(t, []domain.Bucket{{Key: "CDI", Count: 2}}, got.Statistics.ByEmploymentType)
}

func TestService_EmptyAggregatesAlwaysCached(t *testing.T) {
	ctx := context.Background()
	fetcher := &stubFetcher{records: []domain.RawJobRecord{}}
	svc, _ := newService(t, fetcher, Config{})

	got := svc.Statistics(ctx, domain.Query{Text: "cobol"})
	assert.Equal(t, 0, got.Statistics.TotalJobs)
	assert.True(t, got.Quality.InsufficientSalarySignal)
	assert.True(t, got.Quality.LimitedSampleSignal)

	svc.Statistics(ctx, domain.Query{Text: "cobol"})
	svc.HeatMap(ctx, domain.Query{Text: "cobol"}, domain.IntensityJobs)
	svc.HeatMap(ctx, domain.Query{Text: "cobol"}, "")
	assert.Equal(t, 2, fetcher.Calls())
}

func TestService_EmptySearchCachedOnlyWhenConfigured(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		cacheIt   bool
		wantCalls int
	}{
		{name: "not cached by default", cacheIt: false, wantCalls: 2},
		{name: "cached when configured", cacheIt: true, wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := &stubFetcher{}
			svc, _ := newService(t, fetcher, Config{CacheEmptySearch: tt.cacheIt})

			got := svc.Search(ctx, domain.Query{Text: "cobol"})
			assert.NotNil(t, got.Jobs)
			assert.Equal(t, 0, got.TotalCount)

			svc.Search(ctx, domain.Query{Text: "cobol"})
			assert.Equal(t, tt.wantCalls, fetcher.Calls())
		})
	}
}

func TestService_SearchPaginates(t *testing.T) {
	ctx := context.Background()
	fetcher := &stubFetcher{records: sampleRecords()}
	svc, clock := newService(t, fetcher, Config{})

	got := svc.Search(ctx, domain.Query{Page: 2, PageSize: 2})
	assert.Equal(t, 3, got.TotalCount)
	assert.Equal(t, 2, got.Page)
	require.Len(t, got.Jobs, 1)
	assert.Equal(t, "3", got.Jobs[0].ID)

	svc.Search(ctx, domain.Query{Page: 1, PageSize: 2})
	assert.Equal(t, 2, fetcher.Calls(), "pages are cached separately")

	clock.Advance(DefaultSearchTTL - time.Minute)
	svc.Search(ctx, domain.Query{Page: 2, PageSize: 2})
	assert.Equal(t, 2, fetcher.Calls())

	clock.Advance(2 * time.Minute)
	svc.Search(ctx, domain.Query{Page: 2, PageSize: 2})
	assert.Equal(t, 3, fetcher.Calls())
}

func TestService_UpstreamFailureDegrades(t *testing.T) {
	ctx := context.Background()
	fetcher := &stubFetcher{err: errors.New("connection reset")}
	svc, _ := newService(t, fetcher, Config{CacheEmptySearch: true})

	got := svc.Statistics(ctx, domain.Query{Text: "go"})
	assert.Equal(t, stats.EmptyStatistics(), got.Statistics)
	assert.Equal(t, stats.EmptyQuality(), got.Quality)

	search := svc.Search(ctx, domain.Query{Text: "go"})
	assert.Empty(t, search.Jobs)

	svc.Statistics(ctx, domain.Query{Text: "go"})
	svc.Search(ctx, domain.Query{Text: "go"})
	assert.Equal(t, 4, fetcher.Calls(), "failed fetches are never cached")
}

func TestService_HeatMapAndSalaries(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, &stubFetcher{records: sampleRecords()}, Config{})

	heat := svc.HeatMap(ctx, domain.Query{}, domain.IntensityJobs)
	require.Len(t, heat.Points, 2)
	assert.Equal(t, 100, heat.Points[0].Intensity)
	assert.Equal(t, 50, heat.Points[1].Intensity)

	salaries := svc.SalaryAnalytics(ctx, domain.Query{})
	assert.Equal(t, int64(52500), salaries.Salary.Average.OrElse(0))
	assert.Equal(t, []domain.SalaryBucket{{Key: "Paris, France", Average: 52500, Count: 2}}, salaries.Salary.ByLocation)
	assert.Equal(t, 66.67, salaries.Quality.SalaryCoveragePercent)
}

func TestService_Trends(t *testing.T) {
	ctx := context.Background()
	records := sampleRecords()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	records[0].PublishedAt = domain.Some(now.AddDate(0, 0, -2))
	records[1].PublishedAt = domain.Some(now.AddDate(0, 0, -40))

	svc, _ := newService(t, &stubFetcher{records: records}, Config{})

	got := svc.Trends(ctx, domain.Query{}, 0)
	assert.Equal(t, domain.DefaultTrendDays, got.Days)
	assert.Equal(t, []domain.TrendPoint{{Date: "2026-03-08", Value: 1, Count: 1}}, got.HiringTrends)

	wide := svc.Trends(ctx, domain.Query{}, 60)
	assert.Len(t, wide.HiringTrends, 2)
}

func TestService_SnapshotAndRefresh(t *testing.T) {
	ctx := context.Background()
	fetcher := &stubFetcher{records: sampleRecords()}
	svc, _ := newService(t, fetcher, Config{})

	snap := svc.Snapshot(ctx, domain.Query{Text: "go", WorkMode: "Remote"})
	assert.Len(t, snap.Records, 3, "snapshot ignores refinements")
	assert.Equal(t, time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC), snap.FetchedAt)

	svc.Statistics(ctx, domain.Query{Text: "go"})
	calls := fetcher.Calls()

	require.NoError(t, svc.Refresh(ctx, domain.Query{Text: "go"}))
	assert.Equal(t, calls+1, fetcher.Calls(), "one fetch feeds every aggregate")

	svc.Statistics(ctx, domain.Query{Text: "go"})
	svc.SalaryAnalytics(ctx, domain.Query{Text: "go"})
	svc.HeatMap(ctx, domain.Query{Text: "go"}, domain.IntensitySalary)
	svc.Trends(ctx, domain.Query{Text: "go"}, 0)
	svc.Snapshot(ctx, domain.Query{Text: "go"})
	assert.Equal(t, calls+1, fetcher.Calls(), "refresh repopulates the cache")
}

func TestService_RefreshUpstreamDown(t *testing.T) {
	ctx := context.Background()
	fetcher := &stubFetcher{records: sampleRecords()}
	svc, _ := newService(t, fetcher, Config{})

	svc.Statistics(ctx, domain.Query{Text: "go"})
	before := svc.Statistics(ctx, domain.Query{Text: "go"})

	fetcher.mu.Lock()
	fetcher.err = errors.New("timeout")
	fetcher.mu.Unlock()

	err := svc.Refresh(ctx, domain.Query{Text: "go"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)

	calls := fetcher.Calls()
	assert.Equal(t, before, svc.Statistics(ctx, domain.Query{Text: "go"}), "cached aggregates survive a failed refresh")
	assert.Equal(t, calls, fetcher.Calls())
}

func TestService_Invalidate(t *testing.T) {
	ctx := context.Background()
	fetcher := &stubFetcher{records: sampleRecords()}
	svc, _ := newService(t, fetcher, Config{})

	q := domain.Query{Text: "go"}
	svc.Statistics(ctx, q)
	require.NoError(t, svc.Invalidate(ctx, cache.QueryKey(cache.NamespaceStatistics, aggregateQuery(q))))
	svc.Statistics(ctx, q)
	assert.Equal(t, 2, fetcher.Calls())

	n, err := svc.InvalidatePattern(ctx, "jobs:*")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
