package geo

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/AnassEREKYSY/MarketPulse/internal/cache"
	"github.com/AnassEREKYSY/MarketPulse/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubResolver struct {
	coords map[string]domain.Coordinates
	block  chan struct{}
}

func (s *stubResolver) Resolve(ctx context.Context, city, country string) (domain.Coordinates, bool) {
	c, ok := s.coords[city]
	if !ok {
		<-s.block
		return domain.Coordinates{}, false
	}
	return c, true
}

func at(city, country string) domain.RawJobRecord {
	return domain.RawJobRecord{Location: domain.Location{City: city, Country: country}}
}

func TestIntensity(t *testing.T) {
	tests := []struct {
		value, max int64
		want       int
	}{
		{value: 10, max: 20, want: 50},
		{value: 20, max: 20, want: 100},
		{value: 1, max: 3, want: 33},
		{value: 0, max: 0, want: 0},
		{value: 5, max: 0, want: 100},
		{value: 0, max: 10, want: 0},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d of %d", tt.value, tt.max), func(t *testing.T) {
			assert.Equal(t, tt.want, Intensity(tt.value, tt.max))
		})
	}
}

func TestBuildHeatMap_JobIntensity(t *testing.T) {
	var records []domain.RawJobRecord
	for i := 0; i < 20; i++ {
		records = append(records, at("Paris", "France"))
	}
	for i := 0; i < 10; i++ {
		records = append(records, at("Lyon", "France"))
	}
	records = append(records, domain.RawJobRecord{Location: domain.Location{Country: "France"}})

	resolver := &stubResolver{coords: map[string]domain.Coordinates{
		"Paris": {Latitude: 48.85, Longitude: 2.35},
		"Lyon":  {Latitude: 45.76, Longitude: 4.83},
	}}
	agg := NewAggregator(nil, resolver, time.Second, nil)

	got := agg.BuildHeatMap(context.Background(), records, domain.IntensityJobs)

	require.Len(t, got.Points, 2)
	assert.Equal(t, "Paris", got.Points[0].City)
	assert.Equal(t, 100, got.Points[0].Intensity)
	assert.Equal(t, "Lyon", got.Points[1].City)
	assert.Equal(t, 50, got.Points[1].Intensity)
	assert.Equal(t, 45.76, got.Points[1].Latitude)
	assert.Equal(t, map[string]int{"Paris, France": 20, "Lyon, France": 10}, got.JobCountByLocation)
	assert.Empty(t, got.AverageSalaryByLocation)
}

func TestBuildHeatMap_SalaryIntensity(t *testing.T) {
	withSalary := func(city string, avg float64) domain.RawJobRecord {
		r := at(city, "France")
		r.Location.Coordinates = domain.Some(domain.Coordinates{Latitude: 1, Longitude: 1})
		if avg > 0 {
			r.Salary = domain.SalaryObservation{Average: domain.Some(avg), Currency: "EUR", Period: "year"}
		}
		return r
	}

	records := []domain.RawJobRecord{
		withSalary("Paris", 60000),
		withSalary("Paris", 80000),
		withSalary("Lyon", 35000),
		withSalary("Lille", 0),
	}

	got := NewAggregator(nil, nil, 0, nil).BuildHeatMap(context.Background(), records, domain.IntensitySalary)

	require.Len(t, got.Points, 3)
	assert.Equal(t, domain.IntensitySalary, got.Metric)
	assert.Equal(t, int64(70000), got.Points[0].AverageSalary.OrElse(0))
	assert.Equal(t, 100, got.Points[0].Intensity)
	assert.Equal(t, 50, got.Points[1].Intensity)
	assert.False(t, got.Points[2].AverageSalary.Present())
	assert.Equal(t, 0, got.Points[2].Intensity)
	assert.Equal(t, map[string]int64{"Paris, France": 70000, "Lyon, France": 35000}, got.AverageSalaryByLocation)
}

func TestBuildHeatMap_UnresolvedLocationDropped(t *testing.T) {
	resolver := &stubResolver{
		coords: map[string]domain.Coordinates{
			"Paris":    {Latitude: 48.85, Longitude: 2.35},
			"Lyon":     {Latitude: 45.76, Longitude: 4.83},
			"Nantes":   {Latitude: 47.21, Longitude: -1.55},
			"Bordeaux": {Latitude: 44.83, Longitude: -0.57},
		},
		block: make(chan struct{}),
	}
	t.Cleanup(func() { close(resolver.block) })

	records := []domain.RawJobRecord{
		at("Paris", "France"), at("Lyon", "France"), at("Nowhere", "France"),
		at("Nantes", "France"), at("Bordeaux", "France"),
	}
	agg := NewAggregator(nil, resolver, 50*time.Millisecond, nil)

	start := time.Now()
	got := agg.BuildHeatMap(context.Background(), records, domain.IntensityJobs)

	assert.Less(t, time.Since(start), time.Second)
	assert.Len(t, got.Points, 4)
	assert.Len(t, got.JobCountByLocation, 5)
	assert.Contains(t, got.JobCountByLocation, "Nowhere, France")
	for _, p := range got.Points {
		assert.NotEqual(t, "Nowhere", p.City)
	}
}

func TestBuildHeatMap_RecordCoordinatesSkipLookup(t *testing.T) {
	r := at("Paris", "France")
	r.Location.Coordinates = domain.Some(domain.Coordinates{Latitude: 48.85, Longitude: 2.35})

	// the resolver would block forever if it were called
	resolver := &stubResolver{coords: map[string]domain.Coordinates{}, block: make(chan struct{})}
	t.Cleanup(func() { close(resolver.block) })

	got := NewAggregator(nil, resolver, 10*time.Millisecond, nil).BuildHeatMap(context.Background(), []domain.RawJobRecord{r, at("Paris", "France")}, "")

	require.Len(t, got.Points, 1)
	assert.Equal(t, 2, got.Points[0].JobCount)
	assert.Equal(t, domain.IntensityJobs, got.Metric)
}

func TestBuildHeatMap_Empty(t *testing.T) {
	got := NewAggregator(nil, nil, 0, nil).BuildHeatMap(context.Background(), nil, domain.IntensityJobs)

	assert.NotNil(t, got.Points)
	assert.Empty(t, got.Points)
	assert.Empty(t, got.JobCountByLocation)
}

type countingGeocoder struct {
	calls atomic.Int32
	delay time.Duration
}

func (g *countingGeocoder) Geocode(ctx context.Context, city, country string) (domain.Coordinates, error) {
	g.calls.Add(1)
	time.Sleep(g.delay)
	if city == "Atlantis" {
		return domain.Coordinates{}, domain.ErrGeocodeUnavailable
	}
	return domain.Coordinates{Latitude: 48.85, Longitude: 2.35}, nil
}

func TestCachedResolver(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.DiscardHandler)
	c := cache.New(cache.NewLocalBackend(nil), logger)
	geocoder := &countingGeocoder{delay: 20 * time.Millisecond}
	r := NewCachedResolver(geocoder, c, 0, logger)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			coords, ok := r.Resolve(ctx, "Paris", "France")
			assert.True(t, ok)
			assert.Equal(t, 48.85, coords.Latitude)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), geocoder.calls.Load())

	cached, ok := cache.Get[domain.Coordinates](ctx, c, cache.GeocodeKey("Paris", "France"))
	require.True(t, ok)
	assert.Equal(t, 2.35, cached.Longitude)

	_, ok = r.Resolve(ctx, "Paris", "France")
	assert.True(t, ok)
	assert.Equal(t, int32(1), geocoder.calls.Load())

	_, ok = r.Resolve(ctx, "Atlantis", "")
	assert.False(t, ok)
	_, ok = cache.Get[domain.Coordinates](ctx, c, cache.GeocodeKey("Atlantis", ""))
	assert.False(t, ok)
}
