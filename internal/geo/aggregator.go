// Package geo bins job records by city into heat map points.
package geo

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/AnassEREKYSY/MarketPulse/internal/domain"
	"github.com/AnassEREKYSY/MarketPulse/internal/salary"
	"github.com/AnassEREKYSY/MarketPulse/internal/stats"
)

const (
	// DefaultLookupCeiling bounds how long a batch waits for geocoding
	DefaultLookupCeiling = time.Second
	// MaxIntensity is the intensity of the batch maximum
	MaxIntensity = 100
)

// Aggregator builds heat maps. A nil resolver disables geocoding, so only
// records that carry coordinates produce points.
type Aggregator struct {
	normalizer *salary.Normalizer
	resolver   Resolver
	ceiling    time.Duration
	logger     *slog.Logger
}

// NewAggregator creates an Aggregator; ceiling <= 0 uses DefaultLookupCeiling
func NewAggregator(normalizer *salary.Normalizer, resolver Resolver, ceiling time.Duration, logger *slog.Logger) *Aggregator {
	if normalizer == nil {
		normalizer = salary.NewNormalizer(nil)
	}
	if ceiling <= 0 {
		ceiling = DefaultLookupCeiling
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Aggregator{
		normalizer: normalizer,
		resolver:   resolver,
		ceiling:    ceiling,
		logger:     logger,
	}
}

type group struct {
	key      string
	city     string
	country  string
	count    int
	salaries []int64
	coords   domain.Optional[domain.Coordinates]
}

func (g *group) averageSalary() domain.Optional[int64] {
	if len(g.salaries) == 0 {
		return domain.None[int64]()
	}
	return domain.Some(stats.Mean(g.salaries))
}

// BuildHeatMap groups records by (city, country), resolves missing coordinates and
// scores each point against the batch maximum of metric.
func (a *Aggregator) BuildHeatMap(ctx context.Context, records []domain.RawJobRecord, metric domain.IntensityMetric) domain.HeatMapData {
	if metric != domain.IntensitySalary {
		metric = domain.IntensityJobs
	}

	groups := a.groupRecords(records)
	a.resolveMissing(ctx, groups)

	out := domain.HeatMapData{
		Metric:                  metric,
		Points:                  []domain.HeatMapPoint{},
		JobCountByLocation:      make(map[string]int, len(groups)),
		AverageSalaryByLocation: make(map[string]int64),
	}

	var batchMax int64
	for _, g := range groups {
		out.JobCountByLocation[g.key] = g.count
		if avg, ok := g.averageSalary().Get(); ok {
			out.AverageSalaryByLocation[g.key] = avg
		}
		batchMax = max(batchMax, metricValue(g, metric))
	}

	for _, g := range groups {
		coords, ok := g.coords.Get()
		if !ok {
			continue
		}
		out.Points = append(out.Points, domain.HeatMapPoint{
			Latitude:      coords.Latitude,
			Longitude:     coords.Longitude,
			City:          g.city,
			Country:       g.country,
			JobCount:      g.count,
			AverageSalary: g.averageSalary(),
			Intensity:     Intensity(metricValue(g, metric), batchMax),
		})
	}

	return out
}

// ResolveCoordinates looks up one place within the lookup ceiling
func (a *Aggregator) ResolveCoordinates(ctx context.Context, city, country string) (domain.Coordinates, bool) {
	g := &group{city: strings.TrimSpace(city), country: strings.TrimSpace(country)}
	a.resolveMissing(ctx, []*group{g})
	return g.coords.Get()
}

// Intensity scales value against batchMax to [0, MaxIntensity], truncating.
// A batch maximum below 1 is clamped to 1.
func Intensity(value, batchMax int64) int {
	if batchMax < 1 {
		batchMax = 1
	}
	if value <= 0 {
		return 0
	}
	n := value * MaxIntensity / batchMax
	return int(min(n, MaxIntensity))
}

func metricValue(g *group, metric domain.IntensityMetric) int64 {
	if metric == domain.IntensitySalary {
		return g.averageSalary().OrElse(0)
	}
	return int64(g.count)
}

// groupRecords buckets records by trimmed city and country in encounter order.
// Records without a city are left out. The first coordinates seen win.
func (a *Aggregator) groupRecords(records []domain.RawJobRecord) []*group {
	var ordered []*group
	byKey := make(map[string]*group)

	for i := range records {
		loc := records[i].Location
		key, ok := loc.Key()
		if !ok {
			continue
		}

		g, seen := byKey[key]
		if !seen {
			g = &group{
				key:     key,
				city:    strings.TrimSpace(loc.City),
				country: strings.TrimSpace(loc.Country),
			}
			byKey[key] = g
			ordered = append(ordered, g)
		}

		g.count++
		if !g.coords.Present() && loc.Coordinates.Present() {
			g.coords = loc.Coordinates
		}
		if s, ok := a.normalizer.Normalize(records[i].Salary); ok {
			g.salaries = append(g.salaries, s.Yearly())
		}
	}

	return ordered
}

type resolved struct {
	idx    int
	coords domain.Coordinates
}

// resolveMissing geocodes groups without coordinates concurrently and waits at
// most the lookup ceiling. Lookups still pending are abandoned; they keep running
// detached from ctx so their results can still land in the geocode cache.
func (a *Aggregator) resolveMissing(ctx context.Context, groups []*group) {
	if a.resolver == nil {
		return
	}

	var pending []int
	for i, g := range groups {
		if !g.coords.Present() {
			pending = append(pending, i)
		}
	}
	if len(pending) == 0 {
		return
	}

	results := make(chan resolved, len(pending))
	lookupCtx := context.WithoutCancel(ctx)

	for _, idx := range pending {
		go func(idx int, city, country string) {
			coords, ok := a.resolver.Resolve(lookupCtx, city, country)
			if ok {
				results <- resolved{idx: idx, coords: coords}
				return
			}
			results <- resolved{idx: -1}
		}(idx, groups[idx].city, groups[idx].country)
	}

	timer := time.NewTimer(a.ceiling)
	defer timer.Stop()

	for received := 0; received < len(pending); received++ {
		select {
		case r := <-results:
			if r.idx >= 0 {
				groups[r.idx].coords = domain.Some(r.coords)
			}
		case <-timer.C:
			a.logger.Debug("Geocode ceiling reached",
				slog.Int("pending", len(pending)-received),
				slog.Duration("ceiling", a.ceiling),
			)
			return
		case <-ctx.Done():
			return
		}
	}
}
