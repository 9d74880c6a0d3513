// Package recompute refines an already fetched snapshot locally, without
// touching the provider or the cache.
package recompute

import (
	"context"

	"github.com/AnassEREKYSY/MarketPulse/internal/domain"
	"github.com/AnassEREKYSY/MarketPulse/internal/filter"
	"github.com/AnassEREKYSY/MarketPulse/internal/geo"
	"github.com/AnassEREKYSY/MarketPulse/internal/salary"
	"github.com/AnassEREKYSY/MarketPulse/internal/stats"
)

// View is one refinement of the snapshot: a page of records plus the aggregates
// of every record that passed the filters
type View struct {
	Jobs       []domain.RawJobRecord     `json:"jobs"`
	TotalCount int                       `json:"totalCount"`
	PageIndex  int                       `json:"pageIndex"`
	PageSize   int                       `json:"pageSize"`
	Statistics domain.JobStatistics      `json:"statistics"`
	Quality    domain.DataQualityMetrics `json:"quality"`
	HeatMap    domain.HeatMapData        `json:"heatMap"`
}

// Engine holds an immutable record snapshot
type Engine struct {
	records    []domain.RawJobRecord
	normalizer *salary.Normalizer
	stats      *stats.Aggregator
	geo        *geo.Aggregator
}

// NewEngine creates an Engine over records. The heat map uses only coordinates
// already present on the records.
func NewEngine(records []domain.RawJobRecord, normalizer *salary.Normalizer) *Engine {
	if normalizer == nil {
		normalizer = salary.NewNormalizer(nil)
	}
	snapshot := make([]domain.RawJobRecord, len(records))
	copy(snapshot, records)

	return &Engine{
		records:    snapshot,
		normalizer: normalizer,
		stats:      stats.NewAggregator(normalizer),
		geo:        geo.NewAggregator(normalizer, nil, 0, nil),
	}
}

// Len returns the snapshot size
func (e *Engine) Len() int {
	return len(e.records)
}

// Filter returns the snapshot records matching c, in snapshot order
func (e *Engine) Filter(c filter.Criteria) []domain.RawJobRecord {
	return filter.Apply(e.records, c.Predicates(e.normalizer)...)
}

// Aggregate computes statistics over records
func (e *Engine) Aggregate(records []domain.RawJobRecord) (domain.JobStatistics, domain.DataQualityMetrics) {
	return e.stats.Aggregate(records)
}

// Page returns records[pageIndex*pageSize : +pageSize]. pageIndex is 0-based.
func (e *Engine) Page(records []domain.RawJobRecord, pageIndex, pageSize int) []domain.RawJobRecord {
	return filter.PageAt(records, max(pageIndex, 0), pageSize)
}

// Refine filters the snapshot and returns the requested page with its aggregates
func (e *Engine) Refine(c filter.Criteria, pageIndex, pageSize int, metric domain.IntensityMetric) View {
	matched := e.Filter(c)
	statistics, quality := e.Aggregate(matched)
	size := domain.Query{PageSize: pageSize}.WithDefaults().PageSize

	return View{
		Jobs:       e.Page(matched, pageIndex, size),
		TotalCount: len(matched),
		PageIndex:  max(pageIndex, 0),
		PageSize:   size,
		Statistics: statistics,
		Quality:    quality,
		HeatMap:    e.geo.BuildHeatMap(context.Background(), matched, metric),
	}
}

// Salaries summarizes the salaries of the records matching c
func (e *Engine) Salaries(c filter.Criteria) domain.SalaryReport {
	matched := e.Filter(c)
	return domain.SalaryReport{
		Salary:  e.stats.SalaryStatistics(matched),
		Quality: e.stats.Quality(matched),
	}
}
