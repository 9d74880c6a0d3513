// Package stats aggregates job records into distributions, salary summaries and rankings.
package stats

import (
	"sort"
	"strings"

	"github.com/AnassEREKYSY/MarketPulse/internal/domain"
	"github.com/AnassEREKYSY/MarketPulse/internal/salary"
	"github.com/shopspring/decimal"
)

const (
	// TopN is the length of the company and location rankings
	TopN = 10
	// MinBreakdownSamples is the smallest group that may appear in a salary breakdown
	MinBreakdownSamples = 2
	// InsufficientSalaryThreshold flags batches with fewer salaried records
	InsufficientSalaryThreshold = 3
	// LimitedSampleThreshold flags batches with fewer records
	LimitedSampleThreshold = 20
)

// Aggregator computes JobStatistics from a batch of records.
// It holds no mutable state; the same input always yields the same output.
type Aggregator struct {
	normalizer *salary.Normalizer
}

// NewAggregator creates an Aggregator using the given normalizer
func NewAggregator(normalizer *salary.Normalizer) *Aggregator {
	if normalizer == nil {
		normalizer = salary.NewNormalizer(nil)
	}
	return &Aggregator{normalizer: normalizer}
}

// Normalizer returns the salary normalizer used by the aggregator
func (a *Aggregator) Normalizer() *salary.Normalizer {
	return a.normalizer
}

// Sample is a record paired with its normalized yearly salary
type Sample struct {
	Record *domain.RawJobRecord
	Yearly int64
}

// Samples normalizes every record and keeps those with usable salary data, in input order
func (a *Aggregator) Samples(records []domain.RawJobRecord) []Sample {
	samples := make([]Sample, 0, len(records))
	for i := range records {
		s, ok := a.normalizer.Normalize(records[i].Salary)
		if !ok {
			continue
		}
		samples = append(samples, Sample{Record: &records[i], Yearly: s.Yearly()})
	}
	return samples
}

// Aggregate computes statistics and data-quality metrics for records
func (a *Aggregator) Aggregate(records []domain.RawJobRecord) (domain.JobStatistics, domain.DataQualityMetrics) {
	if len(records) == 0 {
		return EmptyStatistics(), EmptyQuality()
	}

	samples := a.Samples(records)

	stats := domain.JobStatistics{
		TotalJobs:        len(records),
		ByEmploymentType: distribution(records, func(r *domain.RawJobRecord) string { return r.EmploymentType }),
		ByWorkMode:       distribution(records, func(r *domain.RawJobRecord) string { return r.WorkMode }),
		ByExperience:     distribution(records, func(r *domain.RawJobRecord) string { return r.ExperienceLevel }),
		TopCompanies:     topCompanies(records, TopN),
		TopLocations:     topLocations(records, TopN),
		Salary:           summarize(samples),
	}

	return stats, quality(records, len(samples))
}

// SalaryStatistics computes only the salary block for records
func (a *Aggregator) SalaryStatistics(records []domain.RawJobRecord) domain.SalaryStatistics {
	if len(records) == 0 {
		return emptySalaryStatistics()
	}
	return summarize(a.Samples(records))
}

// Quality computes the data-quality metrics for records
func (a *Aggregator) Quality(records []domain.RawJobRecord) domain.DataQualityMetrics {
	if len(records) == 0 {
		return EmptyQuality()
	}
	return quality(records, len(a.Samples(records)))
}

// EmptyStatistics is the result for a batch without records
func EmptyStatistics() domain.JobStatistics {
	return domain.JobStatistics{
		TotalJobs:        0,
		ByEmploymentType: []domain.Bucket{},
		ByWorkMode:       []domain.Bucket{},
		ByExperience:     []domain.Bucket{},
		TopCompanies:     []domain.Bucket{},
		TopLocations:     []domain.Bucket{},
		Salary:           emptySalaryStatistics(),
	}
}

// EmptyQuality is the quality of a batch without records; both caveats are raised
func EmptyQuality() domain.DataQualityMetrics {
	return domain.DataQualityMetrics{
		InsufficientSalarySignal: true,
		LimitedSampleSignal:      true,
	}
}

func emptySalaryStatistics() domain.SalaryStatistics {
	return domain.SalaryStatistics{
		ByExperience: []domain.SalaryBucket{},
		ByLocation:   []domain.SalaryBucket{},
	}
}

func quality(records []domain.RawJobRecord, withSalary int) domain.DataQualityMetrics {
	total := len(records)

	cities := make(map[string]struct{})
	for i := range records {
		city := strings.ToLower(strings.TrimSpace(records[i].Location.City))
		if city != "" {
			cities[city] = struct{}{}
		}
	}

	coverage := decimal.NewFromInt(int64(withSalary) * 100).
		Div(decimal.NewFromInt(int64(total))).
		Round(2).
		InexactFloat64()

	return domain.DataQualityMetrics{
		TotalRecords:             total,
		RecordsWithSalary:        withSalary,
		SalaryCoveragePercent:    coverage,
		InsufficientSalarySignal: withSalary < InsufficientSalaryThreshold,
		LimitedSampleSignal:      total < LimitedSampleThreshold,
		UniqueLocationCount:      len(cities),
	}
}

func summarize(samples []Sample) domain.SalaryStatistics {
	out := emptySalaryStatistics()
	if len(samples) == 0 {
		return out
	}

	values := make([]int64, len(samples))
	for i, s := range samples {
		values[i] = s.Yearly
	}
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })

	out.Average = domain.Some(Mean(values))
	out.Median = domain.Some(Median(values))
	out.Min = domain.Some(values[0])
	out.Max = domain.Some(values[len(values)-1])

	byExperience := newGroups()
	byLocation := newGroups()
	for _, s := range samples {
		byExperience.add(domain.CategoryValue(s.Record.ExperienceLevel), s.Yearly)
		if key, ok := s.Record.Location.Key(); ok {
			byLocation.add(key, s.Yearly)
		}
	}
	out.ByExperience = byExperience.breakdown(MinBreakdownSamples)
	out.ByLocation = byLocation.breakdown(MinBreakdownSamples)

	return out
}

// Mean returns the rounded arithmetic mean of values. values must not be empty.
func Mean(values []int64) int64 {
	var sum int64
	for _, v := range values {
		sum += v
	}
	return decimal.NewFromInt(sum).Div(decimal.NewFromInt(int64(len(values)))).Round(0).IntPart()
}

// Median returns the rounded median of values sorted ascending. values must not be empty.
func Median(sorted []int64) int64 {
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return decimal.NewFromInt(sorted[mid-1] + sorted[mid]).Div(decimal.NewFromInt(2)).Round(0).IntPart()
}
