package stats

import (
	"sort"
	"strings"
	"time"

	"github.com/AnassEREKYSY/MarketPulse/internal/domain"
)

const dayLayout = "2006-01-02"

// Trends buckets the records published within the last days before now by UTC day.
// Records without a publication date are ignored.
func (a *Aggregator) Trends(records []domain.RawJobRecord, now time.Time, days int) domain.TrendData {
	if days <= 0 {
		days = domain.DefaultTrendDays
	}

	out := domain.TrendData{
		Days:             days,
		HiringTrends:     []domain.TrendPoint{},
		SalaryTrends:     []domain.TrendPoint{},
		TrendsByCategory: []domain.CategoryTrend{},
	}

	from := now.UTC().AddDate(0, 0, -days)

	hiring := make(map[string]int)
	salaries := make(map[string][]int64)
	categories := newCounter()
	byCategory := make(map[string]map[string]int)

	for i := range records {
		published, ok := records[i].PublishedAt.Get()
		if !ok || published.IsZero() || published.UTC().Before(from) {
			continue
		}
		day := published.UTC().Format(dayLayout)
		hiring[day]++

		if s, ok := a.normalizer.Normalize(records[i].Salary); ok {
			salaries[day] = append(salaries[day], s.Yearly())
		}

		if et := strings.TrimSpace(records[i].EmploymentType); et != "" {
			categories.add(et)
			if byCategory[et] == nil {
				byCategory[et] = make(map[string]int)
			}
			byCategory[et][day]++
		}
	}

	for _, day := range sortedDays(hiring) {
		out.HiringTrends = append(out.HiringTrends, domain.TrendPoint{Date: day, Value: int64(hiring[day]), Count: hiring[day]})
	}

	salaryDays := make(map[string]int, len(salaries))
	for day, vals := range salaries {
		salaryDays[day] = len(vals)
	}
	for _, day := range sortedDays(salaryDays) {
		vals := salaries[day]
		out.SalaryTrends = append(out.SalaryTrends, domain.TrendPoint{Date: day, Value: Mean(vals), Count: len(vals)})
	}

	for _, category := range categories.order {
		series := domain.CategoryTrend{Category: category, Points: []domain.TrendPoint{}}
		for _, day := range sortedDays(byCategory[category]) {
			n := byCategory[category][day]
			series.Points = append(series.Points, domain.TrendPoint{Date: day, Value: int64(n), Count: n})
		}
		out.TrendsByCategory = append(out.TrendsByCategory, series)
	}

	return out
}

func sortedDays(m map[string]int) []string {
	days := make([]string, 0, len(m))
	for day := range m {
		days = append(days, day)
	}
	sort.Strings(days)
	return days
}
