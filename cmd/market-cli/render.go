package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/AnassEREKYSY/MarketPulse/internal/domain"
	"github.com/AnassEREKYSY/MarketPulse/internal/labels"
	"github.com/AnassEREKYSY/MarketPulse/internal/recompute"
	"github.com/AnassEREKYSY/MarketPulse/internal/salary"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

const (
	outputTable = "table"
	outputJSON  = "json"

	titleColumnWidth   = 48
	companyColumnWidth = 28
)

var normalizer = salary.NewNormalizer(nil)

func newTable(out io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleRounded)
	t.SetTitle(title)
	return t
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderJobs(out io.Writer, view recompute.View) {
	t := newTable(out, fmt.Sprintf("Jobs %d-%d of %d",
		min(view.PageIndex*view.PageSize+1, view.TotalCount),
		min(view.PageIndex*view.PageSize+len(view.Jobs), view.TotalCount),
		view.TotalCount,
	))
	t.AppendHeader(table.Row{"#", "Title", "Company", "Location", "Contract", "Mode", "Experience", "Salary (EUR/yr)"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, WidthMax: titleColumnWidth},
		{Number: 3, WidthMax: companyColumnWidth},
		{Number: 8, Align: text.AlignRight},
	})

	for i, job := range view.Jobs {
		location := job.Location.City
		if key, ok := job.Location.Key(); ok {
			location = key
		}
		t.AppendRow(table.Row{
			view.PageIndex*view.PageSize + i + 1,
			job.Title,
			job.Company,
			location,
			labels.EmploymentType(job.EmploymentType),
			labels.WorkMode(job.WorkMode),
			labels.ExperienceLevel(job.ExperienceLevel),
			formatSalary(job.Salary),
		})
	}
	t.Render()
}

func renderStatistics(out io.Writer, stats domain.JobStatistics, quality domain.DataQualityMetrics) {
	t := newTable(out, "Market")
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRows([]table.Row{
		{"Jobs", stats.TotalJobs},
		{"With salary", fmt.Sprintf("%d (%.1f%%)", quality.RecordsWithSalary, quality.SalaryCoveragePercent)},
		{"Average salary", formatAmount(stats.Salary.Average)},
		{"Median salary", formatAmount(stats.Salary.Median)},
		{"Locations", quality.UniqueLocationCount},
	})
	if warnings := qualityWarnings(quality); warnings != "" {
		t.AppendFooter(table.Row{"Note", warnings})
	}
	t.Render()

	renderBuckets(out, "Employment type", labels.Buckets(stats.ByEmploymentType, labels.EmploymentType))
	renderBuckets(out, "Work mode", labels.Buckets(stats.ByWorkMode, labels.WorkMode))
	renderBuckets(out, "Experience", labels.Buckets(stats.ByExperience, labels.ExperienceLevel))
	renderBuckets(out, "Top companies", stats.TopCompanies)
	renderBuckets(out, "Top locations", stats.TopLocations)
}

func renderBuckets(out io.Writer, title string, buckets []domain.Bucket) {
	if len(buckets) == 0 {
		return
	}
	t := newTable(out, title)
	t.AppendHeader(table.Row{"", "Jobs"})
	for _, b := range buckets {
		t.AppendRow(table.Row{b.Key, b.Count})
	}
	t.Render()
}

func renderSalaries(out io.Writer, report domain.SalaryReport) {
	s := report.Salary

	t := newTable(out, "Salaries (EUR/yr)")
	t.AppendHeader(table.Row{"Average", "Median", "Min", "Max", "Samples"})
	t.AppendRow(table.Row{
		formatAmount(s.Average),
		formatAmount(s.Median),
		formatAmount(s.Min),
		formatAmount(s.Max),
		report.Quality.RecordsWithSalary,
	})
	if warnings := qualityWarnings(report.Quality); warnings != "" {
		t.AppendFooter(table.Row{"Note", warnings})
	}
	t.Render()

	renderSalaryBuckets(out, "By experience", s.ByExperience, labels.ExperienceLevel)
	renderSalaryBuckets(out, "By location", s.ByLocation, func(v string) string { return v })
}

func renderSalaryBuckets(out io.Writer, title string, buckets []domain.SalaryBucket, label func(string) string) {
	if len(buckets) == 0 {
		return
	}
	t := newTable(out, title)
	t.AppendHeader(table.Row{"", "Average", "Samples"})
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})
	for _, b := range buckets {
		t.AppendRow(table.Row{label(b.Key), strconv.FormatInt(b.Average, 10), b.Count})
	}
	t.Render()
}

func qualityWarnings(q domain.DataQualityMetrics) string {
	switch {
	case q.LimitedSampleSignal && q.InsufficientSalarySignal:
		return "small sample, few salaries"
	case q.LimitedSampleSignal:
		return "small sample"
	case q.InsufficientSalarySignal:
		return "few salaries"
	}
	return ""
}

func formatSalary(obs domain.SalaryObservation) string {
	s, ok := normalizer.Normalize(obs)
	if !ok {
		return "-"
	}
	return strconv.FormatInt(s.Yearly(), 10)
}

func formatAmount(v domain.Optional[int64]) string {
	if n, ok := v.Get(); ok {
		return strconv.FormatInt(n, 10)
	}
	return "-"
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "at an unknown time"
	}
	return "at " + t.Local().Format(time.RFC1123)
}
