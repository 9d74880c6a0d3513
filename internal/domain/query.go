package domain

import "time"

const (
	// DefaultPage is the first page, 1-based
	DefaultPage = 1
	// DefaultPageSize is used when a query carries no page size
	DefaultPageSize = 20
	// MaxPageSize caps a single page
	MaxPageSize = 100
	// MaxPage is the highest page the HTTP surface accepts
	MaxPage = 10000
	// DefaultTrendDays is the trend window used when none is given
	DefaultTrendDays = 30
)

// Query is the set of effective parameters of a market request.
// Every field except pagination is optional.
type Query struct {
	Text            string            `json:"text,omitempty"`
	Location        string            `json:"location,omitempty"`
	EmploymentType  string            `json:"employmentType,omitempty"`
	WorkMode        string            `json:"workMode,omitempty"`
	ExperienceLevel string            `json:"experienceLevel,omitempty"`
	MinSalary       Optional[float64] `json:"minSalary,omitzero"`
	MaxSalary       Optional[float64] `json:"maxSalary,omitzero"`
	Page            int               `json:"page"`
	PageSize        int               `json:"pageSize"`
}

// WithDefaults fills pagination defaults and clamps the page size
func (q Query) WithDefaults() Query {
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	if q.PageSize <= 0 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
	return q
}

// SearchResult is one page of filtered records
type SearchResult struct {
	Jobs       []RawJobRecord `json:"jobs"`
	TotalCount int            `json:"totalCount"`
	Page       int            `json:"page"`
	PageSize   int            `json:"pageSize"`
}

// Snapshot is a full record set fetched once for client-side refinement
type Snapshot struct {
	Records   []RawJobRecord `json:"records"`
	FetchedAt time.Time      `json:"fetchedAt"`
}

// TrendPoint is one day of a trend series
type TrendPoint struct {
	Date  string `json:"date"`
	Value int64  `json:"value"`
	Count int    `json:"count"`
}

// CategoryTrend is the hiring series of one category
type CategoryTrend struct {
	Category string       `json:"category"`
	Points   []TrendPoint `json:"points"`
}

// TrendData holds the day-bucketed series of a batch
type TrendData struct {
	Days             int             `json:"days"`
	HiringTrends     []TrendPoint    `json:"hiringTrends"`
	SalaryTrends     []TrendPoint    `json:"salaryTrends"`
	TrendsByCategory []CategoryTrend `json:"trendsByCategory"`
}
