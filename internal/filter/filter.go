// Package filter holds the record predicates and pagination shared by the
// aggregation service and the recompute engine.
package filter

import (
	"strings"

	"github.com/AnassEREKYSY/MarketPulse/internal/domain"
	"github.com/AnassEREKYSY/MarketPulse/internal/salary"
)

// Predicate reports whether a record is kept
type Predicate func(r *domain.RawJobRecord) bool

// Criteria are the refinement fields of a query. Zero values match everything.
type Criteria struct {
	Text            string
	Location        string
	EmploymentType  string
	WorkMode        string
	ExperienceLevel string
	MinSalary       domain.Optional[float64]
	MaxSalary       domain.Optional[float64]
}

// FromQuery extracts every filter field of q
func FromQuery(q domain.Query) Criteria {
	return Criteria{
		Text:            q.Text,
		Location:        q.Location,
		EmploymentType:  q.EmploymentType,
		WorkMode:        q.WorkMode,
		ExperienceLevel: q.ExperienceLevel,
		MinSalary:       q.MinSalary,
		MaxSalary:       q.MaxSalary,
	}
}

// Refinements drops text and location, which the fetch collaborator already applied upstream
func (c Criteria) Refinements() Criteria {
	c.Text = ""
	c.Location = ""
	return c
}

// Empty reports whether no criterion is active
func (c Criteria) Empty() bool {
	return strings.TrimSpace(c.Text) == "" &&
		strings.TrimSpace(c.Location) == "" &&
		strings.TrimSpace(c.EmploymentType) == "" &&
		strings.TrimSpace(c.WorkMode) == "" &&
		strings.TrimSpace(c.ExperienceLevel) == "" &&
		!c.MinSalary.Present() &&
		!c.MaxSalary.Present()
}

// Predicates builds the active predicates of c.
// Salary bounds compare against the normalized yearly amount; records without usable salary never pass a bound.
func (c Criteria) Predicates(n *salary.Normalizer) []Predicate {
	var preds []Predicate

	if text := strings.ToLower(strings.TrimSpace(c.Text)); text != "" {
		preds = append(preds, func(r *domain.RawJobRecord) bool {
			return containsFold(r.Title, text) || containsFold(r.Description, text) || containsFold(r.Company, text)
		})
	}
	if loc := strings.ToLower(strings.TrimSpace(c.Location)); loc != "" {
		preds = append(preds, func(r *domain.RawJobRecord) bool {
			return containsFold(r.Location.City, loc) ||
				containsFold(r.Location.Display, loc) ||
				containsFold(r.Location.Region, loc) ||
				containsFold(r.Location.Country, loc)
		})
	}
	if v := strings.TrimSpace(c.EmploymentType); v != "" {
		preds = append(preds, equalFold(v, func(r *domain.RawJobRecord) string { return r.EmploymentType }))
	}
	if v := strings.TrimSpace(c.WorkMode); v != "" {
		preds = append(preds, equalFold(v, func(r *domain.RawJobRecord) string { return r.WorkMode }))
	}
	if v := strings.TrimSpace(c.ExperienceLevel); v != "" {
		preds = append(preds, equalFold(v, func(r *domain.RawJobRecord) string { return r.ExperienceLevel }))
	}

	minV, hasMin := c.MinSalary.Get()
	maxV, hasMax := c.MaxSalary.Get()
	if hasMin || hasMax {
		if n == nil {
			n = salary.NewNormalizer(nil)
		}
		preds = append(preds, func(r *domain.RawJobRecord) bool {
			s, ok := n.Normalize(r.Salary)
			if !ok {
				return false
			}
			yearly := float64(s.Yearly())
			if hasMin && yearly < minV {
				return false
			}
			if hasMax && yearly > maxV {
				return false
			}
			return true
		})
	}

	return preds
}

// Apply returns the records matching every predicate, in input order.
// The result is never nil.
func Apply(records []domain.RawJobRecord, preds ...Predicate) []domain.RawJobRecord {
	out := make([]domain.RawJobRecord, 0, len(records))
next:
	for i := range records {
		for _, p := range preds {
			if !p(&records[i]) {
				continue next
			}
		}
		out = append(out, records[i])
	}
	return out
}

// Page returns records[(page-1)*pageSize : +pageSize], clamped to the slice bounds.
// page is 1-based; invalid pagination falls back to the query defaults.
func Page(records []domain.RawJobRecord, page, pageSize int) []domain.RawJobRecord {
	q := domain.Query{Page: page, PageSize: pageSize}.WithDefaults()
	return PageAt(records, q.Page-1, q.PageSize)
}

// PageAt returns the 0-based page index of records. Indexes past the last page
// yield an empty slice.
func PageAt(records []domain.RawJobRecord, index, pageSize int) []domain.RawJobRecord {
	size := domain.Query{PageSize: pageSize}.WithDefaults().PageSize

	// compare against the page count before multiplying so huge indexes cannot overflow
	pages := (len(records) + size - 1) / size
	if index < 0 || index >= pages {
		return []domain.RawJobRecord{}
	}

	start := index * size
	end := min(start+size, len(records))

	out := make([]domain.RawJobRecord, end-start)
	copy(out, records[start:end])
	return out
}

func containsFold(s, lowerSub string) bool {
	return strings.Contains(strings.ToLower(s), lowerSub)
}

func equalFold(want string, field func(*domain.RawJobRecord) string) Predicate {
	return func(r *domain.RawJobRecord) bool {
		return strings.EqualFold(strings.TrimSpace(field(r)), want)
	}
}
