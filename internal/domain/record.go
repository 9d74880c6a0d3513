package domain

import (
	"strings"
	"time"
)

// UnknownLabel is the category used for blank categorical values
const UnknownLabel = "Unknown"

// Coordinates is a latitude/longitude pair in decimal degrees
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Location describes where a job is based
type Location struct {
	Display     string                `json:"display,omitempty"`
	City        string                `json:"city"`
	Region      string                `json:"region,omitempty"`
	Country     string                `json:"country"`
	Coordinates Optional[Coordinates] `json:"coordinates,omitzero"`
}

// Key returns the "City, Country" label used by rankings and breakdowns.
// It returns false when the location has no city.
func (l Location) Key() (string, bool) {
	city := strings.TrimSpace(l.City)
	if city == "" {
		return "", false
	}

	country := strings.TrimSpace(l.Country)
	if country == "" {
		country = UnknownLabel
	}

	return city + ", " + country, true
}

// SalaryObservation is the raw salary attached to a record before normalization
type SalaryObservation struct {
	Min      Optional[float64] `json:"min,omitzero"`
	Max      Optional[float64] `json:"max,omitzero"`
	Average  Optional[float64] `json:"average,omitzero"`
	Currency string            `json:"currency,omitempty"`
	Period   string            `json:"period,omitempty"`
}

// RawJobRecord is one provider listing. Records are treated as immutable once fetched.
type RawJobRecord struct {
	ID              string              `json:"id"`
	Source          string              `json:"source"`
	Title           string              `json:"title"`
	Description     string              `json:"description,omitempty"`
	Company         string              `json:"company"`
	Location        Location            `json:"location"`
	EmploymentType  string              `json:"employmentType"`
	WorkMode        string              `json:"workMode"`
	ExperienceLevel string              `json:"experienceLevel"`
	ExperienceHint  string              `json:"experienceHint,omitempty"`
	Salary          SalaryObservation   `json:"salary"`
	PublishedAt     Optional[time.Time] `json:"publishedAt,omitzero"`
	SourceURL       string              `json:"sourceUrl"`
}

// CategoryValue returns the trimmed value of a categorical field, or UnknownLabel when blank
func CategoryValue(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return UnknownLabel
	}
	return v
}
