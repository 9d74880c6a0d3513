package provider

import (
	"database/sql"
	"strings"

	"github.com/AnassEREKYSY/MarketPulse/internal/domain"
)

// JobOffer is one row of the job_offers table
type JobOffer struct {
	ID              string          `db:"id"`
	Source          string          `db:"source"`
	Title           string          `db:"title"`
	Description     sql.NullString  `db:"description"`
	Company         sql.NullString  `db:"company"`
	City            sql.NullString  `db:"city"`
	Region          sql.NullString  `db:"region"`
	Country         sql.NullString  `db:"country"`
	Latitude        sql.NullFloat64 `db:"latitude"`
	Longitude       sql.NullFloat64 `db:"longitude"`
	EmploymentType  sql.NullString  `db:"employment_type"`
	WorkMode        sql.NullString  `db:"work_mode"`
	ExperienceLevel sql.NullString  `db:"experience_level"`
	SalaryMin       sql.NullFloat64 `db:"salary_min"`
	SalaryMax       sql.NullFloat64 `db:"salary_max"`
	SalaryAverage   sql.NullFloat64 `db:"salary_avg"`
	SalaryCurrency  sql.NullString  `db:"salary_currency"`
	SalaryPeriod    sql.NullString  `db:"salary_period"`
	PublishedAt     sql.NullTime    `db:"published_at"`
	SourceURL       sql.NullString  `db:"source_url"`
}

// Record converts the row to a domain record
func (o JobOffer) Record() domain.RawJobRecord {
	city := strings.TrimSpace(o.City.String)
	display := city
	if o.Country.String != "" && city != "" {
		display = city + ", " + o.Country.String
	}

	r := domain.RawJobRecord{
		ID:              o.ID,
		Source:          o.Source,
		Title:           o.Title,
		Description:     o.Description.String,
		Company:         o.Company.String,
		EmploymentType:  o.EmploymentType.String,
		WorkMode:        o.WorkMode.String,
		ExperienceLevel: o.ExperienceLevel.String,
		SourceURL:       o.SourceURL.String,
		Location: domain.Location{
			Display: display,
			City:    city,
			Region:  o.Region.String,
			Country: o.Country.String,
		},
		Salary: domain.SalaryObservation{
			Min:      nullFloat(o.SalaryMin),
			Max:      nullFloat(o.SalaryMax),
			Average:  nullFloat(o.SalaryAverage),
			Currency: o.SalaryCurrency.String,
			Period:   o.SalaryPeriod.String,
		},
	}

	if o.Latitude.Valid && o.Longitude.Valid {
		r.Location.Coordinates = domain.Some(domain.Coordinates{Latitude: o.Latitude.Float64, Longitude: o.Longitude.Float64})
	}
	if o.PublishedAt.Valid {
		r.PublishedAt = domain.Some(o.PublishedAt.Time.UTC())
	}

	return r
}

func nullFloat(v sql.NullFloat64) domain.Optional[float64] {
	if !v.Valid {
		return domain.None[float64]()
	}
	return domain.Some(v.Float64)
}
