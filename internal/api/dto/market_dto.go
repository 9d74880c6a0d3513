package dto

import (
	"strings"

	"github.com/AnassEREKYSY/MarketPulse/internal/domain"
)

// MarketQueryRequest is the query string shared by the /jobs endpoints
type MarketQueryRequest struct {
	Query           string   `form:"query" json:"query"`
	Location        string   `form:"location" json:"location"`
	EmploymentType  string   `form:"employmentType" json:"employmentType"`
	WorkMode        string   `form:"workMode" json:"workMode"`
	ExperienceLevel string   `form:"experienceLevel" json:"experienceLevel"`
	MinSalary       *float64 `form:"minSalary" json:"minSalary" binding:"omitempty,gte=0"`
	MaxSalary       *float64 `form:"maxSalary" json:"maxSalary" binding:"omitempty,gte=0"`
	Page            int      `form:"page" json:"page" binding:"omitempty,gte=1,lte=10000"`
	PageSize        int      `form:"pageSize" json:"pageSize" binding:"omitempty,gte=1"`
}

// ToQuery converts the request into a service query with pagination defaults.
// Page sizes above the maximum are clamped.
func (r MarketQueryRequest) ToQuery() domain.Query {
	q := domain.Query{
		Text:            strings.TrimSpace(r.Query),
		Location:        strings.TrimSpace(r.Location),
		EmploymentType:  strings.TrimSpace(r.EmploymentType),
		WorkMode:        strings.TrimSpace(r.WorkMode),
		ExperienceLevel: strings.TrimSpace(r.ExperienceLevel),
		Page:            r.Page,
		PageSize:        r.PageSize,
	}
	if r.MinSalary != nil {
		q.MinSalary = domain.Some(*r.MinSalary)
	}
	if r.MaxSalary != nil {
		q.MaxSalary = domain.Some(*r.MaxSalary)
	}
	return q.WithDefaults()
}

// HeatMapRequest adds the intensity metric
type HeatMapRequest struct {
	MarketQueryRequest
	Metric string `form:"metric" binding:"omitempty,oneof=jobs salary"`
}

// TrendsRequest adds the trend window in days
type TrendsRequest struct {
	MarketQueryRequest
	Days int `form:"days" binding:"omitempty,gte=1,lte=365"`
}

// RefreshResponse acknowledges a refresh request
type RefreshResponse struct {
	RequestID string `json:"requestId,omitempty"`
	Status    string `json:"status"`
}

// InvalidateResponse reports a cache removal. Removed is only known for patterns.
type InvalidateResponse struct {
	Key     string `json:"key,omitempty"`
	Pattern string `json:"pattern,omitempty"`
	Removed *int   `json:"removed,omitempty"`
}

// ErrorResponse is the body of every non-2xx answer
type ErrorResponse struct {
	Error string `json:"error"`
}
