package domain

import (
	"fmt"
	"strings"
)

// IntensityMetric selects what a heat map point's intensity measures
type IntensityMetric string

const (
	IntensityJobs   IntensityMetric = "jobs"
	IntensitySalary IntensityMetric = "salary"
)

// ParseIntensityMetric accepts "jobs" or "salary"; blank defaults to jobs
func ParseIntensityMetric(s string) (IntensityMetric, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(IntensityJobs):
		return IntensityJobs, nil
	case string(IntensitySalary):
		return IntensitySalary, nil
	default:
		return "", fmt.Errorf("%w: unknown intensity metric %q", ErrInvalidQuery, s)
	}
}

// HeatMapPoint is one resolved location on the map
type HeatMapPoint struct {
	Latitude      float64         `json:"latitude"`
	Longitude     float64         `json:"longitude"`
	City          string          `json:"city"`
	Country       string          `json:"country"`
	JobCount      int             `json:"jobCount"`
	AverageSalary Optional[int64] `json:"averageSalary,omitzero"`
	Intensity     int             `json:"intensity"`
}

// HeatMapData is the geo aggregate of a batch.
// The auxiliary maps include locations whose coordinates never resolved.
type HeatMapData struct {
	Metric                  IntensityMetric  `json:"metric"`
	Points                  []HeatMapPoint   `json:"points"`
	JobCountByLocation      map[string]int   `json:"jobCountByLocation"`
	AverageSalaryByLocation map[string]int64 `json:"averageSalaryByLocation"`
}
