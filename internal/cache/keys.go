package cache

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/AnassEREKYSY/MarketPulse/internal/domain"
)

// Key namespaces
const (
	NamespaceSearch     = "jobs:search"
	NamespaceSnapshot   = "jobs:snapshot"
	NamespaceStatistics = "jobs:statistics"
	NamespaceHeatMap    = "jobs:heatmap"
	NamespaceSalaries   = "jobs:salaries"
	NamespaceTrends     = "jobs:trends"
	NamespaceGeocode    = "geocode"
)

// Key composes namespace and params into a deterministic key.
// Params are encoded sorted by name, so two param sets collide only when they are equal.
func Key(namespace string, params url.Values) string {
	if len(params) == 0 {
		return namespace
	}
	return namespace + ":" + params.Encode()
}

// QueryParams returns every effective parameter of q, pagination included
func QueryParams(q domain.Query) url.Values {
	q = q.WithDefaults()

	v := url.Values{}
	v.Set("text", strings.TrimSpace(q.Text))
	v.Set("location", strings.TrimSpace(q.Location))
	v.Set("employmentType", strings.TrimSpace(q.EmploymentType))
	v.Set("workMode", strings.TrimSpace(q.WorkMode))
	v.Set("experienceLevel", strings.TrimSpace(q.ExperienceLevel))
	if f, ok := q.MinSalary.Get(); ok {
		v.Set("minSalary", strconv.FormatFloat(f, 'f', -1, 64))
	}
	if f, ok := q.MaxSalary.Get(); ok {
		v.Set("maxSalary", strconv.FormatFloat(f, 'f', -1, 64))
	}
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("pageSize", strconv.Itoa(q.PageSize))
	return v
}

// QueryKey is Key over the full parameter set of q
func QueryKey(namespace string, q domain.Query) string {
	return Key(namespace, QueryParams(q))
}

// GeocodeKey addresses the coordinates of one city
func GeocodeKey(city, country string) string {
	return NamespaceGeocode + ":" +
		strings.ToLower(strings.TrimSpace(city)) + "," +
		strings.ToLower(strings.TrimSpace(country))
}
