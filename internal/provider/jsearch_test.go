package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/AnassEREKYSY/MarketPulse/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsearchResult(i int) map[string]any {
	return map[string]any{
		"job_id":                     fmt.Sprintf("js-%d", i),
		"job_title":                  fmt.Sprintf("Backend Engineer %d", i),
		"job_description":            "Hybrid team, junior friendly",
		"job_apply_link":             fmt.Sprintf("https://example.com/apply/%d", i),
		"job_posted_at_datetime_utc": "2026-03-08T09:30:00.000Z",
		"employer_name":              "Globex",
		"job_city":                   "Austin",
		"job_state":                  "TX",
		"job_country":                "US",
		"job_latitude":               30.27,
		"job_longitude":              -97.74,
		"job_employment_type":        "FULLTIME",
		"job_is_remote":              false,
		"job_min_salary":             90000.0,
		"job_max_salary":             110000.0,
		"job_salary_currency":        "USD",
		"job_salary_period":          "YEAR",
	}
}

// newJSearchServer serves total results in upstream pages of JSearchPageSize
func newJSearchServer(t *testing.T, total int, status int, calls *atomic.Int32) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)

		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("X-RapidAPI-Key"))
		assert.Equal(t, DefaultJSearchHost, r.Header.Get("X-RapidAPI-Host"))

		if status != http.StatusOK {
			http.Error(w, "quota exceeded", status)
			return
		}

		page, err := strconv.Atoi(r.URL.Query().Get("page"))
		require.NoError(t, err)
		numPages, err := strconv.Atoi(r.URL.Query().Get("num_pages"))
		require.NoError(t, err)

		data := []any{}
		for i := (page - 1) * JSearchPageSize; i < min((page-1+numPages)*JSearchPageSize, total); i++ {
			data = append(data, jsearchResult(i))
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "OK", "data": data})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestJSearch(url string) *JSearch {
	return NewJSearch(JSearchConfig{BaseURL: url, APIKey: "secret", Timeout: time.Second}, testLogger())
}

func TestJSearch_SearchRecords(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		page      int
		pageSize  int
		wantLen   int
		wantFirst string
	}{
		{name: "single upstream page", total: 50, page: 1, pageSize: 5, wantLen: 5, wantFirst: "js-0"},
		{name: "window spans pages", total: 50, page: 1, pageSize: 25, wantLen: 25, wantFirst: "js-0"},
		{name: "offset inside a page", total: 50, page: 2, pageSize: 15, wantLen: 15, wantFirst: "js-15"},
		{name: "short result", total: 7, page: 1, pageSize: 20, wantLen: 7, wantFirst: "js-0"},
		{name: "past the end", total: 7, page: 3, pageSize: 20, wantLen: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := newJSearchServer(t, tt.total, http.StatusOK, &calls)

			got, err := newTestJSearch(srv.URL).SearchRecords(context.Background(), "go", "Austin", tt.page, tt.pageSize)
			require.NoError(t, err)
			require.Len(t, got, tt.wantLen)
			assert.Equal(t, int32(1), calls.Load())
			if tt.wantLen > 0 {
				assert.Equal(t, tt.wantFirst, got[0].ID)
			}
		})
	}
}

func TestJSearch_Mapping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		remote := jsearchResult(1)
		remote["job_is_remote"] = true
		remote["job_employment_type"] = "CONTRACTOR"
		remote["job_title"] = "Senior Platform Engineer"

		noSalary := jsearchResult(2)
		noSalary["job_min_salary"] = 0.0
		noSalary["job_max_salary"] = 0.0
		noSalary["job_posted_at_datetime_utc"] = nil

		_ = json.NewEncoder(w).Encode(map[string]any{"data": []any{
			jsearchResult(0),
			map[string]any{"job_title": 42},
			map[string]any{"job_id": "untitled"},
			remote,
			noSalary,
		}})
	}))
	t.Cleanup(srv.Close)

	got, err := newTestJSearch(srv.URL).SearchRecords(context.Background(), "go", "", 1, 10)
	require.NoError(t, err)
	require.Len(t, got, 3, "unreadable and untitled results are dropped")

	first := got[0]
	assert.Equal(t, SourceJSearch, first.Source)
	assert.Equal(t, "Globex", first.Company)
	assert.Equal(t, EmploymentPermanent, first.EmploymentType)
	assert.Equal(t, WorkModeHybrid, first.WorkMode)
	assert.Equal(t, LevelJunior, first.ExperienceLevel)
	assert.Equal(t, domain.Location{
		Display:     "Austin, TX",
		City:        "Austin",
		Region:      "TX",
		Country:     "US",
		Coordinates: domain.Some(domain.Coordinates{Latitude: 30.27, Longitude: -97.74}),
	}, first.Location)
	assert.Equal(t, domain.SalaryObservation{
		Min:      domain.Some(90000.0),
		Max:      domain.Some(110000.0),
		Currency: "USD",
		Period:   "year",
	}, first.Salary)
	published, ok := first.PublishedAt.Get()
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 3, 8, 9, 30, 0, 0, time.UTC), published)

	remote := got[1]
	assert.Equal(t, WorkModeRemote, remote.WorkMode)
	assert.Equal(t, EmploymentFreelance, remote.EmploymentType)
	assert.Equal(t, LevelSenior, remote.ExperienceLevel)

	noSalary := got[2]
	assert.Equal(t, domain.SalaryObservation{}, noSalary.Salary)
	assert.False(t, noSalary.PublishedAt.Present())
}

func TestJSearch_Unavailable(t *testing.T) {
	t.Run("no api key", func(t *testing.T) {
		_, err := NewJSearch(JSearchConfig{}, testLogger()).SearchRecords(context.Background(), "go", "", 1, 10)
		assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
	})

	t.Run("upstream error status", func(t *testing.T) {
		var calls atomic.Int32
		srv := newJSearchServer(t, 10, http.StatusTooManyRequests, &calls)

		_, err := newTestJSearch(srv.URL).SearchRecords(context.Background(), "go", "", 1, 10)
		assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
		assert.ErrorContains(t, err, "jsearch status 429")
	})
}
