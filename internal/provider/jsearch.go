package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/AnassEREKYSY/MarketPulse/internal/domain"
	"golang.org/x/time/rate"
)

// SourceJSearch tags records fetched from JSearch
const SourceJSearch = "jsearch"

const (
	DefaultJSearchURL  = "https://jsearch.p.rapidapi.com"
	DefaultJSearchHost = "jsearch.p.rapidapi.com"
	// JSearchPageSize is the number of results JSearch returns per upstream page
	JSearchPageSize       = 10
	defaultJSearchPages   = 20
	defaultJSearchTimeout = 15 * time.Second
	jsearchCurrency       = "USD"
)

// JSearchConfig configures the JSearch client
type JSearchConfig struct {
	BaseURL string
	APIKey  string
	// Host is sent as X-RapidAPI-Host
	Host     string
	MaxPages int
	Timeout  time.Duration
	// RequestsPerSecond throttles upstream calls; <= 0 disables throttling
	RequestsPerSecond float64
}

// JSearch fetches job records from the JSearch API on RapidAPI
type JSearch struct {
	config  JSearchConfig
	client  *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewJSearch creates a JSearch client; unset fields fall back to defaults
func NewJSearch(config JSearchConfig, logger *slog.Logger) *JSearch {
	if config.BaseURL == "" {
		config.BaseURL = DefaultJSearchURL
	}
	if config.Host == "" {
		config.Host = DefaultJSearchHost
	}
	if config.MaxPages <= 0 {
		config.MaxPages = defaultJSearchPages
	}
	if config.Timeout <= 0 {
		config.Timeout = defaultJSearchTimeout
	}

	limit := rate.Inf
	if config.RequestsPerSecond > 0 {
		limit = rate.Limit(config.RequestsPerSecond)
	}

	return &JSearch{
		config:  config,
		client:  &http.Client{Timeout: config.Timeout},
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
	}
}

func (j *JSearch) Name() string {
	return SourceJSearch
}

// Available reports whether an API key is configured
func (j *JSearch) Available() bool {
	return j.config.APIKey != ""
}

type jsearchResponse struct {
	Data []json.RawMessage `json:"data"`
}

type jsearchJob struct {
	ID             string   `json:"job_id"`
	Title          string   `json:"job_title"`
	Description    string   `json:"job_description"`
	ApplyLink      string   `json:"job_apply_link"`
	PostedAt       string   `json:"job_posted_at_datetime_utc"`
	EmployerName   string   `json:"employer_name"`
	City           string   `json:"job_city"`
	State          string   `json:"job_state"`
	Country        string   `json:"job_country"`
	Latitude       *float64 `json:"job_latitude"`
	Longitude      *float64 `json:"job_longitude"`
	EmploymentType string   `json:"job_employment_type"`
	IsRemote       bool     `json:"job_is_remote"`
	MinSalary      *float64 `json:"job_min_salary"`
	MaxSalary      *float64 `json:"job_max_salary"`
	SalaryCurrency string   `json:"job_salary_currency"`
	SalaryPeriod   string   `json:"job_salary_period"`
}

// SearchRecords returns up to pageSize records starting at the given 1-based page.
// The window is fetched in one request spanning as many upstream pages as it needs.
func (j *JSearch) SearchRecords(ctx context.Context, text, location string, page, pageSize int) ([]domain.RawJobRecord, error) {
	if !j.Available() {
		return nil, fmt.Errorf("%w: jsearch api key not configured", domain.ErrUpstreamUnavailable)
	}

	q := domain.Query{Page: page, PageSize: pageSize}
	if q.Page < 1 {
		q.Page = domain.DefaultPage
	}
	if q.PageSize <= 0 {
		q.PageSize = domain.DefaultPageSize
	}

	offset := (q.Page - 1) * q.PageSize
	upstreamPage := offset/JSearchPageSize + 1
	skip := offset % JSearchPageSize
	numPages := min((skip+q.PageSize+JSearchPageSize-1)/JSearchPageSize, j.config.MaxPages)

	records, err := j.fetch(ctx, text, location, upstreamPage, numPages)
	if err != nil {
		return nil, err
	}

	records = records[min(skip, len(records)):]
	if len(records) > q.PageSize {
		records = records[:q.PageSize]
	}
	return records, nil
}

func (j *JSearch) fetch(ctx context.Context, text, location string, page, numPages int) ([]domain.RawJobRecord, error) {
	if err := j.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}

	params := url.Values{}
	params.Set("query", text)
	params.Set("page", strconv.Itoa(page))
	params.Set("num_pages", strconv.Itoa(numPages))
	if location != "" {
		params.Set("location", location)
	}

	endpoint := strings.TrimRight(j.config.BaseURL, "/") + "/search?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build jsearch request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-RapidAPI-Key", j.config.APIKey)
	req.Header.Set("X-RapidAPI-Host", j.config.Host)

	start := time.Now()
	resp, err := j.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: jsearch status %d: %s", domain.ErrUpstreamUnavailable, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload jsearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: failed to decode jsearch response: %v", domain.ErrUpstreamUnavailable, err)
	}

	records := make([]domain.RawJobRecord, 0, len(payload.Data))
	dropped := 0
	for _, raw := range payload.Data {
		record, err := parseJSearchRecord(raw)
		if err != nil {
			dropped++
			continue
		}
		records = append(records, record)
	}

	j.logger.Debug("JSearch page fetched",
		slog.Int("page", page),
		slog.Int("num_pages", numPages),
		slog.Int("records", len(records)),
		slog.Int("dropped", dropped),
		slog.Duration("duration", time.Since(start)),
	)

	return records, nil
}

func parseJSearchRecord(raw json.RawMessage) (domain.RawJobRecord, error) {
	var job jsearchJob
	if err := json.Unmarshal(raw, &job); err != nil {
		return domain.RawJobRecord{}, fmt.Errorf("%w: %v", errInvalidRecord, err)
	}
	if strings.TrimSpace(job.Title) == "" {
		return domain.RawJobRecord{}, fmt.Errorf("%w: missing title", errInvalidRecord)
	}

	level, hint := ExperienceLevel(job.Title, job.Description)

	workMode := WorkMode(job.Title, job.Description)
	if job.IsRemote {
		workMode = WorkModeRemote
	}

	city := strings.TrimSpace(job.City)
	display := city
	if job.State != "" {
		display = strings.TrimPrefix(city+", "+job.State, ", ")
	}

	record := domain.RawJobRecord{
		ID:              job.ID,
		Source:          SourceJSearch,
		Title:           strings.TrimSpace(job.Title),
		Description:     job.Description,
		Company:         strings.TrimSpace(job.EmployerName),
		EmploymentType:  jsearchEmploymentType(job.EmploymentType),
		WorkMode:        workMode,
		ExperienceLevel: level,
		ExperienceHint:  hint,
		SourceURL:       job.ApplyLink,
		Location: domain.Location{
			Display: display,
			City:    city,
			Region:  job.State,
			Country: strings.TrimSpace(job.Country),
		},
	}

	if job.Latitude != nil && job.Longitude != nil {
		record.Location.Coordinates = domain.Some(domain.Coordinates{Latitude: *job.Latitude, Longitude: *job.Longitude})
	}

	// a 0..0 range means the posting has no salary
	if positiveAmount(job.MinSalary) || positiveAmount(job.MaxSalary) {
		record.Salary = domain.SalaryObservation{
			Currency: jsearchCurrency,
			Period:   "year",
		}
		if job.SalaryCurrency != "" {
			record.Salary.Currency = job.SalaryCurrency
		}
		if job.SalaryPeriod != "" {
			record.Salary.Period = strings.ToLower(job.SalaryPeriod)
		}
		if job.MinSalary != nil {
			record.Salary.Min = domain.Some(*job.MinSalary)
		}
		if job.MaxSalary != nil {
			record.Salary.Max = domain.Some(*job.MaxSalary)
		}
	}

	if posted, err := time.Parse(time.RFC3339, job.PostedAt); err == nil {
		record.PublishedAt = domain.Some(posted.UTC())
	}

	return record, nil
}

// jsearchEmploymentType maps JSearch's employment type codes
func jsearchEmploymentType(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "fulltime", "full-time":
		return EmploymentPermanent
	case "parttime", "part-time":
		return EmploymentFixedTerm
	case "contractor", "contract":
		return EmploymentFreelance
	case "intern", "internship":
		return EmploymentInternship
	}
	return EmploymentOther
}

func positiveAmount(v *float64) bool {
	return v != nil && *v > 0
}
