// Package provider implements the job provider collaborators.
package provider

import (
	"context"
	"encoding/json"
	"errors"
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

// SourceAdzuna tags records fetched from Adzuna
const SourceAdzuna = "adzuna"

const (
	DefaultAdzunaURL      = "https://api.adzuna.com/v1/api/jobs"
	DefaultResultsPerPage = 50
	DefaultMaxPages       = 20
	defaultAdzunaTimeout  = 10 * time.Second
)

var errInvalidRecord = errors.New("invalid provider record")

// countryCurrency is the salary currency Adzuna reports per country site
var countryCurrency = map[string]string{
	"gb": "GBP",
	"us": "USD",
	"ca": "CAD",
	"au": "AUD",
	"ch": "CHF",
}

// AdzunaConfig configures the Adzuna client
type AdzunaConfig struct {
	BaseURL        string
	AppID          string
	AppKey         string
	Country        string
	ResultsPerPage int
	MaxPages       int
	Timeout        time.Duration
	// RequestsPerSecond throttles upstream calls; <= 0 disables throttling
	RequestsPerSecond float64
}

// Adzuna fetches job records from the Adzuna search API
type Adzuna struct {
	config  AdzunaConfig
	client  *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewAdzuna creates an Adzuna client; unset fields fall back to defaults
func NewAdzuna(config AdzunaConfig, logger *slog.Logger) *Adzuna {
	if config.BaseURL == "" {
		config.BaseURL = DefaultAdzunaURL
	}
	if config.Country == "" {
		config.Country = "fr"
	}
	config.Country = strings.ToLower(config.Country)
	if config.ResultsPerPage <= 0 {
		config.ResultsPerPage = DefaultResultsPerPage
	}
	if config.MaxPages <= 0 {
		config.MaxPages = DefaultMaxPages
	}
	if config.Timeout <= 0 {
		config.Timeout = defaultAdzunaTimeout
	}

	limit := rate.Inf
	if config.RequestsPerSecond > 0 {
		limit = rate.Limit(config.RequestsPerSecond)
	}

	return &Adzuna{
		config:  config,
		client:  &http.Client{Timeout: config.Timeout},
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
	}
}

// Name identifies the provider in logs
func (a *Adzuna) Name() string {
	return SourceAdzuna
}

// Available reports whether credentials are configured
func (a *Adzuna) Available() bool {
	return a.config.AppID != "" && a.config.AppKey != ""
}

type adzunaResponse struct {
	Count   int               `json:"count"`
	Results []json.RawMessage `json:"results"`
}

type adzunaJob struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	RedirectURL  string   `json:"redirect_url"`
	Created      string   `json:"created"`
	ContractType string   `json:"contract_type"`
	ContractTime string   `json:"contract_time"`
	SalaryMin    *float64 `json:"salary_min"`
	SalaryMax    *float64 `json:"salary_max"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	Company      struct {
		DisplayName string `json:"display_name"`
	} `json:"company"`
	Location struct {
		DisplayName string   `json:"display_name"`
		Area        []string `json:"area"`
	} `json:"location"`
}

// SearchRecords returns up to pageSize records starting at the given 1-based page.
// Upstream pages are walked until pageSize records are collected or the results run out.
func (a *Adzuna) SearchRecords(ctx context.Context, text, location string, page, pageSize int) ([]domain.RawJobRecord, error) {
	if !a.Available() {
		return nil, fmt.Errorf("%w: adzuna credentials not configured", domain.ErrUpstreamUnavailable)
	}

	q := domain.Query{Page: page, PageSize: pageSize}
	if q.Page < 1 {
		q.Page = domain.DefaultPage
	}
	if q.PageSize <= 0 {
		q.PageSize = domain.DefaultPageSize
	}

	per := a.config.ResultsPerPage
	offset := (q.Page - 1) * q.PageSize
	upstreamPage := offset/per + 1
	skip := offset % per

	records := make([]domain.RawJobRecord, 0, q.PageSize)
	for fetched := 0; len(records) < q.PageSize && fetched < a.config.MaxPages; fetched++ {
		batch, full, err := a.fetchPage(ctx, text, location, upstreamPage)
		if err != nil {
			if fetched == 0 {
				return nil, err
			}
			a.logger.Warn("Adzuna page failed, returning partial results",
				slog.Int("page", upstreamPage),
				slog.Int("records", len(records)),
				slog.Any("error", err),
			)
			break
		}

		if skip > 0 {
			batch = batch[min(skip, len(batch)):]
			skip = 0
		}
		records = append(records, batch...)

		if !full {
			break
		}
		upstreamPage++
	}

	if len(records) > q.PageSize {
		records = records[:q.PageSize]
	}
	return records, nil
}

// fetchPage returns the mapped records of one upstream page and whether the page was full
func (a *Adzuna) fetchPage(ctx context.Context, text, location string, page int) ([]domain.RawJobRecord, bool, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, false, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}

	params := url.Values{}
	params.Set("app_id", a.config.AppID)
	params.Set("app_key", a.config.AppKey)
	params.Set("results_per_page", strconv.Itoa(a.config.ResultsPerPage))
	params.Set("content-type", "application/json")
	if text != "" {
		params.Set("what", text)
	}
	if location != "" {
		params.Set("where", location)
	}

	endpoint := fmt.Sprintf("%s/%s/search/%d?%s", strings.TrimRight(a.config.BaseURL, "/"), a.config.Country, page, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to build adzuna request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := a.client.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, false, fmt.Errorf("%w: adzuna status %d: %s", domain.ErrUpstreamUnavailable, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload adzunaResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, false, fmt.Errorf("%w: failed to decode adzuna response: %v", domain.ErrUpstreamUnavailable, err)
	}

	records := make([]domain.RawJobRecord, 0, len(payload.Results))
	dropped := 0
	for _, raw := range payload.Results {
		record, err := a.parseRecord(raw)
		if err != nil {
			dropped++
			continue
		}
		records = append(records, record)
	}

	a.logger.Debug("Adzuna page fetched",
		slog.Int("page", page),
		slog.Int("records", len(records)),
		slog.Int("dropped", dropped),
		slog.Duration("duration", time.Since(start)),
	)

	return records, len(payload.Results) >= a.config.ResultsPerPage, nil
}

// parseRecord maps one upstream result; unreadable results are rejected whole
func (a *Adzuna) parseRecord(raw json.RawMessage) (domain.RawJobRecord, error) {
	var job adzunaJob
	if err := json.Unmarshal(raw, &job); err != nil {
		return domain.RawJobRecord{}, fmt.Errorf("%w: %v", errInvalidRecord, err)
	}
	if strings.TrimSpace(job.Title) == "" {
		return domain.RawJobRecord{}, fmt.Errorf("%w: missing title", errInvalidRecord)
	}

	level, hint := ExperienceLevel(job.Title, job.Description)

	record := domain.RawJobRecord{
		ID:              job.ID,
		Source:          SourceAdzuna,
		Title:           strings.TrimSpace(job.Title),
		Description:     job.Description,
		Company:         strings.TrimSpace(job.Company.DisplayName),
		EmploymentType:  EmploymentType(job.ContractType, job.ContractTime),
		WorkMode:        WorkMode(job.Title, job.Description),
		ExperienceLevel: level,
		ExperienceHint:  hint,
		SourceURL:       job.RedirectURL,
		Location: domain.Location{
			Display: job.Location.DisplayName,
			City:    City(job.Location.DisplayName),
			Country: strings.ToUpper(a.config.Country),
		},
		Salary: domain.SalaryObservation{
			Currency: a.currency(),
			Period:   "year",
		},
	}

	if len(job.Location.Area) > 0 {
		record.Location.Country = job.Location.Area[0]
	}
	if len(job.Location.Area) > 1 {
		record.Location.Region = job.Location.Area[1]
	}
	if job.Latitude != nil && job.Longitude != nil {
		record.Location.Coordinates = domain.Some(domain.Coordinates{Latitude: *job.Latitude, Longitude: *job.Longitude})
	}
	if job.SalaryMin != nil {
		record.Salary.Min = domain.Some(*job.SalaryMin)
	}
	if job.SalaryMax != nil {
		record.Salary.Max = domain.Some(*job.SalaryMax)
	}
	if created, err := time.Parse(time.RFC3339, job.Created); err == nil {
		record.PublishedAt = domain.Some(created.UTC())
	}

	return record, nil
}

func (a *Adzuna) currency() string {
	if c, ok := countryCurrency[a.config.Country]; ok {
		return c
	}
	return domain.BaseCurrency
}
