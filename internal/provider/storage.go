package provider

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/AnassEREKYSY/MarketPulse/internal/domain"
	"github.com/jmoiron/sqlx"
)

// SourceDatabase names the PostgreSQL job source
const SourceDatabase = "database"

const jobOfferColumns = `
	id, source, title, description, company,
	city, region, country, latitude, longitude,
	employment_type, work_mode, experience_level,
	salary_min, salary_max, salary_avg, salary_currency, salary_period,
	published_at, source_url`

// Storage reads job offers from PostgreSQL. It never writes.
type Storage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStorage creates a new Storage instance
func NewStorage(db *sqlx.DB, logger *slog.Logger) *Storage {
	return &Storage{
		db:     db,
		logger: logger,
	}
}

func (s *Storage) Name() string {
	return SourceDatabase
}

// SearchRecords returns one page of offers matching text and location, newest first
func (s *Storage) SearchRecords(ctx context.Context, text, location string, page, pageSize int) ([]domain.RawJobRecord, error) {
	q := domain.Query{Page: page, PageSize: pageSize}
	if q.Page < 1 {
		q.Page = domain.DefaultPage
	}
	if q.PageSize <= 0 {
		q.PageSize = domain.DefaultPageSize
	}

	query := "SELECT" + jobOfferColumns + `
		FROM job_offers
		WHERE 1=1
	`
	args := []interface{}{}
	argIdx := 1

	if text = strings.TrimSpace(text); text != "" {
		query += fmt.Sprintf(" AND (title ILIKE $%d OR description ILIKE $%d OR company ILIKE $%d)", argIdx, argIdx, argIdx)
		args = append(args, likePattern(text))
		argIdx++
	}

	if location = strings.TrimSpace(location); location != "" {
		query += fmt.Sprintf(" AND (city ILIKE $%d OR region ILIKE $%d OR country ILIKE $%d)", argIdx, argIdx, argIdx)
		args = append(args, likePattern(location))
		argIdx++
	}

	query += " ORDER BY published_at DESC NULLS LAST, id ASC"
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, q.PageSize, (q.Page-1)*q.PageSize)

	start := time.Now()

	var rows []JobOffer
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("%w: failed to list job offers: %v", domain.ErrUpstreamUnavailable, err)
	}

	records := make([]domain.RawJobRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.Record())
	}

	s.logger.Debug("Job offers loaded",
		slog.Int("records", len(records)),
		slog.Int("page", q.Page),
		slog.Duration("duration", time.Since(start)),
	)

	return records, nil
}

// likePattern escapes LIKE wildcards and wraps v for a contains match
func likePattern(v string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(v) + "%"
}
