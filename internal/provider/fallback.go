package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/AnassEREKYSY/MarketPulse/internal/domain"
)

// Source is a named fetch collaborator
type Source interface {
	Name() string
	SearchRecords(ctx context.Context, text, location string, page, pageSize int) ([]domain.RawJobRecord, error)
}

// Fallback asks each source in order and returns the first successful answer.
// Results of different sources are never merged.
type Fallback struct {
	sources []Source
	logger  *slog.Logger
}

func NewFallback(logger *slog.Logger, sources ...Source) *Fallback {
	return &Fallback{sources: sources, logger: logger}
}

func (f *Fallback) Name() string {
	return "fallback"
}

func (f *Fallback) SearchRecords(ctx context.Context, text, location string, page, pageSize int) ([]domain.RawJobRecord, error) {
	var errs []error

	for _, source := range f.sources {
		records, err := source.SearchRecords(ctx, text, location, page, pageSize)
		if err == nil {
			if records == nil {
				records = []domain.RawJobRecord{}
			}
			return records, nil
		}

		f.logger.Warn("Job source failed, trying next",
			slog.String("source", source.Name()),
			slog.Any("error", err),
		)
		errs = append(errs, fmt.Errorf("%s: %w", source.Name(), err))
	}

	if len(errs) == 0 {
		return nil, fmt.Errorf("%w: no job source configured", domain.ErrUpstreamUnavailable)
	}
	return nil, fmt.Errorf("%w: %w", domain.ErrUpstreamUnavailable, errors.Join(errs...))
}

// TopUp fills a window from several sources: the next source is asked only while
// fewer than pageSize records were collected. Records are concatenated in source
// order without deduplication. A failing source is skipped; TopUp fails only when
// every source it asked failed.
type TopUp struct {
	sources []Source
	logger  *slog.Logger
}

func NewTopUp(logger *slog.Logger, sources ...Source) *TopUp {
	return &TopUp{sources: sources, logger: logger}
}

func (t *TopUp) Name() string {
	return "topup"
}

func (t *TopUp) SearchRecords(ctx context.Context, text, location string, page, pageSize int) ([]domain.RawJobRecord, error) {
	if pageSize <= 0 {
		pageSize = domain.DefaultPageSize
	}

	var (
		records []domain.RawJobRecord
		errs    []error
		asked   int
	)
	for _, source := range t.sources {
		if len(records) >= pageSize {
			break
		}
		asked++

		batch, err := source.SearchRecords(ctx, text, location, page, pageSize)
		if err != nil {
			t.logger.Warn("Job source failed, topping up from the next",
				slog.String("source", source.Name()),
				slog.Any("error", err),
			)
			errs = append(errs, fmt.Errorf("%s: %w", source.Name(), err))
			continue
		}

		t.logger.Debug("Job source answered",
			slog.String("source", source.Name()),
			slog.Int("records", len(batch)),
		)
		records = append(records, batch...)
	}

	if asked == 0 {
		return nil, fmt.Errorf("%w: no job source configured", domain.ErrUpstreamUnavailable)
	}
	if len(errs) == asked {
		return nil, fmt.Errorf("%w: %w", domain.ErrUpstreamUnavailable, errors.Join(errs...))
	}

	if records == nil {
		records = []domain.RawJobRecord{}
	}
	if len(records) > pageSize {
		records = records[:pageSize]
	}
	return records, nil
}
