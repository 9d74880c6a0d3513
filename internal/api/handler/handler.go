package handler

import (
	"context"
	"log/slog"

	"github.com/AnassEREKYSY/MarketPulse/internal/domain"
)

// MarketService answers the market queries and cache administration
type MarketService interface {
	Search(ctx context.Context, q domain.Query) domain.SearchResult
	Snapshot(ctx context.Context, q domain.Query) domain.Snapshot
	Statistics(ctx context.Context, q domain.Query) domain.StatisticsReport
	SalaryAnalytics(ctx context.Context, q domain.Query) domain.SalaryReport
	HeatMap(ctx context.Context, q domain.Query, metric domain.IntensityMetric) domain.HeatMapData
	Trends(ctx context.Context, q domain.Query, days int) domain.TrendData
	Refresh(ctx context.Context, q domain.Query) error
	Invalidate(ctx context.Context, key string) error
	InvalidatePattern(ctx context.Context, pattern string) (int, error)
}

// RefreshPublisher queues refresh requests for the worker
type RefreshPublisher interface {
	Request(ctx context.Context, q domain.Query) (domain.RefreshRequest, error)
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger  *slog.Logger
	Service MarketService
	// Publisher is optional; without it refreshes run inline
	Publisher RefreshPublisher
	// CacheKind is reported by the health check
	CacheKind   string
	ServiceName string
}

// MarketHandler handles the /jobs endpoints
type MarketHandler struct {
	logger  *slog.Logger
	service MarketService
}

// NewMarketHandler creates a new MarketHandler instance
func NewMarketHandler(deps *Dependencies) *MarketHandler {
	return &MarketHandler{
		logger:  deps.Logger,
		service: deps.Service,
	}
}

// CacheHandler handles the /cache endpoints
type CacheHandler struct {
	logger    *slog.Logger
	service   MarketService
	publisher RefreshPublisher
}

// NewCacheHandler creates a new CacheHandler instance
func NewCacheHandler(deps *Dependencies) *CacheHandler {
	return &CacheHandler{
		logger:    deps.Logger,
		service:   deps.Service,
		publisher: deps.Publisher,
	}
}
