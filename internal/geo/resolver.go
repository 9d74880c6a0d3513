package geo

import (
	"context"
	"log/slog"
	"time"

	"github.com/AnassEREKYSY/MarketPulse/internal/cache"
	"github.com/AnassEREKYSY/MarketPulse/internal/domain"
	"golang.org/x/sync/singleflight"
)

// DefaultCoordinateTTL keeps resolved coordinates for a day
const DefaultCoordinateTTL = 24 * time.Hour

// Geocoder is the external lookup collaborator.
// It returns domain.ErrGeocodeUnavailable when a place cannot be resolved.
type Geocoder interface {
	Geocode(ctx context.Context, city, country string) (domain.Coordinates, error)
}

// Resolver returns the coordinates of a city, or false when they are unknown
type Resolver interface {
	Resolve(ctx context.Context, city, country string) (domain.Coordinates, bool)
}

// CachedResolver fronts a Geocoder with its own long-lived cache namespace.
// Concurrent lookups of the same place share one upstream call.
type CachedResolver struct {
	geocoder Geocoder
	cache    *cache.Cache
	ttl      time.Duration
	group    singleflight.Group
	logger   *slog.Logger
}

// NewCachedResolver creates a CachedResolver; ttl <= 0 uses DefaultCoordinateTTL
func NewCachedResolver(geocoder Geocoder, c *cache.Cache, ttl time.Duration, logger *slog.Logger) *CachedResolver {
	if ttl <= 0 {
		ttl = DefaultCoordinateTTL
	}
	return &CachedResolver{
		geocoder: geocoder,
		cache:    c,
		ttl:      ttl,
		logger:   logger,
	}
}

func (r *CachedResolver) Resolve(ctx context.Context, city, country string) (domain.Coordinates, bool) {
	key := cache.GeocodeKey(city, country)

	if coords, ok := cache.Get[domain.Coordinates](ctx, r.cache, key); ok {
		return coords, true
	}

	v, err, _ := r.group.Do(key, func() (any, error) {
		coords, err := r.geocoder.Geocode(ctx, city, country)
		if err != nil {
			return nil, err
		}
		// unresolved places are not cached so a later batch may retry them
		_ = cache.Set(ctx, r.cache, key, coords, r.ttl)
		return coords, nil
	})
	if err != nil {
		r.logger.Debug("Geocode lookup failed",
			slog.String("city", city),
			slog.String("country", country),
			slog.Any("error", err),
		)
		return domain.Coordinates{}, false
	}

	return v.(domain.Coordinates), true
}
