package domain

import "errors"

var (
	// ErrUpstreamUnavailable is returned when the job provider fails or times out
	ErrUpstreamUnavailable = errors.New("upstream job provider unavailable")

	// ErrCacheBackendUnavailable is returned when the distributed cache cannot be reached
	ErrCacheBackendUnavailable = errors.New("cache backend unavailable")

	// ErrGeocodeUnavailable is returned when a location cannot be geocoded
	ErrGeocodeUnavailable = errors.New("geocode unavailable")

	// ErrMalformedObservation is returned when a salary observation cannot be interpreted
	ErrMalformedObservation = errors.New("malformed salary observation")

	// ErrCacheMiss is returned when a key has no fresh entry
	ErrCacheMiss = errors.New("cache miss")

	// ErrRefreshUnavailable is returned when refresh requests cannot be published
	ErrRefreshUnavailable = errors.New("cache refresh queue unavailable")

	// ErrInvalidQuery is returned for query parameters that cannot be honored
	ErrInvalidQuery = errors.New("invalid query")
)
