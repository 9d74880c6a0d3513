// Package geocode resolves city names to coordinates through OpenStreetMap Nominatim.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/AnassEREKYSY/MarketPulse/internal/domain"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL   = "https://nominatim.openstreetmap.org"
	DefaultUserAgent = "MarketPulse-Jobs/1.0"
	defaultTimeout   = 5 * time.Second
	// Nominatim's public usage policy allows one request per second
	defaultRequestsPerSecond = 1.0
)

// Config configures the Nominatim client
type Config struct {
	BaseURL           string
	UserAgent         string
	Timeout           time.Duration
	RequestsPerSecond float64
}

// Nominatim implements geo.Geocoder
type Nominatim struct {
	config  Config
	client  *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewNominatim creates a Nominatim client; unset fields fall back to defaults
func NewNominatim(config Config, logger *slog.Logger) *Nominatim {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.UserAgent == "" {
		config.UserAgent = DefaultUserAgent
	}
	if config.Timeout <= 0 {
		config.Timeout = defaultTimeout
	}
	if config.RequestsPerSecond <= 0 {
		config.RequestsPerSecond = defaultRequestsPerSecond
	}

	return &Nominatim{
		config:  config,
		client:  &http.Client{Timeout: config.Timeout},
		limiter: rate.NewLimiter(rate.Limit(config.RequestsPerSecond), 1),
		logger:  logger,
	}
}

type place struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Geocode returns the coordinates of the best match for city, country.
// Every failure wraps domain.ErrGeocodeUnavailable.
func (n *Nominatim) Geocode(ctx context.Context, city, country string) (domain.Coordinates, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return domain.Coordinates{}, fmt.Errorf("%w: empty city", domain.ErrGeocodeUnavailable)
	}

	q := city
	if country = strings.TrimSpace(country); country != "" {
		q = city + ", " + country
	}

	if err := n.limiter.Wait(ctx); err != nil {
		return domain.Coordinates{}, fmt.Errorf("%w: %v", domain.ErrGeocodeUnavailable, err)
	}

	params := url.Values{}
	params.Set("q", q)
	params.Set("format", "json")
	params.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(n.config.BaseURL, "/")+"/search?"+params.Encode(), nil)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("failed to build geocode request: %w", err)
	}
	req.Header.Set("User-Agent", n.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		n.logger.Warn("Geocode request failed",
			slog.String("query", q),
			slog.Any("error", err),
		)
		return domain.Coordinates{}, fmt.Errorf("%w: %v", domain.ErrGeocodeUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Coordinates{}, fmt.Errorf("%w: nominatim status %d", domain.ErrGeocodeUnavailable, resp.StatusCode)
	}

	var places []place
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return domain.Coordinates{}, fmt.Errorf("%w: failed to decode response: %v", domain.ErrGeocodeUnavailable, err)
	}
	if len(places) == 0 {
		return domain.Coordinates{}, fmt.Errorf("%w: no match for %q", domain.ErrGeocodeUnavailable, q)
	}

	lat, latErr := strconv.ParseFloat(places[0].Lat, 64)
	lon, lonErr := strconv.ParseFloat(places[0].Lon, 64)
	if latErr != nil || lonErr != nil {
		return domain.Coordinates{}, fmt.Errorf("%w: unreadable coordinates for %q", domain.ErrGeocodeUnavailable, q)
	}

	return domain.Coordinates{Latitude: lat, Longitude: lon}, nil
}
