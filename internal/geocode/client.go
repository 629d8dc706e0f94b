// Package geocode turns coordinates into display addresses and place queries
// into coordinates, backed by the Google Geocoding API.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"listing-browser/internal/metrics"
	"listing-browser/internal/models"

	"golang.org/x/time/rate"
)

// ErrNoResult is returned when the API finds nothing for a query
var ErrNoResult = errors.New("no geocoding result")

const DefaultBaseURL = "https://maps.googleapis.com/maps/api/geocode/json"

// Geocoder resolves coordinates and free-text queries
type Geocoder interface {
	Reverse(ctx context.Context, p models.LatLng) (string, error)
	Forward(ctx context.Context, query string) ([]models.Place, error)
}

// Client calls the Google Geocoding JSON API
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *CircuitBreaker
}

type ClientConfig struct {
	APIKey            string
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	FailureThreshold  int
	ResetTimeout      time.Duration
}

func NewClient(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 10
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = time.Minute
	}
	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		breaker:    NewCircuitBreaker(cfg.FailureThreshold, cfg.ResetTimeout),
	}
}

// Breaker exposes the client's circuit breaker
func (c *Client) Breaker() *CircuitBreaker {
	return c.breaker
}

type apiResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// Reverse returns the formatted address of the first result for p
func (c *Client) Reverse(ctx context.Context, p models.LatLng) (string, error) {
	q := url.Values{}
	q.Set("latlng", strconv.FormatFloat(p.Lat, 'f', -1, 64)+","+strconv.FormatFloat(p.Lng, 'f', -1, 64))
	resp, err := c.do(ctx, "reverse", q)
	if err != nil {
		return "", err
	}
	return resp.Results[0].FormattedAddress, nil
}

// Forward returns the places matching a free-text query
func (c *Client) Forward(ctx context.Context, query string) ([]models.Place, error) {
	q := url.Values{}
	q.Set("address", query)
	resp, err := c.do(ctx, "forward", q)
	if err != nil {
		return nil, err
	}
	places := make([]models.Place, 0, len(resp.Results))
	for _, r := range resp.Results {
		places = append(places, models.Place{
			Lat:              r.Geometry.Location.Lat,
			Lng:              r.Geometry.Location.Lng,
			FormattedAddress: r.FormattedAddress,
		})
	}
	return places, nil
}

func (c *Client) do(ctx context.Context, kind string, q url.Values) (*apiResponse, error) {
	if !c.breaker.CanProceed() {
		metrics.GeocodeLookups.WithLabelValues(kind, "circuit_open").Inc()
		return nil, ErrCircuitOpen
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q.Set("key", c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		c.breaker.RecordFailure(0)
		metrics.GeocodeLookups.WithLabelValues(kind, "error").Inc()
		return nil, fmt.Errorf("geocode request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		c.breaker.RecordFailure(res.StatusCode)
		metrics.GeocodeLookups.WithLabelValues(kind, "error").Inc()
		return nil, fmt.Errorf("geocode request: status %d", res.StatusCode)
	}

	var body apiResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		c.breaker.RecordFailure(res.StatusCode)
		metrics.GeocodeLookups.WithLabelValues(kind, "error").Inc()
		return nil, fmt.Errorf("decode geocode response: %w", err)
	}

	switch body.Status {
	case "OK":
		if len(body.Results) == 0 {
			break
		}
		c.breaker.RecordSuccess()
		metrics.GeocodeLookups.WithLabelValues(kind, "ok").Inc()
		return &body, nil
	case "ZERO_RESULTS":
	case "OVER_QUERY_LIMIT", "OVER_DAILY_LIMIT":
		c.breaker.RecordFailure(http.StatusTooManyRequests)
		metrics.GeocodeLookups.WithLabelValues(kind, "error").Inc()
		return nil, fmt.Errorf("geocode %s: %s", body.Status, body.ErrorMessage)
	case "REQUEST_DENIED":
		c.breaker.RecordFailure(http.StatusForbidden)
		metrics.GeocodeLookups.WithLabelValues(kind, "error").Inc()
		return nil, fmt.Errorf("geocode %s: %s", body.Status, body.ErrorMessage)
	default:
		c.breaker.RecordFailure(http.StatusInternalServerError)
		metrics.GeocodeLookups.WithLabelValues(kind, "error").Inc()
		return nil, fmt.Errorf("geocode %s: %s", body.Status, body.ErrorMessage)
	}

	c.breaker.RecordSuccess()
	metrics.GeocodeLookups.WithLabelValues(kind, "empty").Inc()
	return nil, ErrNoResult
}
