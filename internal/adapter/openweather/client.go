package openweather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/city-weather-report/internal/domain"
	"github.com/couchcryptid/city-weather-report/internal/observability"
)

// DefaultBaseURL is the OpenWeatherMap current-weather endpoint.
const DefaultBaseURL = "https://api.openweathermap.org/data/2.5/weather"

// Client fetches current weather from the OpenWeatherMap API, one city per call.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an OpenWeatherMap client. The API key is sent with every
// request; baseURL may be empty to use DefaultBaseURL.
func NewClient(apiKey, baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		metrics: metrics,
		logger:  logger,
	}
}

// Fetch issues a single current-weather request for city with metric units.
// Every failure is returned as a *domain.FetchError.
func (c *Client) Fetch(ctx context.Context, city string) (domain.WeatherRecord, error) {
	params := url.Values{
		"q":     {city},
		"units": {"metric"},
		"appid": {c.apiKey},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return domain.WeatherRecord{}, fetchError(city, domain.ReasonRequest, fmt.Errorf("create request: %w", err))
	}

	c.logger.Debug("requesting current weather", "city", city)
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.FetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return domain.WeatherRecord{}, fetchError(city, domain.ReasonRequest, redact(err, c.apiKey))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return domain.WeatherRecord{}, fetchError(city, domain.ReasonStatus, statusError(resp.StatusCode, body))
	}

	var payload response
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return domain.WeatherRecord{}, fetchError(city, domain.ReasonDecode, fmt.Errorf("decode response: %w", err))
	}

	rec, err := payload.toRecord(city)
	if err != nil {
		return domain.WeatherRecord{}, fetchError(city, domain.ReasonMissingField, err)
	}
	return rec, nil
}

func fetchError(city, reason string, err error) error {
	return &domain.FetchError{City: city, Reason: reason, Err: err}
}

// statusError formats a non-2xx response, preferring the API's own message.
func statusError(status int, body []byte) error {
	var apiErr apiError
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
		return fmt.Errorf("openweathermap API error: status %d: %s", status, apiErr.Message)
	}
	return fmt.Errorf("openweathermap API error: status %d: %s", status, strings.TrimSpace(string(body)))
}

// redact strips the API key from transport errors, which embed the request URL.
func redact(err error, apiKey string) error {
	if apiKey == "" || !strings.Contains(err.Error(), apiKey) {
		return err
	}
	return errors.New(strings.ReplaceAll(err.Error(), apiKey, "REDACTED"))
}
