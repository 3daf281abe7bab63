// Package openmeteo fetches hourly forecasts from the Open-Meteo API
// (https://open-meteo.com/), which needs no credentials, and averages them
// into the wind summary the risk scorer consumes.
package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/emberline/wildfire-cascade/internal/domain"
	"github.com/emberline/wildfire-cascade/internal/observability"
)

// Fallback values when the forecast comes back empty, matching a calm
// Northern California afternoon. Named so the replay fixtures can document
// what a default-weather run means.
const (
	DefaultTemperatureC = 25.0
	DefaultHumidityPct  = 35.0
	DefaultWindSpeedKmh = 15.0
	DefaultWindFromDeg  = 180.0
)

// Client implements domain.WeatherSource against the Open-Meteo forecast API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an Open-Meteo client.
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		metrics: metrics,
		logger:  logger,
	}
}

// FetchWeather averages the first horizonHours hourly samples at the given
// point into a WeatherSummary.
func (c *Client) FetchWeather(ctx context.Context, at domain.Coordinate, horizonHours int) (domain.WeatherSummary, error) {
	params := url.Values{
		"latitude":      {fmt.Sprintf("%g", at.Lat)},
		"longitude":     {fmt.Sprintf("%g", at.Lon)},
		"hourly":        {"temperature_2m,relative_humidity_2m,wind_speed_10m,wind_direction_10m"},
		"forecast_days": {"2"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return domain.WeatherSummary{}, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.UpstreamDuration.WithLabelValues("openmeteo").Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.UpstreamRequests.WithLabelValues("openmeteo", "error").Inc()
		return domain.WeatherSummary{}, fmt.Errorf("openmeteo request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.metrics.UpstreamRequests.WithLabelValues("openmeteo", "error").Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.WeatherSummary{}, fmt.Errorf("openmeteo API error: status %d: %s", resp.StatusCode, body)
	}

	var parsed response
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		c.metrics.UpstreamRequests.WithLabelValues("openmeteo", "error").Inc()
		return domain.WeatherSummary{}, fmt.Errorf("decode openmeteo response: %w", err)
	}
	c.metrics.UpstreamRequests.WithLabelValues("openmeteo", "success").Inc()

	return summarize(parsed.Hourly, horizonHours), nil
}

// summarize averages the first horizonHours samples of each series,
// falling back to the named defaults when a series is empty.
func summarize(h hourly, horizonHours int) domain.WeatherSummary {
	if horizonHours < 1 {
		horizonHours = 1
	}
	return domain.WeatherSummary{
		TemperatureC: meanOrDefault(h.Temperature, horizonHours, DefaultTemperatureC),
		HumidityPct:  meanOrDefault(h.Humidity, horizonHours, DefaultHumidityPct),
		Wind: domain.WindVector{
			SpeedKmh:    meanOrDefault(h.WindSpeed, horizonHours, DefaultWindSpeedKmh),
			FromDegrees: meanOrDefault(h.WindDirection, horizonHours, DefaultWindFromDeg),
		},
	}
}

func meanOrDefault(series []float64, take int, def float64) float64 {
	if len(series) == 0 {
		return def
	}
	if take > len(series) {
		take = len(series)
	}
	var sum float64
	for _, v := range series[:take] {
		sum += v
	}
	return sum / float64(take)
}

// Open-Meteo API response types.

type response struct {
	Hourly hourly `json:"hourly"`
}

type hourly struct {
	Temperature   []float64 `json:"temperature_2m"`
	Humidity      []float64 `json:"relative_humidity_2m"`
	WindSpeed     []float64 `json:"wind_speed_10m"`
	WindDirection []float64 `json:"wind_direction_10m"`
}
