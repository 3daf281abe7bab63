// Package firms fetches active fire detections from the NASA FIRMS area
// CSV API (https://firms.modaps.eosdis.nasa.gov/api/area/).
package firms

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/emberline/wildfire-cascade/internal/domain"
	"github.com/emberline/wildfire-cascade/internal/observability"
)

// DefaultSource is the FIRMS product queried when a request does not name one.
const DefaultSource = "VIIRS_NOAA20_NRT"

// Client implements domain.FireSource against the FIRMS area CSV API.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	source     string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a FIRMS client. An empty apiKey is allowed: FetchFires
// then reports zero fires instead of failing, so the service stays usable
// without credentials (the map just shows no detections). An empty source
// falls back to DefaultSource.
func NewClient(apiKey, baseURL, source string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	if source == "" {
		source = DefaultSource
	}
	return &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		source:  source,
		metrics: metrics,
		logger:  logger,
	}
}

// FetchFires queries detections for the bbox over the last q.Days days and
// maps CSV rows into FirePoints, applying the q.MinConfidence filter.
func (c *Client) FetchFires(ctx context.Context, q domain.FireQuery) ([]domain.FirePoint, error) {
	if c.apiKey == "" {
		c.logger.Warn("FIRMS_API_KEY not set, reporting zero fires", "bbox", q.BBox.String())
		return []domain.FirePoint{}, nil
	}

	source := q.Source
	if source == "" {
		source = c.source
	}
	days := q.Days
	if days < 1 {
		days = 1
	}

	u := fmt.Sprintf("%s/%s/%s/%s/%d", c.baseURL, c.apiKey, source, q.BBox, days)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.UpstreamDuration.WithLabelValues("firms").Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.UpstreamRequests.WithLabelValues("firms", "error").Inc()
		return nil, fmt.Errorf("firms request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.metrics.UpstreamRequests.WithLabelValues("firms", "error").Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("firms API error: status %d: %s", resp.StatusCode, body)
	}

	fires, err := parseCSV(resp.Body, source)
	if err != nil {
		c.metrics.UpstreamRequests.WithLabelValues("firms", "error").Inc()
		return nil, err
	}
	c.metrics.UpstreamRequests.WithLabelValues("firms", "success").Inc()

	if q.MinConfidence > 0 {
		kept := fires[:0]
		for _, f := range fires {
			if f.Confidence >= q.MinConfidence {
				kept = append(kept, f)
			}
		}
		fires = kept
	}
	return fires, nil
}

// parseCSV maps the FIRMS CSV body into FirePoints. Rows with unparsable
// coordinates or confidence are skipped; a detection we cannot place is
// useless, and FIRMS emits the occasional ragged row.
func parseCSV(r io.Reader, source string) ([]domain.FirePoint, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // product schemas differ in column count

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse firms csv: %w", err)
	}
	if len(rows) < 2 {
		return []domain.FirePoint{}, nil
	}

	col := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		col[strings.TrimSpace(name)] = i
	}

	fires := make([]domain.FirePoint, 0, len(rows)-1)
	for _, row := range rows[1:] {
		lat, ok1 := fieldFloat(row, col, "latitude")
		lon, ok2 := fieldFloat(row, col, "longitude")
		if !ok1 || !ok2 {
			continue
		}

		confidence, ok := confidenceScore(field(row, col, "confidence"))
		if !ok {
			continue
		}

		fires = append(fires, domain.FirePoint{
			ID:         fireID(row, col, len(fires)),
			Latitude:   lat,
			Longitude:  lon,
			Confidence: confidence,
			AcquiredAt: parseAcquisition(field(row, col, "acq_date"), field(row, col, "acq_time")),
			Source:     source,
		})
	}
	return fires, nil
}

// confidenceScore normalizes FIRMS confidence to [0, 100]. VIIRS products
// emit categorical labels (l/n/h) instead of percentages; those map to
// 30/60/90.
func confidenceScore(raw string) (float64, bool) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	switch raw {
	case "":
		return 0, false
	case "l", "low":
		return 30, true
	case "n", "nominal":
		return 60, true
	case "h", "high":
		return 90, true
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	if v < 0 {
		v = 0
	}
	if v > 100 {
		v = 100
	}
	return v, true
}

// fireID builds a stable-enough identifier from the row. FIRMS has no
// primary key; track plus acquisition time disambiguates most detections
// and the index covers the rest.
func fireID(row []string, col map[string]int, index int) string {
	if track := field(row, col, "track"); track != "" {
		return fmt.Sprintf("fire_%s_%d", track, index)
	}
	if acqTime := field(row, col, "acq_time"); acqTime != "" {
		return fmt.Sprintf("fire_%s_%d", acqTime, index)
	}
	return fmt.Sprintf("fire_%d", index)
}

// parseAcquisition combines FIRMS acq_date (2006-01-02) and acq_time (HHMM
// as an integer, so "512" means 05:12 UTC). Zero time when unparsable.
func parseAcquisition(date, hhmm string) time.Time {
	if date == "" {
		return time.Time{}
	}
	day, err := time.Parse("2006-01-02", strings.TrimSpace(date))
	if err != nil {
		return time.Time{}
	}

	hhmm = strings.TrimSpace(hhmm)
	if n, err := strconv.Atoi(hhmm); err == nil && n >= 0 && n < 2400 {
		hour, mins := n/100, n%100
		if mins < 60 {
			return day.Add(time.Duration(hour)*time.Hour + time.Duration(mins)*time.Minute)
		}
	}
	return day
}

func field(row []string, col map[string]int, name string) string {
	i, ok := col[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

func fieldFloat(row []string, col map[string]int, name string) (float64, bool) {
	raw := strings.TrimSpace(field(row, col, name))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
