// Package overpass fetches infrastructure assets from the OpenStreetMap
// Overpass API and maps loose OSM tags into the closed asset category enum.
package overpass

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/emberline/wildfire-cascade/internal/domain"
	"github.com/emberline/wildfire-cascade/internal/observability"
)

// queryTemplate selects the infrastructure the cascade rules know about.
// Bounding boxes in Overpass QL are (south,west,north,east).
const queryTemplate = `[out:json][timeout:25];
(
  node["power"="substation"](%[1]s);
  way["power"="substation"](%[1]s);

  way["power"="line"](%[1]s);
  way["power"="minor_line"](%[1]s);

  node["amenity"="hospital"](%[1]s);
  way["amenity"="hospital"](%[1]s);

  node["man_made"="water_works"](%[1]s);
  way["man_made"="water_works"](%[1]s);
  node["utility"="water"](%[1]s);

  way["highway"~"motorway|trunk|primary|secondary"](%[1]s);
);
out center tags;`

// BuildQuery renders the Overpass QL query for a bounding box. Exposed so
// the debug endpoint can show operators exactly what the service asks for.
func BuildQuery(bbox domain.BBox) string {
	coords := fmt.Sprintf("%g,%g,%g,%g", bbox.South, bbox.West, bbox.North, bbox.East)
	return fmt.Sprintf(queryTemplate, coords)
}

// Client implements domain.AssetSource against an Overpass interpreter.
type Client struct {
	httpClient *http.Client
	endpoint   string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an Overpass client.
func NewClient(endpoint string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		endpoint: endpoint,
		metrics:  metrics,
		logger:   logger,
	}
}

// FetchAssets queries the interpreter and maps elements into Assets.
// Elements without a usable coordinate are dropped; elements with
// unrecognized tags are kept under CategoryUnknown so nothing silently
// disappears between the map and the rules.
func (c *Client) FetchAssets(ctx context.Context, bbox domain.BBox) ([]domain.Asset, error) {
	form := url.Values{"data": {BuildQuery(bbox)}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.UpstreamDuration.WithLabelValues("overpass").Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.UpstreamRequests.WithLabelValues("overpass", "error").Inc()
		return nil, fmt.Errorf("overpass request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.metrics.UpstreamRequests.WithLabelValues("overpass", "error").Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("overpass API error: status %d: %s", resp.StatusCode, body)
	}

	var parsed response
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		c.metrics.UpstreamRequests.WithLabelValues("overpass", "error").Inc()
		return nil, fmt.Errorf("decode overpass response: %w", err)
	}
	c.metrics.UpstreamRequests.WithLabelValues("overpass", "success").Inc()

	assets := make([]domain.Asset, 0, len(parsed.Elements))
	for _, elem := range parsed.Elements {
		lat, lon, ok := elem.coordinate()
		if !ok {
			continue
		}
		category := classify(elem.Tags)
		name := elem.Tags["name"]
		if name == "" {
			name = string(category)
		}
		assets = append(assets, domain.Asset{
			ID:        fmt.Sprintf("osm_%s_%d", elem.Type, elem.ID),
			Category:  category,
			Latitude:  lat,
			Longitude: lon,
			Name:      name,
		})
	}
	return assets, nil
}

// classify maps OSM tag combinations onto the closed category enum. The
// enum keeps CascadeRules lookup total; anything the query matched but this
// switch does not recognize becomes CategoryUnknown.
func classify(tags map[string]string) domain.AssetCategory {
	switch {
	case tags["power"] == "substation":
		return domain.CategoryPowerSubstation
	case tags["power"] == "line" || tags["power"] == "minor_line":
		return domain.CategoryPowerLine
	case tags["amenity"] == "hospital":
		return domain.CategoryHospital
	case tags["man_made"] == "water_works" || tags["utility"] == "water":
		return domain.CategoryWaterTreatment
	case isMajorRoad(tags["highway"]):
		return domain.CategoryRoadSegment
	default:
		return domain.CategoryUnknown
	}
}

func isMajorRoad(highway string) bool {
	switch highway {
	case "motorway", "trunk", "primary", "secondary":
		return true
	}
	return false
}

// Overpass API response types.

type response struct {
	Elements []element `json:"elements"`
}

type element struct {
	Type   string            `json:"type"` // node or way
	ID     int64             `json:"id"`
	Lat    *float64          `json:"lat,omitempty"`
	Lon    *float64          `json:"lon,omitempty"`
	Center *center           `json:"center,omitempty"`
	Tags   map[string]string `json:"tags"`
}

type center struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// coordinate returns the node position or the way's center.
func (e element) coordinate() (float64, float64, bool) {
	if e.Lat != nil && e.Lon != nil {
		return *e.Lat, *e.Lon, true
	}
	if e.Center != nil {
		return e.Center.Lat, e.Center.Lon, true
	}
	return 0, 0, false
}
