package domain

import "time"

// FirePoint is a single satellite fire detection. Immutable once built by
// the FIRMS adapter; discarded after the request that fetched it.
type FirePoint struct {
	ID         string    `json:"id"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Confidence float64   `json:"confidence"` // 0–100
	AcquiredAt time.Time `json:"acquired_at,omitempty"`
	Source     string    `json:"source,omitempty"` // FIRMS product label, e.g. VIIRS_NOAA20_NRT
}

// AssetCategory is the closed set of infrastructure categories the cascade
// rules know about. Loose Overpass tag combinations are mapped into this
// enum at the adapter boundary, with CategoryUnknown as the catch-all so
// rule lookup is total.
type AssetCategory string

const (
	CategoryPowerSubstation AssetCategory = "power_substation"
	CategoryPowerLine       AssetCategory = "power_line"
	CategoryHospital        AssetCategory = "hospital"
	CategoryWaterTreatment  AssetCategory = "water_treatment"
	CategoryRoadSegment     AssetCategory = "road_segment"
	CategoryUnknown         AssetCategory = "unknown"
)

// Asset is a piece of infrastructure exposed to wildfire risk.
type Asset struct {
	ID        string        `json:"id"`
	Category  AssetCategory `json:"category"`
	Latitude  float64       `json:"latitude"`
	Longitude float64       `json:"longitude"`
	Name      string        `json:"name,omitempty"`
}

// WindVector is the wind used for alignment scoring. FromDegrees follows
// the meteorological convention: the direction the wind blows from.
// Speed is carried for presentation but does not enter the score.
type WindVector struct {
	FromDegrees float64 `json:"from_degrees"`
	SpeedKmh    float64 `json:"speed_kmh,omitempty"`
}

// CascadeCard is a short structured description of a downstream consequence
// if the asset fails.
type CascadeCard struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
}

// Card severity labels, ordered from least to most serious.
const (
	SeverityModerate = "moderate"
	SeveritySevere   = "severe"
	SeverityCritical = "critical"
)

// RiskResult is the per-asset outcome of one aggregation: the score from the
// worst contributing fire plus any cascade cards the score unlocked.
type RiskResult struct {
	AssetID             string        `json:"asset_id"`
	Score               float64       `json:"score"`
	ContributingFireID  string        `json:"contributing_fire_id,omitempty"`
	DistanceKm          float64       `json:"distance_km,omitempty"`
	WindAlignmentFactor float64       `json:"wind_alignment_factor,omitempty"`
	CascadeCards        []CascadeCard `json:"cascade_cards"`
}
