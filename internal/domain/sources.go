package domain

import "context"

// FireQuery selects fire detections for one assessment.
type FireQuery struct {
	BBox          BBox
	Days          int     // how many days back to query, 1–10
	Source        string  // FIRMS product, e.g. VIIRS_NOAA20_NRT
	MinConfidence float64 // drop detections below this confidence; 0 keeps all
}

// WeatherSummary is the averaged forecast used for scoring and presentation.
type WeatherSummary struct {
	Wind         WindVector `json:"wind"`
	HumidityPct  float64    `json:"humidity_pct"`
	TemperatureC float64    `json:"temperature_c"`
}

// FireSource supplies fire detection points for a bounding box.
type FireSource interface {
	FetchFires(ctx context.Context, q FireQuery) ([]FirePoint, error)
}

// AssetSource supplies infrastructure assets for a bounding box.
type AssetSource interface {
	FetchAssets(ctx context.Context, bbox BBox) ([]Asset, error)
}

// WeatherSource supplies an averaged weather summary for a point over the
// next horizonHours hours.
type WeatherSource interface {
	FetchWeather(ctx context.Context, at Coordinate, horizonHours int) (WeatherSummary, error)
}
