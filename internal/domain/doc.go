// Package domain implements the wildfire risk core: distance and bearing
// geometry, wind alignment, logistic risk scoring, cascade impact rules,
// and the per-request aggregation that combines them.
//
// # Data Sources
//
// Fire detection points come from NASA FIRMS (Fire Information for Resource
// Management System), near-real-time satellite hotspot data. Infrastructure
// assets come from OpenStreetMap via the Overpass API. Both are fetched by
// the adapter layer; this package only sees in-memory values.
//
// # Conventions
//
// Coordinates are WGS-84 decimal degrees, latitude in [-90, 90] and
// longitude in [-180, 180]. Distances use the haversine formula with an
// Earth radius of 6371.0 km.
//
// Bearings are initial compass bearings in degrees, normalized to [0, 360).
//
// Wind direction uses the meteorological "from" convention: a wind of 90°
// blows from the east. Alignment compares the fire→asset bearing against
// the wind's from-direction and maps the angular difference onto [0, 1],
// where 1 means the wind carries fire influence directly toward the asset.
//
// FIRMS confidence is a percentage in [0, 100]. Some FIRMS products emit
// categorical labels instead (l/low, n/nominal, h/high); the FIRMS adapter
// maps those to 30, 60, and 90 before values reach this package.
//
// # Scoring
//
// Risk is a logistic transform of a linear combination of negative
// log-distance, normalized confidence, wind alignment, and a horizon
// factor. The coefficients are policy, not structure: they live in
// [ScoreWeights] and [DefaultScoreWeights] documents the demo defaults.
// Scenario replay depends on the same inputs and the same weights
// reproducing the same output, so weights are always passed explicitly.
//
// # Determinism
//
// Aggregation is a pure batch computation. Each asset yields exactly one
// result: the maximum-scoring fire wins, ties broken by smaller distance,
// then by earlier fire index. Results sort descending by score with a
// stable sort, so equal scores keep the asset input order.
package domain
