package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// EarthRadiusKm is the mean Earth radius used for haversine distances.
const EarthRadiusKm = 6371.0

// Coordinate is a WGS-84 latitude/longitude pair in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Validate reports ErrInvalidCoordinate when either component is out of range.
func (c Coordinate) Validate() error {
	if c.Lat < -90 || c.Lat > 90 || math.IsNaN(c.Lat) {
		return fmt.Errorf("%w: latitude %v outside [-90, 90]", ErrInvalidCoordinate, c.Lat)
	}
	if c.Lon < -180 || c.Lon > 180 || math.IsNaN(c.Lon) {
		return fmt.Errorf("%w: longitude %v outside [-180, 180]", ErrInvalidCoordinate, c.Lon)
	}
	return nil
}

// DistanceKm returns the great-circle distance between a and b in kilometers.
func DistanceKm(a, b Coordinate) (float64, error) {
	if err := a.Validate(); err != nil {
		return 0, err
	}
	if err := b.Validate(); err != nil {
		return 0, err
	}

	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)
	dLat := radians(b.Lat - a.Lat)
	dLon := radians(b.Lon - a.Lon)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon
	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h)), nil
}

// BearingDegrees returns the initial compass bearing from from to to,
// normalized to [0, 360). Identical points yield 0, which is not an error.
func BearingDegrees(from, to Coordinate) (float64, error) {
	if err := from.Validate(); err != nil {
		return 0, err
	}
	if err := to.Validate(); err != nil {
		return 0, err
	}
	if from == to {
		return 0, nil
	}

	lat1 := radians(from.Lat)
	lat2 := radians(to.Lat)
	dLon := radians(to.Lon - from.Lon)

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)
	return math.Mod(degrees(math.Atan2(y, x))+360, 360), nil
}

// BBox is a geographic bounding box in the FIRMS/Overpass order
// west,south,east,north.
type BBox struct {
	West  float64 `json:"west"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	North float64 `json:"north"`
}

// ParseBBox parses "west,south,east,north" and validates the corners.
func ParseBBox(s string) (BBox, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return BBox{}, fmt.Errorf("%w: bbox %q must be west,south,east,north", ErrInvalidInput, s)
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return BBox{}, fmt.Errorf("%w: bbox component %q is not a number", ErrInvalidInput, p)
		}
		vals[i] = v
	}
	b := BBox{West: vals[0], South: vals[1], East: vals[2], North: vals[3]}
	if err := (Coordinate{Lat: b.South, Lon: b.West}).Validate(); err != nil {
		return BBox{}, err
	}
	if err := (Coordinate{Lat: b.North, Lon: b.East}).Validate(); err != nil {
		return BBox{}, err
	}
	if b.South > b.North {
		return BBox{}, fmt.Errorf("%w: bbox south %v exceeds north %v", ErrInvalidInput, b.South, b.North)
	}
	return b, nil
}

// Center returns the midpoint of the box, used for area weather lookups.
func (b BBox) Center() Coordinate {
	return Coordinate{Lat: (b.South + b.North) / 2, Lon: (b.West + b.East) / 2}
}

// String renders the box back into the west,south,east,north wire form.
func (b BBox) String() string {
	return fmt.Sprintf("%g,%g,%g,%g", b.West, b.South, b.East, b.North)
}

// Contains reports whether the coordinate lies inside the box, edges included.
func (b BBox) Contains(c Coordinate) bool {
	return c.Lat >= b.South && c.Lat <= b.North && c.Lon >= b.West && c.Lon <= b.East
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
func degrees(rad float64) float64 { return rad * 180 / math.Pi }
