package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	sanFrancisco = Coordinate{Lat: 37.7749, Lon: -122.4194}
	losAngeles   = Coordinate{Lat: 34.0522, Lon: -118.2437}
)

func TestDistanceKm(t *testing.T) {
	t.Run("known distance", func(t *testing.T) {
		d, err := DistanceKm(sanFrancisco, losAngeles)
		require.NoError(t, err)
		assert.InDelta(t, 559.12, d, 0.5)
	})

	t.Run("symmetry", func(t *testing.T) {
		ab, err := DistanceKm(sanFrancisco, losAngeles)
		require.NoError(t, err)
		ba, err := DistanceKm(losAngeles, sanFrancisco)
		require.NoError(t, err)
		assert.Equal(t, ab, ba)
	})

	t.Run("identity", func(t *testing.T) {
		d, err := DistanceKm(sanFrancisco, sanFrancisco)
		require.NoError(t, err)
		assert.Equal(t, 0.0, d)
	})

	t.Run("latitude out of range", func(t *testing.T) {
		_, err := DistanceKm(Coordinate{Lat: 91, Lon: 0}, losAngeles)
		require.ErrorIs(t, err, ErrInvalidCoordinate)
	})

	t.Run("longitude out of range", func(t *testing.T) {
		_, err := DistanceKm(sanFrancisco, Coordinate{Lat: 0, Lon: -180.5})
		require.ErrorIs(t, err, ErrInvalidCoordinate)
	})
}

func TestBearingDegrees(t *testing.T) {
	t.Run("due east on the equator", func(t *testing.T) {
		b, err := BearingDegrees(Coordinate{}, Coordinate{Lat: 0, Lon: 1})
		require.NoError(t, err)
		assert.InDelta(t, 90.0, b, 1e-9)
	})

	t.Run("due north", func(t *testing.T) {
		b, err := BearingDegrees(Coordinate{}, Coordinate{Lat: 1, Lon: 0})
		require.NoError(t, err)
		assert.InDelta(t, 0.0, b, 1e-9)
	})

	t.Run("due west normalizes into [0,360)", func(t *testing.T) {
		b, err := BearingDegrees(Coordinate{}, Coordinate{Lat: 0, Lon: -1})
		require.NoError(t, err)
		assert.InDelta(t, 270.0, b, 1e-9)
	})

	t.Run("degenerate same point returns zero without error", func(t *testing.T) {
		b, err := BearingDegrees(sanFrancisco, sanFrancisco)
		require.NoError(t, err)
		assert.Equal(t, 0.0, b)
	})

	t.Run("invalid coordinate", func(t *testing.T) {
		_, err := BearingDegrees(Coordinate{Lat: -91, Lon: 0}, sanFrancisco)
		require.ErrorIs(t, err, ErrInvalidCoordinate)
	})
}

func TestParseBBox(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		b, err := ParseBBox("-121.8,39.5,-121.0,40.1")
		require.NoError(t, err)
		assert.Equal(t, BBox{West: -121.8, South: 39.5, East: -121.0, North: 40.1}, b)
		assert.Equal(t, Coordinate{Lat: 39.8, Lon: -121.4}, b.Center())
	})

	t.Run("round trips through String", func(t *testing.T) {
		b, err := ParseBBox("-121.8,39.5,-121.0,40.1")
		require.NoError(t, err)
		again, err := ParseBBox(b.String())
		require.NoError(t, err)
		assert.Equal(t, b, again)
	})

	t.Run("wrong component count", func(t *testing.T) {
		_, err := ParseBBox("-121.8,39.5,-121.0")
		require.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("non numeric component", func(t *testing.T) {
		_, err := ParseBBox("-121.8,39.5,east,40.1")
		require.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("corner out of range", func(t *testing.T) {
		_, err := ParseBBox("-181,39.5,-121.0,40.1")
		require.ErrorIs(t, err, ErrInvalidCoordinate)
	})

	t.Run("south above north", func(t *testing.T) {
		_, err := ParseBBox("-121.8,40.1,-121.0,39.5")
		require.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestBBoxContains(t *testing.T) {
	b := BBox{West: -121.8, South: 39.5, East: -121.0, North: 40.1}
	assert.True(t, b.Contains(Coordinate{Lat: 39.8, Lon: -121.4}))
	assert.True(t, b.Contains(Coordinate{Lat: 39.5, Lon: -121.8}), "edges are inside")
	assert.False(t, b.Contains(Coordinate{Lat: 40.2, Lon: -121.4}))
	assert.False(t, b.Contains(Coordinate{Lat: 39.8, Lon: -120.9}))
}
