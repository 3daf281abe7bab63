package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberline/wildfire-cascade/internal/domain"
	"github.com/emberline/wildfire-cascade/internal/observability"
)

type stubFireSource struct {
	fires []domain.FirePoint
	err   error
	query domain.FireQuery
}

func (s *stubFireSource) FetchFires(_ context.Context, q domain.FireQuery) ([]domain.FirePoint, error) {
	s.query = q
	return s.fires, s.err
}

type stubAssetSource struct {
	assets []domain.Asset
	err    error
}

func (s *stubAssetSource) FetchAssets(context.Context, domain.BBox) ([]domain.Asset, error) {
	return s.assets, s.err
}

type stubWeatherSource struct {
	summary domain.WeatherSummary
	err     error
	at      domain.Coordinate
}

func (s *stubWeatherSource) FetchWeather(_ context.Context, at domain.Coordinate, _ int) (domain.WeatherSummary, error) {
	s.at = at
	return s.summary, s.err
}

type capturingPublisher struct {
	alerts []Alert
	err    error
	calls  int
}

func (p *capturingPublisher) PublishAlerts(_ context.Context, alerts []Alert) error {
	p.calls++
	p.alerts = append(p.alerts, alerts...)
	return p.err
}

var campFireBBox = domain.BBox{West: -121.8, South: 39.5, East: -121.0, North: 40.1}

func campFireFixture() (*stubFireSource, *stubAssetSource, *stubWeatherSource) {
	fires := &stubFireSource{fires: []domain.FirePoint{
		{ID: "fire_0", Latitude: 39.79, Longitude: -121.44, Confidence: 85, Source: "VIIRS_NOAA20_NRT"},
	}}
	assets := &stubAssetSource{assets: []domain.Asset{
		{ID: "osm_node_101", Name: "Feather Sub", Category: domain.CategoryPowerSubstation, Latitude: 39.80, Longitude: -121.40},
		{ID: "osm_way_202", Name: "Skyway", Category: domain.CategoryRoadSegment, Latitude: 39.60, Longitude: -121.75},
	}}
	weather := &stubWeatherSource{summary: domain.WeatherSummary{
		Wind:         domain.WindVector{FromDegrees: 90, SpeedKmh: 40},
		HumidityPct:  22,
		TemperatureC: 18,
	}}
	return fires, assets, weather
}

func newAssessor(fires domain.FireSource, assets domain.AssetSource, weather domain.WeatherSource, pub AlertPublisher) *Assessor {
	return New(fires, assets, weather,
		domain.DefaultScoreWeights(), domain.DefaultCascadeRules(),
		pub, 0.7,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		observability.NewMetricsForTesting())
}

func TestAssess_ScoresAndPublishes(t *testing.T) {
	fires, assets, weather := campFireFixture()
	pub := &capturingPublisher{}
	a := newAssessor(fires, assets, weather, pub)

	frozen := time.Date(2018, 11, 8, 15, 10, 0, 0, time.UTC)
	a.SetClock(clockwork.NewFakeClockAt(frozen))

	got, err := a.Assess(context.Background(), Request{BBox: campFireBBox, HorizonHours: 24, FIRMSDays: 1})
	require.NoError(t, err)

	assert.Equal(t, "-121.8,39.5,-121,40.1", got.BBox)
	assert.Equal(t, 24, got.HorizonHours)
	assert.Equal(t, 1, got.FireCount)
	assert.Equal(t, 2, got.AssetCount)
	assert.Equal(t, frozen, got.GeneratedAt)
	require.Len(t, got.Results, 2)

	// The upwind substation 3.6 km from the fire must lead the ranking
	// and clear the alert threshold.
	top := got.Results[0]
	assert.Equal(t, "osm_node_101", top.AssetID)
	assert.Greater(t, top.Score, 0.7)
	assert.NotEmpty(t, top.CascadeCards)

	require.Equal(t, 1, pub.calls)
	require.Len(t, pub.alerts, 1)
	assert.Equal(t, "osm_node_101", pub.alerts[0].AssetID)
	assert.Equal(t, "Feather Sub", pub.alerts[0].AssetName)
	assert.Equal(t, domain.CategoryPowerSubstation, pub.alerts[0].Category)
	assert.Equal(t, frozen, pub.alerts[0].GeneratedAt)
}

func TestAssess_Defaults(t *testing.T) {
	fires, assets, weather := campFireFixture()
	a := newAssessor(fires, assets, weather, nil)

	got, err := a.Assess(context.Background(), Request{BBox: campFireBBox})
	require.NoError(t, err)

	assert.Equal(t, DefaultHorizonHours, got.HorizonHours)
	assert.Equal(t, 1, fires.query.Days)
	assert.InDelta(t, campFireBBox.Center().Lat, weather.at.Lat, 1e-9)
	assert.InDelta(t, campFireBBox.Center().Lon, weather.at.Lon, 1e-9)
}

func TestAssess_NoAlertsBelowThreshold(t *testing.T) {
	fires, assets, weather := campFireFixture()
	// A distant low-confidence fire keeps every score under the threshold.
	fires.fires = []domain.FirePoint{
		{ID: "fire_0", Latitude: 40.05, Longitude: -121.05, Confidence: 10, Source: "VIIRS_NOAA20_NRT"},
	}
	pub := &capturingPublisher{}
	a := newAssessor(fires, assets, weather, pub)

	got, err := a.Assess(context.Background(), Request{BBox: campFireBBox, HorizonHours: 24})
	require.NoError(t, err)
	require.Len(t, got.Results, 2)
	assert.Zero(t, pub.calls)
}

func TestAssess_PublishFailureDoesNotFailAssessment(t *testing.T) {
	fires, assets, weather := campFireFixture()
	pub := &capturingPublisher{err: errors.New("broker down")}
	a := newAssessor(fires, assets, weather, pub)

	got, err := a.Assess(context.Background(), Request{BBox: campFireBBox, HorizonHours: 24})
	require.NoError(t, err)
	assert.NotEmpty(t, got.Results)
	assert.Equal(t, 1, pub.calls)
}

func TestAssess_UpstreamErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*stubFireSource, *stubAssetSource, *stubWeatherSource)
		wantMsg string
	}{
		{
			name:    "fire source fails",
			mutate:  func(f *stubFireSource, _ *stubAssetSource, _ *stubWeatherSource) { f.err = errors.New("firms 401") },
			wantMsg: "fetch fires",
		},
		{
			name:    "asset source fails",
			mutate:  func(_ *stubFireSource, a *stubAssetSource, _ *stubWeatherSource) { a.err = errors.New("overpass 429") },
			wantMsg: "fetch assets",
		},
		{
			name:    "weather source fails",
			mutate:  func(_ *stubFireSource, _ *stubAssetSource, w *stubWeatherSource) { w.err = errors.New("timeout") },
			wantMsg: "fetch weather",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fires, assets, weather := campFireFixture()
			tt.mutate(fires, assets, weather)
			a := newAssessor(fires, assets, weather, nil)

			_, err := a.Assess(context.Background(), Request{BBox: campFireBBox, HorizonHours: 24})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestAssess_BadHorizonSurfacesValidationError(t *testing.T) {
	fires, assets, weather := campFireFixture()
	a := newAssessor(fires, assets, weather, nil)

	_, err := a.Assess(context.Background(), Request{BBox: campFireBBox, HorizonHours: 400})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCheckReadiness(t *testing.T) {
	fires, assets, weather := campFireFixture()
	a := newAssessor(fires, assets, weather, nil)

	require.Error(t, a.CheckReadiness(context.Background()))

	_, err := a.Assess(context.Background(), Request{BBox: campFireBBox, HorizonHours: 24})
	require.NoError(t, err)
	require.NoError(t, a.CheckReadiness(context.Background()))
}
