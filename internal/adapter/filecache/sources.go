package filecache

import (
	"context"
	"fmt"
	"time"

	"github.com/emberline/wildfire-cascade/internal/domain"
	"github.com/emberline/wildfire-cascade/internal/observability"
)

// CachedFireSource wraps a FireSource with the disk cache. The cache key
// ignores MinConfidence: the full upstream response is cached and the
// confidence filter reapplied, so changing the threshold never refetches.
type CachedFireSource struct {
	inner   domain.FireSource
	cache   *Cache
	ttl     time.Duration
	metrics *observability.Metrics
}

// NewCachedFireSource creates a cache decorator around a fire source.
func NewCachedFireSource(inner domain.FireSource, cache *Cache, ttl time.Duration, metrics *observability.Metrics) *CachedFireSource {
	return &CachedFireSource{inner: inner, cache: cache, ttl: ttl, metrics: metrics}
}

func (s *CachedFireSource) FetchFires(ctx context.Context, q domain.FireQuery) ([]domain.FirePoint, error) {
	key := fmt.Sprintf("firms_%s_%d_%s", q.Source, q.Days, q.BBox)

	var cached []domain.FirePoint
	if s.cache.Get(key, s.ttl, &cached) {
		s.metrics.CacheLookups.WithLabelValues("firms", "hit").Inc()
		return filterByConfidence(cached, q.MinConfidence), nil
	}
	s.metrics.CacheLookups.WithLabelValues("firms", "miss").Inc()

	unfiltered := q
	unfiltered.MinConfidence = 0
	fires, err := s.inner.FetchFires(ctx, unfiltered)
	if err != nil {
		return nil, err
	}
	// Cache only non-empty responses so a missing-key or transient empty
	// result does not mask real detections for a whole TTL window.
	if len(fires) > 0 {
		if err := s.cache.Put(key, fires); err != nil {
			return nil, err
		}
	}
	return filterByConfidence(fires, q.MinConfidence), nil
}

func filterByConfidence(fires []domain.FirePoint, minConfidence float64) []domain.FirePoint {
	if minConfidence <= 0 {
		return fires
	}
	kept := make([]domain.FirePoint, 0, len(fires))
	for _, f := range fires {
		if f.Confidence >= minConfidence {
			kept = append(kept, f)
		}
	}
	return kept
}

// CachedAssetSource wraps an AssetSource with the disk cache.
type CachedAssetSource struct {
	inner   domain.AssetSource
	cache   *Cache
	ttl     time.Duration
	metrics *observability.Metrics
}

// NewCachedAssetSource creates a cache decorator around an asset source.
func NewCachedAssetSource(inner domain.AssetSource, cache *Cache, ttl time.Duration, metrics *observability.Metrics) *CachedAssetSource {
	return &CachedAssetSource{inner: inner, cache: cache, ttl: ttl, metrics: metrics}
}

func (s *CachedAssetSource) FetchAssets(ctx context.Context, bbox domain.BBox) ([]domain.Asset, error) {
	key := fmt.Sprintf("osm_%s", bbox)

	var cached []domain.Asset
	if s.cache.Get(key, s.ttl, &cached) {
		s.metrics.CacheLookups.WithLabelValues("overpass", "hit").Inc()
		return cached, nil
	}
	s.metrics.CacheLookups.WithLabelValues("overpass", "miss").Inc()

	assets, err := s.inner.FetchAssets(ctx, bbox)
	if err != nil {
		return nil, err
	}
	if len(assets) > 0 {
		if err := s.cache.Put(key, assets); err != nil {
			return nil, err
		}
	}
	return assets, nil
}

// CachedWeatherSource wraps a WeatherSource with the disk cache.
type CachedWeatherSource struct {
	inner   domain.WeatherSource
	cache   *Cache
	ttl     time.Duration
	metrics *observability.Metrics
}

// NewCachedWeatherSource creates a cache decorator around a weather source.
func NewCachedWeatherSource(inner domain.WeatherSource, cache *Cache, ttl time.Duration, metrics *observability.Metrics) *CachedWeatherSource {
	return &CachedWeatherSource{inner: inner, cache: cache, ttl: ttl, metrics: metrics}
}

func (s *CachedWeatherSource) FetchWeather(ctx context.Context, at domain.Coordinate, horizonHours int) (domain.WeatherSummary, error) {
	key := fmt.Sprintf("weather_%.3f_%.3f_%d", at.Lat, at.Lon, horizonHours)

	var cached domain.WeatherSummary
	if s.cache.Get(key, s.ttl, &cached) {
		s.metrics.CacheLookups.WithLabelValues("openmeteo", "hit").Inc()
		return cached, nil
	}
	s.metrics.CacheLookups.WithLabelValues("openmeteo", "miss").Inc()

	summary, err := s.inner.FetchWeather(ctx, at, horizonHours)
	if err != nil {
		return domain.WeatherSummary{}, err
	}
	if err := s.cache.Put(key, summary); err != nil {
		return domain.WeatherSummary{}, err
	}
	return summary, nil
}
