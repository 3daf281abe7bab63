// Package pipeline orchestrates one risk assessment: fetch fires, assets,
// and weather for a bounding box, score them through the domain core, and
// publish high-risk alerts.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/emberline/wildfire-cascade/internal/domain"
	"github.com/emberline/wildfire-cascade/internal/observability"
)

// DefaultHorizonHours is used when a request does not set a horizon.
const DefaultHorizonHours = 24

// Alert is one high-risk result flagged for publication.
type Alert struct {
	AssetID            string               `json:"asset_id"`
	AssetName          string               `json:"asset_name,omitempty"`
	Category           domain.AssetCategory `json:"category"`
	Score              float64              `json:"score"`
	DistanceKm         float64              `json:"distance_km"`
	ContributingFireID string               `json:"contributing_fire_id"`
	CascadeCards       []domain.CascadeCard `json:"cascade_cards"`
	BBox               string               `json:"bbox"`
	GeneratedAt        time.Time            `json:"generated_at"`
}

// AlertPublisher delivers high-risk alerts to interested consumers.
type AlertPublisher interface {
	PublishAlerts(ctx context.Context, alerts []Alert) error
}

// Request selects what one assessment covers.
type Request struct {
	BBox          domain.BBox
	HorizonHours  int
	FIRMSDays     int
	FireSource    string
	MinConfidence float64
}

// Assessment is the full outcome of one risk computation, served as the
// /risk response body and broadcast to live map clients.
type Assessment struct {
	BBox         string                `json:"bbox"`
	HorizonHours int                   `json:"horizon_hours"`
	Weather      domain.WeatherSummary `json:"weather"`
	FireCount    int                   `json:"fire_count"`
	AssetCount   int                   `json:"asset_count"`
	Fires        []domain.FirePoint    `json:"fires"`
	Assets       []domain.Asset        `json:"assets"`
	Results      []domain.RiskResult   `json:"results"`
	GeneratedAt  time.Time             `json:"generated_at"`
}

// Assessor wires the ingest sources to the domain core.
type Assessor struct {
	fires   domain.FireSource
	assets  domain.AssetSource
	weather domain.WeatherSource

	weights domain.ScoreWeights
	rules   domain.CascadeRules

	publisher     AlertPublisher // nil disables alerting
	alertMinScore float64

	logger  *slog.Logger
	metrics *observability.Metrics
	clock   clockwork.Clock
	ready   atomic.Bool
}

// New creates an Assessor. Pass a nil publisher to disable alerting.
func New(fires domain.FireSource, assets domain.AssetSource, weather domain.WeatherSource,
	weights domain.ScoreWeights, rules domain.CascadeRules,
	publisher AlertPublisher, alertMinScore float64,
	logger *slog.Logger, metrics *observability.Metrics) *Assessor {
	return &Assessor{
		fires:         fires,
		assets:        assets,
		weather:       weather,
		weights:       weights,
		rules:         rules,
		publisher:     publisher,
		alertMinScore: alertMinScore,
		logger:        logger,
		metrics:       metrics,
		clock:         clockwork.NewRealClock(),
	}
}

// SetClock swaps the time source so tests get deterministic GeneratedAt
// stamps. Pass nil to reset to real time.
func (a *Assessor) SetClock(c clockwork.Clock) {
	if c == nil {
		a.clock = clockwork.NewRealClock()
		return
	}
	a.clock = c
}

// CheckReadiness returns nil once at least one assessment has completed,
// or an error describing why the service is not yet ready.
func (a *Assessor) CheckReadiness(_ context.Context) error {
	if !a.ready.Load() {
		return errors.New("no assessment completed yet")
	}
	return nil
}

// Assess runs one fetch-score cycle for the request. Upstream failures
// abort the assessment; alert publishing failures do not (the caller
// already has the results, losing a notification is the lesser harm).
func (a *Assessor) Assess(ctx context.Context, req Request) (*Assessment, error) {
	start := time.Now()

	if req.HorizonHours == 0 {
		req.HorizonHours = DefaultHorizonHours
	}
	if req.FIRMSDays < 1 {
		req.FIRMSDays = 1
	}

	fires, err := a.fires.FetchFires(ctx, domain.FireQuery{
		BBox:          req.BBox,
		Days:          req.FIRMSDays,
		Source:        req.FireSource,
		MinConfidence: req.MinConfidence,
	})
	if err != nil {
		a.metrics.AssessmentErrors.Inc()
		return nil, fmt.Errorf("fetch fires: %w", err)
	}

	assets, err := a.assets.FetchAssets(ctx, req.BBox)
	if err != nil {
		a.metrics.AssessmentErrors.Inc()
		return nil, fmt.Errorf("fetch assets: %w", err)
	}

	weather, err := a.weather.FetchWeather(ctx, req.BBox.Center(), req.HorizonHours)
	if err != nil {
		a.metrics.AssessmentErrors.Inc()
		return nil, fmt.Errorf("fetch weather: %w", err)
	}

	results, err := domain.Aggregate(fires, assets, weather.Wind, req.HorizonHours, a.weights, a.rules)
	if err != nil {
		a.metrics.AssessmentErrors.Inc()
		return nil, fmt.Errorf("aggregate risk: %w", err)
	}

	assessment := &Assessment{
		BBox:         req.BBox.String(),
		HorizonHours: req.HorizonHours,
		Weather:      weather,
		FireCount:    len(fires),
		AssetCount:   len(assets),
		Fires:        fires,
		Assets:       assets,
		Results:      results,
		GeneratedAt:  a.clock.Now().UTC(),
	}

	a.publishAlerts(ctx, assessment)

	a.metrics.AssessmentsTotal.Inc()
	a.metrics.AssessmentDuration.Observe(time.Since(start).Seconds())
	a.metrics.FiresPerAssessment.Observe(float64(len(fires)))
	a.metrics.AssetsScored.Observe(float64(len(assets)))
	a.ready.Store(true)

	a.logger.Info("assessment complete",
		"bbox", assessment.BBox,
		"fires", assessment.FireCount,
		"assets", assessment.AssetCount,
		"horizon_hours", assessment.HorizonHours,
	)
	return assessment, nil
}

// publishAlerts flags results at or above the alert threshold and sends
// them best-effort.
func (a *Assessor) publishAlerts(ctx context.Context, assessment *Assessment) {
	if a.publisher == nil {
		return
	}

	names := make(map[string]string, len(assessment.Assets))
	categories := make(map[string]domain.AssetCategory, len(assessment.Assets))
	for _, asset := range assessment.Assets {
		names[asset.ID] = asset.Name
		categories[asset.ID] = asset.Category
	}

	var alerts []Alert
	for _, r := range assessment.Results {
		if r.Score < a.alertMinScore {
			// Results are sorted descending; nothing below the
			// threshold can follow.
			break
		}
		alerts = append(alerts, Alert{
			AssetID:            r.AssetID,
			AssetName:          names[r.AssetID],
			Category:           categories[r.AssetID],
			Score:              r.Score,
			DistanceKm:         r.DistanceKm,
			ContributingFireID: r.ContributingFireID,
			CascadeCards:       r.CascadeCards,
			BBox:               assessment.BBox,
			GeneratedAt:        assessment.GeneratedAt,
		})
	}
	if len(alerts) == 0 {
		return
	}

	if err := a.publisher.PublishAlerts(ctx, alerts); err != nil {
		a.metrics.AlertErrors.Inc()
		a.logger.Warn("alert publish failed", "error", err, "alerts", len(alerts))
		return
	}
	a.metrics.AlertsPublished.Add(float64(len(alerts)))
}
