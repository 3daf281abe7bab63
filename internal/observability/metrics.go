package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// risk service.
type Metrics struct {
	AssessmentsTotal   prometheus.Counter
	AssessmentErrors   prometheus.Counter
	AssessmentDuration prometheus.Histogram
	AssetsScored       prometheus.Histogram
	FiresPerAssessment prometheus.Histogram

	// Upstream ingest metrics.
	UpstreamRequests *prometheus.CounterVec   // labels: source={firms,overpass,openmeteo}, outcome={success,error}
	UpstreamDuration *prometheus.HistogramVec // labels: source
	CacheLookups     *prometheus.CounterVec   // labels: source, result={hit,miss}

	// Alerting and live feed.
	AlertsPublished prometheus.Counter
	AlertErrors     prometheus.Counter
	WSClients       prometheus.Gauge
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.AssessmentsTotal,
		m.AssessmentErrors,
		m.AssessmentDuration,
		m.AssetsScored,
		m.FiresPerAssessment,
		m.UpstreamRequests,
		m.UpstreamDuration,
		m.CacheLookups,
		m.AlertsPublished,
		m.AlertErrors,
		m.WSClients,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		AssessmentsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wildfire",
			Name:      "assessments_total",
			Help:      "Total completed risk assessments.",
		}),
		AssessmentErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wildfire",
			Name:      "assessment_errors_total",
			Help:      "Total failed risk assessments.",
		}),
		AssessmentDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "wildfire",
			Name:      "assessment_duration_seconds",
			Help:      "Duration of a complete fetch-score-respond cycle.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		AssetsScored: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "wildfire",
			Name:      "assets_scored",
			Help:      "Number of assets scored per assessment.",
			Buckets:   []float64{1, 10, 50, 100, 250, 500, 1000, 2500},
		}),
		FiresPerAssessment: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "wildfire",
			Name:      "fires_per_assessment",
			Help:      "Number of fire detections per assessment.",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
		}),
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wildfire",
			Name:      "upstream_requests_total",
			Help:      "Upstream API requests by source and outcome.",
		}, []string{"source", "outcome"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "wildfire",
			Name:      "upstream_request_duration_seconds",
			Help:      "Upstream API request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"source"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wildfire",
			Name:      "cache_lookups_total",
			Help:      "Disk cache lookups by source and result.",
		}, []string{"source", "result"}),
		AlertsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wildfire",
			Name:      "alerts_published_total",
			Help:      "High-risk alerts published to the alert topic.",
		}),
		AlertErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wildfire",
			Name:      "alert_errors_total",
			Help:      "Failed alert publishes.",
		}),
		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "wildfire",
			Name:      "ws_clients",
			Help:      "Connected live-feed websocket clients.",
		}),
	}
}
