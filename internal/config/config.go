package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// NASA FIRMS fire detections. An empty API key is allowed: the
	// service then reports zero fires instead of failing, which keeps
	// the demo usable without credentials.
	FIRMSAPIKey  string
	FIRMSBaseURL string
	FIRMSSource  string
	FIRMSTimeout time.Duration

	// OpenStreetMap Overpass infrastructure queries.
	OverpassURL     string
	OverpassTimeout time.Duration

	// Open-Meteo weather summaries.
	OpenMeteoBaseURL string
	OpenMeteoTimeout time.Duration

	// TTL disk cache for upstream responses.
	CacheEnabled     bool
	CacheDir         string
	FIRMSCacheTTL    time.Duration
	OverpassCacheTTL time.Duration
	WeatherCacheTTL  time.Duration

	// Frozen scenario fixtures.
	ScenarioDir string

	// Kafka high-risk alert publishing (feature flagged).
	AlertsEnabled   bool
	KafkaBrokers    []string
	KafkaAlertTopic string
	AlertMinScore   float64
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	firmsTimeout, err := parseDuration("FIRMS_TIMEOUT", "20s")
	if err != nil {
		return nil, err
	}
	overpassTimeout, err := parseDuration("OVERPASS_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	openMeteoTimeout, err := parseDuration("OPENMETEO_TIMEOUT", "20s")
	if err != nil {
		return nil, err
	}
	firmsTTL, err := parseDuration("FIRMS_CACHE_TTL", "15m")
	if err != nil {
		return nil, err
	}
	overpassTTL, err := parseDuration("OVERPASS_CACHE_TTL", "1h")
	if err != nil {
		return nil, err
	}
	weatherTTL, err := parseDuration("WEATHER_CACHE_TTL", "30m")
	if err != nil {
		return nil, err
	}
	alertMinScore, err := parseAlertMinScore()
	if err != nil {
		return nil, err
	}

	alertsEnabled := envOrDefault("ALERTS_ENABLED", "false") == "true"

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		FIRMSAPIKey:  os.Getenv("FIRMS_API_KEY"),
		FIRMSBaseURL: envOrDefault("FIRMS_BASE_URL", "https://firms.modaps.eosdis.nasa.gov/api/area/csv"),
		FIRMSSource:  envOrDefault("FIRMS_SOURCE", "VIIRS_NOAA20_NRT"),
		FIRMSTimeout: firmsTimeout,

		OverpassURL:     envOrDefault("OVERPASS_URL", "https://overpass-api.de/api/interpreter"),
		OverpassTimeout: overpassTimeout,

		OpenMeteoBaseURL: envOrDefault("OPENMETEO_BASE_URL", "https://api.open-meteo.com/v1/forecast"),
		OpenMeteoTimeout: openMeteoTimeout,

		CacheEnabled:     envOrDefault("CACHE_ENABLED", "true") == "true",
		CacheDir:         envOrDefault("CACHE_DIR", "data/cache"),
		FIRMSCacheTTL:    firmsTTL,
		OverpassCacheTTL: overpassTTL,
		WeatherCacheTTL:  weatherTTL,

		ScenarioDir: envOrDefault("SCENARIO_DIR", "data/scenarios"),

		AlertsEnabled:   alertsEnabled,
		KafkaBrokers:    parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaAlertTopic: envOrDefault("KAFKA_ALERT_TOPIC", "wildfire-risk-alerts"),
		AlertMinScore:   alertMinScore,
	}

	if cfg.OverpassURL == "" {
		return nil, errors.New("OVERPASS_URL is required")
	}
	if cfg.AlertsEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("ALERTS_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.AlertsEnabled && cfg.KafkaAlertTopic == "" {
		return nil, errors.New("ALERTS_ENABLED is true but KAFKA_ALERT_TOPIC is not set")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDuration(key, def string) (time.Duration, error) {
	raw := envOrDefault(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, raw)
	}
	return d, nil
}

func parseAlertMinScore() (float64, error) {
	raw := envOrDefault("ALERT_MIN_SCORE", "0.7")
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 || v > 1 {
		return 0, fmt.Errorf("invalid ALERT_MIN_SCORE: %q", raw)
	}
	return v, nil
}

func parseBrokers(raw string) []string {
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
