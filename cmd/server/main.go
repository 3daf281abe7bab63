package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/emberline/wildfire-cascade/internal/adapter/filecache"
	"github.com/emberline/wildfire-cascade/internal/adapter/firms"
	httpadapter "github.com/emberline/wildfire-cascade/internal/adapter/http"
	kafkaadapter "github.com/emberline/wildfire-cascade/internal/adapter/kafka"
	"github.com/emberline/wildfire-cascade/internal/adapter/openmeteo"
	"github.com/emberline/wildfire-cascade/internal/adapter/overpass"
	"github.com/emberline/wildfire-cascade/internal/config"
	"github.com/emberline/wildfire-cascade/internal/domain"
	"github.com/emberline/wildfire-cascade/internal/observability"
	"github.com/emberline/wildfire-cascade/internal/pipeline"
	"github.com/emberline/wildfire-cascade/internal/scenario"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	var (
		fireSource    domain.FireSource    = firms.NewClient(cfg.FIRMSAPIKey, cfg.FIRMSBaseURL, cfg.FIRMSSource, cfg.FIRMSTimeout, metrics, logger)
		assetSource   domain.AssetSource   = overpass.NewClient(cfg.OverpassURL, cfg.OverpassTimeout, metrics, logger)
		weatherSource domain.WeatherSource = openmeteo.NewClient(cfg.OpenMeteoBaseURL, cfg.OpenMeteoTimeout, metrics, logger)
	)

	if cfg.CacheEnabled {
		cache, err := filecache.New(cfg.CacheDir)
		if err != nil {
			logger.Error("failed to initialize cache", "error", err, "dir", cfg.CacheDir)
			os.Exit(1)
		}
		fireSource = filecache.NewCachedFireSource(fireSource, cache, cfg.FIRMSCacheTTL, metrics)
		assetSource = filecache.NewCachedAssetSource(assetSource, cache, cfg.OverpassCacheTTL, metrics)
		weatherSource = filecache.NewCachedWeatherSource(weatherSource, cache, cfg.WeatherCacheTTL, metrics)
		logger.Info("disk cache enabled", "dir", cfg.CacheDir,
			"firms_ttl", cfg.FIRMSCacheTTL, "overpass_ttl", cfg.OverpassCacheTTL, "weather_ttl", cfg.WeatherCacheTTL)
	} else {
		logger.Info("disk cache disabled")
	}

	// Alert publishing is feature-flagged via ALERTS_ENABLED / KAFKA_BROKERS.
	var publisher pipeline.AlertPublisher
	var alertWriter *kafkaadapter.Writer
	if cfg.AlertsEnabled {
		alertWriter = kafkaadapter.NewWriter(cfg.KafkaBrokers, cfg.KafkaAlertTopic, logger)
		publisher = alertWriter
		logger.Info("kafka alerting enabled", "brokers", cfg.KafkaBrokers,
			"topic", cfg.KafkaAlertTopic, "min_score", cfg.AlertMinScore)
	} else {
		logger.Info("kafka alerting disabled")
	}

	rules := domain.DefaultCascadeRules()
	assessor := pipeline.New(fireSource, assetSource, weatherSource,
		domain.DefaultScoreWeights(), rules, publisher, cfg.AlertMinScore, logger, metrics)

	store := scenario.NewStore(cfg.ScenarioDir)
	hub := httpadapter.NewHub(logger, metrics)
	go hub.Run()

	srv := httpadapter.NewServer(cfg.HTTPAddr, assessor, fireSource, assetSource, store, rules, hub, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if alertWriter != nil {
		if err := alertWriter.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
