//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	kafkaadapter "github.com/emberline/wildfire-cascade/internal/adapter/kafka"
	"github.com/emberline/wildfire-cascade/internal/domain"
	"github.com/emberline/wildfire-cascade/internal/pipeline"
)

const testAlertTopic = "test-wildfire-risk-alerts"

// startKafka launches a single-node Kafka container and returns its broker
// address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("test-cluster"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminate kafka container: %v", err)
		}
	})

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err, "resolve kafka brokers")
	require.NotEmpty(t, brokers)
	return brokers[0]
}

// createTopic creates the topic ahead of time so the writer does not race
// topic auto-creation.
func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err, "dial broker")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "resolve controller")

	controllerConn, err := kafkago.Dial("tcp",
		net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err, "dial controller")
	defer controllerConn.Close()

	require.NoError(t, controllerConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestAlertWriterRoundTrip publishes a high-risk alert batch through the
// real writer and reads it back off the topic.
func TestAlertWriterRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testAlertTopic)

	writer := kafkaadapter.NewWriter([]string{broker}, testAlertTopic, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	generatedAt := time.Date(2018, 11, 8, 15, 10, 0, 0, time.UTC)
	alerts := []pipeline.Alert{
		{
			AssetID:            "osm_node_101",
			AssetName:          "Paradise Substation",
			Category:           domain.CategoryPowerSubstation,
			Score:              0.7527,
			DistanceKm:         3.5938,
			ContributingFireID: "firms_23987_0512_0",
			CascadeCards: []domain.CascadeCard{
				{Title: "Downstream outage", Severity: domain.SeverityCritical},
			},
			BBox:        "-121.8,39.5,-121,40.1",
			GeneratedAt: generatedAt,
		},
		{
			AssetID:     "osm_way_303",
			AssetName:   "Skyway",
			Category:    domain.CategoryRoadSegment,
			Score:       0.7101,
			BBox:        "-121.8,39.5,-121,40.1",
			GeneratedAt: generatedAt,
		},
	}
	require.NoError(t, writer.PublishAlerts(ctx, alerts))

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  []string{broker},
		Topic:    testAlertTopic,
		GroupID:  "test-alert-consumer",
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	for i := range alerts {
		readCtx, cancelRead := context.WithTimeout(ctx, 30*time.Second)
		msg, err := consumer.ReadMessage(readCtx)
		cancelRead()
		require.NoError(t, err, "read alert %d from topic", i)

		var got pipeline.Alert
		require.NoError(t, json.Unmarshal(msg.Value, &got))
		assert.Equal(t, alerts[i].AssetID, string(msg.Key))
		assert.Equal(t, alerts[i].AssetID, got.AssetID)
		assert.Equal(t, alerts[i].Category, got.Category)
		assert.InDelta(t, alerts[i].Score, got.Score, 1e-12)
		assert.True(t, got.GeneratedAt.Equal(generatedAt))

		headers := make(map[string]string, len(msg.Headers))
		for _, h := range msg.Headers {
			headers[h.Key] = string(h.Value)
		}
		assert.Equal(t, string(alerts[i].Category), headers["category"])
		assert.Equal(t, generatedAt.Format(time.RFC3339), headers["generated_at"])
	}
}
