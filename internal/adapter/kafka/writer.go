// Package kafka publishes high-risk assessment results to an alert topic
// so downstream consumers (pagers, dashboards) can react without polling
// the HTTP API.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/emberline/wildfire-cascade/internal/pipeline"
)

// Writer produces alerts to a Kafka topic. It implements
// pipeline.AlertPublisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the alert topic.
func NewWriter(brokers []string, topic string, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishAlerts serializes and publishes the batch in a single
// WriteMessages call.
func (w *Writer) PublishAlerts(ctx context.Context, alerts []pipeline.Alert) error {
	if len(alerts) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(alerts))
	for i := range alerts {
		msg, err := serializeToMessage(alerts[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	return w.writer.WriteMessages(ctx, msgs...)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals an Alert into a Kafka message keyed by asset
// ID, so repeated alerts for the same asset land on the same partition.
func serializeToMessage(alert pipeline.Alert) (kafkago.Message, error) {
	data, err := json.Marshal(alert)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize alert: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(alert.AssetID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "category", Value: []byte(alert.Category)},
			{Key: "generated_at", Value: []byte(alert.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}
