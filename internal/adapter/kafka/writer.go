// Package kafka publishes completed scenarios to a Kafka topic for
// downstream consumers, e.g. a planning dashboard or archive.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/harborwatch/sector-scoring/internal/domain"
)

// Writer produces scenario records to a Kafka topic.
// It implements pipeline.ScenarioSink.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the scenario sink topic.
func NewWriter(brokers []string, topic string, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish serializes one scenario and writes it keyed by run ID, so replayed
// runs with identical inputs compact onto the same key.
func (w *Writer) Publish(ctx context.Context, scenario *domain.Scenario) error {
	msg, err := serializeToMessage(scenario)
	if err != nil {
		return err
	}
	return w.writer.WriteMessages(ctx, msg)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a Scenario into a Kafka message.
func serializeToMessage(scenario *domain.Scenario) (kafkago.Message, error) {
	data, err := json.Marshal(scenario)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize scenario: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(scenario.RunID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "mission", Value: []byte(scenario.Mission)},
			{Key: "generated_at", Value: []byte(scenario.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}
