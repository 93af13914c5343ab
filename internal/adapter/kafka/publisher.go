// Package kafka publishes fetched weather observations to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/city-weather-report/internal/domain"
)

// Publisher produces one message per weather record.
// It implements pipeline.Publisher.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for topic.
func NewPublisher(brokers []string, topic string, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Publisher{writer: w, logger: logger}
}

// Publish serializes records and writes them in a single WriteMessages call.
// Messages are keyed by city so repeated observations of a city share a
// partition.
func (p *Publisher) Publish(ctx context.Context, runID string, observedAt time.Time, records []domain.WeatherRecord) error {
	if len(records) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(records))
	for i := range records {
		msg, err := serializeToMessage(records[i], runID, observedAt)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish to %s: %w", p.writer.Topic, err)
	}
	p.logger.Debug("records published", "topic", p.writer.Topic, "count", len(msgs))
	return nil
}

// Close flushes pending messages and closes the underlying Kafka writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals a WeatherRecord into a Kafka message.
func serializeToMessage(record domain.WeatherRecord, runID string, observedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize weather record: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(record.City),
		Value: data,
		Time:  observedAt,
		Headers: []kafkago.Header{
			{Key: "run_id", Value: []byte(runID)},
			{Key: "observed_at", Value: []byte(observedAt.UTC().Format(time.RFC3339))},
		},
	}, nil
}
