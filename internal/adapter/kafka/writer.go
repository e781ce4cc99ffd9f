// Package kafka publishes the latest per-country snapshot to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/covid-data-etl/internal/config"
	"github.com/couchcryptid/covid-data-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// SnapshotWriter produces one message per country in the latest snapshot.
// It implements pipeline.Reporter.
type SnapshotWriter struct {
	writer messageWriter
	topic  string
	logger *slog.Logger
}

// NewSnapshotWriter creates a Kafka producer for the configured snapshot topic.
func NewSnapshotWriter(cfg *config.Config, logger *slog.Logger) *SnapshotWriter {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSnapshotTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &SnapshotWriter{writer: w, topic: cfg.KafkaSnapshotTopic, logger: logger}
}

// Name identifies the reporter in logs and metrics.
func (w *SnapshotWriter) Name() string { return "kafka-snapshot" }

// Report publishes the latest snapshot in a single WriteMessages call.
func (w *SnapshotWriter) Report(ctx context.Context, a *domain.Analysis) error {
	if len(a.Latest) == 0 {
		w.logger.Info("no snapshot records to publish", "topic", w.topic)
		return nil
	}
	asOf := a.LatestDate.Format(domain.DateLayout)
	msgs := make([]kafkago.Message, len(a.Latest))
	for i := range a.Latest {
		msg, err := serializeToMessage(a.Latest[i], asOf)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish snapshot: %w", err)
	}
	w.logger.Info("snapshot published", "topic", w.topic, "messages", len(msgs), "as_of", asOf)
	return nil
}

// Close flushes pending messages and releases the producer.
func (w *SnapshotWriter) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a snapshot record into a Kafka message keyed
// by location.
func serializeToMessage(r domain.Record, asOf string) (kafkago.Message, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize snapshot record %s: %w", r.Location, err)
	}
	return kafkago.Message{
		Key:   []byte(r.Location),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "iso_code", Value: []byte(r.ISOCode)},
			{Key: "as_of", Value: []byte(asOf)},
		},
	}, nil
}
