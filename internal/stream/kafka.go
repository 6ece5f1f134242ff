package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/i474232898/env-monitor/internal/weather"
)

// messageWriter is the subset of *kafkago.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes readings to a Kafka topic.
// It implements weather.Publisher.
type Writer struct {
	writer messageWriter
	source string
}

// NewWriter creates a Kafka producer for topic. source is stamped on every
// message header so consumers can tell monitors apart.
func NewWriter(brokers []string, topic, source string, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
		WriteTimeout: 10 * time.Second,
	}
	logger.Info("kafka reading publisher enabled", "brokers", brokers, "topic", topic)
	return &Writer{writer: w, source: source}
}

// Publish serializes r and writes it as a single message.
func (w *Writer) Publish(ctx context.Context, r weather.Reading) error {
	msg, err := serializeToMessage(r, w.source)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write reading message: %w", err)
	}
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a Reading into a Kafka message keyed by its timestamp.
func serializeToMessage(r weather.Reading, source string) (kafkago.Message, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize reading: %w", err)
	}
	observedAt := r.Timestamp.UTC().Format(time.RFC3339)
	return kafkago.Message{
		Key:   []byte(observedAt),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "source", Value: []byte(source)},
			{Key: "observed_at", Value: []byte(observedAt)},
		},
	}, nil
}
