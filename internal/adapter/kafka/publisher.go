package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/geofusion/instability-core/internal/config"
)

// Publisher produces event envelopes onto the risk-events topic. Used by the
// synthetic generator and by integration tests.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a producer for the configured events topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaEventTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

// Publish wraps a typed record batch in an envelope and writes it, keyed by
// kind so one kind's batches stay ordered within a partition.
func (p *Publisher) Publish(ctx context.Context, kind string, records any) error {
	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("serialize %s batch: %w", kind, err)
	}
	value, err := json.Marshal(Envelope{Kind: kind, Records: payload})
	if err != nil {
		return fmt.Errorf("serialize envelope: %w", err)
	}
	return p.writer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(kind),
		Value: value,
		Headers: []kafkago.Header{
			{Key: "kind", Value: []byte(kind)},
		},
	})
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
