// Package kafka consumes typed event batches from the risk-events topic and
// dispatches them to the signal store and the convergence aggregator.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/geofusion/instability-core/internal/config"
	"github.com/geofusion/instability-core/internal/convergence"
	"github.com/geofusion/instability-core/internal/domain"
	"github.com/geofusion/instability-core/internal/signals"
)

// Envelope is the wire format on the events topic: a kind discriminator and
// the raw batch payload, decoded per kind.
type Envelope struct {
	Kind    string          `json:"kind"`
	Records json.RawMessage `json:"records"`
}

// Consumer reads envelopes from Kafka and fans each batch out to the owning
// ingestion entry points. A malformed envelope or batch is logged and
// skipped; ingestion never fails the consume loop.
type Consumer struct {
	reader   *kafkago.Reader
	logger   *slog.Logger
	handlers map[string]handler
}

// handler pairs a kind's ingestion fan-out with its declared merge policy, so
// replace-versus-append semantics live in the kind registry rather than in
// prose on each ingest method.
type handler struct {
	policy domain.MergePolicy
	apply  func(json.RawMessage) error
}

// NewConsumer creates a consumer bound to the configured brokers, topic, and
// consumer group.
func NewConsumer(cfg *config.Config, store *signals.Store, agg *convergence.Aggregator, logger *slog.Logger) *Consumer {
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  cfg.KafkaBrokers,
		Topic:    cfg.KafkaEventTopic,
		GroupID:  cfg.KafkaGroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return &Consumer{
		reader:   reader,
		logger:   logger,
		handlers: buildHandlers(store, agg),
	}
}

// buildHandlers wires every envelope kind to its ingestion entry points and
// its merge policy. Kinds carrying geolocated live signals feed the
// aggregator as well as the per-country store; those dual-fed kinds carry the
// store's policy, since the aggregator side is always a snapshot replace for
// its own signal type.
func buildHandlers(store *signals.Store, agg *convergence.Aggregator) map[string]handler {
	return map[string]handler{
		"protest": {domain.AppendOnIngest, batch(func(recs []domain.ProtestEvent) {
			store.IngestProtests(recs)
			agg.IngestProtests(recs)
		})},
		"conflict":     {domain.AppendOnIngest, batch(store.IngestConflicts)},
		"ucdp":         {domain.LatestOnIngest, batch(store.IngestUCDP)},
		"humanitarian": {domain.LatestOnIngest, batch(store.IngestHumanitarian)},
		"displacement": {domain.ReplaceOnIngest, batch(store.IngestDisplacement)},
		"climate":      {domain.ReplaceOnIngest, batch(store.IngestClimate)},
		"military_flight": {domain.AppendOnIngest, batch(func(recs []domain.MilitaryFlight) {
			store.IngestMilitaryFlights(recs)
			agg.IngestFlights(recs)
		})},
		"military_vessel": {domain.AppendOnIngest, batch(func(recs []domain.MilitaryVessel) {
			store.IngestMilitaryVessels(recs)
			agg.IngestVessels(recs)
		})},
		"news_cluster": {domain.AppendOnIngest, batch(store.IngestNewsClusters)},
		"outage": {domain.AppendOnIngest, batch(func(recs []domain.InternetOutage) {
			store.IngestOutages(recs)
			agg.IngestOutages(recs)
		})},
		"strike": {domain.AppendOnIngest, batch(func(recs []domain.StrikeEvent) {
			store.IngestStrikes(recs)
			agg.IngestStrikes(recs)
		})},
		"aviation":         {domain.AppendOnIngest, batch(store.IngestAviation)},
		"advisory":         {domain.ReplaceOnIngest, batch(store.IngestAdvisories)},
		"ais_disruption":   {domain.ReplaceOnIngest, batch(agg.IngestAISDisruptions)},
		"fire_detection":   {domain.ReplaceOnIngest, batch(agg.IngestFireDetections)},
		"temporal_anomaly": {domain.ReplaceOnIngest, batch(agg.IngestTemporalAnomalies)},
		"theater_posture":  {domain.ReplaceOnIngest, batch(agg.IngestTheaterPostures)},
	}
}

// batch adapts a typed ingestion function to the raw envelope payload.
func batch[T any](apply func([]T)) func(json.RawMessage) error {
	return func(raw json.RawMessage) error {
		var recs []T
		if err := json.Unmarshal(raw, &recs); err != nil {
			return fmt.Errorf("decode batch: %w", err)
		}
		apply(recs)
		return nil
	}
}

// Run consumes until the context is cancelled or the reader is closed.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				c.logger.Info("kafka consumer stopping")
				return nil
			}
			return fmt.Errorf("read message: %w", err)
		}
		if err := c.dispatch(msg.Value); err != nil {
			c.logger.Warn("skipping message",
				"error", err,
				"partition", msg.Partition,
				"offset", msg.Offset)
		}
	}
}

// dispatch decodes one envelope and routes it by kind.
func (c *Consumer) dispatch(value []byte) error {
	var env Envelope
	if err := json.Unmarshal(value, &env); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}
	h, ok := c.handlers[env.Kind]
	if !ok {
		return fmt.Errorf("unknown envelope kind %q", env.Kind)
	}
	if err := h.apply(env.Records); err != nil {
		return fmt.Errorf("kind %s: %w", env.Kind, err)
	}
	c.logger.Debug("batch applied", "kind", env.Kind, "policy", h.policy)
	return nil
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
