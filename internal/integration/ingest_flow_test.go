//go:build integration

package integration_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	kafkaadapter "github.com/geofusion/instability-core/internal/adapter/kafka"
	"github.com/geofusion/instability-core/internal/alerting"
	"github.com/geofusion/instability-core/internal/config"
	"github.com/geofusion/instability-core/internal/convergence"
	"github.com/geofusion/instability-core/internal/domain"
	"github.com/geofusion/instability-core/internal/geo"
	"github.com/geofusion/instability-core/internal/observability"
	"github.com/geofusion/instability-core/internal/pipeline"
	"github.com/geofusion/instability-core/internal/scoring"
	"github.com/geofusion/instability-core/internal/signals"
)

const testTopic = "test-risk-events"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka launches a single-broker Kafka container and returns its
// bootstrap address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("test-cluster"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err, "resolve brokers")
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err, "dial broker")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "resolve controller")

	ctrlConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err, "dial controller")
	defer ctrlConn.Close()

	require.NoError(t, ctrlConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// TestIngestFlowEndToEnd round-trips typed event batches through a real
// broker: publish envelopes, consume them into the store and aggregator, run
// a refresh cycle, and verify scores and alerts on the other side.
func TestIngestFlowEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	cfg := &config.Config{
		KafkaBrokers:    []string{broker},
		KafkaEventTopic: testTopic,
		KafkaGroupID:    fmt.Sprintf("test-ingest-%d", time.Now().UnixNano()),
	}

	logger := discardLogger()
	metrics := observability.NewMetricsForTesting()
	clock := clockwork.NewRealClock()

	ix := geo.NewIndex(logger)
	store := signals.NewStore(ix, logger, metrics)
	agg := convergence.New(ix, store.Resolver(), logger, clock)
	se := scoring.New(store, ix, logger, metrics, clock, 15*time.Minute)
	ae := alerting.New(logger, metrics, clock)
	driver := pipeline.New(se, ae, agg, time.Minute, logger, metrics, clock)

	// Publish one batch per kind we want to see land.
	pub := kafkaadapter.NewPublisher(cfg, logger)
	t.Cleanup(func() { _ = pub.Close() })

	require.NoError(t, pub.Publish(ctx, "ucdp", []domain.UCDPClassification{
		{Country: "Yemen", Intensity: domain.IntensityWar},
	}))
	require.NoError(t, pub.Publish(ctx, "outage", []domain.InternetOutage{
		{Country: "YE", Lat: 15, Lon: 45, Severity: domain.OutageTotal},
	}))
	flights := make([]domain.MilitaryFlight, 10)
	for i := range flights {
		flights[i] = domain.MilitaryFlight{OperatorCountry: "US", Lat: 15, Lon: 45}
	}
	require.NoError(t, pub.Publish(ctx, "military_flight", flights))

	// Consume until all three batches have landed.
	consumer := kafkaadapter.NewConsumer(cfg, store, agg, logger)
	t.Cleanup(func() { _ = consumer.Close() })

	consumeCtx, stopConsumer := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- consumer.Run(consumeCtx) }()

	require.Eventually(t, func() bool {
		landed := false
		store.Read(func(buckets map[string]*signals.Bucket) {
			b, ok := buckets["YE"]
			landed = ok && b.Intensity == domain.IntensityWar &&
				len(b.Outages) == 1 && b.FlightCount == 10
		})
		return landed && agg.Summary().ByType[domain.SignalFlightDensity] == 1
	}, 60*time.Second, 250*time.Millisecond, "batches did not land")

	stopConsumer()
	require.NoError(t, <-errCh)

	// One refresh cycle: Yemen floors at 70 and the converged cell alerts.
	driver.RunCycle()

	ye, ok := driver.ScoreOf("YE")
	require.True(t, ok)
	assert.GreaterOrEqual(t, ye.Score, 70)

	alerts := ae.Alerts()
	require.NotEmpty(t, alerts)
	assert.Equal(t, domain.AlertConvergence, alerts[0].Type)
}
