// Command ciigen publishes a synthetic set of risk-event envelopes to the
// configured Kafka topic, for local development and demos. One invocation
// publishes a plausible mixed scenario; -loop repeats it on an interval.
//
// Usage:
//
//	KAFKA_BROKERS=localhost:9092 go run ./cmd/ciigen -loop 30s
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"time"

	kafkaadapter "github.com/geofusion/instability-core/internal/adapter/kafka"
	"github.com/geofusion/instability-core/internal/config"
	"github.com/geofusion/instability-core/internal/domain"
	"github.com/geofusion/instability-core/internal/observability"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	loop := flag.Duration("loop", 0, "republish interval; 0 publishes once and exits")
	seed := flag.Int64("seed", time.Now().UnixNano(), "random seed")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := observability.NewLogger(cfg.LogLevel, "text")
	pub := kafkaadapter.NewPublisher(cfg, logger)
	defer pub.Close() //nolint:errcheck

	rng := rand.New(rand.NewSource(*seed))
	ctx := context.Background()

	for {
		if err := publishScenario(ctx, pub, rng); err != nil {
			return err
		}
		log.Printf("published scenario to %s", cfg.KafkaEventTopic)
		if *loop <= 0 {
			return nil
		}
		time.Sleep(*loop)
	}
}

// publishScenario emits one batch per event kind describing a coherent
// multi-theater situation.
func publishScenario(ctx context.Context, pub *kafkaadapter.Publisher, rng *rand.Rand) error {
	now := time.Now().UTC()

	batches := []struct {
		kind    string
		records any
	}{
		{"ucdp", []domain.UCDPClassification{
			{Country: "Ukraine", Intensity: domain.IntensityWar, Year: now.Year()},
			{Country: "Sudan", Intensity: domain.IntensityWar, Year: now.Year()},
			{Country: "Somalia", Intensity: domain.IntensityMinor, Year: now.Year()},
		}},
		{"conflict", []domain.ConflictEvent{
			{Country: "Ukraine", Lat: jitter(rng, 48.0), Lon: jitter(rng, 37.5), EventType: "battle", Fatalities: rng.Intn(20)},
			{Country: "Ukraine", Lat: jitter(rng, 47.1), Lon: jitter(rng, 37.6), EventType: "explosion", Fatalities: rng.Intn(8)},
			{Country: "Sudan", Lat: jitter(rng, 15.5), Lon: jitter(rng, 32.5), EventType: "violence_against_civilians", Fatalities: rng.Intn(30)},
		}},
		{"protest", []domain.ProtestEvent{
			{Country: "France", Lat: 48.86, Lon: 2.35, Severity: "moderate"},
			{Country: "France", Lat: 45.76, Lon: 4.84, Severity: "low"},
			{Country: "Venezuela", Lat: 10.48, Lon: -66.9, Severity: "high", Fatalities: rng.Intn(3)},
		}},
		{"strike", []domain.StrikeEvent{
			{ID: fmt.Sprintf("strike-%d", rng.Int31()), Latitude: jitter(rng, 14.8), Longitude: jitter(rng, 44.2), Severity: "high", Timestamp: now.Add(-time.Hour)},
			{ID: fmt.Sprintf("strike-%d", rng.Int31()), Latitude: jitter(rng, 31.5), Longitude: jitter(rng, 34.5), Severity: "severe", Timestamp: now.Add(-30 * time.Minute)},
		}},
		{"military_flight", syntheticFlights(rng, 12, 33.8, 35.6)},
		{"military_vessel", syntheticVessels(rng, 6, 13.5, 43.2)},
		{"outage", []domain.InternetOutage{
			{Country: "YE", Lat: 15.35, Lon: 44.2, Severity: domain.OutageMajor},
			{Country: "UA", Lat: 49.0, Lon: 36.2, Severity: domain.OutagePartial},
		}},
		{"news_cluster", []domain.NewsCluster{
			{
				ID:       fmt.Sprintf("news-%d", rng.Int31()),
				Title:    "Strikes reported near Hodeidah port",
				Threat:   domain.NewsThreat{Level: "severe", Category: "conflict"},
				Velocity: domain.NewsVelocity{SourcesPerHour: 4.5, Sources: 9, TrustedSources: 3, Breaking: true},
			},
			{
				ID:       fmt.Sprintf("news-%d", rng.Int31()),
				Title:    "Protests continue in Caracas",
				Threat:   domain.NewsThreat{Level: "elevated", Category: "unrest"},
				Velocity: domain.NewsVelocity{SourcesPerHour: 1.2, Sources: 3, TrustedSources: 1},
			},
		}},
		{"advisory", []domain.SecurityAdvisory{
			{Country: "Yemen", SourceCountry: "US", Level: 4},
			{Country: "Yemen", SourceCountry: "GB", Level: 4},
			{Country: "Lebanon", SourceCountry: "US", Level: 3},
		}},
		{"displacement", []domain.DisplacementRecord{
			{Code: "SYR", Refugees: 5_200_000, AsylumSeekers: 140_000},
			{Code: "SDN", Refugees: 1_100_000, AsylumSeekers: 90_000},
		}},
		{"climate", []domain.ClimateAnomaly{
			{Zone: "Sahel belt across Mali and Niger", Severity: "warning"},
		}},
		{"ais_disruption", []domain.AISDisruption{
			{Lat: 13.2, Lon: 43.3, GapHours: 9 + rng.Float64()*6},
		}},
		{"temporal_anomaly", []domain.TemporalAnomaly{
			{SourceTag: "adsb", Lat: 33.9, Lon: 35.5, Description: "traffic well below learned baseline", Severity: "medium"},
		}},
		{"theater_posture", []domain.TheaterPosture{
			{Theater: "Red Sea", Lat: 14.5, Lon: 42.8, Level: "elevated"},
		}},
	}

	for _, b := range batches {
		if err := pub.Publish(ctx, b.kind, b.records); err != nil {
			return fmt.Errorf("publish %s: %w", b.kind, err)
		}
	}
	return nil
}

func jitter(rng *rand.Rand, v float64) float64 {
	return v + (rng.Float64()-0.5)*0.8
}

func syntheticFlights(rng *rand.Rand, n int, lat, lon float64) []domain.MilitaryFlight {
	out := make([]domain.MilitaryFlight, n)
	for i := range out {
		out[i] = domain.MilitaryFlight{
			OperatorCountry: "US",
			Lat:             jitter(rng, lat),
			Lon:             jitter(rng, lon),
		}
	}
	return out
}

func syntheticVessels(rng *rand.Rand, n int, lat, lon float64) []domain.MilitaryVessel {
	out := make([]domain.MilitaryVessel, n)
	for i := range out {
		out[i] = domain.MilitaryVessel{
			OperatorCountry: "US",
			Lat:             jitter(rng, lat),
			Lon:             jitter(rng, lon),
		}
	}
	return out
}
