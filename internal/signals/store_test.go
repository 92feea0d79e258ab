package signals

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geofusion/instability-core/internal/domain"
	"github.com/geofusion/instability-core/internal/geo"
	"github.com/geofusion/instability-core/internal/observability"
)

// newTestStore builds a store over an unloaded geometry index: resolution
// rides on keywords, aliases, and the coarse fallback boxes, same as a
// production process whose boundary dataset failed to load.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	ix := geo.NewIndex(slog.Default())
	return NewStore(ix, slog.Default(), observability.NewMetricsForTesting())
}

func bucketOf(t *testing.T, s *Store, code string) *Bucket {
	t.Helper()
	var found *Bucket
	s.Read(func(buckets map[string]*Bucket) {
		found = buckets[code]
	})
	require.NotNil(t, found, "expected bucket for %s", code)
	return found
}

func TestIngestProtests(t *testing.T) {
	s := newTestStore(t)

	s.IngestProtests([]domain.ProtestEvent{
		{Country: "France", Severity: "moderate"},
		{Country: "France", Severity: "high", Fatalities: 1},
		{Country: "Atlantis", Severity: "low"},
	})

	b := bucketOf(t, s, "FR")
	assert.Len(t, b.Protests, 2)

	stats := s.GetIngestStats()
	assert.EqualValues(t, 3, stats.Processed)
	assert.EqualValues(t, 1, stats.Unmapped)
	assert.InDelta(t, 2.0/3.0, stats.Rate, 1e-9)
}

func TestIngestConflicts_SkipsMalformed(t *testing.T) {
	s := newTestStore(t)

	s.IngestConflicts([]domain.ConflictEvent{
		{Country: "Ukraine", EventType: "battle", Fatalities: 4},
		{Country: "Ukraine", EventType: "parade"},
		{Country: "Ukraine", EventType: "explosion"},
	})

	b := bucketOf(t, s, "UA")
	assert.Len(t, b.Conflicts, 2)
	// The malformed record never reached resolution.
	assert.EqualValues(t, 2, s.GetIngestStats().Processed)
}

func TestIngestUCDP_HighestIntensityWins(t *testing.T) {
	s := newTestStore(t)

	s.IngestUCDP([]domain.UCDPClassification{
		{Country: "Sudan", Intensity: domain.IntensityWar},
		{Country: "Sudan", Intensity: domain.IntensityMinor},
	})

	assert.Equal(t, domain.IntensityWar, bucketOf(t, s, "SD").Intensity)
}

func TestIngestDisplacement_ReplacesOnEachCall(t *testing.T) {
	s := newTestStore(t)

	s.IngestDisplacement([]domain.DisplacementRecord{
		{Code: "SY", Refugees: 500000, AsylumSeekers: 100000},
		{Name: "Sudan", Refugees: 200000},
	})
	assert.Equal(t, 600000, bucketOf(t, s, "SY").DisplacementOutflow)
	assert.Equal(t, 200000, bucketOf(t, s, "SD").DisplacementOutflow)

	// Syria drops out of the next batch; its outflow must not linger.
	s.IngestDisplacement([]domain.DisplacementRecord{
		{Name: "Sudan", Refugees: 250000},
	})
	assert.Equal(t, 0, bucketOf(t, s, "SY").DisplacementOutflow)
	assert.Equal(t, 250000, bucketOf(t, s, "SD").DisplacementOutflow)
}

func TestIngestClimate_ZoneSpansCountries(t *testing.T) {
	s := newTestStore(t)

	s.IngestClimate([]domain.ClimateAnomaly{
		{Zone: "Drought belt across Mali and Niger", Severity: "warning"},
		{Zone: "Mali river basin", Severity: "emergency"},
	})

	assert.Equal(t, 3, bucketOf(t, s, "ML").ClimateStress)
	assert.Equal(t, 2, bucketOf(t, s, "NE").ClimateStress)

	s.IngestClimate(nil)
	assert.Equal(t, 0, bucketOf(t, s, "ML").ClimateStress)
}

func TestIngestNewsClusters_IdempotentByID(t *testing.T) {
	s := newTestStore(t)

	cluster := domain.NewsCluster{
		ID:    "c-1",
		Title: "Explosions reported in Ukraine",
		Threat: domain.NewsThreat{
			Level:    "elevated",
			Category: "conflict",
		},
		Velocity: domain.NewsVelocity{Sources: 3, SourcesPerHour: 1.5},
	}

	s.IngestNewsClusters([]domain.NewsCluster{cluster})

	// Re-ingesting the same identity overwrites in place.
	cluster.Velocity.Sources = 9
	s.IngestNewsClusters([]domain.NewsCluster{cluster})

	b := bucketOf(t, s, "UA")
	require.Len(t, b.News, 1)
	assert.Equal(t, 9, b.News[0].Velocity.Sources)

	s.IngestNewsClusters([]domain.NewsCluster{{
		ID:    "c-2",
		Title: "Ukraine grain corridor reopens",
	}})
	assert.Len(t, bucketOf(t, s, "UA").News, 2)
}

func TestIngestStrikes_BBoxBeltBumpsMissileAlerts(t *testing.T) {
	s := newTestStore(t)

	// No polygons are loaded, so a Yemen-belt strike resolves via bbox.
	s.IngestStrikes([]domain.StrikeEvent{
		{ID: "st-1", Latitude: 15.0, Longitude: 45.0, Severity: "high"},
		{ID: "st-2", Latitude: 15.1, Longitude: 45.1, Severity: "low"},
		{ID: "st-3"},
	})

	b := bucketOf(t, s, "YE")
	assert.Len(t, b.Strikes, 2)
	assert.Equal(t, 2, b.MissileAlerts)
}

func TestIngestAdvisories_ResetAndCorroboration(t *testing.T) {
	s := newTestStore(t)

	s.IngestAdvisories([]domain.SecurityAdvisory{
		{Country: "Lebanon", SourceCountry: "US", Level: 4},
		{Country: "Lebanon", SourceCountry: "GB", Level: 3},
		{Country: "Lebanon", SourceCountry: "us", Level: 4},
		{Country: "Lebanon", SourceCountry: "FR", Level: 0}, // malformed
	})

	b := bucketOf(t, s, "LB")
	assert.Equal(t, 4, b.AdvisoryMaxLevel)
	assert.Equal(t, 2, b.AdvisorySources)

	s.IngestAdvisories([]domain.SecurityAdvisory{
		{Country: "Lebanon", SourceCountry: "US", Level: 2},
	})
	b = bucketOf(t, s, "LB")
	assert.Equal(t, 2, b.AdvisoryMaxLevel)
	assert.Equal(t, 1, b.AdvisorySources)
}

func TestIngestMilitaryFlights_DomesticNotCounted(t *testing.T) {
	ix := geo.NewIndex(slog.Default())
	require.NoError(t, ix.Load("../geo/testdata/boundaries.json"))
	s := NewStore(ix, slog.Default(), observability.NewMetricsForTesting())

	s.IngestMilitaryFlights([]domain.MilitaryFlight{
		{OperatorCountry: "US", Lat: 45.0, Lon: 25.0}, // foreign over Ukraine
		{OperatorCountry: "UA", Lat: 45.0, Lon: 25.0}, // domestic
		{OperatorCountry: "RU", Lat: 45.5, Lon: 26.0},
	})

	assert.Equal(t, 2, bucketOf(t, s, "UA").FlightCount)
}

func TestIngestMilitaryVessels_NullIslandTreatedAsMissing(t *testing.T) {
	s := newTestStore(t)

	s.IngestMilitaryVessels([]domain.MilitaryVessel{
		// Both coordinates zeroed means no position fix: skipped before any
		// resolution attempt, so it never reaches the ingest counters.
		{OperatorCountry: "US", Lat: 0, Lon: 0},
		// A genuine equator position with one zero coordinate is attempted
		// (and here fails attribution, since no fallback box covers it).
		{OperatorCountry: "US", Lat: 0, Lon: 6.0},
	})

	stats := s.GetIngestStats()
	assert.EqualValues(t, 1, stats.Processed)
	assert.EqualValues(t, 1, stats.Unmapped)
}

func TestClearAccumulated(t *testing.T) {
	s := newTestStore(t)

	s.IngestProtests([]domain.ProtestEvent{{Country: "France", Severity: "low"}})
	s.IngestDisplacement([]domain.DisplacementRecord{{Code: "FR", Refugees: 1000}})
	s.ClearAccumulated()

	b := bucketOf(t, s, "FR")
	assert.Empty(t, b.Protests)
	// Replace-kind state survives the accumulator clear.
	assert.Equal(t, 1000, b.DisplacementOutflow)
}
