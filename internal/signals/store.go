// Package signals owns the per-country signal store: one lazily created
// bucket per canonical country code, filled by one ingest method per upstream
// event kind. Resolution misses are counted, never fatal; a malformed record
// is skipped without discarding its batch.
package signals

import (
	"log/slog"
	"sync"

	"github.com/geofusion/instability-core/internal/domain"
	"github.com/geofusion/instability-core/internal/geo"
	"github.com/geofusion/instability-core/internal/observability"
)

// Bucket accumulates all signals attributed to one country. Append-kind
// fields grow until ClearAccumulated; replace-kind fields are reset on every
// ingest call for their kind.
type Bucket struct {
	Code string

	// AppendOnIngest fields.
	Protests    []domain.ProtestEvent
	Conflicts   []domain.ConflictEvent
	News        []domain.NewsCluster
	Outages     []domain.InternetOutage
	Strikes     []domain.StrikeEvent
	Aviation    []domain.AviationDisruption
	FlightCount int
	VesselCount int
	// MissileAlerts counts strikes attributed through the coarse regional
	// bbox belt, a proxy for population-alert density in that belt.
	MissileAlerts int

	// LatestOnIngest fields.
	Intensity    domain.ConflictIntensity
	Humanitarian *domain.HumanitarianSummary

	// ReplaceOnIngest fields.
	DisplacementOutflow int
	ClimateStress       int // 0 none, 1 watch, 2 warning, 3 emergency
	AdvisoryMaxLevel    int
	AdvisorySources     int

	newsIndex map[string]int
}

// IngestStats summarizes country-attribution health across all ingest calls.
type IngestStats struct {
	Processed int64   `json:"processed"`
	Unmapped  int64   `json:"unmapped"`
	Rate      float64 `json:"rate"` // attributed fraction, 0-1
}

// Store is the mutable per-country signal state. All mutation goes through
// the ingest methods; readers use Read for a consistent view. The refresh
// driver is the only logical writer, but methods lock so the HTTP surface can
// read concurrently.
type Store struct {
	mu       sync.RWMutex
	geo      *geo.Index
	resolver *Resolver
	logger   *slog.Logger
	metrics  *observability.Metrics

	buckets   map[string]*Bucket
	processed int64
	unmapped  int64
}

// NewStore creates an empty signal store over the given geometry index.
func NewStore(ix *geo.Index, logger *slog.Logger, metrics *observability.Metrics) *Store {
	return &Store{
		geo:      ix,
		resolver: NewResolver(ix),
		logger:   logger,
		metrics:  metrics,
		buckets:  make(map[string]*Bucket),
	}
}

// Resolver exposes the store's resolution rule table for collaborators that
// attribute their own signals (the convergence aggregator).
func (s *Store) Resolver() *Resolver {
	return s.resolver
}

// bucket returns the bucket for a code, creating it on first reference.
// Callers must hold the write lock.
func (s *Store) bucket(code string) *Bucket {
	b, ok := s.buckets[code]
	if !ok {
		b = &Bucket{Code: code, newsIndex: make(map[string]int)}
		s.buckets[code] = b
	}
	return b
}

// Read runs fn under the read lock with the live bucket map. The map and its
// buckets must not be retained or mutated past fn's return.
func (s *Store) Read(fn func(buckets map[string]*Bucket)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.buckets)
}

// GetIngestStats reports processed/unmapped counts and the attribution rate,
// the operator's canary for silent upstream schema drift.
func (s *Store) GetIngestStats() IngestStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := IngestStats{Processed: s.processed, Unmapped: s.unmapped}
	if s.processed > 0 {
		stats.Rate = float64(s.processed-s.unmapped) / float64(s.processed)
	}
	return stats
}

// ClearAccumulated empties every append-kind field across all buckets.
// Replace-kind and latest-value fields are left alone; their own ingest calls
// reset them.
func (s *Store) ClearAccumulated() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.buckets {
		b.Protests = nil
		b.Conflicts = nil
		b.News = nil
		b.Outages = nil
		b.Strikes = nil
		b.Aviation = nil
		b.FlightCount = 0
		b.VesselCount = 0
		b.MissileAlerts = 0
		b.newsIndex = make(map[string]int)
	}
}

// track updates the ingest counters for one record. Callers must hold the
// write lock.
func (s *Store) track(kind string, mapped bool) {
	s.processed++
	s.metrics.EventsIngested.WithLabelValues(kind).Inc()
	if !mapped {
		s.unmapped++
		s.metrics.EventsUnmapped.WithLabelValues(kind).Inc()
	}
}
