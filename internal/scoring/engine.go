// Package scoring computes the per-country Country Instability Index from
// the signal store and static per-country configuration.
package scoring

import (
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/geofusion/instability-core/internal/domain"
	"github.com/geofusion/instability-core/internal/geo"
	"github.com/geofusion/instability-core/internal/observability"
	"github.com/geofusion/instability-core/internal/signals"
)

// Component weights of the composite event score.
const (
	weightUnrest      = 0.25
	weightConflict    = 0.30
	weightSecurity    = 0.20
	weightInformation = 0.25

	baselineShare = 0.40
	eventShare    = 0.60

	hotspotRadiusKm = 800.0
	hotspotCap      = 10.0
)

// Engine owns score computation, the single-step previous-score memory, and
// the cold-start learning window.
type Engine struct {
	store   *signals.Store
	geo     *geo.Index
	logger  *slog.Logger
	metrics *observability.Metrics
	clock   clockwork.Clock

	mu            sync.Mutex
	prev          map[string]int
	learningUntil time.Time
	warm          bool
}

// New creates a scoring engine. The learning window starts immediately:
// until it elapses (or PreseedScores marks the process warm), computed scores
// are published but flagged unreliable for alerting.
func New(store *signals.Store, ix *geo.Index, logger *slog.Logger, metrics *observability.Metrics, clock clockwork.Clock, learningWindow time.Duration) *Engine {
	return &Engine{
		store:         store,
		geo:           ix,
		logger:        logger,
		metrics:       metrics,
		clock:         clock,
		prev:          make(map[string]int),
		learningUntil: clock.Now().Add(learningWindow),
	}
}

// PreseedScores installs an externally cached prior score set and marks
// learning as already complete.
func (e *Engine) PreseedScores(scores map[string]int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for code, score := range scores {
		e.prev[code] = score
	}
	e.warm = true
	e.logger.Info("score memory preseeded, learning mode skipped", "countries", len(scores))
}

// InLearning reports whether cold-start alert suppression is active.
func (e *Engine) InLearning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.inLearningLocked()
}

func (e *Engine) inLearningLocked() bool {
	if e.warm {
		return false
	}
	return e.clock.Now().Before(e.learningUntil)
}

// CalculateAll computes scores for every country with any stored signal plus
// every statically configured country, sorted descending by score. It
// advances the single-step trend memory as a side effect; call it once per
// refresh cycle.
func (e *Engine) CalculateAll() []domain.CountryScore {
	start := time.Now()
	now := e.clock.Now()

	e.mu.Lock()
	defer e.mu.Unlock()

	var scores []domain.CountryScore
	e.store.Read(func(buckets map[string]*signals.Bucket) {
		covered := make(map[string]bool, len(buckets))
		for code := range buckets {
			covered[code] = true
		}
		for _, code := range ConfiguredCodes() {
			covered[code] = true
		}

		scores = make([]domain.CountryScore, 0, len(covered))
		for code := range covered {
			score, comps := e.compute(code, buckets[code], now)

			prevScore, hadPrev := e.prev[code]
			change := 0
			if hadPrev {
				change = score - prevScore
			}
			e.prev[code] = score

			scores = append(scores, domain.CountryScore{
				Code:       code,
				Name:       e.geo.NameOf(code),
				Score:      score,
				Level:      domain.LevelForScore(score),
				Trend:      domain.TrendForChange(change),
				Change24h:  change,
				Components: comps,
				Timestamp:  now,
			})
		}
	})

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].Code < scores[j].Code
	})

	e.metrics.CountriesScored.Set(float64(len(scores)))
	e.metrics.ScoringDuration.Observe(time.Since(start).Seconds())
	if e.inLearningLocked() {
		e.metrics.LearningMode.Set(1)
	} else {
		e.metrics.LearningMode.Set(0)
	}

	return scores
}

// ScoreOne computes a single country's current score without touching the
// trend memory, for cross-cutting consumers.
func (e *Engine) ScoreOne(code string) (int, bool) {
	now := e.clock.Now()
	known := false
	score := 0
	e.store.Read(func(buckets map[string]*signals.Bucket) {
		b, hasBucket := buckets[code]
		_, hasProfile := profiles[code]
		if !hasBucket && !hasProfile {
			return
		}
		known = true
		score, _ = e.compute(code, b, now)
	})
	return score, known
}

// compute runs the full scoring model for one country.
func (e *Engine) compute(code string, b *signals.Bucket, now time.Time) (int, domain.ComponentScores) {
	prof := ProfileFor(code)

	comps := domain.ComponentScores{
		Unrest:      unrestComponent(b, prof),
		Conflict:    conflictComponent(b, now),
		Security:    securityComponent(b),
		Information: informationComponent(b, prof),
	}

	eventScore := weightUnrest*comps.Unrest +
		weightConflict*comps.Conflict +
		weightSecurity*comps.Security +
		weightInformation*comps.Information

	score := baselineShare*prof.BaselineRisk + eventShare*eventScore

	score += e.hotspotBoost(code, b)
	score += velocityKicker(b)
	score += focalPointBoost(b)
	score += displacementBoost(b)
	score += climateBoost(b)
	score += regionAlertBoost(b)
	score += advisoryBoost(b)

	if floor := scoreFloor(b); score < floor {
		score = floor
	}

	final := int(math.Round(clamp(score, 0, 100)))
	return final, comps
}

// hotspotBoost accumulates weights of tracked hotspots near the country's
// centroid, but only while the country shows live kinetic or military
// activity. Capped at hotspotCap.
func (e *Engine) hotspotBoost(code string, b *signals.Bucket) float64 {
	if b == nil {
		return 0
	}
	active := len(b.Conflicts) > 0 || len(b.Strikes) > 0 || b.FlightCount > 0 || b.VesselCount > 0
	if !active {
		return 0
	}
	lat, lon, ok := e.geo.Centroid(code)
	if !ok {
		return 0
	}
	boost := 0.0
	for _, h := range hotspots {
		if geo.HaversineKm(lat, lon, h.Lat, h.Lon) <= hotspotRadiusKm {
			boost += h.Weight
		}
	}
	return math.Min(hotspotCap, boost)
}

func velocityKicker(b *signals.Bucket) float64 {
	if b == nil {
		return 0
	}
	if averageVelocity(b) > 5 {
		return 5
	}
	return 0
}

// focalPointBoost fires when any attributed news cluster carries an urgent
// threat level.
func focalPointBoost(b *signals.Bucket) float64 {
	if b == nil {
		return 0
	}
	for _, c := range b.News {
		switch c.Threat.Level {
		case "severe", "critical":
			return 6
		}
	}
	return 0
}

func displacementBoost(b *signals.Bucket) float64 {
	if b == nil {
		return 0
	}
	switch {
	case b.DisplacementOutflow >= 1_000_000:
		return 8
	case b.DisplacementOutflow >= 250_000:
		return 5
	case b.DisplacementOutflow >= 50_000:
		return 3
	default:
		return 0
	}
}

func climateBoost(b *signals.Bucket) float64 {
	if b == nil {
		return 0
	}
	switch b.ClimateStress {
	case 3:
		return 6
	case 2:
		return 4
	case 1:
		return 2
	default:
		return 0
	}
}

func regionAlertBoost(b *signals.Bucket) float64 {
	if b == nil {
		return 0
	}
	return math.Min(8, 2*float64(b.MissileAlerts))
}

// advisoryBoost scales with advisory severity, with a bonus for corroboration
// across independent issuing countries.
func advisoryBoost(b *signals.Bucket) float64 {
	if b == nil {
		return 0
	}
	var boost float64
	switch b.AdvisoryMaxLevel {
	case 4:
		boost = 10
	case 3:
		boost = 6
	case 2:
		boost = 3
	}
	if boost == 0 {
		return 0
	}
	switch {
	case b.AdvisorySources >= 3:
		boost += 4
	case b.AdvisorySources >= 2:
		boost += 2
	}
	return boost
}

// scoreFloor is the hard lower bound from independent high-confidence
// signals: active-war classification or a do-not-travel advisory overrides a
// lower blended score.
func scoreFloor(b *signals.Bucket) float64 {
	if b == nil {
		return 0
	}
	floor := 0.0
	switch b.Intensity {
	case domain.IntensityWar:
		floor = 70
	case domain.IntensityMinor:
		floor = 50
	}
	switch b.AdvisoryMaxLevel {
	case 4:
		floor = math.Max(floor, 60)
	case 3:
		floor = math.Max(floor, 50)
	}
	return floor
}
