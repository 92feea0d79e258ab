// Package alerting turns score deltas, convergence detections, and cascade
// results into a deduplicated, merged feed of unified alerts.
package alerting

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/geofusion/instability-core/internal/domain"
	"github.com/geofusion/instability-core/internal/observability"
)

const (
	maxLiveAlerts = 50
	maxAlertAge   = 24 * time.Hour

	mergeWindow   = 2 * time.Hour
	mergeRadiusKm = 200.0

	// ciiSpikeThreshold is the minimum absolute score change that produces
	// an alert outside learning mode.
	ciiSpikeThreshold = 10
)

// Engine owns the rolling alert store. All factory entry points funnel
// through a single upsert path that deduplicates by stable ID or
// spatiotemporal match.
type Engine struct {
	logger  *slog.Logger
	metrics *observability.Metrics
	clock   clockwork.Clock
	newID   func() string

	mu        sync.RWMutex
	alerts    []domain.UnifiedAlert // newest first
	listeners []func()
}

// New creates an empty alert engine.
func New(logger *slog.Logger, metrics *observability.Metrics, clock clockwork.Clock) *Engine {
	return &Engine{
		logger:  logger,
		metrics: metrics,
		clock:   clock,
		newID:   uuid.NewString,
	}
}

// Subscribe registers a listener invoked after every successful insert or
// merge, so consumers can refresh without polling.
func (e *Engine) Subscribe(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, fn)
}

// Alerts returns the live store, newest first.
func (e *Engine) Alerts() []domain.UnifiedAlert {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]domain.UnifiedAlert, len(e.alerts))
	copy(out, e.alerts)
	return out
}

// RecentAlerts returns alerts no older than the given window in hours.
func (e *Engine) RecentAlerts(hours int) []domain.UnifiedAlert {
	cutoff := e.clock.Now().Add(-time.Duration(hours) * time.Hour)
	e.mu.RLock()
	defer e.mu.RUnlock()
	var out []domain.UnifiedAlert
	for _, a := range e.alerts {
		if a.Timestamp.After(cutoff) {
			out = append(out, a)
		}
	}
	return out
}

// Prune drops entries older than the age cap. The refresh driver calls this
// before each recompute cycle.
func (e *Engine) Prune() {
	cutoff := e.clock.Now().Add(-maxAlertAge)
	e.mu.Lock()
	defer e.mu.Unlock()
	kept := e.alerts[:0]
	for _, a := range e.alerts {
		if a.Timestamp.After(cutoff) {
			kept = append(kept, a)
		}
	}
	e.alerts = kept
	e.metrics.AlertsActive.Set(float64(len(e.alerts)))
}

// OnConvergence creates or updates a convergence alert from a detection.
// Alerts are keyed by originating grid cell, so re-detecting the same cell
// updates in place instead of duplicating.
func (e *Engine) OnConvergence(det domain.ConvergenceDetection) {
	alert := domain.UnifiedAlert{
		ID:       "conv-" + det.CellID,
		Type:     domain.AlertConvergence,
		Priority: convergencePriority(det),
		Title:    fmt.Sprintf("Signal convergence: %d independent signal types", det.SignalTypes),
		Summary: fmt.Sprintf("%d signal types converging (%d events, score %.0f) near %.1f, %.1f",
			det.SignalTypes, det.EventCount, det.Score, det.Lat, det.Lon),
		Components: domain.AlertComponents{
			Convergence: &domain.ConvergencePayload{
				CellID:      det.CellID,
				Score:       det.Score,
				SignalTypes: det.SignalTypes,
				EventCount:  det.EventCount,
			},
		},
		Location:  &domain.AlertLocation{Lat: det.Lat, Lon: det.Lon},
		Countries: det.Countries,
		Timestamp: e.clock.Now(),
	}
	e.upsert(alert, true)
}

func convergencePriority(det domain.ConvergenceDetection) domain.AlertPriority {
	switch {
	case det.SignalTypes >= 4 || det.Score >= 90:
		return domain.PriorityCritical
	case det.SignalTypes >= 3 || det.Score >= 70:
		return domain.PriorityHigh
	case det.Score >= 50:
		return domain.PriorityMedium
	default:
		return domain.PriorityLow
	}
}

// OnScoreChange creates or updates a CII-spike alert for a country whose
// score moved by the spike threshold or more. Suppressed during learning
// mode. Alerts are keyed by country.
func (e *Engine) OnScoreChange(score domain.CountryScore, learning bool) {
	if learning {
		return
	}
	change := score.Change24h
	if change < ciiSpikeThreshold && change > -ciiSpikeThreshold {
		return
	}

	direction := "surged"
	if change < 0 {
		direction = "dropped"
	}
	prev := score.Score - change

	alert := domain.UnifiedAlert{
		ID:       "cii-" + score.Code,
		Type:     domain.AlertCIISpike,
		Priority: ciiPriority(score.Level, change),
		Title:    fmt.Sprintf("%s instability %s", score.Name, direction),
		Summary: fmt.Sprintf("%s instability score %s from %d to %d (%s)",
			score.Name, direction, prev, score.Score, score.Level),
		Components: domain.AlertComponents{
			CIIChange: &domain.CIIChangePayload{
				Country:       score.Code,
				PreviousScore: prev,
				CurrentScore:  score.Score,
			},
		},
		Countries: []string{score.Code},
		Timestamp: e.clock.Now(),
	}
	e.upsert(alert, true)
}

// ciiPriority follows the country's current level primarily, with an
// absolute-change fallback so a large swing in a low-level country is not
// under-ranked.
func ciiPriority(level domain.ScoreLevel, change int) domain.AlertPriority {
	if change < 0 {
		change = -change
	}

	var p domain.AlertPriority
	switch level {
	case domain.LevelCritical:
		p = domain.PriorityCritical
	case domain.LevelHigh:
		p = domain.PriorityHigh
	case domain.LevelElevated:
		p = domain.PriorityMedium
	default:
		p = domain.PriorityLow
	}

	switch {
	case change >= 30:
		p = p.Max(domain.PriorityHigh)
	case change >= 15:
		p = p.Max(domain.PriorityMedium)
	}
	return p
}

// OnCascade creates a cascade alert from an infrastructure-disruption result.
// Cascade alerts have no stable identity; deduplication relies on the
// spatiotemporal merge.
func (e *Engine) OnCascade(res domain.CascadeResult) {
	if res.SourceAsset == "" || len(res.Impacts) == 0 {
		e.logger.Warn("skipping cascade result without source asset or impacts")
		return
	}

	countries := make([]string, 0, len(res.Impacts))
	worst := ""
	for _, imp := range res.Impacts {
		countries = append(countries, imp.Country)
		if impactRank(imp.Level) > impactRank(worst) {
			worst = imp.Level
		}
	}

	alert := domain.UnifiedAlert{
		ID:       e.newID(),
		Type:     domain.AlertCascade,
		Priority: cascadePriority(worst, len(res.Impacts)),
		Title:    fmt.Sprintf("Infrastructure cascade from %s", res.SourceAsset),
		Summary: fmt.Sprintf("Disruption of %s cascades to %d countries (worst impact: %s)",
			res.SourceAsset, len(res.Impacts), worst),
		Components: domain.AlertComponents{
			Cascade: &domain.CascadePayload{SourceAsset: res.SourceAsset, Impacts: res.Impacts},
		},
		Location:  &domain.AlertLocation{Lat: res.Lat, Lon: res.Lon},
		Countries: countries,
		Timestamp: e.clock.Now(),
	}
	e.upsert(alert, false)
}

func impactRank(level string) int {
	switch level {
	case "severe":
		return 3
	case "major":
		return 2
	case "degraded":
		return 1
	default:
		return 0
	}
}

func cascadePriority(worst string, affected int) domain.AlertPriority {
	switch {
	case worst == "severe" && affected >= 3:
		return domain.PriorityCritical
	case worst == "severe" || affected >= 3:
		return domain.PriorityHigh
	case affected >= 2:
		return domain.PriorityMedium
	default:
		return domain.PriorityLow
	}
}
