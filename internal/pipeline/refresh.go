// Package pipeline drives the periodic recompute cycle: prune alerts, rescore
// every country, feed deltas and convergence detections to the alert engine,
// and publish a read snapshot for the HTTP layer.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/geofusion/instability-core/internal/alerting"
	"github.com/geofusion/instability-core/internal/convergence"
	"github.com/geofusion/instability-core/internal/domain"
	"github.com/geofusion/instability-core/internal/observability"
	"github.com/geofusion/instability-core/internal/scoring"
)

var errNotReady = errors.New("no refresh cycle has completed yet")

// Driver owns the refresh loop. Ingestion runs concurrently in the Kafka
// adapter; the driver only reads accumulated state on its own cadence.
type Driver struct {
	scoring  *scoring.Engine
	alerts   *alerting.Engine
	agg      *convergence.Aggregator
	interval time.Duration
	logger   *slog.Logger
	metrics  *observability.Metrics
	clock    clockwork.Clock

	ready atomic.Bool

	mu     sync.RWMutex
	scores []domain.CountryScore
}

// New creates a refresh driver. Nothing runs until Run or RunCycle is called.
func New(se *scoring.Engine, ae *alerting.Engine, agg *convergence.Aggregator, interval time.Duration, logger *slog.Logger, metrics *observability.Metrics, clock clockwork.Clock) *Driver {
	return &Driver{
		scoring:  se,
		alerts:   ae,
		agg:      agg,
		interval: interval,
		logger:   logger,
		metrics:  metrics,
		clock:    clock,
	}
}

// Run executes one immediate cycle, then repeats on the configured interval
// until the context is cancelled.
func (d *Driver) Run(ctx context.Context) error {
	d.RunCycle()

	ticker := d.clock.NewTicker(d.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			d.logger.Info("refresh driver stopping")
			return ctx.Err()
		case <-ticker.Chan():
			d.RunCycle()
		}
	}
}

// RunCycle performs one full recompute pass.
func (d *Driver) RunCycle() {
	start := time.Now()

	d.alerts.Prune()

	scores := d.scoring.CalculateAll()
	learning := d.scoring.InLearning()
	for _, s := range scores {
		d.alerts.OnScoreChange(s, learning)
	}

	dets := d.agg.Detections()
	for _, det := range dets {
		d.alerts.OnConvergence(det)
	}

	d.mu.Lock()
	d.scores = scores
	d.mu.Unlock()
	d.ready.Store(true)
	d.metrics.RefreshCycles.Inc()

	d.logger.Info("refresh cycle complete",
		"countries", len(scores),
		"detections", len(dets),
		"learning", learning,
		"duration", time.Since(start))
}

// CheckReadiness reports whether at least one cycle has completed.
func (d *Driver) CheckReadiness(ctx context.Context) error {
	if !d.ready.Load() {
		return errNotReady
	}
	return ctx.Err()
}

// Scores returns the snapshot published by the latest cycle, sorted
// descending by score.
func (d *Driver) Scores() []domain.CountryScore {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]domain.CountryScore, len(d.scores))
	copy(out, d.scores)
	return out
}

// ScoreOf returns the latest snapshot entry for one country code.
func (d *Driver) ScoreOf(code string) (domain.CountryScore, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, s := range d.scores {
		if s.Code == code {
			return s, true
		}
	}
	return domain.CountryScore{}, false
}
