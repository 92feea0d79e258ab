package kafka

import (
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geofusion/instability-core/internal/convergence"
	"github.com/geofusion/instability-core/internal/domain"
	"github.com/geofusion/instability-core/internal/geo"
	"github.com/geofusion/instability-core/internal/observability"
	"github.com/geofusion/instability-core/internal/signals"
)

func newTestConsumer(t *testing.T) (*Consumer, *signals.Store, *convergence.Aggregator) {
	t.Helper()
	logger := slog.Default()
	ix := geo.NewIndex(logger)
	store := signals.NewStore(ix, logger, observability.NewMetricsForTesting())
	agg := convergence.New(ix, store.Resolver(), logger, clockwork.NewFakeClockAt(time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)))
	return &Consumer{logger: logger, handlers: buildHandlers(store, agg)}, store, agg
}

func TestDispatch_ProtestFansOutToStoreAndAggregator(t *testing.T) {
	c, store, agg := newTestConsumer(t)

	err := c.dispatch([]byte(`{
		"kind": "protest",
		"records": [
			{"country": "France", "lat": 48.8, "lon": 2.3, "severity": "high"}
		]
	}`))
	require.NoError(t, err)

	var protests int
	store.Read(func(buckets map[string]*signals.Bucket) {
		if b, ok := buckets["FR"]; ok {
			protests = len(b.Protests)
		}
	})
	assert.Equal(t, 1, protests)
	assert.Equal(t, 1, agg.Summary().ByType[domain.SignalProtestDensity])
}

func TestDispatch_AggregatorOnlyKinds(t *testing.T) {
	c, _, agg := newTestConsumer(t)

	require.NoError(t, c.dispatch([]byte(`{
		"kind": "ais_disruption",
		"records": [{"lat": 15.0, "lon": 45.0, "gap_hours": 14}]
	}`)))
	require.NoError(t, c.dispatch([]byte(`{
		"kind": "temporal_anomaly",
		"records": [{"source_tag": "adsb", "lat": 15.0, "lon": 45.0, "severity": "high"}]
	}`)))

	sum := agg.Summary()
	assert.Equal(t, 1, sum.ByType[domain.SignalAISDisruption])
	assert.Equal(t, 1, sum.ByType[domain.SignalTemporalAnomaly])
}

func TestDispatch_Errors(t *testing.T) {
	c, _, _ := newTestConsumer(t)

	assert.ErrorContains(t, c.dispatch([]byte(`not json`)), "decode envelope")
	assert.ErrorContains(t, c.dispatch([]byte(`{"kind":"volcano","records":[]}`)), "unknown envelope kind")
	assert.ErrorContains(t, c.dispatch([]byte(`{"kind":"protest","records":{"not":"a list"}}`)), "decode batch")
}

func TestEveryKindHasHandlerAndPolicy(t *testing.T) {
	c, _, _ := newTestConsumer(t)

	want := map[string]domain.MergePolicy{
		"protest":          domain.AppendOnIngest,
		"conflict":         domain.AppendOnIngest,
		"ucdp":             domain.LatestOnIngest,
		"humanitarian":     domain.LatestOnIngest,
		"displacement":     domain.ReplaceOnIngest,
		"climate":          domain.ReplaceOnIngest,
		"military_flight":  domain.AppendOnIngest,
		"military_vessel":  domain.AppendOnIngest,
		"news_cluster":     domain.AppendOnIngest,
		"outage":           domain.AppendOnIngest,
		"strike":           domain.AppendOnIngest,
		"aviation":         domain.AppendOnIngest,
		"advisory":         domain.ReplaceOnIngest,
		"ais_disruption":   domain.ReplaceOnIngest,
		"fire_detection":   domain.ReplaceOnIngest,
		"temporal_anomaly": domain.ReplaceOnIngest,
		"theater_posture":  domain.ReplaceOnIngest,
	}
	require.Len(t, c.handlers, len(want))
	for kind, policy := range want {
		require.Contains(t, c.handlers, kind)
		assert.Equal(t, policy, c.handlers[kind].policy, kind)
	}
}
