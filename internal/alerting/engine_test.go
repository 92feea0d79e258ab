package alerting

import (
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geofusion/instability-core/internal/domain"
	"github.com/geofusion/instability-core/internal/observability"
)

func newTestAlertEngine(t *testing.T) (*Engine, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC))
	e := New(slog.Default(), observability.NewMetricsForTesting(), clock)
	return e, clock
}

func sampleDetection() domain.ConvergenceDetection {
	return domain.ConvergenceDetection{
		CellID:      "cell-30:35",
		Lat:         31.5,
		Lon:         34.8,
		Score:       75,
		SignalTypes: 3,
		EventCount:  12,
		Countries:   []string{"PS", "IL"},
	}
}

func highScore(code string, current, change int) domain.CountryScore {
	return domain.CountryScore{
		Code:      code,
		Name:      code,
		Score:     current,
		Level:     domain.LevelForScore(current),
		Change24h: change,
		Trend:     domain.TrendForChange(change),
	}
}

func TestConvergenceAlert_IdempotentByCell(t *testing.T) {
	e, _ := newTestAlertEngine(t)

	e.OnConvergence(sampleDetection())
	e.OnConvergence(sampleDetection())

	alerts := e.Alerts()
	require.Len(t, alerts, 1)
	assert.Equal(t, domain.AlertConvergence, alerts[0].Type)
	assert.Equal(t, "conv-cell-30:35", alerts[0].ID)
	assert.Equal(t, domain.PriorityHigh, alerts[0].Priority)
}

func TestConvergencePriorityThresholds(t *testing.T) {
	tests := []struct {
		name     string
		types    int
		score    float64
		expected domain.AlertPriority
	}{
		{"four types is critical", 4, 40, domain.PriorityCritical},
		{"score 90 is critical", 2, 90, domain.PriorityCritical},
		{"three types is high", 3, 40, domain.PriorityHigh},
		{"score 70 is high", 2, 70, domain.PriorityHigh},
		{"score 50 is medium", 2, 50, domain.PriorityMedium},
		{"weak detection is low", 1, 20, domain.PriorityLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			det := domain.ConvergenceDetection{SignalTypes: tt.types, Score: tt.score}
			assert.Equal(t, tt.expected, convergencePriority(det))
		})
	}
}

func TestCIISpike_SuppressedInLearningMode(t *testing.T) {
	e, _ := newTestAlertEngine(t)

	e.OnScoreChange(highScore("UA", 60, 20), true)
	assert.Empty(t, e.Alerts())

	e.OnScoreChange(highScore("UA", 60, 20), false)
	require.Len(t, e.Alerts(), 1)
	assert.Equal(t, domain.AlertCIISpike, e.Alerts()[0].Type)
}

func TestCIISpike_BelowThresholdIgnored(t *testing.T) {
	e, _ := newTestAlertEngine(t)

	e.OnScoreChange(highScore("UA", 60, 9), false)
	e.OnScoreChange(highScore("UA", 60, -9), false)
	assert.Empty(t, e.Alerts())

	e.OnScoreChange(highScore("UA", 60, -10), false)
	assert.Len(t, e.Alerts(), 1)
}

func TestCIIPriority_AbsoluteChangeFallback(t *testing.T) {
	// A large swing in a low-level country must not under-rank.
	assert.Equal(t, domain.PriorityHigh, ciiPriority(domain.LevelLow, 35))
	assert.Equal(t, domain.PriorityMedium, ciiPriority(domain.LevelLow, 15))
	assert.Equal(t, domain.PriorityLow, ciiPriority(domain.LevelLow, 10))
	assert.Equal(t, domain.PriorityCritical, ciiPriority(domain.LevelCritical, 10))
	assert.Equal(t, domain.PriorityHigh, ciiPriority(domain.LevelHigh, 10))
}

func TestCIIMerge_SpansProgression(t *testing.T) {
	e, clock := newTestAlertEngine(t)

	e.OnScoreChange(highScore("SY", 55, 15), false) // 40 -> 55
	clock.Advance(30 * time.Minute)
	e.OnScoreChange(highScore("SY", 72, 17), false) // 55 -> 72

	alerts := e.Alerts()
	require.Len(t, alerts, 1)
	assert.Equal(t, domain.AlertComposite, alerts[0].Type)

	cii := alerts[0].Components.CIIChange
	require.NotNil(t, cii)
	assert.Equal(t, 40, cii.PreviousScore)
	assert.Equal(t, 72, cii.CurrentScore)
	assert.Contains(t, alerts[0].Summary, "40")
	assert.Contains(t, alerts[0].Summary, "72")
}

func TestCascadeMerge_SpatiotemporalMatch(t *testing.T) {
	e, clock := newTestAlertEngine(t)

	e.OnCascade(domain.CascadeResult{
		SourceAsset: "AMS-IX exchange",
		Impacts:     []domain.CascadeImpact{{Country: "NL", Level: "severe"}},
		Lat:         52.3, Lon: 4.9,
	})
	clock.Advance(time.Hour)
	// Within 200 km and the 2 h window, no shared country.
	e.OnCascade(domain.CascadeResult{
		SourceAsset: "Rotterdam port backbone",
		Impacts:     []domain.CascadeImpact{{Country: "BE", Level: "major"}},
		Lat:         51.9, Lon: 4.5,
	})

	alerts := e.Alerts()
	require.Len(t, alerts, 1)
	assert.Equal(t, domain.AlertComposite, alerts[0].Type)
	assert.ElementsMatch(t, []string{"NL", "BE"}, alerts[0].Countries)
	assert.Contains(t, alerts[0].Summary, " | ")
}

func TestCascadeNoMerge_OutsideWindow(t *testing.T) {
	e, clock := newTestAlertEngine(t)

	e.OnCascade(domain.CascadeResult{
		SourceAsset: "AMS-IX exchange",
		Impacts:     []domain.CascadeImpact{{Country: "NL", Level: "severe"}},
		Lat:         52.3, Lon: 4.9,
	})
	clock.Advance(3 * time.Hour)
	e.OnCascade(domain.CascadeResult{
		SourceAsset: "Rotterdam port backbone",
		Impacts:     []domain.CascadeImpact{{Country: "NL", Level: "major"}},
		Lat:         51.9, Lon: 4.5,
	})

	assert.Len(t, e.Alerts(), 2)
}

func TestMergeSummaries_OverflowBeyondThree(t *testing.T) {
	s := mergeSummaries("first", "second")
	s = mergeSummaries(s, "third")
	s = mergeSummaries(s, "fourth")
	s = mergeSummaries(s, "fifth")

	assert.Equal(t, "first | second | third | (+2 more)", s)

	// A duplicate fragment never re-appends.
	assert.Equal(t, "first | second", mergeSummaries("first | second", "second"))
}

func TestStoreCapAndPrune(t *testing.T) {
	e, clock := newTestAlertEngine(t)

	for i := 0; i < 60; i++ {
		e.OnConvergence(domain.ConvergenceDetection{
			CellID:      cellID(i),
			Lat:         float64(i), // spread out so nothing merges
			Lon:         float64(-i),
			Score:       55,
			SignalTypes: 2,
			EventCount:  3,
		})
	}
	assert.Len(t, e.Alerts(), maxLiveAlerts)

	clock.Advance(25 * time.Hour)
	e.Prune()
	assert.Empty(t, e.Alerts())
}

func cellID(i int) string {
	return "cell-" + string(rune('a'+i%26)) + string(rune('a'+i/26))
}

func TestRecentAlertsWindow(t *testing.T) {
	e, clock := newTestAlertEngine(t)

	e.OnConvergence(sampleDetection())
	clock.Advance(8 * time.Hour)
	e.OnCascade(domain.CascadeResult{
		SourceAsset: "Suez canal transit",
		Impacts:     []domain.CascadeImpact{{Country: "EG", Level: "major"}},
		Lat:         30.5, Lon: 32.3,
	})

	assert.Len(t, e.Alerts(), 2)
	assert.Len(t, e.RecentAlerts(6), 1)
	assert.Len(t, e.RecentAlerts(24), 2)
}

func TestSubscribeNotifies(t *testing.T) {
	e, _ := newTestAlertEngine(t)

	calls := 0
	e.Subscribe(func() { calls++ })

	e.OnConvergence(sampleDetection())
	e.OnConvergence(sampleDetection()) // merge also notifies
	assert.Equal(t, 2, calls)
}
