package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/geofusion/instability-core/internal/adapter/http"
	"github.com/geofusion/instability-core/internal/domain"
	"github.com/geofusion/instability-core/internal/signals"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type mockScores struct {
	scores []domain.CountryScore
}

func (m *mockScores) Scores() []domain.CountryScore { return m.scores }

func (m *mockScores) ScoreOf(code string) (domain.CountryScore, bool) {
	for _, s := range m.scores {
		if s.Code == code {
			return s, true
		}
	}
	return domain.CountryScore{}, false
}

type mockAlerts struct {
	alerts []domain.UnifiedAlert
	hours  int
}

func (m *mockAlerts) RecentAlerts(hours int) []domain.UnifiedAlert {
	m.hours = hours
	return m.alerts
}

type mockSignals struct {
	summary domain.SignalSummary
}

func (m *mockSignals) Summary() domain.SignalSummary { return m.summary }

type mockStats struct {
	stats signals.IngestStats
}

func (m *mockStats) GetIngestStats() signals.IngestStats { return m.stats }

func newTestServer(readyErr error) (*httpadapter.Server, *mockAlerts) {
	scores := &mockScores{scores: []domain.CountryScore{
		{Code: "UA", Name: "Ukraine", Score: 82, Level: domain.LevelCritical, Trend: domain.TrendStable},
		{Code: "FR", Name: "France", Score: 18, Level: domain.LevelLow, Trend: domain.TrendStable},
	}}
	alerts := &mockAlerts{alerts: []domain.UnifiedAlert{
		{ID: "cii-UA", Type: domain.AlertCIISpike, Priority: domain.PriorityCritical, Timestamp: time.Now()},
	}}
	sigs := &mockSignals{summary: domain.SignalSummary{Digest: "No active geographic signals."}}
	stats := &mockStats{stats: signals.IngestStats{Processed: 40, Unmapped: 4, Rate: 0.9}}
	return httpadapter.NewServer(":0", &mockReadiness{err: readyErr}, scores, alerts, sigs, stats, slog.Default()), alerts
}

func get(t *testing.T, srv *httpadapter.Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthzReturns200(t *testing.T) {
	srv, _ := newTestServer(nil)
	rec := get(t, srv, "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	srv, _ := newTestServer(nil)
	rec := get(t, srv, "/readyz")

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	srv, _ := newTestServer(fmt.Errorf("no refresh cycle has completed yet"))
	rec := get(t, srv, "/readyz")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "no refresh cycle has completed yet", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(nil)
	rec := get(t, srv, "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestScoresList(t *testing.T) {
	srv, _ := newTestServer(nil)
	rec := get(t, srv, "/v1/scores")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Count  int                   `json:"count"`
		Scores []domain.CountryScore `json:"scores"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)
	assert.Equal(t, "UA", body.Scores[0].Code)
}

func TestScoreByCode(t *testing.T) {
	srv, _ := newTestServer(nil)

	// Lowercase path codes normalize.
	rec := get(t, srv, "/v1/scores/ua")
	assert.Equal(t, http.StatusOK, rec.Code)

	var score domain.CountryScore
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &score))
	assert.Equal(t, "UA", score.Code)
	assert.Equal(t, 82, score.Score)

	rec = get(t, srv, "/v1/scores/ZZ")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAlertsWindow(t *testing.T) {
	srv, alerts := newTestServer(nil)

	rec := get(t, srv, "/v1/alerts")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 24, alerts.hours)

	rec = get(t, srv, "/v1/alerts?hours=6")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 6, alerts.hours)

	for _, bad := range []string{"0", "25", "-1", "six"} {
		rec = get(t, srv, "/v1/alerts?hours="+bad)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "hours=%s", bad)
	}
}

func TestSignalsSummary(t *testing.T) {
	srv, _ := newTestServer(nil)
	rec := get(t, srv, "/v1/signals")

	assert.Equal(t, http.StatusOK, rec.Code)

	var sum domain.SignalSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sum))
	assert.Equal(t, "No active geographic signals.", sum.Digest)
}

func TestIngestStats(t *testing.T) {
	srv, _ := newTestServer(nil)
	rec := get(t, srv, "/v1/ingest-stats")

	assert.Equal(t, http.StatusOK, rec.Code)

	var stats signals.IngestStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, int64(40), stats.Processed)
	assert.InDelta(t, 0.9, stats.Rate, 1e-9)
}
