// Package http exposes the computed scores, alerts, and signal summary over a
// small read-only JSON API, plus health and metrics endpoints.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/geofusion/instability-core/internal/domain"
	"github.com/geofusion/instability-core/internal/signals"
)

const defaultAlertWindowHours = 24

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// ScoreSource is the refresh driver's published snapshot.
type ScoreSource interface {
	Scores() []domain.CountryScore
	ScoreOf(code string) (domain.CountryScore, bool)
}

// AlertSource is the alert engine's live feed.
type AlertSource interface {
	RecentAlerts(hours int) []domain.UnifiedAlert
}

// SignalSource is the convergence aggregator's snapshot.
type SignalSource interface {
	Summary() domain.SignalSummary
}

// StatsSource reports ingest attribution health from the signal store.
type StatsSource interface {
	GetIngestStats() signals.IngestStats
}

// Server exposes the read API plus health, readiness, and metrics routes.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	scores     ScoreSource
	alerts     AlertSource
	signals    SignalSource
	stats      StatsSource
}

// NewServer wires all routes onto a fresh mux.
func NewServer(addr string, ready ReadinessChecker, scores ScoreSource, alerts AlertSource, sigs SignalSource, stats StatsSource, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger:  logger,
		scores:  scores,
		alerts:  alerts,
		signals: sigs,
		stats:   stats,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /v1/scores", s.handleScores)
	mux.HandleFunc("GET /v1/scores/{code}", s.handleScore)
	mux.HandleFunc("GET /v1/alerts", s.handleAlerts)
	mux.HandleFunc("GET /v1/signals", s.handleSignals)
	mux.HandleFunc("GET /v1/ingest-stats", s.handleIngestStats)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func (s *Server) handleScores(w http.ResponseWriter, _ *http.Request) {
	scores := s.scores.Scores()
	writeJSON(w, http.StatusOK, map[string]any{
		"count":  len(scores),
		"scores": scores,
	})
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(r.PathValue("code"))
	score, ok := s.scores.ScoreOf(code)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "unknown country code " + code,
		})
		return
	}
	writeJSON(w, http.StatusOK, score)
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	hours := defaultAlertWindowHours
	if raw := r.URL.Query().Get("hours"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > defaultAlertWindowHours {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "hours must be an integer between 1 and 24",
			})
			return
		}
		hours = parsed
	}

	alerts := s.alerts.RecentAlerts(hours)
	writeJSON(w, http.StatusOK, map[string]any{
		"hours":  hours,
		"count":  len(alerts),
		"alerts": alerts,
	})
}

func (s *Server) handleSignals(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.signals.Summary())
}

func (s *Server) handleIngestStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.stats.GetIngestStats())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
