package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus instruments for the fusion core.
type Metrics struct {
	EventsIngested *prometheus.CounterVec // labels: kind
	EventsUnmapped *prometheus.CounterVec // labels: kind

	ScoringDuration prometheus.Histogram
	CountriesScored prometheus.Gauge
	LearningMode    prometheus.Gauge

	AlertsActive  prometheus.Gauge
	AlertsCreated *prometheus.CounterVec // labels: type
	AlertsMerged  prometheus.Counter

	RefreshCycles prometheus.Counter
}

// NewMetrics creates and registers all core metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.EventsIngested,
		m.EventsUnmapped,
		m.ScoringDuration,
		m.CountriesScored,
		m.LearningMode,
		m.AlertsActive,
		m.AlertsCreated,
		m.AlertsMerged,
		m.RefreshCycles,
	)
	return m
}

// NewMetricsForTesting creates Metrics left unregistered, so parallel tests
// never hit "already registered" panics.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		EventsIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cii",
			Name:      "events_ingested_total",
			Help:      "Events accepted per upstream kind.",
		}, []string{"kind"}),
		EventsUnmapped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cii",
			Name:      "events_unmapped_total",
			Help:      "Events dropped from country attribution per upstream kind.",
		}, []string{"kind"}),
		ScoringDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cii",
			Name:      "scoring_duration_seconds",
			Help:      "Duration of one full scoring pass.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
		CountriesScored: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "cii",
			Name:      "countries_scored",
			Help:      "Countries covered by the last scoring pass.",
		}),
		LearningMode: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "cii",
			Name:      "learning_mode",
			Help:      "1 while cold-start alert suppression is active.",
		}),
		AlertsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "cii",
			Name:      "alerts_active",
			Help:      "Live entries in the alert store.",
		}),
		AlertsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cii",
			Name:      "alerts_created_total",
			Help:      "Alerts created per type.",
		}, []string{"type"}),
		AlertsMerged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cii",
			Name:      "alerts_merged_total",
			Help:      "Alert pairs collapsed by dedup or spatiotemporal merge.",
		}),
		RefreshCycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cii",
			Name:      "refresh_cycles_total",
			Help:      "Completed score-and-correlate refresh cycles.",
		}),
	}
}
