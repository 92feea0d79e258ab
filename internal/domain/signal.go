package domain

import "time"

// SignalType identifies the kind of observation a GeoSignal carries.
type SignalType string

const (
	SignalOutage          SignalType = "outage"
	SignalFlightDensity   SignalType = "flight_density"
	SignalVesselDensity   SignalType = "vessel_density"
	SignalProtestDensity  SignalType = "protest_density"
	SignalAISDisruption   SignalType = "ais_disruption"
	SignalSatelliteFire   SignalType = "satellite_fire"
	SignalTemporalAnomaly SignalType = "temporal_anomaly"
	SignalActiveStrike    SignalType = "active_strike"
	SignalTheaterPosture  SignalType = "theater_posture"
)

// GeoSignal is a single typed, geolocated, severity-tagged observation.
// Aggregate signals (flight/vessel/strike density) carry the per-country
// observation count; SourceTag identifies the producing feed for kinds that
// are deduplicated per source (temporal anomalies).
type GeoSignal struct {
	Type      SignalType `json:"type"`
	Lat       float64    `json:"lat"`
	Lon       float64    `json:"lon"`
	Severity  string     `json:"severity"` // low, medium, high
	Country   string     `json:"country,omitempty"`
	Count     int        `json:"count,omitempty"`
	SourceTag string     `json:"source_tag,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// CountrySignalCluster groups all live signals resolved to one country.
type CountrySignalCluster struct {
	Code         string      `json:"code"`
	Name         string      `json:"name"`
	Signals      []GeoSignal `json:"signals"`
	TypeCount    int         `json:"type_count"`
	HighSeverity int         `json:"high_severity"`
	Score        float64     `json:"score"`
}

// RegionalConvergence reports independent signal types co-occurring across a
// static multi-country region.
type RegionalConvergence struct {
	Region      string       `json:"region"`
	Countries   []string     `json:"countries"`
	SignalTypes []SignalType `json:"signal_types"`
}

// SignalSummary is the aggregator's externally exposed snapshot.
type SignalSummary struct {
	ByType   map[SignalType]int     `json:"by_type"`
	Clusters []CountrySignalCluster `json:"clusters"`
	Regional []RegionalConvergence  `json:"regional"`
	Digest   string                 `json:"digest"`
}
