package domain

import "time"

// MergePolicy declares how an ingest kind combines a new batch with prior state.
type MergePolicy string

const (
	// ReplaceOnIngest resets the kind's prior state before applying the batch.
	ReplaceOnIngest MergePolicy = "replace"
	// AppendOnIngest accumulates batches until an explicit clear.
	AppendOnIngest MergePolicy = "append"
	// LatestOnIngest keeps one value per country, with the newest (or highest)
	// batch value winning; countries absent from a batch keep their prior value.
	LatestOnIngest MergePolicy = "latest"
)

// ConflictIntensity is the UCDP state-based conflict classification.
type ConflictIntensity string

const (
	IntensityNone  ConflictIntensity = "none"
	IntensityMinor ConflictIntensity = "minor"
	IntensityWar   ConflictIntensity = "war"
)

// ProtestEvent is a single civil-unrest record (protest or riot).
type ProtestEvent struct {
	Country    string  `json:"country"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	Severity   string  `json:"severity"` // low, moderate, high
	Fatalities int     `json:"fatalities,omitempty"`
}

// ConflictEvent is a single armed-conflict record in ACLED taxonomy.
type ConflictEvent struct {
	Country    string  `json:"country"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	EventType  string  `json:"event_type"` // battle, explosion, violence_against_civilians
	Fatalities int     `json:"fatalities"`
}

// UCDPClassification is a per-country conflict-intensity classification.
type UCDPClassification struct {
	Country   string            `json:"country"`
	Intensity ConflictIntensity `json:"intensity"`
	Year      int               `json:"year"`
	SideA     string            `json:"side_a,omitempty"`
	SideB     string            `json:"side_b,omitempty"`
}

// HumanitarianSummary is an aggregate HAPI conflict summary, used as a
// fallback conflict signal when no granular events are available.
type HumanitarianSummary struct {
	CountryCode             string `json:"country_code"`
	EventsPoliticalViolence int    `json:"events_political_violence"`
	EventsDemonstrations    int    `json:"events_demonstrations"`
	Fatalities              int    `json:"fatalities"`
}

// DisplacementRecord reports refugee and asylum-seeker outflow for a country.
type DisplacementRecord struct {
	Code          string `json:"code,omitempty"`
	Name          string `json:"name,omitempty"`
	Refugees      int    `json:"refugees"`
	AsylumSeekers int    `json:"asylum_seekers"`
}

// ClimateAnomaly flags climate stress in a named zone. The zone is free text
// and is resolved to countries by name scanning.
type ClimateAnomaly struct {
	Zone     string `json:"zone"`
	Severity string `json:"severity"` // watch, warning, emergency
}

// MilitaryFlight is a single tracked military aircraft position.
type MilitaryFlight struct {
	OperatorCountry string  `json:"operator_country"`
	Lat             float64 `json:"lat"`
	Lon             float64 `json:"lon"`
}

// MilitaryVessel is a single tracked military vessel position.
type MilitaryVessel struct {
	OperatorCountry string  `json:"operator_country"`
	Lat             float64 `json:"lat"`
	Lon             float64 `json:"lon"`
}

// NewsThreat is the threat tagging attached to a news cluster.
type NewsThreat struct {
	Level    string `json:"level"`    // low, moderate, elevated, severe, critical
	Category string `json:"category"` // conflict, unrest, cyber, ...
}

// NewsVelocity describes how fast a news cluster is growing.
type NewsVelocity struct {
	SourcesPerHour float64 `json:"sources_per_hour"`
	Sources        int     `json:"sources"`
	TrustedSources int     `json:"trusted_sources"`
	Breaking       bool    `json:"breaking"`
}

// NewsCluster is a deduplicated free-text news story cluster.
type NewsCluster struct {
	ID       string       `json:"id"`
	Title    string       `json:"title"`
	Threat   NewsThreat   `json:"threat"`
	Velocity NewsVelocity `json:"velocity"`
}

// OutageSeverity classifies an internet outage.
type OutageSeverity string

const (
	OutagePartial OutageSeverity = "partial"
	OutageMajor   OutageSeverity = "major"
	OutageTotal   OutageSeverity = "total"
)

// InternetOutage is a single connectivity-disruption observation.
type InternetOutage struct {
	Country  string         `json:"country"`
	Lat      float64        `json:"lat"`
	Lon      float64        `json:"lon"`
	Severity OutageSeverity `json:"severity"`
}

// StrikeEvent is a geolocated kinetic strike observation.
type StrikeEvent struct {
	ID        string    `json:"id"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Severity  string    `json:"severity"`
	Timestamp time.Time `json:"timestamp"`
}

// AviationDisruption reports degraded civil aviation in a country.
type AviationDisruption struct {
	Country   string `json:"country"`
	DelayType string `json:"delay_type"` // delay, ground_stop, closure
	Severity  string `json:"severity"`   // moderate, major, severe
}

// SecurityAdvisory is a government travel advisory. Level follows the US
// State Department scale: 1 normal precautions through 4 do-not-travel.
type SecurityAdvisory struct {
	Country       string `json:"country,omitempty"`
	SourceCountry string `json:"source_country"`
	Level         int    `json:"level"`
}

// AISDisruption is a gap in AIS vessel-tracking coverage, a jamming or
// shutdown indicator.
type AISDisruption struct {
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	GapHours float64 `json:"gap_hours"`
}

// FireDetection is a satellite thermal-anomaly detection.
type FireDetection struct {
	Lat            float64 `json:"lat"`
	Lon            float64 `json:"lon"`
	RadiativePower float64 `json:"radiative_power"` // megawatts
}

// TemporalAnomaly is a deviation from a learned activity baseline, tagged
// with the source feed that produced it so re-ingestion replaces only that
// source's anomalies.
type TemporalAnomaly struct {
	SourceTag   string  `json:"source_tag"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	Description string  `json:"description"`
	Severity    string  `json:"severity"`
}

// TheaterPosture summarizes military posture for a named theater.
type TheaterPosture struct {
	Theater string  `json:"theater"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Level   string  `json:"level"` // routine, elevated, surge
}
