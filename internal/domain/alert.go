package domain

import "time"

// AlertType distinguishes the three alert factories plus the merged form.
type AlertType string

const (
	AlertConvergence AlertType = "convergence"
	AlertCIISpike    AlertType = "cii_spike"
	AlertCascade     AlertType = "cascade"
	AlertComposite   AlertType = "composite"
)

// AlertPriority orders alerts for notification purposes.
type AlertPriority string

const (
	PriorityCritical AlertPriority = "critical"
	PriorityHigh     AlertPriority = "high"
	PriorityMedium   AlertPriority = "medium"
	PriorityLow      AlertPriority = "low"
)

// Rank returns a comparable ordering for priorities, higher is more urgent.
func (p AlertPriority) Rank() int {
	switch p {
	case PriorityCritical:
		return 3
	case PriorityHigh:
		return 2
	case PriorityMedium:
		return 1
	default:
		return 0
	}
}

// Max returns the more urgent of two priorities.
func (p AlertPriority) Max(other AlertPriority) AlertPriority {
	if other.Rank() > p.Rank() {
		return other
	}
	return p
}

// AlertLocation is an optional point attached to an alert.
type AlertLocation struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// ConvergencePayload carries the detection that produced a convergence alert.
type ConvergencePayload struct {
	CellID      string  `json:"cell_id"`
	Score       float64 `json:"score"`
	SignalTypes int     `json:"signal_types"`
	EventCount  int     `json:"event_count"`
}

// CIIChangePayload carries a score shift. After merging, PreviousScore is the
// earliest previous score and CurrentScore the latest current score, so the
// payload spans the whole progression.
type CIIChangePayload struct {
	Country       string `json:"country"`
	PreviousScore int    `json:"previous_score"`
	CurrentScore  int    `json:"current_score"`
}

// CascadeImpact names one country affected by an infrastructure cascade.
type CascadeImpact struct {
	Country string `json:"country"`
	Level   string `json:"level"` // degraded, major, severe
}

// CascadePayload carries an infrastructure-disruption cascade result.
type CascadePayload struct {
	SourceAsset string          `json:"source_asset"`
	Impacts     []CascadeImpact `json:"impacts"`
}

// AlertComponents is the sparse bag of factory payloads on an alert. A
// composite alert may carry more than one.
type AlertComponents struct {
	Convergence *ConvergencePayload `json:"convergence,omitempty"`
	CIIChange   *CIIChangePayload   `json:"cii_change,omitempty"`
	Cascade     *CascadePayload     `json:"cascade,omitempty"`
}

// UnifiedAlert is one entry in the deduplicated correlated-alert feed.
// Mergeable classes carry a stable ID (CII alerts are keyed by country,
// convergence alerts by originating grid cell); other IDs are generated.
type UnifiedAlert struct {
	ID         string          `json:"id"`
	Type       AlertType       `json:"type"`
	Priority   AlertPriority   `json:"priority"`
	Title      string          `json:"title"`
	Summary    string          `json:"summary"`
	Components AlertComponents `json:"components"`
	Location   *AlertLocation  `json:"location,omitempty"`
	Countries  []string        `json:"countries,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
}

// ConvergenceDetection is the aggregator's input to the convergence alert
// factory: a grid cell where multiple independent signal types co-occur.
type ConvergenceDetection struct {
	CellID      string   `json:"cell_id"`
	Lat         float64  `json:"lat"`
	Lon         float64  `json:"lon"`
	Score       float64  `json:"score"`
	SignalTypes int      `json:"signal_types"`
	EventCount  int      `json:"event_count"`
	Countries   []string `json:"countries,omitempty"`
}

// CascadeResult is the input to the cascade alert factory: a disrupted source
// asset and the countries its disruption propagates to.
type CascadeResult struct {
	SourceAsset string          `json:"source_asset"`
	Impacts     []CascadeImpact `json:"impacts"`
	Lat         float64         `json:"lat"`
	Lon         float64         `json:"lon"`
}
