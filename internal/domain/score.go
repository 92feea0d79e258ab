package domain

import "time"

// ScoreLevel is the discrete banding of a composite score.
type ScoreLevel string

const (
	LevelLow      ScoreLevel = "low"
	LevelNormal   ScoreLevel = "normal"
	LevelElevated ScoreLevel = "elevated"
	LevelHigh     ScoreLevel = "high"
	LevelCritical ScoreLevel = "critical"
)

// Trend describes score movement against the previously published score.
type Trend string

const (
	TrendRising  Trend = "rising"
	TrendStable  Trend = "stable"
	TrendFalling Trend = "falling"
)

// ComponentScores holds the four weighted sub-scores, each 0-100.
type ComponentScores struct {
	Unrest      float64 `json:"unrest"`
	Conflict    float64 `json:"conflict"`
	Security    float64 `json:"security"`
	Information float64 `json:"information"`
}

// CountryScore is one country's published Country Instability Index.
type CountryScore struct {
	Code       string          `json:"code"`
	Name       string          `json:"name"`
	Score      int             `json:"score"`
	Level      ScoreLevel      `json:"level"`
	Trend      Trend           `json:"trend"`
	Change24h  int             `json:"change_24h"`
	Components ComponentScores `json:"components"`
	Timestamp  time.Time       `json:"timestamp"`
}

// LevelForScore maps a rounded score to its band.
func LevelForScore(score int) ScoreLevel {
	switch {
	case score >= 81:
		return LevelCritical
	case score >= 66:
		return LevelHigh
	case score >= 51:
		return LevelElevated
	case score >= 31:
		return LevelNormal
	default:
		return LevelLow
	}
}

// TrendForChange maps a score delta to a trend. Moves under five points in
// either direction read as stable.
func TrendForChange(change int) Trend {
	switch {
	case change >= 5:
		return TrendRising
	case change <= -5:
		return TrendFalling
	default:
		return TrendStable
	}
}
