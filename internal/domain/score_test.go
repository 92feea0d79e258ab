package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelForScore_Boundaries(t *testing.T) {
	tests := []struct {
		score    int
		expected ScoreLevel
	}{
		{0, LevelLow},
		{30, LevelLow},
		{31, LevelNormal},
		{50, LevelNormal},
		{51, LevelElevated},
		{65, LevelElevated},
		{66, LevelHigh},
		{80, LevelHigh},
		{81, LevelCritical},
		{100, LevelCritical},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, LevelForScore(tt.score), "score=%d", tt.score)
	}
}

func TestTrendForChange(t *testing.T) {
	tests := []struct {
		change   int
		expected Trend
	}{
		{0, TrendStable},
		{4, TrendStable},
		{5, TrendRising},
		{23, TrendRising},
		{-4, TrendStable},
		{-5, TrendFalling},
		{-40, TrendFalling},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, TrendForChange(tt.change), "change=%d", tt.change)
	}
}

func TestAlertPriority_Max(t *testing.T) {
	assert.Equal(t, PriorityCritical, PriorityHigh.Max(PriorityCritical))
	assert.Equal(t, PriorityCritical, PriorityCritical.Max(PriorityLow))
	assert.Equal(t, PriorityMedium, PriorityMedium.Max(PriorityLow))
	assert.Equal(t, PriorityLow, PriorityLow.Max(PriorityLow))
}
