package scoring

import (
	"math"
	"time"

	"github.com/geofusion/instability-core/internal/domain"
	"github.com/geofusion/instability-core/internal/signals"
)

// recentStrikeWindow bounds how long a strike keeps contributing to the
// conflict component.
const recentStrikeWindow = 6 * time.Hour

// unrestComponent scores civil unrest: protest volume (log-compressed for
// high-volume countries), fatalities, high-severity share, and internet
// outage weight.
func unrestComponent(b *signals.Bucket, prof Profile) float64 {
	if b == nil {
		return 0
	}

	n := float64(len(b.Protests))
	var score float64
	if prof.Multiplier < 0.7 {
		score = 18 * math.Log1p(n)
	} else {
		score = 8 * n * prof.Multiplier
	}

	fatalities := 0
	highSeverity := 0
	for _, p := range b.Protests {
		fatalities += p.Fatalities
		switch p.Severity {
		case "high", "severe", "critical":
			highSeverity++
		}
	}
	score += 4 * float64(fatalities)
	score += 5 * float64(highSeverity)

	outage := 0.0
	for _, o := range b.Outages {
		switch o.Severity {
		case domain.OutageTotal:
			outage += 15
		case domain.OutageMajor:
			outage += 10
		case domain.OutagePartial:
			outage += 5
		}
	}
	score += math.Min(25, outage)

	return clamp(score, 0, 100)
}

// conflictComponent scores armed conflict as the maximum of three sources:
// granular events, the humanitarian-summary fallback, and a gated news floor.
// Recent strike activity and regional alert density add on top.
func conflictComponent(b *signals.Bucket, now time.Time) float64 {
	if b == nil {
		return 0
	}

	var battles, explosions, civilian int
	fatalities := 0
	for _, c := range b.Conflicts {
		switch c.EventType {
		case "battle":
			battles++
		case "explosion":
			explosions++
		case "violence_against_civilians":
			civilian++
		}
		fatalities += c.Fatalities
	}

	primary := 0.0
	if battles+explosions+civilian > 0 {
		primary = 6*float64(battles) + 5*float64(explosions) + 7*float64(civilian) + 3*math.Sqrt(float64(fatalities))
	}

	// Aggregate humanitarian data stands in only when no granular events exist.
	fallback := 0.0
	if primary == 0 && b.Humanitarian != nil {
		h := b.Humanitarian
		fallback = 2*float64(h.EventsPoliticalViolence) +
			0.5*float64(h.EventsDemonstrations) +
			3*math.Sqrt(float64(h.Fatalities))
		fallback = math.Min(60, fallback)
	}

	score := math.Max(primary, math.Max(fallback, newsFloor(b, primary, fallback)))

	recent := 0
	for _, st := range b.Strikes {
		if !st.Timestamp.IsZero() && now.Sub(st.Timestamp) <= recentStrikeWindow {
			recent++
		}
	}
	score += math.Min(20, 4*float64(recent))
	score += math.Min(15, 3*float64(b.MissileAlerts))

	return clamp(score, 0, 100)
}

// newsFloor grants a modest conflict floor from news alone, gated hard: at
// least two conflict-tagged clusters, at least two independent sources in
// total, and at least one trusted-tier source among them.
func newsFloor(b *signals.Bucket, primary, fallback float64) float64 {
	if primary > 0 || fallback > 0 {
		return 0
	}
	clusters := 0
	totalSources := 0
	trusted := 0
	for _, n := range b.News {
		if n.Threat.Category != "conflict" {
			continue
		}
		clusters++
		totalSources += n.Velocity.Sources
		trusted += n.Velocity.TrustedSources
	}
	if clusters >= 2 && totalSources >= 2 && trusted >= 1 {
		return 25
	}
	return 0
}

// securityComponent scores foreign military presence and aviation disruption.
func securityComponent(b *signals.Bucket) float64 {
	if b == nil {
		return 0
	}

	score := 2.5*float64(b.FlightCount) + 3.5*float64(b.VesselCount)

	aviation := 0.0
	for _, a := range b.Aviation {
		if a.DelayType == "closure" {
			aviation += 20
			continue
		}
		switch a.Severity {
		case "severe":
			aviation += 12
		case "major":
			aviation += 8
		case "moderate":
			aviation += 4
		}
	}
	score += math.Min(30, aviation)

	return clamp(score, 0, 100)
}

// informationComponent scores news pressure: cluster volume (log-compressed
// for high-volume countries), velocity above a volume-dependent threshold,
// and a flat boost when any cluster is a breaking alert.
func informationComponent(b *signals.Bucket, prof Profile) float64 {
	if b == nil {
		return 0
	}

	n := float64(len(b.News))
	var score float64
	if prof.Multiplier < 0.7 {
		score = 10 * math.Log1p(n)
	} else {
		score = 6 * n
	}

	if avg := averageVelocity(b); avg > 0 {
		threshold := 2.0
		if len(b.News) > 10 {
			threshold = 3.0
		}
		if excess := avg - threshold; excess > 0 {
			score += math.Min(20, 4*excess)
		}
	}

	for _, c := range b.News {
		if c.Velocity.Breaking {
			score += 15
			break
		}
	}

	return clamp(score, 0, 100)
}

func averageVelocity(b *signals.Bucket) float64 {
	if len(b.News) == 0 {
		return 0
	}
	total := 0.0
	for _, c := range b.News {
		total += c.Velocity.SourcesPerHour
	}
	return total / float64(len(b.News))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
