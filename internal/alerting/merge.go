package alerting

import (
	"fmt"
	"strings"

	"github.com/geofusion/instability-core/internal/domain"
	"github.com/geofusion/instability-core/internal/geo"
)

// upsert inserts an alert or collapses it into an existing one. Stable-ID
// alerts update their prior entry in place; the rest are tested against every
// live alert for a spatiotemporal match. Listeners fire on every outcome.
func (e *Engine) upsert(alert domain.UnifiedAlert, stable bool) {
	e.mu.Lock()

	merged := false
	if stable {
		for i := range e.alerts {
			if e.alerts[i].ID == alert.ID {
				if alert.Type == domain.AlertConvergence && e.alerts[i].Type == domain.AlertConvergence {
					// Re-detection of the same cell refreshes in place.
					updated := alert
					updated.Priority = e.alerts[i].Priority.Max(alert.Priority)
					e.alerts[i] = updated
				} else {
					e.alerts[i] = mergeAlerts(e.alerts[i], alert)
					// Keep the stable key so the next update still finds it.
					e.alerts[i].ID = alert.ID
				}
				e.metrics.AlertsMerged.Inc()
				merged = true
				break
			}
		}
	} else {
		for i := range e.alerts {
			if e.matches(e.alerts[i], alert) {
				e.alerts[i] = mergeAlerts(e.alerts[i], alert)
				e.metrics.AlertsMerged.Inc()
				merged = true
				break
			}
		}
	}

	if !merged {
		e.alerts = append([]domain.UnifiedAlert{alert}, e.alerts...)
		if len(e.alerts) > maxLiveAlerts {
			e.alerts = e.alerts[:maxLiveAlerts]
		}
		e.metrics.AlertsCreated.WithLabelValues(string(alert.Type)).Inc()
	}
	e.metrics.AlertsActive.Set(float64(len(e.alerts)))

	listeners := make([]func(), len(e.listeners))
	copy(listeners, e.listeners)
	e.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}

// matches reports whether two alerts describe the same situation: sharing a
// country or lying within the merge radius, and close enough in time.
func (e *Engine) matches(a, b domain.UnifiedAlert) bool {
	dt := a.Timestamp.Sub(b.Timestamp)
	if dt < 0 {
		dt = -dt
	}
	if dt > mergeWindow {
		return false
	}

	for _, ca := range a.Countries {
		for _, cb := range b.Countries {
			if ca == cb {
				return true
			}
		}
	}

	if a.Location != nil && b.Location != nil {
		if geo.HaversineKm(a.Location.Lat, a.Location.Lon, b.Location.Lat, b.Location.Lon) <= mergeRadiusKm {
			return true
		}
	}
	return false
}

// mergeAlerts collapses two alerts into a composite: higher priority, later
// timestamp, union of countries and component payloads, regenerated
// title/summary.
func mergeAlerts(existing, incoming domain.UnifiedAlert) domain.UnifiedAlert {
	out := existing
	out.Type = domain.AlertComposite
	out.Priority = existing.Priority.Max(incoming.Priority)
	if incoming.Timestamp.After(out.Timestamp) {
		out.Timestamp = incoming.Timestamp
	}
	out.Countries = unionCountries(existing.Countries, incoming.Countries)
	if out.Location == nil {
		out.Location = incoming.Location
	}
	out.Components = mergeComponents(existing.Components, incoming.Components)

	if cii := out.Components.CIIChange; cii != nil && existing.Components.CIIChange != nil && incoming.Components.CIIChange != nil {
		// A CII progression reads as one narrative spanning the whole move.
		direction := "risen"
		if cii.CurrentScore < cii.PreviousScore {
			direction = "fallen"
		}
		out.Title = fmt.Sprintf("Sustained instability shift: %s", cii.Country)
		out.Summary = fmt.Sprintf("Instability score for %s has %s from %d to %d across successive updates",
			cii.Country, direction, cii.PreviousScore, cii.CurrentScore)
		return out
	}

	out.Title = existing.Title
	out.Summary = mergeSummaries(existing.Summary, incoming.Summary)
	return out
}

// mergeComponents unions the sparse payload bags. Two CII payloads collapse
// into one spanning the earliest previous score to the latest current score.
func mergeComponents(a, b domain.AlertComponents) domain.AlertComponents {
	out := a
	if out.Convergence == nil {
		out.Convergence = b.Convergence
	}
	if out.Cascade == nil {
		out.Cascade = b.Cascade
	}
	switch {
	case out.CIIChange == nil:
		out.CIIChange = b.CIIChange
	case b.CIIChange != nil:
		span := *out.CIIChange
		span.CurrentScore = b.CIIChange.CurrentScore
		out.CIIChange = &span
	}
	return out
}

// mergeSummaries concatenates up to three distinct fragments and notes the
// overflow beyond that.
func mergeSummaries(existing, incoming string) string {
	fragments := strings.Split(existing, " | ")

	overflow := 0
	if last := fragments[len(fragments)-1]; strings.HasPrefix(last, "(+") {
		fmt.Sscanf(last, "(+%d more)", &overflow)
		fragments = fragments[:len(fragments)-1]
	}

	duplicate := false
	for _, f := range fragments {
		if f == incoming {
			duplicate = true
			break
		}
	}
	if !duplicate {
		if len(fragments) < 3 {
			fragments = append(fragments, incoming)
		} else {
			overflow++
		}
	}

	if overflow > 0 {
		fragments = append(fragments, fmt.Sprintf("(+%d more)", overflow))
	}
	return strings.Join(fragments, " | ")
}

func unionCountries(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for _, list := range [][]string{a, b} {
		for _, c := range list {
			if !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}
	return out
}
