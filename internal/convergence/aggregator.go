// Package convergence maintains live per-type geographic signal snapshots and
// detects places where multiple independent signal types co-occur.
package convergence

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/geofusion/instability-core/internal/domain"
	"github.com/geofusion/instability-core/internal/geo"
	"github.com/geofusion/instability-core/internal/signals"
)

const (
	// signalWindow is the rolling retention applied across all types on every
	// ingest.
	signalWindow = 24 * time.Hour

	// detectionThreshold is the minimum cluster score that produces a
	// convergence detection for the alert engine.
	detectionThreshold = 50.0

	// cellSizeDeg is the grid granularity used for stable detection identity.
	cellSizeDeg = 5.0
)

// region is a statically defined multi-country area watched for cross-border
// convergence.
type region struct {
	Name    string
	Members []string
}

var regions = []region{
	{"Middle East", []string{"IL", "PS", "LB", "SY", "IQ", "IR", "YE", "JO", "SA"}},
	{"Eastern Europe", []string{"UA", "RU", "BY", "MD", "PL"}},
	{"Sahel", []string{"ML", "BF", "NE", "TD", "MR", "NG"}},
	{"Horn of Africa", []string{"ET", "SO", "SD", "ER", "DJ", "KE"}},
	{"East Asia", []string{"TW", "CN", "JP", "KR", "KP"}},
	{"South Caucasus", []string{"AM", "AZ", "GE"}},
}

// Aggregator owns the live signal snapshots, one slice per signal type. Each
// ingest entry point is ReplaceOnIngest for its own type and prunes the
// rolling window across every type.
type Aggregator struct {
	logger   *slog.Logger
	geo      *geo.Index
	resolver *signals.Resolver
	clock    clockwork.Clock

	mu     sync.RWMutex
	byType map[domain.SignalType][]domain.GeoSignal
}

// New creates an empty aggregator over the given geometry index, sharing the
// signal store's resolution rule table so both attribute identically.
func New(ix *geo.Index, resolver *signals.Resolver, logger *slog.Logger, clock clockwork.Clock) *Aggregator {
	return &Aggregator{
		logger:   logger,
		geo:      ix,
		resolver: resolver,
		clock:    clock,
		byType:   make(map[domain.SignalType][]domain.GeoSignal),
	}
}

// replaceType swaps in a fresh snapshot for one signal type and prunes stale
// entries across all types.
func (a *Aggregator) replaceType(st domain.SignalType, sigs []domain.GeoSignal) {
	cutoff := a.clock.Now().Add(-signalWindow)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.byType[st] = sigs
	for t, list := range a.byType {
		kept := list[:0]
		for _, s := range list {
			if s.Timestamp.After(cutoff) {
				kept = append(kept, s)
			}
		}
		a.byType[t] = kept
	}
}

// resolveCountry attributes a point observation, falling back through the
// full rule table (geometry then coarse bbox).
func (a *Aggregator) resolveCountry(lat, lon float64) (string, bool) {
	code, _, ok := a.resolver.Resolve(signals.Ref{Lat: lat, Lon: lon, HasCoords: true})
	return code, ok
}

// IngestOutages replaces the outage snapshot. Outages arrive already
// attributed; coordinates are kept for clustering.
func (a *Aggregator) IngestOutages(outages []domain.InternetOutage) {
	now := a.clock.Now()
	sigs := make([]domain.GeoSignal, 0, len(outages))
	for _, o := range outages {
		sev := "medium"
		switch o.Severity {
		case domain.OutageTotal:
			sev = "high"
		case domain.OutagePartial:
			sev = "low"
		}
		code := strings.ToUpper(o.Country)
		if code == "" {
			if resolved, ok := a.resolveCountry(o.Lat, o.Lon); ok {
				code = resolved
			}
		}
		sigs = append(sigs, domain.GeoSignal{
			Type: domain.SignalOutage, Lat: o.Lat, Lon: o.Lon,
			Severity: sev, Country: code, Timestamp: now,
		})
	}
	a.replaceType(domain.SignalOutage, sigs)
}

// IngestFlights replaces the flight-density snapshot. Raw positions are
// grouped per resolved country into one synthetic signal with a count-derived
// severity, keeping downstream clustering tractable.
func (a *Aggregator) IngestFlights(flights []domain.MilitaryFlight) {
	pts := make([]point, 0, len(flights))
	for _, f := range flights {
		pts = append(pts, point{f.Lat, f.Lon})
	}
	a.replaceType(domain.SignalFlightDensity, a.densitySignals(domain.SignalFlightDensity, pts))
}

// IngestVessels replaces the vessel-density snapshot, grouped like flights.
func (a *Aggregator) IngestVessels(vessels []domain.MilitaryVessel) {
	pts := make([]point, 0, len(vessels))
	for _, v := range vessels {
		pts = append(pts, point{v.Lat, v.Lon})
	}
	a.replaceType(domain.SignalVesselDensity, a.densitySignals(domain.SignalVesselDensity, pts))
}

// IngestStrikes replaces the active-strike snapshot, grouped per country.
// Strike timestamps are preserved so stale strikes age out on their own
// clock rather than the ingest time.
func (a *Aggregator) IngestStrikes(strikes []domain.StrikeEvent) {
	now := a.clock.Now()
	type group struct {
		count  int
		sumLat float64
		sumLon float64
		latest time.Time
	}
	groups := make(map[string]*group)
	for _, s := range strikes {
		code, ok := a.resolveCountry(s.Latitude, s.Longitude)
		if !ok {
			continue
		}
		g := groups[code]
		if g == nil {
			g = &group{}
			groups[code] = g
		}
		g.count++
		g.sumLat += s.Latitude
		g.sumLon += s.Longitude
		ts := s.Timestamp
		if ts.IsZero() {
			ts = now
		}
		if ts.After(g.latest) {
			g.latest = ts
		}
	}

	sigs := make([]domain.GeoSignal, 0, len(groups))
	for code, g := range groups {
		sigs = append(sigs, domain.GeoSignal{
			Type:      domain.SignalActiveStrike,
			Lat:       g.sumLat / float64(g.count),
			Lon:       g.sumLon / float64(g.count),
			Severity:  severityForCount(g.count),
			Country:   code,
			Count:     g.count,
			Timestamp: g.latest,
		})
	}
	a.replaceType(domain.SignalActiveStrike, sigs)
}

// IngestProtests replaces the protest-density snapshot. Only geolocated
// protests participate; country attribution prefers the record's own name.
func (a *Aggregator) IngestProtests(protests []domain.ProtestEvent) {
	now := a.clock.Now()
	var sigs []domain.GeoSignal
	for _, p := range protests {
		if p.Lat == 0 && p.Lon == 0 {
			continue
		}
		code, _, ok := a.resolver.Resolve(signals.Ref{
			Text: p.Country, Code: p.Country, Lat: p.Lat, Lon: p.Lon, HasCoords: true,
		})
		if !ok {
			continue
		}
		sev := "low"
		switch p.Severity {
		case "high":
			sev = "high"
		case "moderate":
			sev = "medium"
		}
		if p.Fatalities > 0 {
			sev = "high"
		}
		sigs = append(sigs, domain.GeoSignal{
			Type: domain.SignalProtestDensity, Lat: p.Lat, Lon: p.Lon,
			Severity: sev, Country: code, Timestamp: now,
		})
	}
	a.replaceType(domain.SignalProtestDensity, sigs)
}

// IngestAISDisruptions replaces the AIS-gap snapshot. Longer coverage gaps
// rank as more severe.
func (a *Aggregator) IngestAISDisruptions(gaps []domain.AISDisruption) {
	now := a.clock.Now()
	sigs := make([]domain.GeoSignal, 0, len(gaps))
	for _, g := range gaps {
		sev := "low"
		switch {
		case g.GapHours >= 12:
			sev = "high"
		case g.GapHours >= 4:
			sev = "medium"
		}
		code, _ := a.resolveCountry(g.Lat, g.Lon)
		sigs = append(sigs, domain.GeoSignal{
			Type: domain.SignalAISDisruption, Lat: g.Lat, Lon: g.Lon,
			Severity: sev, Country: code, Timestamp: now,
		})
	}
	a.replaceType(domain.SignalAISDisruption, sigs)
}

// IngestFireDetections replaces the satellite-fire snapshot. Radiative power
// drives severity.
func (a *Aggregator) IngestFireDetections(fires []domain.FireDetection) {
	now := a.clock.Now()
	sigs := make([]domain.GeoSignal, 0, len(fires))
	for _, f := range fires {
		sev := "low"
		switch {
		case f.RadiativePower >= 100:
			sev = "high"
		case f.RadiativePower >= 25:
			sev = "medium"
		}
		code, _ := a.resolveCountry(f.Lat, f.Lon)
		sigs = append(sigs, domain.GeoSignal{
			Type: domain.SignalSatelliteFire, Lat: f.Lat, Lon: f.Lon,
			Severity: sev, Country: code, Timestamp: now,
		})
	}
	a.replaceType(domain.SignalSatelliteFire, sigs)
}

// IngestTemporalAnomalies replaces anomalies per source feed: entries from
// feeds named in this batch are swapped out, entries from other feeds are
// kept. The source tag rides on the signal itself.
func (a *Aggregator) IngestTemporalAnomalies(anomalies []domain.TemporalAnomaly) {
	now := a.clock.Now()
	incoming := make(map[string]bool)
	fresh := make([]domain.GeoSignal, 0, len(anomalies))
	for _, an := range anomalies {
		incoming[an.SourceTag] = true
		code, _ := a.resolveCountry(an.Lat, an.Lon)
		fresh = append(fresh, domain.GeoSignal{
			Type: domain.SignalTemporalAnomaly, Lat: an.Lat, Lon: an.Lon,
			Severity: normalizeSeverity(an.Severity), Country: code,
			SourceTag: an.SourceTag, Timestamp: now,
		})
	}

	a.mu.Lock()
	for _, s := range a.byType[domain.SignalTemporalAnomaly] {
		if !incoming[s.SourceTag] {
			fresh = append(fresh, s)
		}
	}
	a.mu.Unlock()

	a.replaceType(domain.SignalTemporalAnomaly, fresh)
}

// IngestTheaterPostures replaces the posture snapshot. Routine posture emits
// no signal.
func (a *Aggregator) IngestTheaterPostures(postures []domain.TheaterPosture) {
	now := a.clock.Now()
	var sigs []domain.GeoSignal
	for _, p := range postures {
		var sev string
		switch p.Level {
		case "surge":
			sev = "high"
		case "elevated":
			sev = "medium"
		default:
			continue
		}
		code, _, _ := a.resolver.Resolve(signals.Ref{
			Title: p.Theater, Lat: p.Lat, Lon: p.Lon, HasCoords: true,
		})
		sigs = append(sigs, domain.GeoSignal{
			Type: domain.SignalTheaterPosture, Lat: p.Lat, Lon: p.Lon,
			Severity: sev, Country: code, Timestamp: now,
		})
	}
	a.replaceType(domain.SignalTheaterPosture, sigs)
}

type point struct{ lat, lon float64 }

// densitySignals groups raw positions per resolved country into one synthetic
// signal per country carrying the observation count.
func (a *Aggregator) densitySignals(st domain.SignalType, pts []point) []domain.GeoSignal {
	now := a.clock.Now()
	type group struct {
		count  int
		sumLat float64
		sumLon float64
	}
	groups := make(map[string]*group)
	for _, p := range pts {
		code, ok := a.resolveCountry(p.lat, p.lon)
		if !ok {
			continue
		}
		g := groups[code]
		if g == nil {
			g = &group{}
			groups[code] = g
		}
		g.count++
		g.sumLat += p.lat
		g.sumLon += p.lon
	}

	sigs := make([]domain.GeoSignal, 0, len(groups))
	for code, g := range groups {
		sigs = append(sigs, domain.GeoSignal{
			Type:      st,
			Lat:       g.sumLat / float64(g.count),
			Lon:       g.sumLon / float64(g.count),
			Severity:  severityForCount(g.count),
			Country:   code,
			Count:     g.count,
			Timestamp: now,
		})
	}
	return sigs
}

// severityForCount is the tier for aggregate density signals.
func severityForCount(n int) string {
	switch {
	case n >= 10:
		return "high"
	case n >= 4:
		return "medium"
	default:
		return "low"
	}
}

func normalizeSeverity(s string) string {
	switch strings.ToLower(s) {
	case "high", "severe", "critical":
		return "high"
	case "medium", "moderate", "elevated":
		return "medium"
	default:
		return "low"
	}
}

// GetCountryClusters groups all live signals by country and scores each
// cluster, sorted descending.
func (a *Aggregator) GetCountryClusters() []domain.CountrySignalCluster {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.clustersLocked()
}

func (a *Aggregator) clustersLocked() []domain.CountrySignalCluster {
	byCountry := make(map[string][]domain.GeoSignal)
	for _, list := range a.byType {
		for _, s := range list {
			if s.Country == "" {
				continue
			}
			byCountry[s.Country] = append(byCountry[s.Country], s)
		}
	}

	clusters := make([]domain.CountrySignalCluster, 0, len(byCountry))
	for code, sigs := range byCountry {
		types := make(map[domain.SignalType]bool)
		high := 0
		for _, s := range sigs {
			types[s.Type] = true
			if s.Severity == "high" {
				high++
			}
		}
		score := math.Min(100,
			20*float64(len(types))+
				math.Min(30, 5*float64(len(sigs)))+
				10*float64(high))
		clusters = append(clusters, domain.CountrySignalCluster{
			Code:         code,
			Name:         a.geo.NameOf(code),
			Signals:      sigs,
			TypeCount:    len(types),
			HighSeverity: high,
			Score:        score,
		})
	}

	sort.Slice(clusters, func(i, j int) bool {
		if clusters[i].Score != clusters[j].Score {
			return clusters[i].Score > clusters[j].Score
		}
		return clusters[i].Code < clusters[j].Code
	})
	return clusters
}

// RegionalConvergences reports statically defined regions where at least two
// member countries hold active clusters spanning at least two distinct signal
// types between them.
func (a *Aggregator) RegionalConvergences() []domain.RegionalConvergence {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.regionalLocked(a.clustersLocked())
}

func (a *Aggregator) regionalLocked(clusters []domain.CountrySignalCluster) []domain.RegionalConvergence {
	byCode := make(map[string]domain.CountrySignalCluster, len(clusters))
	for _, c := range clusters {
		byCode[c.Code] = c
	}

	var out []domain.RegionalConvergence
	for _, reg := range regions {
		var members []string
		types := make(map[domain.SignalType]bool)
		for _, code := range reg.Members {
			c, ok := byCode[code]
			if !ok {
				continue
			}
			members = append(members, code)
			for _, s := range c.Signals {
				types[s.Type] = true
			}
		}
		if len(members) < 2 || len(types) < 2 {
			continue
		}
		typeList := make([]domain.SignalType, 0, len(types))
		for t := range types {
			typeList = append(typeList, t)
		}
		sort.Slice(typeList, func(i, j int) bool { return typeList[i] < typeList[j] })
		out = append(out, domain.RegionalConvergence{
			Region:      reg.Name,
			Countries:   members,
			SignalTypes: typeList,
		})
	}
	return out
}

// Detections returns one convergence detection per country cluster at or
// above the detection threshold, keyed by the grid cell of the cluster
// centroid so re-detection stays idempotent downstream.
func (a *Aggregator) Detections() []domain.ConvergenceDetection {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var out []domain.ConvergenceDetection
	for _, c := range a.clustersLocked() {
		if c.Score < detectionThreshold {
			continue
		}
		var sumLat, sumLon float64
		events := 0
		for _, s := range c.Signals {
			sumLat += s.Lat
			sumLon += s.Lon
			if s.Count > 1 {
				events += s.Count
			} else {
				events++
			}
		}
		lat := sumLat / float64(len(c.Signals))
		lon := sumLon / float64(len(c.Signals))
		out = append(out, domain.ConvergenceDetection{
			CellID:      gridCellID(lat, lon),
			Lat:         lat,
			Lon:         lon,
			Score:       c.Score,
			SignalTypes: c.TypeCount,
			EventCount:  events,
			Countries:   []string{c.Code},
		})
	}
	return out
}

// gridCellID buckets a point onto the detection grid.
func gridCellID(lat, lon float64) string {
	return fmt.Sprintf("%d:%d",
		int(math.Floor(lat/cellSizeDeg)),
		int(math.Floor(lon/cellSizeDeg)))
}

// GenerateContext renders a short natural-language digest of the top regional
// convergences and the top five country clusters, for a downstream
// summarization consumer. Pure over current in-memory state.
func (a *Aggregator) GenerateContext() string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	clusters := a.clustersLocked()
	return a.digestLocked(clusters, a.regionalLocked(clusters))
}

// Summary returns the externally exposed aggregator snapshot.
func (a *Aggregator) Summary() domain.SignalSummary {
	a.mu.RLock()
	defer a.mu.RUnlock()

	byType := make(map[domain.SignalType]int, len(a.byType))
	for t, list := range a.byType {
		if len(list) > 0 {
			byType[t] = len(list)
		}
	}
	clusters := a.clustersLocked()
	regional := a.regionalLocked(clusters)

	return domain.SignalSummary{
		ByType:   byType,
		Clusters: clusters,
		Regional: regional,
		Digest:   a.digestLocked(clusters, regional),
	}
}

func (a *Aggregator) digestLocked(clusters []domain.CountrySignalCluster, regional []domain.RegionalConvergence) string {
	var b strings.Builder
	if len(regional) > 0 {
		b.WriteString("Regional signal convergence:\n")
		for _, r := range regional {
			names := make([]string, len(r.SignalTypes))
			for i, t := range r.SignalTypes {
				names[i] = string(t)
			}
			fmt.Fprintf(&b, "- %s: %s across %s\n",
				r.Region, strings.Join(names, ", "), strings.Join(r.Countries, ", "))
		}
	}
	if len(clusters) > 0 {
		b.WriteString("Most active countries by live signals:\n")
		top := clusters
		if len(top) > 5 {
			top = top[:5]
		}
		for _, c := range top {
			fmt.Fprintf(&b, "- %s: %d signals of %d types (score %.0f)\n",
				c.Name, len(c.Signals), c.TypeCount, c.Score)
		}
	}
	if b.Len() == 0 {
		return "No active geographic signals."
	}
	return strings.TrimRight(b.String(), "\n")
}
