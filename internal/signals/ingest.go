package signals

import (
	"strings"

	"github.com/geofusion/instability-core/internal/domain"
)

// IngestProtests adds a batch of civil-unrest events. AppendOnIngest.
func (s *Store) IngestProtests(batch []domain.ProtestEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ev := range batch {
		code, _, ok := s.resolver.Resolve(Ref{
			Text:      ev.Country,
			Code:      ev.Country,
			Lat:       ev.Lat,
			Lon:       ev.Lon,
			HasCoords: hasCoords(ev.Lat, ev.Lon),
		})
		s.track("protest", ok)
		if !ok {
			continue
		}
		b := s.bucket(code)
		b.Protests = append(b.Protests, ev)
	}
}

// conflictEventTypes is the accepted ACLED-style taxonomy; anything else is a
// malformed record and skipped.
var conflictEventTypes = map[string]bool{
	"battle":                     true,
	"explosion":                  true,
	"violence_against_civilians": true,
}

// IngestConflicts adds a batch of armed-conflict events. AppendOnIngest.
func (s *Store) IngestConflicts(batch []domain.ConflictEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ev := range batch {
		if !conflictEventTypes[ev.EventType] {
			s.logger.Warn("skipping conflict event with unknown type", "event_type", ev.EventType)
			continue
		}
		code, _, ok := s.resolver.Resolve(Ref{
			Text:      ev.Country,
			Code:      ev.Country,
			Lat:       ev.Lat,
			Lon:       ev.Lon,
			HasCoords: hasCoords(ev.Lat, ev.Lon),
		})
		s.track("conflict", ok)
		if !ok {
			continue
		}
		b := s.bucket(code)
		b.Conflicts = append(b.Conflicts, ev)
	}
}

// IngestUCDP records conflict-intensity classifications. The highest
// classification seen for a country wins within a batch. LatestOnIngest.
func (s *Store) IngestUCDP(batch []domain.UCDPClassification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range batch {
		code, _, ok := s.resolver.Resolve(Ref{Text: rec.Country, Code: rec.Country})
		s.track("ucdp", ok)
		if !ok {
			continue
		}
		b := s.bucket(code)
		if intensityRank(rec.Intensity) > intensityRank(b.Intensity) {
			b.Intensity = rec.Intensity
		}
	}
}

func intensityRank(i domain.ConflictIntensity) int {
	switch i {
	case domain.IntensityWar:
		return 2
	case domain.IntensityMinor:
		return 1
	default:
		return 0
	}
}

// IngestHumanitarian records aggregate HAPI summaries, the conflict fallback
// signal. Latest value per country wins. LatestOnIngest.
func (s *Store) IngestHumanitarian(batch []domain.HumanitarianSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range batch {
		code, _, ok := s.resolver.Resolve(Ref{Code: rec.CountryCode})
		s.track("humanitarian", ok)
		if !ok {
			continue
		}
		summary := rec
		s.bucket(code).Humanitarian = &summary
	}
}

// IngestDisplacement fully resets displacement outflow on every country
// before applying the batch, so a country dropping out of the upstream feed
// does not keep a stale outflow. ReplaceOnIngest.
func (s *Store) IngestDisplacement(batch []domain.DisplacementRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.buckets {
		b.DisplacementOutflow = 0
	}
	for _, rec := range batch {
		ref := Ref{Code: rec.Code}
		if rec.Code == "" {
			ref = Ref{Text: rec.Name, Code: rec.Name}
		}
		code, _, ok := s.resolver.Resolve(ref)
		s.track("displacement", ok)
		if !ok {
			continue
		}
		s.bucket(code).DisplacementOutflow += rec.Refugees + rec.AsylumSeekers
	}
}

// climateStressLevel maps advisory wording to a numeric tier.
func climateStressLevel(severity string) int {
	switch strings.ToLower(severity) {
	case "emergency":
		return 3
	case "warning":
		return 2
	case "watch":
		return 1
	default:
		return 0
	}
}

// IngestClimate fully resets climate stress and re-derives it from the batch.
// Zones are free text and may span countries; every country named in the zone
// takes the zone's stress level, keeping its own maximum. ReplaceOnIngest.
func (s *Store) IngestClimate(batch []domain.ClimateAnomaly) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.buckets {
		b.ClimateStress = 0
	}
	for _, rec := range batch {
		level := climateStressLevel(rec.Severity)
		if level == 0 {
			s.logger.Warn("skipping climate anomaly with unknown severity", "severity", rec.Severity)
			continue
		}
		codes := s.geo.ScanTextForCountryNames(rec.Zone)
		s.track("climate", len(codes) > 0)
		for _, code := range codes {
			b := s.bucket(code)
			if level > b.ClimateStress {
				b.ClimateStress = level
			}
		}
	}
}

// IngestMilitaryFlights counts foreign military aircraft per host country:
// the position resolves to a country, and flights operated by that same
// country are domestic noise and not counted. AppendOnIngest.
func (s *Store) IngestMilitaryFlights(batch []domain.MilitaryFlight) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range batch {
		if !hasCoords(rec.Lat, rec.Lon) {
			s.logger.Warn("skipping military flight without position")
			continue
		}
		code, _, ok := s.resolver.Resolve(Ref{Lat: rec.Lat, Lon: rec.Lon, HasCoords: true})
		s.track("military_flight", ok)
		if !ok {
			continue
		}
		if operator, opOK := s.operatorCode(rec.OperatorCountry); opOK && operator == code {
			continue
		}
		s.bucket(code).FlightCount++
	}
}

// IngestMilitaryVessels counts foreign military vessels per host country.
// AppendOnIngest.
func (s *Store) IngestMilitaryVessels(batch []domain.MilitaryVessel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range batch {
		if !hasCoords(rec.Lat, rec.Lon) {
			s.logger.Warn("skipping military vessel without position")
			continue
		}
		code, _, ok := s.resolver.Resolve(Ref{Lat: rec.Lat, Lon: rec.Lon, HasCoords: true})
		s.track("military_vessel", ok)
		if !ok {
			continue
		}
		if operator, opOK := s.operatorCode(rec.OperatorCountry); opOK && operator == code {
			continue
		}
		s.bucket(code).VesselCount++
	}
}

func (s *Store) operatorCode(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}
	return s.resolver.byISOCode(Ref{Code: raw})
}

// IngestNewsClusters attributes news clusters by title. A cluster already
// attributed to a country is overwritten in place on re-ingestion of the same
// identity, so refreshing a feed never double-counts a story. AppendOnIngest
// for new identities.
func (s *Store) IngestNewsClusters(batch []domain.NewsCluster) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cluster := range batch {
		if cluster.ID == "" || cluster.Title == "" {
			s.logger.Warn("skipping news cluster without id or title")
			continue
		}
		code, _, ok := s.resolver.Resolve(Ref{Title: cluster.Title})
		s.track("news_cluster", ok)
		if !ok {
			continue
		}
		b := s.bucket(code)
		if idx, seen := b.newsIndex[cluster.ID]; seen {
			b.News[idx] = cluster
			continue
		}
		b.newsIndex[cluster.ID] = len(b.News)
		b.News = append(b.News, cluster)
	}
}

// IngestOutages adds internet-outage observations. AppendOnIngest.
func (s *Store) IngestOutages(batch []domain.InternetOutage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range batch {
		code, _, ok := s.resolver.Resolve(Ref{
			Text:      rec.Country,
			Code:      rec.Country,
			Lat:       rec.Lat,
			Lon:       rec.Lon,
			HasCoords: hasCoords(rec.Lat, rec.Lon),
		})
		s.track("outage", ok)
		if !ok {
			continue
		}
		b := s.bucket(code)
		b.Outages = append(b.Outages, rec)
	}
}

// IngestStrikes adds geolocated strike events, resolved purely by position.
// A strike attributed through the coarse regional belt also bumps the
// bucket's missile-alert counter. AppendOnIngest.
func (s *Store) IngestStrikes(batch []domain.StrikeEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range batch {
		if !hasCoords(rec.Latitude, rec.Longitude) {
			s.logger.Warn("skipping strike without position", "strike_id", rec.ID)
			continue
		}
		code, kind, ok := s.resolver.Resolve(Ref{Lat: rec.Latitude, Lon: rec.Longitude, HasCoords: true})
		s.track("strike", ok)
		if !ok {
			continue
		}
		b := s.bucket(code)
		b.Strikes = append(b.Strikes, rec)
		if kind == BBoxRule {
			b.MissileAlerts++
		}
	}
}

// IngestAviation adds aviation-disruption records. AppendOnIngest.
func (s *Store) IngestAviation(batch []domain.AviationDisruption) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range batch {
		code, _, ok := s.resolver.Resolve(Ref{Text: rec.Country, Code: rec.Country})
		s.track("aviation", ok)
		if !ok {
			continue
		}
		b := s.bucket(code)
		b.Aviation = append(b.Aviation, rec)
	}
}

// IngestAdvisories fully resets advisory aggregates and rebuilds them from
// the batch: max level per target country plus the number of distinct issuing
// countries, the corroboration input. ReplaceOnIngest.
func (s *Store) IngestAdvisories(batch []domain.SecurityAdvisory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.buckets {
		b.AdvisoryMaxLevel = 0
		b.AdvisorySources = 0
	}

	sources := make(map[string]map[string]bool)
	for _, rec := range batch {
		if rec.Level < 1 || rec.Level > 4 {
			s.logger.Warn("skipping advisory with out-of-range level", "level", rec.Level)
			continue
		}
		code, _, ok := s.resolver.Resolve(Ref{Text: rec.Country, Code: rec.Country})
		s.track("advisory", ok)
		if !ok {
			continue
		}
		b := s.bucket(code)
		if rec.Level > b.AdvisoryMaxLevel {
			b.AdvisoryMaxLevel = rec.Level
		}
		if sources[code] == nil {
			sources[code] = make(map[string]bool)
		}
		sources[code][strings.ToUpper(rec.SourceCountry)] = true
		b.AdvisorySources = len(sources[code])
	}
}

// hasCoords reports whether a record carries a usable position. Upstream
// feeds zero both fields when no fix exists, so exact (0,0) reads as missing;
// a record at true Null Island is dropped with them. A single zero coordinate
// is a real position.
func hasCoords(lat, lon float64) bool {
	return lat != 0 || lon != 0
}
