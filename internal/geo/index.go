// Package geo owns the country boundary dataset: a load-once spatial index
// answering point-in-country, coordinate-to-country, and name-to-code queries.
//
// The dataset is optional. If it fails to load or parse, every geometry-backed
// lookup degrades to "unknown" and callers fall back to keyword and text
// heuristics; "unknown" must never be read as "excluded."
package geo

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"sort"
	"strings"
	"sync"
)

// Containment is the tri-state answer to a geometry query.
type Containment int

const (
	// Unknown means no usable geometry is loaded for the country.
	Unknown Containment = iota
	Outside
	Inside
)

// BBox is a latitude/longitude bounding rectangle.
type BBox struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// Contains reports whether the point falls inside the box, borders included.
func (b BBox) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

// Area is the box's area in square degrees, used only for smallest-box
// tie-breaking between overlapping fallback regions.
func (b BBox) Area() float64 {
	return (b.MaxLat - b.MinLat) * (b.MaxLon - b.MinLon)
}

// Resolution is a resolved country identity.
type Resolution struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// ring is a closed sequence of [lon, lat] vertices.
type ring [][2]float64

// polygon is one outer ring plus zero or more hole rings.
type polygon struct {
	outer ring
	holes []ring
}

type country struct {
	code  string
	code3 string
	name  string
	bbox  BBox
	polys []polygon
}

// Index is the country geometry and name index. Construct with NewIndex, load
// once with Load; all query methods are safe before, during, and after load.
type Index struct {
	logger *slog.Logger

	loadOnce sync.Once
	loadErr  error

	mu      sync.RWMutex
	byCode  map[string]*country
	byCode3 map[string]string
	byName  map[string]string // lowercase display name -> code
}

// NewIndex creates an empty index. Until Load succeeds, geometry queries
// return Unknown and name queries answer from the static alias table only.
func NewIndex(logger *slog.Logger) *Index {
	return &Index{
		logger:  logger,
		byCode:  make(map[string]*country),
		byCode3: make(map[string]string),
		byName:  make(map[string]string),
	}
}

// Load reads and indexes a GeoJSON boundary dataset. The first call does the
// work; concurrent and subsequent calls share its outcome. A load failure is
// returned but leaves the index operational in degraded mode.
func (ix *Index) Load(path string) error {
	ix.loadOnce.Do(func() {
		ix.loadErr = ix.load(path)
		if ix.loadErr != nil {
			ix.logger.Warn("boundary dataset unavailable, geometry lookups degrade to unknown",
				"path", path, "error", ix.loadErr)
		}
	})
	return ix.loadErr
}

func (ix *Index) load(path string) error {
	if path == "" {
		return fmt.Errorf("no boundary dataset path configured")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read boundary dataset: %w", err)
	}

	var fc featureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse boundary dataset: %w", err)
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	indexed := 0
	for _, f := range fc.Features {
		c, ok := buildCountry(f)
		if !ok {
			continue
		}
		ix.byCode[c.code] = c
		if c.code3 != "" {
			ix.byCode3[c.code3] = c.code
		}
		ix.byName[strings.ToLower(c.name)] = c.code
		indexed++
	}
	if indexed == 0 {
		return fmt.Errorf("boundary dataset contains no usable features")
	}

	ix.logger.Info("boundary dataset loaded", "countries", indexed)
	return nil
}

// Loaded reports whether polygon data is available.
func (ix *Index) Loaded() bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.byCode) > 0
}

// PointInCountry tests whether the point lies inside the named country's
// boundary. Returns Unknown when no geometry is loaded for the code.
func (ix *Index) PointInCountry(code string, lat, lon float64) Containment {
	ix.mu.RLock()
	c, ok := ix.byCode[strings.ToUpper(code)]
	ix.mu.RUnlock()
	if !ok || len(c.polys) == 0 {
		return Unknown
	}
	if !c.bbox.Contains(lat, lon) {
		return Outside
	}
	for _, p := range c.polys {
		if polygonContains(p, lat, lon) {
			return Inside
		}
	}
	return Outside
}

// ResolveCountryAt finds the country containing the point. When candidate
// codes are given only those are tested; otherwise the whole index is scanned
// with bbox prefiltering. Falls back to coarse regional boxes (smallest box
// wins on overlap) when polygon containment resolves nothing.
func (ix *Index) ResolveCountryAt(lat, lon float64, candidates ...string) (Resolution, bool) {
	if res, ok := ix.ResolvePolygonAt(lat, lon, candidates...); ok {
		return res, true
	}
	return ix.ResolveFallbackAt(lat, lon, candidates...)
}

// ResolvePolygonAt resolves a point by precise polygon containment only.
func (ix *Index) ResolvePolygonAt(lat, lon float64, candidates ...string) (Resolution, bool) {
	ix.mu.RLock()
	var pool []*country
	if len(candidates) > 0 {
		for _, code := range candidates {
			if c, ok := ix.byCode[strings.ToUpper(code)]; ok {
				pool = append(pool, c)
			}
		}
	} else {
		for _, c := range ix.byCode {
			pool = append(pool, c)
		}
	}
	ix.mu.RUnlock()

	for _, c := range pool {
		if !c.bbox.Contains(lat, lon) {
			continue
		}
		for _, p := range c.polys {
			if polygonContains(p, lat, lon) {
				return Resolution{Code: c.code, Name: c.name}, true
			}
		}
	}
	return Resolution{}, false
}

// ResolveFallbackAt handles regions where only coarse rectangles are known.
// Precise containment is expected to have been attempted first; among
// overlapping boxes the smallest-area one wins, on the assumption that a more
// specific claimed region is more likely correct.
func (ix *Index) ResolveFallbackAt(lat, lon float64, candidates ...string) (Resolution, bool) {
	allowed := map[string]bool{}
	for _, code := range candidates {
		allowed[strings.ToUpper(code)] = true
	}

	best := -1
	bestArea := math.Inf(1)
	for i, fb := range fallbackBoxes {
		if len(allowed) > 0 && !allowed[fb.Code] {
			continue
		}
		if !fb.BBox.Contains(lat, lon) {
			continue
		}
		if a := fb.BBox.Area(); a < bestArea {
			best, bestArea = i, a
		}
	}
	if best < 0 {
		return Resolution{}, false
	}
	return Resolution{Code: fallbackBoxes[best].Code, Name: fallbackBoxes[best].Name}, true
}

// BBoxOf returns the loaded bounding box for a country code.
func (ix *Index) BBoxOf(code string) (BBox, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	c, ok := ix.byCode[strings.ToUpper(code)]
	if !ok {
		return BBox{}, false
	}
	return c.bbox, true
}

// Centroid returns the bbox center for a country, a cheap stand-in for a true
// geometric centroid that is good enough for proximity weighting.
func (ix *Index) Centroid(code string) (lat, lon float64, ok bool) {
	b, found := ix.BBoxOf(code)
	if !found {
		return 0, 0, false
	}
	return (b.MinLat + b.MaxLat) / 2, (b.MinLon + b.MaxLon) / 2, true
}

// CodeFromISO3 normalizes a 3-letter code to the canonical 2-letter code.
func (ix *Index) CodeFromISO3(code3 string) (string, bool) {
	code3 = strings.ToUpper(strings.TrimSpace(code3))
	ix.mu.RLock()
	code, ok := ix.byCode3[code3]
	ix.mu.RUnlock()
	if ok {
		return code, true
	}
	code, ok = staticISO3[code3]
	return code, ok
}

// NameOf returns the display name for a code, falling back to the code itself
// when geometry never loaded.
func (ix *Index) NameOf(code string) string {
	code = strings.ToUpper(code)
	ix.mu.RLock()
	c, ok := ix.byCode[code]
	ix.mu.RUnlock()
	if ok {
		return c.name
	}
	if name, found := staticNames[code]; found {
		return name
	}
	return code
}

// sortedNameEntries returns all known names (dataset plus aliases) longest
// first, for greedy free-text scanning.
func (ix *Index) sortedNameEntries() []nameEntry {
	ix.mu.RLock()
	entries := make([]nameEntry, 0, len(ix.byName)+len(countryAliases))
	for name, code := range ix.byName {
		entries = append(entries, nameEntry{name: name, code: code})
	}
	ix.mu.RUnlock()
	for name, code := range countryAliases {
		entries = append(entries, nameEntry{name: name, code: code})
	}
	sort.Slice(entries, func(i, j int) bool {
		if len(entries[i].name) != len(entries[j].name) {
			return len(entries[i].name) > len(entries[j].name)
		}
		return entries[i].name < entries[j].name
	})
	return entries
}

type nameEntry struct {
	name string
	code string
}
