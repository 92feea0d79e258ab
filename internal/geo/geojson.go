package geo

import (
	"encoding/json"
	"math"
	"strings"
)

// featureCollection mirrors the subset of GeoJSON this index consumes.
type featureCollection struct {
	Features []feature `json:"features"`
}

type feature struct {
	Properties map[string]any `json:"properties"`
	Geometry   geometry       `json:"geometry"`
}

type geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// buildCountry normalizes one boundary feature into an indexed country.
// Features without a recognizable 2-letter code or without any valid ring are
// skipped.
func buildCountry(f feature) (*country, bool) {
	code := propString(f.Properties, "ISO_A2", "iso_a2", "ISO2", "iso2")
	name := propString(f.Properties, "ADMIN", "NAME", "name", "admin")
	code3 := propString(f.Properties, "ISO_A3", "iso_a3", "ISO3", "iso3")

	code = strings.ToUpper(strings.TrimSpace(code))
	if override, ok := disputedOverrides[strings.ToLower(name)]; ok {
		code = override
	}
	if len(code) != 2 || code == "-9" {
		return nil, false
	}
	if name == "" {
		name = code
	}

	polys := parsePolygons(f.Geometry)
	if len(polys) == 0 {
		return nil, false
	}

	c := &country{
		code:  code,
		code3: strings.ToUpper(strings.TrimSpace(code3)),
		name:  name,
		polys: polys,
		bbox:  bboxOfPolygons(polys),
	}
	return c, true
}

func propString(props map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := props[k]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

// parsePolygons accepts Polygon and MultiPolygon geometries and normalizes
// them into rings of finite [lon, lat] pairs. Degenerate points are dropped;
// rings with fewer than three remaining points are dropped.
func parsePolygons(g geometry) []polygon {
	switch g.Type {
	case "Polygon":
		var coords [][][]float64
		if err := json.Unmarshal(g.Coordinates, &coords); err != nil {
			return nil
		}
		if p, ok := buildPolygon(coords); ok {
			return []polygon{p}
		}
		return nil
	case "MultiPolygon":
		var coords [][][][]float64
		if err := json.Unmarshal(g.Coordinates, &coords); err != nil {
			return nil
		}
		var polys []polygon
		for _, pc := range coords {
			if p, ok := buildPolygon(pc); ok {
				polys = append(polys, p)
			}
		}
		return polys
	default:
		return nil
	}
}

func buildPolygon(coords [][][]float64) (polygon, bool) {
	if len(coords) == 0 {
		return polygon{}, false
	}
	outer := buildRing(coords[0])
	if outer == nil {
		return polygon{}, false
	}
	p := polygon{outer: outer}
	for _, hc := range coords[1:] {
		if h := buildRing(hc); h != nil {
			p.holes = append(p.holes, h)
		}
	}
	return p, true
}

func buildRing(coords [][]float64) ring {
	r := make(ring, 0, len(coords))
	for _, pt := range coords {
		if len(pt) < 2 {
			continue
		}
		lon, lat := pt[0], pt[1]
		if !isFinite(lon) || !isFinite(lat) {
			continue
		}
		r = append(r, [2]float64{lon, lat})
	}
	if len(r) < 3 {
		return nil
	}
	return r
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func bboxOfPolygons(polys []polygon) BBox {
	b := BBox{MinLat: 90, MinLon: 180, MaxLat: -90, MaxLon: -180}
	grow := func(r ring) {
		for _, pt := range r {
			b.MinLon = math.Min(b.MinLon, pt[0])
			b.MaxLon = math.Max(b.MaxLon, pt[0])
			b.MinLat = math.Min(b.MinLat, pt[1])
			b.MaxLat = math.Max(b.MaxLat, pt[1])
		}
	}
	for _, p := range polys {
		grow(p.outer)
	}
	return b
}
