package signals

import (
	"strings"
	"unicode"

	"github.com/geofusion/instability-core/internal/geo"
)

// RuleKind tags which resolution rule attributed an event.
type RuleKind string

const (
	KeywordRule  RuleKind = "keyword"
	TextScanRule RuleKind = "textscan"
	ISOCodeRule  RuleKind = "isocode"
	GeometryRule RuleKind = "geometry"
	BBoxRule     RuleKind = "bbox"
)

// Ref carries every identity hint a record may offer. Resolution rules read
// whichever fields are populated.
type Ref struct {
	Title     string
	Text      string
	Code      string
	Lat       float64
	Lon       float64
	HasCoords bool
}

// keywordEntry maps a place keyword found in titles or free text to a country.
// Evaluated in order before any other rule, so hot-zone place names beat
// generic resolution (a strike "near Rafah" attributes to PS even when the
// text also mentions Israel).
type keywordEntry struct {
	Keyword string
	Code    string
}

var keywordTable = []keywordEntry{
	{"gaza", "PS"}, {"rafah", "PS"}, {"khan younis", "PS"}, {"west bank", "PS"},
	{"tel aviv", "IL"}, {"jerusalem", "IL"}, {"haifa", "IL"},
	{"kyiv", "UA"}, {"kharkiv", "UA"}, {"odesa", "UA"}, {"donetsk", "UA"},
	{"zaporizhzhia", "UA"}, {"crimea", "UA"},
	{"moscow", "RU"}, {"belgorod", "RU"},
	{"tehran", "IR"}, {"isfahan", "IR"},
	{"damascus", "SY"}, {"aleppo", "SY"}, {"idlib", "SY"},
	{"beirut", "LB"},
	{"sanaa", "YE"}, {"hodeidah", "YE"}, {"red sea", "YE"}, {"bab el-mandeb", "YE"},
	{"baghdad", "IQ"}, {"erbil", "IQ"},
	{"taipei", "TW"}, {"taiwan strait", "TW"},
	{"pyongyang", "KP"},
	{"khartoum", "SD"}, {"darfur", "SD"},
	{"mogadishu", "SO"},
	{"kabul", "AF"},
	{"bamako", "ML"}, {"ouagadougou", "BF"}, {"niamey", "NE"},
	{"tigray", "ET"},
	{"port-au-prince", "HT"},
	{"caracas", "VE"},
	{"minsk", "BY"},
}

// rule is one tagged resolution strategy.
type rule struct {
	kind  RuleKind
	apply func(Ref) (string, bool)
}

// Resolver turns an event reference into a canonical country code by
// evaluating an ordered rule table: keyword, text scan, ISO normalization,
// polygon geometry, then coarse bbox fallback. First hit wins.
type Resolver struct {
	geo   *geo.Index
	rules []rule
}

// NewResolver builds the ordered rule table over the given geometry index.
func NewResolver(ix *geo.Index) *Resolver {
	r := &Resolver{geo: ix}
	r.rules = []rule{
		{KeywordRule, r.byKeyword},
		{TextScanRule, r.byTextScan},
		{ISOCodeRule, r.byISOCode},
		{GeometryRule, r.byGeometry},
		{BBoxRule, r.byBBox},
	}
	return r
}

// Resolve applies the rule table and returns the winning code and rule kind.
func (r *Resolver) Resolve(ref Ref) (string, RuleKind, bool) {
	for _, rl := range r.rules {
		if code, ok := rl.apply(ref); ok {
			return code, rl.kind, true
		}
	}
	return "", "", false
}

func (r *Resolver) byKeyword(ref Ref) (string, bool) {
	haystack := strings.ToLower(ref.Title + " " + ref.Text)
	if strings.TrimSpace(haystack) == "" {
		return "", false
	}
	for _, e := range keywordTable {
		if containsWord(haystack, e.Keyword) {
			return e.Code, true
		}
	}
	return "", false
}

func (r *Resolver) byTextScan(ref Ref) (string, bool) {
	codes := r.geo.ScanTextForCountryNames(ref.Title + " " + ref.Text)
	if len(codes) == 0 {
		return "", false
	}
	return codes[0], true
}

func (r *Resolver) byISOCode(ref Ref) (string, bool) {
	code := strings.ToUpper(strings.TrimSpace(ref.Code))
	switch len(code) {
	case 2:
		if isAlpha(code) {
			return code, true
		}
	case 3:
		if c2, ok := r.geo.CodeFromISO3(code); ok {
			return c2, true
		}
	}
	// Not a code at all; it may still be an exact country name.
	if c, ok := r.geo.CodeFromName(ref.Code); ok {
		return c, true
	}
	return "", false
}

func (r *Resolver) byGeometry(ref Ref) (string, bool) {
	if !ref.HasCoords {
		return "", false
	}
	res, ok := r.geo.ResolvePolygonAt(ref.Lat, ref.Lon)
	if !ok {
		return "", false
	}
	return res.Code, true
}

func (r *Resolver) byBBox(ref Ref) (string, bool) {
	if !ref.HasCoords {
		return "", false
	}
	res, ok := r.geo.ResolveFallbackAt(ref.Lat, ref.Lon)
	if !ok {
		return "", false
	}
	return res.Code, true
}

// containsWord reports a whole-word, case-normalized occurrence of needle.
func containsWord(haystack, needle string) bool {
	from := 0
	for {
		i := strings.Index(haystack[from:], needle)
		if i < 0 {
			return false
		}
		pos := from + i
		beforeOK := pos == 0 || !isWordByte(haystack[pos-1])
		end := pos + len(needle)
		afterOK := end >= len(haystack) || !isWordByte(haystack[end])
		if beforeOK && afterOK {
			return true
		}
		from = pos + 1
	}
}

func isWordByte(b byte) bool {
	return unicode.IsLetter(rune(b)) || unicode.IsDigit(rune(b))
}

func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return len(s) > 0
}
