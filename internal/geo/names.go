package geo

import (
	"strings"
	"unicode"
)

// countryAliases maps lowercase names the boundary dataset does not use
// verbatim to canonical codes. The scanner and CodeFromName consult these in
// addition to dataset display names, so name resolution works even when the
// dataset never loaded.
var countryAliases = map[string]string{
	"uk":                   "GB",
	"united kingdom":       "GB",
	"britain":              "GB",
	"usa":                  "US",
	"united states":        "US",
	"america":              "US",
	"russia":               "RU",
	"ukraine":              "UA",
	"belarus":              "BY",
	"south korea":          "KR",
	"north korea":          "KP",
	"iran":                 "IR",
	"syria":                "SY",
	"turkey":               "TR",
	"turkiye":              "TR",
	"israel":               "IL",
	"palestine":            "PS",
	"gaza":                 "PS",
	"west bank":            "PS",
	"lebanon":              "LB",
	"yemen":                "YE",
	"iraq":                 "IQ",
	"saudi arabia":         "SA",
	"uae":                  "AE",
	"united arab emirates": "AE",
	"egypt":                "EG",
	"libya":                "LY",
	"sudan":                "SD",
	"south sudan":          "SS",
	"ethiopia":             "ET",
	"somalia":              "SO",
	"mali":                 "ML",
	"burkina faso":         "BF",
	"niger":                "NE",
	"nigeria":              "NG",
	"drc":                  "CD",
	"democratic republic of the congo": "CD",
	"ivory coast":   "CI",
	"cote d'ivoire": "CI",
	"myanmar":       "MM",
	"burma":         "MM",
	"afghanistan":   "AF",
	"pakistan":      "PK",
	"india":         "IN",
	"china":         "CN",
	"taiwan":        "TW",
	"japan":         "JP",
	"vietnam":       "VN",
	"laos":          "LA",
	"philippines":   "PH",
	"france":        "FR",
	"germany":       "DE",
	"poland":        "PL",
	"moldova":       "MD",
	"georgia":       "GE",
	"armenia":       "AM",
	"azerbaijan":    "AZ",
	"venezuela":     "VE",
	"colombia":      "CO",
	"mexico":        "MX",
	"haiti":         "HT",
	"bolivia":       "BO",
	"czech republic": "CZ",
	"czechia":        "CZ",
}

// disputedOverrides hard-remaps boundary feature names to a preferred
// political attribution before indexing, keyed by lowercase feature name.
var disputedOverrides = map[string]string{
	"somaliland":      "SO",
	"northern cyprus": "CY",
	"western sahara":  "MA",
	"kosovo":          "XK",
}

// staticISO3 covers common 3-letter codes when the dataset carries none.
var staticISO3 = map[string]string{
	"UKR": "UA", "RUS": "RU", "USA": "US", "GBR": "GB", "FRA": "FR",
	"DEU": "DE", "CHN": "CN", "TWN": "TW", "IRN": "IR", "IRQ": "IQ",
	"ISR": "IL", "PSE": "PS", "SYR": "SY", "LBN": "LB", "YEM": "YE",
	"SAU": "SA", "EGY": "EG", "LBY": "LY", "SDN": "SD", "SSD": "SS",
	"ETH": "ET", "SOM": "SO", "MLI": "ML", "BFA": "BF", "NER": "NE",
	"NGA": "NG", "COD": "CD", "MMR": "MM", "AFG": "AF", "PAK": "PK",
	"IND": "IN", "PRK": "KP", "KOR": "KR", "VEN": "VE", "COL": "CO",
	"MEX": "MX", "HTI": "HT", "TUR": "TR",
}

// staticNames gives display names for codes that surface before (or without)
// a dataset load.
var staticNames = map[string]string{
	"UA": "Ukraine", "RU": "Russia", "US": "United States", "GB": "United Kingdom",
	"FR": "France", "DE": "Germany", "CN": "China", "TW": "Taiwan",
	"IR": "Iran", "IQ": "Iraq", "IL": "Israel", "PS": "Palestine",
	"SY": "Syria", "LB": "Lebanon", "YE": "Yemen", "SA": "Saudi Arabia",
	"EG": "Egypt", "LY": "Libya", "SD": "Sudan", "SS": "South Sudan",
	"ET": "Ethiopia", "SO": "Somalia", "ML": "Mali", "BF": "Burkina Faso",
	"NE": "Niger", "NG": "Nigeria", "CD": "DR Congo", "MM": "Myanmar",
	"AF": "Afghanistan", "PK": "Pakistan", "IN": "India", "KP": "North Korea",
	"KR": "South Korea", "VE": "Venezuela", "CO": "Colombia", "MX": "Mexico",
	"HT": "Haiti", "TR": "Turkey", "JO": "Jordan", "AM": "Armenia",
	"AZ": "Azerbaijan", "GE": "Georgia", "BY": "Belarus", "MD": "Moldova",
	"PL": "Poland", "RO": "Romania", "TD": "Chad", "ER": "Eritrea",
	"DJ": "Djibouti", "JP": "Japan",
}

// fallbackBox is a coarse rectangular claim for a region lacking polygon
// coverage, used as a last-resort resolution for strike belts and similar.
type fallbackBox struct {
	Code string
	Name string
	BBox BBox
}

var fallbackBoxes = []fallbackBox{
	{"IL", "Israel", BBox{MinLat: 29.4, MinLon: 34.2, MaxLat: 33.4, MaxLon: 35.9}},
	{"PS", "Palestine", BBox{MinLat: 31.2, MinLon: 34.2, MaxLat: 32.6, MaxLon: 35.6}},
	{"LB", "Lebanon", BBox{MinLat: 33.0, MinLon: 35.1, MaxLat: 34.7, MaxLon: 36.6}},
	{"SY", "Syria", BBox{MinLat: 32.3, MinLon: 35.7, MaxLat: 37.3, MaxLon: 42.4}},
	{"IQ", "Iraq", BBox{MinLat: 29.0, MinLon: 38.8, MaxLat: 37.4, MaxLon: 48.6}},
	{"IR", "Iran", BBox{MinLat: 25.0, MinLon: 44.0, MaxLat: 39.8, MaxLon: 63.3}},
	{"YE", "Yemen", BBox{MinLat: 12.1, MinLon: 42.5, MaxLat: 19.0, MaxLon: 53.1}},
	{"UA", "Ukraine", BBox{MinLat: 44.4, MinLon: 22.1, MaxLat: 52.4, MaxLon: 40.2}},
}

// CodeFromName resolves a country name to its code via exact lowercase lookup
// against dataset names and the alias table.
func (ix *Index) CodeFromName(text string) (string, bool) {
	name := strings.ToLower(strings.TrimSpace(text))
	if name == "" {
		return "", false
	}
	ix.mu.RLock()
	code, ok := ix.byName[name]
	ix.mu.RUnlock()
	if ok {
		return code, true
	}
	code, ok = countryAliases[name]
	return code, ok
}

// ScanTextForCountryNames finds country mentions in free text, returning
// codes in match order with no duplicates. Names are tried longest first and
// each match consumes its substring, so "south korea" is never re-matched as
// "korea" and one long name cannot produce two codes.
func (ix *Index) ScanTextForCountryNames(text string) []string {
	remaining := strings.ToLower(text)
	if remaining == "" {
		return nil
	}

	type hit struct {
		pos  int
		code string
	}
	var hits []hit
	seen := make(map[string]bool)

	for _, e := range ix.sortedNameEntries() {
		if seen[e.code] {
			continue
		}
		pos := indexWholeWord(remaining, e.name)
		if pos < 0 {
			continue
		}
		hits = append(hits, hit{pos: pos, code: e.code})
		seen[e.code] = true
		remaining = remaining[:pos] + strings.Repeat(" ", len(e.name)) + remaining[pos+len(e.name):]
	}

	// Order by position in the original text, not by name length.
	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && hits[j].pos < hits[j-1].pos; j-- {
			hits[j], hits[j-1] = hits[j-1], hits[j]
		}
	}

	codes := make([]string, len(hits))
	for i, h := range hits {
		codes[i] = h.code
	}
	return codes
}

// indexWholeWord finds needle in haystack at a word boundary on both sides.
func indexWholeWord(haystack, needle string) int {
	if needle == "" {
		return -1
	}
	from := 0
	for {
		i := strings.Index(haystack[from:], needle)
		if i < 0 {
			return -1
		}
		pos := from + i
		if boundedBefore(haystack, pos) && boundedAfter(haystack, pos+len(needle)) {
			return pos
		}
		from = pos + 1
		if from >= len(haystack) {
			return -1
		}
	}
}

func boundedBefore(s string, pos int) bool {
	if pos == 0 {
		return true
	}
	return !isWordRune(rune(s[pos-1]))
}

func boundedAfter(s string, pos int) bool {
	if pos >= len(s) {
		return true
	}
	return !isWordRune(rune(s[pos]))
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
