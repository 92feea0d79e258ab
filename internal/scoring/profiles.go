package scoring

// Profile is the static per-country scoring configuration. BaselineRisk is
// the structural risk prior blended into every score; Multiplier scales raw
// event counts. Countries with a multiplier under 0.7 are high-volume
// reporting environments and get logarithmic count compression instead of
// linear scaling.
type Profile struct {
	BaselineRisk float64
	Multiplier   float64
}

var defaultProfile = Profile{BaselineRisk: 20, Multiplier: 1.0}

var profiles = map[string]Profile{
	"UA": {BaselineRisk: 75, Multiplier: 0.5},
	"RU": {BaselineRisk: 60, Multiplier: 0.6},
	"IL": {BaselineRisk: 65, Multiplier: 0.5},
	"PS": {BaselineRisk: 80, Multiplier: 0.6},
	"SY": {BaselineRisk: 78, Multiplier: 0.8},
	"YE": {BaselineRisk: 74, Multiplier: 0.9},
	"SD": {BaselineRisk: 76, Multiplier: 0.9},
	"SS": {BaselineRisk: 70, Multiplier: 0.9},
	"MM": {BaselineRisk: 72, Multiplier: 0.9},
	"AF": {BaselineRisk: 74, Multiplier: 0.9},
	"IQ": {BaselineRisk: 64, Multiplier: 0.8},
	"IR": {BaselineRisk: 58, Multiplier: 0.7},
	"LB": {BaselineRisk: 62, Multiplier: 0.8},
	"ET": {BaselineRisk: 55, Multiplier: 0.9},
	"ML": {BaselineRisk: 66, Multiplier: 1.0},
	"BF": {BaselineRisk: 68, Multiplier: 1.0},
	"NE": {BaselineRisk: 62, Multiplier: 1.0},
	"SO": {BaselineRisk: 74, Multiplier: 0.9},
	"LY": {BaselineRisk: 60, Multiplier: 0.9},
	"HT": {BaselineRisk: 70, Multiplier: 1.0},
	"CD": {BaselineRisk: 68, Multiplier: 0.9},
	"NG": {BaselineRisk: 54, Multiplier: 0.8},
	"PK": {BaselineRisk: 54, Multiplier: 0.8},
	"IN": {BaselineRisk: 34, Multiplier: 0.5},
	"CN": {BaselineRisk: 30, Multiplier: 0.5},
	"TW": {BaselineRisk: 40, Multiplier: 0.7},
	"KP": {BaselineRisk: 55, Multiplier: 0.7},
	"VE": {BaselineRisk: 54, Multiplier: 0.9},
	"CO": {BaselineRisk: 46, Multiplier: 0.9},
	"MX": {BaselineRisk: 44, Multiplier: 0.8},
	"US": {BaselineRisk: 25, Multiplier: 0.4},
	"GB": {BaselineRisk: 24, Multiplier: 0.6},
	"FR": {BaselineRisk: 28, Multiplier: 0.6},
	"DE": {BaselineRisk: 20, Multiplier: 0.7},
	"TR": {BaselineRisk: 42, Multiplier: 0.7},
	"EG": {BaselineRisk: 44, Multiplier: 0.8},
}

// ProfileFor returns the configured profile or the neutral default.
func ProfileFor(code string) Profile {
	if p, ok := profiles[code]; ok {
		return p
	}
	return defaultProfile
}

// ConfiguredCodes lists every statically configured country, all of which are
// covered by a scoring pass even with empty buckets.
func ConfiguredCodes() []string {
	codes := make([]string, 0, len(profiles))
	for code := range profiles {
		codes = append(codes, code)
	}
	return codes
}

// hotspot is a tracked conflict zone, strategic waterway, or flashpoint whose
// proximity amplifies a country's score when the country shows live military
// or kinetic activity.
type hotspot struct {
	Name   string
	Lat    float64
	Lon    float64
	Weight float64
}

var hotspots = []hotspot{
	{"Donbas front", 48.0, 37.8, 4},
	{"Gaza", 31.4, 34.4, 4},
	{"South Lebanon", 33.2, 35.4, 3},
	{"Strait of Hormuz", 26.6, 56.5, 2},
	{"Bab el-Mandeb", 12.6, 43.3, 2},
	{"Taiwan Strait", 24.5, 119.5, 3},
	{"Korean DMZ", 38.3, 127.0, 2},
	{"Sahel tri-border", 14.5, 0.5, 3},
}
