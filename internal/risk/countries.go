package risk

import "strings"

// CountryExpectation lists the timezone prefixes and primary languages a
// session from a given country is expected to carry. Used for mismatch
// heuristics only; absence of an entry means "no check performed".
type CountryExpectation struct {
	TimezonePrefixes []string
	Languages        []string
}

// CountryHeuristics maps ISO 3166-1 alpha-2 country codes to expectations.
type CountryHeuristics map[string]CountryExpectation

// HeuristicsVersion identifies the table revision carried in risk factors
// metadata; bump when the table changes.
const HeuristicsVersion = "2025-08"

// DefaultCountryHeuristics is the built-in table. Kept deliberately coarse:
// it exists to catch a browser in New York claiming a Paris egress, not to
// model every territory.
func DefaultCountryHeuristics() CountryHeuristics {
	return CountryHeuristics{
		"US": {TimezonePrefixes: []string{"America/", "Pacific/Honolulu"}, Languages: []string{"en", "es"}},
		"CA": {TimezonePrefixes: []string{"America/"}, Languages: []string{"en", "fr"}},
		"BR": {TimezonePrefixes: []string{"America/"}, Languages: []string{"pt"}},
		"GB": {TimezonePrefixes: []string{"Europe/London"}, Languages: []string{"en"}},
		"IE": {TimezonePrefixes: []string{"Europe/Dublin"}, Languages: []string{"en"}},
		"FR": {TimezonePrefixes: []string{"Europe/Paris"}, Languages: []string{"fr"}},
		"DE": {TimezonePrefixes: []string{"Europe/Berlin"}, Languages: []string{"de"}},
		"ES": {TimezonePrefixes: []string{"Europe/Madrid", "Atlantic/Canary"}, Languages: []string{"es", "ca"}},
		"IT": {TimezonePrefixes: []string{"Europe/Rome"}, Languages: []string{"it"}},
		"NL": {TimezonePrefixes: []string{"Europe/Amsterdam"}, Languages: []string{"nl"}},
		"CH": {TimezonePrefixes: []string{"Europe/Zurich"}, Languages: []string{"de", "fr", "it"}},
		"SE": {TimezonePrefixes: []string{"Europe/Stockholm"}, Languages: []string{"sv"}},
		"PL": {TimezonePrefixes: []string{"Europe/Warsaw"}, Languages: []string{"pl"}},
		"TR": {TimezonePrefixes: []string{"Europe/Istanbul"}, Languages: []string{"tr"}},
		"RU": {TimezonePrefixes: []string{"Europe/", "Asia/"}, Languages: []string{"ru"}},
		"IN": {TimezonePrefixes: []string{"Asia/Kolkata", "Asia/Calcutta"}, Languages: []string{"hi", "en"}},
		"CN": {TimezonePrefixes: []string{"Asia/Shanghai", "Asia/Urumqi"}, Languages: []string{"zh"}},
		"JP": {TimezonePrefixes: []string{"Asia/Tokyo"}, Languages: []string{"ja"}},
		"KR": {TimezonePrefixes: []string{"Asia/Seoul"}, Languages: []string{"ko"}},
		"SG": {TimezonePrefixes: []string{"Asia/Singapore"}, Languages: []string{"en", "zh", "ms", "ta"}},
		"AE": {TimezonePrefixes: []string{"Asia/Dubai"}, Languages: []string{"ar", "en"}},
		"AU": {TimezonePrefixes: []string{"Australia/"}, Languages: []string{"en"}},
		"NZ": {TimezonePrefixes: []string{"Pacific/Auckland"}, Languages: []string{"en"}},
		"ZA": {TimezonePrefixes: []string{"Africa/Johannesburg"}, Languages: []string{"en", "af", "zu"}},
		"MX": {TimezonePrefixes: []string{"America/"}, Languages: []string{"es"}},
		"AR": {TimezonePrefixes: []string{"America/Argentina"}, Languages: []string{"es"}},
	}
}

// TimezoneMismatch reports whether clientTZ contradicts the expected
// timezones for country. Unknown countries or empty inputs never mismatch.
func (h CountryHeuristics) TimezoneMismatch(country, clientTZ string) bool {
	if country == "" || clientTZ == "" {
		return false
	}
	exp, ok := h[strings.ToUpper(country)]
	if !ok || len(exp.TimezonePrefixes) == 0 {
		return false
	}
	for _, prefix := range exp.TimezonePrefixes {
		if strings.HasPrefix(clientTZ, prefix) {
			return false
		}
	}
	return true
}

// LanguageMismatch reports whether the client's primary language subtag
// (e.g. "en" from "en-US") contradicts the expected languages for country.
func (h CountryHeuristics) LanguageMismatch(country, clientLang string) bool {
	if country == "" || clientLang == "" {
		return false
	}
	exp, ok := h[strings.ToUpper(country)]
	if !ok || len(exp.Languages) == 0 {
		return false
	}
	primary := strings.ToLower(clientLang)
	if i := strings.IndexAny(primary, "-_"); i > 0 {
		primary = primary[:i]
	}
	for _, lang := range exp.Languages {
		if primary == lang {
			return false
		}
	}
	return true
}
