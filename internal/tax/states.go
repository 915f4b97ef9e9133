package tax

import (
	"strings"
	"unicode"
)

// statePatterns maps lowercase substrings found in free-text warehouse
// addresses to canonical Indian state and union territory names. Two-letter
// abbreviations are matched as standalone tokens, not substrings.
var statePatterns = map[string]string{
	"andhra pradesh":    "Andhra Pradesh",
	"arunachal pradesh": "Arunachal Pradesh",
	"assam":             "Assam",
	"bihar":             "Bihar",
	"chhattisgarh":      "Chhattisgarh",
	"goa":               "Goa",
	"gujarat":           "Gujarat",
	"haryana":           "Haryana",
	"himachal pradesh":  "Himachal Pradesh",
	"jharkhand":         "Jharkhand",
	"karnataka":         "Karnataka",
	"kerala":            "Kerala",
	"madhya pradesh":    "Madhya Pradesh",
	"maharashtra":       "Maharashtra",
	"manipur":           "Manipur",
	"meghalaya":         "Meghalaya",
	"mizoram":           "Mizoram",
	"nagaland":          "Nagaland",
	"odisha":            "Odisha",
	"punjab":            "Punjab",
	"rajasthan":         "Rajasthan",
	"sikkim":            "Sikkim",
	"tamil nadu":        "Tamil Nadu",
	"telangana":         "Telangana",
	"tripura":           "Tripura",
	"uttar pradesh":     "Uttar Pradesh",
	"uttarakhand":       "Uttarakhand",
	"west bengal":       "West Bengal",

	"andaman and nicobar": "Andaman and Nicobar Islands",
	"chandigarh":          "Chandigarh",
	"dadra and nagar":     "Dadra and Nagar Haveli and Daman and Diu",
	"delhi":               "Delhi",
	"jammu and kashmir":   "Jammu and Kashmir",
	"ladakh":              "Ladakh",
	"lakshadweep":         "Lakshadweep",
	"puducherry":          "Puducherry",
	"pondicherry":         "Puducherry",
}

var stateAbbreviations = map[string]string{
	"ap": "Andhra Pradesh",
	"ar": "Arunachal Pradesh",
	"as": "Assam",
	"br": "Bihar",
	"cg": "Chhattisgarh",
	"ga": "Goa",
	"gj": "Gujarat",
	"hr": "Haryana",
	"hp": "Himachal Pradesh",
	"jh": "Jharkhand",
	"ka": "Karnataka",
	"kl": "Kerala",
	"mp": "Madhya Pradesh",
	"mh": "Maharashtra",
	"mn": "Manipur",
	"ml": "Meghalaya",
	"mz": "Mizoram",
	"nl": "Nagaland",
	"od": "Odisha",
	"pb": "Punjab",
	"rj": "Rajasthan",
	"sk": "Sikkim",
	"tn": "Tamil Nadu",
	"ts": "Telangana",
	"tr": "Tripura",
	"up": "Uttar Pradesh",
	"uk": "Uttarakhand",
	"wb": "West Bengal",
	"dl": "Delhi",
	"jk": "Jammu and Kashmir",
	"la": "Ladakh",
	"py": "Puducherry",
	"ch": "Chandigarh",
}

// SameState reports whether two state names refer to the same state. The
// comparison is trimmed and case-insensitive. An empty state on either side
// counts as different so unknown origins are taxed inter-state.
func SameState(a, b string) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return false
	}
	return a == b
}

// ResolveState extracts the Indian state from a free-text warehouse address.
// Full state and union territory names win over abbreviations; when nothing
// matches, the second-to-last comma-separated segment is used if it is not
// purely numeric. Returns the empty string when no state resolves.
func ResolveState(address string) string {
	lowered := strings.ToLower(address)
	if lowered == "" {
		return ""
	}

	for pattern, name := range statePatterns {
		if strings.Contains(lowered, pattern) {
			return name
		}
	}

	for _, token := range strings.FieldsFunc(lowered, func(r rune) bool {
		return !unicode.IsLetter(r)
	}) {
		if name, ok := stateAbbreviations[token]; ok {
			return name
		}
	}

	segments := strings.Split(address, ",")
	if len(segments) < 2 {
		return ""
	}
	candidate := strings.TrimSpace(segments[len(segments)-2])
	if candidate == "" || isNumeric(candidate) {
		return ""
	}
	return candidate
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) && !unicode.IsSpace(r) {
			return false
		}
	}
	return len(s) > 0
}
