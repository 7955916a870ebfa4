// ABOUTME: City/state/zip splitting heuristic for single free-text address fields
// ABOUTME: Best effort only; callers keep the raw field for human correction
package legacy

import (
	"regexp"
	"strings"
)

var zipPattern = regexp.MustCompile(`^\d{5}(-\d{4})?$`)

// SplitCityStateZip splits a combined "City, ST 12345" field. A trailing
// ZIP-shaped token becomes zip; after that a trailing two-character token
// becomes state; the rest is the city. Without a ZIP-shaped trailing token the
// whole field is the city. This can misparse legitimate values, so the raw
// field must be kept alongside the result.
func SplitCityStateZip(s string) (city, state, zip string) {
	tokens := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	if len(tokens) == 0 {
		return "", "", ""
	}

	last := tokens[len(tokens)-1]
	if !zipPattern.MatchString(last) {
		return strings.Join(tokens, " "), "", ""
	}
	zip = last
	tokens = tokens[:len(tokens)-1]

	if n := len(tokens); n > 0 && len(tokens[n-1]) == 2 {
		state = strings.ToUpper(tokens[n-1])
		tokens = tokens[:n-1]
	}

	return strings.Join(tokens, " "), state, zip
}
