// ABOUTME: Brand/model/serial splitting for the combined unit-info field
// ABOUTME: Splits on runs of two or more spaces with Unknown defaults
package legacy

import (
	"regexp"
	"strings"
)

// UnknownUnit is the placeholder for a missing brand or model.
const UnknownUnit = "Unknown"

var unitSeparator = regexp.MustCompile(` {2,}`)

// SplitUnitInfo splits "BRAND  MODEL  SERIAL" on runs of two or more spaces.
// Missing brand or model default to "Unknown"; a missing serial is empty.
// Parts beyond the third are folded into the serial.
func SplitUnitInfo(s string) (brand, model, serial string) {
	var parts []string
	for _, p := range unitSeparator.Split(strings.TrimSpace(s), -1) {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}

	brand, model = UnknownUnit, UnknownUnit
	if len(parts) > 0 {
		brand = parts[0]
	}
	if len(parts) > 1 {
		model = parts[1]
	}
	if len(parts) > 2 {
		serial = strings.Join(parts[2:], " ")
	}
	return brand, model, serial
}
