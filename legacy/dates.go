// ABOUTME: Date validation and ISO normalization for legacy textual dates
// ABOUTME: Accepts M-D-Y, M/D/Y and M.D.Y within a fixed year window
package legacy

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	minYear = 1990
	maxYear = 2050
)

// NormalizeDate converts "M-D-Y", "M/D/Y" or "M.D.Y" into "YYYY-MM-DD". One
// separator is used for both gaps; month and day take one or two digits and
// the year exactly four.
// ok is false when the text is not a date, the month is outside 1-12, the
// day outside 1-31, the year outside 1990-2050, or February has a day past
// 29. Leap years are not checked.
func NormalizeDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}

	sep := strings.IndexAny(s, "-/.")
	if sep < 0 {
		return "", false
	}
	parts := strings.Split(s, s[sep:sep+1])
	if len(parts) != 3 {
		return "", false
	}

	nums := make([]int, 3)
	for i, p := range parts {
		switch {
		case !isDigits(p):
			return "", false
		case i < 2 && (len(p) < 1 || len(p) > 2):
			return "", false
		case i == 2 && len(p) != 4:
			return "", false
		}
		nums[i], _ = strconv.Atoi(p)
	}
	month, day, year := nums[0], nums[1], nums[2]

	if month < 1 || month > 12 {
		return "", false
	}
	if day < 1 || day > 31 {
		return "", false
	}
	if year < minYear || year > maxYear {
		return "", false
	}
	if month == 2 && day > 29 {
		return "", false
	}

	return fmt.Sprintf("%04d-%02d-%02d", year, month, day), true
}

// normalizeDatePtr returns a pointer to the normalized date or nil.
func normalizeDatePtr(s string) *string {
	d, ok := NormalizeDate(s)
	if !ok {
		return nil
	}
	return &d
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
