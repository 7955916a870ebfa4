// ABOUTME: Phone number heuristics for legacy digit strings
// ABOUTME: Handles area-code-last and reversed digit storage conventions
package legacy

import (
	"fmt"
	"strings"
)

// PhoneOrder describes how a source file stores the ten phone digits.
type PhoneOrder string

const (
	// PhoneAreaFirst is the usual AAA PPP LLLL order.
	PhoneAreaFirst PhoneOrder = "area-first"
	// PhoneAreaLast stores the seven-digit number before the area code.
	PhoneAreaLast PhoneOrder = "area-last"
	// PhoneReversed stores the whole digit string back to front.
	PhoneReversed PhoneOrder = "reversed"
)

// Valid reports whether o is a known order.
func (o PhoneOrder) Valid() bool {
	switch o {
	case PhoneAreaFirst, PhoneAreaLast, PhoneReversed:
		return true
	}
	return false
}

// PhoneDigits strips everything but ASCII digits.
func PhoneDigits(s string) string {
	return onlyDigits(s)
}

// FormatPhone formats a digit string stored in order. Ten digits become
// "(AAA) PPP-LLLL", seven become "PPP-LLLL"; any other length is returned
// unchanged.
func FormatPhone(digits string, order PhoneOrder) string {
	switch len(digits) {
	case 10:
		var area, number string
		switch order {
		case PhoneAreaLast:
			number, area = digits[:7], digits[7:]
		case PhoneReversed:
			d := reverse(digits)
			area, number = d[:3], d[3:]
		default:
			area, number = digits[:3], digits[3:]
		}
		return fmt.Sprintf("(%s) %s-%s", area, number[:3], number[3:])
	case 7:
		return digits[:3] + "-" + digits[3:]
	default:
		return digits
	}
}

func reverse(s string) string {
	b := []byte(s)
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b)
}

// formatRawPhone extracts digits from a raw field and formats them. A raw
// field with no digits yields "".
func formatRawPhone(raw string, order PhoneOrder) string {
	digits := PhoneDigits(raw)
	if digits == "" {
		return ""
	}
	return strings.TrimSpace(FormatPhone(digits, order))
}
