// ABOUTME: Generic fixed-width field reader for legacy binary record files
// ABOUTME: Slices a record buffer by FieldSpec and decodes text, raw text and numeric text
package legacy

import (
	"strconv"
	"strings"
)

// Kind tells the reader how to decode a field's bytes.
type Kind string

const (
	// KindText keeps printable ASCII up to the first NUL.
	KindText Kind = "text"
	// KindRawText keeps every byte up to the first NUL.
	KindRawText Kind = "raw"
	// KindNumericText keeps only the digits.
	KindNumericText Kind = "numeric"
	// KindDateText is printable text that is later run through NormalizeDate.
	KindDateText Kind = "date"
)

// FieldSpec locates one named field inside a fixed-size record.
type FieldSpec struct {
	Name   string `yaml:"name"`
	Offset int    `yaml:"offset"`
	Length int    `yaml:"length"`
	Kind   Kind   `yaml:"kind"`
}

// End returns the exclusive end offset of the field.
func (f FieldSpec) End() int {
	return f.Offset + f.Length
}

// Record is one fixed-size window of a legacy file. It is only valid while
// the record is being decoded; Bytes aliases the file buffer.
type Record struct {
	Source string
	Index  int
	Bytes  []byte
}

// window returns the bytes of f, clipped to the record. Out of range specs
// yield nil rather than an error so one bad layout entry never aborts a batch.
func (r Record) window(f FieldSpec) []byte {
	if f.Offset < 0 || f.Length <= 0 || f.Offset >= len(r.Bytes) {
		return nil
	}
	end := f.End()
	if end > len(r.Bytes) {
		end = len(r.Bytes)
	}
	return r.Bytes[f.Offset:end]
}

// Text decodes f as printable ASCII: bytes up to the first NUL, bytes outside
// [32,126] dropped, surrounding whitespace trimmed.
func (r Record) Text(f FieldSpec) string {
	b := r.window(f)
	var sb strings.Builder
	sb.Grow(len(b))
	for _, c := range b {
		if c == 0 {
			break
		}
		if c >= 32 && c <= 126 {
			sb.WriteByte(c)
		}
	}
	return strings.TrimSpace(sb.String())
}

// RawText decodes f up to the first NUL keeping every byte value. Only ASCII
// spaces are trimmed from the ends.
func (r Record) RawText(f FieldSpec) string {
	b := r.window(f)
	for i, c := range b {
		if c == 0 {
			b = b[:i]
			break
		}
	}
	return strings.Trim(string(b), " ")
}

// Digits returns only the ASCII digits of f (up to the first NUL).
func (r Record) Digits(f FieldSpec) string {
	return onlyDigits(r.RawText(f))
}

// Int decodes f as numeric text. ok is false when the field holds no digits,
// which callers must treat as "no value" rather than zero.
func (r Record) Int(f FieldSpec) (int, bool) {
	digits := r.Digits(f)
	if digits == "" {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Value decodes f according to its Kind.
func (r Record) Value(f FieldSpec) string {
	switch f.Kind {
	case KindRawText:
		return r.RawText(f)
	case KindNumericText:
		return r.Digits(f)
	default:
		return r.Text(f)
	}
}

// IsBlank reports whether the record holds only NUL and space bytes.
func (r Record) IsBlank() bool {
	for _, c := range r.Bytes {
		if c != 0 && c != ' ' {
			return false
		}
	}
	return true
}

func onlyDigits(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			sb.WriteByte(s[i])
		}
	}
	return sb.String()
}
