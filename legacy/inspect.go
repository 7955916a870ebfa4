// ABOUTME: Field-by-field inspection of single legacy records
// ABOUTME: Backs the inspect command and the inspect_record MCP tool
package legacy

import (
	"errors"
	"fmt"
	"strings"

	"github.com/harperreed/shopmigrate/models"
)

// ErrNoRecord is returned when an index lies past the end of a file.
var ErrNoRecord = errors.New("no such record")

// Inspection is one record shown field by field next to what the decoder
// made of it.
type Inspection struct {
	Source   string                 `json:"source"`
	Index    int                    `json:"index"`
	Size     int                    `json:"size"`
	Fields   []FieldDump            `json:"fields"`
	Outcome  string                 `json:"outcome"`
	Reason   string                 `json:"reason,omitempty"`
	Customer *models.ParsedCustomer `json:"customer,omitempty"`
	Repair   *models.ParsedRepair   `json:"repair,omitempty"`
}

func inspectRecord(f *RecordFile, index int, l Layout) (Record, *Inspection, error) {
	rec, ok := f.Record(index)
	if !ok {
		return Record{}, nil, fmt.Errorf("%w: %s has %d records, asked for %d", ErrNoRecord, f.Name, f.Len(), index)
	}
	return rec, &Inspection{
		Source: rec.Source,
		Index:  rec.Index,
		Size:   len(rec.Bytes),
		Fields: Dump(rec, l),
	}, nil
}

// InspectCustomer decodes record index of a customer file.
func InspectCustomer(f *RecordFile, index int, d *CustomerDecoder) (*Inspection, error) {
	rec, in, err := inspectRecord(f, index, d.Layout())
	if err != nil {
		return nil, err
	}
	parsed, outcome := d.Decode(rec)
	in.Outcome, in.Reason = outcome.Kind.String(), outcome.Reason
	in.Customer = parsed
	return in, nil
}

// InspectRepair decodes record index of a claim file. Files whose name
// carries a year are decoded as history.
func InspectRepair(f *RecordFile, index int, d *RepairDecoder) (*Inspection, error) {
	rec, in, err := inspectRecord(f, index, d.Layout())
	if err != nil {
		return nil, err
	}
	parsed, outcome := d.Decode(rec, IsHistoryName(f.Name))
	in.Outcome, in.Reason = outcome.Kind.String(), outcome.Reason
	in.Repair = parsed
	return in, nil
}

// FieldDump is one field of a record as stored and as decoded.
type FieldDump struct {
	Name   string `json:"name"`
	Offset int    `json:"offset"`
	Length int    `json:"length"`
	Kind   Kind   `json:"kind"`
	Raw    string `json:"raw"`
	Value  string `json:"value"`
}

// Dump lists every field of l in rec. Raw shows printable ASCII as is and
// other bytes as \xNN.
func Dump(rec Record, l Layout) []FieldDump {
	out := make([]FieldDump, 0, len(l.Fields))
	for _, f := range l.Fields {
		out = append(out, FieldDump{
			Name:   f.Name,
			Offset: f.Offset,
			Length: f.Length,
			Kind:   f.Kind,
			Raw:    EscapeBytes(rec.window(f)),
			Value:  rec.Value(f),
		})
	}
	return out
}

// EscapeBytes renders b for display: printable ASCII as is, other bytes as
// \xNN, trailing NUL and space padding dropped.
func EscapeBytes(b []byte) string {
	// trailing padding is noise in a dump
	end := len(b)
	for end > 0 && (b[end-1] == 0 || b[end-1] == ' ') {
		end--
	}

	var sb strings.Builder
	for _, c := range b[:end] {
		if c >= 32 && c <= 126 && c != '\\' {
			sb.WriteByte(c)
			continue
		}
		fmt.Fprintf(&sb, `\x%02x`, c)
	}
	return sb.String()
}
