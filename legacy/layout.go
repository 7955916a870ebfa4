// ABOUTME: Declarative record layouts for the legacy customer and claim files
// ABOUTME: Built-in offset tables plus YAML overrides, validated against record size
package legacy

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrLayout is returned for layouts that cannot be applied to their records.
var ErrLayout = errors.New("invalid record layout")

// Record sizes of the observed legacy files.
const (
	CustomerRecordSize = 242
	RepairRecordSize   = 2432
)

// Field names used by the decoders.
const (
	FieldName          = "name"
	FieldCompany       = "company"
	FieldAddress       = "address"
	FieldCityStateZip  = "city_state_zip"
	FieldPhone         = "phone"
	FieldEmail         = "email"
	FieldClaim         = "claim_number"
	FieldDateIn        = "date_in"
	FieldDateCompleted = "date_completed"
	FieldDateClosed    = "date_closed"
	FieldUnitInfo      = "unit_info"
	FieldIssue         = "issue"
	FieldWorkPerformed = "work_performed"
)

// Layout is the field table of one record format.
type Layout struct {
	Name       string      `yaml:"name"`
	RecordSize int         `yaml:"record_size"`
	PhoneOrder PhoneOrder  `yaml:"phone_order"`
	Fields     []FieldSpec `yaml:"fields"`
}

// CustomerLayout is the 242-byte customer record.
func CustomerLayout() Layout {
	return Layout{
		Name:       "customer",
		RecordSize: CustomerRecordSize,
		PhoneOrder: PhoneAreaLast,
		Fields: []FieldSpec{
			{Name: FieldName, Offset: 0, Length: 30, Kind: KindText},
			{Name: FieldCompany, Offset: 30, Length: 30, Kind: KindText},
			{Name: FieldAddress, Offset: 60, Length: 30, Kind: KindText},
			{Name: FieldCityStateZip, Offset: 90, Length: 30, Kind: KindText},
			{Name: FieldPhone, Offset: 120, Length: 30, Kind: KindRawText},
			{Name: FieldEmail, Offset: 150, Length: 30, Kind: KindText},
		},
	}
}

// RepairLayout is the 2432-byte claim record shared by the current file and
// the dated history files. Bytes 2420-2431 are padding.
func RepairLayout() Layout {
	return Layout{
		Name:       "repair",
		RecordSize: RepairRecordSize,
		PhoneOrder: PhoneAreaLast,
		Fields: []FieldSpec{
			{Name: FieldClaim, Offset: 0, Length: 10, Kind: KindNumericText},
			{Name: FieldName, Offset: 10, Length: 40, Kind: KindText},
			{Name: FieldAddress, Offset: 50, Length: 40, Kind: KindText},
			{Name: FieldPhone, Offset: 90, Length: 20, Kind: KindRawText},
			{Name: FieldDateIn, Offset: 110, Length: 10, Kind: KindDateText},
			{Name: FieldDateCompleted, Offset: 120, Length: 10, Kind: KindDateText},
			{Name: FieldDateClosed, Offset: 130, Length: 10, Kind: KindDateText},
			{Name: FieldUnitInfo, Offset: 140, Length: 80, Kind: KindText},
			{Name: FieldIssue, Offset: 220, Length: 1000, Kind: KindText},
			{Name: FieldWorkPerformed, Offset: 1220, Length: 1200, Kind: KindText},
		},
	}
}

// Field looks up a field by name.
func (l Layout) Field(name string) (FieldSpec, bool) {
	for _, f := range l.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// Validate checks that every field fits inside the record.
func (l Layout) Validate() error {
	if l.RecordSize <= 0 {
		return fmt.Errorf("%w: %s: record size %d", ErrLayout, l.Name, l.RecordSize)
	}
	if l.PhoneOrder != "" && !l.PhoneOrder.Valid() {
		return fmt.Errorf("%w: %s: unknown phone order %q", ErrLayout, l.Name, l.PhoneOrder)
	}
	seen := make(map[string]bool, len(l.Fields))
	for _, f := range l.Fields {
		if f.Name == "" {
			return fmt.Errorf("%w: %s: field without a name", ErrLayout, l.Name)
		}
		if seen[f.Name] {
			return fmt.Errorf("%w: %s: duplicate field %q", ErrLayout, l.Name, f.Name)
		}
		seen[f.Name] = true
		if f.Offset < 0 || f.Length <= 0 || f.End() > l.RecordSize {
			return fmt.Errorf("%w: %s: field %q [%d,%d) outside %d-byte record",
				ErrLayout, l.Name, f.Name, f.Offset, f.End(), l.RecordSize)
		}
		switch f.Kind {
		case KindText, KindRawText, KindNumericText, KindDateText:
		default:
			return fmt.Errorf("%w: %s: field %q has unknown kind %q", ErrLayout, l.Name, f.Name, f.Kind)
		}
	}
	return nil
}

// require resolves the named fields or reports the first missing one.
func (l Layout) require(names ...string) (map[string]FieldSpec, error) {
	out := make(map[string]FieldSpec, len(names))
	for _, n := range names {
		f, ok := l.Field(n)
		if !ok {
			return nil, fmt.Errorf("%w: %s: missing field %q", ErrLayout, l.Name, n)
		}
		out[n] = f
	}
	return out, nil
}

// Layouts holds the layouts for every legacy record format.
type Layouts struct {
	Customer Layout `yaml:"customer"`
	Repair   Layout `yaml:"repair"`
}

// DefaultLayouts returns the built-in layouts.
func DefaultLayouts() Layouts {
	return Layouts{Customer: CustomerLayout(), Repair: RepairLayout()}
}

// LoadLayouts reads a YAML layout file. Sections or keys left out of the
// file keep their built-in values; a field list, when given, replaces the
// built-in list for that format.
func LoadLayouts(path string) (Layouts, error) {
	layouts := DefaultLayouts()
	if path == "" {
		return layouts, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Layouts{}, fmt.Errorf("failed to read layout file: %w", err)
	}
	if err := yaml.Unmarshal(data, &layouts); err != nil {
		return Layouts{}, fmt.Errorf("failed to parse layout file %s: %w", path, err)
	}

	for _, l := range []Layout{layouts.Customer, layouts.Repair} {
		if err := l.Validate(); err != nil {
			return Layouts{}, err
		}
	}
	return layouts, nil
}
