// ABOUTME: Customer record decoder for the fixed-width legacy customer file
// ABOUTME: Applies the customer layout and field heuristics to produce client candidates
package legacy

import (
	"github.com/harperreed/shopmigrate/models"
)

// CustomerDecoder decodes customer records with one layout.
type CustomerDecoder struct {
	layout Layout
	fields map[string]FieldSpec
}

// NewCustomerDecoder validates l and resolves the fields the decoder needs.
func NewCustomerDecoder(l Layout) (*CustomerDecoder, error) {
	if err := l.Validate(); err != nil {
		return nil, err
	}
	fields, err := l.require(FieldName, FieldCompany, FieldAddress, FieldCityStateZip, FieldPhone, FieldEmail)
	if err != nil {
		return nil, err
	}
	if l.PhoneOrder == "" {
		l.PhoneOrder = PhoneAreaFirst
	}
	return &CustomerDecoder{layout: l, fields: fields}, nil
}

// Layout returns the layout the decoder was built with.
func (d *CustomerDecoder) Layout() Layout {
	return d.layout
}

// Decode turns one record into a ParsedCustomer. It has no side effects:
// the same bytes always decode to the same value.
func (d *CustomerDecoder) Decode(rec Record) (*models.ParsedCustomer, Outcome) {
	if len(rec.Bytes) < d.layout.RecordSize {
		return nil, skip(ReasonShortRecord)
	}

	name := rec.Text(d.fields[FieldName])
	if name == "" {
		return nil, reject(ReasonEmptyName)
	}

	rawCSZ := rec.Text(d.fields[FieldCityStateZip])
	city, state, zip := SplitCityStateZip(rawCSZ)
	rawPhone := rec.RawText(d.fields[FieldPhone])

	return &models.ParsedCustomer{
		Name:            name,
		CompanyName:     rec.Text(d.fields[FieldCompany]),
		Phone:           formatRawPhone(rawPhone, d.layout.PhoneOrder),
		Email:           rec.Text(d.fields[FieldEmail]),
		Address:         rec.Text(d.fields[FieldAddress]),
		City:            city,
		State:           state,
		Zip:             zip,
		RawCityStateZip: rawCSZ,
		RawPhone:        PhoneDigits(rawPhone),
	}, accept()
}

var defaultCustomerDecoder, _ = NewCustomerDecoder(CustomerLayout())

// DecodeCustomer decodes rec with the built-in customer layout.
func DecodeCustomer(rec Record) (*models.ParsedCustomer, Outcome) {
	return defaultCustomerDecoder.Decode(rec)
}
