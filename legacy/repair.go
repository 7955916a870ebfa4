// ABOUTME: Claim record decoder for the current and dated history repair files
// ABOUTME: Validates claim numbers and names, splits unit info and infers repair status
package legacy

import (
	"strconv"
	"strings"

	"github.com/harperreed/shopmigrate/models"
)

// RepairDecoder decodes claim records with one layout.
type RepairDecoder struct {
	layout Layout
	fields map[string]FieldSpec
}

// NewRepairDecoder validates l and resolves the fields the decoder needs.
func NewRepairDecoder(l Layout) (*RepairDecoder, error) {
	if err := l.Validate(); err != nil {
		return nil, err
	}
	fields, err := l.require(FieldClaim, FieldName, FieldAddress, FieldPhone,
		FieldDateIn, FieldDateCompleted, FieldDateClosed,
		FieldUnitInfo, FieldIssue, FieldWorkPerformed)
	if err != nil {
		return nil, err
	}
	if l.PhoneOrder == "" {
		l.PhoneOrder = PhoneAreaFirst
	}
	return &RepairDecoder{layout: l, fields: fields}, nil
}

// Layout returns the layout the decoder was built with.
func (d *RepairDecoder) Layout() Layout {
	return d.layout
}

// Decode turns one claim record into a ParsedRepair. historical marks
// records read from a dated history file, which are always at least
// completed.
func (d *RepairDecoder) Decode(rec Record, historical bool) (*models.ParsedRepair, Outcome) {
	if len(rec.Bytes) < d.layout.RecordSize {
		return nil, skip(ReasonShortRecord)
	}

	claim, ok := rec.Int(d.fields[FieldClaim])
	if !ok {
		return nil, reject(ReasonClaimMissing)
	}
	if claim < models.MinClaimNumber || claim > models.MaxClaimNumber {
		return nil, reject(ReasonClaimOutOfRange)
	}

	name := rec.Text(d.fields[FieldName])
	if reason := checkRepairName(name); reason != "" {
		return nil, reject(reason)
	}

	rawUnit := rec.Text(d.fields[FieldUnitInfo])
	brand, model, serial := SplitUnitInfo(rawUnit)

	repair := &models.ParsedRepair{
		ClaimNumber:   claim,
		ClientName:    name,
		ClientNameKey: NameKey(name),
		Address:       rec.Text(d.fields[FieldAddress]),
		Phone:         formatRawPhone(rec.RawText(d.fields[FieldPhone]), d.layout.PhoneOrder),
		Brand:         brand,
		Model:         model,
		Serial:        serial,
		RawUnitInfo:   rawUnit,
		Issue:         rec.Text(d.fields[FieldIssue]),
		WorkPerformed: rec.Text(d.fields[FieldWorkPerformed]),
		DateIn:        normalizeDatePtr(rec.Text(d.fields[FieldDateIn])),
		DateCompleted: normalizeDatePtr(rec.Text(d.fields[FieldDateCompleted])),
		DateClosed:    normalizeDatePtr(rec.Text(d.fields[FieldDateClosed])),
		SourceFile:    rec.Source,
	}
	repair.Status = InferStatus(historical, repair.DateCompleted != nil, repair.DateClosed != nil)

	return repair, accept()
}

// checkRepairName returns a rejection reason for names that indicate the
// reader ran past the valid region or hit padding.
func checkRepairName(name string) string {
	switch {
	case name == "":
		return ReasonEmptyName
	case len(name) < 3:
		return ReasonNameTooShort
	case isAllDigits(strings.ReplaceAll(name, " ", "")):
		return ReasonNameNumeric
	}
	return ""
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	return onlyDigits(s) == s
}

// InferStatus picks the repair status: checked_in by default, completed for
// history records or when a completed/closed date parsed, picked_up when the
// closed date parsed.
func InferStatus(historical, hasCompleted, hasClosed bool) string {
	status := models.StatusCheckedIn
	if historical || hasCompleted || hasClosed {
		status = models.StatusCompleted
	}
	if hasClosed {
		status = models.StatusPickedUp
	}
	return status
}

// NameKey normalizes a client name for matching: trimmed, lower-cased,
// inner whitespace collapsed.
func NameKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// ClaimKey is the string form stored in repairs.claim_number.
func ClaimKey(claim int) string {
	return strconv.Itoa(claim)
}

var defaultRepairDecoder, _ = NewRepairDecoder(RepairLayout())

// DecodeRepair decodes rec with the built-in claim layout.
func DecodeRepair(rec Record, historical bool) (*models.ParsedRepair, Outcome) {
	return defaultRepairDecoder.Decode(rec, historical)
}
