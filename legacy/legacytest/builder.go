// ABOUTME: Test helpers that build legacy fixed-width records and files
// ABOUTME: Lets tests describe records by field instead of hand-writing byte offsets
package legacytest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/harperreed/shopmigrate/legacy"
)

// Customer describes one customer record by field.
type Customer struct {
	Name         string
	Company      string
	Address      string
	CityStateZip string
	Phone        string
	Email        string
}

// Claim describes one claim record by field.
type Claim struct {
	Claim         string
	Name          string
	Address       string
	Phone         string
	DateIn        string
	DateCompleted string
	DateClosed    string
	UnitInfo      string
	Issue         string
	WorkPerformed string
}

// Put copies value into buf at f, truncated to the field length. Unused
// bytes keep whatever buf already holds (NUL for fresh buffers).
func Put(buf []byte, f legacy.FieldSpec, value string) {
	n := len(value)
	if n > f.Length {
		n = f.Length
	}
	copy(buf[f.Offset:f.Offset+n], value[:n])
}

func put(buf []byte, l legacy.Layout, name, value string) {
	if value == "" {
		return
	}
	f, ok := l.Field(name)
	if !ok {
		panic("legacytest: layout has no field " + name)
	}
	Put(buf, f, value)
}

// CustomerRecord encodes c with the built-in customer layout, NUL padded.
func CustomerRecord(c Customer) []byte {
	l := legacy.CustomerLayout()
	buf := make([]byte, l.RecordSize)
	put(buf, l, legacy.FieldName, c.Name)
	put(buf, l, legacy.FieldCompany, c.Company)
	put(buf, l, legacy.FieldAddress, c.Address)
	put(buf, l, legacy.FieldCityStateZip, c.CityStateZip)
	put(buf, l, legacy.FieldPhone, c.Phone)
	put(buf, l, legacy.FieldEmail, c.Email)
	return buf
}

// ClaimRecord encodes c with the built-in claim layout, NUL padded.
func ClaimRecord(c Claim) []byte {
	l := legacy.RepairLayout()
	buf := make([]byte, l.RecordSize)
	put(buf, l, legacy.FieldClaim, c.Claim)
	put(buf, l, legacy.FieldName, c.Name)
	put(buf, l, legacy.FieldAddress, c.Address)
	put(buf, l, legacy.FieldPhone, c.Phone)
	put(buf, l, legacy.FieldDateIn, c.DateIn)
	put(buf, l, legacy.FieldDateCompleted, c.DateCompleted)
	put(buf, l, legacy.FieldDateClosed, c.DateClosed)
	put(buf, l, legacy.FieldUnitInfo, c.UnitInfo)
	put(buf, l, legacy.FieldIssue, c.Issue)
	put(buf, l, legacy.FieldWorkPerformed, c.WorkPerformed)
	return buf
}

// WriteFile concatenates records into dir/name and returns the path.
func WriteFile(t testing.TB, dir, name string, records ...[]byte) string {
	t.Helper()
	var data []byte
	for _, r := range records {
		data = append(data, r...)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}
