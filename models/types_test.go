// ABOUTME: Tests for shop data models
// ABOUTME: Validates run counter balancing and parsed-record conversion
package models

import (
	"strings"
	"testing"
)

func TestRunStatsBalanced(t *testing.T) {
	s := RunStats{Read: 10, Valid: 7, Duplicates: 2, Inserted: 4, WriteFailed: 1}
	s.Reject("name_empty")
	s.Reject("claim_out_of_range")
	s.Skip("short_record")

	if !s.Balanced() {
		t.Errorf("expected balanced stats, got %s", s)
	}

	s.Inserted++
	if s.Balanced() {
		t.Error("expected unbalanced stats after extra insert")
	}
}

func TestRunStatsAdd(t *testing.T) {
	a := RunStats{Read: 3, Valid: 3, Inserted: 3}
	b := RunStats{Read: 2, Valid: 1, Duplicates: 1, FileErrors: []string{"CLAIMS2019.DAT: missing"}}
	b.Reject("name_numeric")

	a.Add(b)

	if a.Read != 5 || a.Valid != 4 || a.Rejected != 1 || a.Duplicates != 1 {
		t.Errorf("unexpected totals: %s", a)
	}
	if a.Reasons["name_numeric"] != 1 {
		t.Errorf("expected reason to carry over, got %v", a.Reasons)
	}
	if len(a.FileErrors) != 1 {
		t.Errorf("expected 1 file error, got %d", len(a.FileErrors))
	}
}

func TestRunStatsStringSortsReasons(t *testing.T) {
	s := RunStats{}
	s.Reject("name_too_short")
	s.Reject("claim_missing")

	out := s.String()
	if !strings.Contains(out, "reasons=claim_missing:1,name_too_short:1") {
		t.Errorf("unexpected summary: %s", out)
	}
}

func TestParsedCustomerClient(t *testing.T) {
	p := &ParsedCustomer{
		Name:            "John Smith",
		City:            "Tampa",
		State:           "FL",
		Zip:             "33601",
		RawCityStateZip: "Tampa, FL 33601",
		RawPhone:        "2374800813",
		Phone:           "(813) 237-4800",
	}

	c := p.Client()
	if c.Name != "John Smith" || c.Phone != "(813) 237-4800" {
		t.Errorf("unexpected client: %+v", c)
	}
	if c.RawCityStateZip != "Tampa, FL 33601" {
		t.Errorf("expected raw field to be preserved, got %q", c.RawCityStateZip)
	}
}
