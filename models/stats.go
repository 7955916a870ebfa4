// ABOUTME: Per-run disposition counters for legacy migrations
// ABOUTME: Every input record lands in exactly one bucket so totals always balance
package models

import (
	"fmt"
	"sort"
	"strings"
)

// RunStats counts the disposition of every record a migration read.
//
// Read = Skipped + Rejected + Valid, and
// Valid = Duplicates + Inserted + Updated + Unchanged + Pending + WriteFailed.
// Pending only grows during dry runs.
type RunStats struct {
	Read        int `json:"read"`
	Skipped     int `json:"skipped"`
	Rejected    int `json:"rejected"`
	Valid       int `json:"valid"`
	Duplicates  int `json:"duplicates"`
	Inserted    int `json:"inserted"`
	Updated     int `json:"updated"`
	Unchanged   int `json:"unchanged"`
	Pending     int `json:"pending"`
	WriteFailed int `json:"write_failed"`

	Reasons    map[string]int `json:"reasons,omitempty"`
	FileErrors []string       `json:"file_errors,omitempty"`
}

// Reject counts a record rejected by a validity filter under reason.
func (s *RunStats) Reject(reason string) {
	s.Rejected++
	s.reason(reason)
}

// Skip counts a malformed record.
func (s *RunStats) Skip(reason string) {
	s.Skipped++
	s.reason(reason)
}

func (s *RunStats) reason(reason string) {
	if reason == "" {
		return
	}
	if s.Reasons == nil {
		s.Reasons = make(map[string]int)
	}
	s.Reasons[reason]++
}

// Balanced reports whether every read record has exactly one disposition.
func (s *RunStats) Balanced() bool {
	if s.Read != s.Skipped+s.Rejected+s.Valid {
		return false
	}
	return s.Valid == s.Duplicates+s.Inserted+s.Updated+s.Unchanged+s.Pending+s.WriteFailed
}

// Add folds other into s.
func (s *RunStats) Add(other RunStats) {
	s.Read += other.Read
	s.Skipped += other.Skipped
	s.Rejected += other.Rejected
	s.Valid += other.Valid
	s.Duplicates += other.Duplicates
	s.Inserted += other.Inserted
	s.Updated += other.Updated
	s.Unchanged += other.Unchanged
	s.Pending += other.Pending
	s.WriteFailed += other.WriteFailed
	for k, v := range other.Reasons {
		if s.Reasons == nil {
			s.Reasons = make(map[string]int)
		}
		s.Reasons[k] += v
	}
	s.FileErrors = append(s.FileErrors, other.FileErrors...)
}

func (s RunStats) String() string {
	line := fmt.Sprintf("read=%d valid=%d skipped=%d rejected=%d duplicates=%d inserted=%d updated=%d unchanged=%d write_failed=%d",
		s.Read, s.Valid, s.Skipped, s.Rejected, s.Duplicates, s.Inserted, s.Updated, s.Unchanged, s.WriteFailed)
	if s.Pending > 0 {
		line += fmt.Sprintf(" pending=%d", s.Pending)
	}
	if len(s.Reasons) == 0 {
		return line
	}

	keys := make([]string, 0, len(s.Reasons))
	for k := range s.Reasons {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s:%d", k, s.Reasons[k]))
	}
	return line + " reasons=" + strings.Join(parts, ",")
}
