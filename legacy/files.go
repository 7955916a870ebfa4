// ABOUTME: Fixed-size record file loading and repair source enumeration
// ABOUTME: Orders the current claim file before history files, newest year first
package legacy

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// RecordFile is a legacy file loaded fully into memory and viewed as
// fixed-size records.
type RecordFile struct {
	Name       string
	Path       string
	RecordSize int
	data       []byte
}

// ReadRecordFile loads path. Files are small (tens of MB at most) so the
// whole file is read at once.
func ReadRecordFile(path string, recordSize int) (*RecordFile, error) {
	if recordSize <= 0 {
		return nil, fmt.Errorf("%w: record size %d", ErrLayout, recordSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	f := NewRecordFile(filepath.Base(path), data, recordSize)
	f.Path = path
	return f, nil
}

// NewRecordFile wraps an in-memory buffer.
func NewRecordFile(name string, data []byte, recordSize int) *RecordFile {
	return &RecordFile{Name: name, Path: name, RecordSize: recordSize, data: data}
}

// Len is the number of records, counting a trailing partial record.
func (f *RecordFile) Len() int {
	n := len(f.data) / f.RecordSize
	if f.Trailing() > 0 {
		n++
	}
	return n
}

// Trailing is the byte count of an incomplete final record, if any.
func (f *RecordFile) Trailing() int {
	return len(f.data) % f.RecordSize
}

// Record returns record i. The final record may be shorter than RecordSize;
// decoders skip it as malformed.
func (f *RecordFile) Record(i int) (Record, bool) {
	start := i * f.RecordSize
	if i < 0 || start >= len(f.data) {
		return Record{}, false
	}
	end := start + f.RecordSize
	if end > len(f.data) {
		end = len(f.data)
	}
	return Record{Source: f.Name, Index: i, Bytes: f.data[start:end:end]}, true
}

// Each calls fn for every record in file order, stopping at the first error.
func (f *RecordFile) Each(fn func(Record) error) error {
	for i := 0; i < f.Len(); i++ {
		rec, _ := f.Record(i)
		if err := fn(rec); err != nil {
			return err
		}
	}
	return nil
}

// Source is one repair input file in dedup priority order.
type Source struct {
	Name       string
	Path       string
	Historical bool
	Year       int
}

var yearPattern = regexp.MustCompile(`(19|20)\d{2}`)

// IsHistoryName reports whether a claim file name carries a year.
func IsHistoryName(name string) bool {
	return yearPattern.MatchString(name)
}

// RepairSources lists the claim files in dir in priority order: the current
// file first, then history files matching pattern ordered by the year in
// their name, most recent first. History files without a year come last.
// Matching is case-insensitive since the files come from a DOS system. The
// current file is listed even when it does not exist so callers can report
// it.
func RepairSources(dir, current, pattern string) ([]Source, error) {
	sources := []Source{{Name: current, Path: FindFile(dir, current)}}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list data directory: %w", err)
	}

	upperPattern := strings.ToUpper(pattern)
	var history []Source
	for _, e := range entries {
		if e.IsDir() || strings.EqualFold(e.Name(), current) {
			continue
		}
		ok, err := filepath.Match(upperPattern, strings.ToUpper(e.Name()))
		if err != nil {
			return nil, fmt.Errorf("bad history pattern %q: %w", pattern, err)
		}
		if !ok {
			continue
		}
		src := Source{Name: e.Name(), Path: filepath.Join(dir, e.Name()), Historical: true}
		if m := yearPattern.FindString(e.Name()); m != "" {
			src.Year, _ = strconv.Atoi(m)
		}
		history = append(history, src)
	}

	sort.SliceStable(history, func(i, j int) bool {
		if history[i].Year != history[j].Year {
			return history[i].Year > history[j].Year
		}
		return history[i].Name > history[j].Name
	})

	return append(sources, history...), nil
}

// FindFile resolves name inside dir case-insensitively, falling back to the
// exact join when no entry matches.
func FindFile(dir, name string) string {
	entries, err := os.ReadDir(dir)
	if err == nil {
		for _, e := range entries {
			if !e.IsDir() && strings.EqualFold(e.Name(), name) {
				return filepath.Join(dir, e.Name())
			}
		}
	}
	return filepath.Join(dir, name)
}
