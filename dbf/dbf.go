// ABOUTME: dBase-III file reader for the legacy inventory tables
// ABOUTME: Parses header, field descriptors and active records with typed value coercion
package dbf

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding"
)

var (
	// ErrNotDBF is returned for buffers too small to hold a dBase header.
	ErrNotDBF = errors.New("not a dBase file")
	// ErrBadHeader is returned when header lengths are inconsistent.
	ErrBadHeader = errors.New("invalid dBase header")
)

const (
	headerSize     = 32
	descriptorSize = 32
	terminator     = 0x0D

	flagActive  = ' '
	flagDeleted = '*'
)

// Field types the reader understands.
const (
	TypeCharacter = 'C'
	TypeNumeric   = 'N'
	TypeFloat     = 'F'
	TypeDate      = 'D'
	TypeLogical   = 'L'
	// TypeMemo fields hold a block number into a separate .dbt file, which
	// is not read; they decode to no value.
	TypeMemo      = 'M'
)

// Header is the fixed 32-byte file header.
type Header struct {
	Version      byte
	LastUpdate   time.Time
	RecordCount  int
	HeaderLength int
	RecordLength int
}

// Field is one field descriptor.
type Field struct {
	Name     string
	Type     byte
	Length   int
	Decimals int
	offset   int
}

// Row maps field names to string, float64, bool or nil values.
type Row map[string]any

// String returns the string value of name, or "".
func (r Row) String(name string) string {
	s, _ := r[name].(string)
	return s
}

// Float returns the numeric value of name; ok is false for no value.
func (r Row) Float(name string) (float64, bool) {
	f, ok := r[name].(float64)
	return f, ok
}

// Bool returns the logical value of name.
func (r Row) Bool(name string) bool {
	b, _ := r[name].(bool)
	return b
}

// Stats counts record dispositions inside one file.
type Stats struct {
	Active    int
	Deleted   int
	Malformed int
	Truncated int
}

// File is a parsed dBase table.
type File struct {
	Name   string
	Header Header
	Fields []Field
	Rows   []Row
	Stats  Stats
}

// Option configures decoding.
type Option func(*decoder)

type decoder struct {
	charset encoding.Encoding
}

// WithCharset transcodes character fields from a legacy code page. Without
// it character fields keep their original bytes.
func WithCharset(enc encoding.Encoding) Option {
	return func(d *decoder) {
		d.charset = enc
	}
}

// ReadFile parses the dBase file at path.
func ReadFile(path string, opts ...Option) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	f, err := Parse(data, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	f.Name = filepath.Base(path)
	return f, nil
}

// Parse decodes a whole dBase file held in memory. Records flagged deleted
// are dropped; records past the end of a truncated file are counted in
// Stats.Truncated.
func Parse(data []byte, opts ...Option) (*File, error) {
	d := &decoder{}
	for _, opt := range opts {
		opt(d)
	}

	header, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}
	fields, err := parseFields(data, header)
	if err != nil {
		return nil, err
	}

	f := &File{Header: header, Fields: fields}
	for i := 0; i < header.RecordCount; i++ {
		start := header.HeaderLength + i*header.RecordLength
		end := start + header.RecordLength
		if end > len(data) {
			f.Stats.Truncated = header.RecordCount - i
			break
		}
		rec := data[start:end]

		switch rec[0] {
		case flagDeleted:
			f.Stats.Deleted++
			continue
		case flagActive:
		default:
			f.Stats.Malformed++
			continue
		}

		f.Rows = append(f.Rows, d.decodeRecord(rec, fields))
		f.Stats.Active++
	}

	return f, nil
}

// ParseHeader decodes the first 32 bytes.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < headerSize+1 {
		return Header{}, ErrNotDBF
	}
	h := Header{
		Version:      data[0],
		RecordCount:  int(binary.LittleEndian.Uint32(data[4:8])),
		HeaderLength: int(binary.LittleEndian.Uint16(data[8:10])),
		RecordLength: int(binary.LittleEndian.Uint16(data[10:12])),
	}
	if data[2] >= 1 && data[2] <= 12 && data[3] >= 1 && data[3] <= 31 {
		h.LastUpdate = time.Date(1900+int(data[1]), time.Month(data[2]), int(data[3]), 0, 0, 0, 0, time.UTC)
	}
	if h.HeaderLength < headerSize+1 || h.RecordLength < 1 {
		return Header{}, fmt.Errorf("%w: header length %d, record length %d", ErrBadHeader, h.HeaderLength, h.RecordLength)
	}
	return h, nil
}

func parseFields(data []byte, h Header) ([]Field, error) {
	var fields []Field
	offset := 1 // deletion flag
	for pos := headerSize; ; pos += descriptorSize {
		if pos >= len(data) || pos >= h.HeaderLength {
			return nil, fmt.Errorf("%w: field table not terminated", ErrBadHeader)
		}
		if data[pos] == terminator {
			break
		}
		if pos+descriptorSize > len(data) {
			return nil, fmt.Errorf("%w: truncated field descriptor", ErrBadHeader)
		}
		desc := data[pos : pos+descriptorSize]

		name := desc[:11]
		if i := bytes.IndexByte(name, 0); i >= 0 {
			name = name[:i]
		}
		f := Field{
			Name:     strings.TrimSpace(string(name)),
			Type:     desc[11],
			Length:   int(desc[16]),
			Decimals: int(desc[17]),
			offset:   offset,
		}
		offset += f.Length
		fields = append(fields, f)
	}

	if offset > h.RecordLength {
		return nil, fmt.Errorf("%w: fields need %d bytes, records have %d", ErrBadHeader, offset, h.RecordLength)
	}
	return fields, nil
}

func (d *decoder) decodeRecord(rec []byte, fields []Field) Row {
	row := make(Row, len(fields))
	for _, f := range fields {
		row[f.Name] = d.decodeValue(f, rec[f.offset:f.offset+f.Length])
	}
	return row
}

func (d *decoder) decodeValue(f Field, raw []byte) any {
	switch f.Type {
	case TypeNumeric, TypeFloat:
		s := strings.TrimSpace(string(raw))
		if s == "" {
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		return v
	case TypeDate:
		s := strings.TrimSpace(string(raw))
		if len(s) != 8 {
			return nil
		}
		return s[:4] + "-" + s[4:6] + "-" + s[6:]
	case TypeLogical:
		switch strings.TrimSpace(string(raw)) {
		case "Y", "y", "T", "t":
			return true
		}
		return false
	case TypeMemo:
		return nil
	default:
		return d.decodeText(raw)
	}
}

func (d *decoder) decodeText(raw []byte) string {
	if i := bytes.IndexByte(raw, 0); i >= 0 {
		raw = raw[:i]
	}
	if d.charset != nil {
		if out, err := d.charset.NewDecoder().Bytes(raw); err == nil {
			return strings.TrimSpace(string(out))
		}
	}
	return strings.TrimSpace(string(raw))
}
