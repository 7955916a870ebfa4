// ABOUTME: Test helpers that assemble dBase-III files in memory
// ABOUTME: Produces header, descriptors and records byte-for-byte like the legacy tables
package dbftest

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// Field describes one column.
type Field struct {
	Name     string
	Type     byte
	Length   int
	Decimals int
}

// Record is one row. Flag overrides the deletion flag byte when non-zero.
type Record struct {
	Deleted bool
	Flag    byte
	Values  []string
}

// Build assembles a dBase-III file. Numeric values are right-justified,
// everything else left-justified and space padded.
func Build(fields []Field, records ...Record) []byte {
	headerLen := 32 + 32*len(fields) + 1
	recordLen := 1
	for _, f := range fields {
		recordLen += f.Length
	}

	buf := make([]byte, headerLen, headerLen+recordLen*len(records)+1)
	buf[0] = 0x03
	buf[1], buf[2], buf[3] = 124, 6, 15 // 2024-06-15
	binary.LittleEndian.PutUint32(buf[4:8], uint32(len(records)))
	binary.LittleEndian.PutUint16(buf[8:10], uint16(headerLen))
	binary.LittleEndian.PutUint16(buf[10:12], uint16(recordLen))

	for i, f := range fields {
		desc := buf[32+32*i : 64+32*i]
		copy(desc[:11], f.Name)
		desc[11] = f.Type
		desc[16] = byte(f.Length)
		desc[17] = byte(f.Decimals)
	}
	buf[headerLen-1] = 0x0D

	for _, r := range records {
		flag := byte(' ')
		if r.Deleted {
			flag = '*'
		}
		if r.Flag != 0 {
			flag = r.Flag
		}
		buf = append(buf, flag)
		for i, f := range fields {
			value := ""
			if i < len(r.Values) {
				value = r.Values[i]
			}
			buf = append(buf, pad(value, f.Length, f.Type == 'N' || f.Type == 'F')...)
		}
	}

	return append(buf, 0x1A)
}

func pad(value string, n int, right bool) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = ' '
	}
	if len(value) > n {
		value = value[:n]
	}
	if right {
		copy(out[n-len(value):], value)
	} else {
		copy(out, value)
	}
	return out
}

// WriteFile writes data to dir/name and returns the path.
func WriteFile(t testing.TB, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}
