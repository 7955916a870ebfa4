// ABOUTME: Tests for the dBase table decoder
// ABOUTME: Fixtures are built in memory with dbftest
package dbf_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/harperreed/shopmigrate/dbf"
	"github.com/harperreed/shopmigrate/dbf/dbftest"
)

var partFields = []dbftest.Field{
	{Name: "PARTNAME", Type: 'C', Length: 20},
	{Name: "COST", Type: 'N', Length: 8, Decimals: 2},
	{Name: "ORDERED", Type: 'D', Length: 8},
	{Name: "ACTIVE", Type: 'L', Length: 1},
	{Name: "WEIGHT", Type: 'F', Length: 6, Decimals: 1},
}

func TestParseHeaderAndFields(t *testing.T) {
	data := dbftest.Build(partFields,
		dbftest.Record{Values: []string{"FLYBACK", "12.50", "20230615", "T", "1.5"}},
	)

	f, err := dbf.Parse(data)
	require.NoError(t, err)

	assert.Equal(t, byte(0x03), f.Header.Version)
	assert.Equal(t, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), f.Header.LastUpdate)
	assert.Equal(t, 1, f.Header.RecordCount)
	assert.Equal(t, 32+32*5+1, f.Header.HeaderLength)
	assert.Equal(t, 1+20+8+8+1+6, f.Header.RecordLength)

	require.Len(t, f.Fields, 5)
	assert.Equal(t, "PARTNAME", f.Fields[0].Name)
	assert.Equal(t, byte('N'), f.Fields[1].Type)
	assert.Equal(t, 8, f.Fields[1].Length)
	assert.Equal(t, 2, f.Fields[1].Decimals)
}

func TestParseValues(t *testing.T) {
	data := dbftest.Build(partFields,
		dbftest.Record{Values: []string{"FLYBACK", "12.50", "20230615", "T", "1.5"}},
		dbftest.Record{Values: []string{"YOKE", "", "2023061", "n", ""}},
	)

	f, err := dbf.Parse(data)
	require.NoError(t, err)
	require.Len(t, f.Rows, 2)

	first := f.Rows[0]
	assert.Equal(t, "FLYBACK", first.String("PARTNAME"))
	cost, ok := first.Float("COST")
	assert.True(t, ok)
	assert.InDelta(t, 12.5, cost, 0.0001)
	assert.Equal(t, "2023-06-15", first["ORDERED"])
	assert.Equal(t, true, first.Bool("ACTIVE"))
	weight, ok := first.Float("WEIGHT")
	assert.True(t, ok)
	assert.InDelta(t, 1.5, weight, 0.0001)

	second := f.Rows[1]
	_, ok = second.Float("COST")
	assert.False(t, ok, "empty numeric must be no value, not zero")
	assert.Nil(t, second["COST"])
	assert.Nil(t, second["ORDERED"], "short date must be no value")
	assert.Equal(t, false, second.Bool("ACTIVE"))
}

func TestParseMemoField(t *testing.T) {
	data := dbftest.Build([]dbftest.Field{
		{Name: "PARTNAME", Type: 'C', Length: 10},
		{Name: "NOTES", Type: 'M', Length: 10},
	}, dbftest.Record{Values: []string{"FLYBACK", "0000000012"}})

	f, err := dbf.Parse(data)
	require.NoError(t, err)
	require.Len(t, f.Rows, 1)
	assert.Equal(t, "FLYBACK", f.Rows[0].String("PARTNAME"))
	v, present := f.Rows[0]["NOTES"]
	assert.True(t, present)
	assert.Nil(t, v, "memo block pointers are not text")
}

func TestParseDeletionFlag(t *testing.T) {
	data := dbftest.Build(partFields,
		dbftest.Record{Flag: 0x2A, Values: []string{"DELETED"}},
		dbftest.Record{Flag: 0x20, Values: []string{"KEPT"}},
		dbftest.Record{Flag: 'X', Values: []string{"GARBAGE"}},
	)

	f, err := dbf.Parse(data)
	require.NoError(t, err)

	require.Len(t, f.Rows, 1)
	assert.Equal(t, "KEPT", f.Rows[0].String("PARTNAME"))
	assert.Equal(t, dbf.Stats{Active: 1, Deleted: 1, Malformed: 1}, f.Stats)
}

func TestParseLogicalValues(t *testing.T) {
	fields := []dbftest.Field{{Name: "FLAG", Type: 'L', Length: 1}}
	var records []dbftest.Record
	for _, v := range []string{"Y", "y", "T", "t", "N", "F", "?", ""} {
		records = append(records, dbftest.Record{Values: []string{v}})
	}

	f, err := dbf.Parse(dbftest.Build(fields, records...))
	require.NoError(t, err)

	var got []bool
	for _, r := range f.Rows {
		got = append(got, r.Bool("FLAG"))
	}
	assert.Equal(t, []bool{true, true, true, true, false, false, false, false}, got)
}

func TestParseCharacterKeepsBytes(t *testing.T) {
	fields := []dbftest.Field{{Name: "DESCRIP", Type: 'C', Length: 10}}
	data := dbftest.Build(fields, dbftest.Record{Values: []string{"Caf\x82 TV"}})

	f, err := dbf.Parse(data)
	require.NoError(t, err)
	assert.Equal(t, "Caf\x82 TV", f.Rows[0].String("DESCRIP"))

	f, err = dbf.Parse(data, dbf.WithCharset(charmap.CodePage437))
	require.NoError(t, err)
	assert.Equal(t, "Café TV", f.Rows[0].String("DESCRIP"))
}

func TestParseTruncatedFile(t *testing.T) {
	data := dbftest.Build(partFields,
		dbftest.Record{Values: []string{"ONE"}},
		dbftest.Record{Values: []string{"TWO"}},
	)
	// drop the EOF marker and half of the second record
	data = data[:len(data)-1-20]

	f, err := dbf.Parse(data)
	require.NoError(t, err)
	assert.Len(t, f.Rows, 1)
	assert.Equal(t, 1, f.Stats.Truncated)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := dbf.Parse([]byte("short"))
	assert.ErrorIs(t, err, dbf.ErrNotDBF)

	data := dbftest.Build(partFields)
	data[8], data[9] = 0, 0 // header length 0
	_, err = dbf.Parse(data)
	assert.ErrorIs(t, err, dbf.ErrBadHeader)

	data = dbftest.Build(partFields)
	data[10], data[11] = 5, 0 // records shorter than their fields
	_, err = dbf.Parse(data)
	assert.ErrorIs(t, err, dbf.ErrBadHeader)
}

func TestReadFile(t *testing.T) {
	path := dbftest.WriteFile(t, t.TempDir(), "PARTS.DBF", dbftest.Build(partFields,
		dbftest.Record{Values: []string{"FLYBACK"}},
	))

	f, err := dbf.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "PARTS.DBF", f.Name)
	assert.Len(t, f.Rows, 1)

	_, err = dbf.ReadFile(path + ".missing")
	assert.Error(t, err)
}

func TestCharsetByName(t *testing.T) {
	enc, err := dbf.CharsetByName("")
	require.NoError(t, err)
	assert.Nil(t, enc)

	enc, err = dbf.CharsetByName("CP437")
	require.NoError(t, err)
	assert.Equal(t, charmap.CodePage437, enc)

	_, err = dbf.CharsetByName("ebcdic")
	assert.Error(t, err)
}
