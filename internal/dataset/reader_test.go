// SPDX-License-Identifier: MIT

package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"
)

const salesCSV = `region,units,price,active,signup
north,10,"$1,200.50",true,2024-01-02
south,5,99.99,false,2024-02-03
north,,49.00,true,2024-03-04
east,7,N/A,false,2024-04-05
`

func TestReadCSVInfersKinds(t *testing.T) {
	ds, err := ReadCSV(strings.NewReader(salesCSV), ReadOptions{Name: "sales"})
	require.NoError(t, err)

	require.Equal(t, 4, ds.Len())
	require.Equal(t, []string{"region", "units", "price", "active", "signup"}, ds.Columns())

	region, err := ds.Column("region")
	require.NoError(t, err)
	assert.Equal(t, KindCategorical, region.Kind())

	units, err := ds.Column("units")
	require.NoError(t, err)
	assert.Equal(t, KindNumeric, units.Kind())
	assert.Equal(t, 3, units.NonNull())

	active, err := ds.Column("active")
	require.NoError(t, err)
	assert.Equal(t, KindBoolean, active.Kind())

	signup, err := ds.Column("signup")
	require.NoError(t, err)
	assert.Equal(t, KindDatetime, signup.Kind())
}

func TestReadCSVQuotedCurrency(t *testing.T) {
	ds, err := ReadCSV(strings.NewReader(salesCSV), ReadOptions{Name: "sales"})
	require.NoError(t, err)

	price, err := ds.Column("price")
	require.NoError(t, err)
	require.Equal(t, KindNumeric, price.Kind())
	assert.InDelta(t, 1200.50, price.Float(0), 1e-9)
	assert.True(t, price.IsMissing(3), "N/A should be missing")
}

func TestReadCSVSemicolonSniffing(t *testing.T) {
	csvData := "a;b\n1;x\n2;y\n"
	ds, err := ReadCSV(strings.NewReader(csvData), ReadOptions{Name: "semi"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ds.Columns())
	assert.Equal(t, 2, ds.Len())
}

func TestReadCSVTabSniffing(t *testing.T) {
	csvData := "a\tb\n1\tx\n"
	ds, err := ReadCSV(strings.NewReader(csvData), ReadOptions{Name: "tabs"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ds.Columns())
}

func TestReadCSVUTF8BOM(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("a,b\n1,2\n")...)
	ds, err := ReadCSV(strings.NewReader(string(data)), ReadOptions{Name: "bom"})
	require.NoError(t, err)
	assert.Equal(t, "a", ds.Columns()[0], "BOM must not leak into the first header")
}

func TestReadCSVUTF16(t *testing.T) {
	enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
	encoded, err := enc.Bytes([]byte("name,score\nady,9\nbea,8\n"))
	require.NoError(t, err)

	ds, err := ReadCSV(strings.NewReader(string(encoded)), ReadOptions{Name: "utf16"})
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "score"}, ds.Columns())
	assert.Equal(t, 2, ds.Len())
}

func TestReadCSVLatin1Fallback(t *testing.T) {
	// 0xE9 is é in Latin-1 and invalid as a standalone UTF-8 byte.
	raw := []byte("city,n\ncaf\xe9,3\n")
	ds, err := ReadCSV(strings.NewReader(string(raw)), ReadOptions{Name: "latin"})
	require.NoError(t, err)

	city, err := ds.Column("city")
	require.NoError(t, err)
	assert.Equal(t, "café", city.StringAt(0))
}

func TestReadCSVRaggedRows(t *testing.T) {
	csvData := "a,b,c\n1,x\n2,y,z,extra\n3,w,v\n"
	ds, err := ReadCSV(strings.NewReader(csvData), ReadOptions{Name: "ragged"})
	require.NoError(t, err)
	require.Equal(t, 3, ds.Len())

	c, err := ds.Column("c")
	require.NoError(t, err)
	assert.True(t, c.IsMissing(0), "short row should pad with missing")
	assert.Equal(t, "z", c.StringAt(1), "long row should truncate, keeping in-range cells")
}

func TestReadCSVDuplicateHeaders(t *testing.T) {
	csvData := "id,id,id\n1,2,3\n"
	ds, err := ReadCSV(strings.NewReader(csvData), ReadOptions{Name: "dup"})
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "id_2", "id_3"}, ds.Columns())
}

func TestReadCSVSchemaOverride(t *testing.T) {
	// zip codes would infer numeric; the schema pins them categorical
	csvData := "zip,amount\n01234,10\n94110,20\n"
	schema := &Schema{Columns: map[string]Kind{"zip": KindCategorical}}
	ds, err := ReadCSV(strings.NewReader(csvData), ReadOptions{Name: "zips", Schema: schema})
	require.NoError(t, err)

	zip, err := ds.Column("zip")
	require.NoError(t, err)
	assert.Equal(t, KindCategorical, zip.Kind())
	assert.Equal(t, "01234", zip.StringAt(0))
}

func TestReadCSVEmptyInputs(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""), ReadOptions{})
	assert.True(t, errors.Is(err, ErrEmptyInput), "empty input: got %v", err)

	_, err = ReadCSV(strings.NewReader("   \n"), ReadOptions{})
	assert.True(t, errors.Is(err, ErrEmptyInput), "blank input: got %v", err)

	_, err = ReadCSV(strings.NewReader("a,b\n"), ReadOptions{})
	assert.True(t, errors.Is(err, ErrNoRows), "header only: got %v", err)
}

func TestReadFileUsesBaseName(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "orders.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b\n1,2\n"), 0o600))

	ds, err := ReadFile(path, ReadOptions{})
	require.NoError(t, err)
	assert.Equal(t, "orders", ds.Name())
}

func TestLoadSchema(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schema.yaml")
	content := "columns:\n  zip: categorical\n  joined: datetime\ndelimiter: \";\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	s, err := LoadSchema(path)
	require.NoError(t, err)
	assert.Equal(t, KindCategorical, s.Columns["zip"])
	assert.Equal(t, ";", s.Delimiter)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("columns:\n  x: imaginary\n"), 0o600))
	_, err = LoadSchema(bad)
	assert.Error(t, err)
}
