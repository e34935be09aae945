package dataset

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadCSV_SkipRows(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "raw.csv",
		"Title Row\n"+
			"Generated On 2026-08-29\n"+
			"Group,Price\n"+
			"Cereals,2100\n"+
			"Pulses,5400\n")

	tbl, err := ReadCSV(path, 2)
	require.NoError(t, err)

	assert.Equal(t, []string{"Group", "Price"}, tbl.Columns())
	assert.Equal(t, 2, tbl.NumRows())
	assert.Equal(t, "Cereals", tbl.Col("Group").Text[0])
}

func TestReadCSV_RaggedRows(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "ragged.csv",
		"A,B,C\n"+
			"1,2\n"+
			"3,4,5,6\n")

	tbl, err := ReadCSV(path, 0)
	require.NoError(t, err)

	assert.Equal(t, 2, tbl.NumRows())
	assert.Equal(t, "", tbl.Col("C").Text[0])
	assert.Equal(t, "5", tbl.Col("C").Text[1])
}

func TestReadCSV_Empty(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "empty.csv", "only title\n")

	_, err := ReadCSV(path, 2)
	assert.Error(t, err)
}

func TestCoerceNumeric(t *testing.T) {
	tbl := New()
	require.NoError(t, tbl.AddTextColumn("MSP", []string{"2,775", "-", "abc", " 1987 ", ""}))

	tbl.CoerceNumeric("MSP")

	c := tbl.Col("MSP")
	require.True(t, c.Numeric)
	assert.Equal(t, 2775.0, c.Nums[0])
	assert.True(t, math.IsNaN(c.Nums[1]))
	assert.True(t, math.IsNaN(c.Nums[2]))
	assert.Equal(t, 1987.0, c.Nums[3])
	assert.True(t, math.IsNaN(c.Nums[4]))
}

func TestRenameOutcome(t *testing.T) {
	tbl := New()
	require.NoError(t, tbl.AddTextColumn("a", []string{"x"}))
	require.NoError(t, tbl.AddTextColumn("b", []string{"y"}))

	outcome := tbl.Rename([]string{"A", "B"})
	assert.Equal(t, RenameExact, outcome)
	assert.Equal(t, []string{"A", "B"}, tbl.Columns())

	outcome = tbl.Rename([]string{"First", "Second", "Third"})
	assert.Equal(t, RenameDegraded, outcome)
	assert.Equal(t, []string{"First", "Second"}, tbl.Columns())
}

func TestDropRowsMissing(t *testing.T) {
	tbl := New()
	require.NoError(t, tbl.AddTextColumn("Commodity", []string{"Wheat", "Rice", "Gram"}))
	require.NoError(t, tbl.AddTextColumn("Price_Today", []string{"2100", "-", "5400"}))
	tbl.CoerceNumeric("Price_Today")

	tbl.DropRowsMissing("Price_Today")

	assert.Equal(t, 2, tbl.NumRows())
	assert.Equal(t, []string{"Wheat", "Gram"}, tbl.Col("Commodity").Text)
}

func TestDropRowsWithMissing(t *testing.T) {
	tbl := New()
	require.NoError(t, tbl.AddNumericColumn("a", []float64{1, math.NaN(), 3}))
	require.NoError(t, tbl.AddNumericColumn("b", []float64{4, 5, 6}))

	tbl.DropRowsWithMissing()

	assert.Equal(t, 2, tbl.NumRows())
	assert.Equal(t, []float64{1, 3}, tbl.Col("a").Nums)
}

func TestInferNumericColumns(t *testing.T) {
	tbl := New()
	require.NoError(t, tbl.AddTextColumn("Commodity", []string{"Wheat", "Rice"}))
	require.NoError(t, tbl.AddTextColumn("Price_Today", []string{"2100", "2200"}))
	require.NoError(t, tbl.AddTextColumn("msp_premium", []string{"-675", ""}))

	tbl.InferNumericColumns()

	assert.Equal(t, []string{"Price_Today", "msp_premium"}, tbl.NumericColumnNames())
	assert.True(t, math.IsNaN(tbl.Col("msp_premium").Nums[1]))
}

func TestWriteCSV_Deterministic(t *testing.T) {
	dir := t.TempDir()

	tbl := New()
	require.NoError(t, tbl.AddTextColumn("Commodity", []string{"Wheat", "Rice"}))
	require.NoError(t, tbl.AddNumericColumn("Price_Today", []float64{2100, math.NaN()}))

	first := filepath.Join(dir, "first.csv")
	second := filepath.Join(dir, "second.csv")
	require.NoError(t, tbl.WriteCSV(first))
	require.NoError(t, tbl.WriteCSV(second))

	a, err := os.ReadFile(first)
	require.NoError(t, err)
	b, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, "Commodity,Price_Today\nWheat,2100\nRice,\n", string(a))
}
