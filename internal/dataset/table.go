// Package dataset provides a small column-oriented table for the CSV artifacts
// the pipeline passes between steps. Numeric columns store float64 with NaN as
// the missing marker; text columns store raw strings.
package dataset

import (
	"math"
	"strconv"
	"strings"

	"mandi/pkg/errors"
)

// Column is a single named column of a Table
type Column struct {
	Name    string
	Text    []string  // raw values, always populated
	Nums    []float64 // parsed values when Numeric; NaN marks missing
	Numeric bool
}

// Table holds ordered named columns of equal length
type Table struct {
	cols []*Column
}

// New creates an empty table
func New() *Table {
	return &Table{}
}

// NumRows returns the number of rows
func (t *Table) NumRows() int {
	if len(t.cols) == 0 {
		return 0
	}
	return len(t.cols[0].Text)
}

// NumCols returns the number of columns
func (t *Table) NumCols() int {
	return len(t.cols)
}

// Columns returns the column names in order
func (t *Table) Columns() []string {
	names := make([]string, len(t.cols))
	for i, c := range t.cols {
		names[i] = c.Name
	}
	return names
}

// Col returns the named column, or nil if absent
func (t *Table) Col(name string) *Column {
	for _, c := range t.cols {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// HasColumn reports whether the named column exists
func (t *Table) HasColumn(name string) bool {
	return t.Col(name) != nil
}

// AddTextColumn appends a text column. Length must match existing rows.
func (t *Table) AddTextColumn(name string, values []string) error {
	if len(t.cols) > 0 && len(values) != t.NumRows() {
		return errors.Wrapf(errors.ErrInvalidInput, "column %s has %d values, table has %d rows", name, len(values), t.NumRows())
	}
	t.cols = append(t.cols, &Column{Name: name, Text: values})
	return nil
}

// AddNumericColumn appends a numeric column. Length must match existing rows.
func (t *Table) AddNumericColumn(name string, values []float64) error {
	if len(t.cols) > 0 && len(values) != t.NumRows() {
		return errors.Wrapf(errors.ErrInvalidInput, "column %s has %d values, table has %d rows", name, len(values), t.NumRows())
	}
	text := make([]string, len(values))
	for i, v := range values {
		text[i] = FormatFloat(v)
	}
	t.cols = append(t.cols, &Column{Name: name, Text: text, Nums: values, Numeric: true})
	return nil
}

// KeepFirstColumns truncates the table to its first n columns
func (t *Table) KeepFirstColumns(n int) {
	if n < len(t.cols) {
		t.cols = t.cols[:n]
	}
}

// RenameOutcome reports how a canonical rename was applied
type RenameOutcome string

const (
	// RenameExact means the column count matched the canonical schema exactly
	RenameExact RenameOutcome = "exact-match"

	// RenameDegraded means canonical names were assigned only up to the
	// shorter of the two lists. Known fragility of the upstream export.
	RenameDegraded RenameOutcome = "degraded-rename"
)

// Rename assigns the given names positionally. When the counts differ, names
// are assigned up to the shorter list and the outcome is tagged degraded.
func (t *Table) Rename(names []string) RenameOutcome {
	n := len(names)
	if len(t.cols) < n {
		n = len(t.cols)
	}
	for i := 0; i < n; i++ {
		t.cols[i].Name = names[i]
	}
	if len(names) == len(t.cols) {
		return RenameExact
	}
	return RenameDegraded
}

// CoerceNumeric converts the named column to numeric in place. A literal "-"
// or empty value becomes missing, thousands-separator commas are stripped,
// and anything unparseable becomes missing rather than an error.
func (t *Table) CoerceNumeric(name string) {
	c := t.Col(name)
	if c == nil {
		return
	}
	c.Nums = make([]float64, len(c.Text))
	for i, raw := range c.Text {
		c.Nums[i] = parseValue(raw)
	}
	c.Numeric = true
}

func parseValue(raw string) float64 {
	s := strings.TrimSpace(raw)
	if s == "" || s == "-" {
		return math.NaN()
	}
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// InferNumericColumns coerces every column whose non-empty values all parse
// as numbers. Mirrors dtype inference on a freshly loaded CSV.
func (t *Table) InferNumericColumns() {
	for _, c := range t.cols {
		if c.Numeric {
			continue
		}
		ok := true
		for _, raw := range c.Text {
			s := strings.TrimSpace(raw)
			if s == "" {
				continue
			}
			if _, err := strconv.ParseFloat(s, 64); err != nil {
				ok = false
				break
			}
		}
		if ok {
			t.CoerceNumeric(c.Name)
		}
	}
}

// NumericColumnNames returns the names of numeric columns in order
func (t *Table) NumericColumnNames() []string {
	var names []string
	for _, c := range t.cols {
		if c.Numeric {
			names = append(names, c.Name)
		}
	}
	return names
}

// FilterRows keeps only rows for which keep returns true
func (t *Table) FilterRows(keep func(row int) bool) {
	n := t.NumRows()
	idx := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if keep(i) {
			idx = append(idx, i)
		}
	}
	for _, c := range t.cols {
		text := make([]string, len(idx))
		for j, i := range idx {
			text[j] = c.Text[i]
		}
		c.Text = text
		if c.Numeric {
			nums := make([]float64, len(idx))
			for j, i := range idx {
				nums[j] = c.Nums[i]
			}
			c.Nums = nums
		}
	}
}

// DropRowsMissing removes rows where the named numeric column is missing
func (t *Table) DropRowsMissing(name string) {
	c := t.Col(name)
	if c == nil || !c.Numeric {
		return
	}
	t.FilterRows(func(row int) bool {
		return !math.IsNaN(c.Nums[row])
	})
}

// DropRowsWithMissing removes rows with a missing value in any numeric column
func (t *Table) DropRowsWithMissing() {
	numeric := make([]*Column, 0, len(t.cols))
	for _, c := range t.cols {
		if c.Numeric {
			numeric = append(numeric, c)
		}
	}
	t.FilterRows(func(row int) bool {
		for _, c := range numeric {
			if math.IsNaN(c.Nums[row]) {
				return false
			}
		}
		return true
	})
}

// FormatFloat renders a value the way table CSVs are written: shortest
// round-trip representation, missing as the empty string.
func FormatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
