package dataset

import (
	"encoding/csv"
	"os"
	"path/filepath"

	"mandi/pkg/errors"
)

// ReadCSV loads a table from a CSV file, skipping the given number of leading
// rows before the header. Ragged rows are tolerated: short rows are padded
// with empty values, long rows truncated to the header width.
func ReadCSV(path string, skipRows int) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	if len(records) <= skipRows {
		return nil, errors.Wrapf(errors.ErrEmptyDataset, "%s has no rows after skipping %d", path, skipRows)
	}

	header := records[skipRows]
	rows := records[skipRows+1:]

	t := New()
	for j, name := range header {
		values := make([]string, len(rows))
		for i, row := range rows {
			if j < len(row) {
				values[i] = row[j]
			}
		}
		t.cols = append(t.cols, &Column{Name: name, Text: values})
	}
	return t, nil
}

// WriteCSV persists the table, overwriting any existing file. Numeric columns
// are rendered with FormatFloat so repeated runs produce identical bytes.
func (t *Table) WriteCSV(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "create %s", dir)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	if err := w.Write(t.Columns()); err != nil {
		return errors.Wrap(err, "write header")
	}

	n := t.NumRows()
	record := make([]string, len(t.cols))
	for i := 0; i < n; i++ {
		for j, c := range t.cols {
			if c.Numeric {
				record[j] = FormatFloat(c.Nums[i])
			} else {
				record[j] = c.Text[i]
			}
		}
		if err := w.Write(record); err != nil {
			return errors.Wrap(err, "write row")
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return errors.Wrap(err, "flush csv")
	}
	return nil
}
