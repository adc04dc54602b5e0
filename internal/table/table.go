// Package table holds the in-memory source table and the loaders that
// build one from uploaded CSV and spreadsheet files.
package table

import (
	"fmt"
	"strings"

	"gitlab.com/tozd/go/errors"
)

var ErrRaggedRow = errors.Base("row has more fields than the header")

// Table is a rectangular table of text cells with named columns.
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]string
}

// New builds a table from a header and data rows. Blank header names become
// "Unnamed: <i>", repeated names get ".1", ".2" suffixes, and short rows are
// padded with empty cells.
func New(header []string, rows [][]string) (*Table, error) {
	columns := normalizeHeader(header)
	t := &Table{
		columns: columns,
		index:   make(map[string]int, len(columns)),
		rows:    make([][]string, 0, len(rows)),
	}
	for i, c := range columns {
		t.index[c] = i
	}

	for i, row := range rows {
		if len(row) > len(columns) {
			return nil, errors.Errorf("%w: data row %d has %d fields, header has %d", ErrRaggedRow, i+1, len(row), len(columns))
		}
		r := make([]string, len(columns))
		copy(r, row)
		t.rows = append(t.rows, r)
	}
	return t, nil
}

func normalizeHeader(header []string) []string {
	columns := make([]string, len(header))
	taken := make(map[string]bool, len(header))
	for i, h := range header {
		name := h
		if strings.TrimSpace(name) == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		if taken[name] {
			base := name
			for n := 1; taken[name]; n++ {
				name = fmt.Sprintf("%s.%d", base, n)
			}
		}
		taken[name] = true
		columns[i] = name
	}
	return columns
}

// Columns returns the column names in order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Width returns the number of columns.
func (t *Table) Width() int {
	return len(t.columns)
}

// Has reports whether name is a column.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column returns a copy of the named column's cells.
func (t *Table) Column(name string) ([]string, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	out := make([]string, len(t.rows))
	for r, row := range t.rows {
		out[r] = row[i]
	}
	return out, true
}

// Row returns a copy of data row r.
func (t *Table) Row(r int) []string {
	out := make([]string, len(t.columns))
	copy(out, t.rows[r])
	return out
}
