package core

import (
	"fmt"
	"strings"
)

// Row maps column name to cell value.
type Row map[string]string

// Table is an ordered set of rows sharing one column list.
//
// Every row holds a value for every column. A Table is never mutated once
// built: operations return a new Table and leave the receiver untouched.
type Table struct {
	columns []string
	rows    []Row
}

// NewTable builds a table from a header row and data records.
//
// Header names are trimmed; blank names become column_N (1-based) and
// duplicates get a numeric suffix (name, name_2, ...). Records shorter than
// the header are padded with "" and cells beyond the header are dropped.
// Every record becomes a row, including ones whose cells are all empty.
func NewTable(header []string, records [][]string) *Table {
	columns := normalizeHeader(header)
	rows := make([]Row, 0, len(records))

	for _, rec := range records {
		row := make(Row, len(columns))
		for i, col := range columns {
			if i < len(rec) {
				row[col] = rec[i]
			} else {
				row[col] = ""
			}
		}
		rows = append(rows, row)
	}

	return &Table{columns: columns, rows: rows}
}

// FromRows builds a table from loosely shaped rows. The column list is the
// union of keys in first-seen order (keys within one row are taken in
// sorted order, since maps carry none) and each row is backfilled with "".
func FromRows(columns []string, rows []Row) *Table {
	seen := make(map[string]bool, len(columns))
	cols := make([]string, 0, len(columns))
	for _, c := range columns {
		if !seen[c] {
			seen[c] = true
			cols = append(cols, c)
		}
	}
	for _, r := range rows {
		for _, k := range sortedKeys(r) {
			if !seen[k] {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}

	out := make([]Row, len(rows))
	for i, r := range rows {
		row := make(Row, len(cols))
		for _, c := range cols {
			row[c] = r[c]
		}
		out[i] = row
	}
	return &Table{columns: cols, rows: out}
}

// EmptyTable returns a table with no columns and no rows.
func EmptyTable() *Table {
	return &Table{}
}

// Columns returns a copy of the column list.
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// IsEmpty reports whether the table has no rows.
func (t *Table) IsEmpty() bool {
	return len(t.rows) == 0
}

// HasColumn reports whether name is one of the table's columns.
func (t *Table) HasColumn(name string) bool {
	return t.columnIndex(name) >= 0
}

// Row returns a copy of row i.
func (t *Table) Row(i int) Row {
	return t.rows[i].clone()
}

// Value returns the cell at row i, column col ("" when absent).
func (t *Table) Value(i int, col string) string {
	return t.rows[i][col]
}

// Rows returns copies of rows [start, end), clamped to the table.
func (t *Table) Rows(start, end int) []Row {
	if start < 0 {
		start = 0
	}
	if end > len(t.rows) {
		end = len(t.rows)
	}
	if start >= end {
		return nil
	}
	out := make([]Row, 0, end-start)
	for _, r := range t.rows[start:end] {
		out = append(out, r.clone())
	}
	return out
}

// ColumnValues returns every value of col in row order.
func (t *Table) ColumnValues(col string) []string {
	out := make([]string, len(t.rows))
	for i, r := range t.rows {
		out[i] = r[col]
	}
	return out
}

// Records returns the table as a header plus string records, ready for a
// CSV or spreadsheet writer.
func (t *Table) Records() (header []string, records [][]string) {
	header = t.Columns()
	records = make([][]string, len(t.rows))
	for i, r := range t.rows {
		rec := make([]string, len(t.columns))
		for j, c := range t.columns {
			rec[j] = r[c]
		}
		records[i] = rec
	}
	return header, records
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	rows := make([]Row, len(t.rows))
	for i, r := range t.rows {
		rows[i] = r.clone()
	}
	return &Table{columns: t.Columns(), rows: rows}
}

// Equal reports whether both tables hold the same columns and rows.
func (t *Table) Equal(other *Table) bool {
	if len(t.columns) != len(other.columns) || len(t.rows) != len(other.rows) {
		return false
	}
	for i, c := range t.columns {
		if other.columns[i] != c {
			return false
		}
	}
	for i, r := range t.rows {
		o := other.rows[i]
		for _, c := range t.columns {
			if r[c] != o[c] {
				return false
			}
		}
	}
	return true
}

func (t *Table) columnIndex(name string) int {
	for i, c := range t.columns {
		if c == name {
			return i
		}
	}
	return -1
}

func (r Row) clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

func normalizeHeader(header []string) []string {
	columns := make([]string, len(header))
	used := make(map[string]bool, len(header))

	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		base := name
		for n := 2; used[name]; n++ {
			name = fmt.Sprintf("%s_%d", base, n)
		}
		used[name] = true
		columns[i] = name
	}
	return columns
}
