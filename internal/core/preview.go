package core

import (
	"fmt"
	"slices"

	"github.com/wI2L/jsondiff"
)

// DefaultPreviewLimit is the number of sample rows a preview returns.
const DefaultPreviewLimit = 10

// RowPatch is the RFC 6902 patch turning an original row into its
// transformed form.
type RowPatch struct {
	Row   int            `json:"row"`
	Patch jsondiff.Patch `json:"patch"`
}

// Preview is the outcome of running an operation without committing it.
// Rows holds at most the preview limit; ChangedRows and TotalRows cover the
// whole table.
type Preview struct {
	Column      string     `json:"column"`
	Operation   Operation  `json:"operation"`
	Columns     []string   `json:"columns"`
	Original    []Row      `json:"original"`
	Rows        []Row      `json:"rows"`
	Patches     []RowPatch `json:"patches,omitempty"`
	ChangedRows int        `json:"changedRows"`
	TotalRows   int        `json:"totalRows"`
	NewColumn   string     `json:"newColumn,omitempty"`
}

// BuildPreview transforms the full table and samples the first limit rows.
// t is not modified. A non-positive limit means DefaultPreviewLimit.
func BuildPreview(t *Table, column string, op Operation, limit int) (*Preview, error) {
	if limit <= 0 {
		limit = DefaultPreviewLimit
	}

	result, err := Apply(t, column, op)
	if err != nil {
		return nil, err
	}

	p := &Preview{
		Column:      column,
		Operation:   op,
		Columns:     result.Columns(),
		Original:    t.Rows(0, limit),
		Rows:        result.Rows(0, limit),
		TotalRows:   result.Len(),
		NewColumn:   newColumn(t, result),
		ChangedRows: ChangedRows(t, result),
	}

	for i := range p.Rows {
		patch, err := jsondiff.Compare(p.Original[i], p.Rows[i])
		if err != nil {
			return nil, fmt.Errorf("diff row %d: %w", i+1, err)
		}
		if len(patch) > 0 {
			p.Patches = append(p.Patches, RowPatch{Row: i, Patch: patch})
		}
	}

	return p, nil
}

// ChangedColumns returns the columns whose values differ in sample row i.
func (p *Preview) ChangedColumns(i int) []string {
	var cols []string
	for _, c := range p.Columns {
		if p.Original[i][c] != p.Rows[i][c] {
			cols = append(cols, c)
		}
	}
	return cols
}

func rowChanged(before, after *Table, i int) bool {
	b, a := before.rows[i], after.rows[i]
	for _, c := range after.columns {
		if b[c] != a[c] {
			return true
		}
	}
	return false
}

// sameContent reports whether after has the columns of before in the same
// order and no changed row.
func sameContent(before, after *Table) bool {
	if before == after {
		return true
	}
	if !slices.Equal(before.columns, after.columns) {
		return false
	}
	return ChangedRows(before, after) == 0
}

// newColumn returns the column present in after but not in before, if any.
func newColumn(before, after *Table) string {
	for _, c := range after.columns {
		if !before.HasColumn(c) {
			return c
		}
	}
	return ""
}
