package tabfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/tabedit/internal/core"
)

// SheetName is the sheet written by EncodeXLSX.
const SheetName = "Sheet1"

var zipMagic = []byte("PK\x03\x04")

// DecodeXLSX reads the first sheet of an Office Open XML workbook.
func DecodeXLSX(r io.Reader, opts core.DecodeOptions) (*core.Table, error) {
	f, err := excelize.OpenReader(limitSize(r, opts.MaxSize))
	if err != nil {
		return nil, spreadsheetError(err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, core.ErrEmptyFile
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, spreadsheetError(err)
	}
	return tableFromGrid(rows)
}

// DecodeXLS reads the first sheet of a legacy BIFF workbook. Files named
// .xls that are really zip-based workbooks are handed to DecodeXLSX.
func DecodeXLS(r io.Reader, opts core.DecodeOptions) (t *core.Table, err error) {
	data, err := io.ReadAll(limitSize(r, opts.MaxSize))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, core.ErrEmptyFile
	}
	if bytes.HasPrefix(data, zipMagic) {
		return DecodeXLSX(bytes.NewReader(data), core.DecodeOptions{})
	}

	// the BIFF parser panics on some truncated files
	defer func() {
		if p := recover(); p != nil {
			t, err = nil, fmt.Errorf("%w: %v", core.ErrInvalidSpreadsheet, p)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, spreadsheetError(err)
	}
	if wb.NumSheets() == 0 {
		return nil, core.ErrEmptyFile
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, core.ErrEmptyFile
	}

	grid := make([][]string, 0, int(sheet.MaxRow)+1)
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			grid = append(grid, nil)
			continue
		}
		cells := make([]string, row.LastCol())
		for j := row.FirstCol(); j < row.LastCol(); j++ {
			cells[j] = row.Col(j)
		}
		grid = append(grid, cells)
	}
	return tableFromGrid(grid)
}

// EncodeXLSX writes t as a single-sheet workbook with every cell stored as
// text.
func EncodeXLSX(w io.Writer, t *core.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("open sheet: %w", err)
	}

	header, records := t.Records()
	if err := sw.SetRow("A1", toCells(header)); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, rec := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, toCells(rec)); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func toCells(values []string) []any {
	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}

// tableFromGrid treats the first non-blank row as the header. Rows after
// the last one holding any cell are dropped; blank rows in between are
// kept so row counts survive a round trip.
func tableFromGrid(grid [][]string) (*core.Table, error) {
	end := len(grid)
	for end > 0 && len(grid[end-1]) == 0 {
		end--
	}
	for i, row := range grid[:end] {
		if isBlank(row) {
			continue
		}
		return core.NewTable(cleanHeader(row), grid[i+1:end]), nil
	}
	return nil, core.ErrEmptyFile
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func spreadsheetError(err error) error {
	if errors.Is(err, core.ErrFileTooLarge) {
		return err
	}
	return fmt.Errorf("%w: %w", core.ErrInvalidSpreadsheet, err)
}
