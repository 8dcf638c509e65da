package tabfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/JonMunkholm/tabedit/internal/core"
)

// DecodeCSV reads a comma-separated file whose first non-empty line is the
// header. Empty lines are skipped, rows of blank cells are kept and short
// rows are padded.
func DecodeCSV(r io.Reader, opts core.DecodeOptions) (*core.Table, error) {
	text, sanitizer, err := textReader(limitSize(r, opts.MaxSize), opts.Charset)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(text)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, core.ErrEmptyFile
	}
	if err != nil {
		return nil, csvError(err)
	}

	var records [][]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, csvError(err)
		}
		records = append(records, rec)
	}

	if sanitizer != nil && sanitizer.Replaced > 0 {
		slog.Warn("replaced invalid UTF-8 bytes", "count", sanitizer.Replaced)
	}
	return core.NewTable(cleanHeader(header), records), nil
}

// EncodeCSV writes the header and every row. A row made of one empty cell
// is written as "" so it is not read back as an empty line.
func EncodeCSV(w io.Writer, t *core.Table) error {
	header, records := t.Records()

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, rec := range records {
		if len(rec) == 1 && rec[0] == "" {
			cw.Flush()
			if err := cw.Error(); err != nil {
				return fmt.Errorf("write rows: %w", err)
			}
			if _, err := io.WriteString(w, "\"\"\n"); err != nil {
				return fmt.Errorf("write row %d: %w", i+1, err)
			}
			continue
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	return nil
}

func csvError(err error) error {
	if errors.Is(err, core.ErrFileTooLarge) {
		return err
	}
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return fmt.Errorf("%w: %w", core.ErrInvalidCSV, err)
	}
	return fmt.Errorf("read csv: %w", err)
}
