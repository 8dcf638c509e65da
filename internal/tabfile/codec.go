// Package tabfile converts between uploaded files and core tables.
//
// Decoding supports .csv (with optional charset), .xlsx and legacy .xls;
// encoding supports .xlsx and .csv. The format is picked from the file name
// extension, case-insensitively.
package tabfile

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/tabedit/internal/core"
)

// Format is a supported file format, named by its extension.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatXLS  Format = "xls"
)

// ExportBaseName is the download file name without extension.
const ExportBaseName = "edited_data"

// FormatFromName picks the format from name's extension.
func FormatFromName(name string) (Format, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	switch Format(ext) {
	case FormatCSV, FormatXLSX, FormatXLS:
		return Format(ext), nil
	}
	return "", fmt.Errorf("%w: %q", core.ErrUnsupportedFileType, filepath.Ext(name))
}

// ContentType returns the MIME type used when serving f.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatXLS:
		return "application/vnd.ms-excel"
	}
	return "application/octet-stream"
}

// ExportName is the download name for an export in f.
func (f Format) ExportName() string {
	return ExportBaseName + "." + string(f)
}

// Codec decodes uploads by file name. It implements core.Decoder.
type Codec struct{}

var _ core.Decoder = Codec{}

// Decode reads r according to name's extension.
func (Codec) Decode(name string, r io.Reader, opts core.DecodeOptions) (*core.Table, error) {
	format, err := FormatFromName(name)
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatCSV:
		return DecodeCSV(r, opts)
	case FormatXLSX:
		return DecodeXLSX(r, opts)
	default:
		return DecodeXLS(r, opts)
	}
}

// Encode writes t in format f. Only csv and xlsx can be written.
func Encode(w io.Writer, f Format, t *core.Table) error {
	switch f {
	case FormatCSV:
		return EncodeCSV(w, t)
	case FormatXLSX:
		return EncodeXLSX(w, t)
	}
	return fmt.Errorf("%w: cannot write %s", core.ErrUnsupportedFileType, f)
}

// ReadFile decodes the file at path.
func ReadFile(path string, opts core.DecodeOptions) (*core.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Codec{}.Decode(filepath.Base(path), f, opts)
}

// WriteFile encodes t to path, choosing the format from its extension. An
// empty table is rejected with core.ErrEmptyTable.
func WriteFile(path string, t *core.Table) (err error) {
	if t.IsEmpty() {
		return core.ErrEmptyTable
	}
	format, err := FormatFromName(path)
	if err != nil {
		return err
	}
	if format == FormatXLS {
		return fmt.Errorf("%w: cannot write %s", core.ErrUnsupportedFileType, format)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return Encode(f, format, t)
}

// cleanHeader unwraps header cells Excel exported as text formulas
// (="name"). Other names are kept as written.
func cleanHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		t := strings.TrimSpace(h)
		if len(t) >= 3 && strings.HasPrefix(t, `="`) && strings.HasSuffix(t, `"`) {
			h = t[2 : len(t)-1]
		}
		out[i] = h
	}
	return out
}
