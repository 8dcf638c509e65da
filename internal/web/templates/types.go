package templates

import "github.com/JonMunkholm/tabedit/internal/core"

// PageData is everything the editor page shows.
type PageData struct {
	FileName   string
	Grid       GridData
	Alert      *Alert
	Dialog     *DialogData
	UndoDepth  int
	Steps      int
	Operations []core.OperationInfo
	Charsets   []Charset
}

// Charset is a choice in the upload form.
type Charset struct {
	Value string
	Label string
}

// GridData is one page of the table.
type GridData struct {
	Columns    []string
	Rows       []core.Row
	FirstRow   int // 1-based number of Rows[0]
	Page       int
	PageSize   int
	PageSizes  []int
	TotalRows  int
	TotalPages int
	Sort       string
	Dir        string
}

// DialogData is the open edit dialog.
type DialogData struct {
	Column    string
	Draft     core.Operation
	DraftInfo core.OperationInfo
	Preview   *core.Preview
	Profile   *core.ColumnProfile
}

// Alert is a user-facing error.
type Alert struct {
	Message string
	Action  string
	Code    string
	Detail  string
}
