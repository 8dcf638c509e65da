package core

import "errors"

// Sentinel errors returned by the editor. Callers wrap them with %w so the
// message table in error_messages.go can map them to user-facing text.
var (
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrInvalidExpression   = errors.New("invalid expression")
	ErrEmptyTable          = errors.New("empty table")
	ErrColumnNotFound      = errors.New("column not found in table")
	ErrInvalidTransition   = errors.New("invalid editor transition")
	ErrNothingToUndo       = errors.New("nothing to undo")
	ErrNoSteps             = errors.New("no operations applied")
	ErrSessionNotFound     = errors.New("session not found")
	ErrUnknownOperation    = errors.New("unknown operation")
	ErrFileTooLarge        = errors.New("file too large")
	ErrInvalidCSV          = errors.New("invalid csv")
	ErrEmptyFile           = errors.New("empty file")
	ErrInvalidRecipe       = errors.New("invalid recipe")
	ErrInvalidSpreadsheet  = errors.New("invalid spreadsheet")
	ErrEncoding            = errors.New("encoding error")
)
