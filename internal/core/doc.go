// Package core provides the editing logic of tabedit: tables, column
// operations, the edit dialog state machine and editor sessions.
//
// The package has no UI or file-format dependencies. Web handlers, the CLI
// and tests drive it through the same API.
//
// # Tables
//
// A [Table] is an ordered list of rows over a fixed column list. Tables are
// immutable: [Apply] returns a new table and leaves its input untouched, so
// previews never disturb the current data and undo is a pointer swap.
//
// # Operations
//
// Four operations exist, described by an [Operation]:
//
//   - removeSpaces: delete every whitespace character
//   - removeSpecial: keep only ASCII letters, digits and spaces
//   - splitByChar: move everything after the first delimiter to <column>_split
//   - customExpression: evaluate an expression over each cell (see package expr)
//
// # Sessions
//
// A [Session] holds one [Store] (the current table plus undo history) and
// one [Editor] (Idle, Editing or Previewing). The [Service] maps session IDs
// to sessions, bounds concurrent file decodes with an [UploadLimiter] and
// expires idle sessions with [Service.StartSessionSweeper].
//
// # Error Handling
//
// Sentinel errors such as [ErrColumnNotFound] and [ErrInvalidExpression]
// are wrapped with %w. [MapError] turns any of them into a [UserMessage]
// with a support code:
//
//   - EXPR001-EXPR002: expression and recipe errors
//   - FILE001-FILE007: file errors (size, encoding, format)
//   - TBL003-TBL004: table errors
//   - EDIT001-EDIT004: editor errors
//   - SES001, UPL002-UPL005: session and upload errors
//
// # Audit
//
// Loads, applies, undos, recipes and exports are reported to an
// [AuditRecorder]. Only the operation is recorded, never cell contents.
package core
