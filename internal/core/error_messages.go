package core

// error_messages.go maps technical errors to user-facing messages with a
// code users can quote to support.
//
// # Expression Errors (EXPR001-EXPR099)
//
//	EXPR001 - Invalid expression: The expression could not be run
//	          Action: Check the expression syntax; see Help for examples
//	          Patterns: "invalid expression"
//
//	EXPR002 - Invalid recipe: The recipe file could not be read
//	          Action: Check that every step names a column and a known operation
//	          Patterns: "invalid recipe"
//
// # Request Errors (REQ001)
//
//	REQ001 - Invalid request: A JSON or form body could not be parsed
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: File exceeds maximum size limit
//	FILE002 - Invalid CSV: File is not a valid CSV
//	FILE003 - Encoding error: File could not be decoded with the chosen charset
//	FILE004 - No file: No file was selected
//	FILE005 - Empty file: The uploaded file is empty
//	FILE006 - Unsupported type: Only .csv, .xlsx and .xls files can be loaded
//	FILE007 - Invalid spreadsheet: The workbook could not be read
//
// # Table Errors (TBL001-TBL099)
//
//	TBL003 - Empty table: There is no data to export
//	TBL004 - Column not found: The column does not exist in the table
//
// # Editor Errors (EDIT001-EDIT099)
//
//	EDIT001 - Invalid transition: That action is not available right now
//	EDIT002 - Nothing to undo: There are no applied operations to undo
//	EDIT003 - Unknown operation: The operation is not recognised
//	EDIT004 - No steps: No operations have been applied to save as a recipe
//
// # Session and Upload Errors (SES001, UPL001-UPL099)
//
//	SES001 - Session expired: Your editing session was not found
//	UPL002 - System busy: Too many uploads in progress
//	UPL004 - Request cancelled
//	UPL005 - Request timeout
//
// # Rate Limiting (RATE001)
//
// # Default Error (ERR000)
//
// Patterns are matched case-insensitively with strings.Contains and the
// first match wins. Expression errors come first because their messages can
// quote arbitrary user text.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// Expression and recipe errors
	{
		pattern: "invalid recipe",
		msg: UserMessage{
			Message: "The recipe file could not be read",
			Action:  "Check that every step names a column and a known operation",
			Code:    "EXPR002",
		},
	},
	{
		pattern: "invalid expression",
		msg: UserMessage{
			Message: "The expression could not be run",
			Action:  "Check the expression syntax; see Help for examples",
			Code:    "EXPR001",
		},
	},

	// Request errors
	{
		pattern: "invalid request",
		msg: UserMessage{
			Message: "The request could not be read",
			Action:  "Check the request body and try again",
			Code:    "REQ001",
		},
	},

	// File errors
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds maximum size limit",
			Action:  "Split the file into smaller chunks",
			Code:    "FILE001",
		},
	},
	{
		pattern: "invalid csv",
		msg: UserMessage{
			Message: "File is not a valid CSV",
			Action:  "Ensure the file is comma-separated with a header row",
			Code:    "FILE002",
		},
	},
	{
		pattern: "encoding error",
		msg: UserMessage{
			Message: "File could not be decoded with the chosen character set",
			Action:  "Pick a different character set or save the file as UTF-8",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a CSV or Excel file to load",
			Code:    "FILE004",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Please upload a file with a header row and data",
			Code:    "FILE005",
		},
	},
	{
		pattern: "unsupported file type",
		msg: UserMessage{
			Message: "Unsupported file type",
			Action:  "Load a .csv, .xlsx or .xls file",
			Code:    "FILE006",
		},
	},
	{
		pattern: "invalid spreadsheet",
		msg: UserMessage{
			Message: "The workbook could not be read",
			Action:  "Re-save the file from Excel and try again",
			Code:    "FILE007",
		},
	},

	// Table errors
	{
		pattern: "empty table",
		msg: UserMessage{
			Message: "There is no data to export",
			Action:  "Load a file with at least one data row",
			Code:    "TBL003",
		},
	},
	{
		pattern: "column not found",
		msg: UserMessage{
			Message: "The column does not exist in the table",
			Action:  "Pick one of the columns shown in the grid",
			Code:    "TBL004",
		},
	},

	// Editor errors
	{
		pattern: "invalid editor transition",
		msg: UserMessage{
			Message: "That action is not available right now",
			Action:  "Finish or cancel the open edit first",
			Code:    "EDIT001",
		},
	},
	{
		pattern: "nothing to undo",
		msg: UserMessage{
			Message: "There are no applied operations to undo",
			Action:  "Apply an operation first",
			Code:    "EDIT002",
		},
	},
	{
		pattern: "unknown operation",
		msg: UserMessage{
			Message: "The operation is not recognised",
			Action:  "Choose one of the listed operations",
			Code:    "EDIT003",
		},
	},
	{
		pattern: "no operations applied",
		msg: UserMessage{
			Message: "No operations have been applied yet",
			Action:  "Apply an operation before saving a recipe",
			Code:    "EDIT004",
		},
	},

	// Session and upload errors
	{
		pattern: "session not found",
		msg: UserMessage{
			Message: "Your editing session has expired",
			Action:  "Reload the page and load your file again",
			Code:    "SES001",
		},
	},
	{
		pattern: "too many uploads",
		msg: UserMessage{
			Message: "System is busy processing other uploads",
			Action:  "Please wait a moment and try again",
			Code:    "UPL002",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL004",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or check your connection",
			Code:    "UPL005",
		},
	},

	// Rate limiting
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches. Support staff should
// check the logs for the technical error when users report ERR000.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message. The
// first matching pattern wins; unknown errors map to ERR000.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates "Message (Code: XXX). Action" for display.
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}

// Detail returns the part of an expression error worth showing to users,
// such as "row 3: runtime error at 6: ...". Other errors yield "".
func Detail(err error) string {
	if err == nil {
		return ""
	}
	const marker = "invalid expression: "
	msg := err.Error()
	if i := strings.Index(msg, marker); i >= 0 {
		return msg[i+len(marker):]
	}
	return ""
}
