package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/JonMunkholm/tabedit/internal/expr"
)

func TestMapError(t *testing.T) {
	_, exprErr := expr.Compile("value.(")

	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"nil error returns empty", nil, ""},
		{"invalid expression", fmt.Errorf("%w: %w", ErrInvalidExpression, exprErr), "EXPR001"},
		{"expression quoting file text", fmt.Errorf("%w: unexpected string \"file too large\"", ErrInvalidExpression), "EXPR001"},
		{"invalid recipe", fmt.Errorf("%w: no steps", ErrInvalidRecipe), "EXPR002"},
		{"file too large", fmt.Errorf("load a.csv: %w", ErrFileTooLarge), "FILE001"},
		{"invalid csv", fmt.Errorf("%w: line 3", ErrInvalidCSV), "FILE002"},
		{"empty file", ErrEmptyFile, "FILE005"},
		{"unsupported file type", fmt.Errorf("%w: .pdf", ErrUnsupportedFileType), "FILE006"},
		{"empty table", ErrEmptyTable, "TBL003"},
		{"column not found", fmt.Errorf("%w: %q", ErrColumnNotFound, "x"), "TBL004"},
		{"invalid transition", fmt.Errorf("%w: cannot select a column while editing", ErrInvalidTransition), "EDIT001"},
		{"nothing to undo", ErrNothingToUndo, "EDIT002"},
		{"unknown operation", fmt.Errorf("%w: %q", ErrUnknownOperation, "bogus"), "EDIT003"},
		{"no recipe steps", ErrNoSteps, "EDIT004"},
		{"session not found", fmt.Errorf("%w: abc", ErrSessionNotFound), "SES001"},
		{"too many uploads", ErrTooManyUploads, "UPL002"},
		{"context canceled", errors.New("context canceled"), "UPL004"},
		{"rate limit", errors.New("rate limit exceeded"), "RATE001"},
		{"unknown error", errors.New("something odd"), "ERR000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError(%v).Code = %q, want %q", tt.err, got.Code, tt.wantCode)
			}
			if tt.err != nil && got.Message == "" {
				t.Error("expected a message")
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
	}

	got := FormatUserError(ErrNothingToUndo)
	want := "There are no applied operations to undo (Code: EDIT002). Apply an operation first"
	if got != want {
		t.Errorf("FormatUserError = %q, want %q", got, want)
	}
}

func TestIsUserFacing(t *testing.T) {
	if IsUserFacing(nil) {
		t.Error("nil should not be user facing")
	}
	if !IsUserFacing(ErrEmptyTable) {
		t.Error("ErrEmptyTable should be user facing")
	}
	if IsUserFacing(errors.New("boom")) {
		t.Error("unmatched error should not be user facing")
	}
}

func TestNewUserError(t *testing.T) {
	if NewUserError(nil) != nil {
		t.Error("NewUserError(nil) should be nil")
	}

	ue := NewUserError(ErrSessionNotFound)
	if !errors.Is(ue, ErrSessionNotFound) {
		t.Error("UserError should unwrap to the technical error")
	}
	if ue.User.Code != "SES001" {
		t.Errorf("Code = %q, want SES001", ue.User.Code)
	}
	if ue.Error() != ue.User.Message {
		t.Errorf("Error() = %q, want user message", ue.Error())
	}
}

func TestDetail(t *testing.T) {
	_, exprErr := expr.Compile("value.(")
	err := fmt.Errorf("%w: %w", ErrInvalidExpression, exprErr)

	got := Detail(err)
	want := "syntax error at 6: expected identifier after '.', found \"(\""
	if got != want {
		t.Errorf("Detail = %q, want %q", got, want)
	}
	if Detail(ErrEmptyTable) != "" {
		t.Error("non-expression errors have no detail")
	}
}
