package core

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/JonMunkholm/tabedit/internal/expr"
)

// Apply runs op over column and returns the resulting table. The input is
// never modified; on error the caller keeps its table unchanged.
//
// An empty table, an empty split delimiter and an empty expression are
// no-ops that return t itself.
func Apply(t *Table, column string, op Operation) (*Table, error) {
	if err := op.Validate(); err != nil {
		return nil, err
	}
	if t.IsEmpty() {
		return t, nil
	}
	if !t.HasColumn(column) {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, column)
	}

	switch op.Kind {
	case OpRemoveSpaces:
		return mapColumn(t, column, RemoveSpaces), nil

	case OpRemoveSpecial:
		return mapColumn(t, column, RemoveSpecial), nil

	case OpSplitByChar:
		if op.Delimiter == "" {
			return t, nil
		}
		return splitColumn(t, column, op.Delimiter), nil

	case OpCustomExpression:
		if strings.TrimSpace(op.Expression) == "" {
			return t, nil
		}
		return evalColumn(t, column, op.Expression)
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownOperation, op.Kind)
}

// RemoveSpaces deletes every whitespace character from s.
func RemoveSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '\uFEFF' {
			return -1
		}
		return r
	}, s)
}

// RemoveSpecial keeps ASCII letters, digits and the space character.
func RemoveSpecial(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == ' ':
			return r
		}
		return -1
	}, s)
}

// SplitValue splits s on the first occurrence of delim. The head stays in
// the original column; every following segment, rejoined with delim, goes
// to the split column.
func SplitValue(s, delim string) (head, rest string) {
	head, rest, _ = strings.Cut(s, delim)
	return head, rest
}

func mapColumn(t *Table, column string, fn func(string) string) *Table {
	out := t.Clone()
	for _, row := range out.rows {
		row[column] = fn(row[column])
	}
	return out
}

func splitColumn(t *Table, column, delim string) *Table {
	out := t.Clone()
	target := SplitColumnName(column)
	if !out.HasColumn(target) {
		out.columns = append(out.columns, target)
	}
	for _, row := range out.rows {
		row[column], row[target] = SplitValue(row[column], delim)
	}
	return out
}

func evalColumn(t *Table, column, source string) (*Table, error) {
	prog, err := expr.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidExpression, err)
	}

	out := t.Clone()
	for i, row := range out.rows {
		v, err := prog.EvalString(row[column])
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %w", ErrInvalidExpression, i+1, err)
		}
		row[column] = v
	}
	return out, nil
}
