package core

import (
	"fmt"
	"strings"
)

// OpKind identifies a column operation.
type OpKind string

const (
	OpRemoveSpaces     OpKind = "removeSpaces"
	OpRemoveSpecial    OpKind = "removeSpecial"
	OpSplitByChar      OpKind = "splitByChar"
	OpCustomExpression OpKind = "customExpression"
)

// Operation describes one transformation of a column. Delimiter is used by
// splitByChar and Expression by customExpression; other kinds ignore both.
type Operation struct {
	Kind       OpKind `json:"op" yaml:"op"`
	Delimiter  string `json:"delimiter,omitempty" yaml:"delimiter,omitempty"`
	Expression string `json:"expression,omitempty" yaml:"expression,omitempty"`
}

// OperationInfo is the display information for an operation kind.
type OperationInfo struct {
	Kind    OpKind
	Label   string
	Example string
}

var operationCatalog = []OperationInfo{
	{
		Kind:    OpRemoveSpaces,
		Label:   "Remove Spaces",
		Example: `"A B C" → "ABC"`,
	},
	{
		Kind:    OpRemoveSpecial,
		Label:   "Remove Special Characters",
		Example: `"A!B@C# 123$%^" → "ABC 123" (keeps letters, numbers, spaces)`,
	},
	{
		Kind:    OpSplitByChar,
		Label:   "Split by Character",
		Example: `Split by "@": "user@example.com" → "user" (original), "example.com" (new col)`,
	},
	{
		Kind:    OpCustomExpression,
		Label:   "Custom Expression",
		Example: `e.g. value.toUpperCase() or value.replace(/\d/g, "")`,
	},
}

// Operations returns the operation catalog in display order.
func Operations() []OperationInfo {
	out := make([]OperationInfo, len(operationCatalog))
	copy(out, operationCatalog)
	return out
}

// Info returns the catalog entry for k.
func (k OpKind) Info() (OperationInfo, bool) {
	for _, info := range operationCatalog {
		if info.Kind == k {
			return info, true
		}
	}
	return OperationInfo{}, false
}

// Label returns the display label of k, or k itself when unknown.
func (k OpKind) Label() string {
	if info, ok := k.Info(); ok {
		return info.Label
	}
	return string(k)
}

// opAliases accepts short and legacy names alongside the canonical ones.
var opAliases = map[string]OpKind{
	"removespaces":     OpRemoveSpaces,
	"spaces":           OpRemoveSpaces,
	"removespecial":    OpRemoveSpecial,
	"special":          OpRemoveSpecial,
	"splitbychar":      OpSplitByChar,
	"splitby":          OpSplitByChar,
	"split":            OpSplitByChar,
	"customexpression": OpCustomExpression,
	"custom":           OpCustomExpression,
	"expr":             OpCustomExpression,
}

// ParseOpKind resolves an operation name. Matching ignores case, spaces,
// dashes and underscores.
func ParseOpKind(s string) (OpKind, error) {
	if k, ok := opAliases[normalizeKey(s)]; ok {
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownOperation, s)
}

// DefaultOperation is the draft a freshly opened edit dialog starts with.
func DefaultOperation() Operation {
	return Operation{Kind: OpRemoveSpaces}
}

// Validate checks that the kind is known. Parameters are not checked here:
// an empty delimiter or expression makes the operation a no-op.
func (op Operation) Validate() error {
	if _, ok := op.Kind.Info(); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownOperation, op.Kind)
	}
	return nil
}

// String renders the operation for logs.
func (op Operation) String() string {
	switch op.Kind {
	case OpSplitByChar:
		return fmt.Sprintf("%s(%q)", op.Kind, op.Delimiter)
	case OpCustomExpression:
		return fmt.Sprintf("%s(%s)", op.Kind, truncate(strings.TrimSpace(op.Expression), 60))
	}
	return string(op.Kind)
}
