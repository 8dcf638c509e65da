package expr

import (
	"errors"
	"fmt"
)

var (
	// ErrSyntax is matched by every error produced while compiling a source.
	ErrSyntax = errors.New("syntax error")

	// ErrRuntime is matched by every error produced while evaluating a program.
	ErrRuntime = errors.New("runtime error")
)

// Error describes a compile or evaluation failure at a byte offset of the source.
type Error struct {
	Pos     int
	Msg     string
	Runtime bool
}

func (e *Error) Error() string {
	kind := "syntax error"
	if e.Runtime {
		kind = "runtime error"
	}
	return fmt.Sprintf("%s at %d: %s", kind, e.Pos, e.Msg)
}

// Is lets errors.Is match ErrSyntax or ErrRuntime.
func (e *Error) Is(target error) bool {
	if e.Runtime {
		return target == ErrRuntime
	}
	return target == ErrSyntax
}

func syntaxErrorf(pos int, format string, args ...any) *Error {
	return &Error{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

func runtimeErrorf(pos int, format string, args ...any) *Error {
	return &Error{Pos: pos, Msg: fmt.Sprintf(format, args...), Runtime: true}
}
