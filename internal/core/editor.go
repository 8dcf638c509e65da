package core

import "fmt"

// EditorState is the state of the column edit dialog.
type EditorState int

const (
	StateIdle EditorState = iota
	StateEditing
	StatePreviewing
)

func (s EditorState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateEditing:
		return "editing"
	case StatePreviewing:
		return "previewing"
	}
	return fmt.Sprintf("EditorState(%d)", int(s))
}

// Editor tracks the edit dialog: which column is open, the draft operation
// and the last preview. The zero value is Idle.
//
//	Idle --SelectColumn--> Editing --Preview--> Previewing
//	Editing/Previewing --ChangeOperation--> Editing
//	Editing/Previewing --Commit/Cancel--> Idle
//
// Reset returns to Idle from any state.
type Editor struct {
	state   EditorState
	column  string
	draft   Operation
	preview *Preview
}

func (e *Editor) State() EditorState { return e.state }
func (e *Editor) Column() string     { return e.column }
func (e *Editor) Draft() Operation   { return e.draft }

// Preview returns the current preview, or nil outside Previewing.
func (e *Editor) Preview() *Preview { return e.preview }

// Active reports whether the dialog is open.
func (e *Editor) Active() bool {
	return e.state == StateEditing || e.state == StatePreviewing
}

// Reset closes the dialog unconditionally.
func (e *Editor) Reset() {
	*e = Editor{}
}

// SelectColumn opens the dialog on column with the default operation.
func (e *Editor) SelectColumn(column string) error {
	if e.state != StateIdle {
		return e.transitionError("select a column")
	}
	e.state = StateEditing
	e.column = column
	e.draft = DefaultOperation()
	e.preview = nil
	return nil
}

// ChangeOperation replaces the draft and discards any preview.
func (e *Editor) ChangeOperation(op Operation) error {
	if !e.Active() {
		return e.transitionError("change the operation")
	}
	e.state = StateEditing
	e.draft = op
	e.preview = nil
	return nil
}

// ShowPreview records a computed preview for the current draft.
func (e *Editor) ShowPreview(p *Preview) error {
	if !e.Active() {
		return e.transitionError("preview")
	}
	e.state = StatePreviewing
	e.preview = p
	return nil
}

// Commit closes the dialog after a successful apply.
func (e *Editor) Commit() error {
	if !e.Active() {
		return e.transitionError("apply")
	}
	e.Reset()
	return nil
}

// Cancel closes the dialog without applying.
func (e *Editor) Cancel() error {
	if !e.Active() {
		return e.transitionError("cancel")
	}
	e.Reset()
	return nil
}

func (e *Editor) transitionError(action string) error {
	return fmt.Errorf("%w: cannot %s while %s", ErrInvalidTransition, action, e.state)
}
