package core

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Session is one user's editing context: a table store, the edit dialog
// state and the steps applied since the file was loaded. All methods are
// safe for concurrent use.
type Session struct {
	ID string

	mu           sync.Mutex
	store        *Store
	editor       Editor
	steps        []RecipeStep
	stepCounts   []int // steps added by each commit, for undo
	fileName     string
	previewLimit int
	audit        AuditRecorder
	createdAt    time.Time
	lastSeen     time.Time
}

// SessionSnapshot is a consistent read-only view of a session.
type SessionSnapshot struct {
	ID        string
	FileName  string
	Table     *Table
	State     EditorState
	Column    string
	Draft     Operation
	Preview   *Preview
	UndoDepth int
	Steps     int
	CreatedAt time.Time
}

func newSession(id string, undoDepth, previewLimit int, audit AuditRecorder, now time.Time) *Session {
	if audit == nil {
		audit = NopAuditRecorder{}
	}
	return &Session{
		ID:           id,
		store:        NewStore(undoDepth),
		previewLimit: previewLimit,
		audit:        audit,
		createdAt:    now,
		lastSeen:     now,
	}
}

// Snapshot returns the current state. Tables are immutable so the snapshot
// stays valid after later commits.
func (s *Session) Snapshot() SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return SessionSnapshot{
		ID:        s.ID,
		FileName:  s.fileName,
		Table:     s.store.Table(),
		State:     s.editor.State(),
		Column:    s.editor.Column(),
		Draft:     s.editor.Draft(),
		Preview:   s.editor.Preview(),
		UndoDepth: s.store.UndoDepth(),
		Steps:     len(s.steps),
		CreatedAt: s.createdAt,
	}
}

// Table returns the current table.
func (s *Session) Table() *Table {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Table()
}

// Load replaces the table, clears history and closes any open dialog.
func (s *Session) Load(ctx context.Context, fileName string, t *Table) {
	s.mu.Lock()
	s.store.Load(t)
	s.editor.Reset()
	s.steps = nil
	s.stepCounts = nil
	s.fileName = fileName
	s.mu.Unlock()

	slog.InfoContext(ctx, "table loaded",
		"session_id", s.ID,
		"file", fileName,
		"rows", t.Len(),
		"columns", len(t.columns),
	)
	recordAudit(ctx, s.audit, AuditEvent{
		SessionID:    s.ID,
		Action:       ActionLoad,
		FileName:     fileName,
		RowsAffected: t.Len(),
	})
}

// SelectColumn opens the edit dialog on column.
func (s *Session) SelectColumn(column string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.store.Table().HasColumn(column) {
		return fmt.Errorf("%w: %q", ErrColumnNotFound, column)
	}
	return s.editor.SelectColumn(column)
}

// ChangeOperation replaces the dialog's draft operation.
func (s *Session) ChangeOperation(op Operation) error {
	if err := op.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editor.ChangeOperation(op)
}

// Preview runs the draft against the whole table and keeps the sample. On
// error the dialog state is left as it was.
func (s *Session) Preview() (*Preview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.editor.Active() {
		return nil, s.editor.transitionError("preview")
	}
	p, err := BuildPreview(s.store.Table(), s.editor.Column(), s.editor.Draft(), s.previewLimit)
	if err != nil {
		return nil, err
	}
	if err := s.editor.ShowPreview(p); err != nil {
		return nil, err
	}
	return p, nil
}

// ApplyResult describes a committed operation.
type ApplyResult struct {
	Column       string    `json:"column"`
	Operation    Operation `json:"operation"`
	RowsAffected int       `json:"rowsAffected"`
	NewColumn    string    `json:"newColumn,omitempty"`
}

// Apply commits the draft and closes the dialog. A draft that changes no
// cell and adds no column is not committed. On error the table and the
// dialog are unchanged.
func (s *Session) Apply(ctx context.Context) (*ApplyResult, error) {
	s.mu.Lock()
	if !s.editor.Active() {
		err := s.editor.transitionError("apply")
		s.mu.Unlock()
		return nil, err
	}
	res, err := s.commitLocked(s.editor.Column(), s.editor.Draft())
	if err == nil {
		err = s.editor.Commit()
	}
	s.mu.Unlock()

	if err != nil {
		return nil, err
	}
	s.logApply(ctx, res)
	return res, nil
}

// Cancel closes the dialog without applying.
func (s *Session) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editor.Cancel()
}

// PreviewOperation previews op on column without touching the dialog.
// It is only allowed while no dialog is open.
func (s *Session) PreviewOperation(column string, op Operation) (*Preview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.editor.Active() {
		return nil, s.editor.transitionError("preview")
	}
	return BuildPreview(s.store.Table(), column, op, s.previewLimit)
}

// ApplyOperation commits op on column in one step. It is only allowed while
// no dialog is open.
func (s *Session) ApplyOperation(ctx context.Context, column string, op Operation) (*ApplyResult, error) {
	s.mu.Lock()
	if s.editor.Active() {
		err := s.editor.transitionError("apply")
		s.mu.Unlock()
		return nil, err
	}
	res, err := s.commitLocked(column, op)
	s.mu.Unlock()

	if err != nil {
		return nil, err
	}
	s.logApply(ctx, res)
	return res, nil
}

// ApplyRecipe runs every step of r and commits the result as a single undo
// step. If any step fails, or the steps change nothing, nothing is
// committed.
func (s *Session) ApplyRecipe(ctx context.Context, r *Recipe) (int, error) {
	s.mu.Lock()
	if s.editor.Active() {
		err := s.editor.transitionError("run a recipe")
		s.mu.Unlock()
		return 0, err
	}
	before := s.store.Table()
	after, err := ApplyRecipe(before, r)
	if err != nil {
		s.mu.Unlock()
		return 0, err
	}
	changed := ChangedRows(before, after)
	if !sameContent(before, after) {
		s.store.Commit(after)
		s.steps = append(s.steps, r.Steps...)
		s.stepCounts = append(s.stepCounts, len(r.Steps))
	}
	s.mu.Unlock()

	slog.InfoContext(ctx, "recipe applied",
		"session_id", s.ID,
		"recipe", r.Name,
		"steps", len(r.Steps),
		"rows_affected", changed,
	)
	recordAudit(ctx, s.audit, AuditEvent{
		SessionID:    s.ID,
		Action:       ActionRecipe,
		Detail:       r.Name,
		RowsAffected: changed,
	})
	return changed, nil
}

// Undo restores the table replaced by the last commit.
func (s *Session) Undo(ctx context.Context) error {
	s.mu.Lock()
	if s.editor.Active() {
		err := s.editor.transitionError("undo")
		s.mu.Unlock()
		return err
	}
	if err := s.store.Undo(); err != nil {
		s.mu.Unlock()
		return err
	}
	if n := len(s.stepCounts); n > 0 {
		s.steps = s.steps[:len(s.steps)-s.stepCounts[n-1]]
		s.stepCounts = s.stepCounts[:n-1]
	}
	s.mu.Unlock()

	slog.InfoContext(ctx, "undo", "session_id", s.ID)
	recordAudit(ctx, s.audit, AuditEvent{SessionID: s.ID, Action: ActionUndo})
	return nil
}

// Profile summarizes column of the current table.
func (s *Session) Profile(column string) (*ColumnProfile, error) {
	return BuildProfile(s.Table(), column)
}

// Recipe returns the steps applied since the file was loaded.
func (s *Session) Recipe() *Recipe {
	s.mu.Lock()
	defer s.mu.Unlock()

	steps := make([]RecipeStep, len(s.steps))
	copy(steps, s.steps)
	return &Recipe{Name: s.fileName, Steps: steps}
}

// Exported records that the table was downloaded and returns it. Exporting
// an empty table fails with ErrEmptyTable.
func (s *Session) Exported(ctx context.Context, format string) (*Table, error) {
	t := s.Table()
	if t.IsEmpty() {
		return nil, ErrEmptyTable
	}
	recordAudit(ctx, s.audit, AuditEvent{
		SessionID:    s.ID,
		Action:       ActionExport,
		Detail:       format,
		RowsAffected: t.Len(),
	})
	return t, nil
}

func (s *Session) commitLocked(column string, op Operation) (*ApplyResult, error) {
	before := s.store.Table()
	after, err := Apply(before, column, op)
	if err != nil {
		return nil, err
	}

	res := &ApplyResult{
		Column:    column,
		Operation: op,
		NewColumn: newColumn(before, after),
	}
	if sameContent(before, after) {
		return res, nil
	}
	res.RowsAffected = ChangedRows(before, after)
	s.store.Commit(after)
	s.steps = append(s.steps, RecipeStep{
		Column:     column,
		Op:         op.Kind,
		Delimiter:  op.Delimiter,
		Expression: op.Expression,
	})
	s.stepCounts = append(s.stepCounts, 1)
	return res, nil
}

func (s *Session) logApply(ctx context.Context, res *ApplyResult) {
	slog.InfoContext(ctx, "operation applied",
		"session_id", s.ID,
		"column", res.Column,
		"op", res.Operation.String(),
		"rows_affected", res.RowsAffected,
	)
	detail := res.Operation.Delimiter
	if res.Operation.Kind == OpCustomExpression {
		detail = res.Operation.Expression
	}
	recordAudit(ctx, s.audit, AuditEvent{
		SessionID:    s.ID,
		Action:       ActionApply,
		Column:       res.Column,
		Operation:    res.Operation.Kind,
		Detail:       detail,
		RowsAffected: res.RowsAffected,
	})
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// ChangedRows counts rows of after that differ from before. A change in
// row count counts every row.
func ChangedRows(before, after *Table) int {
	if before == after {
		return 0
	}
	if before.Len() != after.Len() {
		return after.Len()
	}
	n := 0
	for i := range after.rows {
		if rowChanged(before, after, i) {
			n++
		}
	}
	return n
}
