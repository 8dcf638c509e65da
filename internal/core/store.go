package core

// DefaultUndoDepth is the number of committed tables kept for undo.
const DefaultUndoDepth = 10

// Store holds the current table of a session plus a bounded undo history.
// Tables are replaced wholesale; nothing in a stored table is mutated.
type Store struct {
	table   *Table
	history []*Table
	depth   int
}

// NewStore creates an empty store keeping at most depth previous tables.
// A depth of zero disables undo.
func NewStore(depth int) *Store {
	if depth < 0 {
		depth = 0
	}
	return &Store{table: EmptyTable(), depth: depth}
}

// Table returns the current table.
func (s *Store) Table() *Table {
	return s.table
}

// Load replaces the table and clears the history.
func (s *Store) Load(t *Table) {
	s.table = t
	s.history = nil
}

// Commit makes t current and pushes the replaced table onto the history.
func (s *Store) Commit(t *Table) {
	if s.depth > 0 {
		s.history = append(s.history, s.table)
		if len(s.history) > s.depth {
			s.history = s.history[len(s.history)-s.depth:]
		}
	}
	s.table = t
}

// Undo restores the table replaced by the last commit.
func (s *Store) Undo() error {
	if len(s.history) == 0 {
		return ErrNothingToUndo
	}
	last := len(s.history) - 1
	s.table = s.history[last]
	s.history[last] = nil
	s.history = s.history[:last]
	return nil
}

// UndoDepth returns how many commits can currently be undone.
func (s *Store) UndoDepth() int {
	return len(s.history)
}
