package web

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/tabedit/internal/core"
)

// handleEditOpen opens the dialog on a column. Re-opening the column that
// is already being edited is a no-op.
func (s *Server) handleEditOpen(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	column, err := columnParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if snap := sess.Snapshot(); snap.State != core.StateIdle && snap.Column == column {
		redirectHome(w, r)
		return
	}
	if err := sess.SelectColumn(column); err != nil {
		s.respondError(w, r, err)
		return
	}
	redirectHome(w, r)
}

func (s *Server) handleEditOperation(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	op, err := formOperation(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := sess.ChangeOperation(op); err != nil {
		s.respondError(w, r, err)
		return
	}
	redirectHome(w, r)
}

// handleEditPreview takes the form's operation as the draft and previews it.
func (s *Server) handleEditPreview(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	if err := s.changeDraft(r, sess); err != nil {
		s.respondError(w, r, err)
		return
	}
	if _, err := sess.Preview(); err != nil {
		s.respondError(w, r, err)
		return
	}
	redirectHome(w, r)
}

func (s *Server) handleEditApply(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	if err := s.changeDraft(r, sess); err != nil {
		s.respondError(w, r, err)
		return
	}
	if _, err := sess.Apply(r.Context()); err != nil {
		s.respondError(w, r, err)
		return
	}
	redirectHome(w, r)
}

func (s *Server) handleEditCancel(w http.ResponseWriter, r *http.Request) {
	if err := sessionFrom(r.Context()).Cancel(); err != nil {
		s.respondError(w, r, err)
		return
	}
	redirectHome(w, r)
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	if err := sessionFrom(r.Context()).Undo(r.Context()); err != nil {
		s.respondError(w, r, err)
		return
	}
	redirectHome(w, r)
}

// columnParam returns the unescaped {column} path segment. chi matches on
// the raw path when the URL has escaped slashes.
func columnParam(r *http.Request) (string, error) {
	column := chi.URLParam(r, "column")
	if r.URL.RawPath == "" {
		return column, nil
	}
	column, err := url.PathUnescape(column)
	if err != nil {
		return "", fmt.Errorf("%w: column: %w", errInvalidRequest, err)
	}
	return column, nil
}

// changeDraft applies the posted operation fields, if any, to the dialog.
func (s *Server) changeDraft(r *http.Request, sess *core.Session) error {
	if err := r.ParseForm(); err != nil {
		return fmt.Errorf("%w: %w", errInvalidRequest, err)
	}
	if r.PostForm.Get("op") == "" {
		return nil
	}
	op, err := formOperation(r)
	if err != nil {
		return err
	}
	return sess.ChangeOperation(op)
}

// formOperation reads op, delimiter and expression from a form post.
func formOperation(r *http.Request) (core.Operation, error) {
	if err := r.ParseForm(); err != nil {
		return core.Operation{}, fmt.Errorf("%w: %w", errInvalidRequest, err)
	}
	kind, err := core.ParseOpKind(r.PostForm.Get("op"))
	if err != nil {
		return core.Operation{}, err
	}
	return core.Operation{
		Kind:       kind,
		Delimiter:  r.PostForm.Get("delimiter"),
		Expression: r.PostForm.Get("expression"),
	}, nil
}
