package web

import (
	"bytes"
	_ "embed"
	"net/http"

	"github.com/a-h/templ"
	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"github.com/JonMunkholm/tabedit/internal/core"
	"github.com/JonMunkholm/tabedit/internal/logging"
	"github.com/JonMunkholm/tabedit/internal/web/templates"
)

//go:embed help.md
var helpMarkdown []byte

// charsets offered for CSV uploads.
var charsets = []templates.Charset{
	{Value: "utf-8", Label: "UTF-8"},
	{Value: "windows-1252", Label: "Windows-1252"},
	{Value: "latin1", Label: "Latin-1 (ISO-8859-1)"},
}

func renderHelp() string {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: mdhtml.CommonFlags})
	return string(markdown.ToHTML(helpMarkdown, p, renderer))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, sessionFrom(r.Context()), nil, http.StatusOK)
}

func (s *Server) handleHelp(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, templates.HelpPage(s.helpHTML), http.StatusOK)
}

// renderPage draws the grid and, when open, the edit dialog.
func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, sess *core.Session, alert *templates.Alert, status int) {
	snap := sess.Snapshot()
	data := templates.PageData{
		FileName:   snap.FileName,
		Grid:       buildGrid(snap.Table, parseGridQuery(r.URL.Query(), s.cfg.Editor.PageSize)),
		Alert:      alert,
		UndoDepth:  snap.UndoDepth,
		Steps:      snap.Steps,
		Operations: core.Operations(),
		Charsets:   charsets,
	}

	if snap.State != core.StateIdle {
		info, _ := snap.Draft.Kind.Info()
		dialog := &templates.DialogData{
			Column:    snap.Column,
			Draft:     snap.Draft,
			DraftInfo: info,
			Preview:   snap.Preview,
		}
		if profile, err := core.BuildProfile(snap.Table, snap.Column); err == nil {
			dialog.Profile = profile
		}
		data.Dialog = dialog
	}

	s.render(w, r, templates.Page(data), status)
}

// render buffers c so a render failure can still become a 500.
func (s *Server) render(w http.ResponseWriter, r *http.Request, c templ.Component, status int) {
	var buf bytes.Buffer
	if err := c.Render(r.Context(), &buf); err != nil {
		logging.FromContext(r.Context()).Error("render failed", "path", r.URL.Path, "error", err)
		http.Error(w, "An unexpected error occurred (ERR000)", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// redirectHome sends the browser back to the grid after a form post.
func redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
