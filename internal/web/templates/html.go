// Package templates renders the editor's HTML as templ components.
package templates

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/a-h/templ"
)

// htmlWriter accumulates the first write error so components can emit markup
// without checking every call.
type htmlWriter struct {
	w   io.Writer
	err error
}

func (h *htmlWriter) raw(s string) {
	if h.err != nil {
		return
	}
	_, h.err = io.WriteString(h.w, s)
}

// text writes s HTML-escaped.
func (h *htmlWriter) text(s string) {
	h.raw(templ.EscapeString(s))
}

func (h *htmlWriter) printf(format string, args ...any) {
	h.raw(fmt.Sprintf(format, args...))
}

// attr writes name="value" with value escaped.
func (h *htmlWriter) attr(name, value string) {
	h.raw(" " + name + `="` + templ.EscapeString(value) + `"`)
}

func (h *htmlWriter) component(ctx context.Context, c templ.Component) {
	if h.err != nil || c == nil {
		return
	}
	h.err = c.Render(ctx, h.w)
}

// component adapts a render function into a templ.Component.
func component(fn func(ctx context.Context, h *htmlWriter)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		fn(ctx, h)
		return h.err
	})
}

// editURL is the link that opens the edit dialog on column.
func editURL(column string) string {
	return "/edit/" + url.PathEscape(column)
}
