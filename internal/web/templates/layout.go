package templates

import (
	"context"

	"github.com/a-h/templ"
)

// Layout wraps body in the page shell.
func Layout(title string, body templ.Component) templ.Component {
	return component(func(ctx context.Context, h *htmlWriter) {
		h.raw("<!DOCTYPE html>\n<html lang=\"en\"><head><meta charset=\"utf-8\">")
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.raw("<title>")
		h.text(title)
		h.raw(`</title><link rel="stylesheet" href="/static/app.css"></head><body>`)
		h.raw(`<header class="topbar"><a href="/" class="brand">Table Editor</a>`)
		h.raw(`<nav><a href="/">Editor</a><a href="/help">Expression help</a></nav></header>`)
		h.raw(`<main>`)
		h.component(ctx, body)
		h.raw("</main></body></html>")
	})
}

// ErrorAlert renders a user-facing error with its support code.
func ErrorAlert(a Alert) templ.Component {
	return component(func(_ context.Context, h *htmlWriter) {
		h.raw(`<div class="alert" role="alert"><strong>`)
		h.text(a.Message)
		h.raw("</strong>")
		if a.Detail != "" {
			h.raw(`<pre class="alert-detail">`)
			h.text(a.Detail)
			h.raw("</pre>")
		}
		if a.Action != "" {
			h.raw("<p>")
			h.text(a.Action)
			h.raw("</p>")
		}
		if a.Code != "" {
			h.raw(`<small>Code: `)
			h.text(a.Code)
			h.raw("</small>")
		}
		h.raw("</div>")
	})
}

// HelpPage shows pre-rendered help HTML.
func HelpPage(html string) templ.Component {
	return Layout("Expression help", component(func(ctx context.Context, h *htmlWriter) {
		h.raw(`<article class="help">`)
		h.component(ctx, templ.Raw(html))
		h.raw("</article>")
	}))
}
