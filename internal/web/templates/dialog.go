package templates

import (
	"context"
	"fmt"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/tabedit/internal/core"
)

// Dialog renders the edit dialog for one column: operation form, column
// profile and, after Preview, the sample rows.
func Dialog(d DialogData, ops []core.OperationInfo) templ.Component {
	return component(func(ctx context.Context, h *htmlWriter) {
		h.raw(`<div class="overlay"><section class="dialog" role="dialog" aria-modal="true"><h2>Edit Column: `)
		h.text(d.Column)
		h.raw("</h2>")

		h.raw(`<form method="post" action="/edit/preview" class="op-form">`)
		h.raw(`<label>Operation <select name="op">`)
		for _, op := range ops {
			h.raw("<option")
			h.attr("value", string(op.Kind))
			if op.Kind == d.Draft.Kind {
				h.raw(" selected")
			}
			h.raw(">")
			h.text(op.Label)
			h.raw("</option>")
		}
		h.raw("</select></label>")

		switch d.Draft.Kind {
		case core.OpSplitByChar:
			h.raw(`<label>Delimiter <input type="text" name="delimiter" maxlength="16"`)
			h.attr("value", d.Draft.Delimiter)
			h.raw("></label>")
		case core.OpCustomExpression:
			h.raw(`<label>Expression <textarea name="expression" rows="3" maxlength="1024" placeholder="value.toUpperCase()">`)
			h.text(d.Draft.Expression)
			h.raw("</textarea></label>")
		}
		if d.DraftInfo.Example != "" {
			h.raw(`<p class="example">`)
			h.text(d.DraftInfo.Example)
			h.raw("</p>")
		}

		h.raw(`<div class="buttons">`)
		h.raw(`<button type="submit" formaction="/edit/operation">Change operation</button>`)
		h.raw(`<button type="submit">Preview</button>`)
		h.raw(`<button type="submit" formaction="/edit/apply" class="primary">Apply</button>`)
		h.raw(`<button type="submit" formaction="/edit/cancel" formnovalidate>Cancel</button>`)
		h.raw("</div></form>")

		if d.Profile != nil {
			h.component(ctx, Profile(*d.Profile))
		}
		if d.Preview != nil {
			h.component(ctx, PreviewTable(*d.Preview))
		}
		h.raw("</section></div>")
	})
}

// PreviewTable shows the sample rows of a preview; changed cells show the
// original value struck through.
func PreviewTable(p core.Preview) templ.Component {
	return component(func(_ context.Context, h *htmlWriter) {
		h.raw(`<div class="preview"><h3>Preview</h3><p class="summary">`)
		h.printf("%d of %d rows would change", p.ChangedRows, p.TotalRows)
		if p.NewColumn != "" {
			h.raw("; adds column <code>")
			h.text(p.NewColumn)
			h.raw("</code>")
		}
		h.printf(". Showing the first %d rows.</p>", len(p.Rows))

		h.raw(`<table class="grid"><thead><tr>`)
		for _, col := range p.Columns {
			h.raw("<th>")
			h.text(col)
			h.raw("</th>")
		}
		h.raw("</tr></thead><tbody>")
		for i, row := range p.Rows {
			h.raw("<tr>")
			for _, col := range p.Columns {
				before, after := p.Original[i][col], row[col]
				if before == after {
					h.raw("<td>")
					h.text(after)
					h.raw("</td>")
					continue
				}
				h.raw(`<td class="changed">`)
				if before != "" {
					h.raw("<del>")
					h.text(before)
					h.raw("</del> ")
				}
				h.raw("<ins>")
				h.text(after)
				h.raw("</ins></td>")
			}
			h.raw("</tr>")
		}
		h.raw("</tbody></table></div>")
	})
}

// Profile summarizes the column being edited.
func Profile(p core.ColumnProfile) templ.Component {
	return component(func(_ context.Context, h *htmlWriter) {
		h.raw(`<details class="profile"><summary>Column profile</summary><dl>`)
		item := func(label, value string) {
			h.raw("<dt>")
			h.text(label)
			h.raw("</dt><dd>")
			h.text(value)
			h.raw("</dd>")
		}
		item("Rows", fmt.Sprint(p.Rows))
		item("Empty", fmt.Sprint(p.Empty))
		item("Distinct", fmt.Sprint(p.Distinct))
		item("Length", fmt.Sprintf("min %d, max %d, mean %.1f, median %.1f",
			p.MinLength, p.MaxLength, p.MeanLength, p.MedianLength))
		if n := p.Numeric; n != nil {
			item("Numeric", fmt.Sprintf("min %g, max %g, mean %.4g, median %g, stddev %.4g",
				n.Min, n.Max, n.Mean, n.Median, n.StdDev))
		}
		h.raw("</dl>")
		if len(p.TopValues) > 0 {
			h.raw("<p>Most common:</p><ol>")
			for _, v := range p.TopValues {
				h.raw("<li><code>")
				h.text(v.Value)
				h.printf("</code> × %d</li>", v.Count)
			}
			h.raw("</ol>")
		}
		h.raw("</details>")
	})
}
