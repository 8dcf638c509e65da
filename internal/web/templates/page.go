package templates

import (
	"context"
	"net/url"
	"strconv"

	"github.com/a-h/templ"
)

// Page renders the editor: toolbar, grid and, when open, the edit dialog.
func Page(d PageData) templ.Component {
	title := "Table Editor"
	if d.FileName != "" {
		title = d.FileName + " - Table Editor"
	}
	return Layout(title, component(func(ctx context.Context, h *htmlWriter) {
		h.component(ctx, toolbar(d))
		if d.Alert != nil {
			h.component(ctx, ErrorAlert(*d.Alert))
		}
		if len(d.Grid.Columns) == 0 {
			h.raw(`<p class="empty">Load a .csv, .xlsx or .xls file to start editing.</p>`)
		} else {
			h.component(ctx, Grid(d.Grid))
		}
		if d.Dialog != nil {
			h.component(ctx, Dialog(*d.Dialog, d.Operations))
		}
	}))
}

func toolbar(d PageData) templ.Component {
	return component(func(_ context.Context, h *htmlWriter) {
		h.raw(`<section class="toolbar">`)
		h.raw(`<form method="post" action="/upload" enctype="multipart/form-data" class="upload">`)
		h.raw(`<input type="file" name="file" accept=".csv,.xlsx,.xls" required>`)
		h.raw(`<select name="charset" title="Character set (CSV only)">`)
		for _, cs := range d.Charsets {
			h.raw("<option")
			h.attr("value", cs.Value)
			h.raw(">")
			h.text(cs.Label)
			h.raw("</option>")
		}
		h.raw(`</select><button type="submit">Load file</button></form>`)

		if d.FileName != "" {
			h.raw(`<span class="file-name">`)
			h.text(d.FileName)
			h.printf(` (%d rows)</span>`, d.Grid.TotalRows)
		}

		h.raw(`<div class="actions">`)
		if d.UndoDepth > 0 {
			h.printf(`<form method="post" action="/undo"><button type="submit">Undo (%d)</button></form>`, d.UndoDepth)
		}
		if d.Steps > 0 {
			h.raw(`<a class="button" href="/recipe.yaml">Save recipe</a>`)
		}
		if d.Grid.TotalRows > 0 {
			h.raw(`<form method="post" action="/recipe" enctype="multipart/form-data" class="recipe">`)
			h.raw(`<input type="file" name="recipe" accept=".yaml,.yml" required>`)
			h.raw(`<button type="submit">Run recipe</button></form>`)
			h.raw(`<a class="button primary" href="/export.xlsx">Download Excel</a>`)
		}
		h.raw(`</div></section>`)
	})
}

// Grid renders one page of rows with sortable headers and an edit link per
// column.
func Grid(g GridData) templ.Component {
	return component(func(ctx context.Context, h *htmlWriter) {
		h.raw(`<div class="grid-wrap"><table class="grid"><thead><tr><th class="rownum">#</th>`)
		for _, col := range g.Columns {
			dir, mark := "asc", ""
			if g.Sort == col {
				if g.Dir == "asc" {
					dir, mark = "desc", " ▲"
				} else {
					mark = " ▼"
				}
			}
			h.raw("<th><a")
			h.attr("href", gridURL(g, 1, g.PageSize, col, dir))
			h.raw(">")
			h.text(col + mark)
			h.raw(`</a> <a class="edit"`)
			h.attr("href", editURL(col))
			h.attr("title", "Edit "+col)
			h.raw(">Edit</a></th>")
		}
		h.raw("</tr></thead><tbody>")
		for i, row := range g.Rows {
			h.printf(`<tr><td class="rownum">%d</td>`, g.FirstRow+i)
			for _, col := range g.Columns {
				h.raw("<td>")
				h.text(row[col])
				h.raw("</td>")
			}
			h.raw("</tr>")
		}
		h.raw("</tbody></table></div>")
		h.component(ctx, pager(g))
	})
}

func pager(g GridData) templ.Component {
	return component(func(_ context.Context, h *htmlWriter) {
		h.raw(`<nav class="pager">`)
		if g.Page > 1 {
			h.raw("<a")
			h.attr("href", gridURL(g, g.Page-1, g.PageSize, g.Sort, g.Dir))
			h.raw(">Previous</a>")
		}
		h.printf(`<span>Page %d of %d</span>`, g.Page, max(g.TotalPages, 1))
		if g.Page < g.TotalPages {
			h.raw("<a")
			h.attr("href", gridURL(g, g.Page+1, g.PageSize, g.Sort, g.Dir))
			h.raw(">Next</a>")
		}
		h.raw(`<span class="sizes">Rows per page:`)
		for _, size := range g.PageSizes {
			if size == g.PageSize {
				h.printf(" <strong>%d</strong>", size)
				continue
			}
			h.raw(" <a")
			h.attr("href", gridURL(g, 1, size, g.Sort, g.Dir))
			h.printf(">%d</a>", size)
		}
		h.raw("</span></nav>")
	})
}

func gridURL(g GridData, page, size int, sort, dir string) string {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(size))
	if sort != "" {
		q.Set("sort", sort)
		q.Set("dir", dir)
	}
	return "/?" + q.Encode()
}
