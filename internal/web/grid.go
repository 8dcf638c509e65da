package web

import (
	"net/url"
	"slices"
	"sort"
	"strconv"

	"github.com/fvbommel/sortorder"

	"github.com/JonMunkholm/tabedit/internal/core"
	"github.com/JonMunkholm/tabedit/internal/web/templates"
)

// pageSizes are the grid page sizes offered to users.
var pageSizes = []int{10, 25, 50}

// gridQuery is the grid's view state taken from the query string.
type gridQuery struct {
	Page int
	Size int
	Sort string
	Desc bool
}

func parseGridQuery(q url.Values, defaultSize int) gridQuery {
	gq := gridQuery{
		Page: parseIntParam(q, "page", 1),
		Size: parseIntParam(q, "size", defaultSize),
		Sort: q.Get("sort"),
		Desc: q.Get("dir") == "desc",
	}
	if gq.Page < 1 {
		gq.Page = 1
	}
	if !slices.Contains(pageSizes, gq.Size) {
		gq.Size = pageSizes[0]
	}
	return gq
}

func parseIntParam(q url.Values, name string, defaultVal int) int {
	v, err := strconv.Atoi(q.Get(name))
	if err != nil {
		return defaultVal
	}
	return v
}

// buildGrid selects one page of t. Sorting orders the view only; the
// table keeps its row order. Values compare in natural order so "row2"
// sorts before "row10".
func buildGrid(t *core.Table, gq gridQuery) templates.GridData {
	total := t.Len()
	pages := (total + gq.Size - 1) / gq.Size
	page := min(gq.Page, max(pages, 1))

	order := make([]int, total)
	for i := range order {
		order[i] = i
	}
	sortCol := ""
	if gq.Sort != "" && t.HasColumn(gq.Sort) {
		sortCol = gq.Sort
		sort.SliceStable(order, func(a, b int) bool {
			va, vb := t.Value(order[a], sortCol), t.Value(order[b], sortCol)
			if gq.Desc {
				return sortorder.NaturalLess(vb, va)
			}
			return sortorder.NaturalLess(va, vb)
		})
	}

	start := (page - 1) * gq.Size
	end := min(start+gq.Size, total)
	rows := make([]core.Row, 0, max(end-start, 0))
	for _, idx := range order[start:max(end, start)] {
		rows = append(rows, t.Row(idx))
	}

	dir := "asc"
	if gq.Desc {
		dir = "desc"
	}
	return templates.GridData{
		Columns:    t.Columns(),
		Rows:       rows,
		FirstRow:   start + 1,
		Page:       page,
		PageSize:   gq.Size,
		PageSizes:  pageSizes,
		TotalRows:  total,
		TotalPages: pages,
		Sort:       sortCol,
		Dir:        dir,
	}
}
