// Package listutil parses paging parameters for admin list endpoints.
package listutil

import (
	"net/url"
	"slices"
	"strconv"
)

// DefaultPerPage is the default number of rows per page.
const DefaultPerPage = 25

// PerPageOptions are the allowed rows-per-page values.
var PerPageOptions = []int{10, 25, 50, 100}

// Page is a 1-indexed page request.
type Page struct {
	Number  int
	PerPage int
}

// ParsePage extracts page and per_page from URL query values.
// PRE: none
// POST: Number >= 1; PerPage is one of PerPageOptions
func ParsePage(q url.Values) Page {
	n, _ := strconv.Atoi(q.Get("page"))
	if n < 1 {
		n = 1
	}
	per, _ := strconv.Atoi(q.Get("per_page"))
	if !slices.Contains(PerPageOptions, per) {
		per = DefaultPerPage
	}
	return Page{Number: n, PerPage: per}
}

// Offset returns the SQL OFFSET for the page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.PerPage
}

// Probe is the row count to fetch: one extra row tells whether another page follows.
func (p Page) Probe() int {
	return p.PerPage + 1
}

// Trim cuts an over-fetched result down to the page and reports whether more rows follow.
// PRE: rows was fetched with LIMIT p.Probe()
func Trim[T any](rows []T, p Page) ([]T, bool) {
	if len(rows) > p.PerPage {
		return rows[:p.PerPage], true
	}
	return rows, false
}

// Flag reads a boolean query parameter. Only "true" and "1" are true.
func Flag(q url.Values, name string) bool {
	v := q.Get(name)
	return v == "true" || v == "1"
}
