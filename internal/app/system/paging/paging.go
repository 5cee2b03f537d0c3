// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
)

// PageSize is the default number of rows returned by paged lists.
const PageSize = 50

// LimitPlusOne returns PageSize+1 as int64 for look-ahead pagination
// (fetch one extra document to detect hasNext).
func LimitPlusOne() int64 { return int64(PageSize + 1) }

// ParseStart extracts the human-friendly "start" query parameter (1-based index).
// Returns 1 if not present or invalid.
func ParseStart(r *http.Request) int {
	s := query.Get(r, "start")
	if s == "" {
		return 1
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// Skip converts a 1-based start into a Mongo skip value.
func Skip(start int) int64 {
	if start < 1 {
		return 0
	}
	return int64(start - 1)
}

// Page describes one page of a list in the JSON envelope.
type Page struct {
	Start     int  `json:"start"` // 1-based index of the first row (0 if empty)
	End       int  `json:"end"`   // 1-based index of the last row (0 if empty)
	HasPrev   bool `json:"hasPrev"`
	HasNext   bool `json:"hasNext"`
	PrevStart int  `json:"prevStart"`
	NextStart int  `json:"nextStart"`
}

// Trim cuts a look-ahead fetch of up to PageSize+1 rows down to PageSize
// and describes the resulting page.
func Trim[T any](rows *[]T, start int) Page {
	if start < 1 {
		start = 1
	}
	hasNext := false
	if len(*rows) > PageSize {
		*rows = (*rows)[:PageSize]
		hasNext = true
	}
	return ComputePage(start, len(*rows), hasNext)
}

// ComputePage calculates display range values given the current start index
// and number of items shown.
func ComputePage(start, shown int, hasNext bool) Page {
	prevStart := start - PageSize
	if prevStart < 1 {
		prevStart = 1
	}
	if shown == 0 {
		return Page{PrevStart: prevStart, NextStart: start, HasPrev: start > 1}
	}
	return Page{
		Start:     start,
		End:       start + shown - 1,
		HasPrev:   start > 1,
		HasNext:   hasNext,
		PrevStart: prevStart,
		NextStart: start + shown,
	}
}
