package pagination

import (
	"net/http"
	"strconv"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Params holds pagination parameters extracted from a request.
type Params struct {
	Limit  int
	Offset int
}

// FromRequest extracts limit/offset from the query string, clamping the
// limit to [1, MaxLimit] and the offset to >= 0.
func FromRequest(r *http.Request, defaultLimit int) Params {
	if defaultLimit <= 0 {
		defaultLimit = DefaultLimit
	}
	q := r.URL.Query()

	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	offset, _ := strconv.Atoi(q.Get("offset"))
	if offset < 0 {
		offset = 0
	}
	return Params{Limit: limit, Offset: offset}
}

// Response wraps a paginated API response.
type Response struct {
	Data    any  `json:"data"`
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
}

func NewResponse(data any, total, limit, offset int) *Response {
	return &Response{
		Data:    data,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: offset+limit < total,
	}
}

// HasNext returns true if there are more results after the current page.
func (p Params) HasNext(total int) bool {
	return p.Offset+p.Limit < total
}

func (p Params) HasPrevious() bool {
	return p.Offset > 0
}

func (p Params) NextOffset() int {
	return p.Offset + p.Limit
}

// PreviousOffset returns the offset for the previous page, never negative.
func (p Params) PreviousOffset() int {
	prev := p.Offset - p.Limit
	if prev < 0 {
		return 0
	}
	return prev
}

// Slice returns the window of items selected by p. An offset past the end
// yields an empty, non-nil slice.
func Slice[T any](items []T, p Params) []T {
	if p.Offset >= len(items) {
		return []T{}
	}
	end := p.Offset + p.Limit
	if end > len(items) || p.Limit <= 0 {
		end = len(items)
	}
	return items[p.Offset:end]
}

// Pages counts the pages needed to show total items, limit per page.
func Pages(total, limit int) int {
	if total <= 0 || limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// Pager walks a fixed list one page at a time, the way the console shows
// long listings.
type Pager[T any] struct {
	items  []T
	params Params
}

func NewPager[T any](items []T, size int) *Pager[T] {
	if size <= 0 {
		size = DefaultLimit
	}
	return &Pager[T]{items: items, params: Params{Limit: size}}
}

// Page returns the current page together with its 1-based number and the
// total page count.
func (p *Pager[T]) Page() (items []T, number, total int) {
	return Slice(p.items, p.params), p.params.Offset/p.params.Limit + 1, Pages(len(p.items), p.params.Limit)
}

func (p *Pager[T]) HasNext() bool {
	return p.params.HasNext(len(p.items))
}

// Next advances to the following page. It reports false on the last page.
func (p *Pager[T]) Next() bool {
	if !p.HasNext() {
		return false
	}
	p.params.Offset = p.params.NextOffset()
	return true
}

// Offset is the index of the first item on the current page.
func (p *Pager[T]) Offset() int {
	return p.params.Offset
}
