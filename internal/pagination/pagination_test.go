package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromRequest(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  Params
	}{
		{"defaults", "", Params{Limit: 10, Offset: 0}},
		{"custom", "?limit=50&offset=10", Params{Limit: 50, Offset: 10}},
		{"max limit", "?limit=500", Params{Limit: MaxLimit, Offset: 0}},
		{"negative offset", "?offset=-5", Params{Limit: 10, Offset: 0}},
		{"garbage", "?limit=abc&offset=x", Params{Limit: 10, Offset: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/"+tt.query, nil)
			assert.Equal(t, tt.want, FromRequest(req, 0))
		})
	}
}

func TestFromRequestConfiguredDefault(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, 25, FromRequest(req, 25).Limit)
}

func TestNewResponse(t *testing.T) {
	data := []string{"a", "b", "c"}

	assert.True(t, NewResponse(data, 10, 3, 0).HasMore)
	assert.False(t, NewResponse(data, 3, 3, 0).HasMore)
}

func TestParams_HasNext(t *testing.T) {
	tests := []struct {
		name   string
		params Params
		total  int
		want   bool
	}{
		{"more results", Params{Limit: 10, Offset: 0}, 25, true},
		{"exact end", Params{Limit: 10, Offset: 15}, 25, false},
		{"past end", Params{Limit: 10, Offset: 30}, 25, false},
		{"no results", Params{Limit: 10, Offset: 0}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.params.HasNext(tt.total))
		})
	}
}

func TestParams_PreviousOffset(t *testing.T) {
	assert.Equal(t, 10, Params{Limit: 10, Offset: 20}.PreviousOffset())
	assert.Equal(t, 0, Params{Limit: 10, Offset: 5}.PreviousOffset())
	assert.False(t, Params{Limit: 10}.HasPrevious())
}

func TestSlice(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	assert.Equal(t, []int{1, 2}, Slice(items, Params{Limit: 2}))
	assert.Equal(t, []int{5}, Slice(items, Params{Limit: 2, Offset: 4}))
	assert.Equal(t, []int{}, Slice(items, Params{Limit: 2, Offset: 9}))
}

func TestPager(t *testing.T) {
	items := make([]int, 23)
	for i := range items {
		items[i] = i
	}
	p := NewPager(items, 10)

	page, n, total := p.Page()
	assert.Len(t, page, 10)
	assert.Equal(t, 1, n)
	assert.Equal(t, 3, total)

	assert.True(t, p.Next())
	assert.True(t, p.Next())
	page, n, _ = p.Page()
	assert.Equal(t, []int{20, 21, 22}, page)
	assert.Equal(t, 3, n)
	assert.Equal(t, 20, p.Offset())

	assert.False(t, p.HasNext())
	assert.False(t, p.Next())
}

func TestPagerEmpty(t *testing.T) {
	p := NewPager([]string{}, 0)

	page, n, total := p.Page()
	assert.Empty(t, page)
	assert.Equal(t, 1, n)
	assert.Zero(t, total)
	assert.False(t, p.HasNext())
}
