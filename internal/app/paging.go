package app

import (
	"strconv"
	"strings"
)

// PageWindow is the pagination metadata handed to the renderer.
type PageWindow struct {
	Current int   `json:"current"`
	Total   int   `json:"total"`
	Slice   []int `json:"slice"`
}

// Window returns the page numbers within [current-left, current+right] that
// exist in [1, total], ascending. It never returns nil.
func Window(current, total, left, right int) []int {
	out := []int{}
	lo := max(current-left, 1)
	hi := min(current+right, total)
	for p := lo; p <= hi; p++ {
		out = append(out, p)
	}
	return out
}

type PagingConfig struct {
	ReviewsPerPage  int
	ToursPerPage    int
	AgenciesPerPage int
	RequestsPerPage int
	LeftSide        int
	RightSide       int
}

func DefaultPaging() PagingConfig {
	return PagingConfig{
		ReviewsPerPage:  10,
		ToursPerPage:    15,
		AgenciesPerPage: 15,
		RequestsPerPage: 15,
		LeftSide:        2,
		RightSide:       2,
	}
}

func (c PagingConfig) window(current, total int) PageWindow {
	return PageWindow{Current: current, Total: total, Slice: Window(current, total, c.LeftSide, c.RightSide)}
}

// Paginator splits an ordered collection into fixed-size pages.
// An empty collection still has one (empty) page.
type Paginator[T any] struct {
	items   []T
	perPage int
}

func NewPaginator[T any](items []T, perPage int) Paginator[T] {
	if perPage <= 0 {
		perPage = 1
	}
	return Paginator[T]{items: items, perPage: perPage}
}

func (p Paginator[T]) NumPages() int {
	if len(p.items) == 0 {
		return 1
	}
	return (len(p.items) + p.perPage - 1) / p.perPage
}

// Page returns the items of page n (1-based). Numbers outside [1, NumPages]
// yield the last page.
func (p Paginator[T]) Page(n int) []T {
	if n < 1 || n > p.NumPages() {
		n = p.NumPages()
	}
	start := (n - 1) * p.perPage
	end := min(start+p.perPage, len(p.items))
	if start >= end {
		return []T{}
	}
	return p.items[start:end]
}

// ParsePage reads a page number from a query value; anything unusable is page 1.
func ParsePage(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 1
	}
	return n
}
