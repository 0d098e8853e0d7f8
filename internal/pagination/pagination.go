// Package pagination slices ordered listings into fixed-size, 1-indexed pages.
package pagination

import "errors"

// DefaultPerPage is the page size used when none is configured.
const DefaultPerPage = 20

// ErrNotFound is returned for an out-of-range page when errorOut is set.
var ErrNotFound = errors.New("page not found")

// Page is one slice of a listing.
type Page[T any] struct {
	Items   []T   `json:"items"`
	Number  int   `json:"page"`
	PerPage int   `json:"per_page"`
	Total   int64 `json:"total"`
	Pages   int   `json:"pages"`
}

// Pages returns how many pages total items span.
func Pages(total int64, perPage int) int {
	if perPage <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(perPage) - 1) / int64(perPage))
}

// Window resolves page into a row offset. A page is out of range when it is
// below 1, or above 1 and past the last page; page 1 of an empty listing is
// always valid. Out-of-range pages fail with ErrNotFound when errorOut is set
// and otherwise report ok=false so the caller can return an empty page.
func Window(page, perPage int, total int64, errorOut bool) (offset int, ok bool, err error) {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if page < 1 || (page > 1 && page > Pages(total, perPage)) {
		if errorOut {
			return 0, false, ErrNotFound
		}
		return 0, false, nil
	}
	return (page - 1) * perPage, true, nil
}

// Empty returns a page with no items but correct totals.
func Empty[T any](page, perPage int, total int64) Page[T] {
	return Page[T]{
		Items:   []T{},
		Number:  page,
		PerPage: perPage,
		Total:   total,
		Pages:   Pages(total, perPage),
	}
}

func (p Page[T]) HasPrev() bool { return p.Number > 1 }
func (p Page[T]) HasNext() bool { return p.Number < p.Pages }
func (p Page[T]) PrevNum() int  { return p.Number - 1 }
func (p Page[T]) NextNum() int  { return p.Number + 1 }
