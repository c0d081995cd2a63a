// Package pagination windows a filtered record list to the displayed page.
//
// Windowing always starts at the first record: there is no offset. Showing
// other records means narrowing the filter or widening the page.
package pagination

import (
	"errors"
	"fmt"
)

// PageSize is the number of rows shown at once.
type PageSize int

// Supported page sizes.
const (
	PageSize10 PageSize = 10
	PageSize20 PageSize = 20
	PageSize50 PageSize = 50

	DefaultPageSize = PageSize10
)

// ErrInvalidPageSize is returned for sizes outside the supported set.
var ErrInvalidPageSize = errors.New("page size must be 10, 20 or 50")

// PageSizes lists the supported sizes in selector order.
func PageSizes() []PageSize {
	return []PageSize{PageSize10, PageSize20, PageSize50}
}

// Valid reports whether p is a supported size.
func (p PageSize) Valid() bool {
	return p == PageSize10 || p == PageSize20 || p == PageSize50
}

// NewPageSize validates n as a page size.
func NewPageSize(n int) (PageSize, error) {
	p := PageSize(n)
	if !p.Valid() {
		return 0, fmt.Errorf("%w, got %d", ErrInvalidPageSize, n)
	}
	return p, nil
}

// Window returns the first size items. The result is a prefix of items and
// shares its backing array.
func Window[T any](items []T, size PageSize) []T {
	n := int(size)
	if n < 0 {
		n = 0
	}
	if n > len(items) {
		n = len(items)
	}
	return items[:n:n]
}
