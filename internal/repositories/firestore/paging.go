package firestore

import (
	domain "github.com/J2c-ashwani/cdisease/internal/domain"
)

// pageSlice applies offset paging to an already filtered and sorted slice,
// reporting the total before the window is cut.
func pageSlice[T any](items []T, pager domain.Pagination) domain.Page[T] {
	total := int64(len(items))

	skip := pager.Skip
	if skip < 0 {
		skip = 0
	}
	if skip > len(items) {
		skip = len(items)
	}
	items = items[skip:]

	limit := pager.Limit
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}

	out := make([]T, len(items))
	copy(out, items)
	return domain.Page[T]{
		Items: out,
		Total: total,
		Skip:  skip,
		Limit: limit,
	}
}
