package service

import (
	"errors"

	"devicetrail/internal/history/domain"
)

// ErrBadPage is returned when page is set without a positive limit, or page is
// not 1-indexed.
var ErrBadPage = errors.New("page must be >= 1 and limit must be a positive integer")

// paginate wraps an already-sorted result set. page == 0 disables pagination
// and returns the full set; otherwise page is 1-indexed and the slice
// [(page-1)*limit, page*limit) is returned with the counts.
func paginate[T any](sorted []T, page, limit int) (domain.Page[T], error) {
	if page == 0 {
		return domain.Page[T]{Docs: sorted}, nil
	}
	if page < 1 || limit < 1 {
		return domain.Page[T]{}, ErrBadPage
	}

	total := len(sorted)
	totalPages := (total + limit - 1) / limit

	start := (page - 1) * limit
	end := start + limit
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	return domain.Page[T]{
		Docs:       sorted[start:end],
		TotalDocs:  total,
		TotalPages: totalPages,
		Page:       page,
		Limit:      limit,
		Paginated:  true,
	}, nil
}
