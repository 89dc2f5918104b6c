package shared

// Pagination describes one page of a listing.
type Pagination struct {
	Page       int
	PerPage    int
	Total      int
	TotalPages int
}

// NewPagination clamps page and per-page to sane bounds and derives the
// page count with integer arithmetic.
func NewPagination(page, perPage, total int) Pagination {
	if perPage <= 0 {
		perPage = 20
	}
	if perPage > 200 {
		perPage = 200
	}
	if page <= 0 {
		page = 1
	}
	totalPages := 0
	if total > 0 {
		totalPages = (total + perPage - 1) / perPage
	}
	return Pagination{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}
