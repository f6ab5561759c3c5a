package catalog

// PaginationInfo describes where a page sits in the full result set.
type PaginationInfo struct {
	CurrentPage int `json:"currentPage"`
	TotalPages  int `json:"totalPages"`
	Total       int `json:"total"`
	PerPage     int `json:"perPage"`
}

// DefaultPagination is the pagination of an empty store.
func DefaultPagination() PaginationInfo {
	return PaginationInfo{CurrentPage: DefaultPage, PerPage: DefaultLimit}
}

// Normalize clamps the fields into their valid ranges:
// CurrentPage in [1, max(TotalPages,1)], TotalPages and Total non-negative,
// PerPage positive (fallbackPerPage is used when it is not).
func (p PaginationInfo) Normalize(fallbackPerPage int) PaginationInfo {
	if p.TotalPages < 0 {
		p.TotalPages = 0
	}
	if p.Total < 0 {
		p.Total = 0
	}
	if p.PerPage < 1 {
		p.PerPage = fallbackPerPage
		if p.PerPage < 1 {
			p.PerPage = DefaultLimit
		}
	}
	if p.CurrentPage < 1 {
		p.CurrentPage = 1
	}
	if maxPage := max(p.TotalPages, 1); p.CurrentPage > maxPage {
		p.CurrentPage = maxPage
	}
	return p
}

// HasMore reports whether pages after CurrentPage exist.
func (p PaginationInfo) HasMore() bool {
	return p.CurrentPage < p.TotalPages
}
