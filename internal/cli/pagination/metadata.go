package pagination

import "github.com/rshade/piante/internal/catalog"

// PaginationMeta is the pagination block printed with JSON results.
//
//nolint:revive // PaginationMeta is the canonical name for this exported type.
type PaginationMeta struct {
	CurrentPage int  `json:"current_page"`
	PageSize    int  `json:"page_size"`
	TotalPages  int  `json:"total_pages"`
	TotalItems  int  `json:"total_items"`
	Loaded      int  `json:"loaded"`
	HasPrevious bool `json:"has_previous"`
	HasNext     bool `json:"has_next"`
}

// NewPaginationMeta builds metadata from the store's pagination and the number
// of records accumulated so far.
func NewPaginationMeta(info catalog.PaginationInfo, loaded int) PaginationMeta {
	info = info.Normalize(DefaultLimit)
	return PaginationMeta{
		CurrentPage: info.CurrentPage,
		PageSize:    info.PerPage,
		TotalPages:  info.TotalPages,
		TotalItems:  info.Total,
		Loaded:      loaded,
		HasPrevious: info.CurrentPage > 1,
		HasNext:     info.HasMore(),
	}
}
