package pagination

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rshade/piante/internal/catalog"
)

// Paging limits and sort defaults.
const (
	DefaultPage      = catalog.DefaultPage
	MinPage          = 1
	DefaultLimit     = catalog.DefaultLimit
	MinLimit         = 1
	MaxLimit         = 100
	MaxMore          = 50
	DefaultSortField = ""
	DefaultSortOrder = "asc"
	SortOrderAsc     = "asc"
	SortOrderDesc    = "desc"
)

// Common validation errors.
var (
	ErrInvalidPage       = errors.New("page must be >= 1")
	ErrInvalidLimit      = errors.New("limit must be between 1 and 100")
	ErrInvalidMore       = errors.New("more must be between 0 and 50")
	ErrInvalidSortOrder  = errors.New("sort order must be 'asc' or 'desc'")
	ErrInvalidSortFormat = errors.New("invalid sort format: use 'field' or 'field:order' (e.g., 'name:desc')")
	ErrEmptySortField    = errors.New("sort field cannot be empty")
	ErrInvalidSortField  = errors.New("invalid sort field")
)

// PaginationParams holds the paging flags of a list command.
//
// Page and Limit select the first page requested from the API; More asks for
// that many additional pages to be appended with load-more semantics.
//
//nolint:revive // PaginationParams is the canonical name for this exported type.
type PaginationParams struct {
	Page  int
	Limit int
	More  int

	SortField string
	SortOrder string
}

// NewPaginationParams creates a PaginationParams with default values.
func NewPaginationParams() *PaginationParams {
	return &PaginationParams{
		Page:      DefaultPage,
		Limit:     DefaultLimit,
		SortField: DefaultSortField,
		SortOrder: DefaultSortOrder,
	}
}

// Validate checks the bounds of every field.
func (p PaginationParams) Validate() error {
	if p.Page < MinPage {
		return fmt.Errorf("%w: got %d", ErrInvalidPage, p.Page)
	}
	if p.Limit < MinLimit || p.Limit > MaxLimit {
		return fmt.Errorf("%w: got %d", ErrInvalidLimit, p.Limit)
	}
	if p.More < 0 || p.More > MaxMore {
		return fmt.Errorf("%w: got %d", ErrInvalidMore, p.More)
	}
	if p.SortOrder != "" && p.SortOrder != SortOrderAsc && p.SortOrder != SortOrderDesc {
		return fmt.Errorf("%w: got %q", ErrInvalidSortOrder, p.SortOrder)
	}
	return nil
}

// Patch returns the filter patch selecting Page and Limit.
func (p PaginationParams) Patch() catalog.FilterPatch {
	return catalog.FilterPatch{Page: catalog.IntPtr(p.Page), Limit: catalog.IntPtr(p.Limit)}
}

// sortPartsMax is the maximum number of parts in a sort string (field:order).
const sortPartsMax = 2

// ParseSort parses a sort string in the format "field" or "field:order".
// Examples: "name", "family:desc".
//
//nolint:nonamedreturns // Named returns improve readability for this multi-value function.
func ParseSort(sortStr string) (field, order string, err error) {
	if sortStr == "" {
		return DefaultSortField, DefaultSortOrder, nil
	}

	parts := strings.Split(sortStr, ":")
	switch len(parts) {
	case 1:
		field = strings.TrimSpace(parts[0])
		order = DefaultSortOrder
	case sortPartsMax:
		field = strings.TrimSpace(parts[0])
		order = strings.ToLower(strings.TrimSpace(parts[1]))
	default:
		return "", "", fmt.Errorf("%w: %q", ErrInvalidSortFormat, sortStr)
	}

	if field == "" {
		return "", "", ErrEmptySortField
	}

	if order != SortOrderAsc && order != SortOrderDesc {
		return "", "", fmt.Errorf("%w: got %q", ErrInvalidSortOrder, order)
	}

	return field, order, nil
}
