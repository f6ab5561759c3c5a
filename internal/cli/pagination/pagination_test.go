package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/piante/internal/catalog"
)

func TestPaginationParams_Validate(t *testing.T) {
	tests := []struct {
		name    string
		params  PaginationParams
		wantErr error
	}{
		{name: "valid default", params: *NewPaginationParams()},
		{name: "valid with more", params: PaginationParams{Page: 3, Limit: 50, More: 2}},
		{name: "zero page", params: PaginationParams{Page: 0, Limit: 10}, wantErr: ErrInvalidPage},
		{name: "zero limit", params: PaginationParams{Page: 1, Limit: 0}, wantErr: ErrInvalidLimit},
		{name: "limit too large", params: PaginationParams{Page: 1, Limit: 101}, wantErr: ErrInvalidLimit},
		{name: "negative more", params: PaginationParams{Page: 1, Limit: 10, More: -1}, wantErr: ErrInvalidMore},
		{name: "too much more", params: PaginationParams{Page: 1, Limit: 10, More: 51}, wantErr: ErrInvalidMore},
		{
			name:    "bad order",
			params:  PaginationParams{Page: 1, Limit: 10, SortOrder: "up"},
			wantErr: ErrInvalidSortOrder,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate()
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestPaginationParams_Patch(t *testing.T) {
	patch := PaginationParams{Page: 4, Limit: 12}.Patch()
	require.NotNil(t, patch.Page)
	require.NotNil(t, patch.Limit)
	assert.Equal(t, 4, *patch.Page)
	assert.Equal(t, 12, *patch.Limit)
	assert.Nil(t, patch.Search)
}

func TestParseSort(t *testing.T) {
	tests := []struct {
		name      string
		sortStr   string
		wantField string
		wantOrder string
		wantErr   error
	}{
		{name: "empty", sortStr: "", wantField: DefaultSortField, wantOrder: DefaultSortOrder},
		{name: "field only", sortStr: "name", wantField: "name", wantOrder: "asc"},
		{name: "field and desc", sortStr: "family:DESC", wantField: "family", wantOrder: "desc"},
		{name: "spaces", sortStr: " name : asc ", wantField: "name", wantOrder: "asc"},
		{name: "too many parts", sortStr: "a:b:c", wantErr: ErrInvalidSortFormat},
		{name: "empty field", sortStr: ":asc", wantErr: ErrEmptySortField},
		{name: "bad order", sortStr: "name:sideways", wantErr: ErrInvalidSortOrder},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			field, order, err := ParseSort(tt.sortStr)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantField, field)
			assert.Equal(t, tt.wantOrder, order)
		})
	}
}

func TestNewPaginationMeta(t *testing.T) {
	tests := []struct {
		name   string
		info   catalog.PaginationInfo
		loaded int
		want   PaginationMeta
	}{
		{
			name:   "middle page",
			info:   catalog.PaginationInfo{CurrentPage: 2, TotalPages: 5, Total: 48, PerPage: 10},
			loaded: 20,
			want: PaginationMeta{
				CurrentPage: 2, PageSize: 10, TotalPages: 5, TotalItems: 48,
				Loaded: 20, HasPrevious: true, HasNext: true,
			},
		},
		{
			name: "last page",
			info: catalog.PaginationInfo{CurrentPage: 5, TotalPages: 5, Total: 48, PerPage: 10},
			want: PaginationMeta{CurrentPage: 5, PageSize: 10, TotalPages: 5, TotalItems: 48, HasPrevious: true},
		},
		{
			name: "empty store",
			info: catalog.PaginationInfo{},
			want: PaginationMeta{CurrentPage: 1, PageSize: DefaultLimit},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewPaginationMeta(tt.info, tt.loaded))
		})
	}
}

func TestPlantSorter(t *testing.T) {
	plants := []catalog.Plant{
		{ID: "1", Name: "rosa", Family: "Rosaceae"},
		{ID: "2", Name: "Basilico", Family: "Lamiaceae"},
		{ID: "3", Name: "menta", Family: "Lamiaceae"},
	}
	sorter := NewPlantSorter()

	ids := func(ps []catalog.Plant) []string {
		out := make([]string, 0, len(ps))
		for _, p := range ps {
			out = append(out, p.ID)
		}
		return out
	}

	t.Run("name ascending ignores case", func(t *testing.T) {
		assert.Equal(t, []string{"2", "3", "1"}, ids(sorter.Sort(plants, "name", SortOrderAsc)))
	})

	t.Run("family descending is stable", func(t *testing.T) {
		assert.Equal(t, []string{"1", "2", "3"}, ids(sorter.Sort(plants, "family", SortOrderDesc)))
	})

	t.Run("invalid field leaves order", func(t *testing.T) {
		assert.Equal(t, []string{"1", "2", "3"}, ids(sorter.Sort(plants, "price", SortOrderAsc)))
	})

	t.Run("does not modify input", func(t *testing.T) {
		_ = sorter.Sort(plants, "name", SortOrderAsc)
		assert.Equal(t, "1", plants[0].ID)
	})

	assert.Equal(t, []string{"difficulty", "family", "name", "scientific", "watering"}, sorter.GetValidFields())
}
