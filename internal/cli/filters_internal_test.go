package cli

import (
	"context"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/piante/internal/catalog"
)

func parseFilterFlags(t *testing.T, args ...string) (*filterFlags, *cobra.Command) {
	t.Helper()
	var f filterFlags
	cmd := &cobra.Command{Use: "test"}
	f.register(cmd)
	require.NoError(t, cmd.ParseFlags(args))
	return &f, cmd
}

func TestApplyFilters(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		args     []string
		category catalog.Category
		search   string
		flags    map[string]bool
	}{
		{name: "no flags", args: nil, flags: nil},
		{
			name:   "search is trimmed",
			args:   []string{"--search", "  basilico "},
			search: "basilico",
		},
		{
			name:  "explicit false is kept",
			args:  []string{"--indoor=false", "--edible"},
			flags: map[string]bool{catalog.FlagIndoor: false, catalog.FlagEdible: true},
		},
		{
			name:     "category",
			args:     []string{"--category", "piante-fiorite", "--flowers"},
			category: "piante-fiorite",
			flags:    map[string]bool{catalog.FlagFlowers: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f, cmd := parseFilterFlags(t, tt.args...)
			category, filters := f.ApplyFilters(context.Background(), cmd, catalog.DefaultFilters())

			assert.Equal(t, tt.category, category)
			assert.Equal(t, tt.search, filters.Search)
			assert.Equal(t, catalog.DefaultPage, filters.Page)
			assert.Equal(t, catalog.DefaultLimit, filters.Limit)
			if tt.flags == nil {
				assert.Empty(t, filters.Flags)
			} else {
				assert.Equal(t, tt.flags, filters.Flags)
			}
		})
	}
}

func TestApplyFilters_DoesNotMutateBase(t *testing.T) {
	t.Parallel()

	base := catalog.DefaultFilters().WithFlag(catalog.FlagFlowers, true)
	f, cmd := parseFilterFlags(t, "--indoor")
	_, filters := f.ApplyFilters(context.Background(), cmd, base)

	assert.Equal(t, map[string]bool{catalog.FlagFlowers: true}, base.Flags)
	assert.Equal(t, map[string]bool{catalog.FlagFlowers: true, catalog.FlagIndoor: true}, filters.Flags)
}
