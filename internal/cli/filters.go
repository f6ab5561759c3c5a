package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rshade/piante/internal/catalog"
	"github.com/rshade/piante/internal/logging"
)

// filterFlags are the catalog filter flags shared by list, browse and cache invalidate.
type filterFlags struct {
	category string
	search   string
	watering string
	indoor   bool
	flowers  bool
	edible   bool
}

// register adds the filter flags to cmd.
func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.category, "category", "", "category slug (empty for the whole catalog)")
	cmd.Flags().StringVar(&f.search, "search", "", "free-text search")
	cmd.Flags().StringVar(&f.watering, "watering", "", "watering need (e.g. low, medium, high)")
	cmd.Flags().BoolVar(&f.indoor, "indoor", false, "only indoor plants (--indoor=false for outdoor)")
	cmd.Flags().BoolVar(&f.flowers, "flowers", false, "only flowering plants (--flowers=false to exclude them)")
	cmd.Flags().BoolVar(&f.edible, "edible", false, "only edible plants (--edible=false to exclude them)")
}

// ApplyFilters builds the category and filter set selected on cmd.
// Boolean flags are tri-state: a flag the user did not pass stays unset, so
// --indoor=false filters for outdoor plants while omitting it matches both.
func (f *filterFlags) ApplyFilters(ctx context.Context, cmd *cobra.Command, base catalog.FilterSet) (catalog.Category, catalog.FilterSet) {
	filters := base.Clone()
	filters.Search = strings.TrimSpace(f.search)
	filters.Watering = strings.TrimSpace(f.watering)

	for name, value := range map[string]bool{
		catalog.FlagIndoor:  f.indoor,
		catalog.FlagFlowers: f.flowers,
		catalog.FlagEdible:  f.edible,
	} {
		if cmd.Flags().Changed(name) {
			filters = filters.WithFlag(name, value)
		}
	}

	category := catalog.Category(strings.TrimSpace(f.category))
	logging.FromContext(ctx).Debug().Ctx(ctx).
		Str("component", "cli").
		Str("operation", "apply_filters").
		Str("category", category.String()).
		RawJSON("filters", filters.Canonical()).
		Msg("filters resolved")
	return category, filters
}
