package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rshade/piante/internal/catalog"
	"github.com/rshade/piante/internal/cli/pagination"
	"github.com/rshade/piante/internal/engine"
)

// listParams holds the flags of the list command.
type listParams struct {
	filters filterFlags
	paging  pagination.PaginationParams
	sort    string
	refresh bool
	output  string
}

// NewListCmd creates the "list" command, which loads one page of the catalog
// (optionally followed by --more load-more pages) and prints it.
func NewListCmd() *cobra.Command {
	params := listParams{paging: *pagination.NewPaginationParams()}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List plants from the catalog",
		Long: "List one page of plants, filtered by category, search text and plant flags. " +
			"Pages are served from the persistent cache while fresh.",
		Example: `  # First page of the catalog
  piante list

  # Edible plants needing little water, sorted by name descending
  piante list --edible --watering low --sort name:desc

  # Outdoor plants only, three pages of 10
  piante list --indoor=false --limit 10 --more 2

  # A category as JSON, bypassing the cache
  piante list --category aromatiche --refresh --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return executeList(cmd, &params)
		},
	}

	params.filters.register(cmd)
	cmd.Flags().IntVar(&params.paging.Page, "page", pagination.DefaultPage, "page number (1-based)")
	cmd.Flags().IntVar(&params.paging.Limit, "limit", pagination.DefaultLimit, "records per page (1-100)")
	cmd.Flags().IntVar(&params.paging.More, "more", 0, "number of following pages to append")
	cmd.Flags().StringVar(&params.sort, "sort", "", "sort the printed records: field[:asc|desc] (name, scientific, family, watering, difficulty)")
	cmd.Flags().BoolVar(&params.refresh, "refresh", false, "ignore cached pages and fetch from the API")
	cmd.Flags().StringVar(&params.output, "output", outputTable, "output format: table or json")

	return cmd
}

func executeList(cmd *cobra.Command, params *listParams) error {
	ctx := cmd.Context()

	if err := validateOutputFormat(params.output); err != nil {
		return err
	}
	field, order, err := pagination.ParseSort(params.sort)
	if err != nil {
		return err
	}
	sorter := pagination.NewPlantSorter()
	if field != "" && !sorter.IsValidField(field) {
		return fmt.Errorf("%w: %q (valid: %v)", pagination.ErrInvalidSortField, field, sorter.GetValidFields())
	}
	params.paging.SortField, params.paging.SortOrder = field, order
	if err = params.paging.Validate(); err != nil {
		return err
	}

	svc := newServices(ctx, configFromContext(ctx))
	defer func() { _ = svc.Close() }()
	store := svc.catalogStore()

	base := catalog.DefaultFilters().Apply(params.paging.Patch())
	category, filters := params.filters.ApplyFilters(ctx, cmd, base)

	store.FetchCatalog(ctx, category, filters, params.refresh)
	state := store.Snapshot()
	if state.Err != nil {
		return fmt.Errorf("listing plants: %w", state.Err)
	}

	for i := 0; i < params.paging.More && state.HasMore; i++ {
		store.LoadMore(ctx)
		state = store.Snapshot()
		if state.Err != nil {
			return fmt.Errorf("loading page %d: %w", state.Pagination.CurrentPage+1, state.Err)
		}
	}

	logger.Debug().Ctx(ctx).
		Str("operation", "list").
		Int("records", len(state.Records)).
		Int("dropped", state.Dropped).
		Msg("catalog listed")

	if field != "" {
		state.Records = sorter.Sort(state.Records, field, order)
	}
	return renderList(cmd.OutOrStdout(), params.output, state)
}

// listOutput is the JSON document printed by list --output json.
type listOutput struct {
	Category    string                    `json:"category"`
	Filters     catalog.FilterSet         `json:"filters"`
	Records     []catalog.Plant           `json:"records"`
	Pagination  pagination.PaginationMeta `json:"pagination"`
	Dropped     int                       `json:"dropped,omitempty"`
	LastFetched string                    `json:"last_fetched,omitempty"`
}

func newListOutput(state engine.State) listOutput {
	out := listOutput{
		Category:   state.Category.String(),
		Filters:    state.Filters,
		Records:    state.Records,
		Pagination: pagination.NewPaginationMeta(state.Pagination, len(state.Records)),
		Dropped:    state.Dropped,
	}
	if !state.LastFetched.IsZero() {
		out.LastFetched = state.LastFetched.UTC().Format(timeLayout)
	}
	return out
}
