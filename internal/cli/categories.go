package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewCategoriesCmd creates the "categories" command listing the browsable categories.
func NewCategoriesCmd() *cobra.Command {
	var (
		refresh bool
		output  string
	)

	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List plant categories",
		Example: `  # Categories, from the cache when fresh
  piante categories

  # Always ask the API
  piante categories --refresh --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateOutputFormat(output); err != nil {
				return err
			}
			ctx := cmd.Context()
			svc := newServices(ctx, configFromContext(ctx))
			defer func() { _ = svc.Close() }()

			store := svc.categoryStore()
			store.Fetch(ctx, refresh)
			state := store.Snapshot()
			if state.Err != nil {
				return fmt.Errorf("listing categories: %w", state.Err)
			}
			return renderCategories(cmd.OutOrStdout(), output, state)
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "ignore the cached list and fetch from the API")
	cmd.Flags().StringVar(&output, "output", outputTable, "output format: table or json")
	return cmd
}
