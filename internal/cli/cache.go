package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/rshade/piante/internal/catalog"
	"github.com/rshade/piante/internal/cli/pagination"
	"github.com/rshade/piante/internal/engine"
	"github.com/rshade/piante/internal/engine/batch"
	"github.com/rshade/piante/internal/engine/cache"
)

// NewCacheInvalidateCmd creates "cache invalidate", which removes the cached
// page selected by the filter flags.
func NewCacheInvalidateCmd() *cobra.Command {
	var (
		filters    filterFlags
		paging     = *pagination.NewPaginationParams()
		categories bool
	)

	cmd := &cobra.Command{
		Use:   "invalidate",
		Short: "Remove one cached page",
		Long: "Remove the cached page selected by the filter and paging flags. " +
			"The category's forced filters are applied, so the flags match what list used.",
		Example: `  # Forget page 1 of the whole catalog
  piante cache invalidate

  # Forget page 2 of indoor aromatic plants
  piante cache invalidate --category aromatiche --indoor --page 2

  # Forget the cached category list
  piante cache invalidate --categories`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			svc := newServices(ctx, configFromContext(ctx))
			defer func() { _ = svc.Close() }()
			if _, err := svc.requireCache(); err != nil {
				return err
			}

			if categories {
				svc.categoryStore().Invalidate(ctx)
				fmt.Fprintln(cmd.OutOrStdout(), "Category list invalidated.")
				return nil
			}

			if err := paging.Validate(); err != nil {
				return err
			}
			base := catalog.DefaultFilters().Apply(paging.Patch())
			category, fs := filters.ApplyFilters(ctx, cmd, base)
			svc.catalogStore().InvalidateCache(ctx, category, fs)
			fmt.Fprintf(cmd.OutOrStdout(), "Invalidated %s page %d.\n", category, fs.Page)
			return nil
		},
	}

	filters.register(cmd)
	cmd.Flags().IntVar(&paging.Page, "page", pagination.DefaultPage, "page number (1-based)")
	cmd.Flags().IntVar(&paging.Limit, "limit", pagination.DefaultLimit, "records per page (1-100)")
	cmd.Flags().BoolVar(&categories, "categories", false, "invalidate the category list instead of a page")
	return cmd
}

// NewCacheClearCmd creates "cache clear", which removes every cached page and
// the category list.
func NewCacheClearCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached catalog page",
		Long: `Removes every cached catalog page and the cached category list.
When run from a terminal it asks for confirmation first; --yes skips the question.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			svc := newServices(ctx, configFromContext(ctx))
			defer func() { _ = svc.Close() }()
			if _, err := svc.requireCache(); err != nil {
				return err
			}

			if !yes && interactiveInput(cmd.InOrStdin()) {
				answer := Confirm(cmd.OutOrStdout(), cmd.InOrStdin(), "Remove every cached page?")
				if !answer.Accepted {
					fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
					return nil
				}
			}

			removed := svc.catalogStore().InvalidateAll(ctx)
			svc.categoryStore().Invalidate(ctx)

			p := message.NewPrinter(language.English)
			fmt.Fprintln(cmd.OutOrStdout(), p.Sprintf("Removed %d cached pages.", removed))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")

	return cmd
}

// NewCacheWarmCmd creates "cache warm", which prefetches page 1 of the whole
// catalog and of every configured category, plus the category list.
func NewCacheWarmCmd() *cobra.Command {
	var (
		concurrency int
		limit       int
	)

	cmd := &cobra.Command{
		Use:   "warm",
		Short: "Prefetch every category into the cache",
		Example: `  # Warm with the default parallelism
  piante cache warm

  # Warm with eight parallel requests and 50 records per page
  piante cache warm --concurrency 8 --limit 50`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit < pagination.MinLimit || limit > pagination.MaxLimit {
				return fmt.Errorf("%w: got %d", pagination.ErrInvalidLimit, limit)
			}
			ctx := cmd.Context()
			cfg := configFromContext(ctx)
			svc := newServices(ctx, cfg)
			defer func() { _ = svc.Close() }()
			persistent, err := svc.requireCache()
			if err != nil {
				return err
			}

			errOut := cmd.ErrOrStderr()
			report, err := engine.Warm(ctx, svc.dispatcher, persistent, cfg.Routes(), engine.WarmOptions{
				Limit:       limit,
				Concurrency: concurrency,
				Timeout:     cfg.API.Timeout,
				Progress: func(s batch.ProgressSnapshot) {
					fmt.Fprintf(errOut, "\rWarming %d/%d categories (%.0f%%)",
						s.ProcessedItems+s.FailedItems, s.TotalItems, s.PercentComplete)
				},
			})
			fmt.Fprintln(errOut)
			if err != nil {
				return fmt.Errorf("cache warm interrupted: %w", err)
			}

			categories := svc.categoryStore()
			categories.Fetch(ctx, true)

			w := cmd.OutOrStdout()
			p := message.NewPrinter(language.English)
			fmt.Fprintln(w, p.Sprintf("Warmed %d categories, %d failed.", len(report.Warmed), len(report.Failed)))
			for category, ferr := range report.Failed {
				fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("  %s: %v", category, ferr)))
			}
			if st := categories.Snapshot(); st.Err != nil {
				fmt.Fprintln(w, warnStyle.Render("  category list: "+st.Err.Error()))
			}
			if report.Dropped > 0 {
				fmt.Fprintln(w, warnStyle.Render(p.Sprintf("  %d malformed records were skipped", report.Dropped)))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&concurrency, "concurrency", batch.DefaultConcurrency, "parallel requests")
	cmd.Flags().IntVar(&limit, "limit", pagination.DefaultLimit, "records per prefetched page (1-100)")
	return cmd
}

// NewCacheStatsCmd creates "cache stats".
func NewCacheStatsCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show cache entry counts and freshness",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateOutputFormat(output); err != nil {
				return err
			}
			ctx := cmd.Context()
			cfg := configFromContext(ctx)
			svc := newServices(ctx, cfg)
			defer func() { _ = svc.Close() }()
			persistent, err := svc.requireCache()
			if err != nil {
				return err
			}

			rows := make([]statsRow, 0, 2)
			pages, err := persistent.Stats(ctx, cache.NamespaceCatalog, cfg.Cache.TTL.Duration())
			if err != nil {
				return err
			}
			rows = append(rows, statsRow{Name: "pages", TTL: cfg.Cache.TTL.String(), Stats: pages})

			cats, err := persistent.Stats(ctx, cache.NamespaceCategories, cache.CategoriesTTL)
			if err != nil {
				return err
			}
			rows = append(rows, statsRow{Name: "categories", TTL: cache.FormatDuration(cache.CategoriesTTL), Stats: cats})

			return renderStats(cmd.OutOrStdout(), output, cfg.Cache.Backend, rows)
		},
	}

	cmd.Flags().StringVar(&output, "output", outputTable, "output format: table or json")
	return cmd
}
