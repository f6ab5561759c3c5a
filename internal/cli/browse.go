package cli

import (
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/rshade/piante/internal/catalog"
	"github.com/rshade/piante/internal/cli/pagination"
	"github.com/rshade/piante/internal/tui"
)

// ErrNotTerminal is returned when browse runs without an interactive terminal.
var ErrNotTerminal = errors.New("browse requires an interactive terminal; use 'piante list' instead")

// NewBrowseCmd creates the "browse" command, an interactive catalog browser.
func NewBrowseCmd() *cobra.Command {
	var (
		filters filterFlags
		limit   int
	)

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse the catalog interactively",
		Long: "Browse the catalog in a full-screen view. Scrolling to the end of the list loads the next page; " +
			"'/' searches, i/f/e cycle the indoor, flowers and edible filters, r refreshes.",
		Example: `  # Browse everything
  piante browse

  # Start from a category with flowering plants only
  piante browse --category aromatiche --flowers`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !isTerminal(os.Stdin) || !isTerminal(os.Stdout) {
				return ErrNotTerminal
			}
			if limit < pagination.MinLimit || limit > pagination.MaxLimit {
				return fmt.Errorf("%w: got %d", pagination.ErrInvalidLimit, limit)
			}

			ctx := cmd.Context()
			svc := newServices(ctx, configFromContext(ctx))
			defer func() { _ = svc.Close() }()

			base := catalog.DefaultFilters().Apply(catalog.FilterPatch{Limit: catalog.IntPtr(limit)})
			category, fs := filters.ApplyFilters(ctx, cmd, base)

			model := tui.NewBrowseModel(ctx, svc.catalogStore(), category, fs)
			defer model.Close()

			p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("failed to run catalog browser: %w", err)
			}
			return nil
		},
	}

	filters.register(cmd)
	cmd.Flags().IntVar(&limit, "limit", pagination.DefaultLimit, "records per page (1-100)")
	return cmd
}
