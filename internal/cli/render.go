package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/rshade/piante/internal/catalog"
	"github.com/rshade/piante/internal/engine"
	"github.com/rshade/piante/internal/engine/cache"
)

// Output formats.
const (
	outputTable = "table"
	outputJSON  = "json"
)

const (
	tabPadding = 2
	timeLayout = time.RFC3339
)

// ErrInvalidOutputFormat is returned for an --output value other than table or json.
var ErrInvalidOutputFormat = errors.New("output format must be 'table' or 'json'")

//nolint:gochecknoglobals // Shared read-only styles.
var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

func validateOutputFormat(format string) error {
	switch format {
	case outputTable, outputJSON:
		return nil
	default:
		return fmt.Errorf("%w: got %q", ErrInvalidOutputFormat, format)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// renderList prints the records of state as a table or a JSON document.
func renderList(w io.Writer, format string, state engine.State) error {
	if format == outputJSON {
		return writeJSON(w, newListOutput(state))
	}

	if len(state.Records) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No plants match the current filters."))
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, tabPadding, ' ', 0)
	fmt.Fprintln(tw, "Name\tScientific name\tFamily\tWatering\tFlags")
	fmt.Fprintln(tw, "----\t---------------\t------\t--------\t-----")
	for _, p := range state.Records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			p.Name, dash(p.ScientificName), dash(p.Family), dash(p.Watering), plantFlags(p))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, mutedStyle.Render(pageSummary(state)))
	if state.Dropped > 0 {
		p := message.NewPrinter(language.English)
		fmt.Fprintln(w, warnStyle.Render(p.Sprintf("%d malformed records were skipped", state.Dropped)))
	}
	return nil
}

// pageSummary describes where the listed records sit in the result set.
func pageSummary(state engine.State) string {
	p := message.NewPrinter(language.English)
	info := state.Pagination
	summary := p.Sprintf("Page %d of %d, %d plants in total, %d shown",
		info.CurrentPage, max(info.TotalPages, 1), info.Total, len(state.Records))
	if state.HasMore {
		summary += " (more available)"
	}
	return summary
}

func plantFlags(p catalog.Plant) string {
	var flags []string
	if p.Indoor {
		flags = append(flags, catalog.FlagIndoor)
	}
	if p.Flowers {
		flags = append(flags, catalog.FlagFlowers)
	}
	if p.Edible {
		flags = append(flags, catalog.FlagEdible)
	}
	if len(flags) == 0 {
		return "-"
	}
	return strings.Join(flags, ",")
}

func dash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

// renderCategories prints the category list.
func renderCategories(w io.Writer, format string, state engine.CategoryState) error {
	if format == outputJSON {
		return writeJSON(w, state.Categories)
	}
	if len(state.Categories) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No categories available."))
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, tabPadding, ' ', 0)
	fmt.Fprintln(tw, "Slug\tName\tDescription")
	fmt.Fprintln(tw, "----\t----\t-----------")
	for _, c := range state.Categories {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c.Slug, c.Name, dash(c.Description))
	}
	return tw.Flush()
}

// statsRow is one namespace of the cache stats report.
type statsRow struct {
	Name  string      `json:"name"`
	TTL   string      `json:"ttl"`
	Stats cache.Stats `json:"stats"`
}

// renderStats prints the cache statistics table.
func renderStats(w io.Writer, format, backend string, rows []statsRow) error {
	if format == outputJSON {
		return writeJSON(w, map[string]any{"backend": backend, "namespaces": rows})
	}

	fmt.Fprintln(w, headerStyle.Render("Cache backend: "+backend))
	p := message.NewPrinter(language.English)
	tw := tabwriter.NewWriter(w, 0, 0, tabPadding, ' ', 0)
	fmt.Fprintln(tw, "Namespace\tTTL\tEntries\tFresh\tExpired\tInvalid\tOldest")
	fmt.Fprintln(tw, "---------\t---\t-------\t-----\t-------\t-------\t------")
	for _, r := range rows {
		oldest := "-"
		if !r.Stats.Oldest.IsZero() {
			oldest = r.Stats.Oldest.Local().Format(time.DateTime)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Name, r.TTL,
			p.Sprintf("%d", r.Stats.Entries), p.Sprintf("%d", r.Stats.Fresh),
			p.Sprintf("%d", r.Stats.Expired), p.Sprintf("%d", r.Stats.Invalid),
			oldest)
	}
	return tw.Flush()
}
