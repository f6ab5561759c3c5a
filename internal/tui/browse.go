package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rshade/piante/internal/catalog"
	"github.com/rshade/piante/internal/engine"
	"github.com/rshade/piante/internal/tui/detail"
	listview "github.com/rshade/piante/internal/tui/list"
)

const (
	defaultWidth  = 100
	defaultHeight = 30

	// chromeHeight is the number of rows used by title, filters, status and help.
	chromeHeight = 6

	// loadMoreThreshold is how close to the last row the selection gets
	// before the next page is requested.
	loadMoreThreshold = 3

	// Column widths of a plant row.
	colWidthName       = 28
	colWidthScientific = 30
	colWidthWatering   = 10
)

// Key bindings.
const (
	keyQuit    = "q"
	keyCtrlC   = "ctrl+c"
	keySearch  = "/"
	keyRefresh = "r"
	keyNext    = "n"
	keyPrev    = "p"
	keyClear   = "c"
	keyEnter   = "enter"
	keyEsc     = "esc"
)

// flagKeys maps the toggle keys to catalog flags.
//
//nolint:gochecknoglobals // Read-only key table.
var flagKeys = map[string]string{
	"i": catalog.FlagIndoor,
	"f": catalog.FlagFlowers,
	"e": catalog.FlagEdible,
}

// CatalogStore is the part of engine.Store the browser drives.
type CatalogStore interface {
	Snapshot() engine.State
	Subscribe(listener engine.Listener) func()
	FetchCatalog(ctx context.Context, category catalog.Category, filters catalog.FilterSet, forceRefresh bool)
	SetFilters(ctx context.Context, patch catalog.FilterPatch)
	GoToPage(ctx context.Context, page int)
	LoadMore(ctx context.Context)
}

// BrowseModel is the Bubble Tea model of the interactive catalog browser.
// Every store operation runs in a command; the view only changes when the
// store publishes a new snapshot.
//
//nolint:recvcheck // Bubble Tea requires value receivers for Init/Update/View interface methods.
type BrowseModel struct {
	ctx      context.Context
	store    CatalogStore
	feed     *stateFeed
	category catalog.Category
	filters  catalog.FilterSet

	state   engine.State
	list    *listview.VirtualListModel[catalog.Plant]
	loading *LoadingState
	search  textinput.Model

	searching  bool
	showDetail bool
	width      int
	height     int
}

// NewBrowseModel creates a browser over store that starts by loading
// category with filters. Call Close once the program has exited.
func NewBrowseModel(
	ctx context.Context,
	store CatalogStore,
	category catalog.Category,
	filters catalog.FilterSet,
) BrowseModel {
	m := BrowseModel{
		ctx:      ctx,
		store:    store,
		feed:     newStateFeed(store.Subscribe),
		category: category,
		filters:  filters,
		state:    store.Snapshot(),
		loading:  NewLoadingState(),
		search:   newSearchInput(),
		width:    defaultWidth,
		height:   defaultHeight,
	}
	m.list = listview.NewVirtualListModel(m.state.Records, m.listHeight(), m.width, renderPlant)
	return m
}

func newSearchInput() textinput.Model {
	ti := textinput.New()
	ti.Placeholder = "search plants"
	ti.Prompt = "/ "
	ti.CharLimit = 100
	return ti
}

// Close stops forwarding store notifications.
func (m BrowseModel) Close() {
	m.feed.Close()
}

// State returns the last snapshot the view received.
func (m BrowseModel) State() engine.State {
	return m.state
}

// Init loads the first page and starts the spinner (Bubble Tea interface).
func (m BrowseModel) Init() tea.Cmd {
	category, filters := m.category, m.filters
	return tea.Batch(
		m.loading.Init(),
		m.feed.wait(),
		m.run(func(ctx context.Context) { m.store.FetchCatalog(ctx, category, filters, false) }),
	)
}

// run wraps a store operation in a command. The operation's result arrives
// through the feed, so the command itself yields no message.
func (m BrowseModel) run(op func(ctx context.Context)) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		op(ctx)
		return nil
	}
}

// Update handles messages (Bubble Tea interface).
func (m BrowseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.list.SetSize(m.width, m.listHeight())
		return m, nil
	case StateMsg:
		m.state = msg.State
		m.list.SetItems(m.state.Records)
		return m, m.feed.wait()
	case tea.KeyMsg:
		return m.handleKey(msg)
	default:
		cmds := []tea.Cmd{m.loading.Update(msg)}
		if m.searching {
			var cmd tea.Cmd
			m.search, cmd = m.search.Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	}
}

func (m BrowseModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == keyCtrlC {
		m.Close()
		return m, tea.Quit
	}
	if m.searching {
		return m.handleSearchKey(msg)
	}
	if m.showDetail {
		switch msg.String() {
		case keyEsc, keyEnter, keyQuit:
			m.showDetail = false
		}
		return m, nil
	}

	key := msg.String()
	if name, ok := flagKeys[key]; ok {
		patch := cycleFlag(m.state.Filters, name)
		return m, m.run(func(ctx context.Context) { m.store.SetFilters(ctx, patch) })
	}

	switch key {
	case keyQuit:
		m.Close()
		return m, tea.Quit
	case keySearch:
		m.searching = true
		m.search.SetValue(m.state.Filters.Search)
		m.search.CursorEnd()
		return m, m.search.Focus()
	case keyRefresh:
		category, filters := m.state.Category, m.state.Filters
		return m, m.run(func(ctx context.Context) { m.store.FetchCatalog(ctx, category, filters, true) })
	case keyNext:
		if !m.state.HasMore {
			return m, nil
		}
		page := m.state.Pagination.CurrentPage + 1
		return m, m.run(func(ctx context.Context) { m.store.GoToPage(ctx, page) })
	case keyPrev:
		page := m.state.Pagination.CurrentPage - 1
		if page < catalog.DefaultPage {
			return m, nil
		}
		return m, m.run(func(ctx context.Context) { m.store.GoToPage(ctx, page) })
	case keyClear:
		patch := clearPatch(m.state.Filters)
		return m, m.run(func(ctx context.Context) { m.store.SetFilters(ctx, patch) })
	case keyEnter:
		m.showDetail = m.list.GetSelectedItem() != nil
		return m, nil
	}

	m.list.Update(msg)
	if m.shouldLoadMore() {
		return m, m.run(m.store.LoadMore)
	}
	return m, nil
}

func (m BrowseModel) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case keyEnter:
		m.searching = false
		m.search.Blur()
		query := strings.TrimSpace(m.search.Value())
		if query == m.state.Filters.Search {
			return m, nil
		}
		return m, m.run(func(ctx context.Context) {
			m.store.SetFilters(ctx, catalog.FilterPatch{Search: catalog.StringPtr(query)})
		})
	case keyEsc:
		m.searching = false
		m.search.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

// shouldLoadMore reports whether the selection reached the end of the loaded
// records while more pages exist. A failed load may be retried.
func (m BrowseModel) shouldLoadMore() bool {
	if !m.state.HasMore || !m.list.NearEnd(loadMoreThreshold) {
		return false
	}
	return m.state.Phase == engine.PhaseIdle || m.state.Phase == engine.PhaseError
}

// cycleFlag moves a flag through unset, true, false and back to unset.
func cycleFlag(filters catalog.FilterSet, name string) catalog.FilterPatch {
	value, ok := filters.Flag(name)
	switch {
	case !ok:
		return catalog.FilterPatch{Flags: map[string]bool{name: true}}
	case value:
		return catalog.FilterPatch{Flags: map[string]bool{name: false}}
	default:
		return catalog.FilterPatch{Unset: []string{name}}
	}
}

// clearPatch removes the search text, watering and every flag of filters.
func clearPatch(filters catalog.FilterSet) catalog.FilterPatch {
	patch := catalog.FilterPatch{Search: catalog.StringPtr(""), Watering: catalog.StringPtr("")}
	for name := range filters.Flags {
		patch.Unset = append(patch.Unset, name)
	}
	return patch
}

func (m BrowseModel) listHeight() int {
	return max(m.height-chromeHeight, 1)
}

// View renders the browser (Bubble Tea interface).
func (m BrowseModel) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("piante") + MutedStyle.Render("  "+m.state.Category.String()))
	b.WriteString("\n")
	b.WriteString(LabelStyle.Render(describeFilters(m.state.Filters)))
	b.WriteString("\n")
	if m.searching {
		b.WriteString(m.search.View())
	}
	b.WriteString("\n")

	b.WriteString(m.body())
	b.WriteString("\n")
	b.WriteString(m.status())
	b.WriteString("\n")
	b.WriteString(MutedStyle.Render(
		"↑/↓ move  / search  i/f/e flags  c clear  n/p page  r refresh  enter details  q quit"))
	return b.String()
}

func (m BrowseModel) body() string {
	if m.showDetail {
		if p := m.list.GetSelectedItem(); p != nil {
			return detail.RenderPlant(*p, m.width)
		}
	}
	if len(m.state.Records) == 0 {
		switch {
		case m.state.IsLoading():
			return RenderLoading(m.loading)
		case m.state.Err != nil:
			return ""
		default:
			return MutedStyle.Render("No plants match the current filters.")
		}
	}
	return m.list.View()
}

func (m BrowseModel) status() string {
	if m.state.Err != nil {
		return CriticalStyle.Render(fmt.Sprintf("Error (%s): %s", m.state.Err.Kind, m.state.Err.Message))
	}
	if m.state.IsLoadingMore() || (m.state.IsLoading() && len(m.state.Records) > 0) {
		return RenderLoading(m.loading)
	}

	info := m.state.Pagination
	status := fmt.Sprintf("Page %d of %d  %d of %d plants",
		info.CurrentPage, max(info.TotalPages, 1), len(m.state.Records), info.Total)
	if m.state.Dropped > 0 {
		status += fmt.Sprintf("  (%d malformed skipped)", m.state.Dropped)
	}
	return MutedStyle.Render(status)
}

// describeFilters renders the active filters on one line.
func describeFilters(f catalog.FilterSet) string {
	parts := []string{}
	if f.Search != "" {
		parts = append(parts, fmt.Sprintf("search=%q", f.Search))
	}
	for _, name := range []string{catalog.FlagIndoor, catalog.FlagFlowers, catalog.FlagEdible} {
		if v, ok := f.Flag(name); ok {
			parts = append(parts, fmt.Sprintf("%s=%t", name, v))
		}
	}
	if f.Watering != "" {
		parts = append(parts, "watering="+f.Watering)
	}
	if len(parts) == 0 {
		return "no filters"
	}
	return strings.Join(parts, "  ")
}

func renderPlant(p catalog.Plant, selected bool) string {
	row := fmt.Sprintf("%-*s %-*s %-*s %s",
		colWidthName, truncate(p.Name, colWidthName),
		colWidthScientific, truncate(p.ScientificName, colWidthScientific),
		colWidthWatering, truncate(p.Watering, colWidthWatering),
		detail.Traits(p))
	if selected {
		return SelectedStyle.Render("> " + row)
	}
	return "  " + row
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "…"
}
