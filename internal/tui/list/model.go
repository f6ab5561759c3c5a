package listview

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// halfViewportDivisor is used to center the selection in the viewport.
const halfViewportDivisor = 2

// RenderFunc renders one item. selected is true for the highlighted row.
type RenderFunc[T any] func(item T, selected bool) string

// VirtualListModel renders only the visible portion of a list.
type VirtualListModel[T any] struct {
	items      []T
	renderFunc RenderFunc[T]

	selected    int
	visibleFrom int
	visibleTo   int

	height int
	width  int
}

// NewVirtualListModel creates a list over items with a viewport of height rows.
func NewVirtualListModel[T any](items []T, height, width int, renderFunc RenderFunc[T]) *VirtualListModel[T] {
	m := &VirtualListModel[T]{
		items:      items,
		renderFunc: renderFunc,
		height:     height,
		width:      width,
	}
	m.updateVisibleRange()
	return m
}

// Init implements tea.Model.
func (m *VirtualListModel[T]) Init() tea.Cmd {
	return nil
}

// Update handles navigation keys. Resizing is left to the owner, which knows
// how many rows its header and footer take; see SetSize.
func (m *VirtualListModel[T]) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		m.handleKey(key)
	}
	return m, nil
}

//nolint:exhaustive // Only navigation keys matter here.
func (m *VirtualListModel[T]) handleKey(msg tea.KeyMsg) {
	if len(m.items) == 0 {
		return
	}

	switch msg.Type {
	case tea.KeyUp:
		m.SetSelected(m.selected - 1)
	case tea.KeyDown:
		m.SetSelected(m.selected + 1)
	case tea.KeyPgUp:
		m.SetSelected(m.selected - max(m.height, 1))
	case tea.KeyPgDown:
		m.SetSelected(m.selected + max(m.height, 1))
	case tea.KeyHome:
		m.SetSelected(0)
	case tea.KeyEnd:
		m.SetSelected(len(m.items) - 1)
	case tea.KeyRunes:
		if len(msg.Runes) == 0 {
			return
		}
		switch msg.Runes[0] {
		case 'j':
			m.SetSelected(m.selected + 1)
		case 'k':
			m.SetSelected(m.selected - 1)
		case 'g':
			m.SetSelected(0)
		case 'G':
			m.SetSelected(len(m.items) - 1)
		}
	default:
	}
}

// SetItems replaces the items. The selection index is kept when it is still
// in range, so appending a page does not move the cursor.
func (m *VirtualListModel[T]) SetItems(items []T) {
	m.items = items
	m.SetSelected(m.selected)
}

// SetSize sets the viewport dimensions.
func (m *VirtualListModel[T]) SetSize(width, height int) {
	m.width = width
	m.height = max(height, 1)
	m.updateVisibleRange()
}

// NearEnd reports whether the selection is within threshold rows of the last item.
func (m *VirtualListModel[T]) NearEnd(threshold int) bool {
	if len(m.items) == 0 {
		return false
	}
	return m.selected >= len(m.items)-1-threshold
}

// updateVisibleRange keeps the selected row centered when possible.
func (m *VirtualListModel[T]) updateVisibleRange() {
	if len(m.items) == 0 {
		m.visibleFrom, m.visibleTo = 0, 0
		return
	}

	half := m.height / halfViewportDivisor
	from := m.selected - half
	to := from + m.height

	if from < 0 {
		from = 0
		to = m.height
	}
	if to > len(m.items) {
		to = len(m.items)
		from = max(to-m.height, 0)
	}

	m.visibleFrom, m.visibleTo = from, to
}

// View renders the visible rows.
func (m *VirtualListModel[T]) View() string {
	if len(m.items) == 0 {
		return ""
	}

	lines := make([]string, 0, m.visibleTo-m.visibleFrom)
	for i := m.visibleFrom; i < m.visibleTo; i++ {
		lines = append(lines, m.renderFunc(m.items[i], i == m.selected))
	}
	return strings.Join(lines, "\n")
}

// ItemCount returns the number of items.
func (m *VirtualListModel[T]) ItemCount() int {
	return len(m.items)
}

// Selected returns the selected index.
func (m *VirtualListModel[T]) Selected() int {
	return m.selected
}

// SetSelected moves the selection, clamped to the valid range.
func (m *VirtualListModel[T]) SetSelected(index int) {
	switch {
	case len(m.items) == 0, index < 0:
		m.selected = 0
	case index >= len(m.items):
		m.selected = len(m.items) - 1
	default:
		m.selected = index
	}
	m.updateVisibleRange()
}

// VisibleFrom returns the first visible index (inclusive).
func (m *VirtualListModel[T]) VisibleFrom() int {
	return m.visibleFrom
}

// VisibleTo returns the last visible index (exclusive).
func (m *VirtualListModel[T]) VisibleTo() int {
	return m.visibleTo
}

// Height returns the viewport height.
func (m *VirtualListModel[T]) Height() int {
	return m.height
}

// Width returns the viewport width.
func (m *VirtualListModel[T]) Width() int {
	return m.width
}

// GetSelectedItem returns the selected item, or nil when the list is empty.
func (m *VirtualListModel[T]) GetSelectedItem() *T {
	if len(m.items) == 0 {
		return nil
	}
	return &m.items[m.selected]
}
