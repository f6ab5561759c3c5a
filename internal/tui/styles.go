package tui

import "github.com/charmbracelet/lipgloss"

// Palette.
//
//nolint:gochecknoglobals // Shared read-only styles.
var (
	ColorHeader    = lipgloss.Color("78")
	ColorLabel     = lipgloss.Color("245")
	ColorValue     = lipgloss.Color("252")
	ColorMuted     = lipgloss.Color("241")
	ColorHighlight = lipgloss.Color("156")
	ColorCritical  = lipgloss.Color("203")
)

// Styles used by the browse view.
//
//nolint:gochecknoglobals // Shared read-only styles.
var (
	TitleStyle    = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	HeaderStyle   = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	LabelStyle    = lipgloss.NewStyle().Foreground(ColorLabel)
	MutedStyle    = lipgloss.NewStyle().Foreground(ColorMuted)
	SelectedStyle = lipgloss.NewStyle().Foreground(ColorHighlight).Bold(true)
	CriticalStyle = lipgloss.NewStyle().Foreground(ColorCritical).Bold(true)
)
