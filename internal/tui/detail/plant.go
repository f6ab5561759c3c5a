package detail

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rshade/piante/internal/catalog"
)

// borderPadding accounts for the box border and padding.
const borderPadding = 4

//nolint:gochecknoglobals // Shared read-only styles.
var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("78")).Bold(true)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(14)
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("241")).
			Padding(0, 1)
)

// RenderPlant renders p as a bordered card no wider than width.
// Empty fields are left out.
func RenderPlant(p catalog.Plant, width int) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(p.Name))
	b.WriteString("\n")

	row := func(label, value string) {
		if strings.TrimSpace(value) == "" {
			return
		}
		b.WriteString("\n")
		b.WriteString(labelStyle.Render(label))
		b.WriteString(value)
	}
	row("Scientific", p.ScientificName)
	row("Family", p.Family)
	row("Watering", p.Watering)
	row("Difficulty", p.Difficulty)
	row("Traits", Traits(p))
	row("Categories", strings.Join(p.Categories, ", "))
	row("Image", p.Image)

	if p.Description != "" {
		b.WriteString("\n\n")
		b.WriteString(lipgloss.NewStyle().Width(max(width-borderPadding*2, 20)).Render(p.Description))
	}

	style := boxStyle
	if width > borderPadding {
		style = style.Width(width - borderPadding)
	}
	return style.Render(b.String())
}

// Traits lists the boolean traits of p that are set, e.g. "indoor, edible".
func Traits(p catalog.Plant) string {
	var traits []string
	if p.Indoor {
		traits = append(traits, catalog.FlagIndoor)
	}
	if p.Flowers {
		traits = append(traits, catalog.FlagFlowers)
	}
	if p.Edible {
		traits = append(traits, catalog.FlagEdible)
	}
	return strings.Join(traits, ", ")
}
