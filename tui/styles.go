package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/TFMV/liquiditymap/models"
	"github.com/TFMV/liquiditymap/render"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FBBF24")).
			MarginLeft(1)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))

	linkStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#374151"))

	labelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF"))

	detailStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#FBBF24")).
			Padding(0, 1)

	upStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#34D399"))
	downStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F87171"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginLeft(1)
)

// bubbleStyle colours a bubble cell with its group's stroke colour
func bubbleStyle(group models.Group, selected bool) lipgloss.Style {
	p := render.PaletteFor(group, selected)
	return lipgloss.NewStyle().Foreground(lipgloss.Color(p.Stroke))
}

func legendStyle(group models.Group) lipgloss.Style {
	p := render.PaletteFor(group, false)
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(lipgloss.Color(p.Fill)).
		Padding(0, 1)
}
