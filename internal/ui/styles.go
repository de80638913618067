package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme holds the styles for one look of the window. The two themes
// render the same content and differ only cosmetically.
type Theme struct {
	Name   string
	Title  lipgloss.Style
	Label  lipgloss.Style
	Pane   lipgloss.Style
	Status lipgloss.Style
	Help   lipgloss.Style
}

// ClassicTheme is plain text with a separator line, like a stock label stack
func ClassicTheme() Theme {
	return Theme{
		Name:   "classic",
		Title:  lipgloss.NewStyle().Bold(true),
		Label:  lipgloss.NewStyle(),
		Pane:   lipgloss.NewStyle().BorderStyle(lipgloss.NormalBorder()).BorderTop(true),
		Status: lipgloss.NewStyle().Faint(true),
		Help:   lipgloss.NewStyle().Faint(true),
	}
}

// ModernTheme uses padded, colored labels and a rounded sensor pane
func ModernTheme() Theme {
	accent := lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7D79F6"}
	muted := lipgloss.AdaptiveColor{Light: "#6B6B6B", Dark: "#9A9A9A"}
	return Theme{
		Name:   "modern",
		Title:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Background(accent).Padding(0, 1),
		Label:  lipgloss.NewStyle().Foreground(accent).PaddingLeft(1),
		Pane:   lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(accent).Padding(0, 1),
		Status: lipgloss.NewStyle().Foreground(muted).PaddingLeft(1),
		Help:   lipgloss.NewStyle().Foreground(muted).PaddingLeft(1),
	}
}

// ThemeByName returns the named theme, falling back to classic
func ThemeByName(name string) Theme {
	if strings.EqualFold(name, "modern") {
		return ModernTheme()
	}
	return ClassicTheme()
}
