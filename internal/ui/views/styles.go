package views

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles contains all the style definitions for the UI
type Styles struct {
	Title       lipgloss.Style
	Heading     lipgloss.Style
	Dim         lipgloss.Style
	Status      lipgloss.Style
	Query       lipgloss.Style
	Prompt      lipgloss.Style
	Help        lipgloss.Style
	Main        lipgloss.Style
	Scroll      lipgloss.Style
	Highlight   lipgloss.Style
	ID          lipgloss.Style
	Extra       lipgloss.Style
	StatusError lipgloss.Style
	SelectionBg lipgloss.Style
}

// NewStyles creates a new Styles instance with default values
func NewStyles() *Styles {
	return &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")),
		Heading: lipgloss.NewStyle().Bold(true).MarginBottom(1),
		Dim:     lipgloss.NewStyle().Faint(true),
		Status: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginTop(1),
		Query:       lipgloss.NewStyle().Foreground(lipgloss.Color("214")), // yellow
		Prompt:      lipgloss.NewStyle().Foreground(lipgloss.Color("33")),
		Help:        lipgloss.NewStyle().Faint(true),
		Main:        lipgloss.NewStyle().Padding(1, 2),
		Scroll:      lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true),
		Highlight:   lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Bold(true),
		ID:          lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Extra:       lipgloss.NewStyle().Foreground(lipgloss.Color("78")), // green
		StatusError: lipgloss.NewStyle().Foreground(lipgloss.Color("203")), // red
		SelectionBg: lipgloss.NewStyle().Background(lipgloss.Color("238")),
	}
}
