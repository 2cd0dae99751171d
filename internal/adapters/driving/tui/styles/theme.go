// Package styles holds the colour palette and lipgloss styles of the TUI.
package styles

import "github.com/charmbracelet/lipgloss"

// Theme is the colour palette the styles are built from.
type Theme struct {
	Primary    lipgloss.Color // title, selection and focused input
	Secondary  lipgloss.Color // file locations
	Background lipgloss.Color // status bar
	Foreground lipgloss.Color
	Muted      lipgloss.Color
	Success    lipgloss.Color
	Match      lipgloss.Color // query terms inside snippets
	Error      lipgloss.Color
	Border     lipgloss.Color
}

// DefaultTheme returns the amber on stone palette.
func DefaultTheme() *Theme {
	return &Theme{
		Primary:    lipgloss.Color("#D97706"),
		Secondary:  lipgloss.Color("#0EA5E9"),
		Background: lipgloss.Color("#1C1917"),
		Foreground: lipgloss.Color("#E7E5E4"),
		Muted:      lipgloss.Color("#78716C"),
		Success:    lipgloss.Color("#84CC16"),
		Match:      lipgloss.Color("#FACC15"),
		Error:      lipgloss.Color("#F87171"),
		Border:     lipgloss.Color("#44403C"),
	}
}

// Styles are the rendered styles shared by every component.
type Styles struct {
	theme *Theme

	Title    lipgloss.Style
	Subtitle lipgloss.Style // results header
	Normal   lipgloss.Style
	Muted    lipgloss.Style
	Selected lipgloss.Style
	Error    lipgloss.Style
	Success  lipgloss.Style
	Help     lipgloss.Style

	Highlight lipgloss.Style
	Location  lipgloss.Style

	InputField   lipgloss.Style
	InputFocused lipgloss.Style
	StatusBar    lipgloss.Style
}

// NewStyles builds the styles for theme, falling back to DefaultTheme.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}

	fg := func(c lipgloss.Color) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(c)
	}
	field := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border).
		Padding(0, 1)

	return &Styles{
		theme:    theme,
		Title:    fg(theme.Primary).Bold(true),
		Subtitle: fg(theme.Foreground).Bold(true),
		Normal:   fg(theme.Foreground),
		Muted:    fg(theme.Muted),
		Selected: fg(theme.Foreground).Background(theme.Primary).Bold(true),
		Error:    fg(theme.Error),
		Success:  fg(theme.Success),
		Help:     fg(theme.Muted),

		Highlight: fg(theme.Match).Bold(true),
		Location:  fg(theme.Secondary),

		InputField:   field,
		InputFocused: field.BorderForeground(theme.Primary),
		StatusBar:    fg(theme.Muted).Background(theme.Background).Padding(0, 1),
	}
}

// DefaultStyles returns NewStyles(DefaultTheme()).
func DefaultStyles() *Styles {
	return NewStyles(DefaultTheme())
}

// Theme returns the palette the styles were built from.
func (s *Styles) Theme() *Theme {
	return s.theme
}
