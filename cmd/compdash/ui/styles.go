// Package ui implements the compdash terminal dashboard: a fixed navigation
// sidebar plus a routed content area that swaps between independent pages.
package ui

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette shared by both themes.
var (
	ColorCritical = lipgloss.Color("#e53935")
	ColorWarning  = lipgloss.Color("#FFC107")
	ColorSuccess  = lipgloss.Color("#8BC34A")
	ColorInfo     = lipgloss.Color("#2196F3")
)

// Theme holds one color scheme.
type Theme struct {
	Background lipgloss.Color
	Foreground lipgloss.Color
	Primary    lipgloss.Color
	Accent     lipgloss.Color
	Muted      lipgloss.Color
	Border     lipgloss.Color
	IsDark     bool
}

// LightTheme returns the light scheme.
func LightTheme() Theme {
	return Theme{
		Background: lipgloss.Color("#f4f5f6"),
		Foreground: lipgloss.Color("#101F38"),
		Primary:    lipgloss.Color("#101F38"),
		Accent:     lipgloss.Color("#8BC34A"),
		Muted:      lipgloss.Color("#8a93a3"),
		Border:     lipgloss.Color("#dce0e5"),
	}
}

// DarkTheme returns the dark scheme.
func DarkTheme() Theme {
	return Theme{
		Background: lipgloss.Color("#141d2b"),
		Foreground: lipgloss.Color("#f2f2f2"),
		Primary:    lipgloss.Color("#8BC34A"),
		Accent:     lipgloss.Color("#8BC34A"),
		Muted:      lipgloss.Color("#6b7689"),
		Border:     lipgloss.Color("#2a3850"),
		IsDark:     true,
	}
}

// ThemeFor maps a config theme name to a Theme; "auto" inspects COLORFGBG.
func ThemeFor(name string) Theme {
	switch name {
	case "light":
		return LightTheme()
	case "dark":
		return DarkTheme()
	}
	if parts := strings.Split(os.Getenv("COLORFGBG"), ";"); len(parts) == 2 {
		if bg, err := strconv.Atoi(parts[1]); err == nil && ((bg >= 0 && bg <= 6) || bg == 8) {
			return DarkTheme()
		}
	}
	return LightTheme()
}

// Styles holds the styled components the shell and pages share.
type Styles struct {
	Theme Theme

	Header  lipgloss.Style
	Title   lipgloss.Style
	Body    lipgloss.Style
	Muted   lipgloss.Style
	Bold    lipgloss.Style
	Content lipgloss.Style

	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style

	// Sidebar rows. NavFeatured is an independent emphasis that composes
	// with NavActive rather than replacing it.
	Sidebar     lipgloss.Style
	NavItem     lipgloss.Style
	NavActive   lipgloss.Style
	NavFeatured lipgloss.Style
}

// NewStyles builds the style set for a theme.
func NewStyles(theme Theme) Styles {
	return Styles{
		Theme: theme,

		Header: lipgloss.NewStyle().
			Background(theme.Primary).
			Foreground(lipgloss.Color("#ffffff")).
			Padding(0, 2).
			Bold(true),

		Title: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true).
			MarginBottom(1),

		Body:  lipgloss.NewStyle().Foreground(theme.Foreground),
		Muted: lipgloss.NewStyle().Foreground(theme.Muted),
		Bold:  lipgloss.NewStyle().Foreground(theme.Foreground).Bold(true),

		Content: lipgloss.NewStyle().Padding(1, 2),

		Success: lipgloss.NewStyle().Foreground(ColorSuccess).Bold(true),
		Error:   lipgloss.NewStyle().Foreground(ColorCritical).Bold(true),
		Warning: lipgloss.NewStyle().Foreground(ColorWarning).Bold(true),
		Info:    lipgloss.NewStyle().Foreground(ColorInfo),

		Sidebar: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderRight(true).
			BorderForeground(theme.Border).
			Padding(1, 0),

		NavItem: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			Padding(0, 1),

		NavActive: lipgloss.NewStyle().
			Background(theme.Primary).
			Foreground(lipgloss.Color("#ffffff")).
			Padding(0, 1).
			Bold(true),

		NavFeatured: lipgloss.NewStyle().
			Foreground(theme.Accent).
			Bold(true),
	}
}

// DefaultStyles returns styles with the auto-detected theme.
func DefaultStyles() Styles {
	return NewStyles(ThemeFor("auto"))
}

// SeverityStyle maps a severity string to its status style.
func (s Styles) SeverityStyle(severity string) lipgloss.Style {
	switch severity {
	case "Critical":
		return s.Error
	case "High":
		return s.Warning
	default:
		return s.Info
	}
}
