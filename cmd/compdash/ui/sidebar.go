package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// renderSidebar draws the navigation rail. Each entry shows its icon, label,
// and shortcut number; the active entry gets the active row style, and
// featured entries carry an accent marker that stays visible while active.
func renderSidebar(s Styles, entries []RouteEntry, isActive func(RouteEntry) bool, height int) string {
	var rows []string
	rows = append(rows, s.Title.Render(" compdash "))

	for i, e := range entries {
		label := fmt.Sprintf("%s %s", e.Icon, e.Label)
		if e.Featured {
			label = s.NavFeatured.Render("★") + " " + label
		}
		line := fmt.Sprintf("%-*s %d", SidebarWidth-6, label, i+1)

		if isActive(e) {
			rows = append(rows, s.NavActive.Width(SidebarWidth-2).Render(line))
		} else {
			rows = append(rows, s.NavItem.Width(SidebarWidth-2).Render(line))
		}
	}

	body := strings.Join(rows, "\n")
	return s.Sidebar.Width(SidebarWidth).Height(height).Render(body)
}

// renderHeader draws the top bar with the tenant and active page label.
func renderHeader(s Styles, tenant, pageLabel string, width int) string {
	left := s.Header.Render(fmt.Sprintf(" %s compliance ", tenant))
	right := s.Muted.Render(pageLabel)
	gap := width - lipgloss.Width(left) - lipgloss.Width(right) - 1
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

// renderFooter draws the key hints line.
func renderFooter(s Styles, width int) string {
	hints := "1-9 pages  tab next  q quit"
	return s.Muted.Width(width).Render(" " + hints)
}
