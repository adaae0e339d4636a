package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"compdash/internal/detect"
)

// frameworkFilters is the "f" key cycle order; empty means all frameworks.
var frameworkFilters = []detect.Framework{"", detect.FrameworkPCIDSS, detect.FrameworkGDPR, detect.FrameworkCCPA}

// ViolationsPage lists violations in a filterable table.
type ViolationsPage struct {
	deps    Deps
	styles  Styles
	table   table.Model
	filter  int // index into frameworkFilters
	loadErr error
}

// NewViolationsPage creates the violation analysis page.
func NewViolationsPage(deps Deps, styles Styles) *ViolationsPage {
	t := table.New(
		table.WithColumns(violationColumns(80)),
		table.WithFocused(true),
		table.WithHeight(15),
	)
	return &ViolationsPage{deps: deps, styles: styles, table: t}
}

func violationColumns(width int) []table.Column {
	desc := width - 58
	if desc < 16 {
		desc = 16
	}
	return []table.Column{
		{Title: "ID", Width: 13},
		{Title: "Framework", Width: 9},
		{Title: "Severity", Width: 8},
		{Title: "Status", Width: 11},
		{Title: "Detected", Width: 16},
		{Title: "Description", Width: desc},
	}
}

// Init refreshes content on mount.
func (p *ViolationsPage) Init() tea.Cmd {
	p.refresh()
	return nil
}

// SetSize resizes the table.
func (p *ViolationsPage) SetSize(w, h int) {
	p.table.SetColumns(violationColumns(w - 4))
	p.table.SetHeight(max(h-5, 3))
}

// Update handles table navigation and the framework filter cycle.
func (p *ViolationsPage) Update(msg tea.Msg) tea.Cmd {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "f":
			p.filter = (p.filter + 1) % len(frameworkFilters)
			p.refresh()
			return nil
		case "r":
			p.refresh()
			return nil
		}
	}
	var cmd tea.Cmd
	p.table, cmd = p.table.Update(msg)
	return cmd
}

// View renders the page.
func (p *ViolationsPage) View() string {
	if p.loadErr != nil {
		return p.styles.Content.Render(p.styles.Error.Render("violations unavailable: " + p.loadErr.Error()))
	}

	filterLabel := "all frameworks"
	if fw := frameworkFilters[p.filter]; fw != "" {
		filterLabel = string(fw)
	}
	header := p.styles.Title.Render("Violation Analysis") + "  " +
		p.styles.Muted.Render(fmt.Sprintf("filter: %s (f to cycle)", filterLabel))
	return p.styles.Content.Render(header + "\n" + p.table.View())
}

func (p *ViolationsPage) refresh() {
	violations, err := p.deps.Violations.List(context.Background(), frameworkFilters[p.filter], 500)
	if err != nil {
		p.loadErr = err
		return
	}
	p.loadErr = nil

	rows := make([]table.Row, 0, len(violations))
	for _, v := range violations {
		rows = append(rows, table.Row{
			v.ID,
			string(v.Framework),
			string(v.Severity),
			string(v.Status),
			v.DetectedAt.Format("2006-01-02 15:04"),
			v.Description,
		})
	}
	p.table.SetRows(rows)
}

// Selected returns the violation id of the highlighted row, or "".
func (p *ViolationsPage) Selected() string {
	row := p.table.SelectedRow()
	if len(row) == 0 {
		return ""
	}
	return row[0]
}
