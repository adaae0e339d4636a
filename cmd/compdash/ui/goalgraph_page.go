package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"compdash/internal/policy"
)

// GoalGraphPage renders the compliance goal tree with derived status markers.
type GoalGraphPage struct {
	deps     Deps
	styles   Styles
	viewport viewport.Model
	loadErr  error
}

// NewGoalGraphPage creates the goal graph page.
func NewGoalGraphPage(deps Deps, styles Styles) *GoalGraphPage {
	return &GoalGraphPage{deps: deps, styles: styles, viewport: viewport.New(80, 20)}
}

// Init refreshes content on mount.
func (p *GoalGraphPage) Init() tea.Cmd {
	p.refresh()
	return nil
}

// SetSize updates the viewport dimensions.
func (p *GoalGraphPage) SetSize(w, h int) {
	p.viewport.Width = w
	p.viewport.Height = h
}

// Update handles scrolling and manual refresh.
func (p *GoalGraphPage) Update(msg tea.Msg) tea.Cmd {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "r" {
		p.refresh()
		return nil
	}
	var cmd tea.Cmd
	p.viewport, cmd = p.viewport.Update(msg)
	return cmd
}

// View renders the page.
func (p *GoalGraphPage) View() string {
	if p.loadErr != nil {
		return p.styles.Content.Render(p.styles.Error.Render("goal graph unavailable: " + p.loadErr.Error()))
	}
	return p.styles.Content.Render(p.viewport.View())
}

func (p *GoalGraphPage) refresh() {
	ctx := context.Background()

	counts, err := p.deps.Violations.CountByFramework(ctx)
	if err != nil {
		p.loadErr = err
		return
	}
	assessment, err := p.deps.Policy.Evaluate(counts)
	if err != nil {
		p.loadErr = err
		return
	}
	p.loadErr = nil

	states := map[string]policy.GoalState{}
	for _, gs := range assessment.Goals {
		states[gs.Goal.ID] = gs.State
	}

	var sb strings.Builder
	sb.WriteString(p.styles.Title.Render("Goal Graph") + "\n\n")
	for _, gs := range assessment.Goals {
		depth := goalDepth(p.deps.Policy.Goals(), gs.Goal)
		indent := strings.Repeat("  ", depth)

		icon, style := "✓", p.styles.Success
		if gs.State == policy.GoalAtRisk {
			icon, style = "⚠", p.styles.Warning
		}

		label := gs.Goal.Label
		if gs.Goal.Framework != "" {
			label = fmt.Sprintf("%s  %s", label, p.styles.Muted.Render("["+string(gs.Goal.Framework)+"]"))
		}
		fmt.Fprintf(&sb, "%s%s %s\n", indent, style.Render(icon), label)
	}
	sb.WriteString("\n" + p.styles.Muted.Render("r refresh"))

	p.viewport.SetContent(sb.String())
}

// goalDepth counts parent hops to the root for indentation.
func goalDepth(goals []policy.Goal, g policy.Goal) int {
	byID := map[string]policy.Goal{}
	for _, goal := range goals {
		byID[goal.ID] = goal
	}
	depth := 0
	for g.Parent != "" {
		depth++
		g = byID[g.Parent]
	}
	return depth
}
