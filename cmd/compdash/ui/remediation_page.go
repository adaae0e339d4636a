package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"compdash/internal/reasoner"
	"compdash/internal/store"
)

// analysisMsg delivers an async reasoner verdict to the remediation page.
type analysisMsg struct {
	analysis reasoner.Analysis
	err      error
}

// RemediationPage lists open violations with recommended actions and drives
// their lifecycle (open → remediating → resolved).
type RemediationPage struct {
	deps     Deps
	styles   Styles
	viewport viewport.Model

	violations []store.Violation
	analyses   map[string]reasoner.Analysis
	cursor     int
	loadErr    error
	pending    bool
}

// NewRemediationPage creates the remediation page.
func NewRemediationPage(deps Deps, styles Styles) *RemediationPage {
	return &RemediationPage{
		deps:     deps,
		styles:   styles,
		viewport: viewport.New(80, 20),
		analyses: map[string]reasoner.Analysis{},
	}
}

// Init refreshes content on mount.
func (p *RemediationPage) Init() tea.Cmd {
	p.refresh()
	return nil
}

// SetSize updates the viewport dimensions.
func (p *RemediationPage) SetSize(w, h int) {
	p.viewport.Width = w
	p.viewport.Height = h
}

// Update handles cursor movement, analysis requests, and status transitions.
func (p *RemediationPage) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case analysisMsg:
		p.pending = false
		if msg.err == nil {
			p.analyses[msg.analysis.ViolationID] = msg.analysis
		}
		p.render()
		return nil

	case tea.KeyMsg:
		switch msg.String() {
		case "j", "down":
			if p.cursor < len(p.violations)-1 {
				p.cursor++
			}
			p.render()
			return nil
		case "k", "up":
			if p.cursor > 0 {
				p.cursor--
			}
			p.render()
			return nil
		case "enter":
			return p.analyzeSelected()
		case "a":
			return p.transitionSelected(store.StatusRemediating)
		case "d":
			return p.transitionSelected(store.StatusResolved)
		case "r":
			p.refresh()
			return nil
		}
	}
	var cmd tea.Cmd
	p.viewport, cmd = p.viewport.Update(msg)
	return cmd
}

// View renders the page.
func (p *RemediationPage) View() string {
	if p.loadErr != nil {
		return p.styles.Content.Render(p.styles.Error.Render("remediation unavailable: " + p.loadErr.Error()))
	}
	return p.styles.Content.Render(p.viewport.View())
}

// analyzeSelected asks the reasoner about the highlighted violation in a
// command so a slow model call never blocks the event loop.
func (p *RemediationPage) analyzeSelected() tea.Cmd {
	if p.cursor >= len(p.violations) || p.pending {
		return nil
	}
	v := p.violations[p.cursor]
	if _, done := p.analyses[v.ID]; done {
		return nil
	}
	p.pending = true
	cognitive := p.deps.Cognitive
	return func() tea.Msg {
		a, err := cognitive.Analyze(context.Background(), v)
		return analysisMsg{analysis: a, err: err}
	}
}

func (p *RemediationPage) transitionSelected(status store.Status) tea.Cmd {
	if p.cursor >= len(p.violations) {
		return nil
	}
	v := p.violations[p.cursor]
	if err := p.deps.Violations.SetStatus(context.Background(), v.ID, status); err != nil {
		p.loadErr = err
		return nil
	}
	p.refresh()
	return nil
}

func (p *RemediationPage) refresh() {
	all, err := p.deps.Violations.List(context.Background(), "", 200)
	if err != nil {
		p.loadErr = err
		return
	}
	p.loadErr = nil

	p.violations = p.violations[:0]
	for _, v := range all {
		if v.Status != store.StatusResolved {
			p.violations = append(p.violations, v)
		}
	}
	if p.cursor >= len(p.violations) {
		p.cursor = max(len(p.violations)-1, 0)
	}
	p.render()
}

func (p *RemediationPage) render() {
	if len(p.violations) == 0 {
		p.viewport.SetContent(p.styles.Success.Render("Nothing to remediate — no open violations."))
		return
	}

	var sb strings.Builder
	sb.WriteString(p.styles.Title.Render("Remediation Queue") + "\n\n")
	for i, v := range p.violations {
		marker := "  "
		if i == p.cursor {
			marker = p.styles.Bold.Render("➜ ")
		}
		sev := p.styles.SeverityStyle(string(v.Severity)).Render(string(v.Severity))
		fmt.Fprintf(&sb, "%s%s  %s  %s  %s\n", marker, v.ID, sev,
			p.styles.Muted.Render(string(v.Status)), v.Description)

		if a, ok := p.analyses[v.ID]; ok && i == p.cursor {
			autonomy := p.styles.Info
			if a.Autonomy == reasoner.AutonomyHumanGated {
				autonomy = p.styles.Warning
			}
			fmt.Fprintf(&sb, "     %s\n     %s %s\n",
				p.styles.Muted.Render(a.Explanation),
				autonomy.Render(string(a.Autonomy)),
				a.RecommendedAction)
		}
	}

	sb.WriteString("\n" + p.styles.Muted.Render("enter analyze  a start remediation  d mark resolved  r refresh"))
	if p.pending {
		sb.WriteString("\n" + p.styles.Info.Render("analyzing…"))
	}
	p.viewport.SetContent(sb.String())
}
