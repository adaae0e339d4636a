package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"compdash/internal/detect"
)

// OverviewPage summarizes compliance posture: per-framework scores and open
// violation counts by severity.
type OverviewPage struct {
	deps     Deps
	styles   Styles
	viewport viewport.Model
	progress progress.Model
	width    int
	height   int
	loadErr  error
}

// NewOverviewPage creates the overview page.
func NewOverviewPage(deps Deps, styles Styles) *OverviewPage {
	return &OverviewPage{
		deps:     deps,
		styles:   styles,
		viewport: viewport.New(80, 20),
		progress: progress.New(progress.WithDefaultGradient()),
	}
}

// Init refreshes content on mount.
func (p *OverviewPage) Init() tea.Cmd {
	p.refresh()
	return nil
}

// SetSize updates the viewport dimensions.
func (p *OverviewPage) SetSize(w, h int) {
	p.width, p.height = w, h
	p.viewport.Width = w
	p.viewport.Height = h
	p.progress.Width = min(w-30, 40)
}

// Update handles scrolling and manual refresh.
func (p *OverviewPage) Update(msg tea.Msg) tea.Cmd {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "r" {
		p.refresh()
		return nil
	}
	var cmd tea.Cmd
	p.viewport, cmd = p.viewport.Update(msg)
	return cmd
}

// View renders the page.
func (p *OverviewPage) View() string {
	if p.loadErr != nil {
		return p.styles.Content.Render(p.styles.Error.Render("overview unavailable: " + p.loadErr.Error()))
	}
	return p.styles.Content.Render(p.viewport.View())
}

func (p *OverviewPage) refresh() {
	ctx := context.Background()

	byFramework, err := p.deps.Violations.CountByFramework(ctx)
	if err != nil {
		p.loadErr = err
		return
	}
	bySeverity, err := p.deps.Violations.CountBySeverity(ctx)
	if err != nil {
		p.loadErr = err
		return
	}
	assessment, err := p.deps.Policy.Evaluate(byFramework)
	if err != nil {
		p.loadErr = err
		return
	}
	p.loadErr = nil

	var sb strings.Builder
	sb.WriteString(p.styles.Title.Render("Compliance Overview") + "\n\n")

	sb.WriteString(p.styles.Bold.Render("Framework scores") + "\n")
	for _, fw := range []detect.Framework{detect.FrameworkPCIDSS, detect.FrameworkGDPR, detect.FrameworkCCPA} {
		score := assessment.Scores[fw]
		c := byFramework[fw]
		fmt.Fprintf(&sb, "%-8s %s  %s\n", fw, p.progress.ViewAs(score),
			p.styles.Muted.Render(fmt.Sprintf("%d open / %d total", c.Open, c.Total)))
	}
	sb.WriteString("\n")

	sb.WriteString(p.styles.Bold.Render("Open violations by severity") + "\n")
	for _, sev := range []detect.Severity{detect.SeverityCritical, detect.SeverityHigh, detect.SeverityMedium, detect.SeverityLow} {
		n := bySeverity[sev]
		line := fmt.Sprintf("%-10s %d", sev, n)
		if n > 0 {
			line = p.styles.SeverityStyle(string(sev)).Render(line)
		} else {
			line = p.styles.Muted.Render(line)
		}
		sb.WriteString(line + "\n")
	}

	atRisk := 0
	for _, gs := range assessment.Goals {
		if gs.State != "satisfied" {
			atRisk++
		}
	}
	sb.WriteString("\n")
	if atRisk == 0 {
		sb.WriteString(p.styles.Success.Render("All compliance goals satisfied"))
	} else {
		sb.WriteString(p.styles.Warning.Render(fmt.Sprintf("%d goal(s) at risk — see Goal Graph", atRisk)))
	}
	sb.WriteString("\n\n" + p.styles.Muted.Render("r refresh"))

	p.viewport.SetContent(sb.String())
}
