package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"compdash/internal/monitor"
)

// AgentActivityPage shows the reasoner and pipeline action log.
type AgentActivityPage struct {
	deps     Deps
	styles   Styles
	viewport viewport.Model
}

// NewAgentActivityPage creates the agent activity page.
func NewAgentActivityPage(deps Deps, styles Styles) *AgentActivityPage {
	return &AgentActivityPage{deps: deps, styles: styles, viewport: viewport.New(80, 20)}
}

// Init refreshes and starts the tick loop.
func (p *AgentActivityPage) Init() tea.Cmd {
	p.refresh()
	return feedTick()
}

// SetSize updates the viewport dimensions.
func (p *AgentActivityPage) SetSize(w, h int) {
	p.viewport.Width = w
	p.viewport.Height = h - 2
}

// Update handles ticks and scrolling.
func (p *AgentActivityPage) Update(msg tea.Msg) tea.Cmd {
	if _, ok := msg.(feedTickMsg); ok {
		p.refresh()
		return feedTick()
	}
	var cmd tea.Cmd
	p.viewport, cmd = p.viewport.Update(msg)
	return cmd
}

// View renders the page.
func (p *AgentActivityPage) View() string {
	return p.styles.Content.Render(p.styles.Title.Render("Agent Activity") + "\n" + p.viewport.View())
}

func (p *AgentActivityPage) refresh() {
	entries := p.deps.Activity.Snapshot()
	if len(entries) == 0 {
		p.viewport.SetContent(p.styles.Muted.Render("No agent activity yet. Actions appear here as violations are analyzed."))
		return
	}

	var sb strings.Builder
	for _, e := range entries {
		stamp := p.styles.Muted.Render(e.Time.Format("15:04:05"))
		line := e.Message
		if e.Kind == monitor.EntryError {
			line = p.styles.Warning.Render(line)
		}
		fmt.Fprintf(&sb, "%s  %s\n", stamp, line)
	}
	p.viewport.SetContent(sb.String())
	p.viewport.GotoBottom()
}
