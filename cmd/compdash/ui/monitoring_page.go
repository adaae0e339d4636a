package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"compdash/internal/monitor"
)

// feedTickMsg drives periodic feed refreshes while a feed page is mounted.
type feedTickMsg time.Time

func feedTick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return feedTickMsg(t) })
}

// MonitoringPage shows the live ingest/detection feed.
type MonitoringPage struct {
	deps     Deps
	styles   Styles
	viewport viewport.Model
	spinner  spinner.Model
}

// NewMonitoringPage creates the live monitoring page.
func NewMonitoringPage(deps Deps, styles Styles) *MonitoringPage {
	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = styles.Info
	return &MonitoringPage{deps: deps, styles: styles, viewport: viewport.New(80, 20), spinner: sp}
}

// Init refreshes and starts the tick loop; ticks stop arriving once the page
// is unmounted and restart on the next mount.
func (p *MonitoringPage) Init() tea.Cmd {
	p.refresh()
	return tea.Batch(feedTick(), p.spinner.Tick)
}

// SetSize updates the viewport dimensions.
func (p *MonitoringPage) SetSize(w, h int) {
	p.viewport.Width = w
	p.viewport.Height = h - 2
}

// Update handles ticks, spinner frames, and scrolling.
func (p *MonitoringPage) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case feedTickMsg:
		p.refresh()
		return feedTick()
	case spinner.TickMsg:
		var cmd tea.Cmd
		p.spinner, cmd = p.spinner.Update(msg)
		return cmd
	}
	var cmd tea.Cmd
	p.viewport, cmd = p.viewport.Update(msg)
	return cmd
}

// View renders the page.
func (p *MonitoringPage) View() string {
	header := fmt.Sprintf("%s %s", p.spinner.View(), p.styles.Title.Render("Live Monitoring"))
	return p.styles.Content.Render(header + "\n" + p.viewport.View())
}

func (p *MonitoringPage) refresh() {
	entries := p.deps.Feed.Snapshot()
	if len(entries) == 0 {
		p.viewport.SetContent(p.styles.Muted.Render("No events yet. Drop files into the sources directory or run `compdash ingest`."))
		return
	}

	var sb strings.Builder
	for _, e := range entries {
		stamp := p.styles.Muted.Render(e.Time.Format("15:04:05"))
		line := e.Message
		switch e.Kind {
		case monitor.EntryViolation:
			line = p.styles.Error.Render(line)
		case monitor.EntryError:
			line = p.styles.Warning.Render(line)
		}
		fmt.Fprintf(&sb, "%s  %s\n", stamp, line)
	}
	p.viewport.SetContent(sb.String())
	p.viewport.GotoBottom()
}
