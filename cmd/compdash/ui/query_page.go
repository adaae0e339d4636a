package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"compdash/internal/reasoner"
)

// answerMsg delivers an async query answer to the query page.
type answerMsg struct {
	answer reasoner.Answer
	err    error
}

// QueryPage is the natural-language compliance query console.
type QueryPage struct {
	deps     Deps
	styles   Styles
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	answer  *reasoner.Answer
	waiting bool
	lastErr error
	width   int
}

// NewQueryPage creates the compliance query page.
func NewQueryPage(deps Deps, styles Styles) *QueryPage {
	ti := textinput.New()
	ti.Placeholder = "Ask about PCI-DSS, GDPR, or CCPA requirements…"
	ti.CharLimit = 300
	ti.Width = 70

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = styles.Info

	return &QueryPage{
		deps:     deps,
		styles:   styles,
		input:    ti,
		viewport: viewport.New(80, 16),
		spinner:  sp,
		width:    80,
	}
}

// Init mounts the page with the input blurred so global shortcuts keep
// working; enter begins editing.
func (p *QueryPage) Init() tea.Cmd {
	return nil
}

// SetSize resizes the input and the answer viewport.
func (p *QueryPage) SetSize(w, h int) {
	p.width = w
	p.input.Width = max(w-10, 20)
	p.viewport.Width = w
	p.viewport.Height = max(h-4, 4)
}

// Update handles question submission and answer delivery.
func (p *QueryPage) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case answerMsg:
		p.waiting = false
		if msg.err != nil {
			p.lastErr = msg.err
			return nil
		}
		p.lastErr = nil
		p.answer = &msg.answer
		p.viewport.SetContent(p.renderAnswer(msg.answer))
		p.viewport.GotoTop()
		return nil

	case spinner.TickMsg:
		if !p.waiting {
			return nil
		}
		var cmd tea.Cmd
		p.spinner, cmd = p.spinner.Update(msg)
		return cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			p.input.Blur()
			return nil
		case "enter":
			if !p.input.Focused() {
				return p.input.Focus()
			}
			if p.waiting {
				return nil
			}
			question := strings.TrimSpace(p.input.Value())
			if question == "" {
				return nil
			}
			p.waiting = true
			cognitive := p.deps.Cognitive
			return tea.Batch(p.spinner.Tick, func() tea.Msg {
				ans, err := cognitive.AnswerQuery(context.Background(), question)
				return answerMsg{answer: ans, err: err}
			})
		}
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	cmds = append(cmds, cmd)
	p.viewport, cmd = p.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return tea.Batch(cmds...)
}

// View renders the page.
func (p *QueryPage) View() string {
	var sb strings.Builder
	sb.WriteString(p.styles.Title.Render("Compliance Query") + "\n")
	sb.WriteString(p.input.View() + "\n")

	switch {
	case p.waiting:
		sb.WriteString(p.spinner.View() + " " + p.styles.Muted.Render("consulting regulation corpus…"))
	case p.lastErr != nil:
		sb.WriteString(p.styles.Error.Render("query failed: " + p.lastErr.Error()))
	case p.answer != nil:
		sb.WriteString(p.viewport.View())
	default:
		sb.WriteString(p.styles.Muted.Render("Answers cite regulation clauses retrieved from the corpus."))
	}
	sb.WriteString("\n\n" + p.styles.Muted.Render("enter edit/ask  esc release input"))
	return p.styles.Content.Render(sb.String())
}

// CapturesInput reports whether typed keys belong to the question input.
func (p *QueryPage) CapturesInput() bool { return p.input.Focused() }

// renderAnswer converts answer markdown to styled terminal output, falling
// back to the raw markdown when the renderer cannot be constructed.
func (p *QueryPage) renderAnswer(ans reasoner.Answer) string {
	body := ans.Markdown
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(max(p.width-4, 40)),
	)
	if err == nil {
		if rendered, rerr := r.Render(ans.Markdown); rerr == nil {
			body = rendered
		}
	}
	footer := p.styles.Muted.Render(fmt.Sprintf("%d clauses retrieved in %s", len(ans.Clauses), ans.Took.Round(time.Millisecond)))
	return body + "\n" + footer
}
