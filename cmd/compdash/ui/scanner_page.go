package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"

	"compdash/internal/detect"
)

// ScannerPage scans pasted text against every regulation at once.
type ScannerPage struct {
	deps   Deps
	styles Styles
	editor textarea.Model

	findings []detect.Finding
	scanned  bool
}

// NewScannerPage creates the multi-regulation scanner page.
func NewScannerPage(deps Deps, styles Styles) *ScannerPage {
	ta := textarea.New()
	ta.Placeholder = "Paste a transaction log, chat transcript, or message here…"
	ta.SetHeight(8)
	ta.SetWidth(72)
	return &ScannerPage{deps: deps, styles: styles, editor: ta}
}

// Init mounts the page with the editor blurred so global shortcuts keep
// working; enter begins editing.
func (p *ScannerPage) Init() tea.Cmd {
	return nil
}

// SetSize resizes the editor.
func (p *ScannerPage) SetSize(w, h int) {
	p.editor.SetWidth(max(w-4, 40))
	p.editor.SetHeight(max(min(h/2, 10), 4))
}

// Update handles scan and clear keys; everything else edits the text.
func (p *ScannerPage) Update(msg tea.Msg) tea.Cmd {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			p.editor.Blur()
			return nil
		case "enter":
			if !p.editor.Focused() {
				return p.editor.Focus()
			}
		case "ctrl+s":
			p.findings = p.deps.Registry.ScanAll(p.editor.Value())
			p.scanned = true
			return nil
		case "ctrl+l":
			p.editor.Reset()
			p.findings = nil
			p.scanned = false
			return nil
		}
	}
	var cmd tea.Cmd
	p.editor, cmd = p.editor.Update(msg)
	return cmd
}

// CapturesInput reports whether typed keys belong to the editor.
func (p *ScannerPage) CapturesInput() bool { return p.editor.Focused() }

// View renders the editor and the per-framework scan results.
func (p *ScannerPage) View() string {
	var sb strings.Builder
	sb.WriteString(p.styles.Title.Render("Multi-Regulation Scanner") + "\n")
	sb.WriteString(p.editor.View() + "\n")
	sb.WriteString(p.styles.Muted.Render("enter edit  ctrl+s scan  ctrl+l clear  esc release input") + "\n\n")

	switch {
	case !p.scanned:
		sb.WriteString(p.styles.Muted.Render("Results from all three regulation detectors appear here."))
	case len(p.findings) == 0:
		sb.WriteString(p.styles.Success.Render("✓ CLEAN") + "  " +
			p.styles.Muted.Render("no violations across PCI-DSS, GDPR, or CCPA"))
	default:
		fmt.Fprintf(&sb, "%s  %d finding(s)\n\n",
			p.styles.Error.Render("✗ VIOLATIONS"), len(p.findings))
		for _, fw := range []detect.Framework{detect.FrameworkPCIDSS, detect.FrameworkGDPR, detect.FrameworkCCPA} {
			matched := false
			for _, f := range p.findings {
				if f.Framework != fw {
					continue
				}
				if !matched {
					sb.WriteString(p.styles.Bold.Render(string(fw)) + "\n")
					matched = true
				}
				fmt.Fprintf(&sb, "  %s %s  %s\n      %s\n",
					p.styles.SeverityStyle(string(f.Severity)).Render(string(f.Severity)),
					f.Kind, f.Match,
					p.styles.Muted.Render(f.Clause))
			}
		}
	}
	return p.styles.Content.Render(sb.String())
}
