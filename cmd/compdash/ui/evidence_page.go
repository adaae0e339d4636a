package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"compdash/internal/evidence"
)

// EvidencePage shows the audit chain and the result of integrity verification.
type EvidencePage struct {
	deps     Deps
	styles   Styles
	viewport viewport.Model

	records []evidence.Record
	chain   []evidence.ChainNode
	verify  evidence.VerifyResult
	loadErr error
}

// NewEvidencePage creates the evidence audit page.
func NewEvidencePage(deps Deps, styles Styles) *EvidencePage {
	return &EvidencePage{deps: deps, styles: styles, viewport: viewport.New(80, 20)}
}

// Init refreshes content on mount.
func (p *EvidencePage) Init() tea.Cmd {
	p.refresh()
	return nil
}

// SetSize updates the viewport dimensions.
func (p *EvidencePage) SetSize(w, h int) {
	p.viewport.Width = w
	p.viewport.Height = h
}

// Update handles scrolling and manual re-verification.
func (p *EvidencePage) Update(msg tea.Msg) tea.Cmd {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "v", "r":
			p.refresh()
			return nil
		}
	}
	var cmd tea.Cmd
	p.viewport, cmd = p.viewport.Update(msg)
	return cmd
}

// View renders the page.
func (p *EvidencePage) View() string {
	if p.loadErr != nil {
		return p.styles.Content.Render(p.styles.Error.Render("evidence unavailable: " + p.loadErr.Error()))
	}
	return p.styles.Content.Render(p.viewport.View())
}

func (p *EvidencePage) refresh() {
	ctx := context.Background()

	records, err := p.deps.Vault.Records(ctx, 100)
	if err != nil {
		p.loadErr = err
		return
	}
	chain, err := p.deps.Vault.Chain(ctx)
	if err != nil {
		p.loadErr = err
		return
	}
	result, err := p.deps.Vault.Verify(ctx)
	if err != nil {
		p.loadErr = err
		return
	}
	p.records, p.chain, p.verify, p.loadErr = records, chain, result, nil
	p.render()
}

func (p *EvidencePage) render() {
	var sb strings.Builder
	sb.WriteString(p.styles.Title.Render("Evidence Audit") + "\n")

	if p.verify.Nodes == 0 {
		sb.WriteString(p.styles.Muted.Render("Chain is empty. Evidence accrues as violations are detected.") + "\n\n")
	} else if p.verify.Valid {
		fmt.Fprintf(&sb, "%s  %d chain nodes verified\n\n",
			p.styles.Success.Render("✓ CHAIN INTACT"), p.verify.Nodes)
	} else {
		fmt.Fprintf(&sb, "%s  broken at node %d: %s\n\n",
			p.styles.Error.Render("✗ CHAIN BROKEN"), p.verify.BrokenAt, p.verify.Reason)
	}

	byID := map[string]evidence.Record{}
	for _, rec := range p.records {
		byID[rec.ID] = rec
	}

	for i := len(p.chain) - 1; i >= 0; i-- {
		node := p.chain[i]
		rec, ok := byID[node.EvidenceID]
		payload := rec.Payload
		if !ok {
			payload = p.styles.Error.Render("record missing")
		}
		fmt.Fprintf(&sb, "%s %s %s\n      %s\n      %s\n",
			p.styles.Muted.Render(fmt.Sprintf("#%03d", node.Sequence)),
			p.styles.Bold.Render(node.EvidenceID),
			p.styles.Muted.Render(rec.EventType),
			payload,
			p.styles.Muted.Render("hash "+shortHash(node.NodeHash)+"  prev "+shortHash(node.PrevHash)),
		)
	}

	sb.WriteString("\n" + p.styles.Muted.Render("v verify chain  r refresh"))
	p.viewport.SetContent(sb.String())
}

// shortHash abbreviates a hex hash for display.
func shortHash(h string) string {
	if len(h) <= 12 {
		return h
	}
	return h[:12] + "…"
}
