// Package policy derives compliance goal status with a Mangle (Datalog)
// program: open violations mark framework leaf goals at risk, and risk
// propagates up the goal graph through subgoal edges.
package policy

import (
	"fmt"
	"strings"

	"github.com/google/mangle/analysis"
	"github.com/google/mangle/ast"
	_ "github.com/google/mangle/builtin"
	mengine "github.com/google/mangle/engine"
	"github.com/google/mangle/factstore"
	"github.com/google/mangle/parse"

	"compdash/internal/detect"
	"compdash/internal/store"
)

// Goal is one node of the static compliance goal graph. Leaf goals carry the
// framework whose violations put them at risk; interior goals aggregate their
// children.
type Goal struct {
	ID        string
	Label     string
	Framework detect.Framework // empty for interior goals
	Parent    string           // empty for the root
}

// GoalState labels a derived goal status.
type GoalState string

const (
	GoalSatisfied GoalState = "satisfied"
	GoalAtRisk    GoalState = "at_risk"
)

// GoalStatus pairs a goal with its derived state.
type GoalStatus struct {
	Goal  Goal
	State GoalState
}

// Assessment is the full derived picture for one evaluation.
type Assessment struct {
	Goals  []GoalStatus
	Scores map[detect.Framework]float64 // 0..1 resolved share, 1 when no violations
}

// catalog is the static goal graph, mirroring the dashboard's goal tree.
var catalog = []Goal{
	{ID: "maintain_compliance", Label: "Maintain Continuous Compliance"},

	{ID: "pci_protect", Label: "Protect Cardholder Data", Parent: "maintain_compliance"},
	{ID: "pci_no_plaintext_pan", Label: "No plaintext PAN at rest", Framework: detect.FrameworkPCIDSS, Parent: "pci_protect"},
	{ID: "pci_mask_display", Label: "Mask PAN wherever displayed", Framework: detect.FrameworkPCIDSS, Parent: "pci_protect"},
	{ID: "pci_secure_transmission", Label: "Encrypt PAN in transit", Framework: detect.FrameworkPCIDSS, Parent: "pci_protect"},

	{ID: "gdpr_protect", Label: "Protect Personal Data", Parent: "maintain_compliance"},
	{ID: "gdpr_minimize", Label: "Data minimisation", Framework: detect.FrameworkGDPR, Parent: "gdpr_protect"},
	{ID: "gdpr_secure_processing", Label: "Secure processing (Art 32)", Framework: detect.FrameworkGDPR, Parent: "gdpr_protect"},

	{ID: "ccpa_protect", Label: "Protect Consumer Information", Parent: "maintain_compliance"},
	{ID: "ccpa_safeguards", Label: "Reasonable security procedures", Framework: detect.FrameworkCCPA, Parent: "ccpa_protect"},
}

// rules derives at_risk for leaf goals with open framework violations and
// propagates the mark to every ancestor.
const rules = `
at_risk(G) :- goal(G, F), framework_open(F).
at_risk(P) :- subgoal(C, P), at_risk(C).
`

// Engine evaluates the goal graph against violation counts.
type Engine struct {
	goals []Goal
}

// NewEngine returns an engine over the built-in goal catalog.
func NewEngine() *Engine {
	return &Engine{goals: catalog}
}

// Goals returns the catalog in display order.
func (e *Engine) Goals() []Goal {
	return e.goals
}

// Evaluate derives goal states and per-framework scores from framework
// violation counts.
func (e *Engine) Evaluate(counts map[detect.Framework]store.FrameworkCounts) (Assessment, error) {
	atRisk, err := e.deriveAtRisk(counts)
	if err != nil {
		return Assessment{}, err
	}

	out := Assessment{Scores: map[detect.Framework]float64{}}
	for _, g := range e.goals {
		state := GoalSatisfied
		if atRisk[g.ID] {
			state = GoalAtRisk
		}
		out.Goals = append(out.Goals, GoalStatus{Goal: g, State: state})
	}

	for _, fw := range []detect.Framework{detect.FrameworkPCIDSS, detect.FrameworkGDPR, detect.FrameworkCCPA} {
		c := counts[fw]
		if c.Total == 0 {
			out.Scores[fw] = 1.0
			continue
		}
		out.Scores[fw] = float64(c.Total-c.Open) / float64(c.Total)
	}
	return out, nil
}

// deriveAtRisk builds the Datalog program (facts + rules), evaluates it to a
// fixpoint, and reads back the derived at_risk set.
func (e *Engine) deriveAtRisk(counts map[detect.Framework]store.FrameworkCounts) (map[string]bool, error) {
	// Mangle rejects a program whose rule bodies reference a predicate with no
	// facts and no declaration. framework_open facts only exist for frameworks
	// with open violations, so with none open the program would not analyze;
	// nothing could be derived anyway.
	anyOpen := false
	for _, c := range counts {
		if c.Open > 0 {
			anyOpen = true
			break
		}
	}
	if !anyOpen {
		return map[string]bool{}, nil
	}

	var sb strings.Builder
	sb.WriteString(rules)
	for _, g := range e.goals {
		if g.Framework != "" {
			fmt.Fprintf(&sb, "goal(%q, %q).\n", g.ID, string(g.Framework))
		}
		if g.Parent != "" {
			fmt.Fprintf(&sb, "subgoal(%q, %q).\n", g.ID, g.Parent)
		}
	}
	for fw, c := range counts {
		if c.Open > 0 {
			fmt.Fprintf(&sb, "framework_open(%q).\n", string(fw))
		}
	}

	unit, err := parse.Unit(strings.NewReader(sb.String()))
	if err != nil {
		return nil, fmt.Errorf("failed to parse policy program: %w", err)
	}
	programInfo, err := analysis.AnalyzeOneUnit(unit, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze policy program: %w", err)
	}

	factStore := factstore.NewSimpleInMemoryStore()
	if _, err := mengine.EvalProgramWithStats(programInfo, factStore); err != nil {
		return nil, fmt.Errorf("failed to evaluate policy program: %w", err)
	}

	atRisk := map[string]bool{}
	sym := ast.PredicateSym{Symbol: "at_risk", Arity: 1}
	err = factStore.GetFacts(ast.NewQuery(sym), func(atom ast.Atom) error {
		if c, ok := atom.Args[0].(ast.Constant); ok {
			atRisk[c.Symbol] = true
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read derived facts: %w", err)
	}
	return atRisk, nil
}
