package policy

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compdash/internal/detect"
	"compdash/internal/store"
)

func stateOf(t *testing.T, a Assessment, id string) GoalState {
	t.Helper()
	for _, gs := range a.Goals {
		if gs.Goal.ID == id {
			return gs.State
		}
	}
	t.Fatalf("goal %s not in assessment", id)
	return ""
}

func TestEvaluateCleanSlate(t *testing.T) {
	e := NewEngine()
	a, err := e.Evaluate(nil)
	require.NoError(t, err)

	for _, gs := range a.Goals {
		assert.Equal(t, GoalSatisfied, gs.State, "goal %s", gs.Goal.ID)
	}
	assert.Equal(t, 1.0, a.Scores[detect.FrameworkPCIDSS])
	assert.Equal(t, 1.0, a.Scores[detect.FrameworkGDPR])
}

func TestEvaluateOpenViolationsPropagateToRoot(t *testing.T) {
	e := NewEngine()
	a, err := e.Evaluate(map[detect.Framework]store.FrameworkCounts{
		detect.FrameworkPCIDSS: {Total: 2, Open: 2},
	})
	require.NoError(t, err)

	assert.Equal(t, GoalAtRisk, stateOf(t, a, "pci_no_plaintext_pan"))
	assert.Equal(t, GoalAtRisk, stateOf(t, a, "pci_protect"))
	assert.Equal(t, GoalAtRisk, stateOf(t, a, "maintain_compliance"))
	// Other frameworks stay clean.
	assert.Equal(t, GoalSatisfied, stateOf(t, a, "gdpr_protect"))
	assert.Equal(t, GoalSatisfied, stateOf(t, a, "ccpa_safeguards"))
}

func TestEvaluateResolvedViolationsScoreButNoRisk(t *testing.T) {
	e := NewEngine()
	a, err := e.Evaluate(map[detect.Framework]store.FrameworkCounts{
		detect.FrameworkGDPR: {Total: 4, Open: 0},
	})
	require.NoError(t, err)

	assert.Equal(t, GoalSatisfied, stateOf(t, a, "gdpr_protect"))
	assert.Equal(t, 1.0, a.Scores[detect.FrameworkGDPR])
}

func TestEvaluatePartialResolutionScore(t *testing.T) {
	e := NewEngine()
	a, err := e.Evaluate(map[detect.Framework]store.FrameworkCounts{
		detect.FrameworkCCPA: {Total: 4, Open: 1},
	})
	require.NoError(t, err)

	assert.InDelta(t, 0.75, a.Scores[detect.FrameworkCCPA], 1e-9)
	assert.Equal(t, GoalAtRisk, stateOf(t, a, "ccpa_protect"))
	assert.Equal(t, GoalAtRisk, stateOf(t, a, "maintain_compliance"))
}

func TestEvaluateAllFrameworksClosed(t *testing.T) {
	e := NewEngine()
	// Counts present but nothing open must behave like a clean slate, not
	// error out of the Datalog evaluation.
	a, err := e.Evaluate(map[detect.Framework]store.FrameworkCounts{
		detect.FrameworkPCIDSS: {Total: 1, Open: 0},
		detect.FrameworkGDPR:   {Total: 0, Open: 0},
		detect.FrameworkCCPA:   {Total: 3, Open: 0},
	})
	require.NoError(t, err)

	for _, gs := range a.Goals {
		assert.Equal(t, GoalSatisfied, gs.State, "goal %s", gs.Goal.ID)
	}
	assert.Equal(t, 1.0, a.Scores[detect.FrameworkCCPA])
}

func TestEvaluateIsDeterministic(t *testing.T) {
	e := NewEngine()
	counts := map[detect.Framework]store.FrameworkCounts{
		detect.FrameworkPCIDSS: {Total: 3, Open: 1},
		detect.FrameworkGDPR:   {Total: 2, Open: 0},
	}

	first, err := e.Evaluate(counts)
	require.NoError(t, err)
	second, err := e.Evaluate(counts)
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("assessments differ between runs (-first +second):\n%s", diff)
	}
}

func TestGoalsCatalogShape(t *testing.T) {
	e := NewEngine()
	goals := e.Goals()
	require.NotEmpty(t, goals)
	assert.Equal(t, "maintain_compliance", goals[0].ID)

	ids := map[string]bool{}
	for _, g := range goals {
		assert.False(t, ids[g.ID], "duplicate goal id %s", g.ID)
		ids[g.ID] = true
		if g.Parent != "" {
			assert.True(t, ids[g.Parent], "parent %s must precede child %s", g.Parent, g.ID)
		}
	}
}
