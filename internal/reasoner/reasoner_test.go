package reasoner

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compdash/internal/config"
	"compdash/internal/detect"
	"compdash/internal/rag"
	"compdash/internal/store"
)

func newOfflineReasoner(t *testing.T) *Cognitive {
	t.Helper()
	corpus, err := rag.OpenCorpus(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { corpus.Close() })

	c, err := New(context.Background(), config.ReasonerConfig{}, corpus)
	require.NoError(t, err)
	return c
}

func TestAnalyzePANRuleBased(t *testing.T) {
	c := newOfflineReasoner(t)
	v := store.Violation{
		ID:       "VIOL_1",
		Kind:     "pan",
		Clause:   "Req 3.4",
		Severity: detect.SeverityCritical,
	}
	a, err := c.Analyze(context.Background(), v)
	require.NoError(t, err)
	assert.Equal(t, "VIOL_1", a.ViolationID)
	assert.Equal(t, AutonomyAutonomous, a.Autonomy)
	assert.Contains(t, a.RecommendedAction, "Mask the PAN")
	assert.Equal(t, detect.SeverityCritical, a.Severity)
}

func TestAnalyzeUnknownKindRequiresHuman(t *testing.T) {
	c := newOfflineReasoner(t)
	a, err := c.Analyze(context.Background(), store.Violation{ID: "VIOL_2", Kind: "mystery"})
	require.NoError(t, err)
	assert.Equal(t, AutonomyHumanGated, a.Autonomy)
}

func TestAnswerQueryRetrievalOnly(t *testing.T) {
	c := newOfflineReasoner(t)
	ans, err := c.AnswerQuery(context.Background(), "can we store PAN in plaintext logs?")
	require.NoError(t, err)
	assert.NotEmpty(t, ans.Clauses)
	assert.Contains(t, ans.Markdown, "PCI-DSS")
	assert.Contains(t, ans.Markdown, "Retrieval-only answer")
}

func TestAnswerQueryNoMatches(t *testing.T) {
	c := newOfflineReasoner(t)
	ans, err := c.AnswerQuery(context.Background(), "zebra xylophone")
	require.NoError(t, err)
	assert.Empty(t, ans.Clauses)
	assert.Contains(t, ans.Markdown, "No matching regulation text")
}

func TestExtractJSON(t *testing.T) {
	fenced := "```json\n{\"explanation\": \"x\"}\n```"
	got := extractJSON(fenced)
	assert.True(t, strings.HasPrefix(got, "{"))
	assert.True(t, strings.HasSuffix(got, "}"))
}
