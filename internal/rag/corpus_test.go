package rag

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compdash/internal/detect"
)

func openTestCorpus(t *testing.T) *Corpus {
	t.Helper()
	c, err := OpenCorpus(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCorpusSeedsOnce(t *testing.T) {
	dir := t.TempDir()
	c1, err := OpenCorpus(dir)
	require.NoError(t, err)
	all, err := c1.All(context.Background())
	require.NoError(t, err)
	require.NoError(t, c1.Close())

	c2, err := OpenCorpus(dir)
	require.NoError(t, err)
	defer c2.Close()
	again, err := c2.All(context.Background())
	require.NoError(t, err)
	assert.Equal(t, len(all), len(again))
	assert.NotEmpty(t, all)
}

func TestSearchFindsPANClauses(t *testing.T) {
	c := openTestCorpus(t)
	results, err := c.Search(context.Background(), "can we store PAN in plaintext logs?", 3)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, detect.FrameworkPCIDSS, results[0].Clause.Framework)
	assert.Greater(t, results[0].Score, 0.0)
	assert.LessOrEqual(t, len(results), 3)
}

func TestSearchRanksByOverlap(t *testing.T) {
	c := openTestCorpus(t)
	results, err := c.Search(context.Background(), "breach notification supervisory authority 72 hours", 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "GDPR Art 33", results[0].Clause.Ref)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
}

func TestSearchStopwordOnlyQuery(t *testing.T) {
	c := openTestCorpus(t)
	results, err := c.Search(context.Background(), "what is the", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}
