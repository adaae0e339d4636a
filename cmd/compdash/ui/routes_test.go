package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouteTableHasAllDestinations(t *testing.T) {
	table := NewRouteTable()
	entries := table.Entries()
	require.Len(t, entries, 9)

	paths := map[string]bool{}
	pages := map[PageID]bool{}
	for _, e := range entries {
		assert.False(t, paths[e.Path], "duplicate path %q", e.Path)
		assert.False(t, pages[e.Page], "duplicate page for %q", e.Path)
		paths[e.Path] = true
		pages[e.Page] = true
		assert.NotEmpty(t, e.Label)
		assert.NotEmpty(t, e.Icon)
	}

	assert.Equal(t, "/", entries[0].Path)
	assert.Equal(t, PageOverview, entries[0].Page)
}

func TestResolveEveryEntry(t *testing.T) {
	table := NewRouteTable()
	for _, want := range table.Entries() {
		got, ok := table.Resolve(want.Path)
		require.True(t, ok, "path %q should resolve", want.Path)
		assert.Equal(t, want, got)
	}
}

func TestResolveMiss(t *testing.T) {
	table := NewRouteTable()
	for _, path := range []string{"/unknown", "", "/Evidence", "/evidence/", "/evid", "/monitoring/live"} {
		_, ok := table.Resolve(path)
		assert.False(t, ok, "path %q should not resolve", path)
	}
}

func TestRootMatchesExactlyNotAsPrefix(t *testing.T) {
	table := NewRouteTable()

	entry, ok := table.Resolve("/")
	require.True(t, ok)
	assert.Equal(t, PageOverview, entry.Page)

	entry, ok = table.Resolve("/evidence")
	require.True(t, ok)
	assert.Equal(t, PageEvidence, entry.Page, "non-root path must not fall back to the root entry")
}

func TestQueryEntryIsTheOnlyFeatured(t *testing.T) {
	table := NewRouteTable()

	var featured []RouteEntry
	for _, e := range table.Entries() {
		if e.Featured {
			featured = append(featured, e)
		}
	}
	require.Len(t, featured, 1)
	assert.Equal(t, "/compliance-query", featured[0].Path)
	assert.Equal(t, PageQuery, featured[0].Page)
}
