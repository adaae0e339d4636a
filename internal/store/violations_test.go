package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compdash/internal/detect"
)

func openTestStore(t *testing.T) *ViolationStore {
	t.Helper()
	s, err := OpenViolationStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func panFinding() detect.Finding {
	return detect.Finding{
		Framework: detect.FrameworkPCIDSS,
		Clause:    "Req 3.4",
		Kind:      "pan",
		Match:     "************1111",
		Severity:  detect.SeverityCritical,
	}
}

func TestRecordAndGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	v, err := s.Record(ctx, panFinding(), "support_chat", "chat-42", "EVID_1")
	require.NoError(t, err)
	assert.NotEmpty(t, v.ID)
	assert.Equal(t, StatusOpen, v.Status)

	got, err := s.Get(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, v.ID, got.ID)
	assert.Equal(t, detect.FrameworkPCIDSS, got.Framework)
	assert.Equal(t, "chat-42", got.SourceID)
}

func TestGetMissingReturnsErrNotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Get(context.Background(), "VIOL_nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListFiltersByFramework(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.Record(ctx, panFinding(), "transaction", "tx-1", "EVID_1")
	require.NoError(t, err)
	gdpr := panFinding()
	gdpr.Framework = detect.FrameworkGDPR
	gdpr.Kind = "email"
	_, err = s.Record(ctx, gdpr, "application_log", "log-1", "EVID_2")
	require.NoError(t, err)

	all, err := s.List(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	pci, err := s.List(ctx, detect.FrameworkPCIDSS, 0)
	require.NoError(t, err)
	require.Len(t, pci, 1)
	assert.Equal(t, detect.FrameworkPCIDSS, pci[0].Framework)
}

func TestSetStatus(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	v, err := s.Record(ctx, panFinding(), "message", "msg-1", "EVID_1")
	require.NoError(t, err)

	require.NoError(t, s.SetStatus(ctx, v.ID, StatusResolved))
	got, err := s.Get(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusResolved, got.Status)

	assert.ErrorIs(t, s.SetStatus(ctx, "VIOL_nope", StatusResolved), ErrNotFound)
}

func TestCountsExcludeResolved(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	v1, err := s.Record(ctx, panFinding(), "transaction", "tx-1", "EVID_1")
	require.NoError(t, err)
	_, err = s.Record(ctx, panFinding(), "transaction", "tx-2", "EVID_2")
	require.NoError(t, err)
	require.NoError(t, s.SetStatus(ctx, v1.ID, StatusResolved))

	bySev, err := s.CountBySeverity(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, bySev[detect.SeverityCritical])

	byFw, err := s.CountByFramework(ctx)
	require.NoError(t, err)
	assert.Equal(t, FrameworkCounts{Total: 2, Open: 1}, byFw[detect.FrameworkPCIDSS])
}
