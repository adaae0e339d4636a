package monitor

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"compdash/internal/config"
	"compdash/internal/detect"
	"compdash/internal/evidence"
	"compdash/internal/store"
)

func TestMain(m *testing.M) {
	// opencensus (pulled in by the genai client) starts a global stats worker
	// at init; it is not ours to stop.
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

func newTestPipeline(t *testing.T, sourcesDir string) (*Pipeline, *store.ViolationStore, *evidence.Vault) {
	t.Helper()
	violations, err := store.OpenViolationStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { violations.Close() })

	vault, err := evidence.OpenVault(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { vault.Close() })

	cfg := config.MonitorConfig{SourcesDir: sourcesDir, Workers: 2, FeedSize: 100}
	return NewPipeline(cfg, detect.NewRegistry(), violations, vault, nil), violations, vault
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v", timeout)
}

func TestPipelineRecordsViolationAndEvidence(t *testing.T) {
	p, violations, vault := newTestPipeline(t, "")
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { defer close(done); _ = p.Run(ctx) }()

	err := p.Ingest(ctx, Event{
		SourceType: "support_chat",
		SourceID:   "chat-7",
		Content:    "my card is 4111 1111 1111 1111 thanks",
	})
	require.NoError(t, err)

	waitFor(t, 2*time.Second, func() bool {
		vs, err := violations.List(context.Background(), "", 0)
		return err == nil && len(vs) == 1
	})

	cancel()
	<-done

	vs, err := violations.List(context.Background(), "", 0)
	require.NoError(t, err)
	require.Len(t, vs, 1)
	assert.Equal(t, detect.FrameworkPCIDSS, vs[0].Framework)
	assert.Equal(t, "chat-7", vs[0].SourceID)
	assert.NotEmpty(t, vs[0].EvidenceID)

	res, err := vault.Verify(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Equal(t, 1, res.Nodes)

	entries := p.Feed().Snapshot()
	require.NotEmpty(t, entries)
	kinds := map[EntryKind]bool{}
	for _, e := range entries {
		kinds[e.Kind] = true
	}
	assert.True(t, kinds[EntryIngest])
	assert.True(t, kinds[EntryViolation])
}

func TestPipelineCleanContentNoViolation(t *testing.T) {
	p, violations, _ := newTestPipeline(t, "")
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { defer close(done); _ = p.Run(ctx) }()

	require.NoError(t, p.Ingest(ctx, Event{SourceType: "message", SourceID: "m-1", Content: "deploy ok"}))

	waitFor(t, 2*time.Second, func() bool { return p.Feed().Len() > 0 })
	cancel()
	<-done

	vs, err := violations.List(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Empty(t, vs)
}

func TestPipelineWatchesSourcesDir(t *testing.T) {
	dir := t.TempDir()
	p, violations, _ := newTestPipeline(t, dir)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { defer close(done); _ = p.Run(ctx) }()

	// Give the watcher a moment to register before dropping the file.
	time.Sleep(100 * time.Millisecond)
	path := filepath.Join(dir, "chat_support_42.txt")
	require.NoError(t, os.WriteFile(path, []byte("ssn on file: 123-45-6789"), 0o644))

	waitFor(t, 3*time.Second, func() bool {
		vs, err := violations.List(context.Background(), "", 0)
		return err == nil && len(vs) > 0
	})

	cancel()
	<-done

	vs, err := violations.List(context.Background(), "", 0)
	require.NoError(t, err)
	require.NotEmpty(t, vs)
	assert.Equal(t, "support_chat", vs[0].SourceType)
}

func TestSourceTypeFor(t *testing.T) {
	assert.Equal(t, "transaction", sourceTypeFor("tx_001.txt"))
	assert.Equal(t, "support_chat", sourceTypeFor("chat_a.log"))
	assert.Equal(t, "message", sourceTypeFor("msg_9.txt"))
	assert.Equal(t, "application_log", sourceTypeFor("server.log"))
}

func TestFeedBounded(t *testing.T) {
	f := NewFeed(3)
	for i := 0; i < 10; i++ {
		f.Append(EntryIngest, "entry")
	}
	assert.Equal(t, 3, f.Len())
}
