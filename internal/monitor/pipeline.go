// Package monitor runs the ingest pipeline: source events (direct calls or
// files dropped in a watched directory) fan out to the detector registry;
// hits become stored violations with captured evidence, and everything is
// mirrored into rolling feeds for the dashboard pages.
package monitor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"compdash/internal/config"
	"compdash/internal/detect"
	"compdash/internal/evidence"
	"compdash/internal/logging"
	"compdash/internal/reasoner"
	"compdash/internal/store"
)

// Event is one unit of ingested content.
type Event struct {
	SourceType string // transaction, application_log, support_chat, message
	SourceID   string
	Content    string
	Timestamp  time.Time
}

// Pipeline wires sources to detectors to stores.
type Pipeline struct {
	cfg        config.MonitorConfig
	registry   *detect.Registry
	violations *store.ViolationStore
	vault      *evidence.Vault
	cognitive  *reasoner.Cognitive

	events   chan Event
	feed     *Feed // ingest + detection events (monitoring page)
	activity *Feed // reasoner and pipeline actions (agent activity page)
	log      *zap.Logger
}

// NewPipeline builds a pipeline. cognitive may be nil; violations then stay
// unanalyzed until a page requests analysis.
func NewPipeline(cfg config.MonitorConfig, registry *detect.Registry, violations *store.ViolationStore, vault *evidence.Vault, cognitive *reasoner.Cognitive) *Pipeline {
	return &Pipeline{
		cfg:        cfg,
		registry:   registry,
		violations: violations,
		vault:      vault,
		cognitive:  cognitive,
		events:     make(chan Event, 64),
		feed:       NewFeed(cfg.FeedSize),
		activity:   NewFeed(cfg.FeedSize),
		log:        logging.Get(logging.CategoryMonitor),
	}
}

// Feed returns the monitoring feed.
func (p *Pipeline) Feed() *Feed { return p.feed }

// Activity returns the agent activity feed.
func (p *Pipeline) Activity() *Feed { return p.activity }

// Run starts the worker pool and the source directory watcher, blocking until
// ctx is cancelled. Always returns nil after a clean shutdown.
func (p *Pipeline) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	for i := 0; i < p.cfg.Workers; i++ {
		g.Go(func() error { return p.worker(ctx) })
	}
	g.Go(func() error { return p.watchSources(ctx) })

	err := g.Wait()
	if err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// Ingest submits an event for detection. Blocks only if the queue is full;
// returns ctx error on cancellation.
func (p *Pipeline) Ingest(ctx context.Context, ev Event) error {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	select {
	case p.events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pipeline) worker(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-p.events:
			p.process(ctx, ev)
		}
	}
}

// process scans one event and persists any findings.
func (p *Pipeline) process(ctx context.Context, ev Event) {
	p.feed.Append(EntryIngest, fmt.Sprintf("ingested %s %s (%d bytes)", ev.SourceType, ev.SourceID, len(ev.Content)))

	findings := p.registry.ScanAll(ev.Content)
	if len(findings) == 0 {
		return
	}

	for _, f := range findings {
		payload := fmt.Sprintf("%s detected in %s %s: %s [%s]", f.Kind, ev.SourceType, ev.SourceID, f.Match, f.Clause)
		rec, err := p.vault.Capture(ctx, "violation", ev.SourceType, ev.SourceID, payload)
		if err != nil {
			p.log.Error("evidence capture failed", zap.Error(err))
			p.feed.Append(EntryError, "evidence capture failed: "+err.Error())
			continue
		}

		v, err := p.violations.Record(ctx, f, ev.SourceType, ev.SourceID, rec.ID)
		if err != nil {
			p.log.Error("violation record failed", zap.Error(err))
			p.feed.Append(EntryError, "violation record failed: "+err.Error())
			continue
		}

		p.log.Info("violation recorded",
			zap.String("id", v.ID),
			zap.String("framework", string(v.Framework)),
			zap.String("kind", v.Kind))
		p.feed.Append(EntryViolation, fmt.Sprintf("%s %s: %s in %s %s", v.Framework, v.Severity, v.Kind, ev.SourceType, ev.SourceID))

		if p.cognitive != nil {
			analysis, err := p.cognitive.Analyze(ctx, v)
			if err != nil {
				p.activity.Append(EntryError, "analysis failed for "+v.ID+": "+err.Error())
				continue
			}
			p.activity.Append(EntryAction, fmt.Sprintf("%s analyzed %s [%s]: %s",
				analysis.Autonomy, v.ID, v.Framework, analysis.RecommendedAction))
		}
	}
}

// watchSources tails the sources directory: each created or modified file is
// read once and ingested, with the source type inferred from the filename.
func (p *Pipeline) watchSources(ctx context.Context) error {
	if p.cfg.SourcesDir == "" {
		<-ctx.Done()
		return ctx.Err()
	}
	if err := os.MkdirAll(p.cfg.SourcesDir, 0o755); err != nil {
		return fmt.Errorf("failed to create sources dir: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(p.cfg.SourcesDir); err != nil {
		return fmt.Errorf("failed to watch sources dir: %w", err)
	}
	p.log.Info("watching sources", zap.String("dir", p.cfg.SourcesDir))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			data, err := os.ReadFile(event.Name)
			if err != nil {
				p.log.Warn("failed to read source file", zap.String("file", event.Name), zap.Error(err))
				continue
			}
			name := filepath.Base(event.Name)
			if err := p.Ingest(ctx, Event{
				SourceType: sourceTypeFor(name),
				SourceID:   name,
				Content:    string(data),
			}); err != nil {
				return err
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			p.log.Warn("watcher error", zap.Error(err))
		}
	}
}

// sourceTypeFor infers the event source type from a dropped file's name
// prefix; unprefixed files are treated as application logs.
func sourceTypeFor(name string) string {
	switch {
	case strings.HasPrefix(name, "tx_"):
		return "transaction"
	case strings.HasPrefix(name, "chat_"):
		return "support_chat"
	case strings.HasPrefix(name, "msg_"):
		return "message"
	default:
		return "application_log"
	}
}
