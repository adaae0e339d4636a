package monitor

import (
	"sync"
	"time"
)

// EntryKind classifies a feed entry for rendering.
type EntryKind string

const (
	EntryIngest    EntryKind = "ingest"
	EntryViolation EntryKind = "violation"
	EntryAction    EntryKind = "action"
	EntryError     EntryKind = "error"
)

// FeedEntry is one line of the live monitoring or agent activity feed.
type FeedEntry struct {
	Time    time.Time
	Kind    EntryKind
	Message string
}

// Feed is a bounded, thread-safe rolling event feed. Oldest entries are
// discarded once the bound is reached.
type Feed struct {
	mu      sync.Mutex
	max     int
	entries []FeedEntry
}

// NewFeed returns a feed bounded to max entries.
func NewFeed(max int) *Feed {
	if max < 1 {
		max = 1
	}
	return &Feed{max: max}
}

// Append adds an entry, evicting the oldest when full.
func (f *Feed) Append(kind EntryKind, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, FeedEntry{Time: time.Now().UTC(), Kind: kind, Message: message})
	if len(f.entries) > f.max {
		f.entries = f.entries[len(f.entries)-f.max:]
	}
}

// Snapshot returns a copy of the current entries, oldest first.
func (f *Feed) Snapshot() []FeedEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]FeedEntry, len(f.entries))
	copy(out, f.entries)
	return out
}

// Len returns the current entry count.
func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}
