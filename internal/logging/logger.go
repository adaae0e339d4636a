// Package logging provides categorized zap logging for compdash.
// In TUI mode logs go to a file so stdout stays clean for bubbletea;
// CLI subcommands log to stderr.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category names a subsystem for named child loggers.
type Category string

const (
	CategoryBoot     Category = "boot"     // startup, config loading
	CategoryMonitor  Category = "monitor"  // ingest pipeline, watchers
	CategoryDetect   Category = "detect"   // detector hits
	CategoryStore    Category = "store"    // sqlite operations
	CategoryEvidence Category = "evidence" // evidence capture, audit chain
	CategoryPolicy   Category = "policy"   // goal derivation
	CategoryReasoner Category = "reasoner" // cognitive reasoning, queries
	CategoryUI       Category = "ui"       // shell and page events
)

var (
	mu   sync.RWMutex
	root = zap.NewNop()
)

// Options controls logger construction.
type Options struct {
	Debug  bool
	ToFile bool   // write to LogDir instead of stderr
	LogDir string // required when ToFile is set
	JSON   bool
}

// Init builds the process logger. Safe to call once at startup; before Init
// all categories log to a nop logger.
func Init(opts Options) error {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if opts.Debug {
		level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = level
	if !opts.JSON {
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	if opts.ToFile {
		if opts.LogDir == "" {
			return fmt.Errorf("log dir required for file logging")
		}
		if err := os.MkdirAll(opts.LogDir, 0o755); err != nil {
			return fmt.Errorf("failed to create log dir: %w", err)
		}
		cfg.OutputPaths = []string{filepath.Join(opts.LogDir, "compdash.log")}
		cfg.ErrorOutputPaths = cfg.OutputPaths
	} else {
		cfg.OutputPaths = []string{"stderr"}
		cfg.ErrorOutputPaths = []string{"stderr"}
	}

	logger, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}

	mu.Lock()
	root = logger
	mu.Unlock()
	return nil
}

// Get returns the named logger for a category.
func Get(cat Category) *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return root.Named(string(cat))
}

// Sync flushes buffered log entries. Called on shutdown.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	_ = root.Sync()
}
