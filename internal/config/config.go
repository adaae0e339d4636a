// Package config loads compdash configuration from YAML with environment
// variable overrides (COMPDASH_*).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all compdash configuration.
type Config struct {
	// Tenant identifies the organization the dashboard monitors.
	Tenant string `yaml:"tenant"`

	Storage  StorageConfig  `yaml:"storage"`
	Monitor  MonitorConfig  `yaml:"monitor"`
	Reasoner ReasonerConfig `yaml:"reasoner"`
	Logging  LoggingConfig  `yaml:"logging"`
	UI       UIConfig       `yaml:"ui"`
}

// StorageConfig configures the sqlite stores.
type StorageConfig struct {
	// DataDir holds the violation, evidence, and regulation databases.
	DataDir string `yaml:"data_dir"`
}

// MonitorConfig configures the ingest pipeline.
type MonitorConfig struct {
	// SourcesDir is watched for dropped source files (logs, transcripts).
	SourcesDir string `yaml:"sources_dir"`
	// Workers is the detector worker pool size.
	Workers int `yaml:"workers"`
	// FeedSize bounds the rolling event feed shown on the monitoring page.
	FeedSize int `yaml:"feed_size"`
}

// ReasonerConfig configures the cognitive reasoner.
type ReasonerConfig struct {
	// APIKey enables the GenAI-backed reasoner; empty means rule-based fallback.
	APIKey  string        `yaml:"api_key"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

// LoggingConfig configures zap output.
type LoggingConfig struct {
	Debug bool   `yaml:"debug"`
	JSON  bool   `yaml:"json"`
	Dir   string `yaml:"dir"`
}

// UIConfig configures the dashboard shell.
type UIConfig struct {
	// Theme is "light", "dark", or "auto".
	Theme string `yaml:"theme"`
}

// Default returns production defaults rooted at dir.
func Default(dir string) Config {
	return Config{
		Tenant: "visa",
		Storage: StorageConfig{
			DataDir: filepath.Join(dir, "data"),
		},
		Monitor: MonitorConfig{
			SourcesDir: filepath.Join(dir, "sources"),
			Workers:    4,
			FeedSize:   200,
		},
		Reasoner: ReasonerConfig{
			Model:   "gemini-2.0-flash",
			Timeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Dir: filepath.Join(dir, "logs"),
		},
		UI: UIConfig{
			Theme: "auto",
		},
	}
}

// Load reads the config file at path, falling back to defaults for missing
// fields, then applies environment overrides. A missing file is not an error.
func Load(path, workDir string) (Config, error) {
	cfg := Default(workDir)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnv(&cfg)
			return cfg, cfg.Validate()
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}

	applyEnv(&cfg)
	return cfg, cfg.Validate()
}

// applyEnv layers COMPDASH_* environment variables over the file values.
func applyEnv(cfg *Config) {
	if v := os.Getenv("COMPDASH_TENANT"); v != "" {
		cfg.Tenant = v
	}
	if v := os.Getenv("COMPDASH_DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("COMPDASH_SOURCES_DIR"); v != "" {
		cfg.Monitor.SourcesDir = v
	}
	if v := os.Getenv("COMPDASH_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Monitor.Workers = n
		}
	}
	if v := os.Getenv("COMPDASH_API_KEY"); v != "" {
		cfg.Reasoner.APIKey = v
	}
	if v := os.Getenv("COMPDASH_DEBUG"); v == "1" || v == "true" {
		cfg.Logging.Debug = true
	}
	if v := os.Getenv("COMPDASH_THEME"); v != "" {
		cfg.UI.Theme = v
	}
}

// Validate checks structural invariants.
func (c Config) Validate() error {
	if c.Tenant == "" {
		return fmt.Errorf("tenant must not be empty")
	}
	if c.Monitor.Workers < 1 {
		return fmt.Errorf("monitor.workers must be >= 1, got %d", c.Monitor.Workers)
	}
	if c.Monitor.FeedSize < 1 {
		return fmt.Errorf("monitor.feed_size must be >= 1, got %d", c.Monitor.FeedSize)
	}
	switch c.UI.Theme {
	case "light", "dark", "auto":
	default:
		return fmt.Errorf("ui.theme must be light, dark, or auto, got %q", c.UI.Theme)
	}
	return nil
}
