package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default(t.TempDir())
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "visa", cfg.Tenant)
	assert.Equal(t, 4, cfg.Monitor.Workers)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(filepath.Join(dir, "nope.yaml"), dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "data"), cfg.Storage.DataDir)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := "tenant: acme\nmonitor:\n  workers: 8\n  feed_size: 50\nui:\n  theme: dark\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path, dir)
	require.NoError(t, err)
	assert.Equal(t, "acme", cfg.Tenant)
	assert.Equal(t, 8, cfg.Monitor.Workers)
	assert.Equal(t, 50, cfg.Monitor.FeedSize)
	assert.Equal(t, "dark", cfg.UI.Theme)
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("COMPDASH_TENANT", "env-tenant")
	t.Setenv("COMPDASH_WORKERS", "2")

	cfg, err := Load(filepath.Join(dir, "nope.yaml"), dir)
	require.NoError(t, err)
	assert.Equal(t, "env-tenant", cfg.Tenant)
	assert.Equal(t, 2, cfg.Monitor.Workers)
}

func TestValidateRejectsBadTheme(t *testing.T) {
	cfg := Default(t.TempDir())
	cfg.UI.Theme = "sepia"
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsZeroWorkers(t *testing.T) {
	cfg := Default(t.TempDir())
	cfg.Monitor.Workers = 0
	assert.Error(t, cfg.Validate())
}
