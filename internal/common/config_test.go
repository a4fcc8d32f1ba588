package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig_HasSaneDefaults(t *testing.T) {
	cfg := NewDefaultConfig()
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30, cfg.Scraper.RateLimitPerMin)
	assert.False(t, cfg.Scheduler.Enabled)
}

func TestLoadFromFiles_NoPathsReturnsDefaults(t *testing.T) {
	cfg, err := LoadFromFiles()
	require.NoError(t, err)
	assert.Equal(t, NewDefaultConfig().Server.Port, cfg.Server.Port)
}

func TestLoadFromFiles_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "proxyhive.toml")
	toml := `
environment = "staging"

[server]
port = 9090
host = "0.0.0.0"

[scraper]
rate_limit_per_min = 99
`
	require.NoError(t, os.WriteFile(path, []byte(toml), 0o644))

	cfg, err := LoadFromFiles(path)
	require.NoError(t, err)
	assert.Equal(t, "staging", cfg.Environment)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 99, cfg.Scraper.RateLimitPerMin)
}

func TestLoadFromFiles_LaterFileOverridesEarlier(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "base.toml")
	override := filepath.Join(dir, "override.toml")
	require.NoError(t, os.WriteFile(base, []byte("[server]\nport = 1111\n"), 0o644))
	require.NoError(t, os.WriteFile(override, []byte("[server]\nport = 2222\n"), 0o644))

	cfg, err := LoadFromFiles(base, override)
	require.NoError(t, err)
	assert.Equal(t, 2222, cfg.Server.Port)
}

func TestLoadFromFiles_MissingFileIsError(t *testing.T) {
	_, err := LoadFromFiles("/does/not/exist.toml")
	assert.Error(t, err)
}

func TestLoadFromFiles_MalformedTOMLIsError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("not = [valid toml"), 0o644))

	_, err := LoadFromFiles(path)
	assert.Error(t, err)
}

func TestLoadFromFiles_EnvOverridesBeatFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "proxyhive.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server]\nport = 3000\n"), 0o644))

	t.Setenv("PROXYHIVE_SERVER_PORT", "4000")

	cfg, err := LoadFromFiles(path)
	require.NoError(t, err)
	assert.Equal(t, 4000, cfg.Server.Port)
}

func TestLoadFromFiles_EnvOverrides_IgnoresUnparsable(t *testing.T) {
	t.Setenv("PROXYHIVE_SERVER_PORT", "not-a-number")

	cfg, err := LoadFromFiles()
	require.NoError(t, err)
	assert.Equal(t, NewDefaultConfig().Server.Port, cfg.Server.Port, "unparsable env override must be ignored, not error")
}

func TestLoadFromFiles_LogOutputEnvSplitsAndTrims(t *testing.T) {
	t.Setenv("PROXYHIVE_LOG_OUTPUT", "stdout, file , ")

	cfg, err := LoadFromFiles()
	require.NoError(t, err)
	assert.Equal(t, []string{"stdout", "file"}, cfg.Logging.Output)
}

func TestLoadFromFiles_SchedulerBoolEnvOverride(t *testing.T) {
	t.Setenv("PROXY_SCHEDULER_ENABLED", "true")

	cfg, err := LoadFromFiles()
	require.NoError(t, err)
	assert.True(t, cfg.Scheduler.Enabled)
}

func TestApplyFlagOverrides_OnlyOverridesPositiveOrNonEmpty(t *testing.T) {
	cfg := NewDefaultConfig()
	ApplyFlagOverrides(cfg, 0, "")
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Server.Host)

	ApplyFlagOverrides(cfg, 7000, "example.com")
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "example.com", cfg.Server.Host)
}

func TestIsProduction(t *testing.T) {
	cfg := &Config{Environment: "Production"}
	assert.True(t, cfg.IsProduction())

	cfg.Environment = "  prod "
	assert.True(t, cfg.IsProduction())

	cfg.Environment = "development"
	assert.False(t, cfg.IsProduction())
}

func TestDurationHelpers(t *testing.T) {
	scraper := &ScraperConfig{TimeoutSec: 10, CacheTTLSec: 120}
	assert.Equal(t, 10*time.Second, scraper.Timeout())
	assert.Equal(t, 120*time.Second, scraper.CacheTTL())

	v := &ValidatorConfig{TimeoutSec: 5}
	assert.Equal(t, 5*time.Second, v.Timeout())

	wh := &WebhooksConfig{TimeoutSec: 3}
	assert.Equal(t, 3*time.Second, wh.Timeout())
}
