package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Empty(t, cfg.LogFile)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 10.0, cfg.RateLimitRPS)
	assert.Equal(t, 20, cfg.RateLimitBurst)
	assert.False(t, cfg.TrustProxy)
	assert.False(t, cfg.AuthEnabled)
	assert.Equal(t, 84, cfg.DarknessMaxHours)
	assert.Equal(t, runtime.NumCPU(), cfg.DarknessWorkers)
	assert.Equal(t, 1024, cfg.SeriesCacheEntries)
	assert.Equal(t, 30*time.Minute, cfg.SeriesCacheTTL)
	assert.Equal(t, time.Minute, cfg.StreamInterval)
	assert.Equal(t, 30*time.Second, cfg.StreamKeepalive)
	assert.Equal(t, 10, cfg.StreamMaxConcurrent)
	assert.Empty(t, cfg.SitesFile)
	assert.Equal(t, 1.0, cfg.DefaultObserver.Snellen)
	assert.Equal(t, 6.0, cfg.DefaultObserver.Experience)
	assert.Equal(t, 25.0, cfg.DefaultObserver.Age)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("DARKSKY_HTTP_ADDR", ":9090")
	t.Setenv("DARKSKY_LOG_LEVEL", "debug")
	t.Setenv("DARKSKY_LOG_FORMAT", "text")
	t.Setenv("DARKSKY_LOG_FILE", "/var/log/darksky.log")
	t.Setenv("DARKSKY_SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("DARKSKY_RATE_LIMIT_RPS", "2.5")
	t.Setenv("DARKSKY_RATE_LIMIT_BURST", "5")
	t.Setenv("DARKSKY_TRUST_PROXY", "true")
	t.Setenv("DARKSKY_AUTH_ENABLED", "1")
	t.Setenv("DARKSKY_AUTH_TOKEN", "s3cret")
	t.Setenv("DARKSKY_DARKNESS_MAX_HOURS", "48")
	t.Setenv("DARKSKY_DARKNESS_WORKERS", "3")
	t.Setenv("DARKSKY_SERIES_CACHE_ENTRIES", "0")
	t.Setenv("DARKSKY_SERIES_CACHE_TTL", "1h")
	t.Setenv("DARKSKY_STREAM_INTERVAL", "10s")
	t.Setenv("DARKSKY_STREAM_KEEPALIVE", "15s")
	t.Setenv("DARKSKY_STREAM_MAX_CONCURRENT", "2")
	t.Setenv("DARKSKY_SITES_FILE", "/etc/darksky/sites.yaml")
	t.Setenv("DARKSKY_DEFAULT_SNELLEN", "1.5")
	t.Setenv("DARKSKY_DEFAULT_EXPERIENCE", "9")
	t.Setenv("DARKSKY_DEFAULT_AGE", "60")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "/var/log/darksky.log", cfg.LogFile)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 2.5, cfg.RateLimitRPS)
	assert.Equal(t, 5, cfg.RateLimitBurst)
	assert.True(t, cfg.TrustProxy)
	assert.True(t, cfg.AuthEnabled)
	assert.Equal(t, "s3cret", cfg.AuthToken)
	assert.Equal(t, 48, cfg.DarknessMaxHours)
	assert.Equal(t, 3, cfg.DarknessWorkers)
	assert.Equal(t, 0, cfg.SeriesCacheEntries)
	assert.Equal(t, time.Hour, cfg.SeriesCacheTTL)
	assert.Equal(t, 10*time.Second, cfg.StreamInterval)
	assert.Equal(t, 15*time.Second, cfg.StreamKeepalive)
	assert.Equal(t, 2, cfg.StreamMaxConcurrent)
	assert.Equal(t, "/etc/darksky/sites.yaml", cfg.SitesFile)
	assert.Equal(t, 1.5, cfg.DefaultObserver.Snellen)
	assert.Equal(t, 9.0, cfg.DefaultObserver.Experience)
	assert.Equal(t, 60.0, cfg.DefaultObserver.Age)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"DARKSKY_SHUTDOWN_TIMEOUT", "not-a-duration"},
		{"DARKSKY_SHUTDOWN_TIMEOUT", "-1s"},
		{"DARKSKY_LOG_LEVEL", "verbose"},
		{"DARKSKY_LOG_FORMAT", "xml"},
		{"DARKSKY_RATE_LIMIT_RPS", "0"},
		{"DARKSKY_RATE_LIMIT_RPS", "fast"},
		{"DARKSKY_RATE_LIMIT_BURST", "-3"},
		{"DARKSKY_TRUST_PROXY", "maybe"},
		{"DARKSKY_DARKNESS_MAX_HOURS", "0"},
		{"DARKSKY_DARKNESS_MAX_HOURS", "1000"},
		{"DARKSKY_DARKNESS_WORKERS", "many"},
		{"DARKSKY_SERIES_CACHE_ENTRIES", "-1"},
		{"DARKSKY_SERIES_CACHE_TTL", "0s"},
		{"DARKSKY_STREAM_INTERVAL", "500ms"},
		{"DARKSKY_STREAM_MAX_CONCURRENT", "0"},
		{"DARKSKY_DEFAULT_SNELLEN", "0"},
		{"DARKSKY_DEFAULT_EXPERIENCE", "11"},
		{"DARKSKY_DEFAULT_EXPERIENCE", "-1"},
		{"DARKSKY_DEFAULT_AGE", "-5"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestLoad_NoviceDefaultObserver(t *testing.T) {
	t.Setenv("DARKSKY_DEFAULT_EXPERIENCE", "0")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 0.0, cfg.DefaultObserver.Experience)
}

func TestLoad_AuthRequiresToken(t *testing.T) {
	t.Setenv("DARKSKY_AUTH_ENABLED", "true")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DARKSKY_AUTH_TOKEN")
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("DARKSKY_HTTP_ADDR=:7070\nDARKSKY_LOG_LEVEL=warn\n"), 0o600))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	// Explicit environment wins over the file.
	t.Setenv("DARKSKY_LOG_LEVEL", "error")
	// godotenv sets variables in the process; register a restore, then
	// unset so the file value applies.
	t.Setenv("DARKSKY_HTTP_ADDR", "")
	require.NoError(t, os.Unsetenv("DARKSKY_HTTP_ADDR"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.HTTPAddr)
	assert.Equal(t, "error", cfg.LogLevel)
}
