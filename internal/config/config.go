// Package config loads service settings from DARKSKY_* environment
// variables, optionally seeded from a .env file in the working directory.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/kirenia/clear-dark-sky/internal/vision"
)

const prefix = "DARKSKY_"

// Config holds all service settings.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	LogFile         string // empty: stdout only
	ShutdownTimeout time.Duration

	RateLimitRPS   float64
	RateLimitBurst int
	TrustProxy     bool

	AuthEnabled bool
	AuthToken   string

	DarknessMaxHours int
	DarknessWorkers  int

	// SeriesCacheEntries bounds the darkness series cache; 0 disables it.
	SeriesCacheEntries int
	SeriesCacheTTL     time.Duration

	StreamInterval      time.Duration
	StreamKeepalive     time.Duration
	StreamMaxConcurrent int

	// SitesFile is a YAML site catalog, reloaded when it changes. Empty
	// disables named sites.
	SitesFile string

	// DefaultObserver fills vision fields a request leaves out.
	DefaultObserver vision.Observer
}

// Load reads configuration from the environment, applying defaults where
// unset. A missing .env file is not an error; a malformed one is.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var p parser
	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		LogFile:         os.Getenv(prefix + "LOG_FILE"),
		ShutdownTimeout: p.duration("SHUTDOWN_TIMEOUT", 5*time.Second),

		RateLimitRPS:   p.number("RATE_LIMIT_RPS", 10),
		RateLimitBurst: p.integer("RATE_LIMIT_BURST", 20),
		TrustProxy:     p.boolean("TRUST_PROXY", false),

		AuthEnabled: p.boolean("AUTH_ENABLED", false),
		AuthToken:   os.Getenv(prefix + "AUTH_TOKEN"),

		DarknessMaxHours: p.integer("DARKNESS_MAX_HOURS", 84),
		DarknessWorkers:  p.integer("DARKNESS_WORKERS", runtime.NumCPU()),

		SeriesCacheEntries: p.integer("SERIES_CACHE_ENTRIES", 1024),
		SeriesCacheTTL:     p.duration("SERIES_CACHE_TTL", 30*time.Minute),

		StreamInterval:      p.duration("STREAM_INTERVAL", time.Minute),
		StreamKeepalive:     p.duration("STREAM_KEEPALIVE", 30*time.Second),
		StreamMaxConcurrent: p.integer("STREAM_MAX_CONCURRENT", 10),

		SitesFile: os.Getenv(prefix + "SITES_FILE"),

		DefaultObserver: vision.Observer{
			Snellen:    p.number("DEFAULT_SNELLEN", 1),
			Experience: p.number("DEFAULT_EXPERIENCE", 6),
			Age:        p.number("DEFAULT_AGE", 25),
		},
	}
	if p.err != nil {
		return nil, p.err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid %sLOG_LEVEL %q", prefix, c.LogLevel)
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("invalid %sLOG_FORMAT %q", prefix, c.LogFormat)
	}

	checks := []struct {
		ok  bool
		key string
	}{
		{c.ShutdownTimeout > 0, "SHUTDOWN_TIMEOUT"},
		{c.RateLimitRPS > 0, "RATE_LIMIT_RPS"},
		{c.RateLimitBurst > 0, "RATE_LIMIT_BURST"},
		{c.DarknessMaxHours > 0 && c.DarknessMaxHours <= 24*16, "DARKNESS_MAX_HOURS"},
		{c.DarknessWorkers > 0, "DARKNESS_WORKERS"},
		{c.SeriesCacheEntries >= 0, "SERIES_CACHE_ENTRIES"},
		{c.SeriesCacheTTL > 0, "SERIES_CACHE_TTL"},
		{c.StreamInterval >= time.Second, "STREAM_INTERVAL"},
		{c.StreamKeepalive > 0, "STREAM_KEEPALIVE"},
		{c.StreamMaxConcurrent > 0, "STREAM_MAX_CONCURRENT"},
		{c.DefaultObserver.Snellen > 0, "DEFAULT_SNELLEN"},
		{c.DefaultObserver.Experience >= 0 && c.DefaultObserver.Experience <= 10, "DEFAULT_EXPERIENCE"},
		{c.DefaultObserver.Age > 0, "DEFAULT_AGE"},
	}
	for _, chk := range checks {
		if !chk.ok {
			return fmt.Errorf("%s%s out of range", prefix, chk.key)
		}
	}

	if c.AuthEnabled && c.AuthToken == "" {
		return errors.New(prefix + "AUTH_TOKEN is required when auth is enabled")
	}
	return nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(prefix + key); v != "" {
		return v
	}
	return def
}

// parser keeps the first parse error so Load can read every key before
// reporting.
type parser struct {
	err error
}

func (p *parser) fail(key, v string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid %s%s %q: %w", prefix, key, v, err)
	}
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	v := os.Getenv(prefix + key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return d
}

func (p *parser) integer(key string, def int) int {
	v := os.Getenv(prefix + key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return n
}

func (p *parser) number(key string, def float64) float64 {
	v := os.Getenv(prefix + key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return f
}

func (p *parser) boolean(key string, def bool) bool {
	v := os.Getenv(prefix + key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return b
}
