// Package cache keeps recently built darkness series in memory.
//
// Series are keyed by site, weather, observer and start hour, so every
// request for the same chart within an hour is served from one evaluation.
// A background loop evicts entries older than the TTL.
package cache

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/kirenia/clear-dark-sky/internal/darkness"
	"github.com/kirenia/clear-dark-sky/internal/metrics"
	"github.com/kirenia/clear-dark-sky/internal/vision"
)

// Config holds cache configuration.
type Config struct {
	MaxEntries int           // 0 disables the cache
	TTL        time.Duration // how long a series is served (default: 30m)
	Sweep      time.Duration // eviction interval (default: TTL/4)
	Clock      clockwork.Clock
}

// Key identifies one darkness series.
type Key struct {
	Longitude   float64
	Latitude    float64
	Elevation   float64
	DST         bool
	Temperature float64
	Humidity    float64
	Observer    vision.Observer
	StartHour   int64 // Unix seconds of the first hour
	Hours       int
}

// KeyFor returns the key of a request whose Start is set.
func KeyFor(req darkness.Request) Key {
	return Key{
		Longitude:   req.Longitude,
		Latitude:    req.Latitude,
		Elevation:   req.Elevation,
		DST:         req.DST,
		Temperature: req.Temperature,
		Humidity:    req.Humidity,
		Observer:    req.Observer,
		StartHour:   req.Start.Truncate(time.Hour).Unix(),
		Hours:       req.Hours,
	}
}

type entry struct {
	series   *darkness.Series
	storedAt time.Time
}

// SeriesCache is an in-memory series cache. Safe for concurrent use by
// multiple goroutines.
type SeriesCache struct {
	mu      sync.RWMutex
	entries map[Key]*entry

	config Config
	logger *slog.Logger

	// Counters (lock-free).
	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

// NewSeriesCache creates a new series cache.
func NewSeriesCache(config Config, logger *slog.Logger) *SeriesCache {
	if config.TTL <= 0 {
		config.TTL = 30 * time.Minute
	}
	if config.Sweep <= 0 {
		config.Sweep = config.TTL / 4
	}
	if config.Clock == nil {
		config.Clock = clockwork.NewRealClock()
	}

	logger.Info("series cache initialized",
		"max_entries", config.MaxEntries,
		"ttl_seconds", config.TTL.Seconds(),
	)

	return &SeriesCache{
		entries: make(map[Key]*entry),
		config:  config,
		logger:  logger,
	}
}

// Get returns the cached series for k, or nil. Expired entries miss even
// before the sweeper removes them.
func (c *SeriesCache) Get(k Key) *darkness.Series {
	c.mu.RLock()
	e, ok := c.entries[k]
	c.mu.RUnlock()

	if ok && c.config.Clock.Since(e.storedAt) < c.config.TTL {
		c.hits.Add(1)
		metrics.IncCacheHits()
		return e.series
	}

	c.misses.Add(1)
	metrics.IncCacheMisses()
	return nil
}

// Put stores s under k. When the cache is full the oldest entry makes
// room.
func (c *SeriesCache) Put(k Key, s *darkness.Series) {
	if c.config.MaxEntries <= 0 {
		return
	}

	c.mu.Lock()
	if _, ok := c.entries[k]; !ok && len(c.entries) >= c.config.MaxEntries {
		c.evictOldestLocked()
	}
	c.entries[k] = &entry{series: s, storedAt: c.config.Clock.Now()}
	n := len(c.entries)
	c.mu.Unlock()

	metrics.SetCacheEntries(n)
}

// evictOldestLocked drops the least recently stored entry. Caller holds mu.
func (c *SeriesCache) evictOldestLocked() {
	var oldest Key
	var oldestAt time.Time
	found := false
	for k, e := range c.entries {
		if !found || e.storedAt.Before(oldestAt) {
			oldest, oldestAt, found = k, e.storedAt, true
		}
	}
	if found {
		delete(c.entries, oldest)
		c.evictions.Add(1)
		metrics.AddCacheEvictions(1)
	}
}

// evictExpired removes entries older than the TTL.
func (c *SeriesCache) evictExpired() int {
	cutoff := c.config.Clock.Now().Add(-c.config.TTL)
	var removed int

	c.mu.Lock()
	for k, e := range c.entries {
		if !e.storedAt.After(cutoff) {
			delete(c.entries, k)
			removed++
		}
	}
	n := len(c.entries)
	c.mu.Unlock()

	if removed > 0 {
		c.evictions.Add(int64(removed))
		metrics.AddCacheEvictions(removed)
		metrics.SetCacheEntries(n)
		c.logger.Debug("cache eviction", "entries_removed", removed)
	}
	return removed
}

// Start runs the eviction loop. Blocks until ctx is cancelled.
func (c *SeriesCache) Start(ctx context.Context) {
	ticker := c.config.Clock.NewTicker(c.config.Sweep)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("series cache sweeper stopped")
			return
		case <-ticker.Chan():
			c.evictExpired()
			st := c.Stats()
			c.logger.Debug("series cache sweep",
				"entries", st.Entries,
				"hits", st.Hits,
				"misses", st.Misses,
				"evictions", st.Evictions,
			)
		}
	}
}

// Stats holds cache statistics.
type Stats struct {
	Entries   int
	Hits      int64
	Misses    int64
	Evictions int64
}

// Stats returns current cache statistics.
func (c *SeriesCache) Stats() Stats {
	c.mu.RLock()
	n := len(c.entries)
	c.mu.RUnlock()

	return Stats{
		Entries:   n,
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}
