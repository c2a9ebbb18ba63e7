package sites

import (
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"time"
)

// Store provides thread-safe access to the current catalog.
type Store struct {
	catalog atomic.Pointer[Catalog]
}

// NewStore creates a new empty Store.
func NewStore() *Store {
	return &Store{}
}

// Set atomically replaces the current catalog.
func (s *Store) Set(c *Catalog) {
	s.catalog.Store(c)
}

// List returns the sites of the current catalog.
func (s *Store) List() []Site {
	c := s.catalog.Load()
	if c == nil {
		return []Site{}
	}
	return c.Sites
}

// Lookup finds a site by ID.
func (s *Store) Lookup(id string) (Site, bool) {
	c := s.catalog.Load()
	if c == nil {
		return Site{}, false
	}
	for _, site := range c.Sites {
		if site.ID == id {
			return site, true
		}
	}
	return Site{}, false
}

// Load parses the catalog at path into the store.
func (s *Store) Load(path string, logger *slog.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open site catalog: %w", err)
	}
	defer f.Close()

	list, err := Parse(f, logger)
	if err != nil {
		return err
	}
	s.Set(&Catalog{Source: path, LoadedAt: time.Now(), Sites: list})
	logger.Info("loaded site catalog", "path", path, "count", len(list))
	return nil
}
