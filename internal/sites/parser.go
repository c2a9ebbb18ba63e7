package sites

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	nonWord    = regexp.MustCompile(`[^\w\s-]`)
	separators = regexp.MustCompile(`[-\s]+`)
)

// Slugify turns a site name into a URL-friendly ID.
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = nonWord.ReplaceAllString(s, "")
	return strings.Trim(separators.ReplaceAllString(s, "-"), "-")
}

// Parse reads a YAML list of sites from r. Entries without a name, with
// out-of-range coordinates or with a duplicate ID are skipped with a
// warning log; a missing ID is derived from the name.
func Parse(r io.Reader, logger *slog.Logger) ([]Site, error) {
	var raw []Site
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("reading site catalog: %w", err)
	}

	seen := make(map[string]bool, len(raw))
	sites := make([]Site, 0, len(raw))
	for i, s := range raw {
		s.Name = strings.TrimSpace(s.Name)
		if s.Name == "" {
			logger.Warn("skipping site without a name", "index", i)
			continue
		}
		if s.ID == "" {
			s.ID = Slugify(s.Name)
		}
		if s.Latitude < -90 || s.Latitude > 90 || s.Longitude < -180 || s.Longitude > 180 {
			logger.Warn("skipping site with invalid coordinates",
				"id", s.ID, "latitude", s.Latitude, "longitude", s.Longitude)
			continue
		}
		if seen[s.ID] {
			logger.Warn("skipping duplicate site", "id", s.ID, "index", i)
			continue
		}
		seen[s.ID] = true
		sites = append(sites, s)
	}
	return sites, nil
}
