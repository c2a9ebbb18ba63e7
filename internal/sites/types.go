package sites

import "time"

// Site is a named observing location. Longitude is west-positive like the
// rest of the calculator.
type Site struct {
	ID        string  `yaml:"id" json:"id"`
	Name      string  `yaml:"name" json:"name"`
	Latitude  float64 `yaml:"latitude" json:"latitude"`
	Longitude float64 `yaml:"longitude" json:"longitude"`
	Elevation float64 `yaml:"elevation" json:"elevation"` // meters
	DST       bool    `yaml:"dst" json:"dst"`
}

// Catalog is a complete set of sites from one source.
type Catalog struct {
	Source   string
	LoadedAt time.Time
	Sites    []Site
}
