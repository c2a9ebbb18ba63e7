// Package darkness evaluates the limiting magnitude at the zenith hour by
// hour for a site, producing the series behind a darkness chart.
package darkness

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/kirenia/clear-dark-sky/internal/limmag"
	"github.com/kirenia/clear-dark-sky/internal/vision"
)

// DefaultHours is the length of a forecast chart.
const DefaultHours = 84

// ErrHoursRange is returned when a request asks for fewer than one hour or
// more than the forecaster allows.
var ErrHoursRange = errors.New("darkness: hours out of range")

// Request describes a site, its weather and the observer.
type Request struct {
	Longitude float64 // degrees, west positive
	Latitude  float64
	Elevation float64 // meters
	DST       bool

	Temperature float64 // °F
	Humidity    float64 // percent

	Observer vision.Observer

	// Start is rounded down to the site's civil hour. Zero means now.
	Start time.Time
	// Hours defaults to DefaultHours when zero.
	Hours int
}

// Hour is one column of the chart.
type Hour struct {
	Time             time.Time `json:"time"`
	LimMag           float64   `json:"lim_mag"`
	MagErr           float64   `json:"mag_err"`
	SunAlt           float64   `json:"sun_alt"`
	MoonAlt          float64   `json:"moon_alt"`
	MoonIllumination float64   `json:"moon_illumination"` // percent
	Twilight         Twilight  `json:"twilight"`
	Color            Color     `json:"color"`
}

// Series is the result of a forecast.
type Series struct {
	Start time.Time   `json:"start"`
	Hours []Hour      `json:"hours"`
	Sun   []SunEvents `json:"sun"`
}

// Config configures a Forecaster. Zero values select the defaults.
type Config struct {
	Workers  int // concurrent evaluations, default runtime.NumCPU()
	MaxHours int // upper bound on Request.Hours, default DefaultHours
	Clock    clockwork.Clock

	// Observe, when set, is called with every evaluated hour. It runs on
	// worker goroutines.
	Observe func(limmag.Result)
}

// Forecaster builds darkness series.
type Forecaster struct {
	workers  int
	maxHours int
	clock    clockwork.Clock
	observe  func(limmag.Result)
}

// NewForecaster returns a Forecaster for cfg.
func NewForecaster(cfg Config) *Forecaster {
	f := &Forecaster{
		workers:  cfg.Workers,
		maxHours: cfg.MaxHours,
		clock:    cfg.Clock,
		observe:  cfg.Observe,
	}
	if f.workers < 1 {
		f.workers = runtime.NumCPU()
	}
	if f.maxHours < 1 {
		f.maxHours = DefaultHours
	}
	if f.clock == nil {
		f.clock = clockwork.NewRealClock()
	}
	return f
}

// MaxHours returns the longest series the forecaster will build.
func (f *Forecaster) MaxHours() int {
	return f.maxHours
}

// Series evaluates every hour of the request. Hours are computed in
// parallel, bounded by the worker count; the result is in time order.
func (f *Forecaster) Series(ctx context.Context, req Request) (*Series, error) {
	n := req.Hours
	if n == 0 {
		n = DefaultHours
	}
	if n < 1 || n > f.maxHours {
		return nil, fmt.Errorf("%w: %d not in [1, %d]", ErrHoursRange, n, f.maxHours)
	}

	start := req.Start
	if start.IsZero() {
		start = f.clock.Now()
	}
	start = limmag.CivilAt(start, req.Longitude, req.DST).Truncate(time.Hour)

	hours := make([]Hour, n)
	sem := make(chan struct{}, f.workers)
	var wg sync.WaitGroup

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}
			if ctx.Err() != nil {
				return
			}

			hours[idx] = f.evaluate(req, start.Add(time.Duration(idx)*time.Hour))
		}(i)
	}

	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("darkness series: %w", err)
	}

	end := start.Add(time.Duration(n-1) * time.Hour)
	return &Series{
		Start: start,
		Hours: hours,
		Sun:   sunEvents(req, start, end),
	}, nil
}

// evaluate runs the calculator at the zenith for one civil hour.
func (f *Forecaster) evaluate(req Request, at time.Time) Hour {
	in := limmag.Input{
		Longitude:   req.Longitude,
		Latitude:    req.Latitude,
		Elevation:   req.Elevation,
		DST:         req.DST,
		Temperature: req.Temperature,
		Humidity:    req.Humidity,
		Snellen:     req.Observer.Snellen,
		Experience:  req.Observer.Experience,
		Age:         req.Observer.Age,
		AltStar:     90,
	}
	in.SetTime(at)

	res := limmag.Calculate(in)
	if f.observe != nil {
		f.observe(res)
	}

	sunAlt := res.Diagnostics.SunHorizon.Alt
	return Hour{
		Time:             at,
		LimMag:           res.LimMag,
		MagErr:           res.MagErr,
		SunAlt:           sunAlt,
		MoonAlt:          res.Diagnostics.MoonHorizon.Alt,
		MoonIllumination: res.IllFrac,
		Twilight:         Classify(sunAlt),
		Color:            ColorCode(res.LimMag),
	}
}
