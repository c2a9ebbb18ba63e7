// Command limmag evaluates the limiting magnitude for one observation, or
// with -hours prints a darkness series for the site, as JSON on stdout.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/kirenia/clear-dark-sky/internal/darkness"
	"github.com/kirenia/clear-dark-sky/internal/limmag"
	"github.com/kirenia/clear-dark-sky/internal/logging"
)

// unset marks a clock flag that should come from the current time.
const unset = -1

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr, clockwork.NewRealClock()); err != nil {
		fmt.Fprintln(os.Stderr, "limmag:", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer, clock clockwork.Clock) error {
	fs := flag.NewFlagSet("limmag", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var in limmag.Input
	fs.Float64Var(&in.Longitude, "lon", 0, "longitude in degrees, west positive")
	fs.Float64Var(&in.Latitude, "lat", 0, "latitude in degrees, north positive")
	fs.Float64Var(&in.Elevation, "elev", 0, "elevation in meters")
	fs.BoolVar(&in.DST, "dst", false, "site keeps daylight saving time")
	fs.Float64Var(&in.Temperature, "temp", 65, "temperature in °F")
	fs.Float64Var(&in.Humidity, "hum", 40, "relative humidity in percent")
	fs.Float64Var(&in.Snellen, "snellen", 1, "Snellen acuity ratio")
	fs.Float64Var(&in.Experience, "exp", 6, "observing experience, 0-10")
	fs.Float64Var(&in.Age, "age", 25, "observer age in years")
	fs.Float64Var(&in.AltStar, "alt", 90, "altitude of the pointing in degrees")
	fs.Float64Var(&in.AzStar, "az", 0, "azimuth of the pointing in degrees from north")

	year := fs.Int("year", unset, "civil year (default now)")
	month := fs.Int("month", unset, "civil month (default now)")
	day := fs.Int("day", unset, "civil day (default now)")
	hour := fs.Int("hour", unset, "civil hour (default now)")
	minute := fs.Int("minute", unset, "civil minute (default now)")
	second := fs.Float64("second", unset, "civil second (default now)")

	hours := fs.Int("hours", 0, "print a darkness series of this many hours instead")
	verbose := fs.Bool("v", false, "log progress to stderr")

	if err := fs.Parse(args); err != nil {
		return err
	}

	level := "warn"
	if *verbose {
		level = "debug"
	}
	logger, _, err := logging.New(stderr, logging.Options{Level: level, Format: "text"})
	if err != nil {
		return err
	}

	in.SetTime(clock.Now())
	pick(&in.Year, *year)
	pick(&in.Month, *month)
	pick(&in.Day, *day)
	pick(&in.Hour, *hour)
	pick(&in.Minute, *minute)
	if *second != unset {
		in.Second = *second
	}

	if err := in.Validate(); err != nil {
		return err
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")

	if *hours > 0 {
		f := darkness.NewForecaster(darkness.Config{MaxHours: *hours, Clock: clock})
		start := time.Now()
		series, err := f.Series(context.Background(), darkness.Request{
			Longitude:   in.Longitude,
			Latitude:    in.Latitude,
			Elevation:   in.Elevation,
			DST:         in.DST,
			Temperature: in.Temperature,
			Humidity:    in.Humidity,
			Observer:    in.Observer(),
			Start:       in.Time(),
			Hours:       *hours,
		})
		if err != nil {
			return err
		}
		logger.Debug("darkness series", "hours", len(series.Hours), "elapsed", time.Since(start))
		return enc.Encode(series)
	}

	res := limmag.Calculate(in)
	logger.Debug("calculated",
		"jd", res.JD,
		"lst", res.LST,
		"glare", res.Diagnostics.Brightness.GlareBranch,
		"day", res.IsDaytime,
	)
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("result not representable: %w", err)
	}
	return nil
}

func pick(dst *int, v int) {
	if v != unset {
		*dst = v
	}
}
