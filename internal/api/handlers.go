package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/kirenia/clear-dark-sky/internal/cache"
	"github.com/kirenia/clear-dark-sky/internal/darkness"
	"github.com/kirenia/clear-dark-sky/internal/limmag"
	"github.com/kirenia/clear-dark-sky/internal/metrics"
	"github.com/kirenia/clear-dark-sky/internal/sites"
	"github.com/kirenia/clear-dark-sky/internal/vision"
)

const maxBodyBytes = 64 << 10

// Weather assumed when a query omits it.
const (
	defaultTemperature = 65.0 // °F
	defaultHumidity    = 40.0 // percent
)

type handlers struct {
	logger     *slog.Logger
	clock      clockwork.Clock
	forecaster *darkness.Forecaster
	series     *cache.SeriesCache
	sites      *sites.Store
	observer   vision.Observer
}

// calculateRequest is a limmag.Input whose clock, observer and pointing
// fields may be omitted.
type calculateRequest struct {
	limmag.Input

	Year   *int     `json:"year"`
	Month  *int     `json:"month"`
	Day    *int     `json:"day"`
	Hour   *int     `json:"hour"`
	Minute *int     `json:"minute"`
	Second *float64 `json:"second"`

	Snellen    *float64 `json:"snellen"`
	Experience *float64 `json:"experience"`
	Age        *float64 `json:"age"`

	AltStar *float64 `json:"altStar"`
}

// resolve fills omitted clock fields from now in the site's civil zone,
// omitted vision fields from the default observer and an omitted
// altitude with the zenith.
func (req calculateRequest) resolve(now time.Time, observer vision.Observer) limmag.Input {
	in := req.Input
	in.SetTime(now)
	setInt(&in.Year, req.Year)
	setInt(&in.Month, req.Month)
	setInt(&in.Day, req.Day)
	setInt(&in.Hour, req.Hour)
	setInt(&in.Minute, req.Minute)
	setFloat(&in.Second, req.Second)

	in.Snellen = observer.Snellen
	in.Experience = observer.Experience
	in.Age = observer.Age
	setFloat(&in.Snellen, req.Snellen)
	setFloat(&in.Experience, req.Experience)
	setFloat(&in.Age, req.Age)

	in.AltStar = 90
	setFloat(&in.AltStar, req.AltStar)
	return in
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

// POST /api/v1/limiting-magnitude
func (h *handlers) limitingMagnitude(w http.ResponseWriter, r *http.Request) {
	var req calculateRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	in := req.resolve(h.clock.Now(), h.observer)
	if err := in.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res := limmag.Calculate(in)
	metrics.RecordCalculation(res.IsDaytime, res.Diagnostics.Brightness.GlareBranch)

	if err := writeResult(w, res); err != nil {
		h.logger.Warn("calculation not representable",
			"component", "api",
			"longitude", in.Longitude,
			"latitude", in.Latitude,
			"humidity", in.Humidity,
			"error", err,
		)
	}
}

// GET /api/v1/darkness
func (h *handlers) darkness(w http.ResponseWriter, r *http.Request) {
	in, err := h.siteInput(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req := darkness.Request{
		Longitude:   in.Longitude,
		Latitude:    in.Latitude,
		Elevation:   in.Elevation,
		DST:         in.DST,
		Temperature: in.Temperature,
		Humidity:    in.Humidity,
		Observer:    in.Observer(),
		Hours:       darkness.DefaultHours,
	}

	q := r.URL.Query()
	if v := q.Get("hours"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > h.forecaster.MaxHours() {
			writeError(w, http.StatusBadRequest,
				fmt.Sprintf("invalid hours parameter, must be 1-%d", h.forecaster.MaxHours()))
			return
		}
		req.Hours = n
	}
	if req.Hours > h.forecaster.MaxHours() {
		req.Hours = h.forecaster.MaxHours()
	}
	if v := q.Get("start"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid start parameter, must be RFC3339")
			return
		}
		req.Start = t
	} else {
		req.Start = h.clock.Now()
	}

	key := cache.KeyFor(req)
	if series := h.series.Get(key); series != nil {
		if err := writeResult(w, series); err != nil {
			h.logger.Warn("darkness series not representable", "component", "api", "error", err)
		}
		return
	}

	series, err := h.forecaster.Series(r.Context(), req)
	switch {
	case errors.Is(err, darkness.ErrHoursRange):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		h.logger.Warn("darkness series aborted", "component", "api", "error", err)
		writeError(w, http.StatusServiceUnavailable, "darkness series aborted")
		return
	}
	metrics.ObserveSeriesHours(len(series.Hours))
	h.series.Put(key, series)

	if err := writeResult(w, series); err != nil {
		h.logger.Warn("darkness series not representable", "component", "api", "error", err)
	}
}

// siteInput builds a validated input for the current instant from the
// query string. The location is either a catalog site (site) or lon and
// lat with optional elevation and dst; temperature, humidity, snellen,
// experience, age, alt and az are optional.
func (h *handlers) siteInput(r *http.Request) (limmag.Input, error) {
	q := r.URL.Query()
	p := queryParser{q: q}

	var in limmag.Input
	if id := q.Get("site"); id != "" {
		site, ok := h.sites.Lookup(id)
		if !ok {
			return limmag.Input{}, fmt.Errorf("unknown site %q", id)
		}
		in.Longitude, in.Latitude = site.Longitude, site.Latitude
		in.Elevation, in.DST = site.Elevation, site.DST
	} else {
		in.Longitude = p.required("lon")
		in.Latitude = p.required("lat")
		in.Elevation = p.number("elevation", 0)
		in.DST = p.boolean("dst")
	}
	in.Temperature = p.number("temperature", defaultTemperature)
	in.Humidity = p.number("humidity", defaultHumidity)
	in.Snellen = p.number("snellen", h.observer.Snellen)
	in.Experience = p.number("experience", h.observer.Experience)
	in.Age = p.number("age", h.observer.Age)
	in.AltStar = p.number("alt", 90)
	in.AzStar = p.number("az", 0)
	if p.err != nil {
		return limmag.Input{}, p.err
	}

	in.SetTime(h.clock.Now())
	if err := in.Validate(); err != nil {
		return limmag.Input{}, err
	}
	return in, nil
}

// GET /api/v1/sites
func (h *handlers) listSites(w http.ResponseWriter, r *http.Request) {
	writeResult(w, map[string]any{"sites": h.sites.List()})
}

// GET /api/v1/sites/{id}
func (h *handlers) getSite(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	site, ok := h.sites.Lookup(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("site %q not found", id))
		return
	}
	writeResult(w, site)
}

// queryParser reads typed query parameters, keeping the first error.
type queryParser struct {
	q   url.Values
	err error
}

func (p *queryParser) required(name string) float64 {
	if p.q.Get(name) == "" && p.err == nil {
		p.err = fmt.Errorf("missing %s parameter", name)
	}
	return p.number(name, 0)
}

func (p *queryParser) number(name string, def float64) float64 {
	v := p.q.Get(name)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("invalid %s parameter %q", name, v)
	}
	return f
}

func (p *queryParser) boolean(name string) bool {
	v := p.q.Get(name)
	if v == "" {
		return false
	}
	b, err := strconv.ParseBool(v)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("invalid %s parameter %q", name, v)
	}
	return b
}

// writeResult marshals v before writing so a non-finite value becomes a
// 422 instead of a truncated 200.
func writeResult(w http.ResponseWriter, v any) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "result is not finite for these conditions")
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, err := w.Write(buf.Bytes())
	return err
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
