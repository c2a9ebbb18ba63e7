// Package stream implements the live sky feed: a Server-Sent Events
// stream that re-evaluates the limiting magnitude for one site on a fixed
// interval. Clients connect via GET /api/v1/stream/sky with the site in
// the query string.
//
// Every event is named and numbered:
//
//	event: sky
//	id: 2
//	data: {"type":"sky","t":"2000-01-15T19:40:00-07:00","lim_mag":4.95,...}
//
// The first event is always metadata:
//
//	event: metadata
//	id: 1
//	data: {"type":"metadata","longitude":111.617,"latitude":31.95,"interval_seconds":60}
//
// A sky message follows immediately, then one per interval. Keep-alive
// comments (:\n\n) fill gaps longer than KeepaliveInterval.
package stream

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"math/rand"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/kirenia/clear-dark-sky/internal/darkness"
	"github.com/kirenia/clear-dark-sky/internal/httputil"
	"github.com/kirenia/clear-dark-sky/internal/limmag"
	"github.com/kirenia/clear-dark-sky/internal/metrics"
)

// Config holds streaming configuration.
type Config struct {
	MaxConcurrentPerIP int           // default 10
	MaxConcurrent      int           // across all clients, default 1000
	Interval           time.Duration // time between sky messages, default 1m
	KeepaliveInterval  time.Duration // default 30s
	TrustProxy         bool
	Clock              clockwork.Clock
}

// SiteFunc extracts the observing situation from a stream request. The
// clock fields of the returned input are overwritten on every message.
type SiteFunc func(r *http.Request) (limmag.Input, error)

// Handler manages SSE streaming connections.
type Handler struct {
	site   SiteFunc
	config Config
	slots  *slots
	logger *slog.Logger
}

// NewHandler creates a new streaming handler.
func NewHandler(site SiteFunc, config Config, logger *slog.Logger) *Handler {
	if config.MaxConcurrentPerIP < 1 {
		config.MaxConcurrentPerIP = 10
	}
	if config.MaxConcurrent < 1 {
		config.MaxConcurrent = 1000
	}
	if config.Interval <= 0 {
		config.Interval = time.Minute
	}
	if config.KeepaliveInterval <= 0 {
		config.KeepaliveInterval = 30 * time.Second
	}
	if config.Clock == nil {
		config.Clock = clockwork.NewRealClock()
	}
	return &Handler{
		site:   site,
		config: config,
		slots:  newSlots(config.MaxConcurrentPerIP, config.MaxConcurrent),
		logger: logger.With("component", "stream"),
	}
}

// HandleSky serves the SSE sky stream.
// GET /api/v1/stream/sky?lon=111.617&lat=31.95&elevation=1925&temperature=58&humidity=8
func (h *Handler) HandleSky(w http.ResponseWriter, r *http.Request) {
	in, err := h.site(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ip := httputil.ClientIP(r, h.config.TrustProxy)
	if err := h.slots.take(ip); err != nil {
		reason := "client_busy"
		if errors.Is(err, errServerBusy) {
			reason = "server_busy"
		}
		metrics.IncStreamErrors(reason)
		h.logger.Warn("stream rejected",
			"remote_ip", ip,
			"reason", reason,
			"open", h.slots.held(ip),
		)
		w.Header().Set("Retry-After", "30")
		writeError(w, http.StatusTooManyRequests, err.Error())
		return
	}

	metrics.IncStreamConnections("connect")
	metrics.IncStreamsActive()

	clock := h.config.Clock
	connectedAt := clock.Now()
	h.logger.Info("stream connected",
		"remote_ip", ip,
		"user_agent", r.Header.Get("User-Agent"),
		"longitude", in.Longitude,
		"latitude", in.Latitude,
	)

	var sent int64
	defer func() {
		h.slots.give(ip)
		metrics.IncStreamConnections("disconnect")
		metrics.DecStreamsActive()
		h.logger.Info("stream disconnected",
			"remote_ip", ip,
			"messages", sent,
			"duration", clock.Since(connectedAt).String(),
		)
	}()

	if _, ok := w.(http.Flusher); !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	ev := newEventWriter(w, ip, h.logger)
	defer func() { sent = ev.seq }()

	// The server's WriteTimeout would otherwise end the stream; each write
	// sets its own deadline instead.
	if err := ev.rc.SetWriteDeadline(time.Time{}); err != nil {
		h.logger.Debug("could not clear write deadline", "error", err)
	}

	// Spread reconnects over 3-7s.
	if err := ev.retry(time.Duration(3000+rand.Intn(4000)) * time.Millisecond); err != nil {
		return
	}

	meta := metadataMessage{
		Type:            "metadata",
		Longitude:       in.Longitude,
		Latitude:        in.Latitude,
		IntervalSeconds: int(h.config.Interval / time.Second),
	}
	if err := ev.send("metadata", meta); err != nil {
		metrics.IncStreamErrors("send_error")
		h.logger.Warn("stream send error", "remote_ip", ip, "event", "metadata", "error", err)
		return
	}

	if err := h.sendSky(ev, in, clock.Now()); err != nil {
		return
	}

	ticker := clock.NewTicker(h.config.Interval)
	defer ticker.Stop()

	keepalive := clock.NewTicker(h.config.KeepaliveInterval)
	defer keepalive.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return

		case t := <-ticker.Chan():
			if err := h.sendSky(ev, in, t); err != nil {
				return
			}
			keepalive.Reset(h.config.KeepaliveInterval)

		case <-keepalive.Chan():
			if err := ev.comment(); err != nil {
				metrics.IncStreamErrors("send_error")
				h.logger.Warn("stream keepalive error", "remote_ip", ip, "error", err)
				return
			}
		}
	}
}

// sendSky evaluates the site at t and writes one sky message. A
// non-finite result is skipped; only write failures end the stream.
func (h *Handler) sendSky(ev *eventWriter, in limmag.Input, t time.Time) error {
	in.SetTime(t)
	res := limmag.Calculate(in)
	metrics.RecordCalculation(res.IsDaytime, res.Diagnostics.Brightness.GlareBranch)

	msg, ok := buildSkyMessage(in, res)
	if !ok {
		metrics.IncStreamErrors("non_finite")
		h.logger.Warn("stream result not finite", "remote_ip", ev.ip, "t", in.Time())
		return nil
	}
	if err := ev.send("sky", msg); err != nil {
		metrics.IncStreamErrors("send_error")
		h.logger.Warn("stream send error", "remote_ip", ev.ip, "event", "sky", "error", err)
		return err
	}
	return nil
}

func buildSkyMessage(in limmag.Input, res limmag.Result) (skyMessage, bool) {
	if math.IsNaN(res.LimMag) || math.IsInf(res.LimMag, 0) ||
		math.IsNaN(float64(res.SkyBrightnessNL)) || math.IsInf(float64(res.SkyBrightnessNL), 0) {
		return skyMessage{}, false
	}
	return skyMessage{
		Type:            "sky",
		T:               in.Time().Format(time.RFC3339),
		LimMag:          res.LimMag,
		MagErr:          res.MagErr,
		SkyBrightnessNL: res.SkyBrightnessNL,
		SunAlt:          res.AltSun,
		MoonAlt:         res.AltMoon,
		IllFrac:         res.IllFrac,
		IsDaytime:       res.IsDaytime,
		Twilight:        darkness.Classify(res.AltSun),
		Color:           darkness.ColorCode(res.LimMag),
	}, true
}

// SSE message payload types.

type metadataMessage struct {
	Type            string  `json:"type"`
	Longitude       float64 `json:"longitude"`
	Latitude        float64 `json:"latitude"`
	IntervalSeconds int     `json:"interval_seconds"`
}

type skyMessage struct {
	Type            string              `json:"type"`
	T               string              `json:"t"`
	LimMag          float64             `json:"lim_mag"`
	MagErr          float64             `json:"mag_err"`
	SkyBrightnessNL limmag.Nanolamberts `json:"sky_brightness_nl"`
	SunAlt          float64             `json:"sun_alt"`
	MoonAlt         float64             `json:"moon_alt"`
	IllFrac         float64             `json:"ill_frac"`
	IsDaytime       bool                `json:"is_daytime"`
	Twilight        darkness.Twilight   `json:"twilight"`
	Color           darkness.Color      `json:"color"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
