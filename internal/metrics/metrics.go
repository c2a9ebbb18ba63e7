package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "darksky_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "darksky_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	calculationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "darksky_calculations_total",
			Help: "Limiting-magnitude evaluations by vision regime.",
		},
		[]string{"regime"},
	)

	glareBranchTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "darksky_glare_branch_total",
			Help: "Evaluations that used the near-Moon glare model.",
		},
	)

	seriesHours = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "darksky_darkness_series_hours",
			Help:    "Length of requested darkness series in hours.",
			Buckets: []float64{1, 6, 12, 24, 48, 84, 168, 384},
		},
	)

	cacheHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "darksky_series_cache_hits_total",
			Help: "Darkness series served from the cache.",
		},
	)

	cacheMissesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "darksky_series_cache_misses_total",
			Help: "Darkness series lookups that had to be computed.",
		},
	)

	cacheEvictionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "darksky_series_cache_evictions_total",
			Help: "Darkness series evicted from the cache.",
		},
	)

	cacheEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "darksky_series_cache_entries",
			Help: "Darkness series currently cached.",
		},
	)

	rateLimitedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "darksky_rate_limited_total",
			Help: "Requests rejected by the per-client rate limiter.",
		},
	)

	streamConnectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "darksky_stream_connections_total",
			Help: "Sky stream connection events.",
		},
		[]string{"event"},
	)

	streamsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "darksky_streams_active",
			Help: "Currently open sky streams.",
		},
	)

	streamMessagesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "darksky_stream_messages_total",
			Help: "Messages sent on sky streams.",
		},
	)

	streamErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "darksky_stream_errors_total",
			Help: "Sky stream errors by reason.",
		},
		[]string{"reason"},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpDurationSeconds,
		calculationsTotal,
		glareBranchTotal,
		seriesHours,
		cacheHitsTotal,
		cacheMissesTotal,
		cacheEvictionsTotal,
		cacheEntries,
		rateLimitedTotal,
		streamConnectionsTotal,
		streamsActive,
		streamMessagesTotal,
		streamErrorsTotal,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordCalculation counts one evaluation of the calculator.
func RecordCalculation(day, glare bool) {
	regime := "night"
	if day {
		regime = "day"
	}
	calculationsTotal.WithLabelValues(regime).Inc()
	if glare {
		glareBranchTotal.Inc()
	}
}

// ObserveSeriesHours records the length of a darkness series.
func ObserveSeriesHours(n int) {
	seriesHours.Observe(float64(n))
}

func IncCacheHits() { cacheHitsTotal.Inc() }
func IncCacheMisses() { cacheMissesTotal.Inc() }

// AddCacheEvictions counts n evicted series.
func AddCacheEvictions(n int) {
	cacheEvictionsTotal.Add(float64(n))
}

// SetCacheEntries publishes the current cache size.
func SetCacheEntries(n int) {
	cacheEntries.Set(float64(n))
}

// IncRateLimited counts a request rejected by the rate limiter.
func IncRateLimited() {
	rateLimitedTotal.Inc()
}

// IncStreamConnections counts a stream "connect" or "disconnect".
func IncStreamConnections(event string) {
	streamConnectionsTotal.WithLabelValues(event).Inc()
}

func IncStreamsActive() { streamsActive.Inc() }
func DecStreamsActive() { streamsActive.Dec() }
func IncStreamMessages() { streamMessagesTotal.Inc() }

// IncStreamErrors counts a stream failure by reason.
func IncStreamErrors(reason string) {
	streamErrorsTotal.WithLabelValues(reason).Inc()
}

// knownRoutes are the paths served by the API; anything else is labelled
// "other" so scanners cannot blow up label cardinality.
var knownRoutes = map[string]bool{
	"/":                          true,
	"/healthz":                   true,
	"/readyz":                    true,
	"/metrics":                   true,
	"/api/v1/limiting-magnitude": true,
	"/api/v1/darkness":           true,
	"/api/v1/stream/sky":         true,
	"/api/v1/sites":              true,
}

func normalizeRoute(path string) string {
	if knownRoutes[path] {
		return path
	}
	if id, ok := strings.CutPrefix(path, "/api/v1/sites/"); ok && id != "" && !strings.Contains(id, "/") {
		return "/api/v1/sites/{id}"
	}
	return "other"
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Flush lets streaming handlers flush through the wrapper.
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Middleware records request count and duration for each request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		code := strconv.Itoa(rw.statusCode)
		route := normalizeRoute(r.URL.Path)

		httpRequestsTotal.WithLabelValues(route, r.Method, code).Inc()
		httpDurationSeconds.WithLabelValues(route, r.Method).Observe(duration)
	})
}
