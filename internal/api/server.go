// Package api serves the limiting-magnitude calculator, the darkness
// forecast and the live sky stream over HTTP.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"

	"github.com/kirenia/clear-dark-sky/internal/auth"
	"github.com/kirenia/clear-dark-sky/internal/cache"
	"github.com/kirenia/clear-dark-sky/internal/config"
	"github.com/kirenia/clear-dark-sky/internal/darkness"
	"github.com/kirenia/clear-dark-sky/internal/health"
	"github.com/kirenia/clear-dark-sky/internal/httputil"
	"github.com/kirenia/clear-dark-sky/internal/limmag"
	"github.com/kirenia/clear-dark-sky/internal/metrics"
	"github.com/kirenia/clear-dark-sky/internal/sites"
	"github.com/kirenia/clear-dark-sky/internal/stream"
)

// Server holds the HTTP server and its dependencies.
type Server struct {
	httpServer *http.Server
	series     *cache.SeriesCache
	limiter    *httputil.IPRateLimiter
	logger     *slog.Logger
}

// NewServer creates a configured HTTP server. A nil clock selects the
// real clock; a nil catalog serves no named sites.
func NewServer(cfg *config.Config, logger *slog.Logger, clock clockwork.Clock, catalog *sites.Store) *Server {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if catalog == nil {
		catalog = sites.NewStore()
	}

	forecaster := darkness.NewForecaster(darkness.Config{
		Workers:  cfg.DarknessWorkers,
		MaxHours: cfg.DarknessMaxHours,
		Clock:    clock,
		Observe: func(res limmag.Result) {
			metrics.RecordCalculation(res.IsDaytime, res.Diagnostics.Brightness.GlareBranch)
		},
	})

	series := cache.NewSeriesCache(cache.Config{
		MaxEntries: cfg.SeriesCacheEntries,
		TTL:        cfg.SeriesCacheTTL,
		Clock:      clock,
	}, logger)

	h := &handlers{
		logger:     logger,
		clock:      clock,
		forecaster: forecaster,
		series:     series,
		sites:      catalog,
		observer:   cfg.DefaultObserver,
	}

	streamHandler := stream.NewHandler(h.siteInput, stream.Config{
		MaxConcurrentPerIP: cfg.StreamMaxConcurrent,
		Interval:           cfg.StreamInterval,
		KeepaliveInterval:  cfg.StreamKeepalive,
		TrustProxy:         cfg.TrustProxy,
		Clock:              clock,
	}, logger)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", health.Healthz)
	mux.HandleFunc("GET /readyz", health.Readyz(health.Calculator))
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("POST /api/v1/limiting-magnitude", h.limitingMagnitude)
	mux.HandleFunc("GET /api/v1/darkness", h.darkness)
	mux.HandleFunc("GET /api/v1/stream/sky", streamHandler.HandleSky)
	mux.HandleFunc("GET /api/v1/sites", h.listSites)
	mux.HandleFunc("GET /api/v1/sites/{id}", h.getSite)

	limiter := httputil.NewIPRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst, clock)

	// Build middleware chain: metrics -> logging -> rate limit -> auth -> mux.
	var handler http.Handler = mux
	handler = auth.Middleware(auth.Config{Enabled: cfg.AuthEnabled, Token: cfg.AuthToken})(handler)
	handler = limiter.Middleware(cfg.TrustProxy, unlimitedPaths, metrics.IncRateLimited)(handler)
	handler = loggingMiddleware(logger, cfg.TrustProxy)(handler)
	handler = metrics.Middleware(handler)

	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           handler,
			ReadTimeout:       10 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		series:  series,
		limiter: limiter,
		logger:  logger,
	}
}

// unlimitedPaths bypass the per-client rate limiter.
var unlimitedPaths = map[string]bool{
	"/healthz": true,
	"/readyz":  true,
	"/metrics": true,
}

// HTTPServer returns the underlying *http.Server for shutdown.
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// Handler returns the full middleware chain.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start runs background maintenance until ctx is cancelled: the series
// cache sweeper and the rate limiter's idle-client sweep.
func (s *Server) Start(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.series.Start(ctx)
	}()
	go func() {
		defer wg.Done()
		s.limiter.Sweep(ctx)
	}()
	wg.Wait()
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// probePath reports whether path is a liveness or readiness probe, which
// is logged at debug.
func probePath(path string) bool {
	return path == "/healthz" || path == "/readyz"
}

// statusRecorder captures the status and body size for the access log.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	bytes      int64
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += int64(n)
	return n, err
}

func (sr *statusRecorder) Flush() {
	if f, ok := sr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (sr *statusRecorder) Unwrap() http.ResponseWriter {
	return sr.ResponseWriter
}

func loggingMiddleware(logger *slog.Logger, trustProxy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(sr, r)

			duration := time.Since(start)
			level := slog.LevelInfo
			if probePath(r.URL.Path) {
				level = slog.LevelDebug
			}

			logger.Log(r.Context(), level, "request",
				"component", "api",
				"method", r.Method,
				"path", r.URL.Path,
				"status", strconv.Itoa(sr.statusCode),
				"duration_ms", duration.Milliseconds(),
				"bytes", sr.bytes,
				"remote_ip", httputil.ClientIP(r, trustProxy),
			)
		})
	}
}
