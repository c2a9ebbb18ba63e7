package httputil

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"
)

// IPRateLimiter hands out one token bucket per client IP. Buckets idle
// long enough to have refilled are dropped by Sweep; a dropped bucket is
// indistinguishable from a fresh one.
type IPRateLimiter struct {
	mu    sync.Mutex
	ips   map[string]*visitor
	r     rate.Limit
	b     int
	idle  time.Duration
	clock clockwork.Clock
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// minIdle keeps fast-refilling buckets around long enough to matter.
const minIdle = time.Minute

// NewIPRateLimiter allows r requests per second per IP with bursts of b.
// A nil clock selects the real clock.
func NewIPRateLimiter(r rate.Limit, b int, clock clockwork.Clock) *IPRateLimiter {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	idle := minIdle
	if r > 0 {
		if refill := time.Duration(float64(b) / float64(r) * float64(time.Second)); refill > idle {
			idle = refill
		}
	}
	return &IPRateLimiter{
		ips:   make(map[string]*visitor),
		r:     r,
		b:     b,
		idle:  idle,
		clock: clock,
	}
}

// Limiter returns the bucket for ip, creating it on first use.
func (l *IPRateLimiter) Limiter(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.ips[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.r, l.b)}
		l.ips[ip] = v
	}
	v.lastSeen = l.clock.Now()
	return v.limiter
}

// allow takes one token from ip's bucket at the limiter's clock time.
func (l *IPRateLimiter) allow(ip string) bool {
	return l.Limiter(ip).AllowN(l.clock.Now(), 1)
}

// evictIdle drops buckets unused for at least the idle period and
// returns how many remain.
func (l *IPRateLimiter) evictIdle() int {
	cutoff := l.clock.Now().Add(-l.idle)

	l.mu.Lock()
	defer l.mu.Unlock()
	for ip, v := range l.ips {
		if !v.lastSeen.After(cutoff) {
			delete(l.ips, ip)
		}
	}
	return len(l.ips)
}

// Sweep evicts idle buckets once per idle period. Blocks until ctx is
// cancelled.
func (l *IPRateLimiter) Sweep(ctx context.Context) {
	ticker := l.clock.NewTicker(l.idle)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			l.evictIdle()
		}
	}
}

// Middleware rejects requests over the per-IP budget with 429. Paths in
// exempt bypass the limiter. onReject, if non-nil, is called for every
// rejected request.
func (l *IPRateLimiter) Middleware(trustProxy bool, exempt map[string]bool, onReject func()) func(http.Handler) http.Handler {
	retryAfter := "1"
	if l.r > 0 && l.r < 1 {
		retryAfter = strconv.Itoa(int(1/float64(l.r) + 0.999))
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if exempt[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}
			if !l.allow(ClientIP(r, trustProxy)) {
				if onReject != nil {
					onReject()
				}
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", retryAfter)
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]string{"error": "rate limit exceeded"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
