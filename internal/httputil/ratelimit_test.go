package httputil

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestIPRateLimiter_SameBucketPerIP(t *testing.T) {
	l := NewIPRateLimiter(1, 2, nil)
	assert.Same(t, l.Limiter("1.2.3.4"), l.Limiter("1.2.3.4"))
	assert.NotSame(t, l.Limiter("1.2.3.4"), l.Limiter("5.6.7.8"))
}

func TestIPRateLimiter_Middleware(t *testing.T) {
	// A very slow refill makes the burst the whole budget for the test.
	l := NewIPRateLimiter(0.001, 2, nil)
	rejected := 0
	h := l.Middleware(false, map[string]bool{"/healthz": true}, func() { rejected++ })(okHandler())

	do := func(path, remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("GET", path, nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, do("/api/v1/darkness", "10.0.0.1:1000").Code)
	assert.Equal(t, http.StatusOK, do("/api/v1/darkness", "10.0.0.1:1001").Code)

	rec := do("/api/v1/darkness", "10.0.0.1:1002")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "1000", rec.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"rate limit exceeded"}`, rec.Body.String())
	assert.Equal(t, 1, rejected)

	// Other clients have their own budget.
	assert.Equal(t, http.StatusOK, do("/api/v1/darkness", "10.0.0.2:1000").Code)

	// Exempt paths are never limited.
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, do("/healthz", "10.0.0.1:1003").Code)
	}
}

func TestIPRateLimiter_TrustProxy(t *testing.T) {
	l := NewIPRateLimiter(0.001, 1, nil)
	h := l.Middleware(true, nil, nil)(okHandler())

	do := func(xff string) int {
		req := httptest.NewRequest("GET", "/api/v1/limiting-magnitude", nil)
		req.RemoteAddr = "10.0.0.1:1000"
		req.Header.Set("X-Forwarded-For", xff)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, do("1.1.1.1"))
	assert.Equal(t, http.StatusTooManyRequests, do("1.1.1.1"))
	assert.Equal(t, http.StatusOK, do("2.2.2.2"))
}

func (l *IPRateLimiter) tracked() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.ips)
}

func TestIPRateLimiter_IdlePeriod(t *testing.T) {
	// Slow buckets stay until they could have refilled; fast ones for a minute.
	assert.Equal(t, 2000*time.Second, NewIPRateLimiter(0.001, 2, nil).idle)
	assert.Equal(t, time.Minute, NewIPRateLimiter(10, 20, nil).idle)
}

func TestIPRateLimiter_EvictsIdleClients(t *testing.T) {
	clock := clockwork.NewFakeClock()
	l := NewIPRateLimiter(10, 20, clock)
	h := l.Middleware(false, nil, nil)(okHandler())

	for i := 0; i < 500; i++ {
		req := httptest.NewRequest("GET", "/api/v1/darkness", nil)
		req.RemoteAddr = fmt.Sprintf("10.0.%d.%d:1000", i/256, i%256)
		h.ServeHTTP(httptest.NewRecorder(), req)
	}
	require.Equal(t, 500, l.tracked())

	clock.Advance(30 * time.Second)
	l.Limiter("10.0.0.1")
	assert.Equal(t, 500, l.evictIdle(), "nothing is idle yet")

	clock.Advance(30 * time.Second)
	assert.Equal(t, 1, l.evictIdle(), "only the recently seen client remains")

	clock.Advance(30 * time.Second)
	assert.Equal(t, 0, l.evictIdle())
}

func TestIPRateLimiter_Sweep(t *testing.T) {
	clock := clockwork.NewFakeClock()
	l := NewIPRateLimiter(10, 20, clock)
	l.Limiter("1.2.3.4")
	l.Limiter("5.6.7.8")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.Sweep(ctx)
		close(done)
	}()

	waitCtx, waitCancel := context.WithTimeout(ctx, 5*time.Second)
	defer waitCancel()
	require.NoError(t, clock.BlockUntilContext(waitCtx, 1))
	clock.Advance(time.Minute)

	assert.Eventually(t, func() bool { return l.tracked() == 0 },
		5*time.Second, 10*time.Millisecond)

	cancel()
	<-done
}
