package metrics

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeRoute(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		// Known exact routes.
		{"/healthz", "/healthz"},
		{"/readyz", "/readyz"},
		{"/metrics", "/metrics"},
		{"/", "/"},
		{"/api/v1/limiting-magnitude", "/api/v1/limiting-magnitude"},
		{"/api/v1/darkness", "/api/v1/darkness"},
		{"/api/v1/stream/sky", "/api/v1/stream/sky"},
		{"/api/v1/sites", "/api/v1/sites"},

		// Parameterized routes.
		{"/api/v1/sites/kitt-peak", "/api/v1/sites/{id}"},
		{"/api/v1/sites/cherry-springs-state-park", "/api/v1/sites/{id}"},

		// Unknown/bot paths collapse to "other".
		{"/wp-admin", "other"},
		{"/robots.txt", "other"},
		{"/.env", "other"},
		{"/api/v2/something", "other"},
		{"/api/v1/darkness/extra", "other"},
		{"/favicon.ico", "other"},
		{"/api/v1/sites/", "other"},
		{"/api/v1/sites/a/b", "other"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got := normalizeRoute(tt.path)
			if got != tt.want {
				t.Errorf("normalizeRoute(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

// TestMetricsCardinality verifies that 100 unknown paths produce exactly
// one label.
func TestMetricsCardinality(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		seen[normalizeRoute(fmt.Sprintf("/scan/%d", i))] = true
	}
	if len(seen) != 1 {
		t.Errorf("expected 1 unique label for unknown paths, got %d: %v", len(seen), seen)
	}
}

func TestRecordCalculation(t *testing.T) {
	day := testutil.ToFloat64(calculationsTotal.WithLabelValues("day"))
	night := testutil.ToFloat64(calculationsTotal.WithLabelValues("night"))
	glare := testutil.ToFloat64(glareBranchTotal)

	RecordCalculation(true, false)
	RecordCalculation(false, true)
	RecordCalculation(false, false)

	assert.Equal(t, day+1, testutil.ToFloat64(calculationsTotal.WithLabelValues("day")))
	assert.Equal(t, night+2, testutil.ToFloat64(calculationsTotal.WithLabelValues("night")))
	assert.Equal(t, glare+1, testutil.ToFloat64(glareBranchTotal))
}

func TestMiddleware_CountsNormalizedRoute(t *testing.T) {
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("other", "GET", "418"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/nope", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/also-nope", nil))
	assert.Equal(t, before+2, testutil.ToFloat64(httpRequestsTotal.WithLabelValues("other", "GET", "418")))
}

func TestMiddleware_Flush(t *testing.T) {
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f, ok := w.(http.Flusher)
		if assert.True(t, ok) {
			f.Flush()
		}
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/stream/sky", nil))
	assert.True(t, rec.Flushed)
}
