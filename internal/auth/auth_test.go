package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := Middleware(Config{Enabled: true, Token: "s3cret"})(next)

	tests := []struct {
		name   string
		target string
		header string
		want   int
	}{
		{"valid token", "/api/v1/limiting-magnitude", "Bearer s3cret", http.StatusOK},
		{"scheme is case-insensitive", "/api/v1/darkness", "bearer s3cret", http.StatusOK},
		{"missing header", "/api/v1/limiting-magnitude", "", http.StatusUnauthorized},
		{"wrong token", "/api/v1/darkness", "Bearer nope", http.StatusUnauthorized},
		{"no scheme", "/api/v1/darkness", "s3cret", http.StatusUnauthorized},
		{"basic scheme", "/api/v1/darkness", "Basic s3cret", http.StatusUnauthorized},
		{"empty bearer", "/api/v1/darkness", "Bearer ", http.StatusUnauthorized},
		{"stream requires token", "/api/v1/stream/sky", "", http.StatusUnauthorized},
		{"stream query token", "/api/v1/stream/sky?lat=1&lon=2&access_token=s3cret", "", http.StatusOK},
		{"stream wrong query token", "/api/v1/stream/sky?access_token=nope", "", http.StatusUnauthorized},
		{"query token only on streams", "/api/v1/darkness?access_token=s3cret", "", http.StatusUnauthorized},
		{"header wins over query", "/api/v1/stream/sky?access_token=s3cret", "Bearer nope", http.StatusUnauthorized},
		{"healthz public", "/healthz", "", http.StatusOK},
		{"readyz public", "/readyz", "", http.StatusOK},
		{"metrics public", "/metrics", "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusUnauthorized {
				assert.JSONEq(t, `{"error":"unauthorized"}`, w.Body.String())
				assert.Equal(t, `Bearer realm="darksky"`, w.Header().Get("WWW-Authenticate"))
			}
		})
	}
}

func TestMiddleware_Disabled(t *testing.T) {
	h := Middleware(Config{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("POST", "/api/v1/limiting-magnitude", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}
