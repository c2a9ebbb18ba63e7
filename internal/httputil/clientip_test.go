package httputil

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientIP_RemoteAddr(t *testing.T) {
	tests := []struct {
		remoteAddr string
		want       string
	}{
		{"192.168.1.1:12345", "192.168.1.1"},
		{"[::1]:12345", "::1"},
		{"192.168.1.1", "192.168.1.1"},
	}
	for _, tt := range tests {
		r := &http.Request{RemoteAddr: tt.remoteAddr}
		assert.Equal(t, tt.want, ClientIP(r, false), tt.remoteAddr)
	}
}

func TestClientIP_TrustProxy(t *testing.T) {
	tests := []struct {
		name string
		xff  string
		xri  string
		want string
	}{
		{"forwarded single", "1.2.3.4", "", "1.2.3.4"},
		{"forwarded chain takes first", "1.2.3.4, 10.0.0.1, 10.0.0.2", "", "1.2.3.4"},
		{"forwarded with port", "1.2.3.4:5555", "", "1.2.3.4"},
		{"forwarded ipv6", "[2001:db8::1]:443", "", "2001:db8::1"},
		{"mapped ipv4", "::ffff:1.2.3.4", "", "1.2.3.4"},
		{"real ip fallback", "", "5.6.7.8", "5.6.7.8"},
		{"forwarded wins", "1.2.3.4", "5.6.7.8", "1.2.3.4"},
		{"junk forwarded falls through", "not-an-ip", "5.6.7.8", "5.6.7.8"},
		{"junk everywhere", "x", "y", "10.0.0.1"},
		{"no headers", "", "", "10.0.0.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &http.Request{RemoteAddr: "10.0.0.1:1234", Header: http.Header{}}
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				r.Header.Set("X-Real-IP", tt.xri)
			}
			assert.Equal(t, tt.want, ClientIP(r, true))
		})
	}
}

func TestClientIP_IgnoresHeadersWhenUntrusted(t *testing.T) {
	r := &http.Request{RemoteAddr: "10.0.0.1:1234", Header: http.Header{}}
	r.Header.Set("X-Forwarded-For", "1.2.3.4")
	r.Header.Set("X-Real-IP", "5.6.7.8")

	assert.Equal(t, "10.0.0.1", ClientIP(r, false))
}
