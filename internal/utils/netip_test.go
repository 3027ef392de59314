package utils

import (
	"crypto/tls"
	"net/http/httptest"
	"testing"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remote     string
		headers    map[string]string
		trustProxy bool
		expected   string
	}{
		{name: "remote addr", remote: "192.0.2.1:1234", expected: "192.0.2.1"},
		{name: "ipv6 remote addr", remote: "[2001:db8::1]:443", expected: "2001:db8::1"},
		{
			name:     "forwarded ignored without trust",
			remote:   "192.0.2.1:1234",
			headers:  map[string]string{"X-Forwarded-For": "203.0.113.9"},
			expected: "192.0.2.1",
		},
		{
			name:       "first forwarded for",
			remote:     "127.0.0.1:1234",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.1"},
			trustProxy: true,
			expected:   "203.0.113.9",
		},
		{
			name:       "cloudflare wins",
			remote:     "127.0.0.1:1234",
			headers:    map[string]string{"CF-Connecting-IP": "198.51.100.7", "X-Forwarded-For": "203.0.113.9"},
			trustProxy: true,
			expected:   "198.51.100.7",
		},
		{
			name:       "real ip fallback",
			remote:     "127.0.0.1:1234",
			headers:    map[string]string{"X-Real-IP": "198.51.100.8"},
			trustProxy: true,
			expected:   "198.51.100.8",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := ClientIP(r, tt.trustProxy); got != tt.expected {
				t.Errorf("ClientIP() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestRequestBaseURL(t *testing.T) {
	t.Run("plain http", func(t *testing.T) {
		r := httptest.NewRequest("POST", "http://qr.local:8080/api/generate", nil)
		if got := RequestBaseURL(r, false); got != "http://qr.local:8080" {
			t.Errorf("RequestBaseURL() = %q", got)
		}
	})

	t.Run("tls", func(t *testing.T) {
		r := httptest.NewRequest("POST", "https://qr.example.com/api/generate", nil)
		r.TLS = &tls.ConnectionState{}
		if got := RequestBaseURL(r, false); got != "https://qr.example.com" {
			t.Errorf("RequestBaseURL() = %q", got)
		}
	})

	t.Run("forwarded headers need trust", func(t *testing.T) {
		r := httptest.NewRequest("POST", "http://backend:8080/api/generate", nil)
		r.Header.Set("X-Forwarded-Proto", "https")
		r.Header.Set("X-Forwarded-Host", "qr.example.com")

		if got := RequestBaseURL(r, false); got != "http://backend:8080" {
			t.Errorf("untrusted RequestBaseURL() = %q", got)
		}
		if got := RequestBaseURL(r, true); got != "https://qr.example.com" {
			t.Errorf("trusted RequestBaseURL() = %q", got)
		}
	})

	t.Run("bogus forwarded proto", func(t *testing.T) {
		r := httptest.NewRequest("POST", "http://qr.local/api/generate", nil)
		r.Header.Set("X-Forwarded-Proto", "gopher")
		if got := RequestScheme(r, true); got != "http" {
			t.Errorf("RequestScheme() = %q, want http", got)
		}
	})
}

func TestIPMatcher(t *testing.T) {
	m := NewIPMatcher([]string{"10.0.0.0/8", " 192.168.1.4 ", "2001:db8::/32", "not-an-ip", ""})

	tests := []struct {
		ip    string
		allow bool
	}{
		{"10.1.2.3", true},
		{"11.0.0.1", false},
		{"192.168.1.4", true},
		{"192.168.1.5", false},
		{"::ffff:10.0.0.1", true},
		{"2001:db8::42", true},
		{"2001:db9::1", false},
		{"garbage", false},
	}

	for _, tt := range tests {
		t.Run(tt.ip, func(t *testing.T) {
			if got := m.Allow(tt.ip); got != tt.allow {
				t.Errorf("Allow(%q) = %v, want %v", tt.ip, got, tt.allow)
			}
		})
	}

	if m.IsEmpty() {
		t.Error("IsEmpty() = true for a populated matcher")
	}
	if !NewIPMatcher(nil).IsEmpty() {
		t.Error("IsEmpty() = false for an empty matcher")
	}
}
