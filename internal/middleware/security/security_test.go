package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestExtractClientIP(t *testing.T) {
	d := NewDetector(nil)

	tests := []struct {
		name    string
		remote  string
		headers map[string]string
		want    string
	}{
		{"direct", "203.0.113.7:5555", nil, "203.0.113.7"},
		{"untrusted peer ignores xff", "203.0.113.7:5555", map[string]string{"X-Forwarded-For": "198.51.100.1"}, "203.0.113.7"},
		{"trusted proxy xff", "10.0.0.2:80", map[string]string{"X-Forwarded-For": "198.51.100.1, 10.0.0.1"}, "198.51.100.1"},
		{"trusted proxy real ip", "127.0.0.1:80", map[string]string{"X-Real-IP": "198.51.100.9"}, "198.51.100.9"},
		{"trusted proxy garbage", "127.0.0.1:80", map[string]string{"X-Forwarded-For": "nope"}, "127.0.0.1"},
		{"no port", "198.51.100.3", nil, "198.51.100.3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := d.ExtractClientIP(r); got != tt.want {
				t.Fatalf("ExtractClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDetectSuspiciousRequest(t *testing.T) {
	d := NewDetector(nil)

	if d.DetectSuspiciousRequest(httptest.NewRequest(http.MethodGet, "/api/dashboard?month=jan", nil)) {
		t.Fatalf("plain request flagged")
	}
	if !d.DetectSuspiciousRequest(httptest.NewRequest(http.MethodGet, "/.env", nil)) {
		t.Fatalf("probe not flagged")
	}
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("User-Agent", "sqlmap/1.7")
	if !d.DetectSuspiciousRequest(r) {
		t.Fatalf("scanner user agent not flagged")
	}
	if got := d.GetMetrics().SuspiciousRequests; got != 2 {
		t.Fatalf("suspicious = %d, want 2", got)
	}
}

func TestHeadersMiddleware(t *testing.T) {
	h := NewHeadersMiddleware(DefaultHeadersConfig()).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("missing nosniff")
	}
	if rr.Header().Get("Strict-Transport-Security") != "" {
		t.Fatalf("HSTS set on plain HTTP")
	}

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.TLS = &tls.ConnectionState{}
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, r)
	if rr.Header().Get("Strict-Transport-Security") != "max-age=31536000; includeSubDomains" {
		t.Fatalf("HSTS = %q", rr.Header().Get("Strict-Transport-Security"))
	}
}

func TestAddTrustedProxy(t *testing.T) {
	d := NewDetector(nil)
	if err := d.AddTrustedProxy("not-a-cidr"); err == nil {
		t.Fatalf("expected error for bad CIDR")
	}

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "203.0.113.7:443"
	r.Header.Set("X-Forwarded-For", "198.51.100.1")
	if got := d.ExtractClientIP(r); got != "203.0.113.7" {
		t.Fatalf("before: ExtractClientIP = %q", got)
	}

	if err := d.AddTrustedProxy("203.0.113.0/24"); err != nil {
		t.Fatal(err)
	}
	if got := d.ExtractClientIP(r); got != "198.51.100.1" {
		t.Fatalf("after: ExtractClientIP = %q", got)
	}
}
