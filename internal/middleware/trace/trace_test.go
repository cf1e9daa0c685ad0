package trace

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"expensebook/internal/log"
)

func TestMiddlewareTagsAndLogs(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Handler: slog.NewTextHandler(&buf, nil)})
	m := NewMiddleware(logger, func(*http.Request) string { return "198.51.100.1" })

	var seenID string
	var scoped *log.Logger
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = GetRequestID(r.Context())
		scoped = log.FromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("x"))
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/dashboard", nil))

	if !strings.HasPrefix(seenID, "req_") {
		t.Fatalf("request id = %q", seenID)
	}
	if rr.Header().Get(RequestIDHeader) != seenID {
		t.Fatalf("response header = %q, want %q", rr.Header().Get(RequestIDHeader), seenID)
	}
	if scoped == nil || scoped.Component() != log.ComponentHTTP {
		t.Fatalf("request logger not installed")
	}

	out := buf.String()
	for _, want := range []string{"HTTP request completed", "status_code=418", "request_id=" + seenID, "client_ip=198.51.100.1", "level=WARN"} {
		if !strings.Contains(out, want) {
			t.Fatalf("log output missing %q:\n%s", want, out)
		}
	}
	if got := m.GetMetrics().TotalRequests; got != 1 {
		t.Fatalf("total requests = %d", got)
	}
}

func TestMiddlewareKeepsIncomingRequestID(t *testing.T) {
	m := NewMiddleware(nil, nil)
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	r := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	r.Header.Set(RequestIDHeader, "abc")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, r)
	if rr.Header().Get(RequestIDHeader) != "abc" {
		t.Fatalf("request id = %q", rr.Header().Get(RequestIDHeader))
	}
}
