package httpapi

import (
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/prometheus/client_golang/prometheus"

	"brewtracker/internal/config"
)

type fakeBroker bool

func (f fakeBroker) IsConnected() bool { return bool(f) }

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", "file::memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newTestServer(t *testing.T, cfg config.Config, broker brokerStatus) *httptest.Server {
	t.Helper()
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)
	mux := NewMux(openTestDB(t), broker, registry)
	mux.HandleFunc("GET /api/v1/things/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ts := httptest.NewServer(NewServer(cfg, mux, metrics, logger).Handler)
	t.Cleanup(ts.Close)
	return ts
}

func mustGet(t *testing.T, client *http.Client, url string) *http.Response {
	t.Helper()
	resp, err := client.Get(url)
	if err != nil {
		t.Fatalf("get %s: %v", url, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestHealthz(t *testing.T) {
	tests := []struct {
		name   string
		broker brokerStatus
		want   string
	}{
		{"connected", fakeBroker(true), "connected"},
		{"disconnected", fakeBroker(false), "disconnected"},
		{"no broker", nil, "disabled"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, config.Config{}, tt.broker)
			resp := mustGet(t, ts.Client(), ts.URL+"/healthz")
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d; want 200", resp.StatusCode)
			}
			var body map[string]string
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body["status"] != "ok" || body["mqtt"] != tt.want {
				t.Errorf("body = %v; want status ok, mqtt %s", body, tt.want)
			}
		})
	}
}

func TestHealthz_DatabaseDown(t *testing.T) {
	db := openTestDB(t)
	_ = db.Close()
	h := newHealthchecker(db, nil)

	rec := httptest.NewRecorder()
	h.handleHealthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d; want 500", rec.Code)
	}
}

func TestRequestID(t *testing.T) {
	ts := newTestServer(t, config.Config{}, nil)

	resp := mustGet(t, ts.Client(), ts.URL+"/healthz")
	if id := resp.Header.Get(requestIDHeader); len(id) != 36 {
		t.Errorf("generated %s = %q; want a uuid", requestIDHeader, id)
	}

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	resp2, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp2.Body.Close()
	if got := resp2.Header.Get(requestIDHeader); got != "abc-123" {
		t.Errorf("%s = %q; want abc-123", requestIDHeader, got)
	}
}

func TestMetrics(t *testing.T) {
	ts := newTestServer(t, config.Config{}, nil)
	mustGet(t, ts.Client(), ts.URL+"/api/v1/things/42")

	resp := mustGet(t, ts.Client(), ts.URL+"/metrics")
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	out := string(body)
	want := `brewtracker_http_requests_total{method="GET",route="GET /api/v1/things/{id}",status="418"} 1`
	if !strings.Contains(out, want) {
		t.Errorf("metrics missing %q in:\n%s", want, out)
	}
}

func TestRateLimit(t *testing.T) {
	ts := newTestServer(t, config.Config{RateLimitRPS: 0.001, RateLimitBurst: 2}, nil)

	for i := range 2 {
		if resp := mustGet(t, ts.Client(), ts.URL+"/healthz"); resp.StatusCode != http.StatusOK {
			t.Fatalf("request %d status = %d; want 200", i, resp.StatusCode)
		}
	}
	resp := mustGet(t, ts.Client(), ts.URL+"/healthz")
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Errorf("status = %d; want 429", resp.StatusCode)
	}

	metrics := mustGet(t, ts.Client(), ts.URL+"/metrics")
	if metrics.StatusCode != http.StatusTooManyRequests {
		t.Errorf("/metrics status = %d; the limiter covers every route", metrics.StatusCode)
	}
}

func TestRateLimiter_PerClient(t *testing.T) {
	l := NewRateLimiter(1, 1)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	if !l.allow("10.0.0.1") || l.allow("10.0.0.1") {
		t.Fatal("first request should pass and second be limited")
	}
	if !l.allow("10.0.0.2") {
		t.Error("another client should have its own bucket")
	}
	now = now.Add(time.Second)
	if !l.allow("10.0.0.1") {
		t.Error("bucket should refill after a second")
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.7:5123"
	if got := clientIP(req); got != "192.0.2.7" {
		t.Errorf("clientIP = %q; want 192.0.2.7", got)
	}
	req.Header.Set("X-Forwarded-For", " 203.0.113.9 , 10.0.0.1")
	if got := clientIP(req); got != "203.0.113.9" {
		t.Errorf("clientIP = %q; want 203.0.113.9", got)
	}
}
