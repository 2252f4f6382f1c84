package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"
)

func TestRateLimiterAllowsBurstThenBlocks(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	if !rl.Allow("1.1.1.1") || !rl.Allow("1.1.1.1") {
		t.Fatalf("expected burst of 2 to be allowed")
	}
	if rl.Allow("1.1.1.1") {
		t.Fatalf("expected third request to be limited")
	}
	if !rl.Allow("2.2.2.2") {
		t.Fatalf("expected other IPs to have their own bucket")
	}

	now = now.Add(time.Second)
	if !rl.Allow("1.1.1.1") {
		t.Fatalf("expected a token after one second")
	}
}

func TestRateLimiterSweepsIdleClients(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.Allow("1.1.1.1")
	now = now.Add(limiterIdle + limiterSweepGap + time.Second)
	rl.Allow("2.2.2.2")

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if _, ok := rl.clients["1.1.1.1"]; ok {
		t.Fatalf("expected idle client to be evicted")
	}
}

func TestRateLimitOnlyCountsWrites(t *testing.T) {
	h := RateLimit(0.001, 1)(okHandler(nil))

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/appointments", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("GET %d: expected 200, got %d", i, rec.Code)
		}
	}

	post := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/contact", nil)
		req.RemoteAddr = "9.9.9.9:4000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}
	if got := post(); got != http.StatusOK {
		t.Fatalf("first POST: expected 200, got %d", got)
	}
	if got := post(); got != http.StatusTooManyRequests {
		t.Fatalf("second POST: expected 429, got %d", got)
	}
}

func TestRateLimitDisabled(t *testing.T) {
	h := RateLimit(0, 0)(okHandler(nil))
	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/contact", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected limiter to be disabled, got %d", rec.Code)
		}
	}
}

func TestRateLimitIgnoresClientSuppliedIPHeaders(t *testing.T) {
	h := RateLimit(0.001, 1)(okHandler(nil))

	post := func(spoofed string, port int) int {
		req := httptest.NewRequest(http.MethodPost, "/api/contact", nil)
		req.RemoteAddr = "203.0.113.7:" + strconv.Itoa(port)
		req.Header.Set("X-Real-Ip", spoofed)
		req.Header.Set("X-Forwarded-For", spoofed)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}
	if got := post("10.0.0.1", 4000); got != http.StatusOK {
		t.Fatalf("first POST: expected 200, got %d", got)
	}
	if got := post("10.0.0.2", 4001); got != http.StatusTooManyRequests {
		t.Fatalf("rotating the header or the port must not reset the bucket, got %d", got)
	}
}
