package ratelimit

import (
	"net/http/httptest"
	"testing"
	"time"
)

func newTestLimiter(t *testing.T, requests int, interval time.Duration) *Limiter {
	t.Helper()
	l, err := New(requests, interval, time.Minute, 5*time.Minute)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(l.Close)
	return l
}

func TestNewRejectsInvalidParameters(t *testing.T) {
	if _, err := New(0, time.Second, time.Minute, time.Minute); err == nil {
		t.Error("expected error for zero requests_per_interval")
	}
	if _, err := New(1, 0, time.Minute, time.Minute); err == nil {
		t.Error("expected error for zero interval")
	}
	if _, err := New(1, time.Second, 0, time.Minute); err == nil {
		t.Error("expected error for zero cleanup_interval")
	}
	if _, err := New(1, time.Second, time.Minute, 0); err == nil {
		t.Error("expected error for zero stale_after")
	}
}

func TestAllowEnforcesBurst(t *testing.T) {
	l := newTestLimiter(t, 2, time.Hour)

	if !l.Allow("10.1.1.1") {
		t.Fatal("first request should be allowed")
	}
	if !l.Allow("10.1.1.1") {
		t.Fatal("second request should be allowed")
	}
	if l.Allow("10.1.1.1") {
		t.Fatal("third request should be rejected")
	}
}

func TestClientsAreLimitedIndependently(t *testing.T) {
	l := newTestLimiter(t, 1, time.Hour)

	if !l.Allow("10.1.1.1") {
		t.Fatal("first client should be allowed")
	}
	if !l.Allow("10.2.2.2") {
		t.Fatal("second client should not share the first client's budget")
	}
	if l.Allow("10.1.1.1") {
		t.Fatal("exhausted client should be rejected")
	}
}

func TestRetryAfterIsPositiveWhenExhausted(t *testing.T) {
	l := newTestLimiter(t, 1, time.Hour)

	l.Allow("10.1.1.1")
	if got := l.RetryAfter("10.1.1.1"); got <= 0 {
		t.Errorf("RetryAfter = %d, want > 0", got)
	}
}

func TestExtractClientIPFallsBackToRemoteAddr(t *testing.T) {
	l := newTestLimiter(t, 1, time.Second)

	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "203.0.113.7:51234"
	req.Header.Set("X-Forwarded-For", "198.51.100.9")

	// RemoteAddr is not a trusted proxy, so the header is ignored.
	if got := l.ExtractClientIP(req); got != "203.0.113.7" {
		t.Errorf("ExtractClientIP = %q, want %q", got, "203.0.113.7")
	}
}

func TestExtractClientIPHonorsTrustedProxy(t *testing.T) {
	l := newTestLimiter(t, 1, time.Second)
	l.SetTrustedProxies([]string{"203.0.113.7"})

	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "203.0.113.7:51234"
	req.Header.Set("X-Forwarded-For", "198.51.100.9, 203.0.113.7")

	if got := l.ExtractClientIP(req); got != "198.51.100.9" {
		t.Errorf("ExtractClientIP = %q, want %q", got, "198.51.100.9")
	}
}

func TestExtractClientIPIgnoresGarbageHeader(t *testing.T) {
	l := newTestLimiter(t, 1, time.Second)
	l.SetTrustedProxies([]string{"203.0.113.7"})

	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "203.0.113.7:51234"
	req.Header.Set("X-Forwarded-For", "not-an-ip")

	if got := l.ExtractClientIP(req); got != "203.0.113.7" {
		t.Errorf("ExtractClientIP = %q, want remote addr fallback", got)
	}
}

func TestCleanupRemovesStaleEntries(t *testing.T) {
	l, err := New(1, time.Second, time.Minute, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(l.Close)

	l.Allow("10.1.1.1")
	time.Sleep(20 * time.Millisecond)
	l.cleanup()

	l.mu.Lock()
	_, exists := l.clients["10.1.1.1"]
	l.mu.Unlock()
	if exists {
		t.Error("stale client entry should have been removed")
	}
}
