package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLimiterAllow(t *testing.T) {
	l := NewLimiter(5, time.Minute, 5)
	defer l.Close()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	for i := range 5 {
		res := l.Allow("k")
		if !res.Allowed {
			t.Fatalf("request %d refused", i+1)
		}
		if res.Limit != 5 || res.Remaining != 4-i || res.RetryAfter != 0 {
			t.Errorf("request %d: %+v", i+1, res)
		}
	}
	res := l.Allow("k")
	if res.Allowed || res.Remaining != 0 {
		t.Fatalf("6th request: %+v", res)
	}
	if res.RetryAfter < 11*time.Second || res.RetryAfter > 13*time.Second {
		t.Errorf("RetryAfter = %v", res.RetryAfter)
	}
	if other := l.Allow("other"); !other.Allowed {
		t.Error("keys share a bucket")
	}

	now = now.Add(13 * time.Second)
	if res := l.Allow("k"); !res.Allowed {
		t.Error("token not refilled")
	}
}

func TestLimiterCleanup(t *testing.T) {
	l := NewLimiter(60, time.Minute, 1)
	defer l.Close()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	l.Allow("a")
	l.cleanup(now)
	if len(l.buckets) != 1 {
		t.Fatal("fresh bucket dropped")
	}
	l.cleanup(now.Add(11 * time.Minute))
	if len(l.buckets) != 0 {
		t.Error("stale bucket kept")
	}
	l.Close()
}

func TestTierMiddleware(t *testing.T) {
	tier := Tier{Name: "login", Limiter: NewLimiter(1, time.Minute, 1)}
	defer tier.Limiter.Close()
	h := tier.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	do := func(remote string) *httptest.ResponseRecorder {
		r := httptest.NewRequest("POST", "/api/auth/login", nil)
		r.RemoteAddr = remote
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		return w
	}
	if w := do("192.0.2.1:1"); w.Code != http.StatusNoContent || w.Header().Get("X-RateLimit-Limit") != "1" {
		t.Fatalf("first: %d %v", w.Code, w.Header())
	}
	w := do("192.0.2.1:2")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second: %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" || w.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Errorf("headers = %v", w.Header())
	}
	if w := do("192.0.2.2:1"); w.Code != http.StatusNoContent {
		t.Errorf("other client: %d", w.Code)
	}
}
