package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiterDeniesAfterLimit(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	h := rl.Middleware()(okHandler())

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/breads", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != http.StatusNoContent {
			t.Fatalf("request %d expected 204, got %d", i, rr.Code)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/breads", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header on denial")
	}
	if code := errorCode(t, rr); code != "RATE_LIMITED" {
		t.Fatalf("expected RATE_LIMITED, got %s", code)
	}
}

func TestRateLimiterKeysByClientIP(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	h := rl.Middleware()(okHandler())

	first := httptest.NewRequest(http.MethodGet, "/api/v1/breads", nil)
	first.RemoteAddr = "10.0.0.1:1234"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, first)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}

	other := httptest.NewRequest(http.MethodGet, "/api/v1/breads", nil)
	other.RemoteAddr = "10.0.0.2:1234"
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, other)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("other client should not share the budget, got %d", rr.Code)
	}
}

func TestSubjectOrIPKeyFunc(t *testing.T) {
	mgr := testJWTManager()
	keyOf := SubjectOrIPKeyFunc(mgr)

	raw, signed, err := mgr.SignAccessToken(42, false, true, time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	req.Header.Set("Authorization", "Bearer "+raw)
	if got := keyOf(req); got != "sub:"+signed.Subject {
		t.Fatalf("expected subject key, got %q", got)
	}

	anon := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	anon.RemoteAddr = "10.0.0.1:1234"
	if got := keyOf(anon); got != "10.0.0.1" {
		t.Fatalf("expected IP key without a bearer token, got %q", got)
	}

	garbage := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil)
	garbage.RemoteAddr = "10.0.0.1:1234"
	garbage.Header.Set("Authorization", "Bearer not-a-jwt")
	if got := keyOf(garbage); got != "10.0.0.1" {
		t.Fatalf("expected IP key for an unparsable token, got %q", got)
	}
}

func TestAuthLimiterBucketsPerSubjectBehindSharedIP(t *testing.T) {
	mgr := testJWTManager()
	rl := NewDistributedRateLimiterWithKey(NewLocalFixedWindowLimiter(), 1, time.Minute, FailOpen, "auth", SubjectOrIPKeyFunc(mgr))
	h := rl.Middleware()(okHandler())

	for _, id := range []uint{1, 2} {
		raw, _, err := mgr.SignAccessToken(id, false, true, time.Minute)
		if err != nil {
			t.Fatalf("sign for user %d: %v", id, err)
		}
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		req.Header.Set("Authorization", "Bearer "+raw)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != http.StatusNoContent {
			t.Fatalf("user %d behind the shared IP should have its own budget, got %d", id, rr.Code)
		}
	}
}
