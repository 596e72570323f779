package middleware

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedisLimiter(t *testing.T) (Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisSlidingWindowLimiter(client, "test"), mr
}

func TestRedisLimiterEnforcesLimit(t *testing.T) {
	limiter, _ := newTestRedisLimiter(t)
	policy := RateLimitPolicy{SustainedLimit: 3, SustainedWindow: time.Minute}

	for i := 0; i < 3; i++ {
		d, err := limiter.Allow(context.Background(), "k", policy)
		if err != nil {
			t.Fatalf("allow %d: %v", i, err)
		}
		if !d.Allowed {
			t.Fatalf("request %d should be allowed", i)
		}
	}
	d, err := limiter.Allow(context.Background(), "k", policy)
	if err != nil {
		t.Fatalf("allow over limit: %v", err)
	}
	if d.Allowed {
		t.Fatal("fourth request should be denied")
	}
	if d.RetryAfter <= 0 {
		t.Fatalf("denied decision needs a retry-after, got %v", d.RetryAfter)
	}
}

func TestRedisLimiterKeysAreIndependent(t *testing.T) {
	limiter, _ := newTestRedisLimiter(t)
	policy := RateLimitPolicy{SustainedLimit: 1, SustainedWindow: time.Minute}

	if d, err := limiter.Allow(context.Background(), "a", policy); err != nil || !d.Allowed {
		t.Fatalf("first key: %v %v", d.Allowed, err)
	}
	if d, err := limiter.Allow(context.Background(), "b", policy); err != nil || !d.Allowed {
		t.Fatalf("second key must have its own budget: %v %v", d.Allowed, err)
	}
	if d, err := limiter.Allow(context.Background(), "a", policy); err != nil || d.Allowed {
		t.Fatalf("first key should be exhausted: %v %v", d.Allowed, err)
	}
}

func TestRedisLimiterWindowSlides(t *testing.T) {
	limiter, mr := newTestRedisLimiter(t)
	policy := RateLimitPolicy{SustainedLimit: 1, SustainedWindow: 2 * time.Second}

	if d, err := limiter.Allow(context.Background(), "k", policy); err != nil || !d.Allowed {
		t.Fatalf("first: %v %v", d.Allowed, err)
	}
	if d, err := limiter.Allow(context.Background(), "k", policy); err != nil || d.Allowed {
		t.Fatalf("second inside window: %v %v", d.Allowed, err)
	}

	// miniredis time is frozen; advancing it expires the recorded hit
	mr.FastForward(3 * time.Second)
	time.Sleep(10 * time.Millisecond)

	if d, err := limiter.Allow(context.Background(), "k", policy); err != nil || !d.Allowed {
		t.Fatalf("after window: %v %v", d.Allowed, err)
	}
}

func TestRedisLimiterSurfacesBackendErrors(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	limiter := NewRedisSlidingWindowLimiter(client, "test")
	mr.Close()

	if _, err := limiter.Allow(context.Background(), "k", RateLimitPolicy{SustainedLimit: 1, SustainedWindow: time.Minute}); err == nil {
		t.Fatal("expected an error when redis is down")
	}
}
