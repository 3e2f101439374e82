package service

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/spec-kit/blog-security-service/internal/config"
	"github.com/spec-kit/blog-security-service/internal/domain"
	"github.com/spec-kit/blog-security-service/internal/observability"
	"github.com/spec-kit/blog-security-service/internal/store"
)

func testRateLimitConfig() config.RateLimitConfig {
	return config.RateLimitConfig{
		WindowSeconds:  60,
		AuthIPLimit:    20,
		AuthUserLimit:  10,
		ReadIPLimit:    300,
		ReadUserLimit:  200,
		WriteIPLimit:   100,
		WriteUserLimit: 50,
	}
}

func newRateLimitFixture(st store.Store) *RateLimitService {
	return NewRateLimitService(testRateLimitConfig(), st, observability.NewMetrics(), zap.NewNop())
}

func TestClassifyEndpoint(t *testing.T) {
	cases := []struct {
		method string
		path   string
		want   domain.EndpointClass
	}{
		{"GET", "/static/app.css", domain.EndpointClassExempt},
		{"GET", "/assets/logo.png", domain.EndpointClassExempt},
		{"GET", "/health/ready", domain.EndpointClassExempt},
		{"GET", "/favicon.ico", domain.EndpointClassExempt},
		{"POST", "/auth/logout", domain.EndpointClassAuth},
		{"GET", "/confirmation", domain.EndpointClassAuth},
		{"GET", "/posts/42", domain.EndpointClassRead},
		{"HEAD", "/posts/42", domain.EndpointClassRead},
		{"POST", "/posts", domain.EndpointClassMutation},
		{"DELETE", "/posts/42", domain.EndpointClassMutation},
	}
	for _, tc := range cases {
		if got := ClassifyEndpoint(tc.method, tc.path); got != tc.want {
			t.Errorf("ClassifyEndpoint(%s %s) = %s, want %s", tc.method, tc.path, got, tc.want)
		}
	}
}

func TestDualKeyLimitingUserCeilingBindsFirst(t *testing.T) {
	ctx := context.Background()
	gate := newRateLimitFixture(store.NewMemoryStore())
	key := EndpointKey("POST", "/posts")

	// Single user from one IP: denied after the per-user ceiling of 50,
	// even though the IP ceiling of 100 is unmet.
	allowed, denied := 0, 0
	for i := 0; i < 60; i++ {
		if gate.IsAllowed(ctx, "198.51.100.1", key, "alice") {
			allowed++
		} else {
			denied++
		}
	}
	if allowed != 50 || denied != 10 {
		t.Fatalf("expected 50 allowed / 10 denied, got %d/%d", allowed, denied)
	}
}

func TestAnonymousTrafficLimitedByIPCeiling(t *testing.T) {
	ctx := context.Background()
	gate := newRateLimitFixture(store.NewMemoryStore())
	key := EndpointKey("POST", "/comments")

	allowed := 0
	for i := 0; i < 110; i++ {
		if gate.IsAllowed(ctx, "198.51.100.2", key, "") {
			allowed++
		}
	}
	if allowed != 100 {
		t.Fatalf("expected 100 anonymous requests allowed, got %d", allowed)
	}
}

func TestSeparateUsersShareIPCeiling(t *testing.T) {
	ctx := context.Background()
	gate := newRateLimitFixture(store.NewMemoryStore())
	key := EndpointKey("POST", "/posts")

	// Two users behind one NAT IP each stay under their user ceiling; the
	// shared IP counter still applies across both.
	for i := 0; i < 40; i++ {
		if !gate.IsAllowed(ctx, "198.51.100.3", key, "alice") {
			t.Fatalf("alice request %d unexpectedly denied", i)
		}
		if !gate.IsAllowed(ctx, "198.51.100.3", key, "bob") {
			t.Fatalf("bob request %d unexpectedly denied", i)
		}
	}
	// 80 requests counted against the IP; the next 20 pass, then the IP
	// ceiling of 100 binds regardless of user.
	for i := 0; i < 20; i++ {
		if !gate.IsAllowed(ctx, "198.51.100.3", key, "carol") {
			t.Fatalf("carol request %d unexpectedly denied", i)
		}
	}
	if gate.IsAllowed(ctx, "198.51.100.3", key, "dave") {
		t.Fatal("expected IP ceiling to deny a fresh user on the same address")
	}
}

func TestExemptEndpointsBypassCounting(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	gate := newRateLimitFixture(st)

	for i := 0; i < 1000; i++ {
		if !gate.IsAllowed(ctx, "198.51.100.4", EndpointKey("GET", "/static/app.js"), "alice") {
			t.Fatal("expected static asset requests to be exempt")
		}
	}
	keys, _ := st.ScanKeys(ctx, "ratelimit:*")
	if len(keys) != 0 {
		t.Fatalf("expected no counters for exempt traffic, got %v", keys)
	}
}

func TestRateLimitFailsOpenOnStoreOutage(t *testing.T) {
	ctx := context.Background()
	gate := newRateLimitFixture(failingStore{})

	if !gate.IsAllowed(ctx, "198.51.100.5", EndpointKey("POST", "/posts"), "alice") {
		t.Fatal("expected the gate to fail open on store outage")
	}
}

func TestGetRateLimitStatusProjection(t *testing.T) {
	ctx := context.Background()
	gate := newRateLimitFixture(store.NewMemoryStore())
	key := EndpointKey("POST", "/posts")

	for i := 0; i < 10; i++ {
		gate.IsAllowed(ctx, "198.51.100.6", key, "alice")
	}

	status := gate.GetRateLimitStatus(ctx, "198.51.100.6", key, "alice")
	if status.IPCount != 10 || status.UserCount != 10 {
		t.Fatalf("expected both counts at 10, got ip=%d user=%d", status.IPCount, status.UserCount)
	}
	if status.MaxRequests != 50 {
		t.Fatalf("expected user ceiling 50, got %d", status.MaxRequests)
	}
	if status.RemainingRequests != 40 {
		t.Fatalf("expected 40 remaining, got %d", status.RemainingRequests)
	}

	// Status reads never increment.
	again := gate.GetRateLimitStatus(ctx, "198.51.100.6", key, "alice")
	if again.UserCount != 10 {
		t.Fatalf("expected read-only status, count moved to %d", again.UserCount)
	}
}
