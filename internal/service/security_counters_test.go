package service

import (
	"context"
	"testing"

	"github.com/spec-kit/blog-security-service/internal/config"
	"github.com/spec-kit/blog-security-service/internal/store"
)

func TestFailedLoginCounter(t *testing.T) {
	ctx := context.Background()
	counters := NewSecurityCounters(config.SecurityConfig{
		FailedLoginWindowMinutes:   15,
		VerificationCodeTTLMinutes: 5,
	}, store.NewMemoryStore())

	for want := int64(1); want <= 3; want++ {
		got, err := counters.RecordFailedLogin(ctx, "alice")
		if err != nil {
			t.Fatalf("record: %v", err)
		}
		if got != want {
			t.Fatalf("expected count %d, got %d", want, got)
		}
	}

	if err := counters.ResetFailedLogins(ctx, "alice"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	got, err := counters.RecordFailedLogin(ctx, "alice")
	if err != nil {
		t.Fatalf("record after reset: %v", err)
	}
	if got != 1 {
		t.Fatalf("expected counter restart at 1, got %d", got)
	}
}

func TestVerificationCodeConsumedOnce(t *testing.T) {
	ctx := context.Background()
	counters := NewSecurityCounters(config.SecurityConfig{
		FailedLoginWindowMinutes:   15,
		VerificationCodeTTLMinutes: 5,
	}, store.NewMemoryStore())

	if err := counters.StoreVerificationCode(ctx, "u1", "123456"); err != nil {
		t.Fatalf("store: %v", err)
	}

	ok, err := counters.ConsumeVerificationCode(ctx, "u1", "123456")
	if err != nil || !ok {
		t.Fatalf("expected first consume to match, ok=%v err=%v", ok, err)
	}

	ok, err = counters.ConsumeVerificationCode(ctx, "u1", "123456")
	if err != nil {
		t.Fatalf("second consume: %v", err)
	}
	if ok {
		t.Fatal("expected code to be single-use")
	}
}

func TestVerificationCodeMismatchStillConsumes(t *testing.T) {
	ctx := context.Background()
	counters := NewSecurityCounters(config.SecurityConfig{
		FailedLoginWindowMinutes:   15,
		VerificationCodeTTLMinutes: 5,
	}, store.NewMemoryStore())

	if err := counters.StoreVerificationCode(ctx, "u1", "123456"); err != nil {
		t.Fatalf("store: %v", err)
	}

	ok, err := counters.ConsumeVerificationCode(ctx, "u1", "999999")
	if err != nil || ok {
		t.Fatalf("expected mismatch to fail, ok=%v err=%v", ok, err)
	}
	// A wrong guess burns the code; the attacker cannot retry against it.
	ok, err = counters.ConsumeVerificationCode(ctx, "u1", "123456")
	if err != nil || ok {
		t.Fatalf("expected code to be gone after mismatch, ok=%v err=%v", ok, err)
	}
}
