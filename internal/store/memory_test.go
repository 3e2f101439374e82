package store

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStoreDeleteReturnsPrevious(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if err := s.SetWithTTL(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	prev, err := s.Delete(ctx, "k")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if prev != "v" {
		t.Fatalf("expected previous value %q, got %q", "v", prev)
	}

	prev, err = s.Delete(ctx, "k")
	if err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if prev != "" {
		t.Fatalf("expected empty previous value on second delete, got %q", prev)
	}
}

func TestMemoryStoreTTLEviction(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if err := s.SetWithTTL(ctx, "short", "v", time.Millisecond); err != nil {
		t.Fatalf("set: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	val, err := s.Get(ctx, "short")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if val != "" {
		t.Fatalf("expected eviction, got %q", val)
	}
}

func TestMemoryStoreIncrementWindow(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	for want := int64(1); want <= 3; want++ {
		got, err := s.Increment(ctx, "counter", time.Minute)
		if err != nil {
			t.Fatalf("increment: %v", err)
		}
		if got != want {
			t.Fatalf("expected count %d, got %d", want, got)
		}
	}
}

func TestMemoryStoreScanKeys(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_ = s.SetWithTTL(ctx, "user:42:bookmark:1", "x", time.Minute)
	_ = s.SetWithTTL(ctx, "user:42:like:9", "x", time.Minute)
	_ = s.SetWithTTL(ctx, "user:7:like:3", "x", time.Minute)

	keys, err := s.ScanKeys(ctx, "user:42:*")
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("expected 2 keys, got %d: %v", len(keys), keys)
	}
}

func TestMemoryStoreSets(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if err := s.SetAdd(ctx, "active", "a", "b"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.SetRemove(ctx, "active", "a"); err != nil {
		t.Fatalf("remove: %v", err)
	}

	members, err := s.SetMembers(ctx, "active")
	if err != nil {
		t.Fatalf("members: %v", err)
	}
	if len(members) != 1 || members[0] != "b" {
		t.Fatalf("expected [b], got %v", members)
	}
}
